package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `lrms exposes the LRMS research management account of the signed-in user.

Workflow:
1) Call whoami. If it returns NOT_LOGGED_IN, call login with email and password.
2) Browse: list_my_projects (includes status counts), get_project for documents and people, project_stats.
3) Edit: create_project, update_project (only the fields you pass change), delete_project.
4) Inbox: list_notifications, then mark_notification_read, delete_notification or respond_invitation.
5) People: get_profile, list_my_groups, list_department_users.

Results are cached. Pass refresh=true to list tools when fresh data matters. Writes refresh
the affected lists automatically.

Errors carry a code and a recovery hint. SESSION_EXPIRED means the server rejected the stored
token: call login again.

Docs:
- lrms://docs/index
- lrms://docs/errors
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "lrms://docs/index",
		Name:        "docs_index",
		Title:       "lrms docs index",
		Description: "What the tools return and how caching behaves.",
		Content: `# lrms: Agent Docs Index

## Tools

| Tool | Purpose |
|---|---|
| login / logout / whoami | Manage the local session. The token is stored on disk and survives restarts. |
| list_my_projects | Projects of the signed-in user with pending/approved/rejected counts. |
| get_project | One project with documents, creator, approver and department. |
| project_stats | Status counts only. Unknown statuses are counted separately. |
| list_notifications | Inbox with unread count. Invitations carry an invitation_id. |
| mark_notification_read / delete_notification | Update one notification. |
| respond_invitation | Accept or reject a group invitation. Accepting also refreshes projects. |
| create_project / update_project / delete_project | Write one project. The project list and its detail are refreshed. |
| get_profile | Profile of the signed-in user with academic level and group roles. |
| list_my_groups | Research groups of the signed-in user, members with role and status. |
| list_department_users | Users of a department as lecturers, students and staff. |

## Caching

- Identical reads share one request and are served from cache afterwards.
- Every write refreshes the lists it affects before returning.
- Logging in or out clears all cached data.
- When the server rejects the token, cached data nobody is watching is dropped.
`,
	},
	{
		URI:         "lrms://docs/errors",
		Name:        "docs_errors",
		Title:       "lrms error codes",
		Description: "Error codes returned by tools and how to recover.",
		Content: `# Error codes

- NOT_LOGGED_IN: no stored session. Call login.
- SESSION_EXPIRED: the server answered 401. Call login again.
- NETWORK_ERROR: the API could not be reached. Retry later.
- HTTP_ERROR: the API rejected the request; the message is the server's.
- PARSE_ERROR: the API answered with an unexpected payload.
- PROJECT_NOT_FOUND / NOTIFICATION_NOT_FOUND / USER_NOT_FOUND: check the ID.
- INVITATION_HANDLED: the invitation was already accepted or rejected.
- INVALID_INPUT: a required argument is missing or malformed.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
