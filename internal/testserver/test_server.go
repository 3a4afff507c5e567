package testserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ganot/lrms-client/internal/api"
)

// Default credentials seeded into every Server.
const (
	DefaultEmail    = "a@b.com"
	DefaultPassword = "secret"
	DefaultToken    = "tok123"
	DefaultUserID   = int64(7)
	DefaultFullName = "A B"
)

// Request is a recorded inbound request.
type Request struct {
	Method        string
	Path          string
	RawQuery      string
	Authorization string
	Body          []byte
}

// Document is a project attachment.
type Document struct {
	DocumentID   int64  `json:"documentId"`
	FileName     string `json:"fileName"`
	DocumentURL  string `json:"documentUrl"`
	DocumentType int    `json:"documentType"`
	UploadAt     string `json:"uploadAt"`
}

// Project mirrors the backend project payload.
type Project struct {
	ProjectID      int64      `json:"projectId"`
	ProjectName    string     `json:"projectName"`
	ProjectType    int        `json:"projectType"`
	Description    string     `json:"description"`
	ApprovedBudget float64    `json:"approvedBudget"`
	Status         int        `json:"status"`
	StartDate      string     `json:"startDate"`
	EndDate        string     `json:"endDate"`
	GroupID        int64      `json:"groupId"`
	GroupName      string     `json:"groupName"`
	DepartmentID   int64      `json:"departmentId"`
	Documents      []Document `json:"documents,omitempty"`
}

// Notification mirrors the backend notification payload.
type Notification struct {
	NotificationID int64  `json:"notificationId"`
	UserID         int64  `json:"userId"`
	Title          string `json:"title"`
	Message        string `json:"message"`
	IsRead         bool   `json:"isRead"`
	InvitationID   *int64 `json:"invitationId,omitempty"`
	CreatedAt      string `json:"createdAt"`
}

// Group is a research group membership in a user profile.
type Group struct {
	GroupID   int64  `json:"groupId"`
	GroupName string `json:"groupName"`
	Role      int    `json:"role"`
}

// Member is one user listed inside a research group.
type Member struct {
	UserID   int64  `json:"userId"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Role     int    `json:"role"`
	Status   int    `json:"status"`
}

// ResearchGroup mirrors the backend group payload.
type ResearchGroup struct {
	GroupID   int64    `json:"groupId"`
	GroupName string   `json:"groupName"`
	Members   []Member `json:"members,omitempty"`
}

// User mirrors the backend user payload.
type User struct {
	UserID       int64   `json:"userId"`
	Username     string  `json:"username"`
	FullName     string  `json:"fullName"`
	Email        string  `json:"email"`
	Phone        string  `json:"phone"`
	DepartmentID int64   `json:"departmentId"`
	Level        int     `json:"level"`
	Status       int     `json:"status"`
	Groups       []Group `json:"groups,omitempty"`
	password     string
	token        string
}

// Hold parks one request after its response is computed and before it is written.
type Hold struct {
	arrived chan struct{}
	release chan struct{}
	once    sync.Once
}

// Arrived is closed once the held request has been computed.
func (h *Hold) Arrived() <-chan struct{} { return h.arrived }

// Release lets the held response be written.
func (h *Hold) Release() { h.once.Do(func() { close(h.release) }) }

// Server is an in-memory fake of the LRMS REST API.
type Server struct {
	URL string

	srv *httptest.Server
	mux *http.ServeMux

	mu            sync.Mutex
	requests      []Request
	users         map[string]*User
	projects      []Project
	userGroups    map[int64][]ResearchGroup
	notifications []*Notification
	invitations   map[int64]string
	holds         map[string][]*Hold
	overrides     map[string]http.HandlerFunc
	expired       bool
	nextUserID    int64
	nextProjectID int64
}

// New starts a fake server seeded with the default user.
func New(t *testing.T) *Server {
	t.Helper()

	s := &Server{
		users:         make(map[string]*User),
		userGroups:    make(map[int64][]ResearchGroup),
		invitations:   make(map[int64]string),
		holds:         make(map[string][]*Hold),
		overrides:     make(map[string]http.HandlerFunc),
		nextUserID:    100,
		nextProjectID: 1000,
	}
	s.users[DefaultEmail] = &User{
		UserID:   DefaultUserID,
		Username: "ab",
		FullName: DefaultFullName,
		Email:    DefaultEmail,
		Level:    2,
		Groups:   []Group{{GroupID: 3, GroupName: "NLP Lab", Role: 0}},
		password: DefaultPassword,
		token:    DefaultToken,
	}

	s.mux = http.NewServeMux()
	s.routes()
	s.srv = httptest.NewServer(http.HandlerFunc(s.serve))
	s.URL = s.srv.URL
	t.Cleanup(func() {
		s.mu.Lock()
		for _, queue := range s.holds {
			for _, h := range queue {
				h.Release()
			}
		}
		s.mu.Unlock()
		s.srv.Close()
	})
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	s.mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	s.mux.HandleFunc("GET /api/project/get-my-projects", s.authed(s.handleMyProjects))
	s.mux.HandleFunc("GET /api/project/details/{id}", s.authed(s.handleProjectDetail))
	s.mux.HandleFunc("POST /api/project", s.authed(s.handleCreateProject))
	s.mux.HandleFunc("PUT /api/project/{id}", s.authed(s.handleUpdateProject))
	s.mux.HandleFunc("DELETE /api/project/{id}", s.authed(s.handleDeleteProject))
	s.mux.HandleFunc("GET /api/users/{id}", s.authed(s.handleGetUser))
	s.mux.HandleFunc("PUT /api/users/{id}", s.authed(s.handleUpdateUser))
	s.mux.HandleFunc("PUT /users/{id}/change-password", s.authed(s.handleChangePassword))
	s.mux.HandleFunc("GET /users/{id}/groups", s.authed(s.handleUserGroups))
	s.mux.HandleFunc("GET /departments/{id}/users", s.authed(s.handleDepartmentUsers))
	s.mux.HandleFunc("GET /api/notifications", s.authed(s.handleListNotifications))
	s.mux.HandleFunc("PUT /api/notifications/{id}", s.authed(s.handleMarkRead))
	s.mux.HandleFunc("DELETE /api/notifications/{id}", s.authed(s.handleDeleteNotification))
	s.mux.HandleFunc("POST /api/invitations/{id}/accept", s.authed(s.handleInvitation("accepted")))
	s.mux.HandleFunc("POST /api/invitations/{id}/reject", s.authed(s.handleInvitation("rejected")))
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	r.Body = io.NopCloser(strings.NewReader(string(body)))

	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method:        r.Method,
		Path:          r.URL.Path,
		RawQuery:      r.URL.RawQuery,
		Authorization: r.Header.Get("Authorization"),
		Body:          body,
	})
	override := s.overrides[r.Method+" "+r.URL.Path]
	var hold *Hold
	if queue := s.holds[r.URL.Path]; len(queue) > 0 {
		hold = queue[0]
		s.holds[r.URL.Path] = queue[1:]
	}
	s.mu.Unlock()

	rec := httptest.NewRecorder()
	if override != nil {
		override(rec, r)
	} else {
		s.mux.ServeHTTP(rec, r)
	}

	if hold != nil {
		close(hold.arrived)
		select {
		case <-hold.release:
		case <-r.Context().Done():
			return
		}
	}

	for k, v := range rec.Header() {
		w.Header()[k] = v
	}
	w.WriteHeader(rec.Code)
	_, _ = w.Write(rec.Body.Bytes())
}

// StaticToken is a fixed bearer token source.
type StaticToken string

// CurrentToken implements api.TokenSource.
func (t StaticToken) CurrentToken(context.Context) (string, bool) {
	return string(t), t != ""
}

// Client returns an API client signed in as the default user.
func (s *Server) Client() *api.Client {
	return api.NewClient(api.Config{BaseURL: s.URL, Tokens: StaticToken(DefaultToken)})
}

// Requests returns a copy of every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Count returns how many requests matched method and path.
func (s *Server) Count(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// HoldNext parks the next request for path until the returned Hold is released.
func (s *Server) HoldNext(path string) *Hold {
	h := &Hold{arrived: make(chan struct{}), release: make(chan struct{})}
	s.mu.Lock()
	s.holds[path] = append(s.holds[path], h)
	s.mu.Unlock()
	return h
}

// Override replaces the handler for method and path.
func (s *Server) Override(method, path string, h http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[method+" "+path] = h
}

// ExpireSessions makes every authenticated call answer with envelope status 401.
func (s *Server) ExpireSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expired = true
}

// SetProjects replaces the project list.
func (s *Server) SetProjects(projects ...Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects = append([]Project(nil), projects...)
}

// SetProjectStatus changes the status of one project.
func (s *Server) SetProjectStatus(id int64, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.projects {
		if s.projects[i].ProjectID == id {
			s.projects[i].Status = status
		}
	}
}

// AddUser registers another account. It cannot sign in.
func (s *Server) AddUser(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := u
	s.users[u.Email] = &cp
}

// SetUserGroups replaces the research groups listed for userID.
func (s *Server) SetUserGroups(userID int64, groups ...ResearchGroup) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userGroups[userID] = append([]ResearchGroup(nil), groups...)
}

// Password returns the current password of the default user.
func (s *Server) Password() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[DefaultEmail].password
}

// AddNotification appends a notification.
func (s *Server) AddNotification(n Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := n
	s.notifications = append(s.notifications, &cp)
	if n.InvitationID != nil {
		s.invitations[*n.InvitationID] = "pending"
	}
}

// InvitationState returns pending, accepted or rejected.
func (s *Server) InvitationState(id int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invitations[id]
}

// WriteEnvelope writes the standard {statusCode, message, data} body.
func WriteEnvelope(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"statusCode": status,
		"message":    message,
		"data":       data,
	})
}

func (s *Server) authed(next func(http.ResponseWriter, *http.Request, *User)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

		s.mu.Lock()
		expired := s.expired
		var user *User
		for _, u := range s.users {
			if u.token != "" && u.token == token {
				user = u
			}
		}
		s.mu.Unlock()

		if user == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"statusCode":401,"message":"Unauthorized"}`))
			return
		}
		if expired {
			WriteEnvelope(w, http.StatusUnauthorized, "Token expired", nil)
			return
		}
		next(w, r, user)
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteEnvelope(w, http.StatusBadRequest, "invalid body", nil)
		return
	}

	s.mu.Lock()
	user, ok := s.users[req.Email]
	s.mu.Unlock()
	if !ok || user.password != req.Password {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"statusCode":401,"message":"Invalid email or password"}`))
		return
	}

	WriteEnvelope(w, http.StatusOK, "Login successful", map[string]any{
		"userId":      user.UserID,
		"accessToken": user.token,
		"fullName":    user.FullName,
		"email":       user.Email,
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"fullName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		WriteEnvelope(w, http.StatusBadRequest, "invalid body", nil)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[req.Email]; exists {
		WriteEnvelope(w, http.StatusConflict, "Email already registered", nil)
		return
	}
	s.nextUserID++
	user := &User{
		UserID:   s.nextUserID,
		FullName: req.FullName,
		Email:    req.Email,
		password: req.Password,
		token:    fmt.Sprintf("tok-%d", s.nextUserID),
	}
	s.users[req.Email] = user
	WriteEnvelope(w, http.StatusOK, "Registered", map[string]any{
		"userId":   user.UserID,
		"fullName": user.FullName,
		"email":    user.Email,
	})
}

func (s *Server) handleMyProjects(w http.ResponseWriter, _ *http.Request, _ *User) {
	s.mu.Lock()
	projects := append([]Project(nil), s.projects...)
	s.mu.Unlock()
	if projects == nil {
		projects = []Project{}
	}
	WriteEnvelope(w, http.StatusOK, "", projects)
}

func (s *Server) handleProjectDetail(w http.ResponseWriter, r *http.Request, _ *User) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		WriteEnvelope(w, http.StatusBadRequest, "invalid id", nil)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.projects {
		if p.ProjectID == id {
			WriteEnvelope(w, http.StatusOK, "", p)
			return
		}
	}
	WriteEnvelope(w, http.StatusNotFound, "Project not found", nil)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request, user *User) {
	var p Project
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.ProjectName == "" {
		WriteEnvelope(w, http.StatusBadRequest, "projectName is required", nil)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextProjectID++
	p.ProjectID = s.nextProjectID
	p.Status = 0
	s.projects = append(s.projects, p)
	WriteEnvelope(w, http.StatusOK, "Created", p)
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request, _ *User) {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	var req struct {
		ProjectName    *string  `json:"projectName"`
		ProjectType    *int     `json:"projectType"`
		Description    *string  `json:"description"`
		ApprovedBudget *float64 `json:"approvedBudget"`
		Status         *int     `json:"status"`
		StartDate      *string  `json:"startDate"`
		EndDate        *string  `json:"endDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteEnvelope(w, http.StatusBadRequest, "invalid body", nil)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.projects {
		p := &s.projects[i]
		if p.ProjectID != id {
			continue
		}
		if req.ProjectName != nil {
			p.ProjectName = *req.ProjectName
		}
		if req.ProjectType != nil {
			p.ProjectType = *req.ProjectType
		}
		if req.Description != nil {
			p.Description = *req.Description
		}
		if req.ApprovedBudget != nil {
			p.ApprovedBudget = *req.ApprovedBudget
		}
		if req.Status != nil {
			p.Status = *req.Status
		}
		if req.StartDate != nil {
			p.StartDate = *req.StartDate
		}
		if req.EndDate != nil {
			p.EndDate = *req.EndDate
		}
		WriteEnvelope(w, http.StatusOK, "Updated", p)
		return
	}
	WriteEnvelope(w, http.StatusNotFound, "Project not found", nil)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request, _ *User) {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.projects {
		if p.ProjectID == id {
			s.projects = append(s.projects[:i], s.projects[i+1:]...)
			WriteEnvelope(w, http.StatusOK, "Deleted", nil)
			return
		}
	}
	WriteEnvelope(w, http.StatusNotFound, "Project not found", nil)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request, _ *User) {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.UserID == id {
			WriteEnvelope(w, http.StatusOK, "", u)
			return
		}
	}
	WriteEnvelope(w, http.StatusNotFound, "User not found", nil)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request, _ *User) {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	var req struct {
		FullName *string `json:"fullName"`
		Phone    *string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteEnvelope(w, http.StatusBadRequest, "invalid body", nil)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.UserID == id {
			if req.FullName != nil {
				u.FullName = *req.FullName
			}
			if req.Phone != nil {
				u.Phone = *req.Phone
			}
			WriteEnvelope(w, http.StatusOK, "Updated", u)
			return
		}
	}
	WriteEnvelope(w, http.StatusNotFound, "User not found", nil)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request, caller *User) {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.NewPassword == "" {
		WriteEnvelope(w, http.StatusBadRequest, "invalid body", nil)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case caller.UserID != id:
		WriteEnvelope(w, http.StatusForbidden, "Forbidden", nil)
	case caller.password != req.CurrentPassword:
		WriteEnvelope(w, http.StatusBadRequest, "Current password is incorrect", nil)
	default:
		caller.password = req.NewPassword
		WriteEnvelope(w, http.StatusOK, "Password changed", nil)
	}
}

func (s *Server) handleUserGroups(w http.ResponseWriter, r *http.Request, _ *User) {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	s.mu.Lock()
	groups, ok := s.userGroups[id]
	s.mu.Unlock()
	if !ok {
		WriteEnvelope(w, http.StatusOK, "", nil)
		return
	}
	WriteEnvelope(w, http.StatusOK, "", groups)
}

func (s *Server) handleDepartmentUsers(w http.ResponseWriter, r *http.Request, _ *User) {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	s.mu.Lock()
	var out []User
	for _, u := range s.users {
		if u.DepartmentID == id {
			out = append(out, *u)
		}
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	WriteEnvelope(w, http.StatusOK, "", out)
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request, _ *User) {
	userID, _ := strconv.ParseInt(r.URL.Query().Get("userId"), 10, 64)
	s.mu.Lock()
	out := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	s.mu.Unlock()
	if len(out) == 0 {
		WriteEnvelope(w, http.StatusOK, "", nil)
		return
	}
	WriteEnvelope(w, http.StatusOK, "", out)
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request, _ *User) {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notifications {
		if n.NotificationID == id {
			n.IsRead = true
			WriteEnvelope(w, http.StatusOK, "Marked as read", nil)
			return
		}
	}
	WriteEnvelope(w, http.StatusNotFound, "Notification not found", nil)
}

func (s *Server) handleDeleteNotification(w http.ResponseWriter, r *http.Request, _ *User) {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, n := range s.notifications {
		if n.NotificationID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			WriteEnvelope(w, http.StatusOK, "Deleted", nil)
			return
		}
	}
	WriteEnvelope(w, http.StatusNotFound, "Notification not found", nil)
}

func (s *Server) handleInvitation(outcome string) func(http.ResponseWriter, *http.Request, *User) {
	return func(w http.ResponseWriter, r *http.Request, _ *User) {
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		s.mu.Lock()
		defer s.mu.Unlock()
		state, ok := s.invitations[id]
		switch {
		case !ok:
			WriteEnvelope(w, http.StatusNotFound, "Invitation not found", nil)
		case state != "pending":
			WriteEnvelope(w, http.StatusBadRequest, "This invitation has already been handled.", nil)
		default:
			s.invitations[id] = outcome
			for _, n := range s.notifications {
				if n.InvitationID != nil && *n.InvitationID == id {
					n.IsRead = true
				}
			}
			WriteEnvelope(w, http.StatusOK, "Invitation "+outcome, nil)
		}
	}
}

// Now is the timestamp format the backend uses.
func Now() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05")
}
