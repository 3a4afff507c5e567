package user

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/ganot/lrms-client/internal/api"
	"github.com/ganot/lrms-client/internal/endpoints"
	"github.com/ganot/lrms-client/internal/query"
)

// Cache tags of user results.
const (
	TagUserProfile     = "UserProfile"
	TagGroups          = "Groups"
	TagUserGroups      = "UserGroups"
	TagDepartmentUsers = "DepartmentUsers"
)

// groupsList tags every cached group list regardless of owner.
var groupsList = query.Tagged(TagGroups, "LIST")

// ProfileQuery loads a profile and adds level and role labels.
var ProfileQuery = query.Endpoint[int64, *Profile]{
	Name: endpoints.OpUserProfile,
	Call: func(id int64) api.Call {
		return api.Call{Method: http.MethodGet, Path: endpoints.UserProfile(id), Auth: true}
	},
	Transform: toProfile,
	Provides: func(id int64) []query.Tag {
		return []query.Tag{query.Tagged(TagUserProfile, id)}
	},
}

type updateArgs struct {
	ID     int64
	Fields ProfileUpdate
}

var updateMutation = query.Mutation[updateArgs, *Profile]{
	Name: endpoints.OpUpdateProfile,
	Call: func(a updateArgs) api.Call {
		return api.Call{Method: http.MethodPut, Path: endpoints.UpdateProfile(a.ID), Body: a.Fields, Auth: true}
	},
	Transform: toProfile,
	Invalidates: func(a updateArgs) []query.Tag {
		return []query.Tag{query.Tagged(TagUserProfile, a.ID)}
	},
}

// GroupsQuery lists the research groups of a user with member labels. Each
// group in the result also tags the entry, so a change to one group
// refreshes every list that shows it.
var GroupsQuery = query.Endpoint[int64, []Group]{
	Name: endpoints.OpUserGroups,
	Call: func(id int64) api.Call {
		return api.Call{Method: http.MethodGet, Path: endpoints.UserGroups(id), Auth: true}
	},
	Transform: toGroups,
	Provides: func(id int64) []query.Tag {
		return []query.Tag{groupsList, query.Tagged(TagUserGroups, id)}
	},
	ProvidesResult: func(_ int64, groups []Group) []query.Tag {
		tags := make([]query.Tag, 0, len(groups))
		for _, g := range groups {
			tags = append(tags, query.Tagged(TagGroups, g.GroupID))
		}
		return tags
	},
}

// DepartmentUsersQuery lists a department's users split by level.
var DepartmentUsersQuery = query.Endpoint[int64, DepartmentUsers]{
	Name: endpoints.OpDepartmentUsers,
	Call: func(id int64) api.Call {
		return api.Call{Method: http.MethodGet, Path: endpoints.DepartmentUsers(id), Auth: true}
	},
	Transform: toDepartmentUsers,
	Provides: func(id int64) []query.Tag {
		return []query.Tag{query.Tagged(TagDepartmentUsers, id)}
	},
}

type passwordArgs struct {
	ID     int64
	Change PasswordChange
}

// changePasswordMutation touches no cached data.
var changePasswordMutation = query.Mutation[passwordArgs, struct{}]{
	Name: endpoints.OpChangePassword,
	Call: func(a passwordArgs) api.Call {
		return api.Call{Method: http.MethodPut, Path: endpoints.ChangePassword(a.ID), Body: a.Change, Auth: true}
	},
	Transform: func(json.RawMessage) (struct{}, error) { return struct{}{}, nil },
}

func toGroups(data json.RawMessage) ([]Group, error) {
	var groups []Group
	if len(data) > 0 && string(data) != "null" {
		if err := json.Unmarshal(data, &groups); err != nil {
			return nil, err
		}
	}
	if groups == nil {
		return []Group{}, nil
	}
	for i := range groups {
		if groups[i].Members == nil {
			groups[i].Members = []Member{}
		}
		for j := range groups[i].Members {
			m := &groups[i].Members[j]
			m.RoleText = RoleLabel(m.Role)
			m.StatusText = StatusLabel(m.Status)
		}
	}
	return groups, nil
}

func toDepartmentUsers(data json.RawMessage) (DepartmentUsers, error) {
	out := DepartmentUsers{
		Lecturers: []DepartmentUser{},
		Students:  []DepartmentUser{},
		Staff:     []DepartmentUser{},
	}
	var users []DepartmentUser
	if len(data) > 0 && string(data) != "null" {
		if err := json.Unmarshal(data, &users); err != nil {
			return DepartmentUsers{}, err
		}
	}
	for _, u := range users {
		u.LevelText = LevelLabel(u.Level)
		u.StatusText = StatusLabel(u.Status)
		switch {
		case u.Level <= 2:
			out.Lecturers = append(out.Lecturers, u)
		case u.Level <= 4:
			out.Students = append(out.Students, u)
		default:
			out.Staff = append(out.Staff, u)
		}
	}
	return out, nil
}

func toProfile(data json.RawMessage) (*Profile, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	p.LevelText = LevelLabel(p.Level)
	if p.Groups == nil {
		p.Groups = []Membership{}
	}
	for i := range p.Groups {
		p.Groups[i].RoleText = RoleLabel(p.Groups[i].Role)
	}
	return &p, nil
}

// Service handles user profile operations.
type Service struct {
	cache  *query.Cache
	logger *slog.Logger
}

// NewService creates a new user service.
func NewService(cache *query.Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{cache: cache, logger: logger}
}

// Profile returns the profile of id.
func (s *Service) Profile(ctx context.Context, id int64) (*Profile, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	p, err := ProfileQuery.Fetch(ctx, s.cache, id)
	if err != nil {
		return nil, notFound(err)
	}
	if p == nil {
		return nil, ErrUserNotFound
	}
	return p, nil
}

// UpdateProfile changes the editable fields of id.
func (s *Service) UpdateProfile(ctx context.Context, id int64, fields ProfileUpdate) (*Profile, error) {
	if id <= 0 || fields.Empty() {
		return nil, ErrInvalidInput
	}
	p, err := updateMutation.Do(ctx, s.cache, updateArgs{ID: id, Fields: fields})
	if err != nil {
		return nil, fmt.Errorf("updating profile: %w", notFound(err))
	}
	s.logger.Info("profile updated", "user_id", id)
	return p, nil
}

// Groups returns the research groups of id.
func (s *Service) Groups(ctx context.Context, id int64) ([]Group, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	groups, err := GroupsQuery.Fetch(ctx, s.cache, id)
	if err != nil {
		return nil, notFound(err)
	}
	return groups, nil
}

// DepartmentUsers returns the users of department id by category.
func (s *Service) DepartmentUsers(ctx context.Context, id int64) (DepartmentUsers, error) {
	if id <= 0 {
		return DepartmentUsers{}, ErrInvalidInput
	}
	return DepartmentUsersQuery.Fetch(ctx, s.cache, id)
}

// ChangePassword replaces the password of id.
func (s *Service) ChangePassword(ctx context.Context, id int64, change PasswordChange) error {
	if id <= 0 || change.CurrentPassword == "" || change.NewPassword == "" {
		return ErrInvalidInput
	}
	if _, err := changePasswordMutation.Do(ctx, s.cache, passwordArgs{ID: id, Change: change}); err != nil {
		return fmt.Errorf("changing password: %w", err)
	}
	s.logger.Info("password changed", "user_id", id)
	return nil
}

func notFound(err error) error {
	if api.StatusOf(err) == http.StatusNotFound {
		return fmt.Errorf("%w: %w", ErrUserNotFound, err)
	}
	return err
}
