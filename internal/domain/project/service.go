package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ganot/lrms-client/internal/api"
	"github.com/ganot/lrms-client/internal/endpoints"
	"github.com/ganot/lrms-client/internal/query"
)

// TagProjects labels every cached project result.
const TagProjects = "Projects"

// MyProjectsQuery lists the signed-in user's projects. A null payload is an
// empty list.
var MyProjectsQuery = query.Endpoint[struct{}, []Project]{
	Name: endpoints.OpMyProjects,
	Call: func(struct{}) api.Call {
		return api.Call{Method: http.MethodGet, Path: endpoints.MyProjects(), Auth: true}
	},
	Transform: func(data json.RawMessage) ([]Project, error) {
		var out []Project
		if err := decodeNullable(data, &out); err != nil {
			return nil, err
		}
		if out == nil {
			out = []Project{}
		}
		return out, nil
	},
	Provides: func(struct{}) []query.Tag {
		return []query.Tag{query.Coarse(TagProjects)}
	},
}

// DetailQuery loads one project with documents, group and department.
var DetailQuery = query.Endpoint[int64, *Detail]{
	Name: endpoints.OpProjectDetail,
	Call: func(id int64) api.Call {
		return api.Call{Method: http.MethodGet, Path: endpoints.ProjectDetail(id), Auth: true}
	},
	Transform: func(data json.RawMessage) (*Detail, error) {
		var d *Detail
		if err := decodeNullable(data, &d); err != nil {
			return nil, err
		}
		if d == nil {
			return nil, ErrProjectNotFound
		}
		if d.Documents == nil {
			d.Documents = []Document{}
		}
		return d, nil
	},
	Provides: func(id int64) []query.Tag {
		return []query.Tag{query.Tagged(TagProjects, id)}
	},
}

// CreateMutation creates a project and refreshes every project list.
var CreateMutation = query.Mutation[CreateRequest, *Project]{
	Name: endpoints.OpCreateProject,
	Call: func(req CreateRequest) api.Call {
		return api.Call{Method: http.MethodPost, Path: endpoints.CreateProject(), Body: req, Auth: true}
	},
	Invalidates: func(CreateRequest) []query.Tag {
		return []query.Tag{query.Coarse(TagProjects)}
	},
}

type updateArgs struct {
	ID     int64
	Fields UpdateRequest
}

// updateMutation changes a project and refreshes both the list and its detail.
var updateMutation = query.Mutation[updateArgs, *Project]{
	Name: endpoints.OpUpdateProject,
	Call: func(a updateArgs) api.Call {
		return api.Call{Method: http.MethodPut, Path: endpoints.UpdateProject(a.ID), Body: a.Fields, Auth: true}
	},
	Transform: func(data json.RawMessage) (*Project, error) {
		var p *Project
		if err := decodeNullable(data, &p); err != nil {
			return nil, err
		}
		return p, nil
	},
	Invalidates: func(a updateArgs) []query.Tag {
		return []query.Tag{query.Coarse(TagProjects), query.Tagged(TagProjects, a.ID)}
	},
}

// DeleteMutation deletes a project.
var DeleteMutation = query.Mutation[int64, struct{}]{
	Name: endpoints.OpDeleteProject,
	Call: func(id int64) api.Call {
		return api.Call{Method: http.MethodDelete, Path: endpoints.DeleteProject(id), Auth: true}
	},
	Invalidates: func(id int64) []query.Tag {
		return []query.Tag{query.Coarse(TagProjects), query.Tagged(TagProjects, id)}
	},
}

// Service handles project operations.
type Service struct {
	cache  *query.Cache
	logger *slog.Logger
}

// NewService creates a new project service.
func NewService(cache *query.Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{cache: cache, logger: logger}
}

// MyProjects returns the cached project list, loading it if needed.
func (s *Service) MyProjects(ctx context.Context) ([]Project, error) {
	return MyProjectsQuery.Fetch(ctx, s.cache, struct{}{})
}

// RefreshProjects reloads the project list.
func (s *Service) RefreshProjects(ctx context.Context) ([]Project, error) {
	return MyProjectsQuery.Refetch(ctx, s.cache, struct{}{})
}

// SubscribeProjects follows the project list.
func (s *Service) SubscribeProjects() *query.Subscription {
	return MyProjectsQuery.Subscribe(s.cache, struct{}{})
}

// Stats derives status counts from the current project list. Counts are
// recomputed on every call and never cached.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	projects, err := s.MyProjects(ctx)
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(projects), nil
}

// Detail fetches one project.
func (s *Service) Detail(ctx context.Context, id int64) (*Detail, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	d, err := DetailQuery.Fetch(ctx, s.cache, id)
	if err != nil {
		return nil, notFound(err)
	}
	return d, nil
}

// Create creates a new project.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Project, error) {
	req.ProjectName = strings.TrimSpace(req.ProjectName)
	if req.ProjectName == "" {
		return nil, ErrInvalidInput
	}
	proj, err := CreateMutation.Do(ctx, s.cache, req)
	if err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}
	s.logger.Info("project created", "project_id", proj.ProjectID)
	return proj, nil
}

// Update changes the given fields of project id.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (*Project, error) {
	if id <= 0 || req.Empty() {
		return nil, ErrInvalidInput
	}
	if req.ProjectName != nil {
		name := strings.TrimSpace(*req.ProjectName)
		if name == "" {
			return nil, ErrInvalidInput
		}
		req.ProjectName = &name
	}
	proj, err := updateMutation.Do(ctx, s.cache, updateArgs{ID: id, Fields: req})
	if err != nil {
		return nil, fmt.Errorf("updating project: %w", notFound(err))
	}
	s.logger.Info("project updated", "project_id", id)
	return proj, nil
}

// Delete deletes a project.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidInput
	}
	if _, err := DeleteMutation.Do(ctx, s.cache, id); err != nil {
		return fmt.Errorf("deleting project: %w", notFound(err))
	}
	s.logger.Info("project deleted", "project_id", id)
	return nil
}

func notFound(err error) error {
	if api.StatusOf(err) == http.StatusNotFound && !errors.Is(err, ErrProjectNotFound) {
		return fmt.Errorf("%w: %w", ErrProjectNotFound, err)
	}
	return err
}

func decodeNullable(data json.RawMessage, v any) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	return json.Unmarshal(data, v)
}
