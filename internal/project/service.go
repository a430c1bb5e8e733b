package project

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/auth"
	projectdm "github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/core/datamodel/project"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/core/events"
)

type RepositoryAPI interface {
	List(ctx context.Context, includeInactive bool) ([]*projectdm.Project, error)
	ListForAccount(ctx context.Context, accountID string) ([]*projectdm.Project, error)
	GetByID(ctx context.Context, id int64) (*projectdm.Project, error)
	GetByName(ctx context.Context, name string) (*projectdm.Project, error)
	Create(ctx context.Context, p *projectdm.Project) error
	Update(ctx context.Context, p *projectdm.Project) error

	AccountExists(ctx context.Context, accountID string) (bool, error)
	IsAssigned(ctx context.Context, projectID int64, accountID string) (bool, error)
	AddAssignment(ctx context.Context, a *projectdm.ProjectAssignment) error
	RemoveAssignment(ctx context.Context, projectID int64, accountID string) (bool, error)
	ListAssignments(ctx context.Context, projectID int64) ([]Member, error)

	AddHead(ctx context.Context, h *projectdm.DepartmentHead) error
	RemoveHead(ctx context.Context, projectID int64, accountID string) (bool, error)
	ReplaceHeads(ctx context.Context, projectID int64, accountIDs []string, assignedBy string) ([]string, error)
	ListHeads(ctx context.Context, projectID int64) ([]Member, error)
}

type ServiceAPI interface {
	ListProjects(ctx context.Context, sess *auth.Session, includeInactive bool) ([]*Project, error)
	ListMine(ctx context.Context, sess *auth.Session) ([]*Project, error)
	GetProject(ctx context.Context, sess *auth.Session, id int64) (*Project, error)
	CreateProject(ctx context.Context, sess *auth.Session, dto CreateProjectDTO) (*Project, error)
	UpdateProject(ctx context.Context, sess *auth.Session, id int64, dto UpdateProjectDTO) (*Project, error)

	ListAssignments(ctx context.Context, sess *auth.Session, projectID int64) ([]Member, error)
	Assign(ctx context.Context, sess *auth.Session, projectID int64, accountID string) error
	Unassign(ctx context.Context, sess *auth.Session, projectID int64, accountID string) error

	ListHeads(ctx context.Context, sess *auth.Session, projectID int64) ([]Member, error)
	AddHead(ctx context.Context, sess *auth.Session, projectID int64, accountID string) error
	RemoveHead(ctx context.Context, sess *auth.Session, projectID int64, accountID string) error
	ReplaceHeads(ctx context.Context, sess *auth.Session, projectID int64, accountIDs []string) error
}

type Service struct {
	repo      RepositoryAPI
	policy    auth.Policy
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, publisher events.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		policy:    auth.NewPolicy(),
		publisher: publisher,
		logger:    logger,
	}
}

func (s *Service) ListProjects(ctx context.Context, sess *auth.Session, includeInactive bool) ([]*Project, error) {
	if err := s.policy.Authorize(sess, auth.Resource{Kind: auth.KindProject}, auth.OpRead); err != nil {
		return nil, err
	}
	// inactive projects are an admin view
	includeInactive = includeInactive && sess.IsAdmin()

	rows, err := s.repo.List(ctx, includeInactive)
	if err != nil {
		s.logger.Error("failed to list projects", "error", err)
		return nil, internal.NewInternalError("failed to list projects", err)
	}
	return fromDataModels(rows), nil
}

// ListMine returns the projects the caller may log hours against.
func (s *Service) ListMine(ctx context.Context, sess *auth.Session) ([]*Project, error) {
	if sess == nil {
		return nil, internal.ErrMissingToken
	}
	var (
		rows []*projectdm.Project
		err  error
	)
	if sess.IsAdmin() {
		rows, err = s.repo.List(ctx, false)
	} else {
		rows, err = s.repo.ListForAccount(ctx, sess.AccountID)
	}
	if err != nil {
		s.logger.Error("failed to list projects for account", "error", err, "account_id", sess.AccountID)
		return nil, internal.NewInternalError("failed to list projects", err)
	}
	return fromDataModels(rows), nil
}

func (s *Service) GetProject(ctx context.Context, sess *auth.Session, id int64) (*Project, error) {
	if err := s.policy.Authorize(sess, auth.Resource{Kind: auth.KindProject}, auth.OpRead); err != nil {
		return nil, err
	}
	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

func (s *Service) CreateProject(ctx context.Context, sess *auth.Session, dto CreateProjectDTO) (*Project, error) {
	if err := s.policy.Authorize(sess, auth.Resource{Kind: auth.KindProject}, auth.OpInsert); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row := &projectdm.Project{
		Name:        dto.Name,
		Description: strings.TrimSpace(dto.Description),
		IsActive:    dto.IsActive == nil || *dto.IsActive,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateProject
		}
		s.logger.Error("failed to create project", "error", err, "name", dto.Name)
		return nil, internal.NewInternalError("failed to create project", err)
	}

	s.logger.Info("project created", "project_id", row.ID, "name", row.Name, "by", sess.AccountID)
	return FromDataModel(row), nil
}

// UpdateProject also covers deactivation via IsActive=false.
func (s *Service) UpdateProject(ctx context.Context, sess *auth.Session, id int64, dto UpdateProjectDTO) (*Project, error) {
	if err := s.policy.Authorize(sess, auth.Resource{Kind: auth.KindProject}, auth.OpUpdate); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if dto.Name != nil {
		row.Name = *dto.Name
	}
	if dto.Description != nil {
		row.Description = strings.TrimSpace(*dto.Description)
	}
	if dto.IsActive != nil {
		row.IsActive = *dto.IsActive
	}

	if err := s.repo.Update(ctx, row); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateProject
		}
		return nil, internal.NewInternalError("failed to update project", err)
	}
	return FromDataModel(row), nil
}

func (s *Service) ListAssignments(ctx context.Context, sess *auth.Session, projectID int64) ([]Member, error) {
	if !sess.IsAdmin() && !sess.HeadsProject(projectID) {
		return nil, internal.ErrAccessDenied
	}
	if _, err := s.load(ctx, projectID); err != nil {
		return nil, err
	}
	members, err := s.repo.ListAssignments(ctx, projectID)
	if err != nil {
		return nil, internal.NewInternalError("failed to list assignments", err)
	}
	return members, nil
}

func (s *Service) Assign(ctx context.Context, sess *auth.Session, projectID int64, accountID string) error {
	if err := s.policy.Authorize(sess, auth.Resource{Kind: auth.KindProjectAssignment, OwnerID: accountID}, auth.OpInsert); err != nil {
		return err
	}
	p, err := s.loadWithAccount(ctx, projectID, accountID)
	if err != nil {
		return err
	}

	by := sess.AccountID
	if err := s.repo.AddAssignment(ctx, &projectdm.ProjectAssignment{ProjectID: projectID, AccountID: accountID, AssignedBy: &by}); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateAssignment
		}
		return internal.NewInternalError("failed to assign project", err)
	}

	s.logger.Info("account assigned to project", "project_id", projectID, "account_id", accountID, "by", by)
	s.notify(ctx, events.NewProjectAssignedEvent(projectID, p.Name, accountID, by))
	return nil
}

func (s *Service) Unassign(ctx context.Context, sess *auth.Session, projectID int64, accountID string) error {
	if err := s.policy.Authorize(sess, auth.Resource{Kind: auth.KindProjectAssignment, OwnerID: accountID}, auth.OpDelete); err != nil {
		return err
	}
	removed, err := s.repo.RemoveAssignment(ctx, projectID, accountID)
	if err != nil {
		return internal.NewInternalError("failed to remove assignment", err)
	}
	if !removed {
		return ErrAssignmentNotFound
	}
	return nil
}

func (s *Service) ListHeads(ctx context.Context, sess *auth.Session, projectID int64) ([]Member, error) {
	if err := s.policy.Authorize(sess, auth.Resource{Kind: auth.KindDepartmentHead, ProjectID: projectID}, auth.OpRead); err != nil {
		return nil, err
	}
	if _, err := s.load(ctx, projectID); err != nil {
		return nil, err
	}
	heads, err := s.repo.ListHeads(ctx, projectID)
	if err != nil {
		return nil, internal.NewInternalError("failed to list department heads", err)
	}
	return heads, nil
}

func (s *Service) AddHead(ctx context.Context, sess *auth.Session, projectID int64, accountID string) error {
	if err := s.policy.Authorize(sess, auth.Resource{Kind: auth.KindDepartmentHead, ProjectID: projectID}, auth.OpInsert); err != nil {
		return err
	}
	p, err := s.loadWithAccount(ctx, projectID, accountID)
	if err != nil {
		return err
	}

	by := sess.AccountID
	if err := s.repo.AddHead(ctx, &projectdm.DepartmentHead{ProjectID: projectID, AccountID: accountID, AssignedBy: &by}); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateHead
		}
		return internal.NewInternalError("failed to add department head", err)
	}

	s.logger.Info("department head added", "project_id", projectID, "account_id", accountID, "by", by)
	s.notify(ctx, events.NewProjectHeadAssignedEvent(projectID, p.Name, accountID, by))
	return nil
}

func (s *Service) RemoveHead(ctx context.Context, sess *auth.Session, projectID int64, accountID string) error {
	if err := s.policy.Authorize(sess, auth.Resource{Kind: auth.KindDepartmentHead, ProjectID: projectID}, auth.OpDelete); err != nil {
		return err
	}
	removed, err := s.repo.RemoveHead(ctx, projectID, accountID)
	if err != nil {
		return internal.NewInternalError("failed to remove department head", err)
	}
	if !removed {
		return ErrHeadNotFound
	}
	return nil
}

// ReplaceHeads swaps the whole head set of a project in one transaction.
func (s *Service) ReplaceHeads(ctx context.Context, sess *auth.Session, projectID int64, accountIDs []string) error {
	if err := s.policy.Authorize(sess, auth.Resource{Kind: auth.KindDepartmentHead, ProjectID: projectID}, auth.OpUpdate); err != nil {
		return err
	}
	p, err := s.load(ctx, projectID)
	if err != nil {
		return err
	}

	unique := make([]string, 0, len(accountIDs))
	seen := make(map[string]struct{}, len(accountIDs))
	for _, id := range accountIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		exists, err := s.repo.AccountExists(ctx, id)
		if err != nil {
			return internal.NewInternalError("failed to check account", err)
		}
		if !exists {
			return ErrAccountNotFound
		}
		unique = append(unique, id)
	}

	added, err := s.repo.ReplaceHeads(ctx, projectID, unique, sess.AccountID)
	if err != nil {
		return internal.NewInternalError("failed to replace department heads", err)
	}

	s.logger.Info("department heads replaced", "project_id", projectID, "count", len(unique), "by", sess.AccountID)
	for _, id := range added {
		s.notify(ctx, events.NewProjectHeadAssignedEvent(projectID, p.Name, id, sess.AccountID))
	}
	return nil
}

func (s *Service) load(ctx context.Context, id int64) (*projectdm.Project, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, internal.NewInternalError("failed to load project", err)
	}
	return row, nil
}

func (s *Service) loadWithAccount(ctx context.Context, projectID int64, accountID string) (*projectdm.Project, error) {
	p, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	exists, err := s.repo.AccountExists(ctx, accountID)
	if err != nil {
		return nil, internal.NewInternalError("failed to check account", err)
	}
	if !exists {
		return nil, ErrAccountNotFound
	}
	return p, nil
}

// notify delivers a grant event. A failed notification does not undo the grant.
func (s *Service) notify(ctx context.Context, ev events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishSync(ctx, ev); err != nil {
		s.logger.Warn("grant notification failed", "event_type", ev.EventType(), "error", err)
	}
}
