package project

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/auth"
)

// ResolveLoggable finds the active project named name and checks that the
// caller may log hours against it: admins always, others when assigned or heading it.
func (s *Service) ResolveLoggable(ctx context.Context, sess *auth.Session, name string) (*Project, error) {
	row, err := s.repo.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, internal.NewInternalError("failed to load project", err)
	}
	if !row.IsActive {
		return nil, ErrProjectInactive
	}
	if sess.IsAdmin() || sess.HeadsProject(row.ID) {
		return FromDataModel(row), nil
	}

	assigned, err := s.repo.IsAssigned(ctx, row.ID, sess.AccountID)
	if err != nil {
		return nil, internal.NewInternalError("failed to check assignment", err)
	}
	if !assigned {
		return nil, ErrProjectNotAssigned
	}
	return FromDataModel(row), nil
}
