package account

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/auth"
	accountdm "github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/core/datamodel/account"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/core/events"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/metrics"
)

type RepositoryAPI interface {
	GetProfile(ctx context.Context, accountID string) (*accountdm.Profile, error)
	UpdateProfile(ctx context.Context, accountID string, fields map[string]interface{}) error
	// EmployeeIDTaken reports whether code belongs to an account other than exceptID.
	EmployeeIDTaken(ctx context.Context, code, exceptID string) (bool, error)
	GetRole(ctx context.Context, accountID string) (string, error)
	// UpsertRole replaces the single role row of an account atomically.
	UpsertRole(ctx context.Context, accountID, role string) error

	ListProfiles(ctx context.Context) ([]*accountdm.Profile, error)
	ListRoles(ctx context.Context) ([]*accountdm.UserRole, error)
	ListAssignments(ctx context.Context) ([]AssignmentRow, error)
}

type ServiceAPI interface {
	Me(ctx context.Context, sess *auth.Session) (*Me, error)
	UpdateMe(ctx context.Context, sess *auth.Session, dto UpdateMeDTO) (*Me, error)
	Directory(ctx context.Context, sess *auth.Session) ([]DirectoryEntry, error)

	CreateAccount(ctx context.Context, sess *auth.Session, dto CreateAccountDTO) (string, error)
	UpdateRole(ctx context.Context, sess *auth.Session, accountID string, dto UpdateRoleDTO) error
	UpdatePassword(ctx context.Context, sess *auth.Session, accountID string, dto UpdatePasswordDTO) error
	UpdateEmployeeID(ctx context.Context, sess *auth.Session, accountID string, dto UpdateEmployeeIDDTO) (*string, error)
	ListAll(ctx context.Context, sess *auth.Session) ([]RosterEntry, error)
	DeleteAccount(ctx context.Context, sess *auth.Session, accountID string) error
}

type Service struct {
	repo      RepositoryAPI
	identity  auth.IdentityProvider
	publisher events.Publisher
	policy    auth.Policy
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo RepositoryAPI, identity auth.IdentityProvider, publisher events.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		identity:  identity,
		publisher: publisher,
		policy:    auth.NewPolicy(),
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Service) Me(ctx context.Context, sess *auth.Session) (*Me, error) {
	if sess == nil {
		return nil, internal.ErrMissingToken
	}
	p, err := s.loadProfile(ctx, sess.AccountID)
	if err != nil {
		return nil, err
	}
	heads := sess.HeadProjectIDs
	if heads == nil {
		heads = []int64{}
	}
	return &Me{Account: *FromDataModel(p), Role: string(sess.Role), HeadProjectIDs: heads}, nil
}

func (s *Service) UpdateMe(ctx context.Context, sess *auth.Session, dto UpdateMeDTO) (*Me, error) {
	if err := s.policy.Authorize(sess, auth.Resource{Kind: auth.KindProfile, OwnerID: sessionAccount(sess)}, auth.OpUpdate); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	fields := make(map[string]interface{})
	if dto.DisplayName != nil {
		fields["display_name"] = *dto.DisplayName
	}
	if dto.AvatarURL != nil {
		fields["avatar_url"] = nullable(*dto.AvatarURL)
	}
	if dto.Department != nil {
		fields["department"] = nullable(*dto.Department)
	}
	if dto.EmployeeID != nil {
		code := normalizeEmployeeID(dto.EmployeeID)
		if err := s.ensureEmployeeIDFree(ctx, code, sess.AccountID); err != nil {
			return nil, err
		}
		fields["employee_id"] = code
	}

	if len(fields) > 0 {
		if err := s.repo.UpdateProfile(ctx, sess.AccountID, fields); err != nil {
			return nil, s.profileWriteError(err)
		}
	}
	return s.Me(ctx, sess)
}

func (s *Service) Directory(ctx context.Context, sess *auth.Session) ([]DirectoryEntry, error) {
	if err := s.policy.Authorize(sess, auth.Resource{Kind: auth.KindProfile}, auth.OpRead); err != nil {
		return nil, err
	}
	profiles, err := s.repo.ListProfiles(ctx)
	if err != nil {
		return nil, internal.NewInternalError("failed to list accounts", err)
	}
	out := make([]DirectoryEntry, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, DirectoryEntry{ID: p.ID, DisplayName: p.DisplayName, EmployeeID: p.EmployeeID})
	}
	return out, nil
}

// CreateAccount registers a new account through the identity provider and
// back-fills the admin-entered profile fields.
func (s *Service) CreateAccount(ctx context.Context, sess *auth.Session, dto CreateAccountDTO) (id string, err error) {
	defer func() { s.record("create_account", err) }()

	if err := requireAdmin(sess); err != nil {
		return "", err
	}
	if err := dto.Validate(); err != nil {
		return "", err
	}
	code := normalizeEmployeeID(&dto.EmployeeID)
	// checked before the credential exists so a clash leaves nothing behind
	if err := s.ensureEmployeeIDFree(ctx, code, ""); err != nil {
		return "", err
	}

	id, err = s.identity.CreateUser(ctx, dto.Email, dto.Password, dto.FirstName)
	if err != nil {
		return "", err
	}

	fields := map[string]interface{}{
		"display_name": dto.FirstName,
		"full_name":    dto.FullName(),
		"employee_id":  code,
	}
	if err := s.repo.UpdateProfile(ctx, id, fields); err != nil {
		s.logger.Error("profile back-fill failed, removing account", "error", err, "account_id", id)
		if derr := s.identity.DeleteUser(ctx, id); derr != nil {
			s.logger.Error("failed to remove account after back-fill failure", "error", derr, "account_id", id)
		}
		return "", s.profileWriteError(err)
	}

	s.logger.Info("account created by admin", "account_id", id, "by", sess.AccountID)
	return id, nil
}

// UpdateRole replaces the account's role. Callers cannot demote themselves.
func (s *Service) UpdateRole(ctx context.Context, sess *auth.Session, accountID string, dto UpdateRoleDTO) (err error) {
	defer func() { s.record("update_role", err) }()

	if err := requireAdmin(sess); err != nil {
		return err
	}
	if err := dto.Validate(); err != nil {
		return err
	}
	if accountID == sess.AccountID && auth.Role(dto.Role) != auth.RoleAdmin {
		return ErrSelfDemotion
	}
	if _, err := s.loadProfile(ctx, accountID); err != nil {
		return err
	}

	oldRole, err := s.repo.GetRole(ctx, accountID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return internal.NewInternalError("failed to load role", err)
	}
	if err := s.repo.UpsertRole(ctx, accountID, dto.Role); err != nil {
		return internal.NewInternalError("failed to update role", err)
	}

	s.logger.Info("role updated", "account_id", accountID, "old_role", oldRole, "new_role", dto.Role, "by", sess.AccountID)
	if oldRole != dto.Role {
		s.notify(ctx, events.NewRoleChangedEvent(accountID, oldRole, dto.Role, sess.AccountID))
	}
	return nil
}

func (s *Service) UpdatePassword(ctx context.Context, sess *auth.Session, accountID string, dto UpdatePasswordDTO) (err error) {
	defer func() { s.record("update_password", err) }()

	if err := requireAdmin(sess); err != nil {
		return err
	}
	if err := dto.Validate(); err != nil {
		return err
	}
	if _, err := s.loadProfile(ctx, accountID); err != nil {
		return err
	}

	if err := s.identity.UpdatePassword(ctx, accountID, dto.Password); err != nil {
		return err
	}
	if err := s.repo.UpdateProfile(ctx, accountID, map[string]interface{}{"password_changed_at": s.now().UTC()}); err != nil {
		return internal.NewInternalError("failed to stamp password change", err)
	}

	s.logger.Info("password updated by admin", "account_id", accountID, "by", sess.AccountID)
	return nil
}

// UpdateEmployeeID sets the trimmed code, or clears it when blank. It
// returns the stored value.
func (s *Service) UpdateEmployeeID(ctx context.Context, sess *auth.Session, accountID string, dto UpdateEmployeeIDDTO) (code *string, err error) {
	defer func() { s.record("update_employee_id", err) }()

	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	if _, err := s.loadProfile(ctx, accountID); err != nil {
		return nil, err
	}

	code = dto.Normalized()
	if err := s.ensureEmployeeIDFree(ctx, code, accountID); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateProfile(ctx, accountID, map[string]interface{}{"employee_id": code}); err != nil {
		return nil, s.profileWriteError(err)
	}

	s.logger.Info("employee id updated", "account_id", accountID, "cleared", code == nil, "by", sess.AccountID)
	return code, nil
}

// ListAll builds the admin roster from three bulk reads.
func (s *Service) ListAll(ctx context.Context, sess *auth.Session) ([]RosterEntry, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	profiles, err := s.repo.ListProfiles(ctx)
	if err != nil {
		return nil, internal.NewInternalError("failed to list profiles", err)
	}
	roles, err := s.repo.ListRoles(ctx)
	if err != nil {
		return nil, internal.NewInternalError("failed to list roles", err)
	}
	assignments, err := s.repo.ListAssignments(ctx)
	if err != nil {
		return nil, internal.NewInternalError("failed to list assignments", err)
	}
	return buildRoster(profiles, roles, assignments), nil
}

// DeleteAccount removes the account and every row that references it.
func (s *Service) DeleteAccount(ctx context.Context, sess *auth.Session, accountID string) (err error) {
	defer func() { s.record("delete_account", err) }()

	if err := requireAdmin(sess); err != nil {
		return err
	}
	if accountID == sess.AccountID {
		return ErrSelfDelete
	}
	if _, err := s.loadProfile(ctx, accountID); err != nil {
		return err
	}
	if err := s.identity.DeleteUser(ctx, accountID); err != nil {
		return err
	}

	s.logger.Info("account deleted", "account_id", accountID, "by", sess.AccountID)
	return nil
}

func (s *Service) loadProfile(ctx context.Context, accountID string) (*accountdm.Profile, error) {
	p, err := s.repo.GetProfile(ctx, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, internal.NewInternalError("failed to load profile", err)
	}
	return p, nil
}

func (s *Service) ensureEmployeeIDFree(ctx context.Context, code *string, exceptID string) error {
	if code == nil {
		return nil
	}
	taken, err := s.repo.EmployeeIDTaken(ctx, *code, exceptID)
	if err != nil {
		return internal.NewInternalError("failed to check employee id", err)
	}
	if taken {
		return ErrDuplicateEmployeeID
	}
	return nil
}

// profileWriteError maps a lost race on the employee code index to the same
// conflict the pre-check reports.
func (s *Service) profileWriteError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateEmployeeID
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrAccountNotFound
	}
	return internal.NewInternalError("failed to update profile", err)
}

func (s *Service) notify(ctx context.Context, ev events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishSync(ctx, ev); err != nil {
		s.logger.Warn("role change notification failed", "event_type", ev.EventType(), "error", err)
	}
}

func (s *Service) record(operation string, err error) {
	metrics.AdminOperations.WithLabelValues(operation, metrics.Outcome(err)).Inc()
}

func requireAdmin(sess *auth.Session) error {
	if sess == nil {
		return internal.ErrMissingToken
	}
	if !sess.IsAdmin() {
		return internal.ErrAdminRequired
	}
	return nil
}

func sessionAccount(sess *auth.Session) string {
	if sess == nil {
		return ""
	}
	return sess.AccountID
}

func nullable(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
