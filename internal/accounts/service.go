package accounts

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/campuswatch/campuswatch/internal/roles"
	"github.com/campuswatch/campuswatch/internal/shared"
)

// ErrValidation indicates invalid account input.
var ErrValidation = fmt.Errorf("accounts: %w", shared.ErrValidation)

// RepositoryPort defines data access methods for accounts.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (Account, error)
	GetByToken(ctx context.Context, token string) (Account, error)
	Create(ctx context.Context, account Account) (int64, error)
	// UpdateRole swaps the role only if the stored role still equals
	// prevRole, returning shared.ErrConcurrentModification otherwise.
	UpdateRole(ctx context.Context, id int64, prevRole, newRole roles.Role) error
	Deactivate(ctx context.Context, id int64) error
	ListStaff(ctx context.Context) ([]Account, error)
}

// AuditPort records role-change events.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles account management gated by the role hierarchy guard.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// RegisterInput describes account creation payload.
type RegisterInput struct {
	Email      string
	Name       string
	Password   string
	Role       roles.Role
	Department string
}

// Register creates an account with a hashed password and a fresh API token.
// Self-registration always lands as STUDENT; provisioning any higher role
// takes an admin-or-above actor, so the guard stays the only path to rank.
func (s *Service) Register(ctx context.Context, input RegisterInput, actor *Account) (Account, error) {
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	if input.Email == "" || input.Name == "" || len(input.Password) < 8 {
		return Account{}, ErrValidation
	}
	if input.Role == "" {
		input.Role = roles.RoleStudent
	}
	if !input.Role.Valid() {
		return Account{}, ErrValidation
	}
	if input.Role != roles.RoleStudent {
		var actorRole roles.Role
		if actor != nil {
			actorRole = actor.Role
		}
		if err := roles.EnsureProvision(actorRole, input.Role); err != nil {
			return Account{}, err
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return Account{}, fmt.Errorf("accounts: hash password: %w", err)
	}
	account := Account{
		Email:        input.Email,
		Name:         input.Name,
		PasswordHash: string(hash),
		APIToken:     uuid.NewString(),
		Role:         input.Role,
		Department:   input.Department,
		IsActive:     true,
	}
	id, err := s.repo.Create(ctx, account)
	if err != nil {
		return Account{}, err
	}
	account.ID = id
	return account, nil
}

// Get returns the account by id.
func (s *Service) Get(ctx context.Context, id int64) (Account, error) {
	return s.repo.Get(ctx, id)
}

// Authenticate resolves an account from its opaque API token. Session
// issuance lives outside this core; only the outcome is consumed here.
func (s *Service) Authenticate(ctx context.Context, token string) (Account, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Account{}, shared.NotFound("account", 0)
	}
	account, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		return Account{}, err
	}
	if !account.IsActive {
		return Account{}, shared.NotFound("account", account.ID)
	}
	return account, nil
}

// Promote raises an account to newRole. The guard enforces that only
// admin-or-above may promote, over targets strictly below their own rank,
// never themselves, and never past their own rank.
func (s *Service) Promote(ctx context.Context, accountID int64, newRole roles.Role, actor Account) (Account, error) {
	target, err := s.repo.Get(ctx, accountID)
	if err != nil {
		return Account{}, err
	}
	if err := roles.EnsurePromote(actor.Role, actor.ID, target.Role, target.ID, newRole); err != nil {
		return Account{}, err
	}
	if newRole == target.Role {
		return target, nil
	}
	if err := s.repo.UpdateRole(ctx, accountID, target.Role, newRole); err != nil {
		return Account{}, err
	}
	prev := target.Role
	target.Role = newRole
	s.recordAudit(ctx, actor.ID, roles.ActionPromote, accountID, map[string]any{"from": prev, "to": newRole})
	return target, nil
}

// Demote lowers an account by one tier under the same rank rules.
func (s *Service) Demote(ctx context.Context, accountID int64, actor Account) (Account, error) {
	target, err := s.repo.Get(ctx, accountID)
	if err != nil {
		return Account{}, err
	}
	newRole := tierBelow(target.Role)
	if err := roles.EnsureDemote(actor.Role, actor.ID, target.Role, target.ID, newRole); err != nil {
		return Account{}, err
	}
	if newRole == target.Role {
		return target, nil
	}
	if err := s.repo.UpdateRole(ctx, accountID, target.Role, newRole); err != nil {
		return Account{}, err
	}
	prev := target.Role
	target.Role = newRole
	s.recordAudit(ctx, actor.ID, roles.ActionDemote, accountID, map[string]any{"from": prev, "to": newRole})
	return target, nil
}

// Delete deactivates an account. Records are never physically removed.
func (s *Service) Delete(ctx context.Context, accountID int64, actor Account) error {
	target, err := s.repo.Get(ctx, accountID)
	if err != nil {
		return err
	}
	if err := roles.EnsureDeleteAccount(actor.Role, actor.ID, target.ID); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, accountID); err != nil {
		return err
	}
	s.recordAudit(ctx, actor.ID, roles.ActionDeleteAccount, accountID, nil)
	return nil
}

// ListStaff returns all staff-or-above accounts, used by workload dashboards.
func (s *Service) ListStaff(ctx context.Context) ([]Account, error) {
	return s.repo.ListStaff(ctx)
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{ActorID: actorID, Action: action, Entity: "account", EntityID: entityID, Meta: meta})
}

func tierBelow(role roles.Role) roles.Role {
	switch role {
	case roles.RoleSuperAdmin:
		return roles.RoleAdmin
	case roles.RoleAdmin:
		return roles.RoleSupervisor
	case roles.RoleSupervisor:
		return roles.RoleStaff
	case roles.RoleStaff:
		return roles.RoleStudent
	default:
		return roles.RoleStudent
	}
}
