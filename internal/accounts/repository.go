package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campuswatch/campuswatch/internal/roles"
	"github.com/campuswatch/campuswatch/internal/shared"
)

const accountColumns = `id, email, name, password_hash, api_token, role, department, is_active, created_at, updated_at`

// Repository provides PostgreSQL backed persistence for accounts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Get fetches an account by id.
func (r *Repository) Get(ctx context.Context, id int64) (Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, shared.NotFound("account", id)
	}
	return account, err
}

// GetByToken fetches an account by its opaque API token.
func (r *Repository) GetByToken(ctx context.Context, token string) (Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE api_token = $1`, token)
	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, shared.NotFound("account", 0)
	}
	return account, err
}

// Create inserts the account and returns its id.
func (r *Repository) Create(ctx context.Context, account Account) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO accounts (email, name, password_hash, api_token, role, department, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		account.Email, account.Name, account.PasswordHash, account.APIToken,
		string(account.Role), account.Department, account.IsActive).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("accounts: create: %w", err)
	}
	return id, nil
}

// UpdateRole compare-and-swaps the role column so that two concurrent role
// changes against the same account cannot both apply.
func (r *Repository) UpdateRole(ctx context.Context, id int64, prevRole, newRole roles.Role) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE accounts SET role = $3, updated_at = NOW() WHERE id = $1 AND role = $2`,
		id, string(prevRole), string(newRole))
	if err != nil {
		return fmt.Errorf("accounts: update role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrConcurrentModification
	}
	return nil
}

// Deactivate soft-deletes the account.
func (r *Repository) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE accounts SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("accounts: deactivate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("account", id)
	}
	return nil
}

// ListStaff returns active accounts ranked staff or above.
func (r *Repository) ListStaff(ctx context.Context) ([]Account, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts
		 WHERE is_active AND role = ANY($1)
		 ORDER BY name`, roles.StaffTierNames())
	if err != nil {
		return nil, fmt.Errorf("accounts: list staff: %w", err)
	}
	defer rows.Close()

	var staff []Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		staff = append(staff, account)
	}
	return staff, rows.Err()
}

func scanAccount(row pgx.Row) (Account, error) {
	var account Account
	var role string
	err := row.Scan(&account.ID, &account.Email, &account.Name, &account.PasswordHash,
		&account.APIToken, &role, &account.Department, &account.IsActive,
		&account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return Account{}, err
	}
	account.Role = roles.Role(role)
	return account, nil
}
