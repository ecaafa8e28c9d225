package accounts

import (
	"context"
	"time"

	"github.com/campuswatch/campuswatch/internal/roles"
)

// Account represents an identity in the campus platform. Only its role is
// mutated by this core, and only through the promote/demote operations.
type Account struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	APIToken     string
	Role         roles.Role
	Department   string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type actorContextKey struct{}

// ContextWithActor stores the authenticated actor in context.
func ContextWithActor(ctx context.Context, actor *Account) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the authenticated actor, nil when absent.
func ActorFromContext(ctx context.Context) *Account {
	actor, _ := ctx.Value(actorContextKey{}).(*Account)
	return actor
}
