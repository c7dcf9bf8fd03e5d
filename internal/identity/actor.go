// Package identity resolves which staff member is operating a terminal.
package identity

import "context"

type Role string

const (
	RoleManager Role = "manager"
	RoleWaiter  Role = "waiter"
)

type Actor struct {
	ID    string
	Name  string
	Email string
	Role  Role
}

func (a Actor) DisplayName() string {
	return a.Name
}

type actorKey struct{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFromContext returns the signed-in actor, if any.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok
}
