package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Actor identifies who performed an action. The zero value is anonymous.
type Actor struct {
	ID       *uuid.UUID
	Username string
}

// IsAnonymous reports whether no authenticated actor is attached.
func (a Actor) IsAnonymous() bool {
	return a.ID == nil && a.Username == ""
}

type actorKey struct{}

// WithActor returns a copy of ctx carrying actor.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor stored in ctx, or the anonymous actor.
func ActorFromContext(ctx context.Context) Actor {
	if a, ok := ctx.Value(actorKey{}).(Actor); ok {
		return a
	}
	return Actor{}
}

// Audit holds the created/updated bookkeeping shared by persisted entities.
type Audit struct {
	CreatedAt         time.Time  `json:"created_at"`
	CreatedBy         *uuid.UUID `json:"created_by,omitempty"`
	CreatedByUsername string     `json:"created_by_username,omitempty"`
	UpdatedAt         time.Time  `json:"updated_at"`
	UpdatedBy         *uuid.UUID `json:"updated_by,omitempty"`
	UpdatedByUsername string     `json:"updated_by_username,omitempty"`
}

// Created stamps both created and updated fields.
func (a *Audit) Created(actor Actor, now time.Time) {
	a.CreatedAt = now
	a.CreatedBy = actor.ID
	a.CreatedByUsername = actor.Username
	a.Updated(actor, now)
}

// Updated stamps the updated fields.
func (a *Audit) Updated(actor Actor, now time.Time) {
	a.UpdatedAt = now
	a.UpdatedBy = actor.ID
	a.UpdatedByUsername = actor.Username
}
