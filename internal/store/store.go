// Package store defines the persistence contract the mutation engine talks
// to, and its backends. The engine treats every backend as a black box
// exposing the same four operations.
package store

import (
	"context"
	"errors"

	"github.com/ljungman/calendard/internal/domain"
)

// ErrNotFound is returned by Update and Delete when no event has the
// requested id.
var ErrNotFound = errors.New("event not found")

type Store interface {
	List(ctx context.Context) ([]domain.Event, error)
	Create(ctx context.Context, ev domain.Event) (domain.Event, error)
	Update(ctx context.Context, id string, ev domain.Event) (domain.Event, error)
	Delete(ctx context.Context, id string) error
}
