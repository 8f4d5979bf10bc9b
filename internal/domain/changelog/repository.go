package changelog

import "context"

// Repository exposes the persisted change log, oldest entry first.
type Repository interface {
	List(ctx context.Context) ([]Entry, error)
}
