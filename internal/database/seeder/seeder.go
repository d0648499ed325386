package seeder

import (
	"context"

	"sidecrew/internal/repository"
)

type Seeder interface {
	Name() string
	Run(ctx context.Context, store repository.Store) error
}
