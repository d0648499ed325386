package seeder

import (
	"context"
	"fmt"

	"sidecrew/internal/pkg/logger"
	"sidecrew/internal/repository"
)

type Runner struct {
	Seeders []Seeder
	Log     *logger.Logger
}

func (r Runner) Run(ctx context.Context, store repository.Store) error {
	if store == nil {
		return fmt.Errorf("nil store")
	}
	log := logger.OrNop(r.Log).With("component", "seeder")
	for _, s := range r.Seeders {
		if s == nil {
			continue
		}
		if err := s.Run(ctx, store); err != nil {
			return fmt.Errorf("seed %s: %w", s.Name(), err)
		}
		log.Info("seeder finished", "name", s.Name())
	}
	return nil
}
