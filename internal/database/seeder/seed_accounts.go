package seeder

import (
	"context"
	"errors"
	"fmt"

	"sidecrew/internal/domain/account"
	"sidecrew/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DemoAccounts creates one approved client, agent, and worker sharing
// Password. Accounts whose email already exists are left alone.
type DemoAccounts struct {
	Password string
	// Cost defaults to bcrypt.DefaultCost.
	Cost int
}

func (DemoAccounts) Name() string { return "demo_accounts" }

func (s DemoAccounts) Run(ctx context.Context, store repository.Store) error {
	if len(s.Password) < 8 {
		return fmt.Errorf("demo password must be at least 8 characters")
	}
	cost := s.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(s.Password), cost)
	if err != nil {
		return err
	}

	lat, lng := -6.2088, 106.8456
	items := []account.Account{
		{Kind: account.KindClient, Name: "Demo Client", Email: "client@demo.sidecrew.local", CompanyName: "Demo Events"},
		{Kind: account.KindAgent, Name: "Demo Agent", Email: "agent@demo.sidecrew.local", AgencyName: "Demo Staffing", Address: "Jakarta", Latitude: &lat, Longitude: &lng},
		{Kind: account.KindWorker, Name: "Demo Worker", Email: "worker@demo.sidecrew.local", Address: "Jakarta", Skills: "ushering, setup", Available: true},
	}

	return store.WithinTx(ctx, func(r repository.Repos) error {
		for _, it := range items {
			_, err := r.Accounts.FindByEmail(ctx, it.Kind, it.Email)
			if err == nil {
				continue
			}
			if !errors.Is(err, repository.ErrNotFound) {
				return err
			}

			it.ID = uuid.New()
			it.PasswordHash = string(hash)
			it.Status = account.StatusApproved
			if err := r.Accounts.Create(ctx, it); err != nil {
				return fmt.Errorf("create %s: %w", it.Kind, err)
			}
		}
		return nil
	})
}
