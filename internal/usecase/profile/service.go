// Package profile lets clients, agents and workers view, edit and delete
// their own account.
package profile

import (
	"context"
	"errors"
	"strings"

	"sidecrew/internal/domain/account"
	"sidecrew/internal/domain/application"
	"sidecrew/internal/pkg/logger"
	"sidecrew/internal/repository"
	"sidecrew/internal/usecase/admin"

	"github.com/google/uuid"
)

var (
	ErrNotFound     = errors.New("profile not found")
	ErrForbidden    = errors.New("profile not available for this role")
	ErrInvalidInput = errors.New("invalid input")
	ErrEmailTaken   = errors.New("email already in use")
	ErrInternal     = errors.New("internal error")
)

// AccountRemover deletes an account along with everything that cascades
// from it.
type AccountRemover interface {
	DeleteAccount(ctx context.Context, kind account.Kind, id uuid.UUID) error
}

// CacheInvalidator drops data derived from agent profiles.
type CacheInvalidator interface {
	Invalidate(ctx context.Context)
}

// UpdateInput replaces the editable fields of the caller's profile. Fields
// that do not apply to the caller's role are ignored.
type UpdateInput struct {
	Name  string
	Email string
	Phone string
	// ProfilePic is a new blob reference; empty keeps the current picture.
	ProfilePic string

	CompanyName string

	Address    string
	AgencyName string
	// Latitude and Longitude are set or cleared together. An agent without
	// coordinates is left out of nearby searches.
	Latitude  *float64
	Longitude *float64

	Skills    string
	Available bool
}

// UpdateOutcome carries the stored profile and the picture reference it
// replaced, if any. The caller owns deleting that picture.
type UpdateOutcome struct {
	Account         account.Account
	ReplacedPicture string
}

type Service struct {
	store      repository.Store
	remover    AccountRemover
	invalidate CacheInvalidator
	log        *logger.Logger
}

func NewService(store repository.Store, remover AccountRemover, invalidate CacheInvalidator, log *logger.Logger) *Service {
	return &Service{
		store:      store,
		remover:    remover,
		invalidate: invalidate,
		log:        logger.OrNop(log).With("component", "profile"),
	}
}

func (s *Service) Get(ctx context.Context, actor account.Actor) (account.Account, error) {
	if !actor.Kind.Stored() || actor.ID == uuid.Nil {
		return account.Account{}, ErrForbidden
	}
	a, err := s.store.Repos().Accounts.FindByID(ctx, actor.Kind, actor.ID)
	if err != nil {
		return account.Account{}, s.storeErr("load profile", err)
	}
	a.PasswordHash = ""
	return a, nil
}

func (in UpdateInput) validate(kind account.Kind) error {
	if strings.TrimSpace(in.Name) == "" || !strings.Contains(in.Email, "@") {
		return ErrInvalidInput
	}
	if kind == account.KindAgent {
		if (in.Latitude == nil) != (in.Longitude == nil) {
			return ErrInvalidInput
		}
		if in.Latitude != nil && !application.ValidCoordinates(*in.Latitude, *in.Longitude) {
			return ErrInvalidInput
		}
	}
	return nil
}

// Update rewrites the caller's profile. Changing an agent's profile drops
// cached nearby results, which carry its name, rating and position.
func (s *Service) Update(ctx context.Context, actor account.Actor, in UpdateInput) (UpdateOutcome, error) {
	if !actor.Kind.Stored() || actor.ID == uuid.Nil {
		return UpdateOutcome{}, ErrForbidden
	}
	if err := in.validate(actor.Kind); err != nil {
		return UpdateOutcome{}, err
	}

	var res UpdateOutcome
	err := s.store.WithinTx(ctx, func(r repository.Repos) error {
		a, err := r.Accounts.FindByID(ctx, actor.Kind, actor.ID)
		if err != nil {
			return err
		}
		a.Name = strings.TrimSpace(in.Name)
		a.Email = strings.ToLower(strings.TrimSpace(in.Email))
		a.Phone = strings.TrimSpace(in.Phone)
		if pic := strings.TrimSpace(in.ProfilePic); pic != "" && pic != a.ProfilePic {
			res.ReplacedPicture = a.ProfilePic
			a.ProfilePic = pic
		}
		switch actor.Kind {
		case account.KindClient:
			a.CompanyName = strings.TrimSpace(in.CompanyName)
		case account.KindAgent:
			a.Address = strings.TrimSpace(in.Address)
			a.AgencyName = strings.TrimSpace(in.AgencyName)
			a.Latitude, a.Longitude = in.Latitude, in.Longitude
		case account.KindWorker:
			a.Address = strings.TrimSpace(in.Address)
			a.Skills = strings.TrimSpace(in.Skills)
			a.Available = in.Available
		}
		if err := r.Accounts.UpdateProfile(ctx, a); err != nil {
			return err
		}
		res.Account, err = r.Accounts.FindByID(ctx, actor.Kind, actor.ID)
		return err
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return UpdateOutcome{}, ErrEmailTaken
		}
		return UpdateOutcome{}, s.storeErr("update profile", err)
	}

	if actor.Kind == account.KindAgent && s.invalidate != nil {
		s.invalidate.Invalidate(ctx)
	}
	s.log.Info("profile updated", "kind", actor.Kind, "account_id", actor.ID)
	res.Account.PasswordHash = ""
	return res, nil
}

// Delete removes the caller's account the same way an administrator would,
// so an agent's jobs go back to the public board. It returns the removed
// account so the caller can clean up its picture.
func (s *Service) Delete(ctx context.Context, actor account.Actor) (account.Account, error) {
	a, err := s.Get(ctx, actor)
	if err != nil {
		return account.Account{}, err
	}
	if err := s.remover.DeleteAccount(ctx, actor.Kind, actor.ID); err != nil {
		switch {
		case errors.Is(err, admin.ErrNotFound):
			return account.Account{}, ErrNotFound
		default:
			s.log.Error("delete own account failed", "kind", actor.Kind, "account_id", actor.ID, "error", err)
			return account.Account{}, ErrInternal
		}
	}
	s.log.Info("account closed by owner", "kind", actor.Kind, "account_id", actor.ID)
	return a, nil
}

func (s *Service) storeErr(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	s.log.Error(op+" failed", "error", err)
	return ErrInternal
}
