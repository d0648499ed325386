package memory

import (
	"context"
	"errors"
	"sort"
	"strings"

	"sidecrew/internal/domain/account"
	"sidecrew/internal/repository"

	"github.com/google/uuid"
)

var errUnstoredKind = errors.New("account kind has no table")

type accounts view

var _ repository.AccountRepository = (*accounts)(nil)

func (r *accounts) table(kind account.Kind) (map[uuid.UUID]account.Account, error) {
	t, ok := (*view)(r).st().accounts[kind]
	if !ok {
		return nil, errUnstoredKind
	}
	return t, nil
}

func (r *accounts) Create(_ context.Context, a account.Account) error {
	v := (*view)(r)
	defer v.lock()()
	t, err := r.table(a.Kind)
	if err != nil {
		return err
	}
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	if _, ok := t[a.ID]; ok {
		return repository.ErrDuplicate
	}
	for _, existing := range t {
		if existing.Email == a.Email {
			return repository.ErrDuplicate
		}
	}
	if a.Status == "" {
		a.Status = account.StatusPending
	}
	now := v.s.tick()
	a.CreatedAt, a.UpdatedAt = now, now
	t[a.ID] = a
	return nil
}

func (r *accounts) FindByID(_ context.Context, kind account.Kind, id uuid.UUID) (account.Account, error) {
	v := (*view)(r)
	defer v.lock()()
	t, err := r.table(kind)
	if err != nil {
		return account.Account{}, err
	}
	a, ok := t[id]
	if !ok {
		return account.Account{}, repository.ErrNotFound
	}
	return a, nil
}

func (r *accounts) FindByEmail(_ context.Context, kind account.Kind, email string) (account.Account, error) {
	v := (*view)(r)
	defer v.lock()()
	t, err := r.table(kind)
	if err != nil {
		return account.Account{}, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	for _, a := range t {
		if a.Email == email {
			return a, nil
		}
	}
	return account.Account{}, repository.ErrNotFound
}

func (r *accounts) List(_ context.Context, kind account.Kind, status account.ApprovalStatus) ([]account.Account, error) {
	v := (*view)(r)
	defer v.lock()()
	t, err := r.table(kind)
	if err != nil {
		return nil, err
	}
	out := make([]account.Account, 0, len(t))
	for _, a := range t {
		if status != "" && a.Status != status {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.After(out[k].CreatedAt) })
	return out, nil
}

func (r *accounts) Count(ctx context.Context, kind account.Kind, status account.ApprovalStatus) (int64, error) {
	list, err := r.List(ctx, kind, status)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

func (r *accounts) UpdateStatus(_ context.Context, kind account.Kind, id uuid.UUID, status account.ApprovalStatus) error {
	v := (*view)(r)
	defer v.lock()()
	t, err := r.table(kind)
	if err != nil {
		return err
	}
	a, ok := t[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.Status = status
	a.UpdatedAt = v.s.tick()
	t[id] = a
	return nil
}

func (r *accounts) UpdateRating(_ context.Context, kind account.Kind, id uuid.UUID, rating float64) error {
	v := (*view)(r)
	defer v.lock()()
	if kind != account.KindAgent && kind != account.KindWorker {
		return errUnstoredKind
	}
	t, _ := r.table(kind)
	a, ok := t[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.Rating = rating
	a.UpdatedAt = v.s.tick()
	t[id] = a
	return nil
}

func (r *accounts) UpdateProfile(_ context.Context, a account.Account) error {
	v := (*view)(r)
	defer v.lock()()
	t, err := r.table(a.Kind)
	if err != nil {
		return err
	}
	cur, ok := t[a.ID]
	if !ok {
		return repository.ErrNotFound
	}
	email := strings.ToLower(strings.TrimSpace(a.Email))
	for id, other := range t {
		if id != a.ID && other.Email == email {
			return repository.ErrDuplicate
		}
	}

	cur.Name, cur.Email, cur.Phone, cur.ProfilePic = a.Name, email, a.Phone, a.ProfilePic
	switch a.Kind {
	case account.KindClient:
		cur.CompanyName = a.CompanyName
	case account.KindAgent:
		cur.Address, cur.AgencyName = a.Address, a.AgencyName
		cur.Latitude, cur.Longitude = a.Latitude, a.Longitude
	case account.KindWorker:
		cur.Address, cur.Skills, cur.Available = a.Address, a.Skills, a.Available
	}
	cur.UpdatedAt = v.s.tick()
	t[a.ID] = cur
	return nil
}

func (r *accounts) Delete(_ context.Context, kind account.Kind, id uuid.UUID) error {
	v := (*view)(r)
	defer v.lock()()
	t, err := r.table(kind)
	if err != nil {
		return err
	}
	if _, ok := t[id]; !ok {
		return repository.ErrNotFound
	}
	v.st().deleteAccount(kind, id)
	return nil
}

func (r *accounts) ListAgentCandidates(_ context.Context) ([]account.Account, error) {
	v := (*view)(r)
	defer v.lock()()
	out := make([]account.Account, 0)
	for _, a := range v.st().accounts[account.KindAgent] {
		if a.Status == account.StatusApproved && a.Latitude != nil && a.Longitude != nil {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.Before(out[k].CreatedAt) })
	return out, nil
}
