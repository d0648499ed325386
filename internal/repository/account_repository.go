package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sidecrew/internal/database"
	"sidecrew/internal/domain/account"

	"github.com/google/uuid"
)

var errUnstoredKind = errors.New("account kind has no table")

type AccountRepository interface {
	// Create fails with ErrDuplicate when the email is taken for the kind.
	Create(ctx context.Context, a account.Account) error
	FindByID(ctx context.Context, kind account.Kind, id uuid.UUID) (account.Account, error)
	FindByEmail(ctx context.Context, kind account.Kind, email string) (account.Account, error)
	// List returns accounts of kind, newest first. An empty status matches all.
	List(ctx context.Context, kind account.Kind, status account.ApprovalStatus) ([]account.Account, error)
	Count(ctx context.Context, kind account.Kind, status account.ApprovalStatus) (int64, error)
	UpdateStatus(ctx context.Context, kind account.Kind, id uuid.UUID, status account.ApprovalStatus) error
	UpdateRating(ctx context.Context, kind account.Kind, id uuid.UUID, rating float64) error
	// UpdateProfile writes the self-editable fields of a.Kind. It fails with
	// ErrDuplicate when the new email is taken by another account of the kind.
	UpdateProfile(ctx context.Context, a account.Account) error
	Delete(ctx context.Context, kind account.Kind, id uuid.UUID) error
	// ListAgentCandidates returns approved agents that have coordinates.
	ListAgentCandidates(ctx context.Context) ([]account.Account, error)
}

type PostgresAccountRepository struct {
	db database.Querier
}

func NewPostgresAccountRepository(db database.Querier) *PostgresAccountRepository {
	return &PostgresAccountRepository{db: db}
}

// accountTable describes how one account kind maps onto its table. The
// select list always yields the same shape so scanAccount serves all kinds.
type accountTable struct {
	name    string
	columns string
}

var accountTables = map[account.Kind]accountTable{
	account.KindClient: {
		name: "clients",
		columns: `id, name, email, password_hash, phone, COALESCE(profile_pic, ''), status,
			COALESCE(company_name, ''), '' AS address, 0::float8 AS rating, '' AS agency_name,
			NULL::float8 AS latitude, NULL::float8 AS longitude, '' AS skills, FALSE AS availability,
			created_at, updated_at`,
	},
	account.KindAgent: {
		name: "agents",
		columns: `id, name, email, password_hash, phone, COALESCE(profile_pic, ''), status,
			'' AS company_name, address, rating, agency_name,
			latitude, longitude, '' AS skills, FALSE AS availability,
			created_at, updated_at`,
	},
	account.KindWorker: {
		name: "workers",
		columns: `id, name, email, password_hash, phone, COALESCE(profile_pic, ''), status,
			'' AS company_name, address, rating, '' AS agency_name,
			NULL::float8 AS latitude, NULL::float8 AS longitude, skills, availability,
			created_at, updated_at`,
	},
}

func tableFor(kind account.Kind) (accountTable, error) {
	t, ok := accountTables[kind]
	if !ok {
		return accountTable{}, fmt.Errorf("%w: %s", errUnstoredKind, kind)
	}
	return t, nil
}

func (r *PostgresAccountRepository) Create(ctx context.Context, a account.Account) error {
	var profilePic *string
	if a.ProfilePic != "" {
		profilePic = &a.ProfilePic
	}
	email := strings.ToLower(strings.TrimSpace(a.Email))

	var err error
	switch a.Kind {
	case account.KindClient:
		var company *string
		if a.CompanyName != "" {
			company = &a.CompanyName
		}
		_, err = r.db.Exec(ctx,
			`INSERT INTO clients (id, name, email, password_hash, phone, profile_pic, company_name, status)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			a.ID, a.Name, email, a.PasswordHash, a.Phone, profilePic, company, string(a.Status),
		)
	case account.KindAgent:
		_, err = r.db.Exec(ctx,
			`INSERT INTO agents (id, name, email, password_hash, phone, profile_pic, address, agency_name, latitude, longitude, status)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			a.ID, a.Name, email, a.PasswordHash, a.Phone, profilePic, a.Address, a.AgencyName, a.Latitude, a.Longitude, string(a.Status),
		)
	case account.KindWorker:
		_, err = r.db.Exec(ctx,
			`INSERT INTO workers (id, name, email, password_hash, phone, profile_pic, address, skills, availability, status)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			a.ID, a.Name, email, a.PasswordHash, a.Phone, profilePic, a.Address, a.Skills, a.Available, string(a.Status),
		)
	default:
		return fmt.Errorf("%w: %s", errUnstoredKind, a.Kind)
	}
	return translateErr(err)
}

func (r *PostgresAccountRepository) FindByID(ctx context.Context, kind account.Kind, id uuid.UUID) (account.Account, error) {
	t, err := tableFor(kind)
	if err != nil {
		return account.Account{}, err
	}
	row := r.db.QueryRow(ctx, `SELECT `+t.columns+` FROM `+t.name+` WHERE id = $1`, id)
	return scanAccount(row, kind)
}

func (r *PostgresAccountRepository) FindByEmail(ctx context.Context, kind account.Kind, email string) (account.Account, error) {
	t, err := tableFor(kind)
	if err != nil {
		return account.Account{}, err
	}
	row := r.db.QueryRow(ctx, `SELECT `+t.columns+` FROM `+t.name+` WHERE email = $1`, strings.ToLower(strings.TrimSpace(email)))
	return scanAccount(row, kind)
}

func (r *PostgresAccountRepository) List(ctx context.Context, kind account.Kind, status account.ApprovalStatus) ([]account.Account, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	w := &where{}
	if status != "" {
		w.add("status = ?", string(status))
	}
	return r.list(ctx, kind, `SELECT `+t.columns+` FROM `+t.name+w.String()+` ORDER BY created_at DESC`, w.args...)
}

func (r *PostgresAccountRepository) ListAgentCandidates(ctx context.Context) ([]account.Account, error) {
	t := accountTables[account.KindAgent]
	return r.list(ctx, account.KindAgent,
		`SELECT `+t.columns+` FROM agents
		 WHERE status = $1 AND latitude IS NOT NULL AND longitude IS NOT NULL`,
		string(account.StatusApproved),
	)
}

func (r *PostgresAccountRepository) list(ctx context.Context, kind account.Kind, query string, args ...any) ([]account.Account, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]account.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows, kind)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresAccountRepository) Count(ctx context.Context, kind account.Kind, status account.ApprovalStatus) (int64, error) {
	t, err := tableFor(kind)
	if err != nil {
		return 0, err
	}
	w := &where{}
	if status != "" {
		w.add("status = ?", string(status))
	}
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM `+t.name+w.String(), w.args...).Scan(&n); err != nil {
		return 0, translateErr(err)
	}
	return n, nil
}

func (r *PostgresAccountRepository) UpdateStatus(ctx context.Context, kind account.Kind, id uuid.UUID, status account.ApprovalStatus) error {
	t, err := tableFor(kind)
	if err != nil {
		return err
	}
	return r.exec(ctx, `UPDATE `+t.name+` SET status = $2, updated_at = now() WHERE id = $1`, id, string(status))
}

func (r *PostgresAccountRepository) UpdateRating(ctx context.Context, kind account.Kind, id uuid.UUID, rating float64) error {
	if kind != account.KindAgent && kind != account.KindWorker {
		return fmt.Errorf("%w: %s has no rating", errUnstoredKind, kind)
	}
	t := accountTables[kind]
	return r.exec(ctx, `UPDATE `+t.name+` SET rating = $2, updated_at = now() WHERE id = $1`, id, rating)
}

func (r *PostgresAccountRepository) UpdateProfile(ctx context.Context, a account.Account) error {
	var profilePic *string
	if a.ProfilePic != "" {
		profilePic = &a.ProfilePic
	}
	email := strings.ToLower(strings.TrimSpace(a.Email))

	switch a.Kind {
	case account.KindClient:
		var company *string
		if a.CompanyName != "" {
			company = &a.CompanyName
		}
		return r.exec(ctx,
			`UPDATE clients
			 SET name = $2, email = $3, phone = $4, profile_pic = $5, company_name = $6, updated_at = now()
			 WHERE id = $1`,
			a.ID, a.Name, email, a.Phone, profilePic, company,
		)
	case account.KindAgent:
		return r.exec(ctx,
			`UPDATE agents
			 SET name = $2, email = $3, phone = $4, profile_pic = $5, address = $6, agency_name = $7,
			     latitude = $8, longitude = $9, updated_at = now()
			 WHERE id = $1`,
			a.ID, a.Name, email, a.Phone, profilePic, a.Address, a.AgencyName, a.Latitude, a.Longitude,
		)
	case account.KindWorker:
		return r.exec(ctx,
			`UPDATE workers
			 SET name = $2, email = $3, phone = $4, profile_pic = $5, address = $6, skills = $7,
			     availability = $8, updated_at = now()
			 WHERE id = $1`,
			a.ID, a.Name, email, a.Phone, profilePic, a.Address, a.Skills, a.Available,
		)
	}
	return fmt.Errorf("%w: %s", errUnstoredKind, a.Kind)
}

func (r *PostgresAccountRepository) Delete(ctx context.Context, kind account.Kind, id uuid.UUID) error {
	t, err := tableFor(kind)
	if err != nil {
		return err
	}
	return r.exec(ctx, `DELETE FROM `+t.name+` WHERE id = $1`, id)
}

func (r *PostgresAccountRepository) exec(ctx context.Context, query string, args ...any) error {
	affected, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return translateErr(err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAccount(row database.Row, kind account.Kind) (account.Account, error) {
	var (
		a      account.Account
		status string
	)
	err := row.Scan(
		&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.Phone, &a.ProfilePic, &status,
		&a.CompanyName, &a.Address, &a.Rating, &a.AgencyName,
		&a.Latitude, &a.Longitude, &a.Skills, &a.Available,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return account.Account{}, translateErr(err)
	}
	a.Kind = kind
	a.Status = account.ApprovalStatus(status)
	return a, nil
}
