package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sidecrew/internal/database"
	dbpostgres "sidecrew/internal/database/postgres"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	ErrReference = errors.New("referenced record missing")
)

// Repos groups the repositories bound to one connection or transaction.
type Repos struct {
	Jobs         JobRepository
	Postings     PostingRepository
	Applications ApplicationRepository
	Proofs       ProofRepository
	Accounts     AccountRepository
}

// Store hands out repositories. WithinTx runs fn in a single transaction:
// reads made with FindForUpdate hold their rows until fn returns, and a
// returned error rolls every write back.
type Store interface {
	Repos() Repos
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	Ping(ctx context.Context) error
}

type PostgresStore struct {
	db database.DB
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(db database.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Repos() Repos {
	return reposFor(s.db)
}

func (s *PostgresStore) WithinTx(ctx context.Context, fn func(r Repos) error) error {
	return database.WithTx(ctx, s.db, func(tx database.Tx) error {
		return fn(reposFor(tx))
	})
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func reposFor(q database.Querier) Repos {
	return Repos{
		Jobs:         NewPostgresJobRepository(q),
		Postings:     NewPostgresPostingRepository(q),
		Applications: NewPostgresApplicationRepository(q),
		Proofs:       NewPostgresProofRepository(q),
		Accounts:     NewPostgresAccountRepository(q),
	}
}

// translateErr maps driver errors onto the package sentinels.
func translateErr(err error) error {
	switch {
	case err == nil:
		return nil
	case dbpostgres.IsNoRows(err):
		return ErrNotFound
	case dbpostgres.IsUniqueViolation(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	case dbpostgres.IsForeignKeyViolation(err):
		return fmt.Errorf("%w: %v", ErrReference, err)
	default:
		return err
	}
}

// where accumulates AND-ed predicates with positional arguments.
type where struct {
	clauses []string
	args    []any
}

func (w *where) add(clause string, arg any) {
	w.args = append(w.args, arg)
	w.clauses = append(w.clauses, strings.ReplaceAll(clause, "?", fmt.Sprintf("$%d", len(w.args))))
}

func (w *where) raw(clause string) {
	w.clauses = append(w.clauses, clause)
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

func toStrings[T ~string](in []T) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		out = append(out, string(v))
	}
	return out
}
