package repository

import (
	"context"

	"sidecrew/internal/database"
	"sidecrew/internal/domain/job"

	"github.com/google/uuid"
)

type PostingFilter struct {
	ID         uuid.UUID
	JobID      uuid.UUID
	AgentID    uuid.UUID
	ActiveOnly bool
	// NotAppliedBy hides postings the worker already applied to.
	NotAppliedBy uuid.UUID
}

type PostingRepository interface {
	Create(ctx context.Context, p job.Posting) error
	FindForUpdate(ctx context.Context, f PostingFilter) (job.Posting, error)
	List(ctx context.Context, f PostingFilter) ([]job.Posting, error)
	Update(ctx context.Context, p job.Posting) error
}

type PostgresPostingRepository struct {
	db database.Querier
}

func NewPostgresPostingRepository(db database.Querier) *PostgresPostingRepository {
	return &PostgresPostingRepository{db: db}
}

const postingColumns = `p.id, p.job_id, p.agent_id, p.title, p.description,
	p.worker_pay_rate_cents, p.is_active, p.created_at`

func (r *PostgresPostingRepository) Create(ctx context.Context, p job.Posting) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO job_postings (id, job_id, agent_id, title, description, worker_pay_rate_cents, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.JobID, p.AgentID, p.Title, p.Description, int64(p.WorkerPayRate), p.IsActive,
	)
	return translateErr(err)
}

func (r *PostgresPostingRepository) FindForUpdate(ctx context.Context, f PostingFilter) (job.Posting, error) {
	w := postingWhere(f)
	row := r.db.QueryRow(ctx, `SELECT `+postingColumns+` FROM job_postings p`+w.String()+` LIMIT 1 FOR UPDATE OF p`, w.args...)
	return scanPosting(row)
}

func (r *PostgresPostingRepository) List(ctx context.Context, f PostingFilter) ([]job.Posting, error) {
	w := postingWhere(f)
	rows, err := r.db.Query(ctx, `SELECT `+postingColumns+` FROM job_postings p`+w.String()+` ORDER BY p.created_at DESC`, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]job.Posting, 0)
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresPostingRepository) Update(ctx context.Context, p job.Posting) error {
	affected, err := r.db.Exec(ctx,
		`UPDATE job_postings SET title = $2, description = $3, worker_pay_rate_cents = $4, is_active = $5 WHERE id = $1`,
		p.ID, p.Title, p.Description, int64(p.WorkerPayRate), p.IsActive,
	)
	if err != nil {
		return translateErr(err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func postingWhere(f PostingFilter) *where {
	w := &where{}
	if f.ID != uuid.Nil {
		w.add("p.id = ?", f.ID)
	}
	if f.JobID != uuid.Nil {
		w.add("p.job_id = ?", f.JobID)
	}
	if f.AgentID != uuid.Nil {
		w.add("p.agent_id = ?", f.AgentID)
	}
	if f.ActiveOnly {
		w.raw("p.is_active")
	}
	if f.NotAppliedBy != uuid.Nil {
		w.add("NOT EXISTS (SELECT 1 FROM applications a WHERE a.job_posting_id = p.id AND a.worker_id = ?)", f.NotAppliedBy)
	}
	return w
}

func scanPosting(row database.Row) (job.Posting, error) {
	var (
		p    job.Posting
		rate int64
	)
	if err := row.Scan(&p.ID, &p.JobID, &p.AgentID, &p.Title, &p.Description, &rate, &p.IsActive, &p.CreatedAt); err != nil {
		return job.Posting{}, translateErr(err)
	}
	p.WorkerPayRate = job.Cents(rate)
	return p, nil
}
