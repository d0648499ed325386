package repository

import (
	"context"

	"sidecrew/internal/database"
	"sidecrew/internal/domain/job"

	"github.com/google/uuid"
)

// JobFilter narrows job lookups. Zero values match anything.
type JobFilter struct {
	ID       uuid.UUID
	ClientID uuid.UUID
	AgentID  uuid.UUID
	// NoAgent requires the agent reference to be unset.
	NoAgent  bool
	Statuses []job.Status
	// WithoutPostings keeps only jobs that have no posting yet.
	WithoutPostings bool
}

type JobRepository interface {
	Create(ctx context.Context, j job.Job) error
	Find(ctx context.Context, f JobFilter) (job.Job, error)
	FindForUpdate(ctx context.Context, f JobFilter) (job.Job, error)
	List(ctx context.Context, f JobFilter) ([]job.Job, error)
	Update(ctx context.Context, j job.Job) error
	Delete(ctx context.Context, id uuid.UUID) error
	// AverageClientRating is the mean client rating over the agent's rated
	// jobs, 0 when none are rated.
	AverageClientRating(ctx context.Context, agentID uuid.UUID) (float64, error)
	// ReleaseAgent unassigns the agent from all its jobs and returns the
	// unfinished ones to the public board.
	ReleaseAgent(ctx context.Context, agentID uuid.UUID) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type PostgresJobRepository struct {
	db database.Querier
}

func NewPostgresJobRepository(db database.Querier) *PostgresJobRepository {
	return &PostgresJobRepository{db: db}
}

const jobColumns = `j.id, j.client_id, j.agent_id, j.title, j.description,
	j.location_address, j.location_latitude, j.location_longitude,
	j.client_pay_per_worker_cents, j.workers_needed, j.status, j.client_payment_status,
	j.client_rating_for_agent, j.created_at, j.updated_at`

func (r *PostgresJobRepository) Create(ctx context.Context, j job.Job) error {
	var addr *string
	if j.Location.Address != "" {
		addr = &j.Location.Address
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO jobs (id, client_id, agent_id, title, description,
			location_address, location_latitude, location_longitude,
			client_pay_per_worker_cents, workers_needed, status, client_payment_status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		j.ID, j.ClientID, j.AgentID, j.Title, j.Description,
		addr, j.Location.Latitude, j.Location.Longitude,
		int64(j.PayPerWorker), j.WorkersNeeded, string(j.Status), string(j.ClientPaymentStatus),
	)
	return translateErr(err)
}

func (r *PostgresJobRepository) Find(ctx context.Context, f JobFilter) (job.Job, error) {
	w := jobWhere(f)
	row := r.db.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs j`+w.String()+` LIMIT 1`, w.args...)
	return scanJob(row)
}

func (r *PostgresJobRepository) FindForUpdate(ctx context.Context, f JobFilter) (job.Job, error) {
	w := jobWhere(f)
	row := r.db.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs j`+w.String()+` LIMIT 1 FOR UPDATE OF j`, w.args...)
	return scanJob(row)
}

func (r *PostgresJobRepository) List(ctx context.Context, f JobFilter) ([]job.Job, error) {
	w := jobWhere(f)
	rows, err := r.db.Query(ctx, `SELECT `+jobColumns+` FROM jobs j`+w.String()+` ORDER BY j.created_at DESC`, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]job.Job, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresJobRepository) Update(ctx context.Context, j job.Job) error {
	var rating *int16
	if j.ClientRatingForAgent != nil {
		v := int16(*j.ClientRatingForAgent)
		rating = &v
	}
	affected, err := r.db.Exec(ctx,
		`UPDATE jobs
		 SET agent_id = $2, status = $3, client_payment_status = $4,
		     client_rating_for_agent = $5, updated_at = now()
		 WHERE id = $1`,
		j.ID, j.AgentID, string(j.Status), string(j.ClientPaymentStatus), rating,
	)
	if err != nil {
		return translateErr(err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresJobRepository) Delete(ctx context.Context, id uuid.UUID) error {
	affected, err := r.db.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return translateErr(err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresJobRepository) AverageClientRating(ctx context.Context, agentID uuid.UUID) (float64, error) {
	var avg float64
	row := r.db.QueryRow(ctx,
		`SELECT COALESCE(AVG(client_rating_for_agent)::float8, 0)
		 FROM jobs
		 WHERE agent_id = $1 AND client_rating_for_agent IS NOT NULL`,
		agentID,
	)
	if err := row.Scan(&avg); err != nil {
		return 0, translateErr(err)
	}
	return avg, nil
}

func (r *PostgresJobRepository) ReleaseAgent(ctx context.Context, agentID uuid.UUID) (int64, error) {
	affected, err := r.db.Exec(ctx,
		`UPDATE jobs
		 SET agent_id = NULL,
		     status = CASE WHEN status = $2 THEN status ELSE $3 END,
		     updated_at = now()
		 WHERE agent_id = $1`,
		agentID, string(job.StatusCompleted), string(job.StatusSeekingAgent),
	)
	if err != nil {
		return 0, translateErr(err)
	}
	return affected, nil
}

func (r *PostgresJobRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM jobs`).Scan(&n); err != nil {
		return 0, translateErr(err)
	}
	return n, nil
}

func jobWhere(f JobFilter) *where {
	w := &where{}
	if f.ID != uuid.Nil {
		w.add("j.id = ?", f.ID)
	}
	if f.ClientID != uuid.Nil {
		w.add("j.client_id = ?", f.ClientID)
	}
	if f.AgentID != uuid.Nil {
		w.add("j.agent_id = ?", f.AgentID)
	}
	if f.NoAgent {
		w.raw("j.agent_id IS NULL")
	}
	if len(f.Statuses) > 0 {
		w.add("j.status = ANY(?)", toStrings(f.Statuses))
	}
	if f.WithoutPostings {
		w.raw("NOT EXISTS (SELECT 1 FROM job_postings p WHERE p.job_id = j.id)")
	}
	return w
}

func scanJob(row database.Row) (job.Job, error) {
	var (
		j         job.Job
		addr      *string
		status    string
		payStatus string
		rating    *int16
		pay       int64
	)
	err := row.Scan(
		&j.ID, &j.ClientID, &j.AgentID, &j.Title, &j.Description,
		&addr, &j.Location.Latitude, &j.Location.Longitude,
		&pay, &j.WorkersNeeded, &status, &payStatus,
		&rating, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return job.Job{}, translateErr(err)
	}
	if addr != nil {
		j.Location.Address = *addr
	}
	if rating != nil {
		v := int(*rating)
		j.ClientRatingForAgent = &v
	}
	j.PayPerWorker = job.Cents(pay)
	j.Status = job.Status(status)
	j.ClientPaymentStatus = job.PaymentStatus(payStatus)
	return j, nil
}
