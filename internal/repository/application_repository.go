package repository

import (
	"context"

	"sidecrew/internal/database"
	"sidecrew/internal/domain/application"

	"github.com/google/uuid"
)

type ApplicationFilter struct {
	ID        uuid.UUID
	PostingID uuid.UUID
	JobID     uuid.UUID
	WorkerID  uuid.UUID
	// AgentID matches applications on postings owned by the agent.
	AgentID     uuid.UUID
	Statuses    []application.Status
	OldestFirst bool
}

// ApplicationRow is an application joined with its posting, worker, and
// proof, for read models.
type ApplicationRow struct {
	application.Application
	JobID        uuid.UUID
	AgentID      uuid.UUID
	PostingTitle string
	WorkerName   string
	ProofID      *uuid.UUID
	ProofStatus  application.ProofStatus
	ProofRemarks string
}

type ApplicationRepository interface {
	// Create fails with ErrDuplicate when the worker already applied.
	Create(ctx context.Context, a application.Application) error
	Exists(ctx context.Context, postingID, workerID uuid.UUID) (bool, error)
	FindForUpdate(ctx context.Context, f ApplicationFilter) (application.Application, error)
	List(ctx context.Context, f ApplicationFilter) ([]ApplicationRow, error)
	Update(ctx context.Context, a application.Application) error
	Count(ctx context.Context, f ApplicationFilter) (int, error)
	// AverageAgentRating is the mean agent rating over the worker's rated
	// applications, 0 when none are rated.
	AverageAgentRating(ctx context.Context, workerID uuid.UUID) (float64, error)
}

type PostgresApplicationRepository struct {
	db database.Querier
}

func NewPostgresApplicationRepository(db database.Querier) *PostgresApplicationRepository {
	return &PostgresApplicationRepository{db: db}
}

const applicationColumns = `a.id, a.job_posting_id, a.worker_id, a.status,
	a.agent_rating_for_worker, a.worker_payment_status, a.applied_at`

const applicationFrom = ` FROM applications a JOIN job_postings p ON p.id = a.job_posting_id`

func (r *PostgresApplicationRepository) Create(ctx context.Context, a application.Application) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO applications (id, job_posting_id, worker_id, status, worker_payment_status)
		 VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.PostingID, a.WorkerID, string(a.Status), string(a.WorkerPaymentStatus),
	)
	return translateErr(err)
}

func (r *PostgresApplicationRepository) Exists(ctx context.Context, postingID, workerID uuid.UUID) (bool, error) {
	var exists bool
	row := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM applications WHERE job_posting_id = $1 AND worker_id = $2)`,
		postingID, workerID,
	)
	if err := row.Scan(&exists); err != nil {
		return false, translateErr(err)
	}
	return exists, nil
}

func (r *PostgresApplicationRepository) FindForUpdate(ctx context.Context, f ApplicationFilter) (application.Application, error) {
	w := applicationWhere(f)
	row := r.db.QueryRow(ctx, `SELECT `+applicationColumns+applicationFrom+w.String()+` LIMIT 1 FOR UPDATE OF a`, w.args...)
	return scanApplication(row)
}

func (r *PostgresApplicationRepository) List(ctx context.Context, f ApplicationFilter) ([]ApplicationRow, error) {
	w := applicationWhere(f)
	order := " ORDER BY a.applied_at DESC"
	if f.OldestFirst {
		order = " ORDER BY a.applied_at ASC"
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+applicationColumns+`, p.job_id, p.agent_id, p.title, wk.name, wp.id, wp.status, wp.agent_remarks`+
			applicationFrom+
			` JOIN workers wk ON wk.id = a.worker_id
			  LEFT JOIN work_proofs wp ON wp.application_id = a.id`+
			w.String()+order,
		w.args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ApplicationRow, 0)
	for rows.Next() {
		var (
			row         ApplicationRow
			status      string
			payStatus   string
			rating      *int16
			proofStatus *string
			remarks     *string
		)
		if err := rows.Scan(
			&row.ID, &row.PostingID, &row.WorkerID, &status, &rating, &payStatus, &row.AppliedAt,
			&row.JobID, &row.AgentID, &row.PostingTitle, &row.WorkerName,
			&row.ProofID, &proofStatus, &remarks,
		); err != nil {
			return nil, translateErr(err)
		}
		fillApplication(&row.Application, status, payStatus, rating)
		if proofStatus != nil {
			row.ProofStatus = application.ProofStatus(*proofStatus)
		}
		if remarks != nil {
			row.ProofRemarks = *remarks
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresApplicationRepository) Update(ctx context.Context, a application.Application) error {
	var rating *int16
	if a.AgentRatingForWorker != nil {
		v := int16(*a.AgentRatingForWorker)
		rating = &v
	}
	affected, err := r.db.Exec(ctx,
		`UPDATE applications SET status = $2, agent_rating_for_worker = $3, worker_payment_status = $4 WHERE id = $1`,
		a.ID, string(a.Status), rating, string(a.WorkerPaymentStatus),
	)
	if err != nil {
		return translateErr(err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresApplicationRepository) Count(ctx context.Context, f ApplicationFilter) (int, error) {
	w := applicationWhere(f)
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*)`+applicationFrom+w.String(), w.args...).Scan(&n); err != nil {
		return 0, translateErr(err)
	}
	return n, nil
}

func (r *PostgresApplicationRepository) AverageAgentRating(ctx context.Context, workerID uuid.UUID) (float64, error) {
	var avg float64
	row := r.db.QueryRow(ctx,
		`SELECT COALESCE(AVG(agent_rating_for_worker)::float8, 0)
		 FROM applications
		 WHERE worker_id = $1 AND agent_rating_for_worker IS NOT NULL`,
		workerID,
	)
	if err := row.Scan(&avg); err != nil {
		return 0, translateErr(err)
	}
	return avg, nil
}

func applicationWhere(f ApplicationFilter) *where {
	w := &where{}
	if f.ID != uuid.Nil {
		w.add("a.id = ?", f.ID)
	}
	if f.PostingID != uuid.Nil {
		w.add("a.job_posting_id = ?", f.PostingID)
	}
	if f.JobID != uuid.Nil {
		w.add("p.job_id = ?", f.JobID)
	}
	if f.WorkerID != uuid.Nil {
		w.add("a.worker_id = ?", f.WorkerID)
	}
	if f.AgentID != uuid.Nil {
		w.add("p.agent_id = ?", f.AgentID)
	}
	if len(f.Statuses) > 0 {
		w.add("a.status = ANY(?)", toStrings(f.Statuses))
	}
	return w
}

func scanApplication(row database.Row) (application.Application, error) {
	var (
		a         application.Application
		status    string
		payStatus string
		rating    *int16
	)
	if err := row.Scan(&a.ID, &a.PostingID, &a.WorkerID, &status, &rating, &payStatus, &a.AppliedAt); err != nil {
		return application.Application{}, translateErr(err)
	}
	fillApplication(&a, status, payStatus, rating)
	return a, nil
}

func fillApplication(a *application.Application, status, payStatus string, rating *int16) {
	a.Status = application.Status(status)
	a.WorkerPaymentStatus = application.PaymentStatus(payStatus)
	if rating != nil {
		v := int(*rating)
		a.AgentRatingForWorker = &v
	}
}
