package repository

import (
	"context"

	"sidecrew/internal/database"
	"sidecrew/internal/domain/application"

	"github.com/google/uuid"
)

type ProofFilter struct {
	ID            uuid.UUID
	ApplicationID uuid.UUID
	// AgentID matches proofs on postings owned by the agent.
	AgentID  uuid.UUID
	Statuses []application.ProofStatus
}

// ProofRow is a proof joined with the application context an agent reviews
// it in.
type ProofRow struct {
	application.Proof
	WorkerID     uuid.UUID
	WorkerName   string
	PostingID    uuid.UUID
	PostingTitle string
	JobID        uuid.UUID
}

type ProofRepository interface {
	// Upsert writes the single proof of an application, keeping its id when
	// one already exists.
	Upsert(ctx context.Context, p application.Proof) (application.Proof, error)
	Find(ctx context.Context, f ProofFilter) (application.Proof, error)
	FindForUpdate(ctx context.Context, f ProofFilter) (application.Proof, error)
	List(ctx context.Context, f ProofFilter) ([]ProofRow, error)
	Update(ctx context.Context, p application.Proof) error
}

type PostgresProofRepository struct {
	db database.Querier
}

func NewPostgresProofRepository(db database.Querier) *PostgresProofRepository {
	return &PostgresProofRepository{db: db}
}

const proofColumns = `wp.id, wp.application_id, wp.image_ref, wp.latitude, wp.longitude,
	wp.status, wp.agent_remarks, wp.uploaded_at`

const proofFrom = ` FROM work_proofs wp
	JOIN applications a ON a.id = wp.application_id
	JOIN job_postings p ON p.id = a.job_posting_id`

func (r *PostgresProofRepository) Upsert(ctx context.Context, p application.Proof) (application.Proof, error) {
	var remarks *string
	if p.AgentRemarks != "" {
		remarks = &p.AgentRemarks
	}
	row := r.db.QueryRow(ctx,
		`INSERT INTO work_proofs (id, application_id, image_ref, latitude, longitude, status, agent_remarks, uploaded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		 ON CONFLICT (application_id) DO UPDATE
		 SET image_ref = EXCLUDED.image_ref,
		     latitude = EXCLUDED.latitude,
		     longitude = EXCLUDED.longitude,
		     status = EXCLUDED.status,
		     agent_remarks = EXCLUDED.agent_remarks,
		     uploaded_at = EXCLUDED.uploaded_at
		 RETURNING id, uploaded_at`,
		p.ID, p.ApplicationID, p.ImageRef, p.Latitude, p.Longitude, string(p.Status), remarks,
	)
	if err := row.Scan(&p.ID, &p.UploadedAt); err != nil {
		return application.Proof{}, translateErr(err)
	}
	return p, nil
}

func (r *PostgresProofRepository) Find(ctx context.Context, f ProofFilter) (application.Proof, error) {
	w := proofWhere(f)
	row := r.db.QueryRow(ctx, `SELECT `+proofColumns+proofFrom+w.String()+` LIMIT 1`, w.args...)
	return scanProof(row)
}

func (r *PostgresProofRepository) FindForUpdate(ctx context.Context, f ProofFilter) (application.Proof, error) {
	w := proofWhere(f)
	row := r.db.QueryRow(ctx, `SELECT `+proofColumns+proofFrom+w.String()+` LIMIT 1 FOR UPDATE OF wp`, w.args...)
	return scanProof(row)
}

func (r *PostgresProofRepository) List(ctx context.Context, f ProofFilter) ([]ProofRow, error) {
	w := proofWhere(f)
	rows, err := r.db.Query(ctx,
		`SELECT `+proofColumns+`, a.worker_id, wk.name, p.id, p.title, p.job_id`+
			proofFrom+
			` JOIN workers wk ON wk.id = a.worker_id`+
			w.String()+` ORDER BY wp.uploaded_at ASC`,
		w.args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ProofRow, 0)
	for rows.Next() {
		var (
			pr      ProofRow
			status  string
			remarks *string
		)
		if err := rows.Scan(
			&pr.ID, &pr.ApplicationID, &pr.ImageRef, &pr.Latitude, &pr.Longitude, &status, &remarks, &pr.UploadedAt,
			&pr.WorkerID, &pr.WorkerName, &pr.PostingID, &pr.PostingTitle, &pr.JobID,
		); err != nil {
			return nil, translateErr(err)
		}
		pr.Status = application.ProofStatus(status)
		if remarks != nil {
			pr.AgentRemarks = *remarks
		}
		out = append(out, pr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresProofRepository) Update(ctx context.Context, p application.Proof) error {
	var remarks *string
	if p.AgentRemarks != "" {
		remarks = &p.AgentRemarks
	}
	affected, err := r.db.Exec(ctx,
		`UPDATE work_proofs SET status = $2, agent_remarks = $3 WHERE id = $1`,
		p.ID, string(p.Status), remarks,
	)
	if err != nil {
		return translateErr(err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func proofWhere(f ProofFilter) *where {
	w := &where{}
	if f.ID != uuid.Nil {
		w.add("wp.id = ?", f.ID)
	}
	if f.ApplicationID != uuid.Nil {
		w.add("wp.application_id = ?", f.ApplicationID)
	}
	if f.AgentID != uuid.Nil {
		w.add("p.agent_id = ?", f.AgentID)
	}
	if len(f.Statuses) > 0 {
		w.add("wp.status = ANY(?)", toStrings(f.Statuses))
	}
	return w
}

func scanProof(row database.Row) (application.Proof, error) {
	var (
		p       application.Proof
		status  string
		remarks *string
	)
	if err := row.Scan(&p.ID, &p.ApplicationID, &p.ImageRef, &p.Latitude, &p.Longitude, &status, &remarks, &p.UploadedAt); err != nil {
		return application.Proof{}, translateErr(err)
	}
	p.Status = application.ProofStatus(status)
	if remarks != nil {
		p.AgentRemarks = *remarks
	}
	return p, nil
}
