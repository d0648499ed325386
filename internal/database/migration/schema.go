package migration

import (
	"context"
	"fmt"
	"sort"

	"sidecrew/internal/database"
)

// RequiredColumns lists the columns the repositories read and write.
var RequiredColumns = map[string][]string{
	"clients":      {"id", "name", "email", "password_hash", "phone", "profile_pic", "company_name", "status", "created_at", "updated_at"},
	"agents":       {"id", "name", "email", "password_hash", "phone", "address", "agency_name", "latitude", "longitude", "rating", "status"},
	"workers":      {"id", "name", "email", "password_hash", "phone", "address", "skills", "availability", "rating", "status"},
	"jobs":         {"id", "client_id", "agent_id", "title", "client_pay_per_worker_cents", "workers_needed", "status", "client_payment_status", "client_rating_for_agent"},
	"job_postings": {"id", "job_id", "agent_id", "title", "worker_pay_rate_cents", "is_active"},
	"applications": {"id", "job_posting_id", "worker_id", "status", "agent_rating_for_worker", "worker_payment_status"},
	"work_proofs":  {"id", "application_id", "image_ref", "latitude", "longitude", "status"},
}

// Verify fails when a table or column the repositories rely on is missing.
func Verify(ctx context.Context, db database.Querier) error {
	tables := make([]string, 0, len(RequiredColumns))
	for t := range RequiredColumns {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	for _, t := range tables {
		if err := EnsureTableColumns(ctx, db, t, RequiredColumns[t]...); err != nil {
			return err
		}
	}
	return nil
}

func EnsureTableColumns(ctx context.Context, db database.Querier, table string, columns ...string) error {
	if db == nil {
		return fmt.Errorf("nil db")
	}
	if table == "" {
		return fmt.Errorf("empty table")
	}

	rows, err := db.Query(
		ctx,
		`SELECT column_name FROM information_schema.columns WHERE table_schema = current_schema() AND table_name = $1`,
		table,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	existing := map[string]struct{}{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return err
		}
		existing[c] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if len(existing) == 0 {
		return fmt.Errorf("schema mismatch: missing table %s", table)
	}
	for _, col := range columns {
		if _, ok := existing[col]; !ok {
			return fmt.Errorf("schema mismatch: missing column %s.%s", table, col)
		}
	}
	return nil
}
