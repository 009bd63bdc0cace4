package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tmtops/api/internal/records"
)

// Seed loads a small demo data set of local planning and production records.
func Seed(ctx context.Context, pool *pgxpool.Pool) error {
	// Idempotent: we use fixed IDs + ON CONFLICT DO NOTHING.
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	base := time.Date(2024, 6, 1, 8, 0, 0, 0, time.Local)
	plans := []struct {
		id         uuid.UUID
		heat       string
		person     string
		brand      string
		sizes      []records.SizeQty
		supervisor string
		day        int
		done       bool
	}{
		{uuid.MustParse("8b0f6c1e-3a4d-4c55-9a10-000000000001"), "H-2401", "Ravi", "JSW",
			[]records.SizeQty{{Size: "8mm", Quantity: 12}, {Size: "10mm", Quantity: 8}}, "Mohan", 0, true},
		{uuid.MustParse("8b0f6c1e-3a4d-4c55-9a10-000000000002"), "H-2402", "Suresh", "Tata",
			[]records.SizeQty{{Size: "12mm", Quantity: 20}}, "Mohan", 1, true},
		{uuid.MustParse("8b0f6c1e-3a4d-4c55-9a10-000000000003"), "H-2403", "Ravi", "JSW",
			[]records.SizeQty{{Size: "16mm", Quantity: 15}, {Size: "20mm", Quantity: 5}}, "Anil", 2, false},
		{uuid.MustParse("8b0f6c1e-3a4d-4c55-9a10-000000000004"), "H-2404", "Deepak", "SAIL",
			[]records.SizeQty{{Size: "25mm", Quantity: 10}}, "Anil", 3, false},
	}
	for _, p := range plans {
		sizes, err := json.Marshal(p.sizes)
		if err != nil {
			return err
		}
		created := base.AddDate(0, 0, p.day)
		status, actual := records.StatusPending, ""
		if p.done {
			status = records.StatusCompleted
			actual = created.Add(20 * time.Hour).Format(records.TimestampLayout)
		}
		if _, err := tx.Exec(ctx, `
      INSERT INTO planning_records (id, created_at, heat_no, person, brand, sizes, supervisor,
        production_date, remarks, status, synced_to_sheet, planned, actual)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,'',$9,true,$10,$11)
      ON CONFLICT (id) DO NOTHING
    `, p.id, created, p.heat, p.person, p.brand, sizes, p.supervisor,
			created.AddDate(0, 0, 1).Format(records.DateLayout), status,
			created.Format(records.TimestampLayout), actual); err != nil {
			return fmt.Errorf("seed planning: %w", err)
		}
	}

	runs := []struct {
		id, planningID                         uuid.UUID
		heat, jobCard, start, end, brand, size string
		pieces                                 int
		hours                                  float64
	}{
		{uuid.MustParse("5c2e9d7a-1f3b-4e8c-b6a2-000000000001"), plans[0].id, "H-2401", "JC-101", "22:00", "06:00", "JSW", "8mm", 1180, 8},
		{uuid.MustParse("5c2e9d7a-1f3b-4e8c-b6a2-000000000002"), plans[1].id, "H-2402", "JC-102", "06:00", "14:30", "Tata", "12mm", 940, 8.5},
	}
	for i, r := range runs {
		created := base.AddDate(0, 0, i+1).Add(20 * time.Hour)
		if _, err := tx.Exec(ctx, `
      INSERT INTO production_records (id, planning_id, created_at, heat_no, job_card, start_time,
        end_time, pieces, brand, size, hours, breakdown_time, gap, remarks, status, synced_to_sheet)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,'','','',$12,true)
      ON CONFLICT (id) DO NOTHING
    `, r.id, r.planningID, created, r.heat, r.jobCard, r.start, r.end, r.pieces,
			r.brand, r.size, r.hours, records.StatusCompleted); err != nil {
			return fmt.Errorf("seed production: %w", err)
		}
	}

	return tx.Commit(ctx)
}
