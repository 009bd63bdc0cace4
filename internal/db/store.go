package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tmtops/api/internal/auth"
	"tmtops/api/internal/records"
)

var (
	ErrNotFound = errors.New("db: not found")
	// ErrAlreadyCompleted is returned when a production run references a
	// planning record that already has one.
	ErrAlreadyCompleted = errors.New("db: planning record already completed")
)

// Store is the local state the sheets cannot hold: login sessions, the
// locally entered planning/production records and write receipts.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// ---------- sessions ----------

func (s *Store) CreateSession(ctx context.Context, u auth.User, expires time.Time) (uuid.UUID, error) {
	sid := uuid.New()
	_, err := s.pool.Exec(ctx, `
    INSERT INTO sessions (id, username, display_name, user_type, department, expires_at)
    VALUES ($1,$2,$3,$4,$5,$6)
  `, sid, u.Username, u.DisplayName, u.UserType, u.Department, expires)
	if err != nil {
		return uuid.Nil, fmt.Errorf("create session: %w", err)
	}
	return sid, nil
}

func (s *Store) GetSession(ctx context.Context, sid uuid.UUID) (auth.User, time.Time, error) {
	var u auth.User
	var expiresAt time.Time
	err := s.pool.QueryRow(ctx, `
    SELECT username, display_name, user_type, department, expires_at
    FROM sessions WHERE id = $1
  `, sid).Scan(&u.Username, &u.DisplayName, &u.UserType, &u.Department, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return auth.User{}, time.Time{}, ErrNotFound
	}
	if err != nil {
		return auth.User{}, time.Time{}, fmt.Errorf("get session: %w", err)
	}
	return u, expiresAt, nil
}

func (s *Store) DeleteSession(ctx context.Context, sid uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, sid)
	return err
}

// PurgeSessions drops sessions that expired before now.
func (s *Store) PurgeSessions(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ---------- planning ----------

const planningColumns = `id, created_at, heat_no, person, brand, sizes, supervisor,
  production_date, remarks, status, synced_to_sheet, planned, actual`

func scanPlanning(row pgx.Row) (records.PlanningRecord, error) {
	var p records.PlanningRecord
	var id uuid.UUID
	var sizes []byte
	if err := row.Scan(&id, &p.Timestamp, &p.HeatNo, &p.Person, &p.Brand, &sizes, &p.Supervisor,
		&p.ProductionDate, &p.Remarks, &p.Status, &p.SyncedToSheet, &p.Planned, &p.Actual); err != nil {
		return records.PlanningRecord{}, err
	}
	p.ID = id.String()
	if err := json.Unmarshal(sizes, &p.Sizes); err != nil {
		return records.PlanningRecord{}, fmt.Errorf("decode sizes: %w", err)
	}
	return p, nil
}

// CreatePlanning assigns the record an id and stores it unsynced.
func (s *Store) CreatePlanning(ctx context.Context, p *records.PlanningRecord) error {
	id := uuid.New()
	sizes, err := json.Marshal(p.Sizes)
	if err != nil {
		return err
	}
	if p.Planned == "" {
		p.Planned = p.Timestamp.Format(records.TimestampLayout)
	}
	_, err = s.pool.Exec(ctx, `
    INSERT INTO planning_records (`+planningColumns+`)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,false,$11,$12)
  `, id, p.Timestamp, p.HeatNo, p.Person, p.Brand, sizes, p.Supervisor,
		p.ProductionDate, p.Remarks, p.Status, p.Planned, p.Actual)
	if err != nil {
		return fmt.Errorf("create planning: %w", err)
	}
	p.ID = id.String()
	p.SyncedToSheet = false
	return nil
}

// ListPlanning returns local planning records, newest first. A non-empty
// brand restricts the list case-insensitively.
func (s *Store) ListPlanning(ctx context.Context, brand string) ([]records.PlanningRecord, error) {
	rows, err := s.pool.Query(ctx, `
    SELECT `+planningColumns+`
    FROM planning_records
    WHERE $1 = '' OR lower(brand) = lower($1)
    ORDER BY created_at DESC
  `, brand)
	if err != nil {
		return nil, fmt.Errorf("list planning: %w", err)
	}
	defer rows.Close()

	out := []records.PlanningRecord{}
	for rows.Next() {
		p, err := scanPlanning(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) GetPlanning(ctx context.Context, id string) (records.PlanningRecord, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return records.PlanningRecord{}, ErrNotFound
	}
	p, err := scanPlanning(s.pool.QueryRow(ctx, `SELECT `+planningColumns+` FROM planning_records WHERE id = $1`, uid))
	if errors.Is(err, pgx.ErrNoRows) {
		return records.PlanningRecord{}, ErrNotFound
	}
	return p, err
}

func (s *Store) MarkPlanningSynced(ctx context.Context, id string) error {
	return s.execOne(ctx, `UPDATE planning_records SET synced_to_sheet = true WHERE id = $1`, id)
}

func (s *Store) DeletePlanning(ctx context.Context, id string) error {
	return s.execOne(ctx, `DELETE FROM planning_records WHERE id = $1`, id)
}

func (s *Store) execOne(ctx context.Context, sql, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	tag, err := s.pool.Exec(ctx, sql, uid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ---------- production ----------

// CreateProduction stores p and, when it references a pending planning
// record, marks that record completed in the same transaction.
func (s *Store) CreateProduction(ctx context.Context, p *records.ProductionRecord) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var planningID *uuid.UUID
	if p.PlanningID != "" {
		uid, err := uuid.Parse(p.PlanningID)
		if err != nil {
			return ErrNotFound
		}
		var status string
		err = tx.QueryRow(ctx, `SELECT status FROM planning_records WHERE id = $1 FOR UPDATE`, uid).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock planning: %w", err)
		}
		if status == records.StatusCompleted {
			return ErrAlreadyCompleted
		}
		if _, err := tx.Exec(ctx, `
      UPDATE planning_records SET status = $2, actual = $3 WHERE id = $1
    `, uid, records.StatusCompleted, p.Timestamp.Format(records.TimestampLayout)); err != nil {
			return fmt.Errorf("complete planning: %w", err)
		}
		planningID = &uid
	}

	id := uuid.New()
	if _, err := tx.Exec(ctx, `
    INSERT INTO production_records (id, planning_id, created_at, heat_no, job_card, start_time,
      end_time, pieces, brand, size, hours, breakdown_time, gap, remarks, status)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
  `, id, planningID, p.Timestamp, p.HeatNo, p.JobCard, p.StartTime, p.EndTime, p.Pieces,
		p.Brand, p.Size, p.Hours, p.BreakdownTime, p.Gap, p.Remarks, p.Status); err != nil {
		return fmt.Errorf("create production: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	p.ID = id.String()
	p.SyncedToSheet = false
	return nil
}

const productionColumns = `id, planning_id, created_at, heat_no, job_card, start_time, end_time,
  pieces, brand, size, hours, breakdown_time, gap, remarks, status, synced_to_sheet`

func scanProduction(row pgx.Row) (records.ProductionRecord, error) {
	var p records.ProductionRecord
	var id uuid.UUID
	var planningID *uuid.UUID
	if err := row.Scan(&id, &planningID, &p.Timestamp, &p.HeatNo, &p.JobCard, &p.StartTime,
		&p.EndTime, &p.Pieces, &p.Brand, &p.Size, &p.Hours, &p.BreakdownTime, &p.Gap,
		&p.Remarks, &p.Status, &p.SyncedToSheet); err != nil {
		return records.ProductionRecord{}, err
	}
	p.ID = id.String()
	if planningID != nil {
		p.PlanningID = planningID.String()
	}
	return p, nil
}

func (s *Store) GetProduction(ctx context.Context, id string) (records.ProductionRecord, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return records.ProductionRecord{}, ErrNotFound
	}
	p, err := scanProduction(s.pool.QueryRow(ctx, `SELECT `+productionColumns+` FROM production_records WHERE id = $1`, uid))
	if errors.Is(err, pgx.ErrNoRows) {
		return records.ProductionRecord{}, ErrNotFound
	}
	return p, err
}

func (s *Store) MarkProductionSynced(ctx context.Context, id string) error {
	return s.execOne(ctx, `UPDATE production_records SET synced_to_sheet = true WHERE id = $1`, id)
}

func (s *Store) ListProduction(ctx context.Context, brand string) ([]records.ProductionRecord, error) {
	rows, err := s.pool.Query(ctx, `
    SELECT `+productionColumns+`
    FROM production_records
    WHERE $1 = '' OR lower(brand) = lower($1)
    ORDER BY created_at DESC
  `, brand)
	if err != nil {
		return nil, fmt.Errorf("list production: %w", err)
	}
	defer rows.Close()

	out := []records.ProductionRecord{}
	for rows.Next() {
		p, err := scanProduction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ---------- write receipts ----------

// Receipt is the stored first response to an idempotent write.
type Receipt struct {
	Key      string
	Username string
	Status   int
	Body     []byte
}

func (s *Store) GetReceipt(ctx context.Context, key, username string) (Receipt, bool, error) {
	r := Receipt{Key: key, Username: username}
	err := s.pool.QueryRow(ctx, `
    SELECT status, body FROM write_receipts WHERE key = $1 AND username = $2
  `, key, username).Scan(&r.Status, &r.Body)
	if errors.Is(err, pgx.ErrNoRows) {
		return Receipt{}, false, nil
	}
	if err != nil {
		return Receipt{}, false, fmt.Errorf("get receipt: %w", err)
	}
	return r, true, nil
}

func (s *Store) SaveReceipt(ctx context.Context, r Receipt) error {
	_, err := s.pool.Exec(ctx, `
    INSERT INTO write_receipts (key, username, status, body)
    VALUES ($1,$2,$3,$4)
    ON CONFLICT (key, username) DO NOTHING
  `, r.Key, r.Username, r.Status, r.Body)
	if err != nil {
		return fmt.Errorf("save receipt: %w", err)
	}
	return nil
}
