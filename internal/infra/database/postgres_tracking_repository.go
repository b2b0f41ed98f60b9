// internal/infra/database/postgres_tracking_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"seller_escalation_bot/internal/domain/tracking"
)

// Custom errors specific to tracking repository
var ErrTrackingNotFound = fmt.Errorf("tracking record not found")
var ErrResponseNotFound = fmt.Errorf("response record not found")
var ErrDuplicateTrackingID = fmt.Errorf("duplicate tracking id")

type PostgresTrackingRepository struct {
	db *sql.DB
}

var _ tracking.Repository = (*PostgresTrackingRepository)(nil)

func NewPostgresTrackingRepository(db *sql.DB) *PostgresTrackingRepository {
	return &PostgresTrackingRepository{db: db}
}

// --- Tracking record methods ---

const recordColumns = `tracking_id, email, seller_id, email_type, sent_at, opened_at, opened, view_count`

func (r *PostgresTrackingRepository) CreateRecord(ctx context.Context, rec *tracking.Record) error {
	query := `INSERT INTO tracking_records (` + recordColumns + `)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, query,
		rec.TrackingID, rec.Email, rec.SellerID, rec.EmailType, rec.SentAt, rec.OpenedAt, rec.Opened, rec.ViewCount)
	if err != nil {
		if strings.Contains(err.Error(), "tracking_records_pkey") {
			return ErrDuplicateTrackingID
		}
		return fmt.Errorf("error creating tracking record: %w", err)
	}
	return nil
}

func (r *PostgresTrackingRepository) GetRecord(ctx context.Context, trackingID string) (*tracking.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM tracking_records WHERE tracking_id = $1`
	rec := tracking.Record{}
	err := r.db.QueryRowContext(ctx, query, trackingID).Scan(
		&rec.TrackingID, &rec.Email, &rec.SellerID, &rec.EmailType,
		&rec.SentAt, &rec.OpenedAt, &rec.Opened, &rec.ViewCount,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTrackingNotFound
		}
		return nil, fmt.Errorf("error getting tracking record: %w", err)
	}
	return &rec, nil
}

func (r *PostgresTrackingRepository) UpdateRecord(ctx context.Context, rec *tracking.Record) error {
	query := `UPDATE tracking_records
               SET opened_at = $1, opened = $2, view_count = $3, updated_at = NOW()
               WHERE tracking_id = $4`
	res, err := r.db.ExecContext(ctx, query, rec.OpenedAt, rec.Opened, rec.ViewCount, rec.TrackingID)
	if err != nil {
		return fmt.Errorf("error updating tracking record: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrTrackingNotFound
	}
	return nil
}

func (r *PostgresTrackingRepository) ListRecordsBySeller(ctx context.Context, sellerID string) ([]*tracking.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM tracking_records
               WHERE seller_id = $1 ORDER BY sent_at, tracking_id`
	rows, err := r.db.QueryContext(ctx, query, sellerID)
	if err != nil {
		return nil, fmt.Errorf("error querying tracking records by seller: %w", err)
	}
	defer rows.Close()

	records := make([]*tracking.Record, 0)
	for rows.Next() {
		rec := tracking.Record{}
		if err := rows.Scan(
			&rec.TrackingID, &rec.Email, &rec.SellerID, &rec.EmailType,
			&rec.SentAt, &rec.OpenedAt, &rec.Opened, &rec.ViewCount,
		); err != nil {
			return nil, fmt.Errorf("error scanning tracking record row: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tracking record rows: %w", err)
	}
	return records, nil
}

// --- Response record methods ---

const responseColumns = `id, seller_id, email_type, defective_rate, defective_streak, defective_label,
       appearance_rate, appearance_streak, appearance_label, final_action, week_number,
       sent_at, responded_at, response_received, status, notes, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResponse(s rowScanner) (*tracking.Response, error) {
	resp := tracking.Response{}
	err := s.Scan(
		&resp.ID, &resp.SellerID, &resp.EmailType, &resp.DefectiveRate, &resp.DefectiveStreak, &resp.DefectiveLabel,
		&resp.AppearanceRate, &resp.AppearanceStreak, &resp.AppearanceLabel, &resp.FinalAction, &resp.WeekNumber,
		&resp.SentAt, &resp.RespondedAt, &resp.ResponseReceived, &resp.Status, &resp.Notes, &resp.CreatedAt, &resp.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *PostgresTrackingRepository) CreateResponse(ctx context.Context, resp *tracking.Response) error {
	query := `INSERT INTO response_records (seller_id, email_type, defective_rate, defective_streak, defective_label,
                   appearance_rate, appearance_streak, appearance_label, final_action, week_number,
                   sent_at, responded_at, response_received, status, notes)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
               RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		resp.SellerID, resp.EmailType, resp.DefectiveRate, resp.DefectiveStreak, resp.DefectiveLabel,
		resp.AppearanceRate, resp.AppearanceStreak, resp.AppearanceLabel, resp.FinalAction, resp.WeekNumber,
		resp.SentAt, resp.RespondedAt, resp.ResponseReceived, resp.Status, resp.Notes,
	).Scan(&resp.ID, &resp.CreatedAt, &resp.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating response record: %w", err)
	}
	return nil
}

func (r *PostgresTrackingRepository) GetLatestResponse(ctx context.Context, sellerID, emailType string) (*tracking.Response, error) {
	query := `SELECT ` + responseColumns + ` FROM response_records
               WHERE seller_id = $1 AND email_type = $2
               ORDER BY sent_at DESC, id DESC LIMIT 1`
	resp, err := scanResponse(r.db.QueryRowContext(ctx, query, sellerID, emailType))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrResponseNotFound
		}
		return nil, fmt.Errorf("error getting latest response record: %w", err)
	}
	return resp, nil
}

func (r *PostgresTrackingRepository) UpdateResponse(ctx context.Context, resp *tracking.Response) error {
	query := `UPDATE response_records
               SET responded_at = $1, response_received = $2, status = $3, notes = $4, updated_at = NOW()
               WHERE id = $5
               RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query, resp.RespondedAt, resp.ResponseReceived, resp.Status, resp.Notes, resp.ID).Scan(&resp.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrResponseNotFound
		}
		return fmt.Errorf("error updating response record: %w", err)
	}
	return nil
}

func (r *PostgresTrackingRepository) ListResponsesBySeller(ctx context.Context, sellerID string) ([]*tracking.Response, error) {
	query := `SELECT ` + responseColumns + ` FROM response_records
               WHERE seller_id = $1 ORDER BY sent_at, id`
	rows, err := r.db.QueryContext(ctx, query, sellerID)
	if err != nil {
		return nil, fmt.Errorf("error querying response records by seller: %w", err)
	}
	defer rows.Close()

	responses := make([]*tracking.Response, 0)
	for rows.Next() {
		resp, err := scanResponse(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning response record row: %w", err)
		}
		responses = append(responses, resp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating response record rows: %w", err)
	}
	return responses, nil
}
