package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"loan-application-engine/internal/models"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

const applicationColumns = `
	id, submitted, eligible, product_eligible, risk_eligible, eligibility_score,
	eligibility_reasons, best_product, risk_score, risk_recommendation,
	risk_reasoning, risk_degraded, created_at`

// ApplicationRepository stores decided applications.
type ApplicationRepository struct {
	db *DB
}

// NewApplicationRepository creates a new application repository.
func NewApplicationRepository(db *DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// CreateApplication inserts one loan_applications row.
// The returned record carries the database timestamp.
func (r *ApplicationRepository) CreateApplication(ctx context.Context, record *models.ApplicationRecord) (*models.ApplicationRecord, error) {
	submitted, err := json.Marshal(record.Submitted)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal submitted fields: %w", err)
	}

	d := record.Decision
	var createdAt time.Time

	err = r.db.pool.QueryRow(ctx, `
		INSERT INTO loan_applications (
			id, submitted, eligible, product_eligible, risk_eligible, eligibility_score,
			eligibility_reasons, best_product, risk_score, risk_recommendation,
			risk_reasoning, risk_degraded, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at`,
		record.ID,
		submitted,
		d.Eligible,
		d.ProductEligible,
		d.RiskEligible,
		d.EligibilityScore,
		d.EligibilityReasons,
		d.BestProductName,
		d.Verdict.RiskScore,
		string(d.Verdict.Recommendation),
		d.Verdict.Reasoning,
		d.Verdict.Degraded,
		record.CreatedAt,
	).Scan(&createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert application: %w", err)
	}

	stored := *record
	stored.CreatedAt = createdAt.UTC()
	return &stored, nil
}

// GetApplication returns models.ErrApplicationNotFound when id is unknown.
func (r *ApplicationRepository) GetApplication(ctx context.Context, id string) (*models.ApplicationRecord, error) {
	row := r.db.pool.QueryRow(ctx, `SELECT `+applicationColumns+` FROM loan_applications WHERE id = $1`, id)

	record, err := scanApplication(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrApplicationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get application: %w", err)
	}

	return record, nil
}

// ListApplications returns the newest applications first.
func (r *ApplicationRepository) ListApplications(ctx context.Context, limit int) ([]*models.ApplicationRecord, error) {
	limit = clampLimit(limit)

	rows, err := r.db.pool.Query(ctx,
		`SELECT `+applicationColumns+` FROM loan_applications ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query applications: %w", err)
	}
	defer rows.Close()

	records := make([]*models.ApplicationRecord, 0, limit)
	for rows.Next() {
		record, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate applications: %w", err)
	}

	return records, nil
}

func scanApplication(row pgx.Row) (*models.ApplicationRecord, error) {
	var (
		record         models.ApplicationRecord
		submitted      []byte
		recommendation string
	)
	d := &record.Decision

	err := row.Scan(
		&record.ID,
		&submitted,
		&d.Eligible,
		&d.ProductEligible,
		&d.RiskEligible,
		&d.EligibilityScore,
		&d.EligibilityReasons,
		&d.BestProductName,
		&d.Verdict.RiskScore,
		&recommendation,
		&d.Verdict.Reasoning,
		&d.Verdict.Degraded,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(submitted, &record.Submitted); err != nil {
		return nil, fmt.Errorf("failed to decode submitted fields: %w", err)
	}
	d.Verdict.Recommendation = models.NormalizeRecommendation(recommendation)
	record.CreatedAt = record.CreatedAt.UTC()

	return &record, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
