package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-application-engine/internal/catalog"
	"loan-application-engine/internal/models"
)

// Integration tests run against a real database with scripts/schema.sql applied.
func testDB(t *testing.T) *DB {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	db, err := New(context.Background(), url, DefaultPoolConfig())
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, defaultListLimit, clampLimit(0))
	assert.Equal(t, defaultListLimit, clampLimit(-4))
	assert.Equal(t, 10, clampLimit(10))
	assert.Equal(t, maxListLimit, clampLimit(10000))
}

func TestApplicationRepository_RoundTrip(t *testing.T) {
	db := testDB(t)
	repo := NewApplicationRepository(db)
	ctx := context.Background()

	record := &models.ApplicationRecord{
		ID:        uuid.New().String(),
		Submitted: map[string]string{"fullName": "Jane Roe", "loanAmount": "30000"},
		Decision: models.EligibilityDecision{
			Eligible:           true,
			EligibilityScore:   95,
			EligibilityReasons: "Amount within range; Gender OK",
			BestProductName:    "Personal Loan Basic",
			ProductEligible:    true,
			Verdict: models.RiskVerdict{
				RiskScore:      35.5,
				Recommendation: models.RecommendationPending,
				Reasoning:      "Thin credit file",
			},
		},
		CreatedAt: time.Now().UTC(),
	}

	stored, err := repo.CreateApplication(ctx, record)
	require.NoError(t, err)
	assert.Equal(t, record.ID, stored.ID)

	got, err := repo.GetApplication(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.Submitted, got.Submitted)
	assert.Equal(t, record.Decision, got.Decision)

	list, err := repo.ListApplications(ctx, 5)
	require.NoError(t, err)
	assert.NotEmpty(t, list)
}

func TestApplicationRepository_NotFound(t *testing.T) {
	db := testDB(t)

	_, err := NewApplicationRepository(db).GetApplication(context.Background(), uuid.New().String())
	assert.ErrorIs(t, err, models.ErrApplicationNotFound)
}

func TestProductRepository_SyncCatalog(t *testing.T) {
	db := testDB(t)
	c, err := catalog.Default()
	require.NoError(t, err)

	repo := NewProductRepository(db)
	n, err := repo.SyncCatalog(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, c.Len(), n)

	active, err := repo.CountActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, c.Len(), active)
}
