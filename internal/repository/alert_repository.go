package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/institute-portal-api/internal/models"
)

// AlertRepository manages news alerts.
type AlertRepository struct {
	db *sqlx.DB
}

// NewAlertRepository constructs the repository.
func NewAlertRepository(db *sqlx.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// ListActive returns active alerts that have not expired at now.
func (r *AlertRepository) ListActive(ctx context.Context, now time.Time) ([]models.NewsAlert, error) {
	const query = `SELECT id, title, body, active, expires_at, created_at FROM news_alerts
	WHERE active = TRUE AND (expires_at IS NULL OR expires_at > $1) ORDER BY created_at DESC`
	var alerts []models.NewsAlert
	if err := r.db.SelectContext(ctx, &alerts, query, now); err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	return alerts, nil
}

// Create inserts an alert.
func (r *AlertRepository) Create(ctx context.Context, alert *models.NewsAlert) error {
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO news_alerts (id, title, body, active, expires_at, created_at)
	VALUES (:id, :title, :body, :active, :expires_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, alert); err != nil {
		return fmt.Errorf("create alert: %w", err)
	}
	return nil
}

// Delete removes an alert.
func (r *AlertRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM news_alerts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete alert: %w", err)
	}
	return affectedOrNoRows(res)
}
