package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/funillab/insta-dash-server/internal/model"
)

type MetricRepository interface {
	// FindByClientAndRange returns samples for the client whose date falls
	// inside the inclusive [from, to] range, ascending by date. An unknown
	// client id yields an empty slice, not an error.
	FindByClientAndRange(ctx context.Context, clientID string, from, to time.Time) ([]model.MetricSample, error)
	Create(ctx context.Context, params model.CreateMetricSampleParams) (*model.MetricSample, error)
	Count(ctx context.Context) (int, error)
	CountSince(ctx context.Context, since time.Time) (int, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) MetricRepository
}

type metricRepo struct {
	db sqlxDB
}

func NewMetricRepository(db *sqlx.DB) MetricRepository {
	return &metricRepo{db: db}
}

func (r *metricRepo) WithTx(tx *sqlx.Tx) MetricRepository {
	return &metricRepo{db: tx}
}

func (r *metricRepo) FindByClientAndRange(ctx context.Context, clientID string, from, to time.Time) ([]model.MetricSample, error) {
	var samples []model.MetricSample
	err := r.db.SelectContext(ctx, &samples, `
		SELECT * FROM metric_samples
		WHERE client_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC
	`, clientID, from, to)
	if err != nil {
		return nil, err
	}
	return samples, nil
}

func (r *metricRepo) Create(ctx context.Context, params model.CreateMetricSampleParams) (*model.MetricSample, error) {
	var sample model.MetricSample
	err := r.db.GetContext(ctx, &sample, `
		INSERT INTO metric_samples (client_id, date, reach, impressions, likes, comments, followers, engagement)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING *
	`, params.ClientID, params.Date, params.Reach, params.Impressions, params.Likes,
		params.Comments, params.Followers, params.Engagement)
	if err != nil {
		return nil, err
	}
	return &sample, nil
}

func (r *metricRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM metric_samples`)
	return count, err
}

func (r *metricRepo) CountSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM metric_samples WHERE created_at >= $1
	`, since)
	return count, err
}
