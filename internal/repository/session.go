package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/funillab/insta-dash-server/internal/model"
)

type SessionRepository interface {
	// FindByTokenHash returns the session for the hash if it has not expired.
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.DashboardSession, error)
	Create(ctx context.Context, params model.CreateDashboardSessionParams) (*model.DashboardSession, error)
	DeleteByTokenHash(ctx context.Context, tokenHash string) error
	// DeleteByClientID revokes every session of a client, e.g. after a
	// password change.
	DeleteByClientID(ctx context.Context, clientID string) error
	DeleteExpired(ctx context.Context) (int64, error)
	CountActive(ctx context.Context) (int, error)
}

type sessionRepo struct {
	db sqlxDB
}

func NewSessionRepository(db *sqlx.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.DashboardSession, error) {
	var session model.DashboardSession
	err := r.db.GetContext(ctx, &session, `
		SELECT * FROM dashboard_sessions
		WHERE token_hash = $1 AND expires_at > NOW()
	`, tokenHash)
	return HandleNotFound(&session, err)
}

func (r *sessionRepo) Create(ctx context.Context, params model.CreateDashboardSessionParams) (*model.DashboardSession, error) {
	var session model.DashboardSession
	err := r.db.GetContext(ctx, &session, `
		INSERT INTO dashboard_sessions (token_hash, role, admin_id, client_id, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *
	`, params.TokenHash, params.Role, params.AdminID, params.ClientID, params.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM dashboard_sessions WHERE token_hash = $1
	`, tokenHash)
	return err
}

func (r *sessionRepo) DeleteByClientID(ctx context.Context, clientID string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM dashboard_sessions WHERE client_id = $1
	`, clientID)
	return err
}

func (r *sessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM dashboard_sessions WHERE expires_at < NOW()
	`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *sessionRepo) CountActive(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM dashboard_sessions WHERE expires_at > NOW()
	`)
	return count, err
}
