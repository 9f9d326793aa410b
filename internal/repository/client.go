package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/funillab/insta-dash-server/internal/model"
)

type ClientRepository interface {
	FindByID(ctx context.Context, id string) (*model.Client, error)
	FindByEmail(ctx context.Context, email string) (*model.Client, error)
	FindAll(ctx context.Context, limit, offset int) ([]model.Client, error)
	// FindAllCollectable returns clients that carry both an Instagram account
	// id and an access token, i.e. those the daily collector can work on.
	FindAllCollectable(ctx context.Context) ([]model.Client, error)
	Create(ctx context.Context, params model.CreateClientParams) (*model.Client, error)
	Update(ctx context.Context, id string, params model.UpdateClientParams) (*model.Client, error)
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) ClientRepository
}

type clientRepo struct {
	db sqlxDB
}

func NewClientRepository(db *sqlx.DB) ClientRepository {
	return &clientRepo{db: db}
}

func (r *clientRepo) WithTx(tx *sqlx.Tx) ClientRepository {
	return &clientRepo{db: tx}
}

func (r *clientRepo) FindByID(ctx context.Context, id string) (*model.Client, error) {
	var client model.Client
	err := r.db.GetContext(ctx, &client, `
		SELECT * FROM clients WHERE id = $1
	`, id)
	return HandleNotFound(&client, err)
}

func (r *clientRepo) FindByEmail(ctx context.Context, email string) (*model.Client, error) {
	var client model.Client
	err := r.db.GetContext(ctx, &client, `
		SELECT * FROM clients WHERE email = $1
	`, email)
	return HandleNotFound(&client, err)
}

func (r *clientRepo) FindAll(ctx context.Context, limit, offset int) ([]model.Client, error) {
	var clients []model.Client
	err := r.db.SelectContext(ctx, &clients, `
		SELECT * FROM clients
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return clients, nil
}

func (r *clientRepo) FindAllCollectable(ctx context.Context) ([]model.Client, error) {
	var clients []model.Client
	err := r.db.SelectContext(ctx, &clients, `
		SELECT * FROM clients
		WHERE instagram_id IS NOT NULL AND instagram_token IS NOT NULL
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	return clients, nil
}

func (r *clientRepo) Create(ctx context.Context, params model.CreateClientParams) (*model.Client, error) {
	var client model.Client
	err := r.db.GetContext(ctx, &client, `
		INSERT INTO clients (name, email, password_hash, instagram_id, instagram_token,
			logo_url, calendar_url, drive_url, notion_url, ads_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING *
	`, params.Name, params.Email, params.PasswordHash, params.InstagramID, params.InstagramToken,
		params.LogoURL, params.CalendarURL, params.DriveURL, params.NotionURL, params.AdsURL)
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *clientRepo) Update(ctx context.Context, id string, params model.UpdateClientParams) (*model.Client, error) {
	var client model.Client
	err := r.db.GetContext(ctx, &client, `
		UPDATE clients SET
			name = COALESCE($2, name),
			email = COALESCE($3, email),
			password_hash = COALESCE($4, password_hash),
			instagram_id = COALESCE($5, instagram_id),
			instagram_token = COALESCE($6, instagram_token),
			logo_url = COALESCE($7, logo_url),
			calendar_url = COALESCE($8, calendar_url),
			drive_url = COALESCE($9, drive_url),
			notion_url = COALESCE($10, notion_url),
			ads_url = COALESCE($11, ads_url)
		WHERE id = $1
		RETURNING *
	`, id, params.Name, params.Email, params.PasswordHash, params.InstagramID, params.InstagramToken,
		params.LogoURL, params.CalendarURL, params.DriveURL, params.NotionURL, params.AdsURL)
	return HandleNotFound(&client, err)
}

func (r *clientRepo) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE clients SET password_hash = $2 WHERE id = $1
	`, id, passwordHash)
	return err
}

func (r *clientRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM clients WHERE id = $1`, id)
	return err
}

func (r *clientRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM clients`)
	return count, err
}
