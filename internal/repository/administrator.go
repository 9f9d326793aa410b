package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/funillab/insta-dash-server/internal/model"
)

// AdministratorRepository reads the administrators table. Admin accounts are
// seed data; there is no create/update/delete flow.
type AdministratorRepository interface {
	FindByID(ctx context.Context, id string) (*model.Administrator, error)
	FindByEmail(ctx context.Context, email string) (*model.Administrator, error)
}

type administratorRepo struct {
	db sqlxDB
}

func NewAdministratorRepository(db *sqlx.DB) AdministratorRepository {
	return &administratorRepo{db: db}
}

func (r *administratorRepo) FindByID(ctx context.Context, id string) (*model.Administrator, error) {
	var admin model.Administrator
	err := r.db.GetContext(ctx, &admin, `
		SELECT * FROM administrators WHERE id = $1
	`, id)
	return HandleNotFound(&admin, err)
}

func (r *administratorRepo) FindByEmail(ctx context.Context, email string) (*model.Administrator, error) {
	var admin model.Administrator
	err := r.db.GetContext(ctx, &admin, `
		SELECT * FROM administrators WHERE email = $1
	`, email)
	return HandleNotFound(&admin, err)
}
