package repository

import (
	"context"
	"fmt"

	"github.com/fekuna/omnipos-order-service/internal/apperror"
	"github.com/fekuna/omnipos-order-service/internal/model"
	"github.com/fekuna/omnipos-order-service/internal/pkg/postgres"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB sqlx.ExtContext
}

func NewPGRepository(db sqlx.ExtContext) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) FindByPhone(ctx context.Context, businessID, phone string) (*model.Customer, error) {
	return postgres.GetOne[model.Customer](ctx, r.DB,
		`SELECT * FROM customers WHERE business_id = $1 AND phone = $2`, businessID, phone)
}

func (r *PGRepository) GetByID(ctx context.Context, businessID string, id int64) (*model.Customer, error) {
	return postgres.GetOne[model.Customer](ctx, r.DB,
		`SELECT * FROM customers WHERE business_id = $1 AND id = $2`, businessID, id)
}

func (r *PGRepository) Create(ctx context.Context, c *model.Customer) error {
	query := `
        INSERT INTO customers (business_id, first_name, last_name, phone, email, address, created_by)
        VALUES (:business_id, :first_name, :last_name, :phone, :email, :address, :created_by)
        RETURNING id, business_id, created_at, updated_at
    `
	if err := postgres.NamedGet(ctx, r.DB, &c.BaseModel, query, c); err != nil {
		if postgres.IsUniqueViolation(err, "customers_business_phone_key") {
			return apperror.Conflict("customer with phone %s already exists", c.Phone)
		}
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}
