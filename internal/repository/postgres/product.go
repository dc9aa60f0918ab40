package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/repository"
)

type productRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) repository.ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, p *domain.Product) error {
	query := `INSERT INTO products (name, category, base_rate_cents, rate_unit, total_units, available_units, reserved_units, maintenance_units, deposit_per_unit_cents, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`
	now := time.Now()
	return r.db.QueryRowContext(ctx, query,
		p.Name, p.Category, p.BaseRateCents, p.RateUnit, p.TotalUnits,
		p.AvailableUnits, p.ReservedUnits, p.MaintenanceUnits, p.DepositPerUnitCents, now, now,
	).Scan(&p.ID)
}

func (r *productRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	p := &domain.Product{}
	query := `SELECT id, name, category, base_rate_cents, rate_unit, total_units, available_units, reserved_units, maintenance_units, deposit_per_unit_cents, created_on, updated_on
	          FROM products WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Category, &p.BaseRateCents, &p.RateUnit, &p.TotalUnits,
		&p.AvailableUnits, &p.ReservedUnits, &p.MaintenanceUnits, &p.DepositPerUnitCents, &p.CreatedOn, &p.UpdatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.Errorf(domain.KindNotFound, "product %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *productRepository) Update(ctx context.Context, p *domain.Product) error {
	query := `UPDATE products SET name=$1, category=$2, base_rate_cents=$3, rate_unit=$4, deposit_per_unit_cents=$5, updated_on=$6 WHERE id=$7`
	_, err := r.db.ExecContext(ctx, query, p.Name, p.Category, p.BaseRateCents, p.RateUnit, p.DepositPerUnitCents, time.Now(), p.ID)
	return err
}

func (r *productRepository) List(ctx context.Context, page, pageSize int32) ([]domain.Product, int32, error) {
	var count int32
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM products`).Scan(&count); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	query := `SELECT id, name, category, base_rate_cents, rate_unit, total_units, available_units, reserved_units, maintenance_units, deposit_per_unit_cents, created_on, updated_on
	          FROM products ORDER BY name LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.BaseRateCents, &p.RateUnit, &p.TotalUnits,
			&p.AvailableUnits, &p.ReservedUnits, &p.MaintenanceUnits, &p.DepositPerUnitCents, &p.CreatedOn, &p.UpdatedOn); err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	return products, count, rows.Err()
}

// AdjustCounters moves units between buckets in one guarded statement so
// no bucket can go negative even under racing callers.
func (r *productRepository) AdjustCounters(ctx context.Context, id int64, availableDelta, reservedDelta, maintenanceDelta int) error {
	query := `UPDATE products
	          SET available_units = available_units + $2,
	              reserved_units = reserved_units + $3,
	              maintenance_units = maintenance_units + $4,
	              updated_on = NOW()
	          WHERE id = $1
	            AND available_units + $2 >= 0
	            AND reserved_units + $3 >= 0
	            AND maintenance_units + $4 >= 0`
	res, err := r.db.ExecContext(ctx, query, id, availableDelta, reservedDelta, maintenanceDelta)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return domain.Errorf(domain.KindInvalidQuantity,
			"product %d: adjustment (%d, %d, %d) would drive a unit bucket negative", id, availableDelta, reservedDelta, maintenanceDelta)
	}
	return nil
}
