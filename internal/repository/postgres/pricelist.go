package postgres

import (
	"context"
	"database/sql"
	"errors"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/repository"
)

type pricelistRepository struct {
	db *sql.DB
}

func NewPricelistRepository(db *sql.DB) repository.PricelistRepository {
	return &pricelistRepository{db: db}
}

func (r *pricelistRepository) Create(ctx context.Context, pl *domain.Pricelist) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := tx.QueryRowContext(ctx,
		`INSERT INTO pricelists (name) VALUES ($1) RETURNING id`, pl.Name).Scan(&pl.ID); err != nil {
		return err
	}
	for i := range pl.Rules {
		pl.Rules[i].PricelistID = pl.ID
		err := tx.QueryRowContext(ctx,
			`INSERT INTO discount_rules (pricelist_id, name, priority, stackable, percent, customer_segment, product_category, min_quantity, valid_from, valid_to)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`,
			pl.ID, pl.Rules[i].Name, pl.Rules[i].Priority, pl.Rules[i].Stackable, pl.Rules[i].Percent,
			nullString(pl.Rules[i].CustomerSegment), nullString(pl.Rules[i].ProductCategory),
			pl.Rules[i].MinQuantity, pl.Rules[i].ValidFrom, pl.Rules[i].ValidTo,
		).Scan(&pl.Rules[i].ID)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *pricelistRepository) GetByID(ctx context.Context, id int64) (*domain.Pricelist, error) {
	pl := &domain.Pricelist{}
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM pricelists WHERE id = $1`, id).Scan(&pl.ID, &pl.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.Errorf(domain.KindNotFound, "pricelist %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	rules, err := r.ListRules(ctx, id)
	if err != nil {
		return nil, err
	}
	pl.Rules = rules
	return pl, nil
}

func (r *pricelistRepository) ListRules(ctx context.Context, pricelistID int64) ([]domain.DiscountRule, error) {
	query := `SELECT id, pricelist_id, name, priority, stackable, percent, customer_segment, product_category, min_quantity, valid_from, valid_to
	          FROM discount_rules WHERE pricelist_id = $1 ORDER BY priority DESC, id`
	rows, err := r.db.QueryContext(ctx, query, pricelistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []domain.DiscountRule
	for rows.Next() {
		var rule domain.DiscountRule
		var segment, category sql.NullString
		if err := rows.Scan(&rule.ID, &rule.PricelistID, &rule.Name, &rule.Priority, &rule.Stackable, &rule.Percent,
			&segment, &category, &rule.MinQuantity, &rule.ValidFrom, &rule.ValidTo); err != nil {
			return nil, err
		}
		rule.CustomerSegment = segment.String
		rule.ProductCategory = category.String
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}
