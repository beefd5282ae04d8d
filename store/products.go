package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// DisplayableProducts lists products shown in the shop menu.
func (t *Tx) DisplayableProducts(ctx context.Context) ([]Product, error) {
	var products []Product
	err := t.tx.SelectContext(ctx, &products, `
		SELECT id, name, description, displayable
		FROM products WHERE displayable ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("displayable products: %w", err)
	}
	return products, nil
}

// ProductByID returns the product or nil when absent.
func (t *Tx) ProductByID(ctx context.Context, id int64) (*Product, error) {
	var product Product
	err := t.tx.GetContext(ctx, &product, `
		SELECT id, name, description, displayable
		FROM products WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("product %d: %w", id, err)
	}
	return &product, nil
}

// VersionsByProduct lists a product's sellable versions in id order.
func (t *Tx) VersionsByProduct(ctx context.Context, productID int64) ([]ProductVersion, error) {
	var versions []ProductVersion
	err := t.tx.SelectContext(ctx, &versions, `
		SELECT id, product_id, name, pricing_strategy, fixed_price,
		       market_symbol, units, margin_bps
		FROM product_versions WHERE product_id = $1 ORDER BY id`, productID)
	if err != nil {
		return nil, fmt.Errorf("versions for product %d: %w", productID, err)
	}
	return versions, nil
}

// VersionByID returns the version or nil when absent.
func (t *Tx) VersionByID(ctx context.Context, id int64) (*ProductVersion, error) {
	var version ProductVersion
	err := t.tx.GetContext(ctx, &version, `
		SELECT id, product_id, name, pricing_strategy, fixed_price,
		       market_symbol, units, margin_bps
		FROM product_versions WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("product version %d: %w", id, err)
	}
	return &version, nil
}

// VersionsByIDs resolves a batch of version ids in one query. The
// result maps id to version; ids absent from the table are absent from
// the map.
func (t *Tx) VersionsByIDs(ctx context.Context, ids []int64) (map[int64]ProductVersion, error) {
	if len(ids) == 0 {
		return map[int64]ProductVersion{}, nil
	}

	query, args, err := sqlx.In(`
		SELECT id, product_id, name, pricing_strategy, fixed_price,
		       market_symbol, units, margin_bps
		FROM product_versions WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("versions batch query: %w", err)
	}

	var versions []ProductVersion
	if err := t.tx.SelectContext(ctx, &versions, t.tx.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("versions batch: %w", err)
	}

	byID := make(map[int64]ProductVersion, len(versions))
	for _, v := range versions {
		byID[v.ID] = v
	}
	return byID, nil
}
