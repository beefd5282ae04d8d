package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrUnknownVersion means an order referenced a product version id that
// does not exist. The whole order is rejected.
var ErrUnknownVersion = errors.New("unknown product version")

// OrderLine is one requested line of a new order.
type OrderLine struct {
	ProductVersionID int64
	Quantity         int
}

// CreateOrderWithItems validates every requested version in one batch
// lookup, prices each line with the version's strategy and records the
// order plus its items. The caller's transaction makes a partial order
// unobservable.
func (t *Tx) CreateOrderWithItems(ctx context.Context, userID int64, lines []OrderLine) (*Order, error) {
	if len(lines) == 0 {
		return nil, errors.New("order with no lines")
	}

	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductVersionID)
	}
	versions, err := t.VersionsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if _, ok := versions[id]; !ok {
			return nil, fmt.Errorf("version %d: %w", id, ErrUnknownVersion)
		}
	}

	items := make([]OrderItem, 0, len(lines))
	total := decimal.Zero
	for _, line := range lines {
		version := versions[line.ProductVersionID]
		unit, err := version.Terms().Price(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("price version %d: %w", version.ID, err)
		}
		qty := line.Quantity
		if qty < 1 {
			qty = 1
		}
		lineTotal := unit.Mul(decimal.NewFromInt(int64(qty)))
		items = append(items, OrderItem{
			ProductVersionID: version.ID,
			Quantity:         qty,
			UnitPrice:        unit,
			LineTotal:        lineTotal,
		})
		total = total.Add(lineTotal)
	}

	var order Order
	err = t.tx.GetContext(ctx, &order, `
		INSERT INTO orders (user_id, status, total)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, status, total, created_at`,
		userID, OrderWaitingForPayment, total)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	for _, item := range items {
		_, err := t.tx.ExecContext(ctx, `
			INSERT INTO order_items
				(order_id, product_version_id, quantity, unit_price, line_total)
			VALUES ($1, $2, $3, $4, $5)`,
			order.ID, item.ProductVersionID, item.Quantity, item.UnitPrice, item.LineTotal)
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
	}
	return &order, nil
}

// OrderByID returns the order or nil when absent.
func (t *Tx) OrderByID(ctx context.Context, id int64) (*Order, error) {
	var order Order
	err := t.tx.GetContext(ctx, &order, `
		SELECT id, user_id, status, total, created_at
		FROM orders WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("order %d: %w", id, err)
	}
	return &order, nil
}

// OrderItems lists the priced lines of an order.
func (t *Tx) OrderItems(ctx context.Context, orderID int64) ([]OrderItem, error) {
	var items []OrderItem
	err := t.tx.SelectContext(ctx, &items, `
		SELECT id, order_id, product_version_id, quantity, unit_price, line_total
		FROM order_items WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("items for order %d: %w", orderID, err)
	}
	return items, nil
}

// SetOrderStatus moves the order to a new lifecycle status.
func (t *Tx) SetOrderStatus(ctx context.Context, id int64, status OrderStatus) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE orders SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("set order %d status %s: %w", id, status, err)
	}
	return nil
}
