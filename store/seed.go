package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/telestar/shopbot/core/logger"
)

// Seed loads the reference buttons and templates, plus a starter
// catalog and market quotes for a fresh database. Buttons and templates
// upsert by name so repeated startups converge on the current
// definitions; render caches must be invalidated after a template
// changes. Products are only inserted while the table is empty and
// quotes only while the symbol is absent.
func (s *Store) Seed(ctx context.Context) error {
	var catalogSeeded bool
	err := s.WithinTx(ctx, func(tx *Tx) error {
		buttonIDs := make(map[string]int64, len(seedButtons))
		for _, b := range seedButtons {
			var id int64
			err := tx.tx.GetContext(ctx, &id, `
				INSERT INTO buttons (name, text, callback_data)
				VALUES ($1, $2, $3)
				ON CONFLICT (name) DO UPDATE
					SET text = EXCLUDED.text, callback_data = EXCLUDED.callback_data
				RETURNING id`, b.Name, b.Text, b.CallbackData)
			if err != nil {
				return fmt.Errorf("seed button %q: %w", b.Name, err)
			}
			buttonIDs[b.Name] = id
		}

		for _, t := range seedTemplates {
			var id int64
			err := tx.tx.GetContext(ctx, &id, `
				INSERT INTO templates (name, text, placeholders)
				VALUES ($1, $2, $3)
				ON CONFLICT (name) DO UPDATE
					SET text = EXCLUDED.text, placeholders = EXCLUDED.placeholders
				RETURNING id`, t.Name, t.Text, pq.StringArray(t.Placeholders))
			if err != nil {
				return fmt.Errorf("seed template %q: %w", t.Name, err)
			}

			if _, err := tx.tx.ExecContext(ctx,
				`DELETE FROM template_buttons WHERE template_id = $1`, id); err != nil {
				return fmt.Errorf("reset buttons for template %q: %w", t.Name, err)
			}
			for _, tb := range t.Buttons {
				buttonID, ok := buttonIDs[tb.ButtonName]
				if !ok {
					return fmt.Errorf("template %q references unknown button %q", t.Name, tb.ButtonName)
				}
				if _, err := tx.tx.ExecContext(ctx, `
					INSERT INTO template_buttons (template_id, button_id, number)
					VALUES ($1, $2, $3)`, id, buttonID, tb.Number); err != nil {
					return fmt.Errorf("seed template %q button %q: %w", t.Name, tb.ButtonName, err)
				}
			}
		}

		for _, q := range seedQuotes {
			if _, err := tx.tx.ExecContext(ctx, `
				INSERT INTO market_quotes (symbol, price)
				VALUES ($1, $2)
				ON CONFLICT (symbol) DO NOTHING`, q.Symbol, q.Price); err != nil {
				return fmt.Errorf("seed quote %q: %w", q.Symbol, err)
			}
		}

		seeded, err := seedCatalog(ctx, tx)
		if err != nil {
			return err
		}
		catalogSeeded = seeded
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "SEED", "seed.applied",
		slog.Int("buttons", len(seedButtons)),
		slog.Int("templates", len(seedTemplates)),
		slog.Int("quotes", len(seedQuotes)),
		slog.Bool("catalog_seeded", catalogSeeded),
	)
	return nil
}

// seedCatalog inserts the starter products once. Any existing product
// means an operator owns the catalog and the seed stays out of it.
func seedCatalog(ctx context.Context, tx *Tx) (bool, error) {
	var count int
	if err := tx.tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM products`); err != nil {
		return false, fmt.Errorf("count products: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	for _, p := range seedProducts {
		var productID int64
		err := tx.tx.GetContext(ctx, &productID, `
			INSERT INTO products (name, description, displayable)
			VALUES ($1, $2, $3)
			RETURNING id`, p.Name, p.Description, p.Displayable)
		if err != nil {
			return false, fmt.Errorf("seed product %q: %w", p.Name, err)
		}

		for _, v := range p.Versions {
			terms, err := v.terms()
			if err != nil {
				return false, fmt.Errorf("seed version %q of %q: %w", v.Name, p.Name, err)
			}
			var symbol sql.NullString
			if terms.MarketSymbol != "" {
				symbol = sql.NullString{String: terms.MarketSymbol, Valid: true}
			}
			if _, err := tx.tx.ExecContext(ctx, `
				INSERT INTO product_versions
					(product_id, name, pricing_strategy, fixed_price, market_symbol, units, margin_bps)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				productID, v.Name, terms.Strategy, terms.FixedPrice, symbol,
				terms.Units, terms.MarginBps); err != nil {
				return false, fmt.Errorf("seed version %q of %q: %w", v.Name, p.Name, err)
			}
		}
	}
	return true, nil
}
