package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/telestar/shopbot/bot/pricing"
)

// QuoteBySymbol returns the latest market quote, or nil when the symbol
// has no feed entry.
func (t *Tx) QuoteBySymbol(ctx context.Context, symbol string) (*MarketQuote, error) {
	var quote MarketQuote
	err := t.tx.GetContext(ctx, &quote, `
		SELECT symbol, price, updated_at
		FROM market_quotes WHERE symbol = $1`, symbol)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("quote %q: %w", symbol, err)
	}
	return &quote, nil
}

// Price implements pricing.QuoteSource over the transaction.
func (t *Tx) Price(ctx context.Context, symbol string) (decimal.Decimal, error) {
	quote, err := t.QuoteBySymbol(ctx, symbol)
	if err != nil {
		return decimal.Zero, err
	}
	if quote == nil {
		return decimal.Zero, fmt.Errorf("symbol %q: %w", symbol, pricing.ErrNoQuote)
	}
	return quote.Price, nil
}
