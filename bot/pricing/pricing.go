// Package pricing computes product version prices. A version is priced
// by one of three strategies: a fixed amount, the live market quote for
// a symbol scaled by units, or the market basis plus a margin expressed
// in basis points.
package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Strategy selects how a product version is priced.
type Strategy string

const (
	Fixed            Strategy = "fixed"
	Market           Strategy = "market"
	MarketPlusMargin Strategy = "market_plus_margin"
)

var (
	ErrUnknownStrategy = errors.New("unknown pricing strategy")
	ErrNoFixedPrice    = errors.New("fixed strategy without a fixed price")
	ErrNoMarketSymbol  = errors.New("market strategy without a symbol")
	ErrNoQuote         = errors.New("no market quote for symbol")
)

// QuoteSource resolves the current market price for a symbol.
type QuoteSource interface {
	Price(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// Terms is everything needed to price one product version.
type Terms struct {
	Strategy     Strategy
	FixedPrice   decimal.NullDecimal
	MarketSymbol string
	Units        decimal.Decimal
	MarginBps    int64
}

var bpsDenominator = decimal.NewFromInt(10000)

// Price resolves the unit price for t. Market strategies consult quotes
// for the symbol and scale by units; the margin strategy then applies
// 1 + marginBps/10000 on top of the market basis.
func (t Terms) Price(ctx context.Context, quotes QuoteSource) (decimal.Decimal, error) {
	switch t.Strategy {
	case Fixed:
		if !t.FixedPrice.Valid {
			return decimal.Zero, ErrNoFixedPrice
		}
		return t.FixedPrice.Decimal, nil

	case Market:
		return t.marketBasis(ctx, quotes)

	case MarketPlusMargin:
		basis, err := t.marketBasis(ctx, quotes)
		if err != nil {
			return decimal.Zero, err
		}
		margin := decimal.NewFromInt(t.MarginBps).Div(bpsDenominator)
		return basis.Mul(decimal.NewFromInt(1).Add(margin)), nil

	default:
		return decimal.Zero, fmt.Errorf("strategy %q: %w", t.Strategy, ErrUnknownStrategy)
	}
}

func (t Terms) marketBasis(ctx context.Context, quotes QuoteSource) (decimal.Decimal, error) {
	if t.MarketSymbol == "" {
		return decimal.Zero, ErrNoMarketSymbol
	}
	quote, err := quotes.Price(ctx, t.MarketSymbol)
	if err != nil {
		return decimal.Zero, fmt.Errorf("quote %q: %w", t.MarketSymbol, err)
	}
	return quote.Mul(t.Units), nil
}
