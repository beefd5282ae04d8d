package store

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/telestar/shopbot/bot/pricing"
)

// seedQuoteSource prices symbols from the seeded quotes, the same view
// a fresh database gives the pricing layer.
type seedQuoteSource map[string]decimal.Decimal

func (s seedQuoteSource) Price(_ context.Context, symbol string) (decimal.Decimal, error) {
	price, ok := s[symbol]
	if !ok {
		return decimal.Zero, pricing.ErrNoQuote
	}
	return price, nil
}

func newSeedQuoteSource(t *testing.T) seedQuoteSource {
	t.Helper()
	src := make(seedQuoteSource, len(seedQuotes))
	for _, q := range seedQuotes {
		price, err := decimal.NewFromString(q.Price)
		if err != nil {
			t.Fatalf("quote %q price %q: %v", q.Symbol, q.Price, err)
		}
		src[q.Symbol] = price
	}
	return src
}

func TestSeedTemplateButtonsResolve(t *testing.T) {
	known := make(map[string]bool, len(seedButtons))
	for _, b := range seedButtons {
		known[b.Name] = true
	}
	for _, tpl := range seedTemplates {
		for _, tb := range tpl.Buttons {
			if !known[tb.ButtonName] {
				t.Errorf("template %q references unknown button %q", tpl.Name, tb.ButtonName)
			}
		}
	}
}

func TestSeedCatalogPriceable(t *testing.T) {
	quotes := newSeedQuoteSource(t)

	for _, p := range seedProducts {
		if len(p.Versions) == 0 {
			t.Errorf("product %q has no versions", p.Name)
		}
		for _, v := range p.Versions {
			terms, err := v.terms()
			if err != nil {
				t.Errorf("version %q of %q: %v", v.Name, p.Name, err)
				continue
			}
			price, err := terms.Price(context.Background(), quotes)
			if err != nil {
				t.Errorf("pricing version %q of %q: %v", v.Name, p.Name, err)
				continue
			}
			if !price.IsPositive() {
				t.Errorf("version %q of %q priced %s, want positive", v.Name, p.Name, price)
			}
		}
	}
}

func TestSeedCatalogCoversMarketStrategies(t *testing.T) {
	seen := make(map[pricing.Strategy]bool)
	for _, p := range seedProducts {
		for _, v := range p.Versions {
			seen[v.Strategy] = true
		}
	}
	for _, want := range []pricing.Strategy{pricing.Fixed, pricing.Market, pricing.MarketPlusMargin} {
		if !seen[want] {
			t.Errorf("no seeded version uses strategy %q", want)
		}
	}
}

func TestSeedMarketSymbolsQuoted(t *testing.T) {
	quotes := newSeedQuoteSource(t)
	for _, p := range seedProducts {
		for _, v := range p.Versions {
			if v.MarketSymbol == "" {
				continue
			}
			if _, err := quotes.Price(context.Background(), v.MarketSymbol); errors.Is(err, pricing.ErrNoQuote) {
				t.Errorf("version %q of %q uses symbol %q with no seeded quote", v.Name, p.Name, v.MarketSymbol)
			}
		}
	}
}

var placeholderToken = regexp.MustCompile(`\{(\w+)\}`)

func TestSeedTemplatePlaceholdersDeclared(t *testing.T) {
	for _, tpl := range seedTemplates {
		declared := make(map[string]bool, len(tpl.Placeholders))
		for _, name := range tpl.Placeholders {
			declared[name] = true
		}
		for _, match := range placeholderToken.FindAllStringSubmatch(tpl.Text, -1) {
			if !declared[match[1]] {
				t.Errorf("template %q uses undeclared placeholder %q", tpl.Name, match[1])
			}
		}
	}
}
