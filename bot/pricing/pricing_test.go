package pricing

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

type staticQuotes map[string]string

func (q staticQuotes) Price(_ context.Context, symbol string) (decimal.Decimal, error) {
	s, ok := q[symbol]
	if !ok {
		return decimal.Zero, ErrNoQuote
	}
	return decimal.RequireFromString(s), nil
}

func TestTermsPrice(t *testing.T) {
	quotes := staticQuotes{"XAU": "50.00"}

	tests := []struct {
		name    string
		terms   Terms
		want    string
		wantErr error
	}{
		{
			name: "fixed",
			terms: Terms{
				Strategy:   Fixed,
				FixedPrice: decimal.NewNullDecimal(decimal.RequireFromString("120.50")),
			},
			want: "120.50",
		},
		{
			name:    "fixed without price",
			terms:   Terms{Strategy: Fixed},
			wantErr: ErrNoFixedPrice,
		},
		{
			name: "market scales by units",
			terms: Terms{
				Strategy:     Market,
				MarketSymbol: "XAU",
				Units:        decimal.RequireFromString("2.5"),
			},
			want: "125.00",
		},
		{
			name: "market plus margin",
			terms: Terms{
				Strategy:     MarketPlusMargin,
				MarketSymbol: "XAU",
				Units:        decimal.RequireFromString("2"),
				MarginBps:    250,
			},
			want: "102.50",
		},
		{
			name: "margin of zero equals market",
			terms: Terms{
				Strategy:     MarketPlusMargin,
				MarketSymbol: "XAU",
				Units:        decimal.RequireFromString("1"),
			},
			want: "50.00",
		},
		{
			name:    "market without symbol",
			terms:   Terms{Strategy: Market},
			wantErr: ErrNoMarketSymbol,
		},
		{
			name: "unknown symbol",
			terms: Terms{
				Strategy:     Market,
				MarketSymbol: "XAG",
				Units:        decimal.RequireFromString("1"),
			},
			wantErr: ErrNoQuote,
		},
		{
			name:    "unknown strategy",
			terms:   Terms{Strategy: "auction"},
			wantErr: ErrUnknownStrategy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.terms.Price(context.Background(), quotes)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Price: %v", err)
			}
			if want := decimal.RequireFromString(tt.want); !got.Equal(want) {
				t.Errorf("price = %s, want %s", got, want)
			}
		})
	}
}
