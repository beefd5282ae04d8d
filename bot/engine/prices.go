package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/telestar/shopbot/bot/output"
	"github.com/telestar/shopbot/store"
)

// pricedVersion pairs a version with its resolved price for display.
type pricedVersion struct {
	version store.ProductVersion
	price   decimal.Decimal
}

// loadingPrices answers show_prices with the custom two-message flow:
// the transport sends the loading message, then asks for PriceList.
func (e *Engine) loadingPrices(ctx context.Context, chatID int64) (output.Envelope, error) {
	loading, err := e.render.Render(ctx, tplLoadingPrices, chatID, nil, output.Options{})
	if err != nil {
		return nil, err
	}
	return output.Custom{
		Name:    "get_prices",
		ChatID:  chatID,
		Loading: loading.(output.Append),
	}, nil
}

// PriceList renders the full current price list for every displayable
// product. The transport calls it while handling the get_prices custom
// envelope.
func (e *Engine) PriceList(ctx context.Context, chatID int64) (output.Envelope, error) {
	var block strings.Builder
	err := e.store.WithinTx(ctx, func(tx Tx) error {
		products, err := tx.DisplayableProducts(ctx)
		if err != nil {
			return err
		}
		for i, product := range products {
			versions, err := tx.VersionsByProduct(ctx, product.ID)
			if err != nil {
				return err
			}
			priced, err := e.priceVersions(ctx, tx, versions)
			if err != nil {
				return err
			}
			if i > 0 {
				block.WriteString("\n")
			}
			fmt.Fprintf(&block, "📦 **%s**\n", product.Name)
			block.WriteString(versionsBlock(priced))
			block.WriteString("\n")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return e.render.Render(ctx, tplGetPrices, chatID,
		map[string]string{"prices_block": strings.TrimRight(block.String(), "\n")},
		output.Options{})
}

func (e *Engine) priceVersions(ctx context.Context, tx Tx, versions []store.ProductVersion) ([]pricedVersion, error) {
	priced := make([]pricedVersion, 0, len(versions))
	for _, v := range versions {
		price, err := v.Terms().Price(ctx, tx)
		if err != nil {
			return nil, fmt.Errorf("price version %d: %w", v.ID, err)
		}
		priced = append(priced, pricedVersion{version: v, price: price})
	}
	return priced, nil
}

func versionsBlock(priced []pricedVersion) string {
	var b strings.Builder
	for _, pv := range priced {
		fmt.Fprintf(&b, "• %s — %s\n", pv.version.Name, pv.price.String())
	}
	return strings.TrimRight(b.String(), "\n")
}

// versionRows builds one buy button row per version.
func versionRows(priced []pricedVersion) output.Keyboard {
	rows := make(output.Keyboard, 0, len(priced))
	for _, pv := range priced {
		rows = append(rows, []output.Button{{
			Text:         fmt.Sprintf("%s — %s", pv.version.Name, pv.price.String()),
			CallbackData: "buy_product_version:" + strconv.FormatInt(pv.version.ID, 10),
		}})
	}
	return rows
}

func productsBlock(products []store.Product) string {
	var b strings.Builder
	for _, p := range products {
		fmt.Fprintf(&b, "📦 %s\n", p.Name)
	}
	return strings.TrimRight(b.String(), "\n")
}

// productRows builds one buy button row per displayable product.
func productRows(products []store.Product) output.Keyboard {
	rows := make(output.Keyboard, 0, len(products))
	for _, p := range products {
		rows = append(rows, []output.Button{{
			Text:         "🛒 " + p.Name,
			CallbackData: "buy_product:" + strconv.FormatInt(p.ID, 10),
		}})
	}
	return rows
}
