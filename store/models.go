// Package store holds the PostgreSQL persistence layer: row models and
// sqlx repositories for chats, identities, templates, products, orders
// and market data.
package store

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/telestar/shopbot/bot/pricing"
)

// PendingAction is the single outstanding input the bot expects next
// from a chat.
type PendingAction string

const (
	PendingNone  PendingAction = ""
	PendingPhone PendingAction = "waiting_for_phone"
	PendingOTP   PendingAction = "waiting_for_otp"
)

// OrderStatus tracks an order through its payment lifecycle.
type OrderStatus string

const (
	OrderWaitingForPayment OrderStatus = "waiting_for_payment"
	OrderPaid              OrderStatus = "paid"
	OrderExpired           OrderStatus = "expired"
)

// ChatSession is the persisted conversation state for one remote chat.
type ChatSession struct {
	ID            int64         `db:"id"`
	ChatID        int64         `db:"chat_id"`
	UserID        int64         `db:"user_id"`
	AcceptedTerms bool          `db:"accepted_terms"`
	ChatVerified  bool          `db:"chat_verified"`
	PendingAction PendingAction `db:"pending_action"`
	PhoneAttempts int           `db:"phone_attempts"`
	OTPAttempts   int           `db:"otp_attempts"`
	LastMessageID sql.NullInt64 `db:"last_message_id"`
	CreatedAt     time.Time     `db:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at"`
}

// Identity is a person, potentially owning several chats. PhoneNumber
// is globally unique when set.
type Identity struct {
	ID                   int64          `db:"id"`
	PhoneNumber          sql.NullString `db:"phone_number"`
	PhoneNumberValidated bool           `db:"phone_number_validated"`
	CreatedAt            time.Time      `db:"created_at"`
}

// templateRow and buttonRow are join results mapped into output.Template.
type templateRow struct {
	ID           int64          `db:"id"`
	Name         string         `db:"name"`
	Text         string         `db:"text"`
	Placeholders pq.StringArray `db:"placeholders"`
}

type templateButtonRow struct {
	Number       int    `db:"number"`
	Name         string `db:"name"`
	Text         string `db:"text"`
	CallbackData string `db:"callback_data"`
}

// Product groups sellable versions under one display name.
type Product struct {
	ID          int64  `db:"id"`
	Name        string `db:"name"`
	Description string `db:"description"`
	Displayable bool   `db:"displayable"`
}

// ProductVersion is the unit actually sold. Units scales the market
// price for market-based strategies.
type ProductVersion struct {
	ID           int64               `db:"id"`
	ProductID    int64               `db:"product_id"`
	Name         string              `db:"name"`
	Strategy     pricing.Strategy    `db:"pricing_strategy"`
	FixedPrice   decimal.NullDecimal `db:"fixed_price"`
	MarketSymbol sql.NullString      `db:"market_symbol"`
	Units        decimal.Decimal     `db:"units"`
	MarginBps    int64               `db:"margin_bps"`
}

// Terms packs the version's pricing fields for the pricing component.
func (v ProductVersion) Terms() pricing.Terms {
	return pricing.Terms{
		Strategy:     v.Strategy,
		FixedPrice:   v.FixedPrice,
		MarketSymbol: v.MarketSymbol.String,
		Units:        v.Units,
		MarginBps:    v.MarginBps,
	}
}

// Order is a purchase awaiting or past payment.
type Order struct {
	ID        int64           `db:"id"`
	UserID    int64           `db:"user_id"`
	Status    OrderStatus     `db:"status"`
	Total     decimal.Decimal `db:"total"`
	CreatedAt time.Time       `db:"created_at"`
}

// OrderItem is one priced line of an order.
type OrderItem struct {
	ID               int64           `db:"id"`
	OrderID          int64           `db:"order_id"`
	ProductVersionID int64           `db:"product_version_id"`
	Quantity         int             `db:"quantity"`
	UnitPrice        decimal.Decimal `db:"unit_price"`
	LineTotal        decimal.Decimal `db:"line_total"`
}

// MarketQuote is the latest known price for a market symbol.
type MarketQuote struct {
	Symbol    string          `db:"symbol"`
	Price     decimal.Decimal `db:"price"`
	UpdatedAt time.Time       `db:"updated_at"`
}
