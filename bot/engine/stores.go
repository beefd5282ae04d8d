package engine

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/telestar/shopbot/store"
)

// Tx is the persistence surface one update pass works against. The
// store's transactional view satisfies it; tests use in-memory fakes.
type Tx interface {
	ChatByChatID(ctx context.Context, chatID int64) (*store.ChatSession, error)
	CreateChat(ctx context.Context, chatID, userID int64) (*store.ChatSession, error)
	SetAcceptedTerms(ctx context.Context, id int64) error
	SetPendingAction(ctx context.Context, id int64, action store.PendingAction) error
	SetPhoneAttempts(ctx context.Context, id int64, n int) error
	SetOTPAttempts(ctx context.Context, id int64, n int) error
	SetChatVerified(ctx context.Context, id int64) error
	ReassignChatUser(ctx context.Context, id, userID int64) error
	SetLastMessageID(ctx context.Context, id int64, messageID int) error

	CreateIdentity(ctx context.Context) (*store.Identity, error)
	IdentityByID(ctx context.Context, id int64) (*store.Identity, error)
	IdentityByPhone(ctx context.Context, phone string) (*store.Identity, error)
	SetIdentityPhone(ctx context.Context, id int64, phone string) error
	SetPhoneValidated(ctx context.Context, id int64) error

	DisplayableProducts(ctx context.Context) ([]store.Product, error)
	ProductByID(ctx context.Context, id int64) (*store.Product, error)
	VersionsByProduct(ctx context.Context, productID int64) ([]store.ProductVersion, error)
	VersionByID(ctx context.Context, id int64) (*store.ProductVersion, error)

	CreateOrderWithItems(ctx context.Context, userID int64, lines []store.OrderLine) (*store.Order, error)
	OrderByID(ctx context.Context, id int64) (*store.Order, error)
	OrderItems(ctx context.Context, orderID int64) ([]store.OrderItem, error)
	SetOrderStatus(ctx context.Context, id int64, status store.OrderStatus) error

	Price(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// Store opens one transaction per update pass. Load, decide, persist
// and commit happen inside fn so concurrent deliveries for the same
// chat cannot lose updates.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

// OTPVerifier delivers and checks phone verification codes. The real
// SMS integration is pending; StaticOTP stands in for it.
type OTPVerifier interface {
	Send(ctx context.Context, phone string) error
	Verify(ctx context.Context, phone, code string) (bool, error)
}
