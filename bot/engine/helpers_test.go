package engine

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/telestar/shopbot/bot/output"
	"github.com/telestar/shopbot/bot/pricing"
	"github.com/telestar/shopbot/store"
)

// memTx is an in-memory Tx. memStore hands the same instance to every
// pass, so state persists across Handle calls within a test.
type memTx struct {
	nextID     int64
	chats      map[int64]*store.ChatSession // by chat_id
	identities map[int64]*store.Identity
	products   map[int64]store.Product
	versions   map[int64]store.ProductVersion
	orders     map[int64]*store.Order
	items      map[int64][]store.OrderItem
	quotes     map[string]decimal.Decimal
}

type memStore struct{ tx *memTx }

func (s memStore) WithinTx(_ context.Context, fn func(tx Tx) error) error {
	return fn(s.tx)
}

func newMemTx() *memTx {
	return &memTx{
		nextID:     100,
		chats:      make(map[int64]*store.ChatSession),
		identities: make(map[int64]*store.Identity),
		products:   make(map[int64]store.Product),
		versions:   make(map[int64]store.ProductVersion),
		orders:     make(map[int64]*store.Order),
		items:      make(map[int64][]store.OrderItem),
		quotes:     make(map[string]decimal.Decimal),
	}
}

func (m *memTx) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memTx) chatByID(id int64) *store.ChatSession {
	for _, c := range m.chats {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (m *memTx) ChatByChatID(_ context.Context, chatID int64) (*store.ChatSession, error) {
	return m.chats[chatID], nil
}

func (m *memTx) CreateChat(_ context.Context, chatID, userID int64) (*store.ChatSession, error) {
	chat := &store.ChatSession{
		ID: m.id(), ChatID: chatID, UserID: userID,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	m.chats[chatID] = chat
	return chat, nil
}

func (m *memTx) SetAcceptedTerms(_ context.Context, id int64) error {
	m.chatByID(id).AcceptedTerms = true
	return nil
}

func (m *memTx) SetPendingAction(_ context.Context, id int64, action store.PendingAction) error {
	m.chatByID(id).PendingAction = action
	return nil
}

func (m *memTx) SetPhoneAttempts(_ context.Context, id int64, n int) error {
	m.chatByID(id).PhoneAttempts = n
	return nil
}

func (m *memTx) SetOTPAttempts(_ context.Context, id int64, n int) error {
	m.chatByID(id).OTPAttempts = n
	return nil
}

func (m *memTx) SetChatVerified(_ context.Context, id int64) error {
	m.chatByID(id).ChatVerified = true
	return nil
}

func (m *memTx) ReassignChatUser(_ context.Context, id, userID int64) error {
	chat := m.chatByID(id)
	chat.UserID = userID
	chat.ChatVerified = false
	return nil
}

func (m *memTx) SetLastMessageID(_ context.Context, id int64, messageID int) error {
	m.chatByID(id).LastMessageID = sql.NullInt64{Int64: int64(messageID), Valid: true}
	return nil
}

func (m *memTx) CreateIdentity(_ context.Context) (*store.Identity, error) {
	identity := &store.Identity{ID: m.id(), CreatedAt: time.Now()}
	m.identities[identity.ID] = identity
	return identity, nil
}

func (m *memTx) IdentityByID(_ context.Context, id int64) (*store.Identity, error) {
	return m.identities[id], nil
}

func (m *memTx) IdentityByPhone(_ context.Context, phone string) (*store.Identity, error) {
	for _, identity := range m.identities {
		if identity.PhoneNumber.Valid && identity.PhoneNumber.String == phone {
			return identity, nil
		}
	}
	return nil, nil
}

func (m *memTx) SetIdentityPhone(_ context.Context, id int64, phone string) error {
	identity := m.identities[id]
	identity.PhoneNumber = sql.NullString{String: phone, Valid: true}
	identity.PhoneNumberValidated = false
	return nil
}

func (m *memTx) SetPhoneValidated(_ context.Context, id int64) error {
	m.identities[id].PhoneNumberValidated = true
	return nil
}

func (m *memTx) DisplayableProducts(_ context.Context) ([]store.Product, error) {
	var out []store.Product
	for _, p := range m.products {
		if p.Displayable {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memTx) ProductByID(_ context.Context, id int64) (*store.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *memTx) VersionsByProduct(_ context.Context, productID int64) ([]store.ProductVersion, error) {
	var out []store.ProductVersion
	for _, v := range m.versions {
		if v.ProductID == productID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *memTx) VersionByID(_ context.Context, id int64) (*store.ProductVersion, error) {
	v, ok := m.versions[id]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (m *memTx) CreateOrderWithItems(ctx context.Context, userID int64, lines []store.OrderLine) (*store.Order, error) {
	total := decimal.Zero
	var items []store.OrderItem
	for _, line := range lines {
		version, ok := m.versions[line.ProductVersionID]
		if !ok {
			return nil, store.ErrUnknownVersion
		}
		unit, err := version.Terms().Price(ctx, m)
		if err != nil {
			return nil, err
		}
		lineTotal := unit.Mul(decimal.NewFromInt(int64(line.Quantity)))
		items = append(items, store.OrderItem{
			ProductVersionID: version.ID,
			Quantity:         line.Quantity,
			UnitPrice:        unit,
			LineTotal:        lineTotal,
		})
		total = total.Add(lineTotal)
	}
	order := &store.Order{
		ID: m.id(), UserID: userID,
		Status: store.OrderWaitingForPayment, Total: total, CreatedAt: time.Now(),
	}
	m.orders[order.ID] = order
	m.items[order.ID] = items
	return order, nil
}

func (m *memTx) OrderByID(_ context.Context, id int64) (*store.Order, error) {
	return m.orders[id], nil
}

func (m *memTx) OrderItems(_ context.Context, orderID int64) ([]store.OrderItem, error) {
	return m.items[orderID], nil
}

func (m *memTx) SetOrderStatus(_ context.Context, id int64, status store.OrderStatus) error {
	m.orders[id].Status = status
	return nil
}

func (m *memTx) Price(_ context.Context, symbol string) (decimal.Decimal, error) {
	price, ok := m.quotes[symbol]
	if !ok {
		return decimal.Zero, pricing.ErrNoQuote
	}
	return price, nil
}

// memTemplates serves a fixed template set mirroring the seed.
type memTemplates map[string]*output.Template

func (m memTemplates) TemplateByName(_ context.Context, name string) (*output.Template, error) {
	return m[name], nil
}

func testTemplates() memTemplates {
	plain := func(name, text string) *output.Template {
		return &output.Template{Name: name, Text: text}
	}
	tpls := memTemplates{}
	for _, t := range []*output.Template{
		plain(tplUnsupportedCommand, "unsupported"),
		plain(tplPhoneNumberInput, "enter your phone number"),
		plain(tplAuthenticationFailed, "authentication failed"),
		plain(tplMaxAttemptReached, "too many failed attempts"),
		plain(tplInvalidPhoneNumber, "phone number is invalid"),
		plain(tplInvalidOTP, "verification code is invalid"),
		plain(tplPhoneVerification, "verification code sent"),
		plain(tplPhoneVerified, "phone number verified"),
		plain(tplLoadingPrices, "loading prices"),
		plain(tplSupport, "support"),
		plain(tplContactSupportInfo, "contact support"),
		plain(tplCommonQuestions, "common questions"),
		plain(tplShowTermsConditions, "full terms text"),
		{
			Name: tplTermsAndConditions,
			Text: "terms and conditions",
			Buttons: []output.TemplateButton{
				{Number: 1, Name: "btn_accepted_terms", Text: "I agree", CallbackData: "accepted_terms"},
				{Number: 2, Name: "btn_show_terms_for_acceptance", Text: "See terms", CallbackData: "show_terms_for_acceptance"},
			},
		},
		{
			Name:         tplPhoneVerificationNeed,
			Text:         "verify {phone_number}",
			Placeholders: []string{"phone_number"},
		},
		{
			Name:         tplChatVerificationNeed,
			Text:         "prove chat ownership of {phone_number}",
			Placeholders: []string{"phone_number"},
		},
		{
			Name:         tplLoginToAccount,
			Text:         "account with {phone_number} exists",
			Placeholders: []string{"phone_number"},
			Buttons: []output.TemplateButton{
				{Number: 1, Name: "btn_login_to_account", Text: "Login", CallbackData: "login_to_account:{phone_number}"},
			},
		},
		{
			Name:         tplAlreadyLoggedIn,
			Text:         "already logged in as {phone_number}",
			Placeholders: []string{"phone_number"},
		},
		{
			Name:         tplMenu,
			Text:         "menu\n{products_block}",
			Placeholders: []string{"products_block"},
			Buttons: []output.TemplateButton{
				{Number: 100, Name: "btn_show_prices", Text: "Prices", CallbackData: "show_prices"},
			},
		},
		{
			Name:         tplGetPrices,
			Text:         "prices:\n{prices_block}",
			Placeholders: []string{"prices_block"},
		},
		{
			Name:         tplBuyProduct,
			Text:         "buying {product_name}\n{prices_block}",
			Placeholders: []string{"product_name", "prices_block"},
		},
		{
			Name:         tplBuyProductVersion,
			Text:         "chosen {product_name} {product_version_name} for {price}",
			Placeholders: []string{"product_name", "product_version_name", "price", "order_id"},
			Buttons: []output.TemplateButton{
				{Number: 1, Name: "btn_payment_gateway", Text: "Pay", CallbackData: "payment_gateway:{order_id}"},
				{Number: 2, Name: "btn_cancel_order", Text: "Cancel", CallbackData: "cancel_order:{order_id}"},
			},
		},
		{
			Name:         tplPaymentGateway,
			Text:         "pay {amount} for {product_name}, invoice {order_id}",
			Placeholders: []string{"product_name", "amount", "order_id"},
			Buttons: []output.TemplateButton{
				{Number: 1, Name: "btn_pay_invoice", Text: "Pay Invoice", CallbackData: "noop"},
				{Number: 2, Name: "btn_i_paid", Text: "I Paid", CallbackData: "confirm_payment:{order_id}"},
			},
		},
		{
			Name:         tplPaymentConfirmed,
			Text:         "payment confirmed for {order_id}",
			Placeholders: []string{"order_id"},
		},
		{
			Name:         tplPaymentNotConfirmed,
			Text:         "payment not found for {order_id}",
			Placeholders: []string{"order_id"},
		},
		{
			Name:         tplOrderCanceled,
			Text:         "order {order_id} canceled",
			Placeholders: []string{"order_id"},
		},
	} {
		tpls[t.Name] = t
	}
	return tpls
}

func newTestEngine(t *testing.T) (*Engine, *memTx) {
	t.Helper()
	tx := newMemTx()
	render := output.NewRenderer(testTemplates(), 1)
	e := New(memStore{tx: tx}, render, StaticOTP{Code: "1111"}, "https://pay.test/invoice")
	return e, tx
}

// seedShop adds one displayable product with a fixed-price version.
func seedShop(tx *memTx) (productID, versionID int64) {
	productID, versionID = 1, 7
	tx.products[productID] = store.Product{ID: productID, Name: "Stars", Displayable: true}
	tx.versions[versionID] = store.ProductVersion{
		ID:        versionID,
		ProductID: productID,
		Name:      "100 pack",
		Strategy:  pricing.Fixed,
		FixedPrice: decimal.NewNullDecimal(
			decimal.RequireFromString("100000")),
	}
	return productID, versionID
}

// verifiedChat walks a chat through terms, phone and code verification.
func verifiedChat(t *testing.T, e *Engine, tx *memTx, chatID int64) *store.ChatSession {
	t.Helper()
	ctx := context.Background()

	mustHandle(t, e, textUpdate(chatID, "/start"))
	mustHandle(t, e, callbackUpdate(chatID, 1, "accepted_terms"))
	mustHandle(t, e, callbackUpdate(chatID, 2, "buy_product_version:7"))
	mustHandle(t, e, textUpdate(chatID, "09123456789"))
	mustHandle(t, e, textUpdate(chatID, "1111"))

	chat, err := tx.ChatByChatID(ctx, chatID)
	if err != nil || chat == nil {
		t.Fatalf("chat lookup after verification: chat=%v err=%v", chat, err)
	}
	if !chat.ChatVerified {
		t.Fatal("chat not verified after full flow")
	}
	return chat
}

func textUpdate(chatID int64, text string) Update {
	return Update{
		ID: 1,
		Message: &Message{
			ID:     1,
			Chat:   ChatRef{ID: chatID, Private: true},
			Sender: UserRef{ID: chatID},
			Text:   text,
		},
	}
}

func callbackUpdate(chatID int64, messageID int, data string) Update {
	return Update{
		ID: 1,
		Callback: &Callback{
			ID:        "q1",
			MessageID: messageID,
			Chat:      ChatRef{ID: chatID, Private: true},
			Sender:    UserRef{ID: chatID},
			Data:      data,
		},
	}
}

func mustHandle(t *testing.T, e *Engine, u Update) output.Envelope {
	t.Helper()
	env, err := e.Handle(context.Background(), u)
	if err != nil {
		t.Fatalf("Handle(%+v): %v", u, err)
	}
	return env
}

func asAppend(t *testing.T, env output.Envelope) output.Append {
	t.Helper()
	msg, ok := env.(output.Append)
	if !ok {
		t.Fatalf("expected Append envelope, got %T", env)
	}
	return msg
}
