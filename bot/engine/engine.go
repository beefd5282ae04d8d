package engine

import (
	"context"
	"errors"
	"log/slog"

	"github.com/telestar/shopbot/bot/output"
	"github.com/telestar/shopbot/core/logger"
	"github.com/telestar/shopbot/store"
)

// Template names the engine renders. Seeded at startup.
const (
	tplUnsupportedCommand    = "unsupported_command"
	tplPhoneNumberInput      = "phone_number_input"
	tplPhoneVerificationNeed = "phone_number_verification_needed"
	tplAuthenticationFailed  = "authentication_failed"
	tplMaxAttemptReached     = "max_attempt_reached"
	tplInvalidPhoneNumber    = "invalid_phone_number"
	tplInvalidOTP            = "invalid_otp"
	tplChatVerificationNeed  = "chat_verification_needed"
	tplLoginToAccount        = "login_to_account"
	tplAlreadyLoggedIn       = "already_logged_in"
	tplPhoneVerification     = "phone_number_verification"
	tplPhoneVerified         = "phone_number_verified"
	tplLoadingPrices         = "loading_prices_message"
	tplGetPrices             = "get_prices"
	tplMenu                  = "return_to_menu"
	tplBuyProduct            = "buy_product"
	tplBuyProductVersion     = "buy_product_version"
	tplPaymentGateway        = "payment_gateway"
	tplPaymentConfirmed      = "payment_confirmed"
	tplPaymentNotConfirmed   = "payment_not_confirmed"
	tplTermsAndConditions    = "terms_and_conditions"
	tplShowTermsConditions   = "show_terms_conditions"
	tplSupport               = "support"
	tplContactSupportInfo    = "contact_support_info"
	tplCommonQuestions       = "common_questions"
	tplOrderCanceled         = "order_canceled"
)

// maxInputAttempts is the threshold for phone and code submissions.
// Reaching it resets the counter and cancels the pending action.
const maxInputAttempts = 2

// Engine dispatches inbound updates through the authentication gates to
// command handlers and renders their responses.
type Engine struct {
	store  Store
	render *output.Renderer
	otp    OTPVerifier
	payURL string
}

// New wires the engine to its collaborators. payURL is the base URL of
// the payment gateway; the invoice link appends the order id.
func New(st Store, render *output.Renderer, otp OTPVerifier, payURL string) *Engine {
	return &Engine{store: st, render: render, otp: otp, payURL: payURL}
}

// Handle processes one update inside a single transaction and returns
// the envelope to forward to the transport. Unsupported input renders
// the generic unsupported-command response; ErrNotPrivateChat callers
// log and drop.
func (e *Engine) Handle(ctx context.Context, u Update) (output.Envelope, error) {
	chatID, err := checkOrigin(u)
	if err != nil {
		return nil, err
	}
	ctx = logger.WithUpdateMeta(ctx, u.ID, senderID(u), chatID)

	var env output.Envelope
	err = e.store.WithinTx(ctx, func(tx Tx) error {
		var txErr error
		switch {
		case u.Message != nil:
			env, txErr = e.handleText(ctx, tx, u.Message)
		default:
			env, txErr = e.handleCallback(ctx, tx, u.Callback)
		}
		return txErr
	})
	if err != nil {
		if errors.Is(err, ErrUnsupportedText) || errors.Is(err, ErrUnknownCallback) {
			logger.Warn(ctx, "BOT", "dispatch.unsupported",
				slog.String("error", err.Error()))
			return e.render.Render(ctx, tplUnsupportedCommand, chatID, nil, output.Options{})
		}
		return nil, err
	}
	return env, nil
}

// checkOrigin enforces the private-chat contract: one-to-one chats only
// and a chat id equal to the sender id.
func checkOrigin(u Update) (int64, error) {
	var chat ChatRef
	var sender UserRef
	switch {
	case u.Message != nil:
		chat, sender = u.Message.Chat, u.Message.Sender
	case u.Callback != nil:
		chat, sender = u.Callback.Chat, u.Callback.Sender
	default:
		return 0, ErrEmptyUpdate
	}
	if !chat.Private || chat.ID != sender.ID {
		return chat.ID, ErrNotPrivateChat
	}
	return chat.ID, nil
}

func senderID(u Update) int64 {
	if u.Message != nil {
		return u.Message.Sender.ID
	}
	if u.Callback != nil {
		return u.Callback.Sender.ID
	}
	return 0
}

func (e *Engine) handleText(ctx context.Context, tx Tx, m *Message) (output.Envelope, error) {
	ctx = logger.WithHandler(ctx, "text")

	chat, interrupt, err := e.firstLevel(ctx, tx, m.Chat.ID)
	if err != nil {
		return nil, err
	}
	if interrupt != nil {
		return interrupt, nil
	}

	if m.Text == "/start" {
		return e.menu(ctx, tx, m.Chat.ID, output.Options{})
	}

	switch chat.PendingAction {
	case store.PendingPhone:
		return e.phoneInput(ctx, tx, chat, m.Text)
	case store.PendingOTP:
		return e.otpInput(ctx, tx, chat, m.Text)
	}
	return nil, ErrUnsupportedText
}

// menu renders the main menu: the displayable product list as text plus
// one dynamic button row per product, then the static navigation rows.
func (e *Engine) menu(ctx context.Context, tx Tx, chatID int64, opts output.Options) (output.Envelope, error) {
	products, err := tx.DisplayableProducts(ctx)
	if err != nil {
		return nil, err
	}
	opts.DynamicRows = productRows(products)
	return e.render.Render(ctx, tplMenu, chatID,
		map[string]string{"products_block": productsBlock(products)}, opts)
}
