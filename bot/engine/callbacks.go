package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/telestar/shopbot/bot/output"
	"github.com/telestar/shopbot/core/logger"
	"github.com/telestar/shopbot/store"
)

// splitCallback separates a callback command from its colon payload.
func splitCallback(data string) (cmd, payload string) {
	if i := strings.IndexByte(data, ':'); i >= 0 {
		return data[:i], data[i+1:]
	}
	return data, ""
}

// termsFlowCommand lists the callbacks that must work before the terms
// are accepted; everything else stays behind the first-level gate.
func termsFlowCommand(cmd string) bool {
	switch cmd {
	case "accepted_terms", "read_the_terms", "show_terms_for_acceptance":
		return true
	}
	return false
}

func editIfFresh(fresh bool, messageID int) output.Options {
	if fresh {
		return output.Options{Mode: output.ModeEdit, MessageID: messageID}
	}
	return output.Options{}
}

func (e *Engine) handleCallback(ctx context.Context, tx Tx, cb *Callback) (output.Envelope, error) {
	cmd, payload := splitCallback(cb.Data)
	ctx = logger.WithHandler(ctx, "callback:"+cmd)

	chat, interrupt, err := e.firstLevel(ctx, tx, cb.Chat.ID)
	if err != nil {
		return nil, err
	}
	if interrupt != nil && !termsFlowCommand(cmd) {
		return interrupt, nil
	}

	fresh, err := e.isLatest(ctx, tx, chat, cb.MessageID)
	if err != nil {
		return nil, err
	}

	// A chat waiting for typed input ignores button presses; only the
	// acknowledgment goes out so the client stops its spinner.
	if chat.PendingAction != store.PendingNone {
		return output.AnswerCallback{QueryID: cb.ID}, nil
	}

	edit := output.Options{Mode: output.ModeEdit, MessageID: cb.MessageID}

	switch cmd {
	case "accepted_terms":
		if chat.AcceptedTerms {
			return output.AnswerCallback{QueryID: cb.ID}, nil
		}
		if err := tx.SetAcceptedTerms(ctx, chat.ID); err != nil {
			return nil, err
		}
		logger.Info(ctx, "BOT", "terms.accepted")
		return e.menu(ctx, tx, chat.ChatID, output.Options{})

	case "show_terms_for_acceptance":
		return e.render.Render(ctx, tplShowTermsConditions, chat.ChatID, nil, edit)

	case "read_the_terms":
		return e.render.Render(ctx, tplTermsAndConditions, chat.ChatID, nil, edit)

	case "show_terms":
		return e.render.Render(ctx, tplShowTermsConditions, chat.ChatID, nil, editIfFresh(fresh, cb.MessageID))

	case "return_to_menu":
		return e.menu(ctx, tx, chat.ChatID, editIfFresh(fresh, cb.MessageID))

	case "support", "return_to_support":
		return e.render.Render(ctx, tplSupport, chat.ChatID, nil, editIfFresh(fresh, cb.MessageID))

	case "contact_support":
		return e.render.Render(ctx, tplContactSupportInfo, chat.ChatID, nil, editIfFresh(fresh, cb.MessageID))

	case "common_questions":
		return e.render.Render(ctx, tplCommonQuestions, chat.ChatID, nil, editIfFresh(fresh, cb.MessageID))

	case "show_prices":
		return e.loadingPrices(ctx, chat.ChatID)

	case "edit_phone_number":
		if err := tx.SetPendingAction(ctx, chat.ID, store.PendingPhone); err != nil {
			return nil, err
		}
		return e.render.Render(ctx, tplPhoneNumberInput, chat.ChatID, nil, output.Options{})

	case "send_validation_code":
		return e.sendValidationCode(ctx, tx, chat)

	case "buy_product":
		id, err := parseID(cmd, payload)
		if err != nil {
			return nil, err
		}
		return e.buyProduct(ctx, tx, chat, id)

	case "buy_product_version":
		id, err := parseID(cmd, payload)
		if err != nil {
			return nil, err
		}
		return e.buyProductVersion(ctx, tx, chat, id)

	case "login_to_account":
		return e.login(ctx, tx, chat, payload)

	case "payment_gateway":
		id, err := parseID(cmd, payload)
		if err != nil {
			return nil, err
		}
		return e.paymentGateway(ctx, tx, chat, id)

	case "cancel_order":
		id, err := parseID(cmd, payload)
		if err != nil {
			return nil, err
		}
		return e.cancelOrder(ctx, tx, chat, id)

	case "confirm_payment":
		id, err := parseID(cmd, payload)
		if err != nil {
			return nil, err
		}
		return e.confirmPayment(ctx, tx, chat, id)
	}
	return nil, fmt.Errorf("callback %q: %w", cb.Data, ErrUnknownCallback)
}

func parseID(cmd, payload string) (int64, error) {
	id, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("callback %s payload %q: %w", cmd, payload, ErrUnknownCallback)
	}
	return id, nil
}

func (e *Engine) sendValidationCode(ctx context.Context, tx Tx, chat *store.ChatSession) (output.Envelope, error) {
	identity, err := tx.IdentityByID(ctx, chat.UserID)
	if err != nil {
		return nil, err
	}
	if identity == nil || !identity.PhoneNumber.Valid {
		if err := tx.SetPendingAction(ctx, chat.ID, store.PendingPhone); err != nil {
			return nil, err
		}
		return e.render.Render(ctx, tplPhoneNumberInput, chat.ChatID, nil, output.Options{})
	}
	return e.startOTP(ctx, tx, chat, identity.PhoneNumber.String)
}

func (e *Engine) buyProduct(ctx context.Context, tx Tx, chat *store.ChatSession, productID int64) (output.Envelope, error) {
	product, err := tx.ProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("product %d: %w", productID, ErrUnknownCallback)
	}
	versions, err := tx.VersionsByProduct(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	priced, err := e.priceVersions(ctx, tx, versions)
	if err != nil {
		return nil, err
	}
	return e.render.Render(ctx, tplBuyProduct, chat.ChatID,
		map[string]string{
			"product_name": product.Name,
			"prices_block": versionsBlock(priced),
		},
		output.Options{DynamicRows: versionRows(priced)})
}

// buyProductVersion is the sensitive action: the second-level gate runs
// first, then the order and its items are recorded atomically.
func (e *Engine) buyProductVersion(ctx context.Context, tx Tx, chat *store.ChatSession, versionID int64) (output.Envelope, error) {
	interrupt, err := e.secondLevel(ctx, tx, chat)
	if err != nil {
		return nil, err
	}
	if interrupt != nil {
		return interrupt, nil
	}

	version, err := tx.VersionByID(ctx, versionID)
	if err != nil {
		return nil, err
	}
	if version == nil {
		return nil, fmt.Errorf("product version %d: %w", versionID, ErrUnknownCallback)
	}
	product, err := tx.ProductByID(ctx, version.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("product %d: %w", version.ProductID, ErrUnknownCallback)
	}

	order, err := tx.CreateOrderWithItems(ctx, chat.UserID,
		[]store.OrderLine{{ProductVersionID: version.ID, Quantity: 1}})
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "BOT", "order.created")

	return e.render.Render(ctx, tplBuyProductVersion, chat.ChatID,
		map[string]string{
			"product_name":         product.Name,
			"product_version_name": version.Name,
			"price":                order.Total.String(),
			"order_id":             strconv.FormatInt(order.ID, 10),
		}, output.Options{})
}

func (e *Engine) login(ctx context.Context, tx Tx, chat *store.ChatSession, phone string) (output.Envelope, error) {
	identity, err := tx.IdentityByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		return e.render.Render(ctx, tplAuthenticationFailed, chat.ChatID, nil, output.Options{})
	}

	if identity.ID == chat.UserID {
		if chat.ChatVerified {
			return e.render.Render(ctx, tplAlreadyLoggedIn, chat.ChatID,
				map[string]string{"phone_number": phone}, output.Options{})
		}
		return e.secondLevel(ctx, tx, chat)
	}

	// Moving the chat to the existing account drops this chat's
	// verification; the gate will ask to prove the phone again.
	if err := tx.ReassignChatUser(ctx, chat.ID, identity.ID); err != nil {
		return nil, err
	}
	chat.UserID = identity.ID
	chat.ChatVerified = false
	logger.Info(ctx, "BOT", "chat.login")
	return e.secondLevel(ctx, tx, chat)
}

func (e *Engine) paymentGateway(ctx context.Context, tx Tx, chat *store.ChatSession, orderID int64) (output.Envelope, error) {
	order, product, err := e.orderWithProduct(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	return e.render.Render(ctx, tplPaymentGateway, chat.ChatID,
		map[string]string{
			"product_name": product.Name,
			"amount":       order.Total.String(),
			"order_id":     strconv.FormatInt(order.ID, 10),
		},
		output.Options{URLOverrides: map[string]string{
			"btn_pay_invoice": e.invoiceURL(order.ID),
		}})
}

func (e *Engine) cancelOrder(ctx context.Context, tx Tx, chat *store.ChatSession, orderID int64) (output.Envelope, error) {
	order, err := tx.OrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("order %d: %w", orderID, ErrUnknownCallback)
	}
	if order.Status == store.OrderWaitingForPayment {
		if err := tx.SetOrderStatus(ctx, order.ID, store.OrderExpired); err != nil {
			return nil, err
		}
		logger.Info(ctx, "BOT", "order.canceled")
	}
	return e.render.Render(ctx, tplOrderCanceled, chat.ChatID,
		map[string]string{"order_id": strconv.FormatInt(order.ID, 10)}, output.Options{})
}

// confirmPayment records the paid transition. Verifying the gateway
// side of the payment is outside the bot; an order that is not waiting
// for payment renders the not-confirmed response instead.
func (e *Engine) confirmPayment(ctx context.Context, tx Tx, chat *store.ChatSession, orderID int64) (output.Envelope, error) {
	order, err := tx.OrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	placeholders := map[string]string{"order_id": strconv.FormatInt(orderID, 10)}
	if order == nil || order.Status == store.OrderExpired {
		return e.render.Render(ctx, tplPaymentNotConfirmed, chat.ChatID, placeholders, output.Options{})
	}
	if order.Status == store.OrderWaitingForPayment {
		if err := tx.SetOrderStatus(ctx, order.ID, store.OrderPaid); err != nil {
			return nil, err
		}
		logger.Info(ctx, "BOT", "order.paid")
	}
	return e.render.Render(ctx, tplPaymentConfirmed, chat.ChatID, placeholders, output.Options{})
}

func (e *Engine) orderWithProduct(ctx context.Context, tx Tx, orderID int64) (*store.Order, *store.Product, error) {
	order, err := tx.OrderByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if order == nil {
		return nil, nil, fmt.Errorf("order %d: %w", orderID, ErrUnknownCallback)
	}
	items, err := tx.OrderItems(ctx, order.ID)
	if err != nil {
		return nil, nil, err
	}
	if len(items) == 0 {
		return nil, nil, fmt.Errorf("order %d has no items: %w", orderID, ErrUnknownCallback)
	}
	version, err := tx.VersionByID(ctx, items[0].ProductVersionID)
	if err != nil {
		return nil, nil, err
	}
	if version == nil {
		return nil, nil, fmt.Errorf("order %d version missing: %w", orderID, ErrUnknownCallback)
	}
	product, err := tx.ProductByID(ctx, version.ProductID)
	if err != nil {
		return nil, nil, err
	}
	if product == nil {
		return nil, nil, fmt.Errorf("order %d product missing: %w", orderID, ErrUnknownCallback)
	}
	return order, product, nil
}

func (e *Engine) invoiceURL(orderID int64) string {
	return fmt.Sprintf("%s/%d", strings.TrimRight(e.payURL, "/"), orderID)
}
