package telegram

import (
	"context"
	"fmt"
	"strconv"

	tele "gopkg.in/telebot.v4"

	"github.com/telestar/shopbot/bot/output"
	tgsender "github.com/telestar/shopbot/core/telegram/sender"
)

// PriceLister computes the full price list flow behind the get_prices
// custom envelope. Satisfied by the bot engine.
type PriceLister interface {
	PriceList(ctx context.Context, chatID int64) (output.Envelope, error)
}

// Transport delivers rendered envelopes through the Telegram Bot API.
// All outbound calls go through the send dispatcher so rate limiting
// and retries stay in one place.
type Transport struct {
	bot        *tele.Bot
	dispatcher *tgsender.Dispatcher
	prices     PriceLister
}

// NewTransport builds a transport over a running bot and dispatcher.
func NewTransport(bot *tele.Bot, dispatcher *tgsender.Dispatcher) *Transport {
	return &Transport{bot: bot, dispatcher: dispatcher}
}

// SetPriceLister wires the get_prices flow. Must be called before the
// first custom envelope arrives.
func (t *Transport) SetPriceLister(p PriceLister) {
	t.prices = p
}

// Send delivers one envelope. Delivery is asynchronous; Send only fails
// when the envelope cannot be queued.
func (t *Transport) Send(ctx context.Context, env output.Envelope) error {
	switch e := env.(type) {
	case output.Append:
		return t.sendAppend(ctx, e)
	case output.Edit:
		return t.sendEdit(ctx, e)
	case output.AnswerCallback:
		return t.dispatcher.Enqueue(ctx, "answer_callback", func() error {
			return t.bot.Respond(&tele.Callback{ID: e.QueryID})
		})
	case output.Custom:
		return t.sendCustom(ctx, e)
	case nil:
		return nil
	default:
		return fmt.Errorf("transport: unsupported envelope %T", env)
	}
}

func (t *Transport) sendAppend(ctx context.Context, e output.Append) error {
	opts := sendOptions(e.Keyboard)
	return t.dispatcher.Enqueue(ctx, "send_message", func() error {
		_, err := t.bot.Send(&tele.Chat{ID: e.ChatID}, e.Text, opts...)
		return err
	})
}

func (t *Transport) sendEdit(ctx context.Context, e output.Edit) error {
	stored := &tele.StoredMessage{
		MessageID: strconv.Itoa(e.MessageID),
		ChatID:    e.ChatID,
	}
	opts := sendOptions(e.Keyboard)
	return t.dispatcher.Enqueue(ctx, "edit_message", func() error {
		_, err := t.bot.Edit(stored, e.Text, opts...)
		return err
	})
}

func (t *Transport) sendCustom(ctx context.Context, e output.Custom) error {
	switch e.Name {
	case "get_prices":
		return t.sendPrices(ctx, e)
	default:
		return fmt.Errorf("transport: unknown custom flow %q", e.Name)
	}
}

// sendPrices runs the loading-then-result sequence for the price list.
// Quote lookups happen on the dispatcher worker to keep the webhook
// handler from blocking on them.
func (t *Transport) sendPrices(ctx context.Context, e output.Custom) error {
	if t.prices == nil {
		return fmt.Errorf("transport: price lister not wired")
	}
	loading := e.Loading
	chatID := e.ChatID
	return t.dispatcher.Enqueue(ctx, "get_prices", func() error {
		if _, err := t.bot.Send(&tele.Chat{ID: loading.ChatID}, loading.Text, sendOptions(loading.Keyboard)...); err != nil {
			return err
		}
		env, err := t.prices.PriceList(ctx, chatID)
		if err != nil {
			return err
		}
		result, ok := env.(output.Append)
		if !ok {
			return fmt.Errorf("transport: unexpected price list envelope %T", env)
		}
		_, err = t.bot.Send(&tele.Chat{ID: result.ChatID}, result.Text, sendOptions(result.Keyboard)...)
		return err
	})
}

func sendOptions(kb output.Keyboard) []interface{} {
	opts := []interface{}{tele.ModeMarkdown}
	if markup := Markup(kb); markup != nil {
		opts = append(opts, markup)
	}
	return opts
}
