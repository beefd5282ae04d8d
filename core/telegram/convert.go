package telegram

import (
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/telestar/shopbot/bot/engine"
	"github.com/telestar/shopbot/bot/output"
)

// MessageUpdate converts an inbound Telebot message into an engine update.
func MessageUpdate(c tele.Context) engine.Update {
	msg := c.Message()
	u := engine.Update{ID: c.Update().ID}
	if msg == nil {
		return u
	}
	u.Message = &engine.Message{
		ID:     msg.ID,
		Chat:   chatRef(msg.Chat),
		Sender: userRef(msg.Sender),
		Text:   msg.Text,
	}
	return u
}

// CallbackUpdate converts an inbound callback query into an engine update.
func CallbackUpdate(c tele.Context) engine.Update {
	cb := c.Callback()
	u := engine.Update{ID: c.Update().ID}
	if cb == nil {
		return u
	}
	ecb := &engine.Callback{
		ID:     cb.ID,
		Sender: userRef(cb.Sender),
		Data:   callbackData(cb),
	}
	if cb.Message != nil {
		ecb.MessageID = cb.Message.ID
		ecb.Chat = chatRef(cb.Message.Chat)
	}
	u.Callback = ecb
	return u
}

// callbackData strips Telebot's \f<unique>|<payload> framing when present.
func callbackData(cb *tele.Callback) string {
	raw := strings.TrimPrefix(cb.Data, "\f")
	if cb.Unique != "" {
		return cb.Unique + ":" + raw
	}
	return raw
}

func chatRef(chat *tele.Chat) engine.ChatRef {
	if chat == nil {
		return engine.ChatRef{}
	}
	return engine.ChatRef{ID: chat.ID, Private: chat.Type == tele.ChatPrivate}
}

func userRef(user *tele.User) engine.UserRef {
	if user == nil {
		return engine.UserRef{}
	}
	return engine.UserRef{ID: user.ID}
}

// Markup converts a rendered keyboard into Telebot inline markup.
// An empty keyboard yields nil so messages go out without a reply markup.
func Markup(kb output.Keyboard) *tele.ReplyMarkup {
	if len(kb) == 0 {
		return nil
	}
	inline := make([][]tele.InlineButton, 0, len(kb))
	for _, row := range kb {
		if len(row) == 0 {
			continue
		}
		r := make([]tele.InlineButton, len(row))
		for i, btn := range row {
			if btn.URL != "" {
				r[i] = tele.InlineButton{Text: btn.Text, URL: btn.URL}
				continue
			}
			r[i] = tele.InlineButton{Text: btn.Text, Data: btn.CallbackData}
		}
		inline = append(inline, r)
	}
	if len(inline) == 0 {
		return nil
	}
	return &tele.ReplyMarkup{InlineKeyboard: inline}
}
