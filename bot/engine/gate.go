package engine

import (
	"context"
	"log/slog"

	"github.com/telestar/shopbot/bot/output"
	"github.com/telestar/shopbot/core/logger"
	"github.com/telestar/shopbot/store"
)

// firstLevel is the existence and terms-acceptance gate. A nil envelope
// means pass; otherwise the caller forwards the interrupt. First
// contact creates the identity and the session.
func (e *Engine) firstLevel(ctx context.Context, tx Tx, chatID int64) (*store.ChatSession, output.Envelope, error) {
	chat, err := tx.ChatByChatID(ctx, chatID)
	if err != nil {
		return nil, nil, err
	}
	if chat == nil {
		identity, err := tx.CreateIdentity(ctx)
		if err != nil {
			return nil, nil, err
		}
		chat, err = tx.CreateChat(ctx, chatID, identity.ID)
		if err != nil {
			return nil, nil, err
		}
		logger.Info(ctx, "BOT", "chat.created",
			slog.Int64("user_id", identity.ID))
		env, err := e.render.Render(ctx, tplTermsAndConditions, chatID, nil, output.Options{})
		return chat, env, err
	}
	if !chat.AcceptedTerms {
		env, err := e.render.Render(ctx, tplTermsAndConditions, chatID, nil, output.Options{})
		return chat, env, err
	}
	return chat, nil, nil
}

// secondLevel is the phone and code verification gate, checked lazily
// before sensitive actions. A nil envelope means pass.
func (e *Engine) secondLevel(ctx context.Context, tx Tx, chat *store.ChatSession) (output.Envelope, error) {
	if chat.ChatVerified {
		return nil, nil
	}
	identity, err := tx.IdentityByID(ctx, chat.UserID)
	if err != nil {
		return nil, err
	}
	if identity == nil || !identity.PhoneNumber.Valid {
		if err := tx.SetPendingAction(ctx, chat.ID, store.PendingPhone); err != nil {
			return nil, err
		}
		chat.PendingAction = store.PendingPhone
		return e.render.Render(ctx, tplPhoneNumberInput, chat.ChatID, nil, output.Options{})
	}
	phone := map[string]string{"phone_number": identity.PhoneNumber.String}
	if !identity.PhoneNumberValidated {
		return e.render.Render(ctx, tplPhoneVerificationNeed, chat.ChatID, phone, output.Options{})
	}
	// Phone validated on another chat; this chat still has to prove it.
	return e.render.Render(ctx, tplChatVerificationNeed, chat.ChatID, phone, output.Options{})
}
