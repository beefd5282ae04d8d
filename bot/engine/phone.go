package engine

import (
	"context"
	"log/slog"
	"regexp"

	"github.com/telestar/shopbot/bot/output"
	"github.com/telestar/shopbot/core/logger"
	"github.com/telestar/shopbot/store"
)

// National mobile format: 09 followed by nine digits.
var phonePattern = regexp.MustCompile(`^09\d{9}$`)

// phoneInput handles free text while the chat waits for a phone number.
func (e *Engine) phoneInput(ctx context.Context, tx Tx, chat *store.ChatSession, text string) (output.Envelope, error) {
	ctx = logger.WithHandler(ctx, "phone_input")

	if !phonePattern.MatchString(text) {
		if chat.PhoneAttempts >= maxInputAttempts {
			if err := tx.SetPhoneAttempts(ctx, chat.ID, 0); err != nil {
				return nil, err
			}
			if err := tx.SetPendingAction(ctx, chat.ID, store.PendingNone); err != nil {
				return nil, err
			}
			logger.Warn(ctx, "BOT", "phone.max_attempts")
			return e.render.Render(ctx, tplMaxAttemptReached, chat.ChatID, nil, output.Options{})
		}
		if err := tx.SetPhoneAttempts(ctx, chat.ID, chat.PhoneAttempts+1); err != nil {
			return nil, err
		}
		return e.render.Render(ctx, tplInvalidPhoneNumber, chat.ChatID, nil, output.Options{})
	}

	if err := tx.SetPhoneAttempts(ctx, chat.ID, 0); err != nil {
		return nil, err
	}
	if err := tx.SetPendingAction(ctx, chat.ID, store.PendingNone); err != nil {
		return nil, err
	}
	chat.PendingAction = store.PendingNone

	owner, err := tx.IdentityByPhone(ctx, text)
	if err != nil {
		return nil, err
	}
	if owner != nil && owner.ID != chat.UserID {
		// The number belongs to someone else. Offer an explicit login
		// instead of silently reassigning the chat.
		return e.render.Render(ctx, tplLoginToAccount, chat.ChatID,
			map[string]string{"phone_number": text}, output.Options{})
	}

	if err := tx.SetIdentityPhone(ctx, chat.UserID, text); err != nil {
		return nil, err
	}
	logger.Info(ctx, "BOT", "phone.attached")
	return e.startOTP(ctx, tx, chat, text)
}

// startOTP sends a verification code and moves the chat to waiting for
// it.
func (e *Engine) startOTP(ctx context.Context, tx Tx, chat *store.ChatSession, phone string) (output.Envelope, error) {
	if err := e.otp.Send(ctx, phone); err != nil {
		return nil, err
	}
	if err := tx.SetPendingAction(ctx, chat.ID, store.PendingOTP); err != nil {
		return nil, err
	}
	chat.PendingAction = store.PendingOTP
	logger.Info(ctx, "BOT", "otp.sent")
	return e.render.Render(ctx, tplPhoneVerification, chat.ChatID, nil, output.Options{})
}

// otpInput handles free text while the chat waits for the code.
func (e *Engine) otpInput(ctx context.Context, tx Tx, chat *store.ChatSession, text string) (output.Envelope, error) {
	ctx = logger.WithHandler(ctx, "otp_input")

	identity, err := tx.IdentityByID(ctx, chat.UserID)
	if err != nil {
		return nil, err
	}
	if identity == nil || !identity.PhoneNumber.Valid {
		// Pending OTP without a phone number should not happen; recover
		// by restarting the phone flow.
		if err := tx.SetPendingAction(ctx, chat.ID, store.PendingPhone); err != nil {
			return nil, err
		}
		return e.render.Render(ctx, tplPhoneNumberInput, chat.ChatID, nil, output.Options{})
	}

	ok, err := e.otp.Verify(ctx, identity.PhoneNumber.String, text)
	if err != nil {
		return nil, err
	}
	if !ok {
		if chat.OTPAttempts >= maxInputAttempts {
			if err := tx.SetOTPAttempts(ctx, chat.ID, 0); err != nil {
				return nil, err
			}
			if err := tx.SetPendingAction(ctx, chat.ID, store.PendingNone); err != nil {
				return nil, err
			}
			logger.Warn(ctx, "BOT", "otp.max_attempts")
			return e.render.Render(ctx, tplMaxAttemptReached, chat.ChatID, nil, output.Options{})
		}
		if err := tx.SetOTPAttempts(ctx, chat.ID, chat.OTPAttempts+1); err != nil {
			return nil, err
		}
		return e.render.Render(ctx, tplInvalidOTP, chat.ChatID, nil, output.Options{})
	}

	if err := tx.SetOTPAttempts(ctx, chat.ID, 0); err != nil {
		return nil, err
	}
	if err := tx.SetPendingAction(ctx, chat.ID, store.PendingNone); err != nil {
		return nil, err
	}
	if err := tx.SetChatVerified(ctx, chat.ID); err != nil {
		return nil, err
	}
	if err := tx.SetPhoneValidated(ctx, identity.ID); err != nil {
		return nil, err
	}
	logger.Info(ctx, "BOT", "chat.verified",
		slog.Int64("identity_id", identity.ID))
	return e.render.Render(ctx, tplPhoneVerified, chat.ChatID, nil, output.Options{})
}
