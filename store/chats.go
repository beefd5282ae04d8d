package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ChatByChatID returns the session for a remote chat id, or nil when
// the chat has never been seen.
func (t *Tx) ChatByChatID(ctx context.Context, chatID int64) (*ChatSession, error) {
	var chat ChatSession
	err := t.tx.GetContext(ctx, &chat, `
		SELECT id, chat_id, user_id, accepted_terms, chat_verified,
		       pending_action, phone_attempts, otp_attempts,
		       last_message_id, created_at, updated_at
		FROM chat_sessions
		WHERE chat_id = $1`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("chat by chat_id %d: %w", chatID, err)
	}
	return &chat, nil
}

// CreateChat records a new session owned by userID.
func (t *Tx) CreateChat(ctx context.Context, chatID, userID int64) (*ChatSession, error) {
	var chat ChatSession
	err := t.tx.GetContext(ctx, &chat, `
		INSERT INTO chat_sessions (chat_id, user_id)
		VALUES ($1, $2)
		RETURNING id, chat_id, user_id, accepted_terms, chat_verified,
		          pending_action, phone_attempts, otp_attempts,
		          last_message_id, created_at, updated_at`, chatID, userID)
	if err != nil {
		return nil, fmt.Errorf("create chat %d: %w", chatID, err)
	}
	return &chat, nil
}

// SetAcceptedTerms marks the terms as accepted. The flag only ever
// moves false to true.
func (t *Tx) SetAcceptedTerms(ctx context.Context, id int64) error {
	return t.updateChat(ctx, id, `accepted_terms = TRUE`)
}

// SetPendingAction replaces the chat's single outstanding expected input.
func (t *Tx) SetPendingAction(ctx context.Context, id int64, action PendingAction) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE chat_sessions SET pending_action = $2, updated_at = NOW()
		WHERE id = $1`, id, action)
	if err != nil {
		return fmt.Errorf("set pending_action chat %d: %w", id, err)
	}
	return nil
}

// SetPhoneAttempts stores the phone attempt counter.
func (t *Tx) SetPhoneAttempts(ctx context.Context, id int64, n int) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE chat_sessions SET phone_attempts = $2, updated_at = NOW()
		WHERE id = $1`, id, n)
	if err != nil {
		return fmt.Errorf("set phone_attempts chat %d: %w", id, err)
	}
	return nil
}

// SetOTPAttempts stores the verification-code attempt counter.
func (t *Tx) SetOTPAttempts(ctx context.Context, id int64, n int) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE chat_sessions SET otp_attempts = $2, updated_at = NOW()
		WHERE id = $1`, id, n)
	if err != nil {
		return fmt.Errorf("set otp_attempts chat %d: %w", id, err)
	}
	return nil
}

// SetChatVerified marks the chat as having passed phone verification.
func (t *Tx) SetChatVerified(ctx context.Context, id int64) error {
	return t.updateChat(ctx, id, `chat_verified = TRUE`)
}

// ReassignChatUser moves the chat to another identity. Verification
// state is reset, the new owner must verify this chat.
func (t *Tx) ReassignChatUser(ctx context.Context, id, userID int64) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE chat_sessions
		SET user_id = $2, chat_verified = FALSE, updated_at = NOW()
		WHERE id = $1`, id, userID)
	if err != nil {
		return fmt.Errorf("reassign chat %d to user %d: %w", id, userID, err)
	}
	return nil
}

// SetLastMessageID records a newer interactive message id. Callers
// guarantee monotonic advancement.
func (t *Tx) SetLastMessageID(ctx context.Context, id int64, messageID int) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE chat_sessions SET last_message_id = $2, updated_at = NOW()
		WHERE id = $1`, id, messageID)
	if err != nil {
		return fmt.Errorf("set last_message_id chat %d: %w", id, err)
	}
	return nil
}

func (t *Tx) updateChat(ctx context.Context, id int64, set string) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE chat_sessions SET `+set+`, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("update chat %d: %w", id, err)
	}
	return nil
}
