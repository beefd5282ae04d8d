package engine

import (
	"context"

	"github.com/telestar/shopbot/store"
)

// isLatest reports whether messageID is the chat's most recent
// interactive message, advancing the stored watermark when it is newer.
// Equal ids report true without mutation so retries stay idempotent; a
// lower id is a stale callback from a superseded message and callers
// append instead of editing it.
func (e *Engine) isLatest(ctx context.Context, tx Tx, chat *store.ChatSession, messageID int) (bool, error) {
	if !chat.LastMessageID.Valid {
		if err := tx.SetLastMessageID(ctx, chat.ID, messageID); err != nil {
			return false, err
		}
		chat.LastMessageID.Valid = true
		chat.LastMessageID.Int64 = int64(messageID)
		return true, nil
	}

	last := int(chat.LastMessageID.Int64)
	switch {
	case messageID > last:
		if err := tx.SetLastMessageID(ctx, chat.ID, messageID); err != nil {
			return false, err
		}
		chat.LastMessageID.Int64 = int64(messageID)
		return true, nil
	case messageID == last:
		return true, nil
	default:
		return false, nil
	}
}
