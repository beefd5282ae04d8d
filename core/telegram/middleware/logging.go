package middleware

import (
	"context"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/telestar/shopbot/core/logger"
)

// ContextKey is the tele.Context storage key for the request context
// built by Logging. Downstream handlers retrieve it via RequestContext.
const ContextKey = "request_context"

// Logging builds the per-update request context (rid plus update
// metadata), stores it on the tele.Context and logs one receipt line.
func Logging(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		upd := c.Update()

		chatID, userID := int64(0), int64(0)
		if chat := c.Chat(); chat != nil {
			chatID = chat.ID
		}
		if user := c.Sender(); user != nil {
			userID = user.ID
		}

		rid := logger.BuildRID(upd.ID, chatID, userID)
		ctx := logger.WithRID(logger.Background(), rid)
		ctx = logger.WithUpdateMeta(ctx, upd.ID, userID, chatID)
		c.Set(ContextKey, ctx)

		attrs := []slog.Attr{slog.String("status", "ok")}
		switch {
		case upd.Callback != nil:
			attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(upd.Callback.Data, 256)))
		case upd.Message != nil:
			attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(c.Text(), 256)))
		}
		logger.Debug(ctx, "TG", "update.received", attrs...)

		return next(c)
	}
}

// RequestContext returns the context stored by Logging, or a fresh one
// when the middleware did not run.
func RequestContext(c tele.Context) context.Context {
	if ctx, ok := c.Get(ContextKey).(context.Context); ok && ctx != nil {
		return ctx
	}
	return logger.Background()
}
