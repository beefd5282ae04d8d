package telegram

import (
	"context"
	"errors"
	"fmt"
	"time"

	tele "gopkg.in/telebot.v4"
	"log/slog"

	"github.com/telestar/shopbot/bot/engine"
	"github.com/telestar/shopbot/bot/output"
	coreconfig "github.com/telestar/shopbot/core/config"
	"github.com/telestar/shopbot/core/logger"
	"github.com/telestar/shopbot/core/telegram/middleware"
	tgsender "github.com/telestar/shopbot/core/telegram/sender"
)

// RunOptions controls the behaviour of Run.
type RunOptions struct {
	Config *coreconfig.Config
	Engine *engine.Engine

	DispatcherOptions tgsender.Options
}

// Run wires the bot engine to a webhook-mode Telegram bot and serves
// updates until the provided context is done.
func Run(ctx context.Context, opts RunOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Config == nil {
		return fmt.Errorf("telegram: nil config provided")
	}
	if opts.Engine == nil {
		return fmt.Errorf("telegram: nil engine provided")
	}

	cfg := opts.Config
	poller := &tele.Webhook{
		Listen:      fmt.Sprintf("%s:%d", cfg.Webhook.Listen, cfg.Webhook.Port),
		SecretToken: cfg.Telegram.SecretToken,
		Endpoint:    &tele.WebhookEndpoint{PublicURL: cfg.Webhook.URL},
	}

	settings := tele.Settings{
		Token:  cfg.Telegram.Token,
		Poller: poller,
		Client: BuildHTTPClient(),
	}

	buildStart := time.Now()
	bot, err := tele.NewBot(settings)
	if err != nil {
		return fmt.Errorf("telegram: bot initialization failed: %w", err)
	}

	dispatcher := tgsender.NewDispatcher(opts.DispatcherOptions)
	transport := NewTransport(bot, dispatcher)
	transport.SetPriceLister(opts.Engine)

	logger.TG.LogAttrs(ctx, slog.LevelInfo, "webhook mode",
		slog.String("event", "mode"),
		slog.String("listen", poller.Listen),
		slog.String("public_url", poller.Endpoint.PublicURL),
		slog.Duration("duration", logger.RoundMS(time.Since(buildStart))),
	)

	bot.Use(middleware.Recover)
	bot.Use(middleware.Logging)

	bot.Handle(tele.OnText, updateHandler(opts.Engine, transport, MessageUpdate))
	bot.Handle(tele.OnEdited, updateHandler(opts.Engine, transport, MessageUpdate))
	bot.Handle(tele.OnCallback, updateHandler(opts.Engine, transport, CallbackUpdate))

	runDone := make(chan struct{})
	go func() {
		bot.Start()
		close(runDone)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		bot.Stop()
		<-runDone
		runErr = ctx.Err()
	case <-runDone:
	}

	dispatcher.Close()

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

// updateHandler adapts one inbound update through the engine and out
// through the transport. Engine failures are logged and the delivery is
// dropped; Telegram retries webhook deliveries on non-200 only, so we
// always acknowledge.
func updateHandler(eng *engine.Engine, transport *Transport, convert func(tele.Context) engine.Update) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := middleware.RequestContext(c)
		start := time.Now()

		u := convert(c)
		env, err := eng.Handle(ctx, u)
		defer func() {
			logger.Info(ctx, "TG", "update.handled",
				slog.String("status", logger.Status(err)),
				slog.Duration("took", logger.Took(start)),
			)
		}()
		if err != nil {
			switch {
			case errors.Is(err, engine.ErrNotPrivateChat), errors.Is(err, engine.ErrEmptyUpdate):
				logger.Warn(ctx, "TG", "update.dropped", slog.String("reason", err.Error()))
			default:
				logger.Error(ctx, "TG", "update.failed", slog.String("err", err.Error()))
				if fbErr := transport.Send(ctx, fallbackEnvelope(u)); fbErr != nil {
					logger.Error(ctx, "TG", "send.enqueue_failed", slog.String("err", fbErr.Error()))
				}
			}
			return nil
		}
		if env == nil {
			return nil
		}

		if err := transport.Send(ctx, env); err != nil {
			logger.Error(ctx, "TG", "send.enqueue_failed", slog.String("err", err.Error()))
		}
		return nil
	}
}

// fallbackEnvelope is the generic failure reply. It is a constant text
// because a failed update usually means the template store itself is
// unreachable.
func fallbackEnvelope(u engine.Update) output.Envelope {
	var chatID int64
	switch {
	case u.Message != nil:
		chatID = u.Message.Chat.ID
	case u.Callback != nil:
		chatID = u.Callback.Chat.ID
	}
	return output.Append{ChatID: chatID, Text: "⚠️ Something went wrong. Please try again."}
}
