package workers

import (
	"context"
	"log/slog"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dskvich/openrouter-telegram-bot/pkg/domain"
	"github.com/dskvich/openrouter-telegram-bot/pkg/logger"
	"github.com/dskvich/openrouter-telegram-bot/pkg/telegram"
)

type Router interface {
	Handle(ctx context.Context, ev domain.Event)
}

type UpdateSource interface {
	GetUpdates() tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type telegramUpdateListener struct {
	source  UpdateSource
	catalog telegram.Catalog
	router  Router
	wg      sync.WaitGroup
}

func NewTelegramUpdateListener(source UpdateSource, catalog telegram.Catalog, router Router) *telegramUpdateListener {
	return &telegramUpdateListener{
		source:  source,
		catalog: catalog,
		router:  router,
	}
}

func (t *telegramUpdateListener) Name() string { return "telegram_listener_worker" }

// Start handles every update in its own goroutine. On shutdown it stops
// polling and waits for the handlers still running.
func (t *telegramUpdateListener) Start(ctx context.Context) error {
	slog.Info("Starting worker", "name", t.Name())
	defer slog.Info("Worker stopped", "name", t.Name())

	updates := t.source.GetUpdates()

	for {
		select {
		case <-ctx.Done():
			t.source.StopReceivingUpdates()
			t.wg.Wait()
			return nil
		case update, ok := <-updates:
			if !ok {
				t.wg.Wait()
				return nil
			}
			t.wg.Add(1)
			go func(update tgbotapi.Update) {
				defer t.wg.Done()
				t.processUpdate(ctx, &update)
			}(update)
		}
	}
}

func (t *telegramUpdateListener) processUpdate(ctx context.Context, update *tgbotapi.Update) {
	// Shutdown waits for running handlers instead of cancelling them, so an
	// exchange in flight still completes and is saved.
	ctx = logger.ContextWithRequestID(context.WithoutCancel(ctx), update.UpdateID)

	ev, ok := telegram.DecodeUpdate(update, t.catalog)
	if !ok {
		slog.DebugContext(ctx, "Skipping update")
		return
	}

	slog.InfoContext(ctx, "Processing update", "chatID", ev.ChatID, "userID", ev.UserID, "action", actionName(ev.Action))

	t.router.Handle(ctx, ev)
}

func actionName(a domain.Action) string {
	switch a.(type) {
	case domain.SelectModel:
		return "select_model"
	case domain.ClearHistory:
		return "clear_history"
	case domain.ShowMenu:
		return "show_menu"
	case domain.ShowHelp:
		return "show_help"
	case domain.Chat:
		return "chat"
	default:
		return "unrecognized"
	}
}
