package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dskvich/openrouter-telegram-bot/pkg/domain"
	"github.com/dskvich/openrouter-telegram-bot/pkg/logger"
)

const (
	startMenuTitle     = "👋 Выбери модель для общения (inline-меню):"
	menuTitle          = "Выбери модель для общения (inline-меню):"
	replyKeyboardTitle = "👇 Или выбери модель через клавиатуру под полем ввода:"

	modelSelectedAck  = "Модель выбрана ✅"
	modelSelectedText = "✅ Выбрана модель: "
	noModelText       = "⚠️ Сначала выбери модель через /start"
	clearedText       = "🧹 Контекст диалога очищен!"
	inferenceFailed   = "❌ Ошибка при получении ответа."

	selectFailedText = "❌ Не удалось сменить модель, попробуй ещё раз."
	clearFailedText  = "❌ Не удалось очистить контекст, попробуй ещё раз."
	saveFailedText   = "⚠️ Этот обмен сообщениями не сохранился в истории диалога."
)

type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendReply(ctx context.Context, chatID int64, markdown string) error
	SendMenu(ctx context.Context, chatID int64, text string, view domain.MenuView) (domain.MenuRef, error)
	EditMenu(ctx context.Context, ref domain.MenuRef, view domain.MenuView) error
	SendReplyKeyboard(ctx context.Context, chatID int64, text string, kb domain.ReplyKeyboard) error
	AcknowledgeCallback(ctx context.Context, callbackID, text string) error
	StartTyping(ctx context.Context, chatID int64)
}

type SessionRepository interface {
	Get(userID int64) domain.Session
	Update(userID int64, fn func(*domain.Session) error) error
	LockConversation(userID int64) func()
}

type HistoryRepository interface {
	Load(ctx context.Context, userID int64) ([]domain.Turn, error)
	Save(ctx context.Context, userID int64, turns []domain.Turn) error
	Clear(ctx context.Context, userID int64) error
}

type InferenceClient interface {
	Complete(ctx context.Context, model string, transcript []domain.Turn) (string, error)
}

type Catalog interface {
	ByID(id string) (domain.ModelEntry, bool)
}

type MenuRenderer interface {
	Render(selectedModelID string) domain.MenuView
	ReplyKeyboard() domain.ReplyKeyboard
	Help() string
}

type router struct {
	messenger loggingMessenger
	sessions  SessionRepository
	history   HistoryRepository
	inference InferenceClient
	catalog   Catalog
	menu      MenuRenderer
}

// loggingMessenger logs send errors that nobody could act on.
type loggingMessenger struct {
	Messenger
}

func (m loggingMessenger) text(ctx context.Context, chatID int64, text string) {
	if err := m.SendText(ctx, chatID, text); err != nil {
		slog.ErrorContext(ctx, "Sending message", logger.Err(err))
	}
}

func NewRouter(
	messenger Messenger,
	sessions SessionRepository,
	history HistoryRepository,
	inference InferenceClient,
	catalog Catalog,
	menu MenuRenderer,
) *router {
	return &router{
		messenger: loggingMessenger{messenger},
		sessions:  sessions,
		history:   history,
		inference: inference,
		catalog:   catalog,
		menu:      menu,
	}
}

// Handle carries out one decoded event. Callback events are acknowledged
// exactly once, whatever the outcome.
func (r *router) Handle(ctx context.Context, ev domain.Event) {
	ctx = logger.ContextWithUserID(ctx, ev.UserID)

	ack := ""
	switch a := ev.Action.(type) {
	case domain.SelectModel:
		ack = r.selectModel(ctx, ev, a.ModelID)
	case domain.ClearHistory:
		r.clearHistory(ctx, ev)
	case domain.ShowMenu:
		r.showMenu(ctx, ev, a.Greeting)
	case domain.ShowHelp:
		r.messenger.text(ctx, ev.ChatID, r.menu.Help())
	case domain.Chat:
		r.chat(ctx, ev, a.Text)
	case domain.Unrecognized:
		slog.WarnContext(ctx, "Ignoring unrecognized callback", "payload", a.Payload)
	default:
		slog.WarnContext(ctx, "Ignoring event without action", "source", ev.Source)
	}

	if ev.Source == domain.SourceCallback {
		if err := r.messenger.AcknowledgeCallback(ctx, ev.CallbackID, ack); err != nil {
			slog.WarnContext(ctx, "Acknowledging callback", logger.Err(err))
		}
	}
}

// selectModel returns the callback acknowledgement text.
func (r *router) selectModel(ctx context.Context, ev domain.Event, modelID string) string {
	entry, ok := r.catalog.ByID(modelID)
	if !ok {
		slog.WarnContext(ctx, "Ignoring model selection", "model", modelID, logger.Err(domain.ErrUnknownModel))
		return ""
	}

	var ref domain.MenuRef
	err := r.sessions.Update(ev.UserID, func(s *domain.Session) error {
		if err := r.history.Clear(ctx, ev.UserID); err != nil {
			return &domain.PersistenceError{Op: "clearing", UserID: ev.UserID, Err: err}
		}
		s.SelectedModel = entry.ID
		s.Epoch++
		ref = s.MenuRef
		return nil
	})
	if err != nil {
		slog.ErrorContext(ctx, "Selecting model", "model", entry.ID, logger.Err(err))
		r.messenger.text(ctx, ev.ChatID, selectFailedText)
		return ""
	}

	slog.InfoContext(ctx, "Model selected", "model", entry.ID)

	if ev.Source != domain.SourceCallback {
		r.messenger.text(ctx, ev.ChatID, modelSelectedText+entry.Name)
	}

	if !ref.IsZero() {
		if err := r.messenger.EditMenu(ctx, ref, r.menu.Render(entry.ID)); err != nil {
			slog.WarnContext(ctx, "Updating model menu", logger.Err(err))
		}
	}

	return modelSelectedAck
}

func (r *router) clearHistory(ctx context.Context, ev domain.Event) {
	err := r.sessions.Update(ev.UserID, func(s *domain.Session) error {
		if err := r.history.Clear(ctx, ev.UserID); err != nil {
			return &domain.PersistenceError{Op: "clearing", UserID: ev.UserID, Err: err}
		}
		s.Epoch++
		return nil
	})
	if err != nil {
		slog.ErrorContext(ctx, "Clearing history", logger.Err(err))
		r.messenger.text(ctx, ev.ChatID, clearFailedText)
		return
	}

	r.messenger.text(ctx, ev.ChatID, clearedText)
}

func (r *router) showMenu(ctx context.Context, ev domain.Event, greeting bool) {
	selected := r.sessions.Get(ev.UserID).SelectedModel
	title := menuTitle
	if greeting {
		title = startMenuTitle
	}

	ref, err := r.messenger.SendMenu(ctx, ev.ChatID, title, r.menu.Render(selected))
	if err != nil {
		slog.ErrorContext(ctx, "Sending model menu", logger.Err(err))
	} else {
		var current string
		_ = r.sessions.Update(ev.UserID, func(s *domain.Session) error {
			s.MenuRef = ref
			current = s.SelectedModel
			return nil
		})

		// A selection that landed while the menu was in flight could not edit it.
		if current != selected {
			if err := r.messenger.EditMenu(ctx, ref, r.menu.Render(current)); err != nil {
				slog.WarnContext(ctx, "Updating model menu", logger.Err(err))
			}
		}
	}

	if greeting {
		if err := r.messenger.SendReplyKeyboard(ctx, ev.ChatID, replyKeyboardTitle, r.menu.ReplyKeyboard()); err != nil {
			slog.ErrorContext(ctx, "Sending reply keyboard", logger.Err(err))
		}
	}
}

func (r *router) chat(ctx context.Context, ev domain.Event, text string) {
	unlock := r.sessions.LockConversation(ev.UserID)
	defer unlock()

	session := r.sessions.Get(ev.UserID)
	if !session.HasModel() {
		r.messenger.text(ctx, ev.ChatID, noModelText)
		return
	}

	r.messenger.StartTyping(ctx, ev.ChatID)

	transcript, err := r.history.Load(ctx, ev.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "Loading history", logger.Err(&domain.PersistenceError{Op: "loading", UserID: ev.UserID, Err: err}))
		r.messenger.text(ctx, ev.ChatID, inferenceFailed)
		return
	}

	transcript = append(transcript, domain.Turn{Role: domain.RoleUser, Content: text})

	reply, err := r.inference.Complete(ctx, session.SelectedModel, transcript)
	failed := err != nil
	if failed {
		slog.ErrorContext(ctx, "Completing chat", "model", session.SelectedModel, logger.Err(err))
		reply = inferenceFailed
	}

	transcript = append(transcript, domain.Turn{Role: domain.RoleAssistant, Content: reply})

	saveErr := r.sessions.Update(ev.UserID, func(s *domain.Session) error {
		if s.Epoch != session.Epoch {
			return errStaleExchange
		}
		if err := r.history.Save(ctx, ev.UserID, transcript); err != nil {
			return &domain.PersistenceError{Op: "saving", UserID: ev.UserID, Err: err}
		}
		return nil
	})

	if failed {
		r.messenger.text(ctx, ev.ChatID, reply)
	} else if err := r.messenger.SendReply(ctx, ev.ChatID, reply); err != nil {
		slog.ErrorContext(ctx, "Sending reply", logger.Err(err))
	}

	switch {
	case errors.Is(saveErr, errStaleExchange):
		slog.InfoContext(ctx, "History was reset during the exchange, dropping it")
	case saveErr != nil:
		slog.WarnContext(ctx, "Saving history", logger.Err(saveErr))
		r.messenger.text(ctx, ev.ChatID, saveFailedText)
	}
}

var errStaleExchange = errors.New("history reset during exchange")
