package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dskvich/openrouter-telegram-bot/pkg/domain"
)

type Catalog interface {
	ByName(name string) (domain.ModelEntry, bool)
	ByCommand(command string) (domain.ModelEntry, bool)
}

// DecodeUpdate turns an update into an event for the router. Updates the bot
// has nothing to do with (no sender, no text) are reported as not ok.
func DecodeUpdate(update *tgbotapi.Update, catalog Catalog) (domain.Event, bool) {
	switch {
	case update.CallbackQuery != nil:
		return decodeCallback(update.UpdateID, update.CallbackQuery)
	case update.Message != nil:
		return decodeMessage(update.UpdateID, update.Message, catalog)
	default:
		return domain.Event{}, false
	}
}

func decodeCallback(updateID int, cb *tgbotapi.CallbackQuery) (domain.Event, bool) {
	if cb.From == nil {
		return domain.Event{}, false
	}

	// Private chats share the user's id, which covers callbacks without a message.
	chatID := cb.From.ID
	if cb.Message != nil && cb.Message.Chat != nil {
		chatID = cb.Message.Chat.ID
	}

	ev := domain.Event{
		UpdateID:   updateID,
		UserID:     cb.From.ID,
		ChatID:     chatID,
		CallbackID: cb.ID,
		Source:     domain.SourceCallback,
	}

	if modelID, ok := strings.CutPrefix(cb.Data, domain.SelectModelCallbackPrefix); ok {
		ev.Action = domain.SelectModel{ModelID: modelID}
	} else {
		ev.Action = domain.Unrecognized{Payload: cb.Data}
	}

	return ev, true
}

func decodeMessage(updateID int, msg *tgbotapi.Message, catalog Catalog) (domain.Event, bool) {
	if msg.From == nil || msg.Chat == nil {
		return domain.Event{}, false
	}

	// Trimmed text only detects commands; names and chat text stay as typed.
	trimmed := strings.TrimSpace(msg.Text)
	if trimmed == "" {
		return domain.Event{}, false
	}

	ev := domain.Event{
		UpdateID: updateID,
		UserID:   msg.From.ID,
		ChatID:   msg.Chat.ID,
		Source:   domain.SourceMessage,
	}

	if action, ok := decodeCommand(trimmed, catalog); ok {
		ev.Source = domain.SourceCommand
		ev.Action = action
		return ev, true
	}

	if entry, ok := catalog.ByName(msg.Text); ok {
		ev.Action = domain.SelectModel{ModelID: entry.ID}
		return ev, true
	}

	ev.Action = domain.Chat{Text: msg.Text}
	return ev, true
}

func decodeCommand(text string, catalog Catalog) (domain.Action, bool) {
	if !strings.HasPrefix(text, "/") {
		return nil, false
	}

	cmd := strings.Fields(text)[0]
	cmd = strings.ToLower(strings.Split(cmd, "@")[0])

	switch cmd {
	case "/start":
		return domain.ShowMenu{Greeting: true}, true
	case "/menu":
		return domain.ShowMenu{}, true
	case "/help":
		return domain.ShowHelp{}, true
	case "/clear":
		return domain.ClearHistory{}, true
	}

	if entry, ok := catalog.ByCommand(strings.TrimPrefix(cmd, "/")); ok {
		return domain.SelectModel{ModelID: entry.ID}, true
	}

	return nil, false
}
