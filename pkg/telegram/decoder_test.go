package telegram

import (
	"reflect"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dskvich/openrouter-telegram-bot/pkg/catalog"
	"github.com/dskvich/openrouter-telegram-bot/pkg/domain"
)

func textUpdate(text string) *tgbotapi.Update {
	return &tgbotapi.Update{
		UpdateID: 10,
		Message: &tgbotapi.Message{
			From: &tgbotapi.User{ID: 5},
			Chat: &tgbotapi.Chat{ID: 50},
			Text: text,
		},
	}
}

func TestDecodeMessage(t *testing.T) {
	cat := catalog.MustNew(catalog.Default())

	tests := []struct {
		name       string
		text       string
		wantSource domain.Source
		wantAction domain.Action
	}{
		{name: "start", text: "/start", wantSource: domain.SourceCommand, wantAction: domain.ShowMenu{Greeting: true}},
		{name: "menu", text: "/menu", wantSource: domain.SourceCommand, wantAction: domain.ShowMenu{}},
		{name: "help", text: "/help", wantSource: domain.SourceCommand, wantAction: domain.ShowHelp{}},
		{name: "clear", text: "/clear", wantSource: domain.SourceCommand, wantAction: domain.ClearHistory{}},
		{name: "clear with bot name", text: "/clear@some_bot", wantSource: domain.SourceCommand, wantAction: domain.ClearHistory{}},
		{name: "model command", text: "/gemma", wantSource: domain.SourceCommand, wantAction: domain.SelectModel{ModelID: "google/gemma-3-12b-it:free"}},
		{name: "model command upper case", text: "/DeepSeek", wantSource: domain.SourceCommand, wantAction: domain.SelectModel{ModelID: "deepseek/deepseek-r1:free"}},
		{name: "display name", text: "Qwen 2.5 32B", wantSource: domain.SourceMessage, wantAction: domain.SelectModel{ModelID: "qwen/qwen2.5-vl-32b-instruct:free"}},
		{name: "unknown command is chat", text: "/weather today", wantSource: domain.SourceMessage, wantAction: domain.Chat{Text: "/weather today"}},
		{name: "free text kept as typed", text: "  Hello\n", wantSource: domain.SourceMessage, wantAction: domain.Chat{Text: "  Hello\n"}},
		{name: "padded display name is chat", text: " Gemma 3 12B ", wantSource: domain.SourceMessage, wantAction: domain.Chat{Text: " Gemma 3 12B "}},
		{name: "padded command", text: " /help ", wantSource: domain.SourceCommand, wantAction: domain.ShowHelp{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := DecodeUpdate(textUpdate(tt.text), cat)
			if !ok {
				t.Fatalf("DecodeUpdate(%q) ignored the update", tt.text)
			}
			if ev.UpdateID != 10 || ev.UserID != 5 || ev.ChatID != 50 {
				t.Errorf("ids = %d/%d/%d, want 10/5/50", ev.UpdateID, ev.UserID, ev.ChatID)
			}
			if ev.Source != tt.wantSource {
				t.Errorf("source = %v, want %v", ev.Source, tt.wantSource)
			}
			if !reflect.DeepEqual(ev.Action, tt.wantAction) {
				t.Errorf("action = %#v, want %#v", ev.Action, tt.wantAction)
			}
		})
	}
}

func TestDecodeCallback(t *testing.T) {
	cat := catalog.MustNew(catalog.Default())

	tests := []struct {
		name       string
		query      *tgbotapi.CallbackQuery
		wantChat   int64
		wantAction domain.Action
	}{
		{
			name: "model selection",
			query: &tgbotapi.CallbackQuery{
				ID:      "cb1",
				From:    &tgbotapi.User{ID: 5},
				Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 77}},
				Data:    "model:google/gemma-3-12b-it:free",
			},
			wantChat:   77,
			wantAction: domain.SelectModel{ModelID: "google/gemma-3-12b-it:free"},
		},
		{
			name: "unknown id is left to the router",
			query: &tgbotapi.CallbackQuery{
				ID:   "cb1",
				From: &tgbotapi.User{ID: 5},
				Data: "model:nope",
			},
			wantChat:   5,
			wantAction: domain.SelectModel{ModelID: "nope"},
		},
		{
			name: "foreign payload",
			query: &tgbotapi.CallbackQuery{
				ID:   "cb1",
				From: &tgbotapi.User{ID: 5},
				Data: "ttl:60",
			},
			wantChat:   5,
			wantAction: domain.Unrecognized{Payload: "ttl:60"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := DecodeUpdate(&tgbotapi.Update{UpdateID: 3, CallbackQuery: tt.query}, cat)
			if !ok {
				t.Fatal("callback ignored")
			}
			if ev.Source != domain.SourceCallback || ev.CallbackID != "cb1" {
				t.Errorf("source/callback = %v/%q", ev.Source, ev.CallbackID)
			}
			if ev.ChatID != tt.wantChat {
				t.Errorf("chat = %d, want %d", ev.ChatID, tt.wantChat)
			}
			if !reflect.DeepEqual(ev.Action, tt.wantAction) {
				t.Errorf("action = %#v, want %#v", ev.Action, tt.wantAction)
			}
		})
	}
}

func TestDecodeIgnoresIrrelevantUpdates(t *testing.T) {
	cat := catalog.MustNew(catalog.Default())

	updates := map[string]*tgbotapi.Update{
		"empty":            {UpdateID: 1},
		"no text":          textUpdate("   "),
		"no sender":        {Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}, Text: "hi"}},
		"callback no from": {CallbackQuery: &tgbotapi.CallbackQuery{ID: "x", Data: "model:a"}},
	}

	for name, u := range updates {
		if _, ok := DecodeUpdate(u, cat); ok {
			t.Errorf("%s: update was not ignored", name)
		}
	}
}
