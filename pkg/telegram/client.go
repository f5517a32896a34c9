package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/lo"

	"github.com/dskvich/openrouter-telegram-bot/pkg/domain"
	"github.com/dskvich/openrouter-telegram-bot/pkg/logger"
	"github.com/dskvich/openrouter-telegram-bot/pkg/render"
)

type client struct {
	bot       *tgbotapi.BotAPI
	updatesCh tgbotapi.UpdatesChannel
}

func NewClient(token string, updateTimeout int) (*client, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("creating bot api instance: %w", err)
	}

	slog.Info("authorized on telegram", "account", bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = updateTimeout

	return &client{
		bot:       bot,
		updatesCh: bot.GetUpdatesChan(u),
	}, nil
}

func (c *client) GetUpdates() tgbotapi.UpdatesChannel {
	return c.updatesCh
}

func (c *client) StopReceivingUpdates() {
	c.bot.StopReceivingUpdates()
}

func (c *client) SendText(ctx context.Context, chatID int64, text string) error {
	if _, err := c.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("sending message: %w", err)
	}
	return nil
}

// SendReply sends model output rendered as HTML, falling back to plain text
// for chunks Telegram refuses to parse.
func (c *client) SendReply(ctx context.Context, chatID int64, markdown string) error {
	for _, chunk := range splitText(markdown, maxMessageLength) {
		html := render.ToHTML(chunk)
		if html != "" && utf8.RuneCountInString(html) <= maxMessageLength {
			msg := tgbotapi.NewMessage(chatID, html)
			msg.ParseMode = tgbotapi.ModeHTML
			_, err := c.bot.Send(msg)
			if err == nil {
				continue
			}
			slog.WarnContext(ctx, "Telegram rejected HTML reply, resending as plain text", logger.Err(err))
		}

		if err := c.SendText(ctx, chatID, chunk); err != nil {
			return err
		}
	}
	return nil
}

func (c *client) SendMenu(ctx context.Context, chatID int64, text string, view domain.MenuView) (domain.MenuRef, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = inlineKeyboard(view)

	sent, err := c.bot.Send(msg)
	if err != nil {
		return domain.MenuRef{}, fmt.Errorf("sending menu: %w", err)
	}

	return domain.MenuRef{ChatID: chatID, MessageID: sent.MessageID}, nil
}

func (c *client) EditMenu(ctx context.Context, ref domain.MenuRef, view domain.MenuView) error {
	edit := tgbotapi.NewEditMessageReplyMarkup(ref.ChatID, ref.MessageID, inlineKeyboard(view))

	if _, err := c.bot.Request(edit); err != nil {
		if strings.Contains(err.Error(), "message is not modified") {
			return nil
		}
		return fmt.Errorf("editing menu %d: %w", ref.MessageID, err)
	}
	return nil
}

func (c *client) SendReplyKeyboard(ctx context.Context, chatID int64, text string, kb domain.ReplyKeyboard) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = replyKeyboard(kb)

	if _, err := c.bot.Send(msg); err != nil {
		return fmt.Errorf("sending reply keyboard: %w", err)
	}
	return nil
}

func (c *client) AcknowledgeCallback(ctx context.Context, callbackID, text string) error {
	if _, err := c.bot.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return fmt.Errorf("answering callback: %w", err)
	}
	return nil
}

func (c *client) StartTyping(ctx context.Context, chatID int64) {
	if _, err := c.bot.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		slog.WarnContext(ctx, "sending typing action", logger.Err(err))
	}
}

func inlineKeyboard(view domain.MenuView) tgbotapi.InlineKeyboardMarkup {
	buttons := lo.Map(view.Items, func(item domain.MenuItem, _ int) tgbotapi.InlineKeyboardButton {
		return tgbotapi.NewInlineKeyboardButtonData(item.Label, item.Payload)
	})

	perRow, _ := lo.Coalesce(view.ItemsPerRow, 1)
	return tgbotapi.NewInlineKeyboardMarkup(lo.Chunk(buttons, perRow)...)
}

func replyKeyboard(kb domain.ReplyKeyboard) tgbotapi.ReplyKeyboardMarkup {
	rows := lo.Map(kb.Rows, func(row []string, _ int) []tgbotapi.KeyboardButton {
		return lo.Map(row, func(label string, _ int) tgbotapi.KeyboardButton {
			return tgbotapi.NewKeyboardButton(label)
		})
	})

	markup := tgbotapi.NewReplyKeyboard(rows...)
	markup.ResizeKeyboard = true
	return markup
}
