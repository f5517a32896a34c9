package menu

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/dskvich/openrouter-telegram-bot/pkg/domain"
)

const (
	selectedMark = "✅ "
	itemsPerRow  = 2
	clearCommand = "/clear"
)

type Catalog interface {
	Entries() []domain.ModelEntry
}

type renderer struct {
	entries []domain.ModelEntry
}

func NewRenderer(catalog Catalog) *renderer {
	return &renderer{entries: catalog.Entries()}
}

// Render builds the inline menu. The layout depends only on the catalog, so a
// menu rendered for one selection can be edited in place into another.
func (r *renderer) Render(selectedModelID string) domain.MenuView {
	items := lo.Map(r.entries, func(e domain.ModelEntry, _ int) domain.MenuItem {
		selected := e.ID == selectedModelID
		return domain.MenuItem{
			Label:    lo.Ternary(selected, selectedMark+e.Name, e.Name),
			Payload:  e.CallbackData(),
			Selected: selected,
		}
	})

	return domain.MenuView{
		Items:       items,
		ItemsPerRow: itemsPerRow,
	}
}

func (r *renderer) ReplyKeyboard() domain.ReplyKeyboard {
	names := lo.Map(r.entries, func(e domain.ModelEntry, _ int) string { return e.Name })

	rows := lo.Chunk(names, itemsPerRow)
	rows = append(rows, []string{clearCommand})

	return domain.ReplyKeyboard{Rows: rows}
}

func (r *renderer) Help() string {
	var sb strings.Builder
	sb.WriteString("📌 Команды бота:\n\n")
	sb.WriteString("/start - стартовое сообщение с inline-меню и клавиатурой\n")
	sb.WriteString("/help - показать это сообщение\n")
	sb.WriteString("/clear - очистить историю переписки\n")
	sb.WriteString("/menu - показать inline-меню моделей заново\n")

	commands := lo.Filter(r.entries, func(e domain.ModelEntry, _ int) bool { return e.Command != "" })
	if len(commands) > 0 {
		sb.WriteString("\nТакже можно выбрать модель напрямую:\n")
		for _, e := range commands {
			fmt.Fprintf(&sb, "/%s - выбрать %s\n", e.Command, e.Name)
		}
	}

	sb.WriteString("\nИли использовать кнопки reply-клавиатуры под полем ввода.")
	return sb.String()
}
