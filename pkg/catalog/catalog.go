package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dskvich/openrouter-telegram-bot/pkg/domain"
)

// Telegram rejects inline buttons whose callback_data exceeds 64 bytes.
const maxCallbackDataLength = 64

// The bot's own commands always win over a model command.
var reservedCommands = map[string]bool{"start": true, "menu": true, "help": true, "clear": true}

type Catalog struct {
	entries   []domain.ModelEntry
	byID      map[string]int
	byName    map[string]int
	byCommand map[string]int
}

func Default() []domain.ModelEntry {
	return []domain.ModelEntry{
		{Name: "Mistral 7B", ID: "mistralai/mistral-7b-instruct:free", Command: "mistral"},
		{Name: "Gemma 3 12B", ID: "google/gemma-3-12b-it:free", Command: "gemma"},
		{Name: "DeepSeek R1", ID: "deepseek/deepseek-r1:free", Command: "deepseek"},
		{Name: "Qwen 2.5 32B", ID: "qwen/qwen2.5-vl-32b-instruct:free", Command: "qwen"},
	}
}

// MustNew is New for entries known to be valid, like Default().
func MustNew(entries []domain.ModelEntry) *Catalog {
	c, err := New(entries)
	if err != nil {
		panic(err)
	}
	return c
}

// New validates entries and builds a catalog preserving their order.
func New(entries []domain.ModelEntry) (*Catalog, error) {
	if len(entries) == 0 {
		return nil, errors.New("catalog has no models")
	}

	c := &Catalog{
		entries:   make([]domain.ModelEntry, len(entries)),
		byID:      make(map[string]int, len(entries)),
		byName:    make(map[string]int, len(entries)),
		byCommand: make(map[string]int, len(entries)),
	}

	for i, e := range entries {
		e.Command = strings.ToLower(strings.TrimPrefix(e.Command, "/"))

		switch {
		case e.Name == "":
			return nil, fmt.Errorf("model #%d has no name", i+1)
		case e.ID == "":
			return nil, fmt.Errorf("model %q has no id", e.Name)
		case len(e.CallbackData()) > maxCallbackDataLength:
			return nil, fmt.Errorf("model id %q is too long for a menu button", e.ID)
		}

		if _, ok := c.byID[e.ID]; ok {
			return nil, fmt.Errorf("duplicate model id %q", e.ID)
		}
		if _, ok := c.byName[e.Name]; ok {
			return nil, fmt.Errorf("duplicate model name %q", e.Name)
		}
		if reservedCommands[e.Command] {
			return nil, fmt.Errorf("model %q uses reserved command /%s", e.Name, e.Command)
		}
		if e.Command != "" {
			if _, ok := c.byCommand[e.Command]; ok {
				return nil, fmt.Errorf("duplicate model command %q", e.Command)
			}
			c.byCommand[e.Command] = i
		}

		c.entries[i] = e
		c.byID[e.ID] = i
		c.byName[e.Name] = i
	}

	return c, nil
}

type file struct {
	Models []domain.ModelEntry `yaml:"models"`
}

// Load reads a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f file
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding catalog file %s: %w", path, err)
	}

	return New(f.Models)
}

func (c *Catalog) Entries() []domain.ModelEntry {
	out := make([]domain.ModelEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *Catalog) ByID(id string) (domain.ModelEntry, bool) {
	return c.lookup(c.byID, id)
}

// ByName matches the display name exactly.
func (c *Catalog) ByName(name string) (domain.ModelEntry, bool) {
	return c.lookup(c.byName, name)
}

func (c *Catalog) ByCommand(command string) (domain.ModelEntry, bool) {
	return c.lookup(c.byCommand, strings.ToLower(command))
}

func (c *Catalog) lookup(index map[string]int, key string) (domain.ModelEntry, bool) {
	i, ok := index[key]
	if !ok {
		return domain.ModelEntry{}, false
	}
	return c.entries[i], true
}
