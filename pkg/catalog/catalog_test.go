package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dskvich/openrouter-telegram-bot/pkg/domain"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := New(Default())
	if err != nil {
		t.Fatalf("default catalog is invalid: %v", err)
	}

	entries := c.Entries()
	if len(entries) != 4 {
		t.Fatalf("expected 4 models, got %d", len(entries))
	}
	if entries[1].Name != "Gemma 3 12B" {
		t.Errorf("declaration order not preserved, second entry is %q", entries[1].Name)
	}

	gemma, ok := c.ByName("Gemma 3 12B")
	if !ok || gemma.ID != "google/gemma-3-12b-it:free" {
		t.Errorf("ByName returned %+v, %v", gemma, ok)
	}
	if _, ok := c.ByName("gemma 3 12b"); ok {
		t.Error("ByName must be an exact match")
	}
	if e, ok := c.ByID("deepseek/deepseek-r1:free"); !ok || e.Name != "DeepSeek R1" {
		t.Errorf("ByID returned %+v, %v", e, ok)
	}
	if e, ok := c.ByCommand("QWEN"); !ok || e.Name != "Qwen 2.5 32B" {
		t.Errorf("ByCommand returned %+v, %v", e, ok)
	}
}

func TestEntriesReturnsCopy(t *testing.T) {
	c, err := New(Default())
	if err != nil {
		t.Fatal(err)
	}

	entries := c.Entries()
	entries[0].Name = "changed"

	if c.Entries()[0].Name == "changed" {
		t.Error("Entries exposed the internal slice")
	}
}

func TestNewRejectsInvalidEntries(t *testing.T) {
	tests := []struct {
		name    string
		entries []domain.ModelEntry
	}{
		{"empty", nil},
		{"no name", []domain.ModelEntry{{ID: "a"}}},
		{"no id", []domain.ModelEntry{{Name: "A"}}},
		{"duplicate id", []domain.ModelEntry{{Name: "A", ID: "x"}, {Name: "B", ID: "x"}}},
		{"duplicate name", []domain.ModelEntry{{Name: "A", ID: "x"}, {Name: "A", ID: "y"}}},
		{"duplicate command", []domain.ModelEntry{{Name: "A", ID: "x", Command: "a"}, {Name: "B", ID: "y", Command: "/A"}}},
		{"reserved command", []domain.ModelEntry{{Name: "A", ID: "x", Command: "help"}}},
		{"reserved command with slash", []domain.ModelEntry{{Name: "A", ID: "x", Command: "/Clear"}}},
		{"id too long", []domain.ModelEntry{{Name: "A", ID: "vendor/a-model-name-that-is-far-too-long-for-telegram-buttons:free"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.entries); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.yaml")
	content := `models:
  - name: Llama
    id: meta-llama/llama-3.3-70b-instruct:free
    command: /llama
  - name: Phi
    id: microsoft/phi-4:free
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if e, ok := c.ByCommand("llama"); !ok || e.Name != "Llama" {
		t.Errorf("ByCommand(llama) = %+v, %v", e, ok)
	}
	if len(c.Entries()) != 2 {
		t.Errorf("expected 2 entries, got %d", len(c.Entries()))
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.yaml")
	if err := os.WriteFile(path, []byte("models:\n  - name: A\n    model: x\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected an error for an unknown field")
	}
}
