package domain

// SelectModelCallbackPrefix prefixes the callback payload of inline menu buttons.
const SelectModelCallbackPrefix = "model:"

type ModelEntry struct {
	Name    string `yaml:"name"`
	ID      string `yaml:"id"`
	Command string `yaml:"command"`
}

func (m ModelEntry) CallbackData() string {
	return SelectModelCallbackPrefix + m.ID
}
