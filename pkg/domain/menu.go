package domain

type MenuItem struct {
	Label    string
	Payload  string
	Selected bool
}

type MenuView struct {
	Items       []MenuItem
	ItemsPerRow int
}

// ReplyKeyboard is the keyboard shown under the input field.
type ReplyKeyboard struct {
	Rows [][]string
}
