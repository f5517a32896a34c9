package domain

// Action is what an inbound event asks the router to do.
type Action interface {
	isAction()
}

type SelectModel struct {
	ModelID string
}

type ClearHistory struct{}

type ShowMenu struct {
	// Greeting is set for /start, which also sends the reply keyboard.
	Greeting bool
}

type ShowHelp struct{}

type Chat struct {
	Text string
}

// Unrecognized is a callback payload the bot never issued.
type Unrecognized struct {
	Payload string
}

func (SelectModel) isAction()  {}
func (ClearHistory) isAction() {}
func (ShowMenu) isAction()     {}
func (ShowHelp) isAction()     {}
func (Chat) isAction()         {}
func (Unrecognized) isAction() {}

type Source int

const (
	SourceMessage Source = iota
	SourceCommand
	SourceCallback
)

type Event struct {
	UpdateID   int
	UserID     int64
	ChatID     int64
	CallbackID string
	Source     Source
	Action     Action
}
