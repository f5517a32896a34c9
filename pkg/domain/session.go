package domain

// MenuRef locates a previously sent model menu. It is only used to edit that
// message in place and never implies the message still exists.
type MenuRef struct {
	ChatID    int64
	MessageID int
}

func (m MenuRef) IsZero() bool {
	return m.MessageID == 0
}

type Session struct {
	SelectedModel string
	MenuRef       MenuRef
	// Epoch changes whenever the transcript is reset, either explicitly or by a model switch.
	Epoch uint64
}

func (s Session) HasModel() bool {
	return s.SelectedModel != ""
}
