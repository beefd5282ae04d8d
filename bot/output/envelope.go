// Package output renders named message templates into transport-ready
// envelopes. Templates live in an external store; the renderer enforces
// their placeholder contract strictly so a half-substituted message can
// never reach a user.
package output

// Button is one inline keyboard button. When URL is set the button opens
// a link and CallbackData is ignored by the transport.
type Button struct {
	Text         string
	CallbackData string
	URL          string
}

// Keyboard is an ordered list of button rows.
type Keyboard [][]Button

// Envelope is the closed set of payloads the engine hands to the
// transport. The transport forwards them unchanged.
type Envelope interface{ envelope() }

// Append sends a new message to the chat.
type Append struct {
	ChatID   int64
	Text     string
	Keyboard Keyboard
}

// Edit rewrites an existing message in place.
type Edit struct {
	ChatID    int64
	MessageID int
	Text      string
	Keyboard  Keyboard
}

// AnswerCallback acknowledges a callback query without sending a message.
type AnswerCallback struct {
	QueryID string
}

// Custom defers to a named transport-side flow. Loading is sent first
// while the flow computes its real payload.
type Custom struct {
	Name    string
	ChatID  int64
	Loading Append
}

func (Append) envelope()         {}
func (Edit) envelope()           {}
func (AnswerCallback) envelope() {}
func (Custom) envelope()         {}
