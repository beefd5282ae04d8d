// Package engine is the conversation core: the authentication state
// machine gating every inbound update and the command dispatcher that
// turns updates into rendered response envelopes. It is transport
// neutral; the telegram layer converts wire updates in and forwards
// envelopes out unchanged.
package engine

// ChatRef identifies the remote chat an update came from.
type ChatRef struct {
	ID      int64
	Private bool
}

// UserRef identifies the sender.
type UserRef struct {
	ID int64
}

// Message is an inbound text message.
type Message struct {
	ID     int
	Chat   ChatRef
	Sender UserRef
	Text   string
}

// Callback is an inbound callback-query press on an inline button.
type Callback struct {
	ID        string
	MessageID int
	Chat      ChatRef
	Sender    UserRef
	Data      string
}

// Update is one webhook delivery, carrying exactly one of its fields.
type Update struct {
	ID       int
	Message  *Message
	Callback *Callback
}
