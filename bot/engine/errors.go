package engine

import "errors"

var (
	// ErrNotPrivateChat rejects updates from group chats or with a
	// spoofed chat/sender pair. Logged and dropped, no reply.
	ErrNotPrivateChat = errors.New("update is not from a private chat")

	// ErrUnsupportedText marks free text arriving while no pending
	// action expects input.
	ErrUnsupportedText = errors.New("unsupported text input")

	// ErrUnknownCallback marks callback data matching no command.
	ErrUnknownCallback = errors.New("unknown callback command")

	// ErrEmptyUpdate marks an update carrying neither a message nor a
	// callback query.
	ErrEmptyUpdate = errors.New("update carries no message or callback")
)
