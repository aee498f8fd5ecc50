package repositories

import "context"

// ChatProvider abstracts the text-generation service.
type ChatProvider interface {
	// NewChatSession creates a remote chat context framed by the given
	// system instruction. The handle retains dialogue history across
	// SendMessage calls for the lifetime of a conversation.
	NewChatSession(ctx context.Context, systemInstruction string) (ChatSession, error)
}

// ChatSession is a live handle into the remote chat context.
type ChatSession interface {
	// SendMessage sends one prompt and returns the generated text.
	// Errors are propagated raw so callers can classify them.
	SendMessage(ctx context.Context, prompt string) (string, error)
}
