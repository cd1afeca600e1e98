package repositories

import "context"

// Channel is the conversational surface a session talks through: a terminal,
// or a voice device connected over websocket.
type Channel interface {
	// Listen blocks until the user says something and returns it lowercased.
	// Recognition failures return ErrNoSpeech or ErrListenTimeout; a closed
	// channel returns io.EOF.
	Listen(ctx context.Context) (string, error)
	// Ask presents a prompt and returns the raw answer.
	Ask(ctx context.Context, prompt string) (string, error)
	// Speak delivers a reply and blocks until it has been handed to the user.
	Speak(ctx context.Context, text string) error
}

// Launcher opens URLs and local applications
type Launcher interface {
	OpenURL(ctx context.Context, url string) error
	OpenApp(ctx context.Context, name string) error
}
