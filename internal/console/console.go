// Package console implements a conversation channel on a terminal: typed
// lines stand in for recognized speech and replies are printed.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/satriahrh/marcus/domain/repositories"
)

var (
	assistantColor = lipgloss.Color("#8BC34A")
	promptColor    = lipgloss.Color("#4FC3F7")
	mutedColor     = lipgloss.Color("#9E9E9E")
)

// Console reads user input line by line and writes styled replies
type Console struct {
	lines <-chan string
	errs  <-chan error
	out   io.Writer

	speech lipgloss.Style
	prompt lipgloss.Style
	muted  lipgloss.Style
}

var _ repositories.Channel = (*Console)(nil)

// New starts reading in and returns a console writing to out. The reader
// goroutine exits when in is exhausted.
func New(in io.Reader, out io.Writer) *Console {
	lines := make(chan string)
	errs := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		if err := scanner.Err(); err != nil {
			errs <- err
		}
	}()

	r := lipgloss.NewRenderer(out)
	return &Console{
		lines:  lines,
		errs:   errs,
		out:    out,
		speech: r.NewStyle().Foreground(assistantColor).Bold(true),
		prompt: r.NewStyle().Foreground(promptColor),
		muted:  r.NewStyle().Foreground(mutedColor).Italic(true),
	}
}

func (c *Console) readLine(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-c.lines:
		if !ok {
			select {
			case err := <-c.errs:
				return "", fmt.Errorf("failed to read input: %w", err)
			default:
				return "", io.EOF
			}
		}
		return line, nil
	}
}

// Listen implements repositories.Channel. A blank line counts as audio that
// could not be understood.
func (c *Console) Listen(ctx context.Context) (string, error) {
	fmt.Fprintln(c.out, c.muted.Render("Listening..."))

	line, err := c.readLine(ctx)
	if err != nil {
		return "", err
	}
	command := strings.ToLower(strings.TrimSpace(line))
	if command == "" {
		return "", repositories.ErrNoSpeech
	}

	fmt.Fprintln(c.out, c.muted.Render("You said: "+command))
	return command, nil
}

// Ask implements repositories.Channel
func (c *Console) Ask(ctx context.Context, prompt string) (string, error) {
	fmt.Fprint(c.out, c.prompt.Render(prompt))
	if !strings.HasSuffix(prompt, " ") {
		fmt.Fprint(c.out, " ")
	}

	line, err := c.readLine(ctx)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Speak implements repositories.Channel
func (c *Console) Speak(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(c.out, c.speech.Render(text))
	return err
}
