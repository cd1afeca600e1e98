package usecase

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/marcus/domain/entities"
	"github.com/satriahrh/marcus/domain/repositories"
)

// scriptedChannel replays recognized commands and typed answers
type scriptedChannel struct {
	mu      sync.Mutex
	heard   []any // string or error
	answers []string
	prompts []string
	spoken  []string
}

func (c *scriptedChannel) Listen(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(c.heard) == 0 {
		return "", io.EOF
	}
	next := c.heard[0]
	c.heard = c.heard[1:]
	if err, ok := next.(error); ok {
		return "", err
	}
	return next.(string), nil
}

func (c *scriptedChannel) Ask(ctx context.Context, prompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, prompt)
	if len(c.answers) == 0 {
		return "", io.EOF
	}
	next := c.answers[0]
	c.answers = c.answers[1:]
	return next, nil
}

func (c *scriptedChannel) Speak(_ context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.spoken = append(c.spoken, text)
	return nil
}

func (c *scriptedChannel) Spoken() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.spoken...)
}

type memoryProfiles struct {
	profile *entities.BusinessProfile
	saves   int
	loadErr error
}

func (m *memoryProfiles) Load(context.Context) (*entities.BusinessProfile, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.profile == nil {
		return nil, repositories.ErrProfileNotFound
	}
	p := *m.profile
	return &p, nil
}

func (m *memoryProfiles) Save(_ context.Context, p *entities.BusinessProfile) error {
	cp := *p
	m.profile = &cp
	m.saves++
	return nil
}

type recordedTranscript struct {
	entries []entities.TranscriptEntry
}

func (r *recordedTranscript) Append(_ context.Context, e entities.TranscriptEntry) error {
	r.entries = append(r.entries, e)
	return nil
}

type fakeQuoter struct {
	quote *repositories.Quote
	err   error
}

func (f fakeQuoter) Quote(context.Context, string) (*repositories.Quote, error) {
	return f.quote, f.err
}

type fakeTranslator struct {
	gotText, gotTarget string
	err                error
}

func (f *fakeTranslator) Translate(_ context.Context, text, target string) (string, error) {
	f.gotText, f.gotTarget = text, target
	if f.err != nil {
		return "", f.err
	}
	return "hola mundo", nil
}

type fakeWiki struct {
	summary string
	err     error
}

func (f fakeWiki) Summary(context.Context, string) (string, error) { return f.summary, f.err }

type fixedJoke string

func (j fixedJoke) Joke() string { return string(j) }

type fakeLauncher struct {
	urls []string
	apps []string
	err  error
}

func (l *fakeLauncher) OpenURL(_ context.Context, url string) error {
	l.urls = append(l.urls, url)
	return l.err
}

func (l *fakeLauncher) OpenApp(_ context.Context, name string) error {
	l.apps = append(l.apps, name)
	return l.err
}

type capturedReminder struct {
	owner, label, clock string
	notify              func(string)
}

type fakeReminders struct {
	added   []capturedReminder
	removed []string
	err     error
}

func (f *fakeReminders) Add(owner, label, clock string, notify func(string)) error {
	if f.err != nil {
		return f.err
	}
	f.added = append(f.added, capturedReminder{owner, label, clock, notify})
	return nil
}

func (f *fakeReminders) RemoveOwner(owner string) int {
	f.removed = append(f.removed, owner)
	n := 0
	kept := f.added[:0]
	for _, r := range f.added {
		if r.owner == owner {
			n++
			continue
		}
		kept = append(kept, r)
	}
	f.added = kept
	return n
}

type fakeLLM struct {
	reply string
	err   error
}

func (f *fakeLLM) GenerateChat(context.Context, []repositories.ChatMessage) (repositories.ChatSession, error) {
	return &fakeChat{llm: f}, nil
}

type fakeChat struct {
	llm     *fakeLLM
	history []repositories.ChatMessage
}

func (c *fakeChat) SendMessage(_ context.Context, m repositories.ChatMessage) (repositories.ChatMessage, error) {
	if c.llm.err != nil {
		return repositories.ChatMessage{}, c.llm.err
	}
	reply := repositories.ChatMessage{Role: repositories.AssistantRole, Content: c.llm.reply}
	c.history = append(c.history, m, reply)
	return reply, nil
}

func (c *fakeChat) History() ([]repositories.ChatMessage, error) { return c.history, nil }

type fixture struct {
	svc        *AssistantService
	profiles   *memoryProfiles
	transcript *recordedTranscript
	translator *fakeTranslator
	launcher   *fakeLauncher
	reminders  *fakeReminders
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		profiles:   &memoryProfiles{},
		transcript: &recordedTranscript{},
		translator: &fakeTranslator{},
		launcher:   &fakeLauncher{},
		reminders:  &fakeReminders{},
	}
	f.svc = NewAssistantService("Marcus AI", "https://example.com/site", Dependencies{
		Profiles:   f.profiles,
		Transcript: f.transcript,
		Quotes: fakeQuoter{quote: &repositories.Quote{
			Symbol:   "AAPL",
			LongName: "Apple Inc.",
			Price:    decimal.RequireFromString("189.84"),
		}},
		Translator: f.translator,
		Wiki:       fakeWiki{summary: "Go is a programming language."},
		Jokes:      fixedJoke("I would tell you a UDP joke, but you might not get it."),
		Launcher:   f.launcher,
		Reminders:  f.reminders,
	}, zaptest.NewLogger(t))
	f.svc.now = func() time.Time { return time.Date(2024, time.March, 4, 9, 30, 15, 0, time.UTC) }
	return f
}

var errBoom = errors.New("boom")
