package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satriahrh/marcus/domain/entities"
	"github.com/satriahrh/marcus/domain/repositories"
)

func said(lines ...string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = "Marcus AI says: " + l
	}
	return out
}

func handle(t *testing.T, f *fixture, ch *scriptedChannel, command string) *entities.Session {
	t.Helper()
	sess := entities.NewSession(entities.ConsoleChannel)
	exit, err := f.svc.HandleCommand(context.Background(), sess, ch, command)
	require.NoError(t, err)
	assert.False(t, exit)
	return sess
}

func TestRun_GreetsAndExits(t *testing.T) {
	f := newFixture(t)
	ch := &scriptedChannel{heard: []any{"exit", "tell me a joke"}}

	err := f.svc.Run(context.Background(), ch, entities.ConsoleChannel)
	require.NoError(t, err)

	assert.Equal(t, said("Good morning!", "Exiting..."), ch.Spoken())
	assert.Len(t, ch.heard, 1, "nothing is heard after exit")
}

func TestGreeting(t *testing.T) {
	tests := map[int]string{
		0: "Good morning!", 11: "Good morning!",
		12: "Good afternoon!", 17: "Good afternoon!",
		18: "Good evening!", 20: "Good evening!",
		21: "Good night!", 23: "Good night!",
	}
	for hour, want := range tests {
		assert.Equal(t, want, greeting(hour), "hour %d", hour)
	}
}

func TestRun_SkipsUnrecognizedSpeech(t *testing.T) {
	f := newFixture(t)
	ch := &scriptedChannel{heard: []any{repositories.ErrNoSpeech, repositories.ErrListenTimeout, "exit"}}

	require.NoError(t, f.svc.Run(context.Background(), ch, entities.ConsoleChannel))
	assert.Equal(t, said("Good morning!", "Exiting..."), ch.Spoken())
}

func TestRun_EndsWhenChannelCloses(t *testing.T) {
	f := newFixture(t)
	ch := &scriptedChannel{heard: []any{"tell me a joke"}}

	require.NoError(t, f.svc.Run(context.Background(), ch, entities.ConsoleChannel))
	assert.Len(t, ch.Spoken(), 2)
}

func TestRun_ContextCancelled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.svc.Run(ctx, &scriptedChannel{heard: []any{"exit"}}, entities.ConsoleChannel)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_RecordsTranscript(t *testing.T) {
	f := newFixture(t)
	ch := &scriptedChannel{heard: []any{"solve 2 + 2", "exit"}}

	require.NoError(t, f.svc.Run(context.Background(), ch, entities.ConsoleChannel))

	var lines []string
	for _, e := range f.transcript.entries {
		lines = append(lines, e.Line())
	}
	assert.Equal(t, []string{
		"Marcus AI says: Good morning!",
		"User: solve 2 + 2",
		"Marcus AI says: The result is: 4.00000000000000",
		"User: exit",
		"Marcus AI says: Exiting...",
	}, lines)
}

func TestHandleCommand_Solve(t *testing.T) {
	f := newFixture(t)
	ch := &scriptedChannel{}

	handle(t, f, ch, "solve 2 + 2")
	handle(t, f, ch, "solve 1 / 0")

	spoken := ch.Spoken()
	assert.Equal(t, "Marcus AI says: The result is: 4.00000000000000", spoken[0])
	assert.Contains(t, spoken[1], "Marcus AI says: Error solving math problem: ")
}

func TestHandleCommand_FirstMatchWins(t *testing.T) {
	f := newFixture(t)
	ch := &scriptedChannel{}

	// "tell me a joke" is declared before "solve"
	handle(t, f, ch, "solve this and tell me a joke")
	// "open site" is declared before "translate"
	handle(t, f, ch, "translate the open site page")

	assert.Equal(t, said(
		"I would tell you a UDP joke, but you might not get it.",
		"Opening the site: https://example.com/site",
	), ch.Spoken())
	assert.Equal(t, []string{"https://example.com/site"}, f.launcher.urls)
}

func TestHandleCommand_CaseInsensitive(t *testing.T) {
	f := newFixture(t)
	ch := &scriptedChannel{}

	handle(t, f, ch, "Please TELL ME A JOKE")
	assert.Equal(t, said("I would tell you a UDP joke, but you might not get it."), ch.Spoken())
}

func TestHandleCommand_FallbackOnce(t *testing.T) {
	f := newFixture(t)
	ch := &scriptedChannel{}

	handle(t, f, ch, "how is the weather")
	assert.Equal(t, said("Sorry, I didn't understand that command."), ch.Spoken())
}

func TestHandleCommand_ChatFallback(t *testing.T) {
	f := newFixture(t)
	llm := &fakeLLM{reply: "It is sunny in Lisbon."}
	f.svc.deps.Chat = NewChatService(llm, f.svc.logger)
	ch := &scriptedChannel{}

	handle(t, f, ch, "how is the weather in lisbon")

	llm.err = errBoom
	handle(t, f, ch, "how is the weather in porto")

	assert.Equal(t, said("It is sunny in Lisbon.", "Sorry, I didn't understand that command."), ch.Spoken())
}

func TestHandleCommand_Exit(t *testing.T) {
	f := newFixture(t)
	ch := &scriptedChannel{}

	exit, err := f.svc.HandleCommand(context.Background(), entities.NewSession("console"), ch, "exit")
	require.NoError(t, err)
	assert.True(t, exit)
	assert.Equal(t, said("Exiting..."), ch.Spoken())
}

func TestHandleCommand_Translate(t *testing.T) {
	f := newFixture(t)
	ch := &scriptedChannel{}

	handle(t, f, ch, "translate hello world into Spanish")
	assert.Equal(t, "hello world", f.translator.gotText)
	assert.Equal(t, "spanish", f.translator.gotTarget)

	handle(t, f, ch, "translate hello world")

	f.translator.err = errBoom
	handle(t, f, ch, "translate hello into german")

	assert.Equal(t, said(
		"The translation is: hola mundo",
		"Please specify the text and target language.",
		"The translation is: Error: boom",
	), ch.Spoken())
}

func TestHandleCommand_Summarize(t *testing.T) {
	f := newFixture(t)
	ch := &scriptedChannel{}

	handle(t, f, ch, "summarize the meeting went well. we agreed on a budget.")
	handle(t, f, ch, "summarize")

	assert.Equal(t, said(
		"Summary: the meeting went well.",
		"Please provide text to summarize.",
	), ch.Spoken())
}

func TestHandleCommand_DreamAndWikipedia(t *testing.T) {
	f := newFixture(t)
	ch := &scriptedChannel{}

	handle(t, f, ch, "analyze my dream i was flying over the sea")
	handle(t, f, ch, "search wikipedia for golang")

	f.svc.deps.Wiki = fakeWiki{err: errBoom}
	handle(t, f, ch, "search wikipedia for nothing")

	assert.Equal(t, said(
		"Analyzing dream: i was flying over the sea.",
		"Summary from Wikipedia: Go is a programming language.",
		"Error fetching Wikipedia summary: boom",
	), ch.Spoken())
}

func TestHandleCommand_StockMarketUpdate(t *testing.T) {
	f := newFixture(t)
	ch := &scriptedChannel{answers: []string{"AAPL", "ZZZZ"}}

	handle(t, f, ch, "stock market update")

	f.svc.deps.Quotes = fakeQuoter{err: errBoom}
	handle(t, f, ch, "stock market update")

	assert.Equal(t, []string{"Enter the stock ticker symbol: ", "Enter the stock ticker symbol: "}, ch.prompts)
	assert.Equal(t, said(
		"Stock update for AAPL: Apple Inc. - $189.84",
		"Error fetching stock update for ZZZZ: boom",
	), ch.Spoken())
}

func TestHandleCommand_OpenApps(t *testing.T) {
	f := newFixture(t)
	ch := &scriptedChannel{}

	handle(t, f, ch, "open youtube")
	handle(t, f, ch, "open chrome")

	assert.Equal(t, []string{youtubeURL}, f.launcher.urls)
	assert.Equal(t, []string{"chrome"}, f.launcher.apps)
	assert.Empty(t, ch.Spoken())

	f.launcher.err = errBoom
	handle(t, f, ch, "open chrome")
	assert.Equal(t, said("Error opening Chrome: boom"), ch.Spoken())
}

func TestHandleCommand_ClockInfo(t *testing.T) {
	f := newFixture(t)
	ch := &scriptedChannel{}

	handle(t, f, ch, "what time is it")
	handle(t, f, ch, "what day is it")
	handle(t, f, ch, "what is the date today")
	handle(t, f, ch, "what year is it")

	assert.Equal(t, said("09:30:15", "Monday", "04 March 2024", "2024"), ch.Spoken())
}

func TestCommands(t *testing.T) {
	f := newFixture(t)
	commands := f.svc.Commands()

	require.Contains(t, commands, "global")
	assert.Equal(t, "open youtube", commands["global"][0])
	assert.Len(t, commands["erp"], 25)
	assert.Len(t, commands["healthcare"], 7)
	assert.Len(t, commands["fintech"], 6)
	assert.Len(t, commands["personal"], 6)
}

func TestHandleCommand_RejectsInvalidSession(t *testing.T) {
	f := newFixture(t)
	ch := &scriptedChannel{}
	sess := entities.NewSession("")

	exit, err := f.svc.HandleCommand(context.Background(), sess, ch, "tell me a joke")

	require.Error(t, err)
	assert.False(t, exit)
	assert.Empty(t, ch.Spoken())
}
