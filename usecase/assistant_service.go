package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/marcus/domain/entities"
	"github.com/satriahrh/marcus/domain/repositories"
	"github.com/satriahrh/marcus/internal/router"
)

const (
	youtubeURL      = "https://www.youtube.com"
	unknownCommand  = "Sorry, I didn't understand that command."
	exitingResponse = "Exiting..."
)

// Dependencies are the collaborators the assistant dispatches to.
// Chat is optional; without it unknown commands get the fixed reply.
type Dependencies struct {
	Profiles   repositories.ProfileRepository
	Transcript repositories.TranscriptRepository
	Quotes     repositories.StockQuoter
	Translator repositories.Translator
	Wiki       repositories.Encyclopedia
	Jokes      repositories.JokeTeller
	Launcher   repositories.Launcher
	Reminders  repositories.ReminderScheduler
	Chat       *ChatService
}

// conversation is one session talking through one channel
type conversation struct {
	sess *entities.Session
	ch   repositories.Channel
}

// commandHandler runs a global command; exit ends the conversation
type commandHandler func(ctx context.Context, conv *conversation, command string) (exit bool, err error)

// AssistantService runs voice conversations: it listens for commands,
// routes them through the global table and the nested mode tables, and
// speaks the replies.
type AssistantService struct {
	name    string
	siteURL string
	deps    Dependencies
	now     func() time.Time
	logger  *zap.Logger

	global *router.Table[commandHandler]
	modes  map[entities.Mode]*modeTable
}

// NewAssistantService creates the service and builds its routing tables
func NewAssistantService(name, siteURL string, deps Dependencies, logger *zap.Logger) *AssistantService {
	s := &AssistantService{
		name:    name,
		siteURL: siteURL,
		deps:    deps,
		now:     time.Now,
		logger:  logger,
	}
	s.global = s.globalTable()
	s.modes = map[entities.Mode]*modeTable{
		entities.ModeERP:        s.erpTable(),
		entities.ModeHealthcare: s.healthcareTable(),
		entities.ModeFintech:    s.fintechTable(),
		entities.ModePersonal:   s.personalTable(),
	}
	return s
}

func (s *AssistantService) globalTable() *router.Table[commandHandler] {
	return router.New[commandHandler](s.fallback,
		router.Route[commandHandler]{Trigger: "open youtube", Action: s.openYouTube},
		router.Route[commandHandler]{Trigger: "open chrome", Action: s.openChrome},
		router.Route[commandHandler]{Trigger: "exit", Action: s.exit},
		router.Route[commandHandler]{Trigger: "open site", Action: s.openSite},
		router.Route[commandHandler]{Trigger: "stock market update", Action: s.reply(s.stockUpdate)},
		router.Route[commandHandler]{Trigger: "translate", Action: s.reply(s.translate)},
		router.Route[commandHandler]{Trigger: "tell me a joke", Action: s.reply(s.joke)},
		router.Route[commandHandler]{Trigger: "solve", Action: s.reply(s.solve)},
		router.Route[commandHandler]{Trigger: "summarize", Action: s.reply(s.summarize)},
		router.Route[commandHandler]{Trigger: "analyze my dream", Action: s.reply(s.analyzeDream)},
		router.Route[commandHandler]{Trigger: "search wikipedia for", Action: s.reply(s.searchWikipedia)},
		router.Route[commandHandler]{Trigger: "start erp", Action: s.startERP},
		router.Route[commandHandler]{Trigger: "start fintech", Action: s.startMode(entities.ModeFintech,
			"Starting FinTech system. How can I assist you with your financial tasks today?")},
		router.Route[commandHandler]{Trigger: "start personal ai", Action: s.startMode(entities.ModePersonal,
			"Starting Personal AI. How can I assist you with personal tasks today?")},
		router.Route[commandHandler]{Trigger: "start healthcare robot", Action: s.startMode(entities.ModeHealthcare,
			"Starting Healthcare AI Robot. How can I assist you with your health today?")},
		router.Route[commandHandler]{Trigger: "what time is it", Action: s.reply(s.clockInfo("15:04:05"))},
		router.Route[commandHandler]{Trigger: "what day is it", Action: s.reply(s.clockInfo("Monday"))},
		router.Route[commandHandler]{Trigger: "what is the date", Action: s.reply(s.clockInfo("02 January 2006"))},
		router.Route[commandHandler]{Trigger: "what year is it", Action: s.reply(s.clockInfo("2006"))},
	)
}

// Run holds a conversation on ch until the user says exit, the channel
// closes or ctx is cancelled
func (s *AssistantService) Run(ctx context.Context, ch repositories.Channel, channelName string) error {
	sess := entities.NewSession(channelName)
	conv := &conversation{sess: sess, ch: ch}
	logger := s.logger.With(zap.String("sessionID", sess.ID), zap.String("channel", channelName))

	logger.Info("Conversation started")
	defer func() {
		sess.Terminate()
		s.deps.Reminders.RemoveOwner(sess.ID)
		if s.deps.Chat != nil {
			s.deps.Chat.End(sess.ID)
		}
		logger.Info("Conversation ended", zap.Duration("duration", time.Since(sess.StartedAt)))
	}()

	if err := s.speak(ctx, conv, greeting(s.now().Hour())); err != nil {
		return endOfConversation(err)
	}

	for {
		command, err := s.listen(ctx, conv)
		if err != nil {
			return endOfConversation(err)
		}
		if command == "" {
			continue
		}

		exit, err := s.HandleCommand(ctx, sess, ch, command)
		if err != nil {
			if terminal(err) {
				return endOfConversation(err)
			}
			logger.Error("Command failed", zap.String("command", command), zap.Error(err))
			continue
		}
		if exit {
			return nil
		}
	}
}

// HandleCommand dispatches one recognized command through the global table.
// Mode commands return only after their inner loop has finished.
func (s *AssistantService) HandleCommand(ctx context.Context, sess *entities.Session, ch repositories.Channel, command string) (bool, error) {
	if err := sess.Validate(); err != nil {
		return false, fmt.Errorf("invalid session: %w", err)
	}
	sess.Touch()
	handler := s.global.Resolve(command)
	return handler(ctx, &conversation{sess: sess, ch: ch}, command)
}

// Commands lists the trigger phrases of every routing table
func (s *AssistantService) Commands() map[string][]string {
	out := map[string][]string{string(entities.ModeGlobal): s.global.Triggers()}
	for mode, table := range s.modes {
		out[string(mode)] = table.Triggers()
	}
	return out
}

// speak prefixes the assistant name, records the line and delivers it
func (s *AssistantService) speak(ctx context.Context, conv *conversation, text string) error {
	s.record(ctx, entities.TranscriptEntry{
		Role:    entities.MessageRoleAssistant,
		Speaker: s.name,
		Text:    text,
		At:      s.now(),
	})
	return conv.ch.Speak(ctx, fmt.Sprintf("%s says: %s", s.name, text))
}

// listen returns the next command. Recognition failures yield an empty
// command and no error.
func (s *AssistantService) listen(ctx context.Context, conv *conversation) (string, error) {
	command, err := conv.ch.Listen(ctx)
	if err != nil {
		if recognitionFailure(err) {
			s.logger.Debug("No command recognized", zap.String("sessionID", conv.sess.ID), zap.Error(err))
			return "", nil
		}
		return "", err
	}

	s.logger.Debug("You said", zap.String("sessionID", conv.sess.ID), zap.String("command", command))
	s.record(ctx, entities.TranscriptEntry{Role: entities.MessageRoleUser, Text: command, At: s.now()})
	conv.sess.Touch()
	return command, nil
}

// ask collects a free-form answer. An answer that could not be recognized
// is treated as empty.
func (s *AssistantService) ask(ctx context.Context, conv *conversation, prompt string) (string, error) {
	answer, err := conv.ch.Ask(ctx, prompt)
	if err != nil {
		if recognitionFailure(err) {
			return "", nil
		}
		return "", err
	}
	return answer, nil
}

func (s *AssistantService) record(ctx context.Context, entry entities.TranscriptEntry) {
	if s.deps.Transcript == nil {
		return
	}
	if err := s.deps.Transcript.Append(ctx, entry); err != nil {
		s.logger.Warn("Failed to record transcript", zap.Error(err))
	}
}

// reply adapts a handler that only produces a line to speak
func (s *AssistantService) reply(fn func(ctx context.Context, conv *conversation, command string) (string, error)) commandHandler {
	return func(ctx context.Context, conv *conversation, command string) (bool, error) {
		text, err := fn(ctx, conv, command)
		if err != nil {
			return false, err
		}
		return false, s.speak(ctx, conv, text)
	}
}

func (s *AssistantService) exit(ctx context.Context, conv *conversation, _ string) (bool, error) {
	return true, s.speak(ctx, conv, exitingResponse)
}

// fallback answers unmatched input, through the chat model when one is configured
func (s *AssistantService) fallback(ctx context.Context, conv *conversation, command string) (bool, error) {
	if s.deps.Chat != nil {
		answer, err := s.deps.Chat.Reply(ctx, conv.sess.ID, command)
		if err == nil {
			return false, s.speak(ctx, conv, answer)
		}
		if terminal(err) {
			return false, err
		}
		s.logger.Warn("Chat fallback failed", zap.String("command", command), zap.Error(err))
	}
	return false, s.speak(ctx, conv, unknownCommand)
}

func greeting(hour int) string {
	switch {
	case hour < 12:
		return "Good morning!"
	case hour < 18:
		return "Good afternoon!"
	case hour < 21:
		return "Good evening!"
	default:
		return "Good night!"
	}
}

func recognitionFailure(err error) bool {
	return errors.Is(err, repositories.ErrNoSpeech) || errors.Is(err, repositories.ErrListenTimeout)
}

// terminal reports errors after which the conversation cannot continue
func terminal(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// endOfConversation maps a closed channel to a clean end
func endOfConversation(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
