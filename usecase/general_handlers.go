package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/satriahrh/marcus/internal/mathexpr"
	"github.com/satriahrh/marcus/internal/phrase"
)

func (s *AssistantService) openYouTube(ctx context.Context, conv *conversation, _ string) (bool, error) {
	if err := s.deps.Launcher.OpenURL(ctx, youtubeURL); err != nil {
		s.logger.Warn("Failed to open YouTube", zap.Error(err))
		return false, s.speak(ctx, conv, fmt.Sprintf("Error opening YouTube: %v", err))
	}
	return false, nil
}

func (s *AssistantService) openChrome(ctx context.Context, conv *conversation, _ string) (bool, error) {
	if err := s.deps.Launcher.OpenApp(ctx, "chrome"); err != nil {
		s.logger.Warn("Failed to start Chrome", zap.Error(err))
		return false, s.speak(ctx, conv, fmt.Sprintf("Error opening Chrome: %v", err))
	}
	return false, nil
}

func (s *AssistantService) openSite(ctx context.Context, conv *conversation, _ string) (bool, error) {
	if err := s.deps.Launcher.OpenURL(ctx, s.siteURL); err != nil {
		s.logger.Warn("Failed to open site", zap.String("url", s.siteURL), zap.Error(err))
	}
	return false, s.speak(ctx, conv, "Opening the site: "+s.siteURL)
}

func (s *AssistantService) stockUpdate(ctx context.Context, conv *conversation, _ string) (string, error) {
	ticker, err := s.ask(ctx, conv, "Enter the stock ticker symbol: ")
	if err != nil {
		return "", err
	}
	ticker = strings.TrimSpace(ticker)

	quote, err := s.deps.Quotes.Quote(ctx, ticker)
	if err != nil {
		s.logger.Warn("Stock lookup failed", zap.String("ticker", ticker), zap.Error(err))
		return fmt.Sprintf("Error fetching stock update for %s: %v", ticker, err), nil
	}
	return fmt.Sprintf("Stock update for %s: %s - $%s", ticker, quote.LongName, quote.Price.String()), nil
}

func (s *AssistantService) translate(ctx context.Context, _ *conversation, command string) (string, error) {
	text, language, ok := phrase.ParseTranslation(command)
	if !ok {
		return "Please specify the text and target language.", nil
	}

	translated, err := s.deps.Translator.Translate(ctx, text, language)
	if err != nil {
		s.logger.Warn("Translation failed", zap.String("language", language), zap.Error(err))
		return fmt.Sprintf("The translation is: Error: %v", err), nil
	}
	return "The translation is: " + translated, nil
}

func (s *AssistantService) joke(context.Context, *conversation, string) (string, error) {
	return s.deps.Jokes.Joke(), nil
}

func (s *AssistantService) solve(_ context.Context, _ *conversation, command string) (string, error) {
	result, err := mathexpr.EvaluateString(phrase.Strip(command, "solve"))
	if err != nil {
		return fmt.Sprintf("Error solving math problem: %v", err), nil
	}
	return "The result is: " + result, nil
}

func (s *AssistantService) summarize(_ context.Context, _ *conversation, command string) (string, error) {
	text := phrase.Strip(command, "summarize")
	if text == "" {
		return "Please provide text to summarize.", nil
	}
	return "Summary: " + phrase.FirstSentence(text), nil
}

func (s *AssistantService) analyzeDream(_ context.Context, _ *conversation, command string) (string, error) {
	return fmt.Sprintf("Analyzing dream: %s.", phrase.Strip(command, "analyze my dream")), nil
}

func (s *AssistantService) searchWikipedia(ctx context.Context, _ *conversation, command string) (string, error) {
	query := phrase.Strip(command, "search wikipedia for")

	summary, err := s.deps.Wiki.Summary(ctx, query)
	if err != nil {
		s.logger.Warn("Wikipedia lookup failed", zap.String("query", query), zap.Error(err))
		return fmt.Sprintf("Error fetching Wikipedia summary: %v", err), nil
	}
	return "Summary from Wikipedia: " + summary, nil
}

// clockInfo answers with the current time rendered in layout
func (s *AssistantService) clockInfo(layout string) func(context.Context, *conversation, string) (string, error) {
	return func(context.Context, *conversation, string) (string, error) {
		return s.now().Format(layout), nil
	}
}
