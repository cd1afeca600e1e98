package repositories

import (
	"context"

	"github.com/shopspring/decimal"
)

// Quote is a point-in-time stock price
type Quote struct {
	Symbol   string
	LongName string
	Price    decimal.Decimal
	Currency string
}

// StockQuoter looks up the current price of a ticker
type StockQuoter interface {
	Quote(ctx context.Context, ticker string) (*Quote, error)
}

// Translator translates text into a target language given by name or code
type Translator interface {
	Translate(ctx context.Context, text, target string) (string, error)
}

// Encyclopedia returns a short summary for a topic
type Encyclopedia interface {
	Summary(ctx context.Context, topic string) (string, error)
}

// JokeTeller returns a joke
type JokeTeller interface {
	Joke() string
}

// ReminderScheduler schedules daily reminders at a wall-clock time. Owner
// groups the reminders of one conversation so they end with it.
type ReminderScheduler interface {
	Add(owner, label, clock string, notify func(label string)) error
	RemoveOwner(owner string) int
}
