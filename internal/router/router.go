// Package router maps free-text commands to actions by trigger phrase.
//
// A Table is an ordered list of routes. Input selects the first route whose
// trigger occurs anywhere in it, compared case-insensitively. Declaration
// order is the only tie-breaker: a shorter trigger declared earlier wins over
// a longer, more specific one declared later.
package router

import (
	"strings"

	"golang.org/x/text/cases"
)

// Route pairs a trigger phrase with an action
type Route[T any] struct {
	Trigger string
	Action  T
}

// Table is an ordered routing table with a default action
type Table[T any] struct {
	Routes  []Route[T]
	Default T
}

// New builds a table from routes in declaration order
func New[T any](def T, routes ...Route[T]) *Table[T] {
	return &Table[T]{Routes: routes, Default: def}
}

// Match returns the first route whose trigger is contained in input
func (t *Table[T]) Match(input string) (Route[T], bool) {
	folded := fold(input)
	for _, r := range t.Routes {
		if r.Trigger == "" {
			continue
		}
		if strings.Contains(folded, fold(r.Trigger)) {
			return r, true
		}
	}
	return Route[T]{}, false
}

// Resolve returns the matched action, or the default when nothing matches
func (t *Table[T]) Resolve(input string) T {
	if r, ok := t.Match(input); ok {
		return r.Action
	}
	return t.Default
}

// Triggers lists the trigger phrases in declaration order
func (t *Table[T]) Triggers() []string {
	out := make([]string, 0, len(t.Routes))
	for _, r := range t.Routes {
		out = append(out, r.Trigger)
	}
	return out
}

func fold(s string) string {
	return cases.Fold().String(s)
}
