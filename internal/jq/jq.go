// Package jq runs precompiled jq queries over raw JSON response bodies.
package jq

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/itchyny/gojq"
)

// ErrNoResult means the query produced no value, or only null
var ErrNoResult = errors.New("jq query returned no result")

// Query is a compiled jq program
type Query struct {
	src  string
	code *gojq.Code
}

// Compile parses and compiles src
func Compile(src string) (*Query, error) {
	parsed, err := gojq.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("invalid jq query %q: %w", src, err)
	}
	code, err := gojq.Compile(parsed)
	if err != nil {
		return nil, fmt.Errorf("failed to compile jq query %q: %w", src, err)
	}
	return &Query{src: src, code: code}, nil
}

// MustCompile is Compile for package-level queries
func MustCompile(src string) *Query {
	q, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return q
}

// First decodes body and returns the first non-null value the query emits
func (q *Query) First(body []byte) (any, error) {
	var input any
	if err := json.Unmarshal(body, &input); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	iter := q.code.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			return nil, ErrNoResult
		}
		if err, isErr := v.(error); isErr {
			return nil, fmt.Errorf("jq error in %q: %w", q.src, err)
		}
		if v != nil {
			return v, nil
		}
	}
}

// String returns the first result, which must be a string
func (q *Query) String(body []byte) (string, error) {
	v, err := q.First(body)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("jq query %q: expected string, got %T", q.src, v)
	}
	return s, nil
}

// Float returns the first result, which must be a number
func (q *Query) Float(body []byte) (float64, error) {
	v, err := q.First(body)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("jq query %q: expected number, got %T", q.src, v)
	}
}
