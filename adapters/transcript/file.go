package transcript

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/satriahrh/marcus/domain/entities"
	"github.com/satriahrh/marcus/domain/repositories"
)

// FileWriter appends transcript lines to a plain text file
type FileWriter struct {
	mu     sync.Mutex
	file   *os.File
	logger *zap.Logger
}

var _ repositories.TranscriptRepository = (*FileWriter)(nil)

// NewFileWriter opens path for appending, creating it if needed
func NewFileWriter(path string, logger *zap.Logger) (*FileWriter, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript file %s: %w", path, err)
	}
	return &FileWriter{file: f, logger: logger}, nil
}

// Append writes one line per entry
func (w *FileWriter) Append(ctx context.Context, entry entities.TranscriptEntry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := fmt.Fprintln(w.file, entry.Line()); err != nil {
		w.logger.Error("Failed to write transcript", zap.Error(err))
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	return nil
}

// Close closes the underlying file
func (w *FileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}
