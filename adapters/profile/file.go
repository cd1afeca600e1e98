package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/satriahrh/marcus/domain/entities"
	"github.com/satriahrh/marcus/domain/repositories"
)

// FileRepository stores the business profile as a flat JSON object on disk
type FileRepository struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

// Ensure FileRepository implements the ProfileRepository interface
var _ repositories.ProfileRepository = (*FileRepository)(nil)

// NewFileRepository creates a file-backed profile repository
func NewFileRepository(path string, logger *zap.Logger) *FileRepository {
	return &FileRepository{path: path, logger: logger}
}

// Load implements repositories.ProfileRepository
func (r *FileRepository) Load(ctx context.Context) (*entities.BusinessProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, repositories.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to read business profile: %w", err)
	}

	var profile entities.BusinessProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to decode business profile %s: %w", r.path, err)
	}

	r.logger.Debug("Business profile loaded", zap.String("path", r.path))
	return &profile, nil
}

// Save implements repositories.ProfileRepository. The file is replaced atomically.
func (r *FileRepository) Save(ctx context.Context, profile *entities.BusinessProfile) error {
	if profile == nil {
		return errors.New("profile cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode business profile: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".business_profile-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write business profile: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close business profile: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("failed to store business profile: %w", err)
	}

	r.logger.Info("Business profile saved", zap.String("path", r.path))
	return nil
}
