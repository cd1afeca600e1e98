package repositories

import (
	"context"

	"github.com/satriahrh/marcus/domain/entities"
)

// ProfileRepository persists the single business profile record
type ProfileRepository interface {
	// Load returns ErrProfileNotFound when nothing has been saved yet
	Load(ctx context.Context) (*entities.BusinessProfile, error)
	Save(ctx context.Context, profile *entities.BusinessProfile) error
}

// TranscriptRepository records every utterance of a conversation
type TranscriptRepository interface {
	Append(ctx context.Context, entry entities.TranscriptEntry) error
}

// DeviceRepository defines data access methods for devices
type DeviceRepository interface {
	Register(ctx context.Context, device *entities.Device, secret string) error
	GetByID(ctx context.Context, id string) (*entities.Device, error)
	// ValidateDevice validates device credentials for authentication
	ValidateDevice(serialNumber, secret string) (*entities.Device, error)
}
