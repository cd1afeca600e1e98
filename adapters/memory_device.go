package adapters

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/satriahrh/marcus/domain/entities"
	"github.com/satriahrh/marcus/domain/repositories"
)

// MemoryDeviceRepository keeps the devices allowed to connect in memory.
// The set is small and comes from configuration at startup.
type MemoryDeviceRepository struct {
	mu      sync.RWMutex
	devices map[string]*entities.Device // id -> device mapping
	serials map[string]*entities.Device // serial_number -> device mapping
	secrets map[string]string           // serial_number -> secret_key mapping
}

var _ repositories.DeviceRepository = (*MemoryDeviceRepository)(nil)

// NewMemoryDeviceRepository creates an empty device repository
func NewMemoryDeviceRepository() *MemoryDeviceRepository {
	return &MemoryDeviceRepository{
		devices: make(map[string]*entities.Device),
		serials: make(map[string]*entities.Device),
		secrets: make(map[string]string),
	}
}

// NewMemoryDeviceRepositoryFromCredentials registers every "serial:secret" pair
func NewMemoryDeviceRepositoryFromCredentials(ctx context.Context, credentials []string) (*MemoryDeviceRepository, error) {
	repo := NewMemoryDeviceRepository()
	for _, cred := range credentials {
		serial, secret, ok := strings.Cut(cred, ":")
		if !ok || serial == "" || secret == "" {
			return nil, fmt.Errorf("malformed device credential %q, want serial:secret", cred)
		}
		if err := repo.Register(ctx, &entities.Device{SerialNumber: serial}, secret); err != nil {
			return nil, err
		}
	}
	return repo, nil
}

// Register implements DeviceRepository interface
func (m *MemoryDeviceRepository) Register(ctx context.Context, device *entities.Device, secret string) error {
	if device == nil {
		return errors.New("device cannot be nil")
	}
	if err := device.Validate(); err != nil {
		return err
	}
	if secret == "" {
		return errors.New("secret cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Check if device with same serial number already exists
	if _, exists := m.serials[device.SerialNumber]; exists {
		return errors.New("device with this serial number already exists")
	}

	// Generate ID if not provided
	if device.ID == "" {
		device.ID = uuid.NewString()
	}
	device.CreatedAt = time.Now()

	deviceCopy := *device
	m.devices[device.ID] = &deviceCopy
	m.serials[device.SerialNumber] = &deviceCopy
	m.secrets[device.SerialNumber] = secret
	return nil
}

// GetByID implements DeviceRepository interface
func (m *MemoryDeviceRepository) GetByID(ctx context.Context, id string) (*entities.Device, error) {
	if id == "" {
		return nil, errors.New("device ID cannot be empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	device, exists := m.devices[id]
	if !exists {
		return nil, repositories.ErrDeviceNotFound
	}

	// Return a copy to prevent external modifications
	deviceCopy := *device
	return &deviceCopy, nil
}

// ValidateDevice validates device credentials (serial number + secret)
func (m *MemoryDeviceRepository) ValidateDevice(serialNumber, secret string) (*entities.Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	storedSecret, exists := m.secrets[serialNumber]
	if !exists {
		return nil, repositories.ErrDeviceNotFound
	}
	if subtle.ConstantTimeCompare([]byte(storedSecret), []byte(secret)) != 1 {
		return nil, repositories.ErrInvalidCredentials
	}

	deviceCopy := *m.serials[serialNumber]
	return &deviceCopy, nil
}
