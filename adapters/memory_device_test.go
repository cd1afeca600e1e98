package adapters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satriahrh/marcus/domain/entities"
	"github.com/satriahrh/marcus/domain/repositories"
)

func TestMemoryDeviceRepository_FromCredentials(t *testing.T) {
	ctx := context.Background()
	repo, err := NewMemoryDeviceRepositoryFromCredentials(ctx, []string{"MARCUS-001:s3cret", "MARCUS-002:other"})
	require.NoError(t, err)

	device, err := repo.ValidateDevice("MARCUS-001", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "MARCUS-001", device.SerialNumber)
	assert.NotEmpty(t, device.ID)

	byID, err := repo.GetByID(ctx, device.ID)
	require.NoError(t, err)
	assert.Equal(t, device.SerialNumber, byID.SerialNumber)

	_, err = repo.ValidateDevice("MARCUS-001", "other")
	assert.ErrorIs(t, err, repositories.ErrInvalidCredentials)

	_, err = repo.ValidateDevice("MARCUS-404", "s3cret")
	assert.ErrorIs(t, err, repositories.ErrDeviceNotFound)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, repositories.ErrDeviceNotFound)
}

func TestMemoryDeviceRepository_MalformedCredentials(t *testing.T) {
	for _, cred := range []string{"MARCUS-001", ":secret", "MARCUS-001:"} {
		_, err := NewMemoryDeviceRepositoryFromCredentials(context.Background(), []string{cred})
		assert.Error(t, err, cred)
	}
}

func TestMemoryDeviceRepository_RegisterDuplicateSerial(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryDeviceRepository()

	require.NoError(t, repo.Register(ctx, &entities.Device{SerialNumber: "MARCUS-001"}, "a"))
	assert.Error(t, repo.Register(ctx, &entities.Device{SerialNumber: "MARCUS-001"}, "b"))
	assert.Error(t, repo.Register(ctx, &entities.Device{}, "c"))
	assert.Error(t, repo.Register(ctx, &entities.Device{SerialNumber: "MARCUS-002"}, ""))
}

func TestMemoryDeviceRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryDeviceRepository()
	device := &entities.Device{ID: "d1", SerialNumber: "MARCUS-001", Model: "v1"}
	require.NoError(t, repo.Register(ctx, device, "secret"))

	got, err := repo.GetByID(ctx, "d1")
	require.NoError(t, err)
	got.Model = "tampered"

	again, _ := repo.GetByID(ctx, "d1")
	assert.Equal(t, "v1", again.Model)
}
