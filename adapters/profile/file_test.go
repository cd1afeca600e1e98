package profile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/marcus/domain/entities"
	"github.com/satriahrh/marcus/domain/repositories"
)

func TestFileRepository_LoadMissing(t *testing.T) {
	repo := NewFileRepository(filepath.Join(t.TempDir(), "business_details.json"), zaptest.NewLogger(t))

	profile, err := repo.Load(context.Background())
	assert.Nil(t, profile)
	assert.ErrorIs(t, err, repositories.ErrProfileNotFound)
}

func TestFileRepository_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "business_details.json")
	repo := NewFileRepository(path, zaptest.NewLogger(t))

	want := &entities.BusinessProfile{
		Name:           "Acme",
		Phone:          "555-0100",
		Address:        "1 Main St",
		Type:           "retail",
		Employees:      "12",
		AdditionalInfo: "Family owned",
	}
	require.NoError(t, repo.Save(context.Background(), want))

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("profile mismatch (-want +got):\n%s", diff)
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"name": "Acme",
		"phone": "555-0100",
		"address": "1 Main St",
		"type": "retail",
		"employees": "12",
		"additional_info": "Family owned"
	}`, string(data))
}

func TestFileRepository_LoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "business_details.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewFileRepository(path, zaptest.NewLogger(t)).Load(context.Background())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, repositories.ErrProfileNotFound)
}

func TestFileRepository_SaveNil(t *testing.T) {
	repo := NewFileRepository(filepath.Join(t.TempDir(), "p.json"), zaptest.NewLogger(t))
	assert.Error(t, repo.Save(context.Background(), nil))
}
