package profile

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/marcus/domain/entities"
	"github.com/satriahrh/marcus/domain/repositories"
)

// These tests run only when a live database is configured.

func testProfileRoundTrip(t *testing.T, repo repositories.ProfileRepository) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	want := &entities.BusinessProfile{
		Name:      "Integration Co",
		Phone:     "555-0199",
		Address:   "42 Test Ave",
		Type:      "manufacturing",
		Employees: "300",
	}
	require.NoError(t, repo.Save(ctx, want))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("profile mismatch (-want +got):\n%s", diff)
	}
}

func TestMongoRepository_Integration(t *testing.T) {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}

	logger := zaptest.NewLogger(t)
	client, err := NewMongoClient(context.Background(), uri, "marcus_test", logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.Database.Drop(context.Background())
		_ = client.Close(context.Background())
	})

	testProfileRoundTrip(t, NewMongoRepository(client.Database, logger))
}

func TestPostgresRepository_Integration(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	repo, err := NewPostgresRepository(context.Background(), url, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(repo.Close)

	testProfileRoundTrip(t, repo)
}
