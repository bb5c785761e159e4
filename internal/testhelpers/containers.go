// Package testhelpers starts throwaway PostgreSQL, MongoDB and NATS containers for integration tests.
//
// Tests using these helpers are skipped with -short or when no Docker provider is reachable.
//
//	func TestWithPostgres(t *testing.T) {
//	    dsn := testhelpers.StartPostgres(t)
//	    pool, err := database.Connect(ctx, &config.DatabaseConfig{URL: dsn})
//	    // ...
//	}
package testhelpers

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	postgresImage = "postgres:16-alpine"
	mongoImage    = "mongo:7"
	natsImage     = "nats:2.10-alpine"
)

// StartPostgres runs a PostgreSQL container and returns its connection string.
func StartPostgres(t *testing.T) string {
	t.Helper()
	skipUnlessDocker(t)

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        postgresImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "cards",
			"POSTGRES_PASSWORD": "cards",
			"POSTGRES_DB":       "cards",
		},
		// postgres restarts once after init, so the ready line appears twice
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(90 * time.Second),
	}

	container := start(ctx, t, req)
	endpoint := endpoint(ctx, t, container, "5432/tcp")
	return fmt.Sprintf("postgresql://cards:cards@%s/cards?sslmode=disable", endpoint)
}

// StartMongo runs a MongoDB container and returns a URI selecting the "cards" database.
func StartMongo(t *testing.T) string {
	t.Helper()
	skipUnlessDocker(t)

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        mongoImage,
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(90 * time.Second),
	}

	container := start(ctx, t, req)
	return fmt.Sprintf("mongodb://%s/cards", endpoint(ctx, t, container, "27017/tcp"))
}

// StartNATS runs a NATS server container and returns its client URL.
func StartNATS(t *testing.T) string {
	t.Helper()
	skipUnlessDocker(t)

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        natsImage,
		ExposedPorts: []string{"4222/tcp"},
		WaitingFor:   wait.ForLog("Server is ready").WithStartupTimeout(60 * time.Second),
	}

	container := start(ctx, t, req)
	return "nats://" + endpoint(ctx, t, container, "4222/tcp")
}

func skipUnlessDocker(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
}

func start(ctx context.Context, t *testing.T, req testcontainers.ContainerRequest) testcontainers.Container {
	t.Helper()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	testcontainers.CleanupContainer(t, container)
	if err != nil {
		t.Fatalf("start %s container: %v", req.Image, err)
	}
	return container
}

func endpoint(ctx context.Context, t *testing.T, container testcontainers.Container, port string) string {
	t.Helper()
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	mapped, err := container.MappedPort(ctx, port)
	if err != nil {
		t.Fatalf("container port %s: %v", port, err)
	}
	return fmt.Sprintf("%s:%s", host, mapped.Port())
}
