//go:build integration

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Sternrassler/storefront-export/pkg/export"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestRedis(t *testing.T) string {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}
	t.Cleanup(func() { _ = redisC.Terminate(ctx) })

	endpoint, err := redisC.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Failed to get container endpoint: %v", err)
	}
	return "redis://" + endpoint + "/0"
}

func TestExport_WithRedisQuotaStore(t *testing.T) {
	mock := setupStore(t)
	cfg := testConfig(t, mock)
	cfg.RedisURL = setupTestRedis(t)

	if code := runExport(context.Background(), cfg); code != exitOK {
		t.Fatalf("Expected exit code %d, got %d", exitOK, code)
	}
	if _, err := os.Stat(filepath.Join(cfg.ExportDir, export.FileName)); err != nil {
		t.Errorf("Expected export file: %v", err)
	}
}
