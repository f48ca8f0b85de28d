package catalog

import (
	"context"
	"io"
	"testing"

	"github.com/botiga-dev/botiga-backend/pkg/config"
	"github.com/botiga-dev/botiga-backend/pkg/db"
	"github.com/botiga-dev/botiga-backend/pkg/db/models"
	"github.com/botiga-dev/botiga-backend/pkg/logger"
)

func openTestDB(t *testing.T) *db.Client {
	t.Helper()

	client, err := db.New(context.Background(), config.DBConfig{
		Driver:       "sqlite",
		DSN:          "file::memory:?cache=shared",
		MaxOpenConns: 1,
	}, nil)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})

	if err := client.DB().AutoMigrate(&models.Product{}, &models.OutboxEvent{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return client
}

func newTestLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}
