package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/botiga-dev/botiga-backend/pkg/config"
	"github.com/botiga-dev/botiga-backend/pkg/db"
	"github.com/botiga-dev/botiga-backend/pkg/db/models"
	"github.com/botiga-dev/botiga-backend/pkg/enums"
	"github.com/botiga-dev/botiga-backend/pkg/logger"
	"github.com/botiga-dev/botiga-backend/pkg/outbox"
)

func newTestLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "outbox-publisher-test", Output: io.Discard})
}

func newTestConfig() *config.Config {
	return &config.Config{
		Outbox: config.OutboxConfig{
			BatchSize:      10,
			PollIntervalMS: 5,
			MaxAttempts:    3,
		},
	}
}

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

	if err := client.DB().AutoMigrate(&models.OutboxEvent{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	if err := client.DB().Exec("DELETE FROM outbox_events").Error; err != nil {
		t.Fatalf("reset outbox table: %v", err)
	}
	return client
}

type stubDispatcher struct {
	err      error
	received []outbox.PayloadEnvelope
}

func (d *stubDispatcher) Dispatch(_ context.Context, _ models.OutboxEvent, envelope outbox.PayloadEnvelope) error {
	if d.err != nil {
		return d.err
	}
	d.received = append(d.received, envelope)
	return nil
}

func newTestService(t *testing.T, client *db.Client, dispatcher Dispatcher) *Service {
	t.Helper()

	service, err := NewService(ServiceParams{
		Config:     newTestConfig(),
		Logger:     newTestLogger(),
		DB:         client,
		Repository: outbox.NewRepository(client.DB()),
		Dispatcher: dispatcher,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service
}

func seedEvent(t *testing.T, client *db.Client, payload []byte) uuid.UUID {
	t.Helper()

	event := models.OutboxEvent{
		EventType:     enums.OutboxEventCheckoutSettled,
		AggregateType: enums.OutboxAggregateShop,
		AggregateID:   uuid.New(),
		Payload:       payload,
	}
	repo := outbox.NewRepository(client.DB())
	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		return repo.Insert(tx, event)
	})
	if err != nil {
		t.Fatalf("seed event: %v", err)
	}

	var stored models.OutboxEvent
	if err := client.DB().Where("aggregate_id = ?", event.AggregateID).First(&stored).Error; err != nil {
		t.Fatalf("load seeded event: %v", err)
	}
	return stored.ID
}

func envelopePayload(t *testing.T, data any) []byte {
	t.Helper()

	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal data: %v", err)
	}
	payload, err := json.Marshal(outbox.PayloadEnvelope{
		Version: 1,
		EventID: uuid.NewString(),
		Data:    raw,
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return payload
}

func TestProcessBatchPublishesEvents(t *testing.T) {
	client := openTestDB(t)
	dispatcher := &stubDispatcher{}
	service := newTestService(t, client, dispatcher)

	firstID := seedEvent(t, client, envelopePayload(t, map[string]string{"shop": "Blue Shop"}))
	secondID := seedEvent(t, client, envelopePayload(t, map[string]string{"shop": "Red Shop"}))

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if !processed {
		t.Fatal("expected batch to report work done")
	}
	if len(dispatcher.received) != 2 {
		t.Fatalf("expected 2 dispatched envelopes, got %d", len(dispatcher.received))
	}

	for _, id := range []uuid.UUID{firstID, secondID} {
		var stored models.OutboxEvent
		if err := client.DB().First(&stored, "id = ?", id).Error; err != nil {
			t.Fatalf("load event %s: %v", id, err)
		}
		if stored.PublishedAt == nil {
			t.Errorf("event %s should be marked published", id)
		}
	}

	processed, err = service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process drained batch: %v", err)
	}
	if processed {
		t.Fatal("drained outbox should report no work")
	}
}

func TestProcessBatchRecordsDispatchFailure(t *testing.T) {
	client := openTestDB(t)
	dispatcher := &stubDispatcher{err: errors.New("downstream unavailable")}
	service := newTestService(t, client, dispatcher)

	id := seedEvent(t, client, envelopePayload(t, map[string]string{"shop": "Blue Shop"}))

	if _, err := service.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch: %v", err)
	}

	var stored models.OutboxEvent
	if err := client.DB().First(&stored, "id = ?", id).Error; err != nil {
		t.Fatalf("load event: %v", err)
	}
	if stored.PublishedAt != nil {
		t.Fatal("failed dispatch must leave the event unpublished")
	}
	if stored.AttemptCount != 1 {
		t.Fatalf("expected attempt count 1, got %d", stored.AttemptCount)
	}
	if stored.LastError == nil || *stored.LastError == "" {
		t.Fatal("expected last error to be recorded")
	}
}

func TestProcessBatchSkipsExhaustedEvents(t *testing.T) {
	client := openTestDB(t)
	dispatcher := &stubDispatcher{err: errors.New("downstream unavailable")}
	service := newTestService(t, client, dispatcher)

	seedEvent(t, client, envelopePayload(t, map[string]string{"shop": "Blue Shop"}))

	for i := 0; i < service.maxAttempts; i++ {
		if _, err := service.processBatch(context.Background()); err != nil {
			t.Fatalf("process batch %d: %v", i, err)
		}
	}

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process exhausted batch: %v", err)
	}
	if processed {
		t.Fatal("events past the attempt cap must not be fetched again")
	}
}

func TestProcessBatchMarksMalformedPayloadFailed(t *testing.T) {
	client := openTestDB(t)
	dispatcher := &stubDispatcher{}
	service := newTestService(t, client, dispatcher)

	id := seedEvent(t, client, []byte(`{"version":`))

	if _, err := service.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if len(dispatcher.received) != 0 {
		t.Fatal("malformed payload must not reach the dispatcher")
	}

	var stored models.OutboxEvent
	if err := client.DB().First(&stored, "id = ?", id).Error; err != nil {
		t.Fatalf("load event: %v", err)
	}
	if stored.AttemptCount != 1 {
		t.Fatalf("expected attempt count 1, got %d", stored.AttemptCount)
	}
}

func TestNewServiceValidatesParams(t *testing.T) {
	client := openTestDB(t)
	base := ServiceParams{
		Config:     newTestConfig(),
		Logger:     newTestLogger(),
		DB:         client,
		Repository: outbox.NewRepository(client.DB()),
		Dispatcher: &stubDispatcher{},
	}

	cases := []struct {
		name   string
		mutate func(p *ServiceParams)
	}{
		{"missing config", func(p *ServiceParams) { p.Config = nil }},
		{"missing logger", func(p *ServiceParams) { p.Logger = nil }},
		{"missing db", func(p *ServiceParams) { p.DB = nil }},
		{"missing repository", func(p *ServiceParams) { p.Repository = nil }},
		{"missing dispatcher", func(p *ServiceParams) { p.Dispatcher = nil }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := base
			tc.mutate(&params)
			if _, err := NewService(params); err == nil {
				t.Fatal("expected constructor error")
			}
		})
	}

	service, err := NewService(base)
	if err != nil {
		t.Fatalf("valid params rejected: %v", err)
	}
	if service.batchSize != 10 || service.maxAttempts != 3 {
		t.Fatalf("config values not applied: batch=%d attempts=%d", service.batchSize, service.maxAttempts)
	}
}
