package outbox

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/botiga-dev/botiga-backend/pkg/db"
	"github.com/botiga-dev/botiga-backend/pkg/db/models"
	"github.com/botiga-dev/botiga-backend/pkg/enums"
	pkgerrors "github.com/botiga-dev/botiga-backend/pkg/errors"
	"github.com/botiga-dev/botiga-backend/pkg/logger"
)

// Service queues domain events in the outbox table so they commit
// atomically with the state change that produced them.
type Service struct {
	repo *Repository
	logg *logger.Logger
}

func NewService(repo *Repository, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "outbox repository is required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &Service{repo: repo, logg: logg}, nil
}

type EmitInput struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	AggregateID   uuid.UUID
	Data          any
}

// Emit inserts an outbox row within the caller's transaction. The row is
// picked up by a relay after commit; Emit never publishes directly.
func (s *Service) Emit(ctx context.Context, tx *gorm.DB, in EmitInput) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "transaction is required")
	}
	if in.EventType == "" || in.AggregateType == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "event type and aggregate type are required")
	}

	data, err := json.Marshal(in.Data)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal outbox payload")
	}

	payload, err := json.Marshal(newEnvelope(data))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal outbox envelope")
	}

	event := models.OutboxEvent{
		EventType:     in.EventType,
		AggregateType: in.AggregateType,
		AggregateID:   in.AggregateID,
		Payload:       payload,
	}
	if err := s.repo.Insert(tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert outbox event")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"event_type":     in.EventType.String(),
		"aggregate_type": in.AggregateType.String(),
		"aggregate_id":   in.AggregateID.String(),
	})
	s.logg.Info(ctx, "outbox event queued")
	return nil
}

// EmitIfNotExists swallows unique violations on the given constraint so
// callers can enqueue idempotently keyed events.
func (s *Service) EmitIfNotExists(ctx context.Context, tx *gorm.DB, constraint string, in EmitInput) error {
	err := s.Emit(ctx, tx, in)
	if err != nil && db.IsUniqueViolation(err, constraint) {
		return nil
	}
	return err
}
