package outbox

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/botiga-dev/botiga-backend/pkg/db/models"
)

// Repository persists outbox rows. Inserts always happen inside the same
// transaction as the domain change they describe.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Insert(tx *gorm.DB, event models.OutboxEvent) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Create(&event).Error
}

// FetchForDispatch returns unpublished events with dispatch attempts left,
// oldest first so delivery order follows commit order.
func (r *Repository) FetchForDispatch(limit, maxAttempts int) ([]models.OutboxEvent, error) {
	var pending []models.OutboxEvent
	q := r.db.
		Where("published_at IS NULL").
		Where("attempt_count < ?", maxAttempts).
		Order("created_at ASC, id ASC").
		Limit(limit)
	if err := q.Find(&pending).Error; err != nil {
		return nil, err
	}
	return pending, nil
}

func (r *Repository) MarkPublished(id uuid.UUID) error {
	return r.db.Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Update("published_at", time.Now()).Error
}

func (r *Repository) MarkFailed(id uuid.UUID, cause error) error {
	updates := map[string]any{
		"attempt_count": gorm.Expr("attempt_count + 1"),
		"last_error":    cause.Error(),
	}
	return r.db.Model(&models.OutboxEvent{}).Where("id = ?", id).Updates(updates).Error
}
