package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/hatchery-backend/pkg/db/models"
	"github.com/angelmondragon/hatchery-backend/pkg/pagination"
)

// Store persists notifications. Every read and write is scoped to one user
// except the retention sweep.
type Store struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Store {
	return &Store{db: db}
}

type listQuery struct {
	UserID     uuid.UUID
	Limit      int
	Cursor     *pagination.Cursor
	UnreadOnly bool
}

func (s *Store) Create(ctx context.Context, notification *models.Notification) error {
	return s.db.WithContext(ctx).Create(notification).Error
}

func (s *Store) owned(ctx context.Context, userID uuid.UUID) *gorm.DB {
	return s.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", userID)
}

func (s *Store) List(ctx context.Context, q listQuery) ([]models.Notification, string, error) {
	query := s.owned(ctx, q.UserID)
	if q.UnreadOnly {
		query = query.Where("read_at IS NULL")
	}
	var rows []models.Notification
	if err := query.Scopes(pagination.Seek(q.Cursor, q.Limit, "")).Find(&rows).Error; err != nil {
		return nil, "", err
	}
	page, next := pagination.Trim(rows, q.Limit, func(n models.Notification) pagination.Cursor {
		return pagination.Cursor{CreatedAt: n.CreatedAt, ID: n.ID}
	})
	return page, next, nil
}

// MarkRead stamps read_at once; re-reading keeps the first timestamp. found
// is false when the user owns no such notification.
func (s *Store) MarkRead(ctx context.Context, userID, id uuid.UUID, at time.Time) (found bool, err error) {
	res := s.owned(ctx, userID).
		Where("id = ?", id).
		UpdateColumn("read_at", gorm.Expr("COALESCE(read_at, ?)", at))
	return res.RowsAffected > 0, res.Error
}

func (s *Store) MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	res := s.owned(ctx, userID).Where("read_at IS NULL").UpdateColumn("read_at", at)
	return res.RowsAffected, res.Error
}

func (s *Store) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := s.owned(ctx, userID).Where("read_at IS NULL").Count(&n).Error
	return n, err
}

// DeleteReadBefore drops notifications read before cutoff. Unread rows stay
// regardless of age.
func (s *Store) DeleteReadBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	conn := s.db
	if tx != nil {
		conn = tx
	}
	res := conn.WithContext(ctx).
		Where("read_at IS NOT NULL AND read_at < ?", cutoff).
		Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}
