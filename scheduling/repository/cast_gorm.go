package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/castline/castline/scheduling/domain"
	"gorm.io/gorm"
)

// --- Persistence Models ---

type scheduledCastModel struct {
	ID           string         `gorm:"primaryKey;column:id"`
	UserID       string         `gorm:"column:user_id;not null;index"`
	Content      string         `gorm:"column:content;not null"`
	MediaURLs    sql.NullString `gorm:"column:media_urls"` // JSON array
	ChannelKey   sql.NullString `gorm:"column:channel_key"`
	ThreadID     sql.NullString `gorm:"column:thread_id;index"`
	ThreadOrder  sql.NullInt64  `gorm:"column:thread_order"`
	ScheduledAt  time.Time      `gorm:"column:scheduled_at;not null;index"`
	PublishedAt  *time.Time     `gorm:"column:published_at"`
	Priority     string         `gorm:"column:priority;default:'NORMAL'"`
	Status       string         `gorm:"column:status;default:'PENDING';index"`
	CastHash     sql.NullString `gorm:"column:cast_hash"`
	ErrorMessage sql.NullString `gorm:"column:error_message"`
	RetryCount   int            `gorm:"column:retry_count;default:0"`
	CreatedAt    time.Time      `gorm:"column:created_at;not null"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;not null"`
}

func (scheduledCastModel) TableName() string { return "scheduled_casts" }

// priorityOrder expresses "priority desc" without relying on the lexical order
// of the stored labels. Works on both SQLite and Postgres.
const priorityOrder = "CASE priority WHEN 'HIGH' THEN 2 WHEN 'NORMAL' THEN 1 ELSE 0 END DESC"

// --- Repository Implementation ---

type CastGormRepository struct {
	db *gorm.DB
}

func NewCastGormRepository(db *gorm.DB) *CastGormRepository {
	return &CastGormRepository{db: db}
}

func (r *CastGormRepository) Init(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&scheduledCastModel{})
}

func (r *CastGormRepository) Create(ctx context.Context, cast domain.ScheduledCast) error {
	model := toCastModel(cast)
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *CastGormRepository) GetByID(ctx context.Context, id string) (domain.ScheduledCast, error) {
	var m scheduledCastModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.ScheduledCast{}, domain.ErrCastNotFound
		}
		return domain.ScheduledCast{}, err
	}
	return fromCastModel(m), nil
}

func (r *CastGormRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]domain.ScheduledCast, error) {
	var models []scheduledCastModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND scheduled_at <= ?", string(domain.CastStatusPending), now).
		Order(priorityOrder).
		Order("scheduled_at ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	res := make([]domain.ScheduledCast, len(models))
	for i, m := range models {
		res[i] = fromCastModel(m)
	}
	return res, nil
}

func (r *CastGormRepository) FindByUser(ctx context.Context, userID string, opts domain.ListOptions) ([]domain.ScheduledCast, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if opts.Status != "" {
		q = q.Where("status = ?", string(opts.Status))
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	var models []scheduledCastModel
	err := q.Order("scheduled_at DESC").
		Limit(limit).
		Offset(opts.Offset).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	res := make([]domain.ScheduledCast, len(models))
	for i, m := range models {
		res[i] = fromCastModel(m)
	}
	return res, nil
}

func (r *CastGormRepository) UpdatePending(ctx context.Context, cast domain.ScheduledCast) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&scheduledCastModel{}).
		Where("id = ? AND status = ?", cast.ID, string(domain.CastStatusPending)).
		Updates(map[string]interface{}{
			"content":      cast.Content,
			"media_urls":   encodeMediaURLs(cast.MediaURLs),
			"channel_key":  toNullString(cast.ChannelKey),
			"scheduled_at": cast.ScheduledAt,
			"priority":     string(cast.Priority),
			"updated_at":   time.Now().UTC(),
		})
	return res.RowsAffected > 0, res.Error
}

func (r *CastGormRepository) Claim(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&scheduledCastModel{}).
		Where("id = ? AND status = ?", id, string(domain.CastStatusPending)).
		Updates(map[string]interface{}{
			"status":     string(domain.CastStatusProcessing),
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected > 0, res.Error
}

func (r *CastGormRepository) MarkPublished(ctx context.Context, id, castHash string, publishedAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&scheduledCastModel{}).
		Where("id = ? AND status = ?", id, string(domain.CastStatusProcessing)).
		Updates(map[string]interface{}{
			"status":        string(domain.CastStatusPublished),
			"cast_hash":     toNullString(castHash),
			"error_message": sql.NullString{},
			"published_at":  publishedAt,
			"updated_at":    time.Now().UTC(),
		})
	return res.RowsAffected > 0, res.Error
}

func (r *CastGormRepository) MarkFailed(ctx context.Context, id, reason string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&scheduledCastModel{}).
		Where("id = ? AND status = ?", id, string(domain.CastStatusProcessing)).
		Updates(map[string]interface{}{
			"status":        string(domain.CastStatusFailed),
			"error_message": toNullString(reason),
			"retry_count":   gorm.Expr("retry_count + 1"),
			"updated_at":    time.Now().UTC(),
		})
	return res.RowsAffected > 0, res.Error
}

func (r *CastGormRepository) Cancel(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&scheduledCastModel{}).
		Where("id = ? AND status = ?", id, string(domain.CastStatusPending)).
		Updates(map[string]interface{}{
			"status":     string(domain.CastStatusCancelled),
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected > 0, res.Error
}

func (r *CastGormRepository) Requeue(ctx context.Context, id string, scheduledAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&scheduledCastModel{}).
		Where("id = ? AND status = ?", id, string(domain.CastStatusFailed)).
		Updates(map[string]interface{}{
			"status":        string(domain.CastStatusPending),
			"scheduled_at":  scheduledAt,
			"error_message": sql.NullString{},
			"updated_at":    time.Now().UTC(),
		})
	return res.RowsAffected > 0, res.Error
}

func (r *CastGormRepository) Delete(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND status IN ?", id, []string{
			string(domain.CastStatusPending),
			string(domain.CastStatusFailed),
		}).
		Delete(&scheduledCastModel{})
	return res.RowsAffected > 0, res.Error
}

func (r *CastGormRepository) CountByStatus(ctx context.Context, userID string) (domain.StatusCounts, error) {
	type row struct {
		Status string
		N      int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&scheduledCastModel{}).
		Select("status, COUNT(*) AS n").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return domain.StatusCounts{}, err
	}

	var counts domain.StatusCounts
	for _, r := range rows {
		counts.Total += r.N
		switch domain.CastStatus(r.Status) {
		case domain.CastStatusPending, domain.CastStatusProcessing:
			counts.Pending += r.N
		case domain.CastStatusPublished:
			counts.Published += r.N
		case domain.CastStatusFailed:
			counts.Failed += r.N
		case domain.CastStatusCancelled:
			counts.Cancelled += r.N
		}
	}
	return counts, nil
}

// --- Mappers ---

func toCastModel(c domain.ScheduledCast) scheduledCastModel {
	return scheduledCastModel{
		ID:           c.ID,
		UserID:       c.UserID,
		Content:      c.Content,
		MediaURLs:    encodeMediaURLs(c.MediaURLs),
		ChannelKey:   toNullString(c.ChannelKey),
		ThreadID:     toNullString(c.ThreadID),
		ThreadOrder:  toNullInt64(c.ThreadOrder, c.ThreadID != ""),
		ScheduledAt:  c.ScheduledAt,
		PublishedAt:  c.PublishedAt,
		Priority:     string(c.Priority),
		Status:       string(c.Status),
		CastHash:     toNullString(c.CastHash),
		ErrorMessage: toNullString(c.ErrorMessage),
		RetryCount:   c.RetryCount,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func fromCastModel(m scheduledCastModel) domain.ScheduledCast {
	return domain.ScheduledCast{
		ID:           m.ID,
		UserID:       m.UserID,
		Content:      m.Content,
		MediaURLs:    decodeMediaURLs(m.MediaURLs),
		ChannelKey:   m.ChannelKey.String,
		ThreadID:     m.ThreadID.String,
		ThreadOrder:  int(m.ThreadOrder.Int64),
		ScheduledAt:  m.ScheduledAt,
		PublishedAt:  m.PublishedAt,
		Priority:     domain.CastPriority(m.Priority),
		Status:       domain.CastStatus(m.Status),
		CastHash:     m.CastHash.String,
		ErrorMessage: m.ErrorMessage.String,
		RetryCount:   m.RetryCount,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func encodeMediaURLs(urls []string) sql.NullString {
	if len(urls) == 0 {
		return sql.NullString{}
	}
	data, err := json.Marshal(urls)
	if err != nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(data), Valid: true}
}

func decodeMediaURLs(ns sql.NullString) []string {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	var urls []string
	if err := json.Unmarshal([]byte(ns.String), &urls); err != nil {
		return nil
	}
	return urls
}

func toNullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func toNullInt64(n int, valid bool) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(n), Valid: valid}
}
