package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/castline/castline/scheduling/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type userModel struct {
	ID          string         `gorm:"primaryKey;column:id"`
	FID         int64          `gorm:"column:fid;not null;uniqueIndex"`
	Username    string         `gorm:"column:username;not null"`
	DisplayName sql.NullString `gorm:"column:display_name"`
	PfpURL      sql.NullString `gorm:"column:pfp_url"`
	SignerUUID  string         `gorm:"column:signer_uuid;not null"`
	CreatedAt   time.Time      `gorm:"column:created_at;not null"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;not null"`
}

func (userModel) TableName() string { return "users" }

type UserGormRepository struct {
	db *gorm.DB
}

func NewUserGormRepository(db *gorm.DB) *UserGormRepository {
	return &UserGormRepository{db: db}
}

func (r *UserGormRepository) Init(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&userModel{})
}

// Upsert creates or refreshes a user keyed by FID.
func (r *UserGormRepository) Upsert(ctx context.Context, user domain.User) (domain.User, error) {
	var existing userModel
	err := r.db.WithContext(ctx).First(&existing, "fid = ?", user.FID).Error
	now := time.Now().UTC()

	switch {
	case err == gorm.ErrRecordNotFound:
		model := toUserModel(user)
		if model.ID == "" {
			model.ID = uuid.NewString()
		}
		model.CreatedAt = now
		model.UpdatedAt = now
		if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
			return domain.User{}, err
		}
		return fromUserModel(model), nil
	case err != nil:
		return domain.User{}, err
	}

	existing.Username = user.Username
	existing.DisplayName = toNullString(user.DisplayName)
	existing.PfpURL = toNullString(user.PfpURL)
	existing.SignerUUID = user.SignerUUID
	existing.UpdatedAt = now
	if err := r.db.WithContext(ctx).Save(&existing).Error; err != nil {
		return domain.User{}, err
	}
	return fromUserModel(existing), nil
}

func (r *UserGormRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	var m userModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, err
	}
	return fromUserModel(m), nil
}

func (r *UserGormRepository) GetByFID(ctx context.Context, fid int64) (domain.User, error) {
	var m userModel
	if err := r.db.WithContext(ctx).First(&m, "fid = ?", fid).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, err
	}
	return fromUserModel(m), nil
}

func toUserModel(u domain.User) userModel {
	return userModel{
		ID:          u.ID,
		FID:         u.FID,
		Username:    u.Username,
		DisplayName: toNullString(u.DisplayName),
		PfpURL:      toNullString(u.PfpURL),
		SignerUUID:  u.SignerUUID,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func fromUserModel(m userModel) domain.User {
	return domain.User{
		ID:          m.ID,
		FID:         m.FID,
		Username:    m.Username,
		DisplayName: m.DisplayName.String,
		PfpURL:      m.PfpURL.String,
		SignerUUID:  m.SignerUUID,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
