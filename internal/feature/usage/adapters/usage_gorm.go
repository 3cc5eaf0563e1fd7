package adapters

import (
	"context"
	"time"

	"gorm.io/gorm"

	"fxchart_bot/internal/feature/usage/domain/entity"
	"fxchart_bot/internal/feature/usage/usecase"
)

type usageGorm struct {
	db *gorm.DB
}

var _ usecase.UsageRepository = (*usageGorm)(nil)

func NewUsageRepository(db *gorm.DB) *usageGorm {
	return &usageGorm{db: db}
}

type UsageModel struct {
	ID         uint      `gorm:"primaryKey"`
	RequestID  string    `gorm:"size:36;not null;index"`
	ChatID     int64     `gorm:"not null;index"`
	UserID     int64     `gorm:"not null;index"`
	Username   string    `gorm:"size:64"`
	Command    string    `gorm:"size:32;not null"`
	Args       string    `gorm:"size:256"`
	Outcome    string    `gorm:"size:16;not null"`
	DurationMs int64     `gorm:"not null;default:0"`
	CreatedAt  time.Time `gorm:"not null;index"`
}

func (UsageModel) TableName() string {
	return "command_usage"
}

func toModel(e entity.UsageRecord) UsageModel {
	return UsageModel{
		RequestID:  e.RequestID,
		ChatID:     e.ChatID,
		UserID:     e.UserID,
		Username:   truncate(e.Username, 64),
		Command:    truncate(e.Command, 32),
		Args:       truncate(e.Args, 256),
		Outcome:    string(e.Outcome),
		DurationMs: e.Duration.Milliseconds(),
		CreatedAt:  e.CreatedAt,
	}
}

func (r *usageGorm) Save(ctx context.Context, rec entity.UsageRecord) error {
	m := toModel(rec)
	return r.db.WithContext(ctx).Create(&m).Error
}

func truncate(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n])
}
