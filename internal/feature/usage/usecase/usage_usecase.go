// Package usecase はusageフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"log/slog"
	"time"

	"fxchart_bot/internal/feature/usage/domain/entity"
)

// UsageRepository は監査ログの永続化を抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type UsageRepository interface {
	Save(ctx context.Context, rec entity.UsageRecord) error
}

// UsageUsecase はコマンドの監査ログを記録します。
type UsageUsecase struct {
	repo UsageRepository
	now  func() time.Time
}

// NewUsageUsecase はUsageUsecaseの新しいインスタンスを生成します。repoがnilの場合、記録は行いません。
func NewUsageUsecase(repo UsageRepository) *UsageUsecase {
	return &UsageUsecase{repo: repo, now: time.Now}
}

// Record は監査ログを保存します。保存の失敗はログに残すだけで呼び出し元には返しません。
func (u *UsageUsecase) Record(ctx context.Context, rec entity.UsageRecord) {
	if u == nil || u.repo == nil {
		return
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = u.now().UTC()
	}
	if err := u.repo.Save(ctx, rec); err != nil {
		slog.Warn("failed to record usage",
			"request_id", rec.RequestID,
			"command", rec.Command,
			"error", err,
		)
	}
}
