package telegram

import (
	"context"
	"log/slog"
	"sync"

	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// AllowedUpdates are the update kinds the bot subscribes to.
var AllowedUpdates = []string{"message", "inline_query"}

// UpdateHandler は1件のupdateを処理します。
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update botApi.Update)
}

// UpdateSource はロングポーリングでupdateを受け取ります。*botApi.BotAPI がこれを満たします。
type UpdateSource interface {
	GetUpdatesChan(config botApi.UpdateConfig) botApi.UpdatesChannel
	StopReceivingUpdates()
}

// RunPolling はctxがキャンセルされるまでupdateを受け取り、1件ごとにgoroutineで処理します。
// 戻る前に処理中のupdateの完了を待ちます。
func RunPolling(ctx context.Context, src UpdateSource, h UpdateHandler) error {
	cfg := botApi.NewUpdate(0)
	cfg.Timeout = 60
	cfg.AllowedUpdates = AllowedUpdates

	updates := src.GetUpdatesChan(cfg)
	slog.Info("bot polling started")

	// 処理中のupdateはシャットダウンで中断せず、各自のタイムアウトで終わらせます。
	handleCtx := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			src.StopReceivingUpdates()
			slog.Info("bot polling stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				h.HandleUpdate(handleCtx, update)
			}()
		}
	}
}
