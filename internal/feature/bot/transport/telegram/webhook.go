package telegram

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// SecretTokenHeader carries the secret registered with setWebhook.
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// Deduper は同じupdate_idの再配送を検出します。
type Deduper interface {
	FirstSeen(ctx context.Context, id int) bool
}

// WebhookHandler は POST /telegram/webhook を処理します。
type WebhookHandler struct {
	secret  string
	dedupe  Deduper
	handler UpdateHandler
	baseCtx context.Context
	wg      sync.WaitGroup
}

// NewWebhookHandler は新しい WebhookHandler を作成します。
// ctx は非同期処理のベースになるコンテキストです。secret が空の場合はヘッダーを検証しません。
func NewWebhookHandler(ctx context.Context, secret string, dedupe Deduper, h UpdateHandler) *WebhookHandler {
	return &WebhookHandler{
		secret:  secret,
		dedupe:  dedupe,
		handler: h,
		baseCtx: context.WithoutCancel(ctx),
	}
}

// Handle はupdateを受け取り、検証後に非同期で処理して即座に200を返します。
func (w *WebhookHandler) Handle(c *gin.Context) {
	if w.secret != "" {
		got := c.GetHeader(SecretTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(w.secret)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid secret token"})
			return
		}
	}

	var update botApi.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid update"})
		return
	}

	if w.dedupe != nil && !w.dedupe.FirstSeen(c.Request.Context(), update.UpdateID) {
		slog.Info("duplicate update dropped", "update_id", update.UpdateID)
		c.JSON(http.StatusOK, gin.H{"status": "duplicate"})
		return
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.handler.HandleUpdate(w.baseCtx, update)
	}()

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Wait blocks until every dispatched update has been handled.
func (w *WebhookHandler) Wait() {
	w.wg.Wait()
}

// Requester はBot APIの任意のメソッドを呼び出します。*botApi.BotAPI がこれを満たします。
type Requester interface {
	MakeRequest(endpoint string, params botApi.Params) (*botApi.APIResponse, error)
}

// RegisterWebhook calls setWebhook with the public url and the secret token.
func RegisterWebhook(api Requester, url, secret string) error {
	params := botApi.Params{"url": url}
	params.AddNonEmpty("secret_token", secret)
	if err := params.AddInterface("allowed_updates", AllowedUpdates); err != nil {
		return err
	}

	resp, err := api.MakeRequest("setWebhook", params)
	if err != nil {
		return fmt.Errorf("setWebhook failed: %w", err)
	}
	if !resp.Ok {
		return fmt.Errorf("setWebhook rejected: %s", resp.Description)
	}
	slog.Info("webhook registered", "url", url)
	return nil
}

// WebhookRemover はdeleteWebhookを送信します。*botApi.BotAPI がこれを満たします。
type WebhookRemover interface {
	Request(c botApi.Chattable) (*botApi.APIResponse, error)
}

// DeleteWebhook removes any webhook so long polling can be used.
func DeleteWebhook(api WebhookRemover) error {
	resp, err := api.Request(botApi.DeleteWebhookConfig{})
	if err != nil {
		return fmt.Errorf("deleteWebhook failed: %w", err)
	}
	if !resp.Ok {
		return fmt.Errorf("deleteWebhook rejected: %s", resp.Description)
	}
	return nil
}
