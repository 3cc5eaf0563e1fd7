package router

import (
	"github.com/gin-gonic/gin"

	telegram "fxchart_bot/internal/feature/bot/transport/telegram"
	calchandler "fxchart_bot/internal/feature/calculator/transport/handler"
	convhandler "fxchart_bot/internal/feature/conversion/transport/handler"
	platformhandler "fxchart_bot/internal/platform/http/handler"
)

// WebhookPath はTelegramからのupdateを受け取るパスです。
const WebhookPath = "/telegram/webhook"

// NewRouter はHTTPルーティングを構築します。webhook が nil の場合（ポーリングモード）、Webhookのルートは登録しません。
func NewRouter(health *platformhandler.HealthHandler, conv *convhandler.ConversionHandler,
	calc *calchandler.CalcHandler, webhook *telegram.WebhookHandler) *gin.Engine {
	r := gin.Default()

	// 導通確認用
	r.GET("/healthz", health.Health)
	r.HEAD("/healthz", health.Health)
	r.OPTIONS("/healthz", health.Health)

	// Telegram Webhook（シークレットトークンで検証）
	if webhook != nil {
		r.POST(WebhookPath, webhook.Handle)
	}

	v1 := r.Group("/v1")
	{
		v1.GET("/convert/:base", conv.Convert)
		v1.GET("/rico", conv.Rico)
		v1.GET("/calc", calc.Calculate)
	}

	return r
}
