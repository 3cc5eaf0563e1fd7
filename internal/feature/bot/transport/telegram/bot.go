// Package telegram はTelegram Bot APIとのやり取り（コマンドの振り分け、返信、ポーリング、Webhook）を提供します。
package telegram

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	calcdomain "fxchart_bot/internal/feature/calculator/domain"
	calcentity "fxchart_bot/internal/feature/calculator/domain/entity"
	calcusecase "fxchart_bot/internal/feature/calculator/usecase"
	convdomain "fxchart_bot/internal/feature/conversion/domain"
	"fxchart_bot/internal/feature/conversion/domain/entity"
	usageentity "fxchart_bot/internal/feature/usage/domain/entity"
)

// DefaultUpdateTimeout は1件のupdate処理にかけられる最大時間です。
const DefaultUpdateTimeout = 60 * time.Second

// Sender はBot APIへの送信を抽象化します。*botApi.BotAPI がこれを満たします。
type Sender interface {
	Send(c botApi.Chattable) (botApi.Message, error)
	Request(c botApi.Chattable) (*botApi.APIResponse, error)
}

// ConversionUsecase は換算画像を生成するユースケースです。
type ConversionUsecase interface {
	Convert(ctx context.Context, req entity.ConversionRequest) (*entity.ConversionResult, error)
	RicoRates(ctx context.Context) (*entity.ConversionResult, error)
}

// Calculator は算術式を評価するユースケースです。
type Calculator interface {
	Calculate(ctx context.Context, expression string) (*calcentity.Calculation, error)
}

// ParseFunc はコマンド引数をConversionRequestに変換します。
type ParseFunc func(args []string, base string) entity.ConversionRequest

// Limiter はユーザーごとのコマンド実行回数を制限します。
type Limiter interface {
	Allow(ctx context.Context, key int64) bool
}

// UsageRecorder はコマンドの監査ログを記録します。
type UsageRecorder interface {
	Record(ctx context.Context, rec usageentity.UsageRecord)
}

// Bot はupdateをコマンドごとのハンドラーに振り分けます。
type Bot struct {
	sender  Sender
	conv    ConversionUsecase
	calc    Calculator
	parse   ParseFunc
	limiter Limiter
	usage   UsageRecorder
	timeout time.Duration
	newID   func() string
}

// Option はBotのオプション設定です。
type Option func(*Bot)

// WithLimiter sets the per-user throttle for rendering commands.
func WithLimiter(l Limiter) Option {
	return func(b *Bot) { b.limiter = l }
}

// WithUsage sets the audit recorder.
func WithUsage(u UsageRecorder) Option {
	return func(b *Bot) { b.usage = u }
}

// WithTimeout overrides DefaultUpdateTimeout.
func WithTimeout(d time.Duration) Option {
	return func(b *Bot) { b.timeout = d }
}

// NewBot はBotの新しいインスタンスを生成します。
func NewBot(sender Sender, conv ConversionUsecase, calc Calculator, parse ParseFunc, opts ...Option) *Bot {
	b := &Bot{
		sender:  sender,
		conv:    conv,
		calc:    calc,
		parse:   parse,
		timeout: DefaultUpdateTimeout,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// call は1件のupdate処理に紐づく情報です。
type call struct {
	id    string
	log   *slog.Logger
	msg   *botApi.Message
	start time.Time
}

// HandleUpdate は1件のupdateを処理します。パニックはここで回収し、プロセスを落としません。
func (b *Bot) HandleUpdate(ctx context.Context, update botApi.Update) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	c := &call{
		id:    b.newID(),
		msg:   update.Message,
		start: time.Now(),
	}
	c.log = slog.With("request_id", c.id, "update_id", update.UpdateID)

	defer func() {
		if r := recover(); r != nil {
			c.log.Error("panic while handling update", "panic", r, "stack", string(debug.Stack()))
			if c.msg != nil && c.msg.Chat != nil {
				b.replyAfterPanic(c)
			}
		}
	}()

	switch {
	case update.InlineQuery != nil:
		b.handleInline(ctx, c, update.InlineQuery)
	case update.Message != nil && update.Message.Chat != nil:
		b.handleMessage(ctx, c)
	}
}

func (b *Bot) replyAfterPanic(c *call) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("failed to send error message", "panic", r)
		}
	}()
	b.reply(c, unexpectedErrorText, botApi.ModeHTML)
}

func (b *Bot) handleMessage(ctx context.Context, c *call) {
	text := strings.TrimSpace(c.msg.Text)
	if !strings.HasPrefix(text, "/") {
		return
	}

	if calcusecase.IsMathExpression(text) {
		b.record(ctx, c, "calc", text, b.handleMath(ctx, c, text))
		return
	}

	cmd, args := splitCommand(text)
	if c.msg.From != nil {
		c.log = c.log.With("user_id", c.msg.From.ID, "username", c.msg.From.UserName)
	}
	c.log = c.log.With("command", cmd)

	var outcome usageentity.Outcome
	switch {
	case cmd == "start":
		outcome = b.sendText(c, welcomeMessage, botApi.ModeHTML)
	case cmd == "help":
		outcome = b.sendText(c, helpMessage(), botApi.ModeHTML)
	case cmd == "groupid":
		outcome = b.handleGroupID(c)
	case cmd == "rico":
		outcome = b.handleRico(ctx, c)
	case entity.IsSupportedBase(cmd):
		outcome = b.handleConversion(ctx, c, strings.ToUpper(cmd), args)
	default:
		c.log.Debug("ignoring unknown command")
		return
	}
	b.record(ctx, c, cmd, strings.Join(args, " "), outcome)
}

// splitCommand returns the lowercase command without "/" or "@botname" and the remaining fields.
func splitCommand(text string) (string, []string) {
	fields := strings.Fields(text)
	cmd := strings.TrimPrefix(fields[0], "/")
	if i := strings.IndexByte(cmd, '@'); i >= 0 {
		cmd = cmd[:i]
	}
	return strings.ToLower(cmd), fields[1:]
}

func (b *Bot) handleMath(ctx context.Context, c *call, text string) usageentity.Outcome {
	c.log.Info("processing math expression", "expression", text)

	res, err := b.calc.Calculate(ctx, text)
	if err != nil {
		c.log.Warn("failed to calculate", "expression", text, "error", err)
		if errors.Is(err, calcdomain.ErrDivisionByZero) {
			b.reply(c, calcDivisionByZeroText, "")
		} else {
			b.reply(c, calcInvalidText, "")
		}
		return usageentity.OutcomeInvalidInput
	}
	return b.sendText(c, calcResultText(res.Expression, res.Formatted), botApi.ModeMarkdown)
}

func (b *Bot) handleGroupID(c *call) usageentity.Outcome {
	chat := c.msg.Chat
	if chat != nil && (chat.IsGroup() || chat.IsSuperGroup()) {
		return b.sendText(c, groupIDText(chat.ID, chat.Title), botApi.ModeHTML)
	}
	c.log.Info("rejected groupid command in non-group chat")
	b.reply(c, groupOnlyText, "")
	return usageentity.OutcomeInvalidInput
}

func (b *Bot) handleConversion(ctx context.Context, c *call, base string, args []string) usageentity.Outcome {
	if !b.allow(ctx, c) {
		return usageentity.OutcomeThrottled
	}

	req := b.parse(args, base)
	c.log.Info("executing conversion command", "amount", req.Amount, "from", req.From, "to", req.To)

	progress := b.reply(c, progressText(req.From, req.To), "")
	res, err := b.conv.Convert(ctx, req)
	b.deleteMessage(c, progress)

	if err != nil {
		return b.replyError(c, base, err)
	}
	return b.sendPhoto(c, res, botApi.ModeHTML)
}

func (b *Bot) handleRico(ctx context.Context, c *call) usageentity.Outcome {
	if !b.allow(ctx, c) {
		return usageentity.OutcomeThrottled
	}

	progress := b.reply(c, ricoProgressText, "")
	res, err := b.conv.RicoRates(ctx)
	b.deleteMessage(c, progress)

	if err != nil {
		return b.replyError(c, "", err)
	}
	return b.sendPhoto(c, res, "")
}

func (b *Bot) allow(ctx context.Context, c *call) bool {
	if b.limiter == nil || c.msg.From == nil {
		return true
	}
	if b.limiter.Allow(ctx, c.msg.From.ID) {
		return true
	}
	c.log.Info("command throttled")
	b.reply(c, throttledText, "")
	return false
}

// replyError maps a failed conversion to the user-facing text.
func (b *Bot) replyError(c *call, base string, err error) usageentity.Outcome {
	switch {
	case errors.Is(err, convdomain.ErrInvalidRequest) && base != "":
		c.log.Warn("invalid conversion input", "error", err)
		b.reply(c, usageText(base), "")
		return usageentity.OutcomeInvalidInput
	case errors.Is(err, convdomain.ErrExternalFetch):
		c.log.Error("external fetch failed", "error", err)
		b.reply(c, fetchFailedText(), "")
		return usageentity.OutcomeFetchFailed
	default:
		c.log.Error("conversion failed", "error", err)
		b.reply(c, unexpectedErrorText, botApi.ModeHTML)
		return usageentity.OutcomeError
	}
}

func (b *Bot) sendPhoto(c *call, res *entity.ConversionResult, parseMode string) usageentity.Outcome {
	photo := botApi.NewPhoto(c.msg.Chat.ID, botApi.FileBytes{Name: "chart.png", Bytes: res.Image})
	photo.Caption = res.Caption
	photo.ParseMode = parseMode
	photo.ReplyToMessageID = c.msg.MessageID

	if _, err := b.sender.Send(photo); err != nil {
		c.log.Error("failed to send photo", "error", err)
		b.reply(c, fetchFailedText(), "")
		return usageentity.OutcomeError
	}
	c.log.Info("image sent successfully")
	return usageentity.OutcomeOK
}

func (b *Bot) sendText(c *call, text, parseMode string) usageentity.Outcome {
	if b.reply(c, text, parseMode) == nil {
		return usageentity.OutcomeError
	}
	return usageentity.OutcomeOK
}

// reply sends text as a reply to the current message. It returns nil when sending failed.
func (b *Bot) reply(c *call, text, parseMode string) *botApi.Message {
	m := botApi.NewMessage(c.msg.Chat.ID, text)
	m.ParseMode = parseMode
	m.ReplyToMessageID = c.msg.MessageID

	sent, err := b.sender.Send(m)
	if err != nil {
		c.log.Error("failed to send message", "error", err)
		return nil
	}
	return &sent
}

// deleteMessage removes the progress message. Failure is logged only.
func (b *Bot) deleteMessage(c *call, m *botApi.Message) {
	if m == nil {
		return
	}
	if _, err := b.sender.Request(botApi.NewDeleteMessage(c.msg.Chat.ID, m.MessageID)); err != nil {
		c.log.Warn("could not delete progress message", "error", err)
	}
}

func (b *Bot) handleInline(ctx context.Context, c *call, q *botApi.InlineQuery) {
	query := strings.TrimSpace(q.Query)
	c.log.Info("processing inline query", "query", query)

	var article botApi.InlineQueryResultArticle
	if query == "" {
		article = botApi.NewInlineQueryResultArticleMarkdown("help", inlineHelpTitle, inlineHelpText)
		article.Description = inlineHelpDescription
	} else {
		expression := strings.TrimPrefix(query, "/")
		title := "Calculate: " + expression

		res, err := b.calc.Calculate(ctx, "/"+expression)
		switch {
		case err == nil:
			article = botApi.NewInlineQueryResultArticleMarkdown("1", title, calcResultText(res.Expression, res.Formatted))
			article.Description = res.Formatted
		case errors.Is(err, calcdomain.ErrDivisionByZero):
			article = botApi.NewInlineQueryResultArticle("1", title, calcDivisionByZeroText)
			article.Description = "Invalid expression"
		default:
			article = botApi.NewInlineQueryResultArticle("1", title, calcInvalidText)
			article.Description = "Invalid expression"
		}
	}

	answer := botApi.InlineConfig{
		InlineQueryID: q.ID,
		Results:       []interface{}{article},
	}
	if _, err := b.sender.Request(answer); err != nil {
		c.log.Error("failed to answer inline query", "error", err)
	}
}

func (b *Bot) record(ctx context.Context, c *call, command, args string, outcome usageentity.Outcome) {
	if b.usage == nil {
		return
	}
	rec := usageentity.UsageRecord{
		RequestID: c.id,
		ChatID:    c.msg.Chat.ID,
		Command:   command,
		Args:      args,
		Outcome:   outcome,
		Duration:  time.Since(c.start),
	}
	if c.msg.From != nil {
		rec.UserID = c.msg.From.ID
		rec.Username = c.msg.From.UserName
	}
	// 処理のタイムアウトに影響されないよう、記録はキャンセルされないコンテキストで行います。
	b.usage.Record(context.WithoutCancel(ctx), rec)
}
