// Package entity はusageフィーチャーのドメインモデルを定義します。
package entity

import "time"

// Outcome はコマンド処理の結果区分です。
type Outcome string

const (
	OutcomeOK           Outcome = "ok"
	OutcomeInvalidInput Outcome = "invalid_input"
	OutcomeFetchFailed  Outcome = "fetch_failed"
	OutcomeThrottled    Outcome = "throttled"
	OutcomeError        Outcome = "error"
)

// UsageRecord は1回のコマンド処理の監査ログです。レートそのものは保持しません。
type UsageRecord struct {
	RequestID string
	ChatID    int64
	UserID    int64
	Username  string
	Command   string
	Args      string
	Outcome   Outcome
	Duration  time.Duration
	CreatedAt time.Time
}
