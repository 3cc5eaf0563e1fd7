// Package logger はcharmbracelet/logをバックエンドとするslogロガーを構築します。
package logger

import (
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// Options はロガーの設定です。
type Options struct {
	Level  string // debug, info, warn, error
	Format string // text or json
	Prefix string
}

var formatters = map[string]log.Formatter{
	"json":   log.JSONFormatter,
	"text":   log.TextFormatter,
	"logfmt": log.LogfmtFormatter,
}

// New は w に出力する *slog.Logger を返します。
func New(w io.Writer, opts Options) *slog.Logger {
	formatter := log.TextFormatter
	if f, ok := formatters[strings.ToLower(opts.Format)]; ok {
		formatter = f
	}

	handler := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "2006-01-02 15:04:05",
		Level:           ParseLevel(opts.Level),
		Prefix:          opts.Prefix,
		Formatter:       formatter,
	})
	handler.SetStyles(styles())

	return slog.New(handler)
}

// Setup は New で作ったロガーをデフォルトに設定して返します。
func Setup(w io.Writer, opts Options) *slog.Logger {
	l := New(w, opts)
	slog.SetDefault(l)
	return l
}

// ParseLevel は文字列をログレベルに変換します。不明な値はinfoになります。
func ParseLevel(s string) log.Level {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

func styles() *log.Styles {
	s := log.DefaultStyles()
	level := func(icon, color string) lipgloss.Style {
		c := lipgloss.AdaptiveColor{Light: color, Dark: color}
		return lipgloss.NewStyle().SetString(icon).Bold(true).Padding(0, 1).Foreground(c)
	}
	s.Levels[log.ErrorLevel] = level("❌", "#FF6B6B")
	s.Levels[log.WarnLevel] = level("⚠️", "#EE6FF8")
	s.Levels[log.InfoLevel] = level("ℹ️", "#04B575")
	s.Levels[log.DebugLevel] = level("🐛", "#7E57C2")

	errColor := lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF6B6B"}
	s.Keys["error"] = lipgloss.NewStyle().Foreground(errColor)
	s.Values["error"] = lipgloss.NewStyle().Bold(true)
	s.Keys["request_id"] = lipgloss.NewStyle().Faint(true)
	return s
}
