package logger

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"trading-panel/pkg/common"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// AlertNotifier delivers operator alerts, usually to the admin chat.
type AlertNotifier interface {
	NotifyAdmin(ctx context.Context, text string) error
}

type AlertCore struct {
	core     zapcore.Core
	notifier AlertNotifier
	minLevel zapcore.Level
	timeout  time.Duration
}

// WithAlertNotifier returns a logger whose entries flagged by ErrorContextWithAlert
// are also forwarded to notifier.
func (l *Logger) WithAlertNotifier(notifier AlertNotifier, minLevel zapcore.Level) *Logger {
	if notifier == nil {
		return l
	}
	return &Logger{l.Logger.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return &AlertCore{core: c, notifier: notifier, minLevel: minLevel, timeout: 10 * time.Second}
	}))}
}

func (a *AlertCore) Enabled(lvl zapcore.Level) bool {
	return a.core.Enabled(lvl)
}

func (a *AlertCore) With(fields []zapcore.Field) zapcore.Core {
	return &AlertCore{
		core:     a.core.With(fields),
		notifier: a.notifier,
		minLevel: a.minLevel,
		timeout:  a.timeout,
	}
}

func (a *AlertCore) Check(entry zapcore.Entry, checkedEntry *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if a.Enabled(entry.Level) {
		return checkedEntry.AddCore(entry, a)
	}
	return checkedEntry
}

func (a *AlertCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	if entry.Level >= a.minLevel && hasAlertFlag(fields) {
		go a.sendAlert(entry, fields)
	}
	return a.core.Write(entry, fields)
}

func (a *AlertCore) Sync() error {
	return a.core.Sync()
}

func hasAlertFlag(fields []zapcore.Field) bool {
	for _, f := range fields {
		if f.Key == common.KEY_LOG_HOOK_SEND_ALERT && f.Type == zapcore.BoolType && f.Integer == 1 {
			return true
		}
	}
	return false
}

func (a *AlertCore) sendAlert(entry zapcore.Entry, fields []zapcore.Field) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	_ = a.notifier.NotifyAdmin(ctx, FormatAlertEntry(entry, fields))
}

// FormatAlertEntry renders a log entry as an HTML chat message.
func FormatAlertEntry(entry zapcore.Entry, fields []zapcore.Field) string {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		if f.Key == common.KEY_LOG_HOOK_SEND_ALERT {
			continue
		}
		f.AddTo(enc)
	}

	keys := make([]string, 0, len(enc.Fields))
	for k := range enc.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🚨 <b>%s alert</b>\n\n", entry.Level.CapitalString()))
	sb.WriteString(fmt.Sprintf("<b>Message:</b> %s\n", html.EscapeString(entry.Message)))
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf("• %s: %s\n", html.EscapeString(k), html.EscapeString(fmt.Sprint(enc.Fields[k]))))
	}
	sb.WriteString(fmt.Sprintf("\n<i>%s</i>", entry.Time.UTC().Format("2006-01-02 15:04:05")))
	return sb.String()
}
