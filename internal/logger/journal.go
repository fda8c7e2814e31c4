package logger

import (
	"fmt"
	"strings"

	"github.com/coreos/go-systemd/v22/journal"
	"go.uber.org/zap/zapcore"
)

const syslogIdentifier = "volumectl"

// 便于测试替换
var (
	journalEnabled = journal.Enabled
	journalSend    = journal.Send
)

// journalCore 将日志写入 systemd journal 的 zapcore.Core
type journalCore struct {
	zapcore.LevelEnabler
	fields []zapcore.Field
}

func newJournalCore(enab zapcore.LevelEnabler) *journalCore {
	return &journalCore{LevelEnabler: enab}
}

func (c *journalCore) With(fields []zapcore.Field) zapcore.Core {
	clone := &journalCore{
		LevelEnabler: c.LevelEnabler,
		fields:       make([]zapcore.Field, 0, len(c.fields)+len(fields)),
	}
	clone.fields = append(clone.fields, c.fields...)
	clone.fields = append(clone.fields, fields...)
	return clone
}

func (c *journalCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *journalCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}

	vars := make(map[string]string, len(enc.Fields)+3)
	for k, v := range enc.Fields {
		vars[journalKey(k)] = fmt.Sprint(v)
	}
	vars["SYSLOG_IDENTIFIER"] = syslogIdentifier
	if ent.LoggerName != "" {
		vars["LOGGER"] = ent.LoggerName
	}
	if ent.Stack != "" {
		vars["STACKTRACE"] = ent.Stack
	}
	if ent.Caller.Defined {
		vars["CODE_FILE"] = ent.Caller.File
		vars["CODE_LINE"] = fmt.Sprint(ent.Caller.Line)
	}

	return journalSend(ent.Message, journalPriority(ent.Level), vars)
}

func (c *journalCore) Sync() error {
	return nil
}

// journalPriority 将 zap 级别映射为 journal 优先级
func journalPriority(l zapcore.Level) journal.Priority {
	switch l {
	case zapcore.DebugLevel:
		return journal.PriDebug
	case zapcore.InfoLevel:
		return journal.PriInfo
	case zapcore.WarnLevel:
		return journal.PriWarning
	case zapcore.ErrorLevel:
		return journal.PriErr
	case zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		return journal.PriCrit
	default:
		return journal.PriEmerg
	}
}

// journalKey journal 字段名只允许大写字母、数字和下划线，且必须以字母开头
func journalKey(k string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(k) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	key := strings.TrimLeft(b.String(), "_")
	if key == "" || (key[0] >= '0' && key[0] <= '9') {
		key = "F_" + key
	}
	return key
}
