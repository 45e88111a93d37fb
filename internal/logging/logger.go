package logging

import (
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// Field mutates a zerolog event. Fields are applied in order; setting the
// same key twice keeps the later value.
type Field func(e *zerolog.Event)

func String(k, v string) Field  { return func(e *zerolog.Event) { e.Str(k, v) } }
func Int(k string, v int) Field { return func(e *zerolog.Event) { e.Int(k, v) } }
func Int64(k string, v int64) Field {
	return func(e *zerolog.Event) { e.Int64(k, v) }
}
func Bool(k string, v bool) Field { return func(e *zerolog.Event) { e.Bool(k, v) } }
func Duration(k string, v time.Duration) Field {
	return func(e *zerolog.Event) { e.Dur(k, v) }
}
func Any(k string, v any) Field { return func(e *zerolog.Event) { e.Interface(k, v) } }
func Err(err error) Field {
	return func(e *zerolog.Event) {
		if err != nil {
			e.Err(err)
		}
	}
}

// Logger is a channel handle. The zero value is a safe no-op.
type Logger struct {
	svc    *Service
	name   string
	fields []Field
}

// Nop returns a logger that never writes anything.
func Nop() Logger { return Logger{} }

func (l Logger) IsZero() bool { return l.svc == nil }

// Name returns the channel name ("" for the root).
func (l Logger) Name() string { return l.name }

// With returns a derived logger carrying additional fixed fields.
func (l Logger) With(fields ...Field) Logger {
	if len(fields) == 0 {
		return l
	}
	cp := l
	cp.fields = append(append([]Field(nil), l.fields...), fields...)
	return cp
}

// Enabled reports whether the given severity would pass the channel
// threshold.
func (l Logger) Enabled(level Level) bool {
	if l.svc == nil {
		return false
	}
	reg := l.svc.current()
	if reg == nil || l.svc.isMuted(l.name) {
		return false
	}
	zl := reg.resolve(l.name)
	return level >= zl.GetLevel()
}

func (l Logger) Debug(msg string, fields ...Field)    { l.log(LevelDebug, msg, fields...) }
func (l Logger) Info(msg string, fields ...Field)     { l.log(LevelInfo, msg, fields...) }
func (l Logger) Warn(msg string, fields ...Field)     { l.log(LevelWarning, msg, fields...) }
func (l Logger) Error(msg string, fields ...Field)    { l.log(LevelError, msg, fields...) }
func (l Logger) Critical(msg string, fields ...Field) { l.log(LevelCritical, msg, fields...) }

func (l Logger) log(level Level, msg string, fields ...Field) {
	if l.svc == nil {
		return
	}
	reg := l.svc.current()
	if reg == nil || l.svc.isMuted(l.name) {
		return
	}

	zl := reg.resolve(l.name)
	e := zl.WithLevel(level)
	if e == nil {
		return
	}
	if caller := shortCaller(3); caller != "" {
		e.Str(zerolog.CallerFieldName, caller)
	}
	for _, f := range l.fields {
		if f != nil {
			f(e)
		}
	}
	for _, f := range fields {
		if f != nil {
			f(e)
		}
	}
	e.Msg(msg)
}

func shortCaller(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok || file == "" {
		return ""
	}
	return filepath.Base(file) + ":" + strconv.Itoa(line)
}
