package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// sink is one installed handler: a writer plus its own threshold and
// formatter. The mutex serializes formatted lines, so concurrent channels
// sharing a sink never interleave partial records.
type sink struct {
	name string
	min  Level
	tmpl *template

	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
}

func (s *sink) Write(p []byte) (int, error) {
	return s.WriteLevel(LevelDebug, p)
}

func (s *sink) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < s.min {
		return len(p), nil
	}
	line := s.tmpl.render(level, p)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := io.WriteString(s.w, line); err != nil {
		return len(p), err
	}
	return len(p), nil
}

func (s *sink) close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// Registry is an installed configuration: sinks plus the resolved channel
// tree. It is immutable after Build.
type Registry struct {
	cfg      Config
	sinks    map[string]*sink
	channels map[string]zerolog.Logger

	mu      sync.Mutex
	derived map[string]zerolog.Logger
}

// Option adjusts registry construction. Used by tests to capture sink
// output in memory.
type Option func(*buildOptions)

type buildOptions struct {
	writers map[string]io.Writer
}

// WithWriter overrides the output of the named handler.
func WithWriter(handler string, w io.Writer) Option {
	return func(o *buildOptions) {
		if o.writers == nil {
			o.writers = map[string]io.Writer{}
		}
		o.writers[handler] = w
	}
}

// Build validates cfg and constructs the live registry: every sink is
// opened and every declared channel resolved to its threshold and sink
// set. Any inconsistency aborts with *ConfigError and nothing is opened
// half-way (validation runs before the first sink is created).
func Build(cfg Config, opts ...Option) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var bo buildOptions
	for _, o := range opts {
		o(&bo)
	}

	r := &Registry{
		cfg:      cfg,
		sinks:    make(map[string]*sink, len(cfg.Handlers)),
		channels: make(map[string]zerolog.Logger, len(cfg.Loggers)),
		derived:  map[string]zerolog.Logger{},
	}

	for name, hc := range cfg.Handlers {
		s, err := r.buildSink(name, hc, bo.writers[name])
		if err != nil {
			r.closeSinks()
			return nil, err
		}
		r.sinks[name] = s
	}

	for name := range cfg.Loggers {
		lvl, _ := ParseLevel(cfg.Loggers[name].Level)
		r.channels[name] = r.newChannel(name, lvl, r.effectiveSinks(name))
	}
	return r, nil
}

func (r *Registry) buildSink(name string, hc HandlerConfig, override io.Writer) (*sink, error) {
	lvl, _ := ParseLevel(hc.Level)
	tmpl, _ := compileTemplate(r.cfg.Formatters[hc.Formatter].Format)
	s := &sink{name: name, min: lvl, tmpl: tmpl}

	if override != nil {
		s.w = override
		return s, nil
	}

	switch strings.ToLower(strings.TrimSpace(hc.Class)) {
	case "console":
		if strings.EqualFold(strings.TrimSpace(hc.Stream), "stderr") {
			s.w = os.Stderr
		} else {
			s.w = os.Stdout
		}
	case "file":
		rw, err := newRotatingWriter(hc.Filename, hc.MaxBytes, hc.BackupCount)
		if err != nil {
			return nil, err
		}
		s.w = rw
		s.closer = rw
	}
	return s, nil
}

// effectiveSinks resolves the sink set a channel's records reach: its own
// handlers when declared, otherwise (with propagation on) the nearest
// ancestor's set. Validate() guarantees the root declares handlers, so
// propagation always terminates.
func (r *Registry) effectiveSinks(name string) []*sink {
	lc := r.cfg.Loggers[name]
	if len(lc.Handlers) > 0 {
		out := make([]*sink, 0, len(lc.Handlers))
		for _, h := range lc.Handlers {
			out = append(out, r.sinks[h])
		}
		return out
	}
	if !lc.propagate() || name == "" {
		return nil
	}
	return r.effectiveSinks(parentName(name, r.cfg.Loggers))
}

// parentName walks up the dotted hierarchy to the nearest declared
// ancestor, falling back to the root.
func parentName(name string, declared map[string]LoggerConfig) string {
	for {
		i := strings.LastIndexByte(name, '.')
		if i < 0 {
			return ""
		}
		name = name[:i]
		if _, ok := declared[name]; ok {
			return name
		}
	}
}

func (r *Registry) newChannel(name string, lvl Level, sinks []*sink) zerolog.Logger {
	if len(sinks) == 0 {
		return zerolog.Nop()
	}
	ws := make([]io.Writer, len(sinks))
	for i, s := range sinks {
		ws[i] = s
	}
	display := name
	if display == "" {
		display = "root"
	}
	return zerolog.New(zerolog.MultiLevelWriter(ws...)).
		Level(lvl).
		With().Timestamp().Str("logger", display).
		Logger()
}

// resolve returns the channel logger for name. Undeclared names inherit
// threshold and sinks from the nearest declared ancestor (ultimately the
// root) while keeping their own name on the record.
func (r *Registry) resolve(name string) zerolog.Logger {
	if zl, ok := r.channels[name]; ok {
		return zl
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if zl, ok := r.derived[name]; ok {
		return zl
	}

	anc := name
	if _, ok := r.cfg.Loggers[anc]; !ok {
		anc = parentName(anc, r.cfg.Loggers)
	}
	lvl, _ := ParseLevel(r.cfg.Loggers[anc].Level)
	zl := r.newChannel(name, lvl, r.effectiveSinks(anc))
	r.derived[name] = zl
	return zl
}

func (r *Registry) declared(name string) bool {
	_, ok := r.cfg.Loggers[name]
	return ok
}

func (r *Registry) closeSinks() {
	for _, s := range r.sinks {
		_ = s.close()
	}
}

// Close releases file sinks. Console streams are left alone.
func (r *Registry) Close() error {
	r.closeSinks()
	return nil
}
