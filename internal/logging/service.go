package logging

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

const timeFormat = "2006-01-02T15:04:05.000Z07:00"

// Service owns the installed registry. Channels obtained from it resolve
// the current registry on every call, so they are safe to hand out before
// Apply() and they survive a re-Apply.
//
// In this application Apply() runs exactly once, at startup; the swap
// machinery exists for disable_existing_loggers semantics and for tests.
type Service struct {
	reg atomic.Value // *Registry

	mu     sync.Mutex
	issued map[string]struct{}
	muted  map[string]struct{}
}

// New validates and installs cfg, returning the Service and the root
// channel. A *ConfigError means cfg is internally inconsistent; the
// caller should treat it as fatal.
func New(cfg Config, opts ...Option) (*Service, Logger, error) {
	zerolog.TimeFieldFormat = timeFormat
	zerolog.ErrorFieldName = "err"

	s := &Service{
		issued: map[string]struct{}{},
		muted:  map[string]struct{}{},
	}
	if err := s.Apply(cfg, opts...); err != nil {
		return nil, Logger{}, err
	}
	return s, s.Channel(""), nil
}

// Apply installs a new configuration. With disable_existing_loggers set,
// channels issued under the previous configuration that the new one does
// not declare stop emitting; otherwise they keep resolving through the
// swapped registry.
func (s *Service) Apply(cfg Config, opts ...Option) error {
	reg, err := Build(cfg, opts...)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if cfg.DisableExistingLoggers {
		for name := range s.issued {
			if !reg.declared(name) {
				s.muted[name] = struct{}{}
			}
		}
	}
	s.mu.Unlock()

	old := s.current()
	s.reg.Store(reg)
	if old != nil {
		_ = old.Close()
	}
	return nil
}

func (s *Service) current() *Registry {
	v := s.reg.Load()
	if v == nil {
		return nil
	}
	return v.(*Registry)
}

// Channel returns the named logger channel ("" is the root).
func (s *Service) Channel(name string) Logger {
	s.mu.Lock()
	s.issued[name] = struct{}{}
	s.mu.Unlock()
	return Logger{svc: s, name: name}
}

func (s *Service) isMuted(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.muted[name]
	return ok
}

// Close releases file sinks.
func (s *Service) Close() error {
	if reg := s.current(); reg != nil {
		return reg.Close()
	}
	return nil
}
