package generation

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"careplan-service/config"

	"github.com/sirupsen/logrus"
)

// Factory builds a backend on first use.
type Factory func() Backend

// Selector resolves a backend name, caching one instance per name so
// breaker state is shared across jobs.
type Selector struct {
	mu          sync.Mutex
	log         *logrus.Logger
	factories   map[string]Factory
	instances   map[string]Backend
	defaultName string
	useMock     bool
}

func NewSelector(cfg config.LLMConfig, log *logrus.Logger) *Selector {
	s := &Selector{
		log:         log,
		factories:   make(map[string]Factory),
		instances:   make(map[string]Backend),
		defaultName: normalize(cfg.Provider),
		useMock:     cfg.UseMock,
	}
	if s.defaultName == "" {
		s.defaultName = BackendOpenAI
	}

	s.Register(BackendOpenAI, func() Backend {
		return withBreaker(NewOpenAIBackend(cfg.OpenAIAPIKey, cfg.OpenAIModel, ""), log)
	})
	s.Register(BackendClaude, func() Backend {
		return withBreaker(NewClaudeBackend(cfg.AnthropicAPIKey, cfg.ClaudeModel), log)
	})
	s.Register(BackendMock, func() Backend {
		return NewMockBackend()
	})
	return s
}

// Register adds or replaces a backend. A cached instance is dropped.
func (s *Selector) Register(name string, f Factory) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = normalize(name)
	s.factories[name] = f
	delete(s.instances, name)
}

// Supports reports whether hint names a registered backend. An empty hint
// means the default and is always supported, as is any hint while the mock
// override is on.
func (s *Selector) Supports(hint string) bool {
	name := normalize(hint)
	if name == "" || s.useMock {
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.factories[name]
	return ok
}

// Resolve picks the backend for hint. The mock override wins over any
// hint, then the hint, then the configured default.
func (s *Selector) Resolve(hint string) (Backend, error) {
	name := normalize(hint)
	if s.useMock {
		name = BackendMock
	} else if name == "" {
		name = s.defaultName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if b, ok := s.instances[name]; ok {
		return b, nil
	}

	f, ok := s.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s (known: %s)", ErrUnknownBackend, name, strings.Join(s.knownLocked(), ", "))
	}

	b := f()
	s.instances[name] = b
	s.log.Debugf("Generation backend initialized: %s", name)
	return b, nil
}

func (s *Selector) Known() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.knownLocked()
}

func (s *Selector) knownLocked() []string {
	known := make([]string, 0, len(s.factories))
	for name := range s.factories {
		known = append(known, name)
	}
	sort.Strings(known)
	return known
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
