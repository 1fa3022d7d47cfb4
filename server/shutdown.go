package server

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/Jatayu-u/Soap-notes-generation-RAG/logging"
)

// DefaultShutdownTimeout bounds the time spent running shutdown hooks.
const DefaultShutdownTimeout = 15 * time.Second

// Hook priorities. Lower runs first.
const (
	PriorityHTTP    = 10
	PriorityClients = 50
	PriorityStore   = 70
	PriorityTracing = 80
)

// ShutdownHook is a function called during shutdown.
type ShutdownHook struct {
	Name     string
	Priority int
	Fn       func(ctx context.Context) error
}

// Shutdown runs registered hooks once, in priority order.
type Shutdown struct {
	mu      sync.Mutex
	hooks   []ShutdownHook
	timeout time.Duration
	once    sync.Once
}

func NewShutdown(timeout time.Duration) *Shutdown {
	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}
	return &Shutdown{timeout: timeout}
}

// RegisterHook adds a shutdown hook. Hooks of equal priority run in
// registration order.
func (s *Shutdown) RegisterHook(name string, priority int, fn func(ctx context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hooks = append(s.hooks, ShutdownHook{Name: name, Priority: priority, Fn: fn})
	slices.SortStableFunc(s.hooks, func(a, b ShutdownHook) int {
		return a.Priority - b.Priority
	})
}

// Run executes every hook within the shutdown timeout. A failing hook is
// logged and the remaining hooks still run. Only the first call has effect.
func (s *Shutdown) Run(ctx context.Context) {
	s.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()

		s.mu.Lock()
		hooks := slices.Clone(s.hooks)
		s.mu.Unlock()

		logger := logging.Component(ctx, "shutdown")
		for _, hook := range hooks {
			if err := hook.Fn(ctx); err != nil {
				logger.Error("shutdown hook failed", "hook", hook.Name, "error", err)
				continue
			}
			logger.Debug("shutdown hook done", "hook", hook.Name)
		}
	})
}
