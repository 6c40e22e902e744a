package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"skyline-detector/internal/logger"
)

// Closer is a resource released when the run ends or is interrupted.
type Closer interface {
	Close() error
}

type namedCloser struct {
	name   string
	closer Closer
}

// Manager cancels the run context on SIGINT/SIGTERM and closes registered
// resources in reverse registration order.
type Manager struct {
	components []namedCloser
	logger     logger.Logger
	timeout    time.Duration
	mu         sync.Mutex
	done       chan struct{}
	ctx        context.Context
	cancel     context.CancelFunc
	stop       func()
}

func NewManager(parent context.Context, log logger.Logger) *Manager {
	ctx, cancel := context.WithCancel(parent)

	return &Manager{
		logger:  log,
		timeout: 10 * time.Second,
		done:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
		stop:    func() {},
	}
}

func (m *Manager) Register(name string, component Closer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.components = append(m.components, namedCloser{name: name, closer: component})
}

// Listen cancels Context on the first interrupt. The batch then stops between images.
func (m *Manager) Listen() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	m.mu.Lock()
	m.stop = func() { signal.Stop(sigChan) }
	m.mu.Unlock()

	go func() {
		select {
		case sig := <-sigChan:
			m.logger.Warning("ShutdownManager", "interrupt received, finishing current image", map[string]interface{}{
				"signal": sig.String(),
			})
			m.cancel()
		case <-m.done:
		}
	}()
}

// Shutdown cancels the context and closes every registered component once.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	select {
	case <-m.done:
		return
	default:
		close(m.done)
	}

	m.stop()
	m.cancel()

	for i := len(m.components) - 1; i >= 0; i-- {
		component := m.components[i]

		errCh := make(chan error, 1)
		go func() {
			errCh <- component.closer.Close()
		}()

		select {
		case err := <-errCh:
			if err != nil {
				m.logger.Error("ShutdownManager", err, map[string]interface{}{
					"component": component.name,
				})
			}
		case <-time.After(m.timeout):
			m.logger.Warning("ShutdownManager", "component close timeout", map[string]interface{}{
				"component": component.name,
			})
		}
	}

	m.logger.Debug("ShutdownManager", "shutdown completed", map[string]interface{}{
		"components": len(m.components),
	})
}

func (m *Manager) Context() context.Context {
	return m.ctx
}

func (m *Manager) Done() <-chan struct{} {
	return m.done
}
