package utils

import (
	"context"
	"sync"
	"time"
)

// Pinger is anything whose reachability can be probed.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthStatus represents current status of external services.
type HealthStatus struct {
	Services  map[string]bool `json:"services"`
	Healthy   bool            `json:"healthy"`
	CheckedAt time.Time       `json:"checkedAt"`
}

// HealthMonitor keeps the latest reachability snapshot of the dependencies.
type HealthMonitor struct {
	checks   map[string]Pinger
	interval time.Duration

	mu      sync.RWMutex
	current HealthStatus

	stop chan struct{}
	done chan struct{}
}

func NewHealthMonitor(checks map[string]Pinger, interval time.Duration) *HealthMonitor {
	return &HealthMonitor{
		checks:   checks,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Status returns latest stored health snapshot.
func (m *HealthMonitor) Status() HealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Check probes every dependency once and stores the result.
func (m *HealthMonitor) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{Services: make(map[string]bool, len(m.checks)), Healthy: true}
	for name, p := range m.checks {
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		ok := p.Ping(pctx) == nil
		cancel()
		status.Services[name] = ok
		status.Healthy = status.Healthy && ok
	}
	status.CheckedAt = time.Now()

	m.mu.Lock()
	m.current = status
	m.mu.Unlock()
	return status
}

// Start performs periodic health checks until Stop is called.
func (m *HealthMonitor) Start() {
	go func() {
		defer close(m.done)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		m.Check(context.Background())
		for {
			select {
			case <-ticker.C:
				m.Check(context.Background())
			case <-m.stop:
				return
			}
		}
	}()
}

// Stop halts the monitor and waits for it to exit.
func (m *HealthMonitor) Stop() {
	close(m.stop)
	<-m.done
}
