package optsync

import (
	"context"
	"log/slog"
	"sync"
)

// Manager caches the configured group and reports option changes.
type Manager struct {
	client *Client
	logger *slog.Logger

	mu    sync.RWMutex
	group string
}

func NewManager(client *Client, logger *slog.Logger) *Manager {
	return &Manager{client: client, logger: logger, group: DefaultGroup}
}

// Refresh re-reads the options and reports whether the group changed.
func (m *Manager) Refresh(ctx context.Context) (bool, error) {
	group, err := m.client.FetchGroup(ctx)
	if err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if group == m.group {
		return false, nil
	}
	m.logger.Info("consumer group updated", "from", m.group, "to", group)
	m.group = group
	return true, nil
}

// Group returns the currently configured consumer group.
func (m *Manager) Group() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.group
}
