// Package memory records notifications in memory, for dry runs and tests.
package memory

import (
	"context"
	"sync"
)

// Notifier stores notification contents for inspection.
type Notifier struct {
	mu       sync.RWMutex
	messages []string
}

// New returns a memory Notifier.
func New() *Notifier {
	return &Notifier{}
}

// Notify records the content.
func (n *Notifier) Notify(_ context.Context, content string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, content)
	return nil
}

// Messages returns the recorded notifications.
func (n *Notifier) Messages() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]string, len(n.messages))
	copy(out, n.messages)
	return out
}
