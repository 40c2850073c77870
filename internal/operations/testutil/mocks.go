// Package testutil holds doubles shared by the operations, services and
// transport tests.
package testutil

import (
	"context"
	"sync"
	"time"

	"infrapulse/internal/indicators"
)

// MockWebSocketHub captures broadcast updates for testing
type MockWebSocketHub struct {
	mu       sync.Mutex
	Messages []WebSocketMessage
}

// WebSocketMessage represents a captured broadcast
type WebSocketMessage struct {
	EventType string
	Step      string
	Status    string
	Metadata  interface{}
	Time      time.Time
}

// BroadcastUpdate captures a message
func (m *MockWebSocketHub) BroadcastUpdate(eventType, step, status string, metadata interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Messages = append(m.Messages, WebSocketMessage{
		EventType: eventType,
		Step:      step,
		Status:    status,
		Metadata:  metadata,
		Time:      time.Now(),
	})
}

// GetMessages returns all captured messages
func (m *MockWebSocketHub) GetMessages() []WebSocketMessage {
	m.mu.Lock()
	defer m.mu.Unlock()

	messages := make([]WebSocketMessage, len(m.Messages))
	copy(messages, m.Messages)
	return messages
}

// GetMessagesByType returns messages of a specific type
func (m *MockWebSocketHub) GetMessagesByType(eventType string) []WebSocketMessage {
	m.mu.Lock()
	defer m.mu.Unlock()

	var filtered []WebSocketMessage
	for _, msg := range m.Messages {
		if msg.EventType == eventType {
			filtered = append(filtered, msg)
		}
	}
	return filtered
}

// StubCollector returns fixed series inputs
type StubCollector struct {
	Inputs indicators.Inputs
	Err    error
	Calls  int
	mu     sync.Mutex
}

// Collect returns the configured inputs, or ctx.Err() once cancelled
func (s *StubCollector) Collect(ctx context.Context) (indicators.Inputs, error) {
	s.mu.Lock()
	s.Calls++
	s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return indicators.Inputs{}, err
	}
	return s.Inputs, s.Err
}
