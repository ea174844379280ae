package http

import (
	"log/slog"
	"sync"
)

// AllRuns is the topic that receives the messages of every run.
const AllRuns = ""

// Message is one server-sent event.
type Message struct {
	Event string
	Data  []byte
}

// StreamManager handles active SSE connections
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- Message]struct{} // Topic -> Set of Channels
	buffer      int
	logger      *slog.Logger
}

// NewStreamManager creates a manager whose subscribers buffer up to buffer messages.
func NewStreamManager(buffer int, logger *slog.Logger) *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- Message]struct{}),
		buffer:      buffer,
		logger:      logger,
	}
}

// Subscribe registers a listener for topic. The returned func unsubscribes and closes
// the channel.
func (sm *StreamManager) Subscribe(topic string) (<-chan Message, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan Message, sm.buffer)
	if _, ok := sm.subscribers[topic]; !ok {
		sm.subscribers[topic] = make(map[chan<- Message]struct{})
	}
	sm.subscribers[topic][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[topic]; ok {
				delete(subs, ch)
				close(ch)
				if len(subs) == 0 {
					delete(sm.subscribers, topic)
				}
			}
		})
	}
}

// Subscribers returns the number of listeners on topic.
func (sm *StreamManager) Subscribers(topic string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[topic])
}

// Broadcast sends msg to the listeners of runID and of AllRuns.
func (sm *StreamManager) Broadcast(runID string, msg Message) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for _, topic := range []string{runID, AllRuns} {
		for ch := range sm.subscribers[topic] {
			select {
			case ch <- msg:
			default:
				// Drop message if channel is full (slow client)
				sm.logger.Warn("SSE: Client buffer full, dropping message", "topic", topic, "event", msg.Event)
			}
		}
	}
}
