package notifier

import (
	"sync"
	"time"
)

// EventType represents the type of event
type EventType string

const (
	// Critical events
	EventCircuitBreakerOpen  EventType = "circuit_breaker_open"
	EventServerStartupFailed EventType = "server_startup_failed"

	// Warning events
	EventHighFailureRate      EventType = "high_failure_rate"
	EventRateCeilingReached   EventType = "rate_ceiling_reached"
	EventPersistFailure       EventType = "persist_failure"
	EventStorePurgeFailed     EventType = "store_purge_failed"
	EventProviderUnconfigured EventType = "provider_unconfigured"

	// Info events
	EventCircuitBreakerRecovered EventType = "circuit_breaker_recovered"
	EventServerStarted           EventType = "server_started"
	EventStorePurged             EventType = "store_purged"
)

// Severity represents the severity level of an event
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Event represents a system event
type Event struct {
	Type      EventType
	Severity  Severity
	Message   string
	Data      map[string]interface{}
	Timestamp time.Time
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, severity Severity, message string) *Event {
	return &Event{
		Type:      eventType,
		Severity:  severity,
		Message:   message,
		Data:      make(map[string]interface{}),
		Timestamp: time.Now(),
	}
}

// WithData adds data to the event (chainable)
func (e *Event) WithData(key string, value interface{}) *Event {
	e.Data[key] = value
	return e
}

// EventHandler is a function that handles events
type EventHandler func(event *Event)

// EventBus manages event publishing and subscription
type EventBus struct {
	handlers    map[EventType][]EventHandler
	allHandlers []EventHandler // handlers that receive all events
	mu          sync.RWMutex
}

// Global event bus instance
var globalBus *EventBus
var busOnce sync.Once

// GetEventBus returns the global event bus instance
func GetEventBus() *EventBus {
	busOnce.Do(func() {
		globalBus = &EventBus{
			handlers:    make(map[EventType][]EventHandler),
			allHandlers: make([]EventHandler, 0),
		}
	})
	return globalBus
}

// Subscribe adds a handler for a specific event type
func (b *EventBus) Subscribe(eventType EventType, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// SubscribeAll adds a handler that receives all events
func (b *EventBus) SubscribeAll(handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.allHandlers = append(b.allHandlers, handler)
}

// Publish sends an event to all subscribed handlers
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if handlers, ok := b.handlers[event.Type]; ok {
		for _, handler := range handlers {
			go handler(event)
		}
	}

	for _, handler := range b.allHandlers {
		go handler(event)
	}
}

// Helper functions for publishing common events

// PublishCircuitBreakerOpen publishes a circuit breaker open event
func PublishCircuitBreakerOpen(name string, failures int, cooldown time.Duration) {
	event := NewEvent(EventCircuitBreakerOpen, SeverityCritical,
		"Circuit breaker has opened due to consecutive failures").
		WithData("name", name).
		WithData("failures", failures).
		WithData("cooldown", cooldown.String())
	GetEventBus().Publish(event)
}

// PublishCircuitBreakerRecovered publishes a circuit breaker recovery event
func PublishCircuitBreakerRecovered(name string) {
	event := NewEvent(EventCircuitBreakerRecovered, SeverityInfo,
		"Circuit breaker has recovered and is operational").
		WithData("name", name)
	GetEventBus().Publish(event)
}

// PublishHighFailureRate publishes a high failure rate warning
func PublishHighFailureRate(name string, failures, threshold int) {
	event := NewEvent(EventHighFailureRate, SeverityWarning,
		"High failure rate detected, circuit breaker may trip soon").
		WithData("name", name).
		WithData("failures", failures).
		WithData("threshold", threshold)
	GetEventBus().Publish(event)
}

// PublishRateCeilingReached publishes when a provider exhausts its
// per-minute upstream budget and requests start draining from fallbacks.
func PublishRateCeilingReached(provider string, used, limit int) {
	event := NewEvent(EventRateCeilingReached, SeverityWarning,
		"Upstream request budget exhausted, serving from fallbacks").
		WithData("provider", provider).
		WithData("used", used).
		WithData("limit", limit)
	GetEventBus().Publish(event)
}

// PublishPersistFailure publishes when a background store write fails
func PublishPersistFailure(provider string, err error) {
	event := NewEvent(EventPersistFailure, SeverityWarning,
		"Background persistence write failed").
		WithData("provider", provider).
		WithData("error", err.Error())
	GetEventBus().Publish(event)
}

// PublishStorePurged publishes after a successful retention purge
func PublishStorePurged(deleted int) {
	event := NewEvent(EventStorePurged, SeverityInfo,
		"Retention purge completed").
		WithData("deleted", deleted)
	GetEventBus().Publish(event)
}

// PublishStorePurgeFailed publishes when a retention purge fails
func PublishStorePurgeFailed(err error) {
	event := NewEvent(EventStorePurgeFailed, SeverityWarning,
		"Retention purge failed").
		WithData("error", err.Error())
	GetEventBus().Publish(event)
}

// PublishProviderUnconfigured publishes when a provider registers without
// credentials and will serve fallback content only
func PublishProviderUnconfigured(provider string) {
	event := NewEvent(EventProviderUnconfigured, SeverityWarning,
		"Provider has no credentials and will serve fallback content only").
		WithData("provider", provider)
	GetEventBus().Publish(event)
}

// PublishServerStarted publishes when server starts successfully
func PublishServerStarted(port string, providers []string) {
	event := NewEvent(EventServerStarted, SeverityInfo,
		"Server started successfully").
		WithData("port", port).
		WithData("providers", providers)
	GetEventBus().Publish(event)
}

// PublishServerStartupFailed publishes when server fails to start
func PublishServerStartupFailed(component string, err error) {
	event := NewEvent(EventServerStartupFailed, SeverityCritical,
		"Server failed to start").
		WithData("component", component).
		WithData("error", err.Error())
	GetEventBus().Publish(event)
}
