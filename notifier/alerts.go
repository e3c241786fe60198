package notifier

import (
	"fmt"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"listings-api-go/logcolors"
)

const (
	// Default cooldown between alerts of the same type
	DefaultAlertCooldown = 15 * time.Minute
)

// AlertHandler handles events and sends notifications
type AlertHandler struct {
	notifiers        []Notifier
	cooldowns        map[EventType]time.Time // last alert time per event type
	cooldownDuration time.Duration
	mu               sync.RWMutex
}

// AlertConfig holds configuration for the alert handler
type AlertConfig struct {
	Notifiers        []Notifier
	CooldownDuration time.Duration
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(config AlertConfig) *AlertHandler {
	cooldown := config.CooldownDuration
	if cooldown == 0 {
		cooldown = DefaultAlertCooldown
	}

	return &AlertHandler{
		notifiers:        config.Notifiers,
		cooldowns:        make(map[EventType]time.Time),
		cooldownDuration: cooldown,
	}
}

// Start subscribes the handler to the event bus
func (h *AlertHandler) Start() {
	bus := GetEventBus()
	bus.SubscribeAll(h.handleEvent)
	log.Infof("%s Alert handler started (cooldown: %v, notifiers: %d)",
		logcolors.LogNotifier, h.cooldownDuration, len(h.notifiers))
}

// handleEvent processes incoming events
func (h *AlertHandler) handleEvent(event *Event) {
	if !h.shouldAlert(event.Type) {
		log.Debugf("%s Skipping alert for %s (cooldown active)", logcolors.LogNotifier, event.Type)
		return
	}

	subject, message := h.formatAlert(event)
	if subject == "" {
		return // Unknown event type
	}

	h.sendAlert(subject, message)
}

// shouldAlert checks if we should send an alert based on cooldown
func (h *AlertHandler) shouldAlert(eventType EventType) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	lastAlert, exists := h.cooldowns[eventType]
	if !exists || time.Since(lastAlert) >= h.cooldownDuration {
		h.cooldowns[eventType] = time.Now()
		return true
	}
	return false
}

// formatAlert formats an event into a notification message
func (h *AlertHandler) formatAlert(event *Event) (subject, message string) {
	switch event.Type {
	// Critical events
	case EventCircuitBreakerOpen:
		name := event.Data["name"].(string)
		failures := event.Data["failures"].(int)
		cooldown := event.Data["cooldown"].(string)
		subject = "Circuit Breaker OPEN"
		message = fmt.Sprintf(
			"The %s circuit breaker has tripped after %d consecutive failures.\n\n"+
				"Upstream calls will be blocked for %s; requests drain from cached and stored content.\n\n"+
				"Action: Check the %s API status and credentials.",
			name, failures, cooldown, name)

	case EventServerStartupFailed:
		component := event.Data["component"].(string)
		errMsg := event.Data["error"].(string)
		subject = "Server Startup FAILED"
		message = fmt.Sprintf(
			"The server failed to start.\n\n"+
				"Component: %s\n"+
				"Error: %s\n\n"+
				"Action: Check logs and fix the issue immediately.",
			component, errMsg)

	// Warning events
	case EventHighFailureRate:
		name := event.Data["name"].(string)
		failures := event.Data["failures"].(int)
		threshold := event.Data["threshold"].(int)
		subject = "High Failure Rate Warning"
		message = fmt.Sprintf(
			"The %s circuit breaker has recorded %d/%d failures.\n\n"+
				"If failures continue, the circuit will open and upstream calls will be blocked.\n\n"+
				"Action: Monitor the situation closely.",
			name, failures, threshold)

	case EventRateCeilingReached:
		provider := event.Data["provider"].(string)
		used := event.Data["used"].(int)
		limit := event.Data["limit"].(int)
		subject = "Upstream Budget Exhausted"
		message = fmt.Sprintf(
			"Provider %s has used %d/%d upstream requests in the current window.\n\n"+
				"Further requests are served from caches and stored content until the window slides.",
			provider, used, limit)

	case EventPersistFailure:
		provider := event.Data["provider"].(string)
		errMsg := event.Data["error"].(string)
		subject = "Persistence Write Failed"
		message = fmt.Sprintf(
			"A background store write for provider %s failed.\n\n"+
				"Error: %s\n\n"+
				"Action: Check disk space and database health.",
			provider, errMsg)

	case EventStorePurgeFailed:
		errMsg := event.Data["error"].(string)
		subject = "Retention Purge Failed"
		message = fmt.Sprintf(
			"The scheduled retention purge failed.\n\n"+
				"Error: %s\n\n"+
				"Action: Check database health; stale records will accumulate until resolved.",
			errMsg)

	case EventProviderUnconfigured:
		provider := event.Data["provider"].(string)
		subject = "Provider Unconfigured"
		message = fmt.Sprintf(
			"Provider %s registered without credentials.\n\n"+
				"All requests for it will be served from stored and demo content.",
			provider)

	// Info events
	case EventCircuitBreakerRecovered:
		name := event.Data["name"].(string)
		subject = "Circuit Breaker Recovered"
		message = fmt.Sprintf("The %s circuit breaker has recovered and is now operational.", name)

	case EventServerStarted:
		port := event.Data["port"].(string)
		providers := getStringSlice(event.Data, "providers")
		subject = "Server Started"
		message = fmt.Sprintf("Server started successfully on port %s with providers: %s.",
			port, strings.Join(providers, ", "))

	case EventStorePurged:
		deleted := event.Data["deleted"].(int)
		subject = "Retention Purge Completed"
		message = fmt.Sprintf("Retention purge removed %d stale record(s).", deleted)

	default:
		return "", ""
	}

	// Add severity emoji prefix
	switch event.Severity {
	case SeverityCritical:
		subject = "🚨 " + subject
	case SeverityWarning:
		subject = "⚠️ " + subject
	case SeverityInfo:
		subject = "ℹ️ " + subject
	}

	return subject, message
}

// sendAlert sends the alert through all configured notifiers
func (h *AlertHandler) sendAlert(subject, message string) {
	if len(h.notifiers) == 0 {
		log.Warnf("%s No notifiers configured, skipping alert: %s", logcolors.LogNotifier, subject)
		return
	}

	log.Infof("%s Sending alert: %s", logcolors.LogNotifier, subject)

	successCount := 0
	for _, n := range h.notifiers {
		if err := n.Send(subject, message); err != nil {
			log.Errorf("%s Failed to send alert via notifier: %v", logcolors.LogNotifier, err)
		} else {
			successCount++
		}
	}

	if successCount > 0 {
		log.Infof("%s Alert sent successfully via %d/%d notifiers", logcolors.LogNotifier, successCount, len(h.notifiers))
	}
}

// ResetCooldown manually resets the cooldown for a specific event type
func (h *AlertHandler) ResetCooldown(eventType EventType) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.cooldowns, eventType)
}

// ResetAllCooldowns resets all cooldowns
func (h *AlertHandler) ResetAllCooldowns() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cooldowns = make(map[EventType]time.Time)
}

// getStringSlice safely gets a string slice from event data, returning nil if missing
func getStringSlice(data map[string]interface{}, key string) []string {
	if val, ok := data[key].([]string); ok {
		return val
	}
	return nil
}
