// Package notify delivers operational alerts (bracket sync failures, chart
// surface loss) to an external channel. Alerts are fire-and-forget; a failed
// delivery is logged and dropped.
package notify

import (
	"context"
	"log"
)

// AlertLevel represents the severity of an alert.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "INFO"
	AlertWarning  AlertLevel = "WARNING"
	AlertCritical AlertLevel = "CRITICAL"
)

// Alert represents a notification to be sent. OrderID and Symbol carry the
// tracked order's context when one is live at alert time, so an operator can
// tell which bracket the alert is about without digging through logs.
type Alert struct {
	Level   AlertLevel `json:"level"`
	Title   string     `json:"title"`
	Message string     `json:"message"`
	OrderID string     `json:"orderId,omitempty"`
	Symbol  string     `json:"symbol,omitempty"`
}

// Notifier is the interface for all notification backends.
type Notifier interface {
	// Send delivers an alert. Returns error if delivery fails.
	Send(ctx context.Context, alert Alert) error
}

// LogNotifier is a simple notifier that logs alerts (useful for development).
type LogNotifier struct{}

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(ctx context.Context, alert Alert) error {
	if alert.OrderID != "" {
		log.Printf("[notify] [%s] %s: %s (order=%s %s)", alert.Level, alert.Title, alert.Message, alert.OrderID, alert.Symbol)
		return nil
	}
	log.Printf("[notify] [%s] %s: %s", alert.Level, alert.Title, alert.Message)
	return nil
}
