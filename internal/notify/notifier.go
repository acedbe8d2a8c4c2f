// Package notify defines the notification interface and implementations
// for audit discrepancy alerts.
package notify

import (
	"context"
)

// AlertPayload contains the data needed to send an audit discrepancy
// notification.
type AlertPayload struct {
	VehicleID     string
	VehicleLabel  string // "1969 Chevrolet Camaro"
	VIN           string
	SourceURL     string
	Accuracy      float64
	Critical      bool
	Discrepancies []string
}

// Notifier defines the interface for sending audit alerts.
type Notifier interface {
	SendAlert(ctx context.Context, alert *AlertPayload) error
	SendBatchAlert(ctx context.Context, alerts []AlertPayload) error
}
