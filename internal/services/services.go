// Package services contains business logic for the shelfsim-api domain.
package services

// File: internal/services/services.go
// Purpose: Dependencies shared by every service (events, metrics, logging).

import (
	"go.uber.org/zap"

	"shelfsim-api-go/internal/metrics"
)

// EventPublisher emits domain events. *mq.Publisher and mq.Noop satisfy it.
type EventPublisher interface {
	Publish(routingKey string, payload map[string]any) error
}

// Deps bundles the collaborators handed to each service constructor.
type Deps struct {
	Validator *Validator
	Publisher EventPublisher
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
}

// notifier publishes events after a successful write. Publish failures are
// logged and counted but never returned to the caller.
type notifier struct {
	publisher EventPublisher
	metrics   *metrics.Metrics
	log       *zap.Logger
}

func newNotifier(d Deps) notifier {
	return notifier{publisher: d.Publisher, metrics: d.Metrics, log: d.Logger}
}

func (n notifier) publish(routingKey string, payload map[string]any) {
	if n.publisher == nil {
		return
	}
	err := n.publisher.Publish(routingKey, payload)
	if n.metrics != nil {
		n.metrics.RecordEvent(routingKey, err)
	}
	if err != nil {
		n.log.Warn("publish event failed", zap.String("routing_key", routingKey), zap.Error(err))
	}
}
