// Package eventbus defines the contract for publishing and subscribing to
// domain events. Implementations live under infra/eventbus.
package eventbus

import (
	"context"

	"github.com/amirasaad/kapital/pkg/domain"
)

// Bus defines the contract for publishing and subscribing to domain events.
type Bus interface {
	Publish(ctx context.Context, event domain.Event) error
	Subscribe(eventType string, handler func(context.Context, domain.Event))
}
