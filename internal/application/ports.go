package application

import "context"

// TxManager runs fn as one unit of work. Repositories called with the ctx
// passed to fn take part in the same transaction.
type TxManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventPublisher delivers domain events to the message bus.
type EventPublisher interface {
	Publish(ctx context.Context, eventType, key string, data interface{}) error
}
