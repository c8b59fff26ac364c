package amqp

import (
	"context"
	"time"

	applog "spendlog/internal/log"
	"spendlog/internal/store"
)

// ChangePublisher is the subset of Client used by Publisher.
type ChangePublisher interface {
	PublishChange(ctx context.Context, msg *ChangeMessage) error
}

const (
	defaultBuffer = 64
	drainTimeout  = 5 * time.Second
)

// Publisher forwards store changes to the broker. It is a store.Listener;
// ExpensesChanged only enqueues, and Run does the publishing so a slow broker
// never holds the store lock. When the buffer is full the change is dropped
// and logged.
type Publisher struct {
	client  ChangePublisher
	pending chan *ChangeMessage
	logger  *applog.Logger
}

var _ store.Listener = (*Publisher)(nil)

func NewPublisher(client ChangePublisher, buffer int, logger *applog.Logger) *Publisher {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	if logger == nil {
		logger = applog.FromContext(context.Background())
	}
	return &Publisher{
		client:  client,
		pending: make(chan *ChangeMessage, buffer),
		logger:  logger.WithComponent(applog.ComponentFeed),
	}
}

func (p *Publisher) ExpensesChanged(ctx context.Context, ch store.Change) {
	msg := NewChangeMessage(ch)
	select {
	case p.pending <- msg:
	default:
		p.logger.WarnContext(ctx, "Change feed buffer full, dropping message",
			applog.FieldOperation, msg.Op, applog.FieldCount, msg.Count)
	}
}

// Run publishes queued changes until ctx is done, then flushes what is still
// queued within drainTimeout. Publish failures are logged and the message is
// discarded.
func (p *Publisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			p.drain()
			return nil
		case msg := <-p.pending:
			if ctx.Err() != nil {
				p.drain(msg)
				return nil
			}
			p.publish(ctx, msg)
		}
	}
}

// drain publishes taken, then everything still queued, under a fresh bounded
// context.
func (p *Publisher) drain(taken ...*ChangeMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for _, msg := range taken {
		p.publish(ctx, msg)
	}
	for {
		select {
		case msg := <-p.pending:
			p.publish(ctx, msg)
		default:
			return
		}
	}
}

func (p *Publisher) publish(ctx context.Context, msg *ChangeMessage) {
	if err := p.client.PublishChange(ctx, msg); err != nil {
		applog.NewStructuredLogger(p.logger).LogError(ctx, "Failed to publish change", err,
			applog.ErrorTypeNetwork, applog.OpPublish,
			applog.NewFields().WithCount(msg.Count).WithIndex(msg.Index))
	}
}
