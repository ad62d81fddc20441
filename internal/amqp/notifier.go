package amqp

import (
	"context"
	"log/slog"

	"fintrack/internal/log"
	"fintrack/internal/store"
)

// StatePublisher is implemented by *Client.
type StatePublisher interface {
	PublishStateChanged(ctx context.Context, msg *StateChangedMessage) error
}

// Subscriber is implemented by *store.Store.
type Subscriber interface {
	Subscribe(slice store.Slice, fn store.Listener) (unsubscribe func())
}

// Notifier forwards store changes to a publisher. Store listeners run on
// the writer's path, so changes are queued and published from Run. A full
// queue drops the event; publishing never affects the action itself.
type Notifier struct {
	pub         StatePublisher
	queue       chan *StateChangedMessage
	logger      *slog.Logger
	unsubscribe []func()
}

// NewNotifier subscribes to every slice of src. A nil publisher yields a
// notifier that drops everything, for running without a broker.
func NewNotifier(src Subscriber, pub StatePublisher, buffer int, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	n := &Notifier{
		pub:    pub,
		queue:  make(chan *StateChangedMessage, buffer),
		logger: logger,
	}
	if pub == nil {
		return n
	}
	for _, slice := range store.AllSlices {
		n.unsubscribe = append(n.unsubscribe, src.Subscribe(slice, n.enqueue))
	}
	return n
}

func (n *Notifier) enqueue(c store.Change) {
	select {
	case n.queue <- NewStateChangedMessage(c):
	default:
		n.logger.Warn("Event queue full, dropping state change",
			log.FieldComponent, log.ComponentAMQP,
			log.FieldSlice, string(c.Slice),
			"op", c.Op)
	}
}

// Run publishes queued events until ctx is done.
func (n *Notifier) Run(ctx context.Context) error {
	if n.pub == nil {
		<-ctx.Done()
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-n.queue:
			if err := n.pub.PublishStateChanged(ctx, msg); err != nil {
				n.logger.Warn("Failed to publish state change",
					log.FieldComponent, log.ComponentAMQP,
					log.FieldError, err,
					log.FieldSlice, msg.Slice)
			}
		}
	}
}

// Close stops listening to the store.
func (n *Notifier) Close() {
	for _, fn := range n.unsubscribe {
		fn()
	}
	n.unsubscribe = nil
}
