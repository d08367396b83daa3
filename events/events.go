package events

import (
	"context"
	"sync"
	"time"

	"ormperfapi/models"

	"github.com/rs/zerolog"
)

type OrderCreated struct {
	OrderID    int       `json:"order_id"`
	ProductIDs []int     `json:"product_ids"`
	CreatedAt  time.Time `json:"created_at"`
}

type Subscriber interface {
	HandleOrderCreated(ctx context.Context, e OrderCreated) error
}

type SubscriberFunc func(ctx context.Context, e OrderCreated) error

func (f SubscriberFunc) HandleOrderCreated(ctx context.Context, e OrderCreated) error {
	return f(ctx, e)
}

// DefaultTimeout bounds one round of notifications.
const DefaultTimeout = 3 * time.Second

// Notifier fans an event out to its subscribers in subscription order. Each
// subscriber sees an event at most once; failures are logged and dropped.
type Notifier struct {
	mu          sync.RWMutex
	subscribers []Subscriber
	log         zerolog.Logger
	timeout     time.Duration
}

func NewNotifier(log zerolog.Logger) *Notifier {
	return &Notifier{log: log, timeout: DefaultTimeout}
}

// SetTimeout changes the deadline shared by all subscribers of one event.
func (n *Notifier) SetTimeout(d time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.timeout = d
}

func (n *Notifier) Subscribe(s Subscriber) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subscribers = append(n.subscribers, s)
}

// PublishOrderCreated must be called after the order is committed. The
// request context is detached so a client disconnect does not drop it, and
// bounded so a stalled sink cannot hold the response.
func (n *Notifier) PublishOrderCreated(ctx context.Context, order *models.Order) {
	ids := make([]int, 0, len(order.Products))
	for _, p := range order.Products {
		ids = append(ids, p.ID)
	}
	e := OrderCreated{OrderID: order.ID, ProductIDs: ids, CreatedAt: order.CreatedAt}

	n.mu.RLock()
	subscribers := make([]Subscriber, len(n.subscribers))
	copy(subscribers, n.subscribers)
	timeout := n.timeout
	n.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	for i, s := range subscribers {
		if err := s.HandleOrderCreated(ctx, e); err != nil {
			n.log.Warn().Err(err).Int("order_id", e.OrderID).Int("subscriber", i).Msg("order created notification failed")
		}
	}
}
