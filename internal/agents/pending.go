package agents

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"fingreat/internal/types"
)

// PendingOrder is an order the model asked to place that waits for the user's go-ahead.
type PendingOrder struct {
	ID      string
	User    string
	Req     types.OrderReq
	Expires time.Time
}

// Describe renders the order for the confirmation question.
func (p PendingOrder) Describe() string {
	what := p.Req.InstrumentKey
	if p.Req.Symbol != "" {
		what = fmt.Sprintf("%s (%s)", p.Req.Symbol, p.Req.InstrumentKey)
	}
	how := p.Req.OrderType
	if p.Req.OrderType == "LIMIT" {
		how = "LIMIT at ₹" + p.Req.Price.String()
	}
	return fmt.Sprintf("%s %d x %s %s", p.Req.Side, p.Req.Qty, what, how)
}

// PendingOrders holds at most one unexpired order per user.
type PendingOrders struct {
	mu     sync.Mutex
	ttl    time.Duration
	byUser map[string]PendingOrder
	now    func() time.Time
}

func NewPendingOrders(ttl time.Duration) *PendingOrders {
	return &PendingOrders{ttl: ttl, byUser: map[string]PendingOrder{}, now: time.Now}
}

// Put replaces any order already waiting for user.
func (p *PendingOrders) Put(user string, req types.OrderReq) PendingOrder {
	p.mu.Lock()
	defer p.mu.Unlock()
	po := PendingOrder{ID: uuid.NewString(), User: user, Req: req, Expires: p.now().Add(p.ttl)}
	p.byUser[user] = po
	return po
}

// Take removes and returns the user's order if it has not expired.
func (p *PendingOrders) Take(user string) (PendingOrder, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	po, ok := p.byUser[user]
	if !ok {
		return PendingOrder{}, false
	}
	delete(p.byUser, user)
	if p.now().After(po.Expires) {
		return PendingOrder{}, false
	}
	return po, true
}

// TakeID is Take restricted to a specific order id; other orders stay pending.
func (p *PendingOrders) TakeID(user, id string) (PendingOrder, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	po, ok := p.byUser[user]
	if !ok || po.ID != id {
		return PendingOrder{}, fmt.Errorf("%w: %s", ErrNoPendingOrder, id)
	}
	delete(p.byUser, user)
	if p.now().After(po.Expires) {
		return PendingOrder{}, fmt.Errorf("%w: %s expired", ErrNoPendingOrder, id)
	}
	return po, nil
}
