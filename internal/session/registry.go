// Package session keeps the per-terminal state between requests: the signed-in user, the
// cart being built and the order-history view.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/imrishuroy/go-pos-orderflow/internal/cart"
	"github.com/imrishuroy/go-pos-orderflow/internal/history"
)

var ErrSessionNotFound = errors.New("session not found")

// State is one session. It owns its Cart and History exclusively.
type State struct {
	ID       string
	Token    string
	UserName string
	Cart     cart.Cart
	// CheckoutID names the checkout of the current cart. Resubmitting the same cart reuses
	// it; it changes when the cart is emptied or an order is placed.
	CheckoutID string
	History    history.View
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ClearCart empties the cart and starts a new checkout.
func (st *State) ClearCart() {
	st.Cart = st.Cart.Clear()
	st.CheckoutID = uuid.NewString()
}

// FinishCheckout closes the checkout of submitted and reports whether the cart was
// emptied. A cart changed since submitted was taken is kept as it is.
func (st *State) FinishCheckout(submitted cart.Cart) bool {
	st.CheckoutID = uuid.NewString()
	if !st.Cart.Equal(submitted) {
		return false
	}
	st.Cart = st.Cart.Clear()
	return true
}

// Registry is an in-memory, concurrency-safe session table.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*State
	nowFunc  func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: map[string]*State{},
		nowFunc:  time.Now,
	}
}

// Create opens a session for an authenticated user with an empty cart.
func (r *Registry) Create(token, userName string) State {
	now := r.nowFunc()
	st := &State{
		ID:         uuid.NewString(),
		Token:      token,
		UserName:   userName,
		Cart:       cart.New(),
		CheckoutID: uuid.NewString(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	r.mu.Lock()
	r.sessions[st.ID] = st
	r.mu.Unlock()
	return *st
}

// Get returns a snapshot of session id.
func (r *Registry) Get(id string) (State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.sessions[id]
	if !ok {
		return State{}, ErrSessionNotFound
	}
	return *st, nil
}

// Update applies fn to session id under the registry lock. When fn returns an error the
// session is left unchanged.
func (r *Registry) Update(id string, fn func(*State) error) (State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.sessions[id]
	if !ok {
		return State{}, ErrSessionNotFound
	}

	next := *st
	if err := fn(&next); err != nil {
		return *st, err
	}
	next.ID = st.ID
	next.UpdatedAt = r.nowFunc()
	r.sessions[id] = &next
	return next, nil
}

// Delete removes session id and returns its last state.
func (r *Registry) Delete(id string) (State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.sessions[id]
	if !ok {
		return State{}, ErrSessionNotFound
	}
	delete(r.sessions, id)
	return *st, nil
}

// Len is the number of open sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
