package checkout

import (
	"context"
	"errors"
)

// OrderCreator is the backend call that persists an order. It returns the decoded
// response envelope whenever the backend answered with one, whatever the status code,
// and an error only when no envelope could be obtained.
type OrderCreator interface {
	CreateOrder(ctx context.Context, p Payload) (*Envelope, error)
}

// Submit sends p through svc and returns the id of the created order.
//
// Field-level rejections come back as *SubmissionError; every other failure, including a
// success response without an id, is a *TransportError. Submit does not touch the cart.
func Submit(ctx context.Context, p Payload, svc OrderCreator) (OrderID, error) {
	env, err := svc.CreateOrder(ctx, p)
	if err != nil {
		return "", &TransportError{Op: "create order", Err: err}
	}
	if env == nil {
		return "", &TransportError{Op: "create order", Err: errors.New("empty response")}
	}
	if len(env.Errors) > 0 {
		return "", &SubmissionError{Fields: env.Errors}
	}
	if env.Data == nil || env.Data.ID == "" {
		err := ErrMissingOrderID
		if env.Message != "" {
			err = errors.Join(ErrMissingOrderID, errors.New(env.Message))
		}
		return "", &TransportError{Op: "create order", Err: err}
	}
	return env.Data.ID, nil
}
