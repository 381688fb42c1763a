package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-pos-orderflow/internal/checkout"
	"github.com/imrishuroy/go-pos-orderflow/internal/session"
	"github.com/imrishuroy/go-pos-orderflow/internal/validation"
)

func (s *server) checkout(c *gin.Context) {
	var req validation.CheckoutRequest
	if err := validation.BindAndValidate(c, &req, s.Validate); err != nil {
		return
	}
	st := state(c)

	p, err := s.Builder.BuildPayload(st.Cart,
		checkout.Customer{Name: req.CustomerName, Phone: req.CustomerPhone},
		checkout.Meta{PaymentMethod: req.PaymentMethod, OrderType: req.OrderType, Notes: req.Notes},
	)
	if err != nil {
		writeError(c, s.Logger, err)
		return
	}

	res, err := s.Gate.Submit(c.Request.Context(), st.ID, st.CheckoutID, p, s.Connect(st.Token))
	if err != nil {
		writeError(c, s.Logger, err)
		return
	}

	submitted := st.Cart
	if _, err := s.Sessions.Update(st.ID, func(st *session.State) error {
		if !st.FinishCheckout(submitted) {
			s.Logger.Info("cart changed during checkout, kept",
				zap.String("session_id", st.ID), zap.String("order_id", string(res.OrderID)))
		}
		resetHistory(st)
		return nil
	}); err != nil {
		// the order exists; the session vanished in between
		s.Logger.Warn("clear cart after checkout", zap.String("session_id", st.ID), zap.Error(err))
	}

	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{
		"order_id":     res.OrderID,
		"invoice_path": checkout.InvoicePath(res.OrderID),
		"replayed":     res.Replayed,
	})
}
