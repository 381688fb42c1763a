package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-pos-orderflow/internal/cart"
	"github.com/imrishuroy/go-pos-orderflow/internal/catalog"
	"github.com/imrishuroy/go-pos-orderflow/internal/history"
	"github.com/imrishuroy/go-pos-orderflow/internal/pos"
	"github.com/imrishuroy/go-pos-orderflow/internal/session"
	"github.com/imrishuroy/go-pos-orderflow/internal/validation"
)

type lineView struct {
	ItemID   int64  `json:"item_id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	Price    string `json:"price"`
	Quantity int    `json:"quantity"`
	Amount   string `json:"amount"`
}

type cartView struct {
	Lines           []lineView `json:"lines"`
	Units           int        `json:"units"`
	DiscountPercent string     `json:"discount_percent"`
	Subtotal        string     `json:"subtotal"`
	DiscountAmount  string     `json:"discount_amount"`
	DeliveryCharge  string     `json:"delivery_charge"`
	Total           string     `json:"total"`
}

func (s *server) renderCart(c cart.Cart) cartView {
	totals := c.ComputeTotals(s.Builder.DeliveryCharge())
	v := cartView{
		Lines:           make([]lineView, 0, c.Len()),
		Units:           c.Units(),
		DiscountPercent: c.DiscountPercent.String(),
		Subtotal:        pos.FormatMoney(totals.Subtotal),
		DiscountAmount:  pos.FormatMoney(totals.DiscountAmount),
		DeliveryCharge:  pos.FormatMoney(totals.DeliveryCharge),
		Total:           pos.FormatMoney(totals.Total),
	}
	for _, l := range c.Lines() {
		v.Lines = append(v.Lines, lineView{
			ItemID:   l.Item.ID,
			Name:     l.Item.Name,
			Category: l.Item.CategoryName(),
			ImageURL: pos.ImageURL(s.ImageBase, l.Item.Image),
			Price:    pos.FormatMoney(l.Item.Price),
			Quantity: l.Quantity,
			Amount:   pos.FormatMoney(l.Amount()),
		})
	}
	return v
}

func (s *server) login(c *gin.Context) {
	var req validation.LoginRequest
	if err := validation.BindAndValidate(c, &req, s.Validate); err != nil {
		return
	}

	res, err := s.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.Logger.Info("login rejected", zap.String("email", req.Email), zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_credentials"})
		return
	}

	st := s.Sessions.Create(res.AccessToken, res.User.Name)
	s.Logger.Info("session opened", zap.String("session_id", st.ID), zap.String("user", st.UserName))
	c.JSON(http.StatusCreated, gin.H{"session_id": st.ID, "user": gin.H{"name": st.UserName}})
}

func (s *server) logout(c *gin.Context) {
	st := state(c)
	if err := s.Connect(st.Token).Logout(c.Request.Context()); err != nil {
		s.Logger.Warn("backend logout failed", zap.String("session_id", st.ID), zap.Error(err))
	}
	if _, err := s.Sessions.Delete(st.ID); err != nil {
		writeError(c, s.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *server) getCart(c *gin.Context) {
	c.JSON(http.StatusOK, s.renderCart(state(c).Cart))
}

func (s *server) addItem(c *gin.Context) {
	var req validation.AddItemRequest
	if err := validation.BindAndValidate(c, &req, s.Validate); err != nil {
		return
	}

	item, err := s.Catalog.With(s.backend(c)).Item(c.Request.Context(), req.ItemID)
	if err != nil {
		if !errors.Is(err, catalog.ErrItemNotFound) {
			err = upstream("load menu", err)
		}
		writeError(c, s.Logger, err)
		return
	}
	s.mutateCart(c, func(ct cart.Cart) cart.Cart { return ct.AddItem(item) })
}

func (s *server) incrementItem(c *gin.Context) {
	if id, ok := itemID(c); ok {
		s.mutateCart(c, func(ct cart.Cart) cart.Cart { return ct.IncrementQuantity(id) })
	}
}

func (s *server) decrementItem(c *gin.Context) {
	if id, ok := itemID(c); ok {
		s.mutateCart(c, func(ct cart.Cart) cart.Cart { return ct.DecrementQuantity(id) })
	}
}

func (s *server) removeItem(c *gin.Context) {
	if id, ok := itemID(c); ok {
		s.mutateCart(c, func(ct cart.Cart) cart.Cart { return ct.RemoveItem(id) })
	}
}

func (s *server) setDiscount(c *gin.Context) {
	var req validation.DiscountRequest
	if err := validation.BindAndValidate(c, &req, s.Validate); err != nil {
		return
	}
	pct, err := decimal.NewFromString(req.Percent)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "fields": gin.H{"percent": []string{"must be a decimal number"}}})
		return
	}
	s.mutateCart(c, func(ct cart.Cart) cart.Cart { return ct.SetDiscount(pct) })
}

func (s *server) clearCart(c *gin.Context) {
	s.updateCart(c, (*session.State).ClearCart)
}

func (s *server) mutateCart(c *gin.Context, fn func(cart.Cart) cart.Cart) {
	s.updateCart(c, func(st *session.State) { st.Cart = fn(st.Cart) })
}

func (s *server) updateCart(c *gin.Context, fn func(*session.State)) {
	st, err := s.Sessions.Update(state(c).ID, func(st *session.State) error {
		fn(st)
		return nil
	})
	if err != nil {
		writeError(c, s.Logger, err)
		return
	}
	c.JSON(http.StatusOK, s.renderCart(st.Cart))
}

func itemID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_item_id"})
		return 0, false
	}
	return id, true
}

// resetHistory drops the loaded history so the next read refetches it.
func resetHistory(st *session.State) {
	st.History = history.View{}
}
