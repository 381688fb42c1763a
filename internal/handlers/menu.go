package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-pos-orderflow/internal/pos"
	"github.com/imrishuroy/go-pos-orderflow/internal/validation"
)

const maxImageBytes = 2 << 20

func (s *server) createMenuItem(c *gin.Context) {
	in, ok := s.menuItemInput(c)
	if !ok {
		return
	}
	if err := s.Catalog.CreateItem(c.Request.Context(), s.backend(c), in); err != nil {
		writeError(c, s.Logger, upstream("create menu item", err))
		return
	}
	s.Logger.Info("menu item created", zap.String("name", in.Name), zap.String("session_id", state(c).ID))
	c.JSON(http.StatusCreated, gin.H{"status": "created"})
}

func (s *server) updateMenuItem(c *gin.Context) {
	id, ok := itemID(c)
	if !ok {
		return
	}
	in, ok := s.menuItemInput(c)
	if !ok {
		return
	}
	if err := s.Catalog.UpdateItem(c.Request.Context(), s.backend(c), id, in); err != nil {
		writeError(c, s.Logger, upstream("update menu item", err))
		return
	}
	s.Logger.Info("menu item updated", zap.Int64("item_id", id), zap.String("session_id", state(c).ID))
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (s *server) deleteMenuItem(c *gin.Context) {
	id, ok := itemID(c)
	if !ok {
		return
	}
	if err := s.Catalog.DeleteItem(c.Request.Context(), s.backend(c), id); err != nil {
		writeError(c, s.Logger, upstream("delete menu item", err))
		return
	}
	s.Logger.Info("menu item deleted", zap.Int64("item_id", id), zap.String("session_id", state(c).ID))
	c.Status(http.StatusNoContent)
}

// menuItemInput binds the form and the optional image part. It writes the 400 itself.
func (s *server) menuItemInput(c *gin.Context) (pos.MenuItemInput, bool) {
	var form validation.MenuItemForm
	if err := validation.BindFormAndValidate(c, &form, s.Validate); err != nil {
		return pos.MenuItemInput{}, false
	}
	price, err := decimal.NewFromString(form.Price)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "fields": gin.H{"price": []string{"must be a decimal number"}}})
		return pos.MenuItemInput{}, false
	}
	in := pos.MenuItemInput{
		Name:        form.Name,
		Price:       price,
		CategoryID:  form.CategoryID,
		Description: form.Description,
	}

	img, err := readImage(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_image", "msg": err.Error()})
		return pos.MenuItemInput{}, false
	}
	in.Image = img
	return in, true
}

func readImage(c *gin.Context) (*pos.Upload, error) {
	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if fh.Size > maxImageBytes {
		return nil, fmt.Errorf("image is larger than %d bytes", maxImageBytes)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxImageBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxImageBytes {
		return nil, fmt.Errorf("image is larger than %d bytes", maxImageBytes)
	}
	return &pos.Upload{Filename: fh.Filename, Data: data}, nil
}
