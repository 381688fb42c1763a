package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/go-pos-orderflow/internal/catalog"
	"github.com/imrishuroy/go-pos-orderflow/internal/checkout"
	"github.com/imrishuroy/go-pos-orderflow/internal/history"
	"github.com/imrishuroy/go-pos-orderflow/internal/pos"
	"github.com/imrishuroy/go-pos-orderflow/internal/report"
	"github.com/imrishuroy/go-pos-orderflow/internal/session"
	"github.com/imrishuroy/go-pos-orderflow/internal/validation"
)

func (s *server) history(c *gin.Context) {
	var q validation.HistoryQuery
	if err := validation.BindQueryAndValidate(c, &q, s.Validate); err != nil {
		return
	}
	st := state(c)

	view := st.History
	if !view.Loaded() || c.Query("refresh") == "true" {
		orders, err := s.backend(c).ListOrders(c.Request.Context())
		if err != nil {
			writeError(c, s.Logger, upstream("list orders", err))
			return
		}
		if view.Loaded() {
			view = view.WithOrders(history.NewestFirst(orders))
		} else {
			view = history.NewView(history.NewestFirst(orders))
		}
	}

	criteria := history.Criteria{SearchText: q.Search, DateText: q.Date, OrderType: q.Type}
	changed := criteria != view.Criteria()
	view = view.SetCriteria(criteria)
	if q.PerPage != 0 {
		view = view.SetPerPage(q.PerPage)
	}
	// a page number was chosen against the old criteria
	if q.Page != 0 && !changed {
		view = view.SetPage(q.Page)
	}

	if _, err := s.Sessions.Update(st.ID, func(st *session.State) error {
		st.History = view
		return nil
	}); err != nil {
		writeError(c, s.Logger, err)
		return
	}

	res := view.Render()
	c.JSON(http.StatusOK, gin.H{
		"items":       res.Page.Items,
		"page":        res.Page.Page,
		"per_page":    res.Page.PerPage,
		"total_items": res.Page.TotalItems,
		"total_pages": res.Page.TotalPages,
		"start_index": res.Page.StartIndex,
		"end_index":   res.Page.EndIndex,
		"window":      res.Window,
	})
}

func (s *server) categories(c *gin.Context) {
	cats, err := s.Catalog.With(s.backend(c)).Categories(c.Request.Context())
	if err != nil {
		writeError(c, s.Logger, upstream("list categories", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"all": catalog.AllCategories, "categories": cats})
}

func (s *server) items(c *gin.Context) {
	category := c.DefaultQuery("category", catalog.AllCategories)
	items, err := s.Catalog.With(s.backend(c)).Items(c.Request.Context(), category)
	if err != nil {
		writeError(c, s.Logger, upstream("list items", err))
		return
	}
	type itemView struct {
		ID          int64  `json:"id"`
		Name        string `json:"name"`
		Price       string `json:"price"`
		Description string `json:"description,omitempty"`
		Category    string `json:"category,omitempty"`
		ImageURL    string `json:"image_url,omitempty"`
	}
	out := make([]itemView, 0, len(items))
	for _, it := range items {
		out = append(out, itemView{
			ID:          it.ID,
			Name:        it.Name,
			Price:       report.Format(it.Price),
			Description: it.Description,
			Category:    it.CategoryName(),
			ImageURL:    pos.ImageURL(s.ImageBase, it.Image),
		})
	}
	c.JSON(http.StatusOK, gin.H{"category": category, "items": out})
}

func (s *server) salesReport(c *gin.Context) {
	var q validation.ReportQuery
	if err := validation.BindQueryAndValidate(c, &q, s.Validate); err != nil {
		return
	}
	day := q.Day
	if day == "" {
		day = s.Now().Format("2006-01-02")
	}
	month := q.Month
	if month == "" {
		month = day[:7]
	}

	orders, err := s.backend(c).ListOrders(c.Request.Context())
	if err != nil {
		writeError(c, s.Logger, upstream("list orders", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"overview": report.Overview(orders),
		"daily":    report.Daily(orders, day),
		"monthly":  gin.H{"month": month, "days": report.Monthly(orders, month)},
		"by_type":  report.ByType(orders),
	})
}

func (s *server) invoice(c *gin.Context) {
	inv, err := s.backend(c).GetInvoice(c.Request.Context(), checkout.OrderID(c.Param("id")))
	if err != nil {
		writeError(c, s.Logger, upstream("get invoice", err))
		return
	}
	c.JSON(http.StatusOK, inv)
}
