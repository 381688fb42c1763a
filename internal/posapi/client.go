// Package posapi is the HTTP client of the restaurant POS backend: authentication,
// menu and categories, order creation, order listing and invoices.
package posapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/imrishuroy/go-pos-orderflow/internal/catalog"
	"github.com/imrishuroy/go-pos-orderflow/internal/checkout"
	"github.com/imrishuroy/go-pos-orderflow/internal/pos"
)

const maxBodyBytes = 4 << 20

var (
	_ checkout.OrderCreator = (*Client)(nil)
	_ catalog.Source        = (*Client)(nil)
	_ catalog.Editor        = (*Client)(nil)
)

// StatusError is a non-2xx response that carried no usable envelope.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// Client talks to the backend. The zero value is not usable; use New.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// New returns a client for baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// WithToken returns a copy that sends token as a bearer credential.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// BaseURL is the backend root, used to build image URLs.
func (c *Client) BaseURL() string { return c.baseURL }

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var out LoginResult
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/login", body, &out); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, errors.New("login: response has no access token")
	}
	return &out, nil
}

// Logout revokes the client's token.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/logout", struct{}{}, nil)
}

// ListCategories returns all menu categories.
func (c *Client) ListCategories(ctx context.Context) ([]pos.Category, error) {
	var out []pos.Category
	if err := c.do(ctx, http.MethodGet, "/api/menu_categories", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListMenuItems returns every menu item with its nested category.
func (c *Client) ListMenuItems(ctx context.Context) ([]pos.Item, error) {
	var out dataEnvelope[[]pos.Item]
	if err := c.do(ctx, http.MethodGet, "/api/menu_items", nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// CreateMenuItem adds in to the menu.
func (c *Client) CreateMenuItem(ctx context.Context, in pos.MenuItemInput) error {
	return c.postMenuItem(ctx, "/api/create_menu_items", in)
}

// UpdateMenuItem replaces menu item id with in.
func (c *Client) UpdateMenuItem(ctx context.Context, id int64, in pos.MenuItemInput) error {
	return c.postMenuItem(ctx, "/api/update_menu_items/"+strconv.FormatInt(id, 10), in)
}

// DeleteMenuItem removes menu item id.
func (c *Client) DeleteMenuItem(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/api/delete_menu_items/"+strconv.FormatInt(id, 10), nil, nil)
}

// postMenuItem sends in as multipart form data, the only encoding the backend accepts for
// image uploads.
func (c *Client) postMenuItem(ctx context.Context, path string, in pos.MenuItemInput) error {
	body, contentType, err := menuItemForm(in)
	if err != nil {
		return fmt.Errorf("encode menu item: %w", err)
	}
	status, resp, err := c.send(ctx, http.MethodPost, path, body, contentType)
	if err != nil {
		return err
	}
	if status >= 300 {
		return &StatusError{Method: http.MethodPost, Path: path, Status: status, Body: snippet(resp)}
	}
	return nil
}

func menuItemForm(in pos.MenuItemInput) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := []struct{ name, value string }{
		{"name", in.Name},
		{"price", in.Price.String()},
		{"menu_category_id", strconv.FormatInt(in.CategoryID, 10)},
		{"description", in.Description},
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", err
		}
	}
	if in.Image != nil {
		part, err := w.CreateFormFile("image", in.Image.Filename)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(in.Image.Data); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// ListOrders returns the order history. The backend answers either with a bare array or
// with {"data": [...]}.
func (c *Client) ListOrders(ctx context.Context) ([]pos.HistoricalOrder, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/orders", nil, &raw); err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var out []pos.HistoricalOrder
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("decode orders: %w", err)
		}
		return out, nil
	}
	var env dataEnvelope[[]pos.HistoricalOrder]
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	return env.Data, nil
}

// GetInvoice returns the invoice of order id.
func (c *Client) GetInvoice(ctx context.Context, id checkout.OrderID) (*Invoice, error) {
	var out dataEnvelope[*Invoice]
	path := "/api/invoice/" + url.PathEscape(string(id))
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		return nil, fmt.Errorf("invoice %s: empty response", id)
	}
	return out.Data, nil
}

// CreateOrder posts p. Any JSON envelope is returned, including a 422 with field errors;
// only transport failures and undecodable bodies are errors.
func (c *Client) CreateOrder(ctx context.Context, p checkout.Payload) (*checkout.Envelope, error) {
	status, body, err := c.roundTrip(ctx, http.MethodPost, "/api/create_orders", p)
	if err != nil {
		return nil, err
	}
	var env checkout.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		if status >= 300 {
			return nil, &StatusError{Method: http.MethodPost, Path: "/api/create_orders", Status: status, Body: snippet(body)}
		}
		return nil, fmt.Errorf("decode create order response: %w", err)
	}
	if status >= 300 && len(env.Errors) == 0 {
		msg := env.Message
		if msg == "" {
			msg = snippet(body)
		}
		return nil, &StatusError{Method: http.MethodPost, Path: "/api/create_orders", Status: status, Body: msg}
	}
	return &env, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	status, body, err := c.roundTrip(ctx, method, path, in)
	if err != nil {
		return err
	}
	if status >= 300 {
		return &StatusError{Method: method, Path: path, Status: status, Body: snippet(body)}
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, in any) (int, []byte, error) {
	if in == nil {
		return c.send(ctx, method, path, nil, "")
	}
	b, err := json.Marshal(in)
	if err != nil {
		return 0, nil, fmt.Errorf("encode %s %s: %w", method, path, err)
	}
	return c.send(ctx, method, path, bytes.NewReader(b), "application/json")
}

func (c *Client) send(ctx context.Context, method, path string, reqBody io.Reader, contentType string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}
	return resp.StatusCode, body, nil
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
