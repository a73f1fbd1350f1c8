package cartservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/DRSN-tech/cart-sync/internal/cfg"
	"github.com/DRSN-tech/cart-sync/internal/domain"
	"github.com/DRSN-tech/cart-sync/pkg/e"
	"github.com/DRSN-tech/cart-sync/pkg/logger"
	"github.com/jimlawless/whereami"
)

// maxErrorBody — сколько байт тела ошибки читаем ради сообщения.
const maxErrorBody = 64 << 10

// ServiceError — ответ сервиса корзины с кодом не 2xx.
type ServiceError struct {
	Status  int
	Message string
}

func (s *ServiceError) Error() string {
	if s.Message == "" {
		return fmt.Sprintf("cart service responded with status %d", s.Status)
	}
	return fmt.Sprintf("cart service responded with status %d: %s", s.Status, s.Message)
}

// UserMessage возвращает сообщение сервиса для показа пользователю.
func (s *ServiceError) UserMessage() string {
	return s.Message
}

// Client — HTTP-клиент сервиса корзины.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     logger.Logger
}

// NewClient создаёт клиент. Если httpClient == nil, создаётся клиент с таймаутом из конфигурации.
func NewClient(cfg *cfg.CartServiceCfg, httpClient *http.Client, logger logger.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		logger:     logger,
	}
}

// GetCart возвращает актуальную корзину.
func (c *Client) GetCart(ctx context.Context) (*domain.Cart, error) {
	var dto CartDTO
	if err := c.do(ctx, http.MethodGet, "/cart", nil, &dto); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return ToDomainCart(&dto), nil
}

// AddItem добавляет товар и возвращает корзину после добавления.
func (c *Client) AddItem(ctx context.Context, productID string, quantity int) (*domain.Cart, error) {
	var res AddItemResponse
	req := AddItemRequest{ProductID: productID, Quantity: quantity}
	if err := c.do(ctx, http.MethodPost, "/cart/add", req, &res); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return ToDomainCart(&res.Cart), nil
}

// UpdateItem задаёт количество в строке корзины.
func (c *Client) UpdateItem(ctx context.Context, itemID string, quantity int) error {
	path := "/cart/items/" + url.PathEscape(itemID)
	if err := c.do(ctx, http.MethodPatch, path, UpdateItemRequest{Quantity: quantity}, nil); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// RemoveItem удаляет строку корзины.
func (c *Client) RemoveItem(ctx context.Context, itemID string) error {
	path := "/cart/items/" + url.PathEscape(itemID)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// ClearCart очищает корзину.
func (c *Client) ClearCart(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/cart/clear", nil, nil); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.logger.Debugf("cart service %s %s -> %d", method, path, resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return readServiceError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func readServiceError(resp *http.Response) error {
	svcErr := &ServiceError{Status: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return svcErr
	}

	var body ErrorBody
	if err := json.Unmarshal(data, &body); err != nil {
		return svcErr
	}

	svcErr.Message = body.Message
	if svcErr.Message == "" {
		svcErr.Message = body.Error
	}

	return svcErr
}
