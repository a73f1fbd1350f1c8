// Package stub — сервис корзины в памяти для локальной разработки и тестов клиента.
package stub

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/DRSN-tech/cart-sync/internal/domain"
	"github.com/DRSN-tech/cart-sync/internal/infrastructure/cartservice"
	"github.com/DRSN-tech/cart-sync/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type failure struct {
	status  int
	message string
}

// CartService хранит одну корзину и каталог товаров.
type CartService struct {
	mu       sync.Mutex
	logger   logger.Logger
	token    string
	cartID   string
	catalog  map[string]domain.ProductSnapshot
	items    []domain.CartItem
	failures []failure
}

// New создаёт сервис. Пустой token отключает проверку авторизации.
func New(logger logger.Logger, token string, products ...domain.ProductSnapshot) *CartService {
	catalog := make(map[string]domain.ProductSnapshot, len(products))
	for _, p := range products {
		catalog[p.ID] = p
	}

	return &CartService{
		logger:  logger,
		token:   token,
		cartID:  uuid.NewString(),
		catalog: catalog,
	}
}

// DefaultCatalog — небольшой каталог для ручной проверки.
func DefaultCatalog() []domain.ProductSnapshot {
	sale := decimal.RequireFromString("79.90")

	return []domain.ProductSnapshot{
		{
			ID: "p1", Name: "Wireless Mouse", Slug: "wireless-mouse",
			Price: decimal.RequireFromString("100"), CurrentPrice: decimal.RequireFromString("100"),
			Image: "/img/mouse.png", Stock: 10,
		},
		{
			ID: "p2", Name: "USB-C Cable", Slug: "usb-c-cable",
			Price: decimal.RequireFromString("25.50"), CurrentPrice: decimal.RequireFromString("25.50"),
			Image: "/img/cable.png", Stock: 5,
		},
		{
			ID: "p3", Name: "Keyboard", Slug: "keyboard",
			Price: decimal.RequireFromString("99.90"), SalePrice: &sale, CurrentPrice: sale,
			Image: "/img/keyboard.png", Stock: 2,
		},
	}
}

// FailNext ставит в очередь ошибку, которую получит следующий запрос.
func (s *CartService) FailNext(status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, failure{status: status, message: message})
}

// SetPrice меняет цену товара в каталоге и в корзине, имитируя изменение на сервере.
func (s *CartService) SetPrice(productID string, price decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.catalog[productID]; ok {
		p.Price, p.CurrentPrice = price, price
		s.catalog[productID] = p
	}
	for i := range s.items {
		if s.items[i].Product.ID == productID {
			s.items[i].Product.Price = price
			s.items[i].Product.CurrentPrice = price
		}
	}
}

// Cart возвращает копию текущей корзины.
func (s *CartService) Cart() *domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cartLocked()
}

// Handler собирает роутер сервиса.
func (s *CartService) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.auth)
	r.Use(s.injectFailure)

	r.Get("/cart", s.getCart)
	r.Post("/cart/add", s.addItem)
	r.Patch("/cart/items/{itemID}", s.updateItem)
	r.Delete("/cart/items/{itemID}", s.removeItem)
	r.Post("/cart/clear", s.clearCart)

	return r
}

func (s *CartService) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token != "" && r.Header.Get("Authorization") != "Bearer "+s.token {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *CartService) injectFailure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		var f *failure
		if len(s.failures) > 0 {
			f = &s.failures[0]
			s.failures = s.failures[1:]
		}
		s.mu.Unlock()

		if f != nil {
			s.logger.Warnf("stub: injected failure %d for %s %s", f.status, r.Method, r.URL.Path)
			writeError(w, f.status, f.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *CartService) getCart(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, cartservice.FromDomainCart(s.Cart()))
}

func (s *CartService) addItem(w http.ResponseWriter, r *http.Request) {
	var req cartservice.AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Quantity < 1 {
		writeError(w, http.StatusBadRequest, "Quantity must be at least 1")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.catalog[req.ProductID]
	if !ok {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}

	idx := s.indexByProductLocked(req.ProductID)
	current := 0
	if idx >= 0 {
		current = s.items[idx].Quantity
	}
	if current+req.Quantity > product.Stock {
		writeError(w, http.StatusConflict, stockMessage(product.Stock))
		return
	}

	if idx >= 0 {
		s.items[idx].Quantity += req.Quantity
		s.items[idx].Product = product
	} else {
		s.items = append(s.items, domain.CartItem{
			ID:       uuid.NewString(),
			Product:  product,
			Quantity: req.Quantity,
		})
	}

	writeJSON(w, http.StatusOK, cartservice.AddItemResponse{Cart: cartservice.FromDomainCart(s.cartLocked())})
}

func (s *CartService) updateItem(w http.ResponseWriter, r *http.Request) {
	var req cartservice.UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Quantity < 1 {
		writeError(w, http.StatusBadRequest, "Quantity must be at least 1")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexByItemLocked(chi.URLParam(r, "itemID"))
	if idx < 0 {
		writeError(w, http.StatusNotFound, "Cart item not found")
		return
	}

	stock := s.items[idx].Product.Stock
	if p, ok := s.catalog[s.items[idx].Product.ID]; ok {
		stock = p.Stock
	}
	if req.Quantity > stock {
		writeError(w, http.StatusConflict, stockMessage(stock))
		return
	}

	s.items[idx].Quantity = req.Quantity
	w.WriteHeader(http.StatusNoContent)
}

func (s *CartService) removeItem(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexByItemLocked(chi.URLParam(r, "itemID"))
	if idx < 0 {
		writeError(w, http.StatusNotFound, "Cart item not found")
		return
	}

	s.items = append(s.items[:idx], s.items[idx+1:]...)
	w.WriteHeader(http.StatusNoContent)
}

func (s *CartService) clearCart(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	s.items = nil
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func (s *CartService) cartLocked() *domain.Cart {
	items := make([]domain.CartItem, len(s.items))
	copy(items, s.items)
	return domain.NewCart(s.cartID, items).Clone()
}

func (s *CartService) indexByProductLocked(productID string) int {
	for i := range s.items {
		if s.items[i].Product.ID == productID {
			return i
		}
	}
	return -1
}

func (s *CartService) indexByItemLocked(itemID string) int {
	for i := range s.items {
		if strings.EqualFold(s.items[i].ID, itemID) {
			return i
		}
	}
	return -1
}

func stockMessage(stock int) string {
	return fmt.Sprintf("Only %d items available", stock)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, cartservice.ErrorBody{Message: message})
}
