package http

import (
	"errors"
	"net/http"

	"github.com/DRSN-tech/cart-sync/internal/usecase"
	"github.com/DRSN-tech/cart-sync/pkg/e"
	"github.com/DRSN-tech/cart-sync/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type CartHandler struct {
	cartUsecase usecase.CartSyncUC
	logger      logger.Logger
}

func NewCartHandler(cartUsecase usecase.CartSyncUC, logger logger.Logger) *CartHandler {
	return &CartHandler{cartUsecase: cartUsecase, logger: logger}
}

// getCart
//
//	@Summary		Текущее состояние корзины
//	@Description	Возвращает локальную корзину с признаками ожидания, загрузки и последней ошибкой
//	@Tags			cart
//	@Produce		json
//	@Success		200	{object}	CartStateResponse
//	@Router			/cart [get]
func (h *CartHandler) getCart(w http.ResponseWriter, _ *http.Request) {
	WriteSuccess(w, http.StatusOK, toCartStateResponse(h.cartUsecase.State()))
}

// refreshCart
//
//	@Summary		Загрузка корзины с сервера
//	@Description	Явная загрузка: выставляет признак загрузки и сообщение об ошибке при неудаче
//	@Tags			cart
//	@Produce		json
//	@Success		200	{object}	CartStateResponse
//	@Failure		502	{object}	ErrorResponse	"Сервис корзины недоступен"
//	@Router			/cart/refresh [post]
func (h *CartHandler) refreshCart(w http.ResponseWriter, r *http.Request) {
	if err := h.cartUsecase.FetchCart(r.Context()); err != nil {
		h.writeEngineError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toCartStateResponse(h.cartUsecase.State()))
}

// syncCart
//
//	@Summary		Тихая сверка с сервером
//	@Description	Сливает серверную корзину, сохраняя неподтверждённые локальные правки. Ошибки не показываются пользователю
//	@Tags			cart
//	@Produce		json
//	@Success		200	{object}	CartStateResponse
//	@Failure		502	{object}	ErrorResponse	"Сервис корзины недоступен"
//	@Router			/cart/sync [post]
func (h *CartHandler) syncCart(w http.ResponseWriter, r *http.Request) {
	if err := h.cartUsecase.SyncCart(r.Context()); err != nil {
		h.logger.Warnf("cart sync failed: %v", err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toCartStateResponse(h.cartUsecase.State()))
}

// addItem
//
//	@Summary		Добавление товара
//	@Description	Добавляет товар через сервер и сливает ответ с локальной корзиной
//	@Tags			cart
//	@Accept			json
//	@Produce		json
//	@Param			request	body		AddItemRequest	true	"Товар и количество"
//	@Success		200		{object}	CartStateResponse
//	@Failure		400		{object}	ErrorResponse	"Ошибка валидации"
//	@Failure		502		{object}	ErrorResponse	"Сервис корзины отклонил запрос"
//	@Router			/cart/items [post]
func (h *CartHandler) addItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, err)
		return
	}

	if err := h.cartUsecase.AddToCart(r.Context(), req.ProductID, req.Quantity); err != nil {
		h.writeEngineError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toCartStateResponse(h.cartUsecase.State()))
}

// updateQuantity
//
//	@Summary		Изменение количества
//	@Description	Оптимистично меняет количество; запись на сервер уходит после окна тишины
//	@Tags			cart
//	@Accept			json
//	@Produce		json
//	@Param			productID	path		string					true	"ID товара"
//	@Param			request		body		UpdateQuantityRequest	true	"Новое количество"
//	@Success		202			{object}	CartStateResponse
//	@Failure		400			{object}	ErrorResponse	"Ошибка валидации"
//	@Failure		404			{object}	ErrorResponse	"Товара нет в корзине"
//	@Failure		409			{object}	ErrorResponse	"Недостаточно товара"
//	@Router			/cart/items/{productID} [patch]
func (h *CartHandler) updateQuantity(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, err)
		return
	}

	if err := h.cartUsecase.UpdateQuantity(r.Context(), chi.URLParam(r, "productID"), req.Quantity); err != nil {
		h.writeEngineError(w, err)
		return
	}

	WriteSuccess(w, http.StatusAccepted, toCartStateResponse(h.cartUsecase.State()))
}

// removeItem
//
//	@Summary		Удаление товара
//	@Tags			cart
//	@Produce		json
//	@Param			productID	path		string	true	"ID товара"
//	@Success		200			{object}	CartStateResponse
//	@Failure		502			{object}	ErrorResponse	"Удаление откачено"
//	@Router			/cart/items/{productID} [delete]
func (h *CartHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	if err := h.cartUsecase.RemoveFromCart(r.Context(), chi.URLParam(r, "productID")); err != nil {
		h.writeEngineError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toCartStateResponse(h.cartUsecase.State()))
}

// clearCart
//
//	@Summary		Очистка корзины
//	@Tags			cart
//	@Produce		json
//	@Success		200	{object}	CartStateResponse
//	@Failure		502	{object}	ErrorResponse	"Очистка откачена"
//	@Router			/cart [delete]
func (h *CartHandler) clearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.cartUsecase.ClearCart(r.Context()); err != nil {
		h.writeEngineError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toCartStateResponse(h.cartUsecase.State()))
}

// clearError
//
//	@Summary		Сброс сообщения об ошибке
//	@Tags			cart
//	@Produce		json
//	@Success		200	{object}	CartStateResponse
//	@Router			/cart/error [delete]
func (h *CartHandler) clearError(w http.ResponseWriter, _ *http.Request) {
	h.cartUsecase.ClearError()
	WriteSuccess(w, http.StatusOK, toCartStateResponse(h.cartUsecase.State()))
}

// writeEngineError отдаёт ошибку движка. Для ошибок сервиса корзины в ответ идёт то же сообщение,
// что движок выставил пользователю.
func (h *CartHandler) writeEngineError(w http.ResponseWriter, err error) {
	code, msg := ToHTTPResponse(err)

	if errors.Is(err, e.ErrCartServiceFailed) {
		if userMsg := h.cartUsecase.State().Error; userMsg != "" {
			msg = userMsg
		}
	}

	if code >= http.StatusInternalServerError {
		h.logger.Errorf(err, "cart operation failed")
	} else {
		h.logger.Warnf("%d %s: %s", code, msg, err.Error())
	}

	WriteErrorMessage(w, code, msg)
}
