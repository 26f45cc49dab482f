package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/fasthttp/router"
	"github.com/samirbha/settlement-gateway/internal/model"
	"github.com/samirbha/settlement-gateway/internal/services"
	xhttp "github.com/samirbha/settlement-gateway/pkg/http"
)

type OrderService interface {
	PlaceOrder(ctx context.Context, req model.PlaceOrderRequest) (*model.Order, error)
	ConfirmPayment(ctx context.Context, orderNumber string, gatewayRef string) (*model.Order, error)
	CancelOrder(ctx context.Context, orderNumber string) (*model.Order, error)
	GetOrder(ctx context.Context, orderNumber string) (*model.Order, error)
	ListOrders(ctx context.Context, f model.OrderFilter) ([]*model.Order, int64, error)
	ListTransactions(ctx context.Context, f model.TransactionFilter) ([]*model.Transaction, int64, error)
}
type OrderHandler struct {
	svc OrderService
}

func RegisterOrderRoutes(e *router.Group, h *OrderHandler) {
	e.POST("/orders", h.PlaceOrder)
	e.POST("/orders/{number}/payment", h.ConfirmPayment)
	e.POST("/orders/{number}/cancel", h.CancelOrder)
	e.GET("/orders", h.ListOrders)
	e.GET("/orders/{number}", h.GetOrder)
	e.GET("/transactions", h.ListTransactions)
}

func NewOrderHandler(orderService OrderService) *OrderHandler {
	return &OrderHandler{
		svc: orderService,
	}
}

type placeOrderRequest struct {
	BuyerID         int64  `json:"buyer_id"`
	ProductID       int64  `json:"product_id"`
	Quantity        int64  `json:"quantity"`
	PaymentMethod   string `json:"payment_method"`
	ShippingAddress string `json:"shipping_address"`
	PODocumentRef   string `json:"po_document_ref"`
}

type confirmPaymentRequest struct {
	GatewayRef string `json:"gateway_ref"`
}

type orderListResponse struct {
	Items []*model.Order `json:"items"`
	Total int64          `json:"total"`
}

type transactionListResponse struct {
	Items []*model.Transaction `json:"items"`
	Total int64                `json:"total"`
}

/* --------------------------------- Routes ----------------------------------- */

func (h *OrderHandler) PlaceOrder(ctx *xhttp.RequestCtx) {
	var req placeOrderRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	p := model.PlaceOrderRequest{
		BuyerID:         req.BuyerID,
		ProductID:       req.ProductID,
		Quantity:        req.Quantity,
		PaymentMethod:   model.PaymentMethod(req.PaymentMethod),
		ShippingAddress: req.ShippingAddress,
		PODocumentRef:   req.PODocumentRef,
	}
	order, err := h.svc.PlaceOrder(ctx, p)
	if err != nil {
		writeError(ctx, statusForError(err), err.Error())
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, order)
}

func (h *OrderHandler) ConfirmPayment(ctx *xhttp.RequestCtx) {
	number := pathParam(ctx, "number")
	if number == "" {
		writeError(ctx, xhttp.StatusBadRequest, "order number is required")
		return
	}
	var req confirmPaymentRequest
	if body := ctx.PostBody(); len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
			return
		}
	}
	order, err := h.svc.ConfirmPayment(ctx, number, req.GatewayRef)
	if err != nil {
		writeError(ctx, statusForError(err), err.Error())
		return
	}
	writeJSON(ctx, xhttp.StatusOK, order)
}

func (h *OrderHandler) CancelOrder(ctx *xhttp.RequestCtx) {
	number := pathParam(ctx, "number")
	if number == "" {
		writeError(ctx, xhttp.StatusBadRequest, "order number is required")
		return
	}
	order, err := h.svc.CancelOrder(ctx, number)
	if err != nil {
		writeError(ctx, statusForError(err), err.Error())
		return
	}
	writeJSON(ctx, xhttp.StatusOK, order)
}

func (h *OrderHandler) GetOrder(ctx *xhttp.RequestCtx) {
	number := pathParam(ctx, "number")
	if number == "" {
		writeError(ctx, xhttp.StatusBadRequest, "order number is required")
		return
	}
	order, err := h.svc.GetOrder(ctx, number)
	if err != nil {
		writeError(ctx, statusForError(err), err.Error())
		return
	}
	writeJSON(ctx, xhttp.StatusOK, order)
}

func (h *OrderHandler) ListOrders(ctx *xhttp.RequestCtx) {
	var f model.OrderFilter

	if v := query(ctx, "buyer_id"); v != "" {
		if id, e := strconv.ParseInt(v, 10, 64); e == nil {
			f.BuyerID = &id
		}
	}
	if v := query(ctx, "seller_id"); v != "" {
		if id, e := strconv.ParseInt(v, 10, 64); e == nil {
			f.SellerID = &id
		}
	}
	if v := query(ctx, "status"); v != "" {
		parts := strings.Split(v, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
			if parts[i] != "" {
				f.Statuses = append(f.Statuses, model.OrderStatus(parts[i]))
			}
		}
	}
	if v := query(ctx, "limit"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Limit = n
		}
	}
	if v := query(ctx, "offset"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Offset = n
		}
	}
	if strings.EqualFold(query(ctx, "order"), "desc") {
		f.Desc = true
	}

	items, total, err := h.svc.ListOrders(ctx, f)
	if err != nil {
		writeError(ctx, statusForError(err), err.Error())
		return
	}
	writeJSON(ctx, xhttp.StatusOK, orderListResponse{Items: items, Total: total})
}

func (h *OrderHandler) ListTransactions(ctx *xhttp.RequestCtx) {
	var f model.TransactionFilter

	if v := query(ctx, "buyer_id"); v != "" {
		if id, e := strconv.ParseInt(v, 10, 64); e == nil {
			f.BuyerID = &id
		}
	}
	if v := query(ctx, "seller_id"); v != "" {
		if id, e := strconv.ParseInt(v, 10, 64); e == nil {
			f.SellerID = &id
		}
	}
	if v := query(ctx, "type"); v != "" {
		tt := model.TransactionType(v)
		f.Type = &tt
	}
	if v := query(ctx, "status"); v != "" {
		ts := model.TransactionStatus(v)
		f.Status = &ts
	}
	if v := query(ctx, "limit"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Limit = n
		}
	}
	if v := query(ctx, "offset"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Offset = n
		}
	}

	items, total, err := h.svc.ListTransactions(ctx, f)
	if err != nil {
		writeError(ctx, statusForError(err), err.Error())
		return
	}
	writeJSON(ctx, xhttp.StatusOK, transactionListResponse{Items: items, Total: total})
}

// statusForError maps the service error taxonomy onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return xhttp.StatusNotFound
	case errors.Is(err, services.ErrInsufficientFunds):
		return xhttp.StatusPaymentRequired
	case errors.Is(err, services.ErrOutOfStock),
		errors.Is(err, services.ErrAlreadyPaid),
		errors.Is(err, services.ErrNotCancellable),
		errors.Is(err, services.ErrStorageConflict):
		return xhttp.StatusConflict
	case errors.Is(err, services.ErrInvalidQuantity),
		errors.Is(err, services.ErrProductUnavailable),
		errors.Is(err, services.ErrInvalidAmount):
		return xhttp.StatusUnprocessableEntity
	}
	return xhttp.StatusBadRequest
}

func pathParam(ctx *xhttp.RequestCtx, key string) string {
	if v, ok := ctx.UserValue(key).(string); ok {
		return v
	}
	return ""
}

func query(ctx *xhttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}

func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	body := ctx.PostBody()
	return json.Unmarshal(body, dst)
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, _ := json.Marshal(v)
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func writeError(ctx *xhttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, map[string]string{"error": msg})
}
