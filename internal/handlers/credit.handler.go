package handlers

import (
	"context"
	"strconv"

	"github.com/fasthttp/router"
	"github.com/samirbha/settlement-gateway/internal/model"
	xhttp "github.com/samirbha/settlement-gateway/pkg/http"
	"github.com/shopspring/decimal"
)

type CreditService interface {
	AddCredit(ctx context.Context, req model.AddCreditRequest) (*model.CreditTransaction, error)
	Statement(ctx context.Context, buyerID int64, limit int) ([]*model.CreditTransaction, error)
}
type CreditHandler struct {
	svc CreditService
}

func RegisterCreditRoutes(e *router.Group, h *CreditHandler) {
	e.POST("/credits", h.AddCredit)
	e.GET("/credits/statement", h.Statement)
}

func NewCreditHandler(creditService CreditService) *CreditHandler {
	return &CreditHandler{
		svc: creditService,
	}
}

type addCreditRequest struct {
	BuyerID     int64  `json:"buyer_id"`
	Amount      string `json:"amount"`
	Reference   string `json:"reference"`
	Description string `json:"description"`
}

type statementResponse struct {
	Items []*model.CreditTransaction `json:"items"`
}

func (h *CreditHandler) AddCredit(ctx *xhttp.RequestCtx) {
	var req addCreditRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid amount: "+req.Amount)
		return
	}
	entry, err := h.svc.AddCredit(ctx, model.AddCreditRequest{
		BuyerID:     req.BuyerID,
		Amount:      amount,
		Reference:   req.Reference,
		Description: req.Description,
	})
	if err != nil {
		writeError(ctx, statusForError(err), err.Error())
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, entry)
}

func (h *CreditHandler) Statement(ctx *xhttp.RequestCtx) {
	buyerID, err := strconv.ParseInt(query(ctx, "buyer_id"), 10, 64)
	if err != nil || buyerID < 1 {
		writeError(ctx, xhttp.StatusBadRequest, "buyer_id is required")
		return
	}
	limit := 50
	if v := query(ctx, "limit"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			limit = n
		}
	}

	items, err := h.svc.Statement(ctx, buyerID, limit)
	if err != nil {
		writeError(ctx, statusForError(err), err.Error())
		return
	}
	writeJSON(ctx, xhttp.StatusOK, statementResponse{Items: items})
}
