package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"complyform/internal/compliance"
	"complyform/internal/sentinel"
	"complyform/models"
)

var hundred = decimal.NewFromInt(100)

// CreateOrganizationHandler обрабатывает POST /api/organizations
func (h *Handler) CreateOrganizationHandler(w http.ResponseWriter, r *http.Request) {
	var org models.Organization
	if err := readJSON(w, r, &org); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	org.Name = strings.TrimSpace(org.Name)
	if org.Name == "" || len(org.Name) > 200 {
		http.Error(w, "name is required and max length 200", http.StatusBadRequest)
		return
	}
	if err := h.Store.CreateOrganization(r.Context(), &org); err != nil {
		h.writeError(w, err, "create organization")
		return
	}
	writeJSON(w, http.StatusCreated, org)
}

// CreateBidHandler обрабатывает POST /api/bids
func (h *Handler) CreateBidHandler(w http.ResponseWriter, r *http.Request) {
	var bid models.Bid
	if err := readJSON(w, r, &bid); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if bid.OrganizationID <= 0 {
		http.Error(w, "organizationId must be positive", http.StatusBadRequest)
		return
	}
	if err := validateBidAmounts(bid.TotalAmount, bid.MBEGoal); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	bid.LineItems = nil
	bid.ValidatedAt = nil

	if err := h.Store.CreateBid(r.Context(), &bid); err != nil {
		h.writeError(w, err, "create bid")
		return
	}
	bid.LineItems = []models.LineItem{}
	writeJSON(w, http.StatusCreated, bid)
}

func validateBidAmounts(total, goal decimal.Decimal) error {
	if total.IsNegative() {
		return errors.New("totalAmount must not be negative")
	}
	if goal.IsNegative() || goal.GreaterThan(hundred) {
		return errors.New("mbeGoal must be between 0 and 100")
	}
	return nil
}

// GetBidHandler возвращает заявку вместе со строками
func (h *Handler) GetBidHandler(w http.ResponseWriter, r *http.Request) {
	bidID, err := intParam(r, "bidId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	bid, err := h.Store.GetBidWithLineItems(r.Context(), bidID)
	if err != nil {
		h.writeError(w, err, "get bid")
		return
	}
	if bid.LineItems == nil {
		bid.LineItems = []models.LineItem{}
	}
	writeJSON(w, http.StatusOK, bid)
}

type editBidRequest struct {
	SolicitationNumber *string          `json:"solicitationNumber"`
	TotalAmount        *decimal.Decimal `json:"totalAmount"`
	MBEGoal            *decimal.Decimal `json:"mbeGoal"`
}

// EditBidHandler обрабатывает PATCH /api/bids/{bidId}.
// После первой проверки сумма и цель MBE не меняются.
func (h *Handler) EditBidHandler(w http.ResponseWriter, r *http.Request) {
	bidID, err := intParam(r, "bidId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req editBidRequest
	if err := readJSON(w, r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	bid, err := h.Store.GetBid(r.Context(), bidID)
	if err != nil {
		h.writeError(w, err, "get bid")
		return
	}

	amountChanged := (req.TotalAmount != nil && !req.TotalAmount.Equal(bid.TotalAmount)) ||
		(req.MBEGoal != nil && !req.MBEGoal.Equal(bid.MBEGoal))
	if amountChanged && bid.Validated() {
		http.Error(w, "bid already validated: totalAmount and mbeGoal are immutable", http.StatusConflict)
		return
	}

	if req.SolicitationNumber != nil {
		bid.SolicitationNumber = strings.TrimSpace(*req.SolicitationNumber)
	}
	if req.TotalAmount != nil {
		bid.TotalAmount = *req.TotalAmount
	}
	if req.MBEGoal != nil {
		bid.MBEGoal = *req.MBEGoal
	}
	if err := validateBidAmounts(bid.TotalAmount, bid.MBEGoal); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.Store.UpdateBid(r.Context(), bid); err != nil {
		h.writeError(w, err, "update bid")
		return
	}
	writeJSON(w, http.StatusOK, bid)
}

// AddLineItemHandler обрабатывает POST /api/bids/{bidId}/subcontractors.
// Разбивка по категориям проверяется здесь, до попадания в базу.
func (h *Handler) AddLineItemHandler(w http.ResponseWriter, r *http.Request) {
	bidID, err := intParam(r, "bidId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var item models.LineItem
	if err := readJSON(w, r, &item); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	item.BidID = bidID

	if item.SubcontractorID <= 0 {
		http.Error(w, "subcontractorId must be positive", http.StatusBadRequest)
		return
	}
	if item.Value.IsNegative() {
		http.Error(w, "value must not be negative", http.StatusBadRequest)
		return
	}
	if len(item.Breakdown) > 0 {
		normalized, err := compliance.NormalizeBreakdown(item.Breakdown)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		item.Breakdown = normalized
	}

	ctx := r.Context()
	bid, err := h.Store.GetBid(ctx, bidID)
	if err != nil {
		h.writeError(w, err, "get bid")
		return
	}
	sub, err := h.Store.GetSubcontractor(ctx, item.SubcontractorID)
	if err != nil {
		h.writeError(w, err, "get subcontractor")
		return
	}
	if sub.OrganizationID != bid.OrganizationID {
		http.Error(w, "subcontractor belongs to another organization", http.StatusBadRequest)
		return
	}
	h.linkDirectory(r, sub)

	if err := h.Store.AddLineItem(ctx, &item); err != nil {
		h.writeError(w, err, "add line item")
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// DeleteLineItemHandler обрабатывает DELETE /api/bids/{bidId}/subcontractors/{lineItemId}
func (h *Handler) DeleteLineItemHandler(w http.ResponseWriter, r *http.Request) {
	bidID, err := intParam(r, "bidId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	itemID, err := intParam(r, "lineItemId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Store.DeleteLineItem(r.Context(), bidID, itemID); err != nil {
		h.writeError(w, err, "delete line item")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// linkDirectory проставляет субподрядчику ссылку на справочник по точному имени.
// Отсутствие записи не ошибка: проверка покажет это предупреждением.
func (h *Handler) linkDirectory(r *http.Request, sub *models.Subcontractor) {
	if sub.DirectoryID != nil {
		return
	}
	ctx := r.Context()
	rec, err := h.Store.GetDirectoryEntryByName(ctx, sub.LegalName)
	if errors.Is(err, sentinel.ErrNotFound) {
		return
	}
	if err != nil {
		h.Log.Warn().Err(err).Int("subcontractor_id", sub.ID).Msg("directory lookup failed")
		return
	}
	if sub.ID > 0 {
		if err := h.Store.LinkSubcontractorDirectory(ctx, sub.ID, rec.ID); err != nil {
			h.Log.Warn().Err(err).Int("subcontractor_id", sub.ID).Msg("link directory failed")
			return
		}
	}
	sub.DirectoryID = &rec.ID
}
