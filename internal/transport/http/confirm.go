package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/ticketcore/boxoffice/internal/app"
	"github.com/ticketcore/boxoffice/internal/domain"
)

// PurchaseConfirmer is the minimal interface needed to confirm a purchase.
type PurchaseConfirmer interface {
	Confirm(ctx context.Context, in app.ConfirmInput) (app.ConfirmResult, error)
}

// HandleConfirmPurchase returns an HTTP handler for the synchronous
// confirmation path. Zero-amount confirmations for zero-priced items come in
// here directly; paid items normally arrive through the payment webhook.
func HandleConfirmPurchase(svc PurchaseConfirmer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		holdID, ok := parseConfirmPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		var req confirmRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if req.PaymentReference == "" {
			writeError(w, http.StatusBadRequest, codePaymentReferenceNeeded, "payment_reference is required")
			return
		}

		items := make([]app.ConfirmItem, 0, len(req.Items))
		for _, item := range req.Items {
			items = append(items, app.ConfirmItem{ItemID: item.ItemID, Quantity: item.Quantity})
		}

		res, err := svc.Confirm(r.Context(), app.ConfirmInput{
			HoldID:           holdID,
			PaymentReference: req.PaymentReference,
			Amount:           req.Amount,
			Items:            items,
		})
		if err != nil {
			writeConfirmError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if res.Created {
			w.WriteHeader(http.StatusCreated)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		_ = json.NewEncoder(w).Encode(confirmResponse{Sales: saleResponses(res.Sales)})
	}
}

func writeConfirmError(w http.ResponseWriter, err error) {
	switch err {
	case domain.ErrHoldNotFound:
		writeError(w, http.StatusNotFound, codeHoldNotFound, err.Error())
	case domain.ErrInvalidID:
		writeError(w, http.StatusNotFound, codeInvalidID, err.Error())
	case domain.ErrItemNotFound:
		writeError(w, http.StatusNotFound, codeItemNotFound, err.Error())
	case domain.ErrOfferExpired:
		writeError(w, http.StatusConflict, codeOfferExpired, err.Error())
	case domain.ErrPaymentConflict:
		writeError(w, http.StatusConflict, codePaymentConflict, err.Error())
	case domain.ErrAmountMismatch:
		writeError(w, http.StatusUnprocessableEntity, codeAmountMismatch, err.Error())
	case domain.ErrItemMismatch:
		writeError(w, http.StatusUnprocessableEntity, codeItemMismatch, err.Error())
	case domain.ErrMalformedNotification:
		writeError(w, http.StatusBadRequest, codeMalformedNotification, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

func parseConfirmPath(path string) (string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 3 {
		return "", false
	}
	if parts[0] != "offers" || parts[2] != "confirm" {
		return "", false
	}
	if parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

type confirmRequest struct {
	PaymentReference string               `json:"payment_reference"`
	Amount           int64                `json:"amount"`
	Items            []confirmItemRequest `json:"items"`
}

type confirmItemRequest struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

type confirmResponse struct {
	Sales []saleResponse `json:"sales"`
}

type saleResponse struct {
	ID               string    `json:"id"`
	ItemID           string    `json:"item_id"`
	HoldID           string    `json:"hold_id"`
	BuyerID          string    `json:"buyer_id"`
	PaymentReference string    `json:"payment_reference"`
	Amount           int64     `json:"amount"`
	Status           string    `json:"status"`
	ConfirmedAt      time.Time `json:"confirmed_at"`
}

func saleResponses(sales []domain.Sale) []saleResponse {
	out := make([]saleResponse, 0, len(sales))
	for _, s := range sales {
		out = append(out, saleResponse{
			ID:               s.ID,
			ItemID:           s.ItemID,
			HoldID:           s.HoldID,
			BuyerID:          s.BuyerID,
			PaymentReference: s.PaymentReference,
			Amount:           s.Amount,
			Status:           string(s.Status),
			ConfirmedAt:      s.ConfirmedAt,
		})
	}
	return out
}
