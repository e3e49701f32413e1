package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ticketcore/boxoffice/internal/app"
	"github.com/ticketcore/boxoffice/internal/domain"
)

// OfferCreator is the minimal interface needed to create an offer.
type OfferCreator interface {
	CreateOffer(ctx context.Context, in app.CreateOfferInput) (domain.Hold, error)
}

// HandleCreateOffer returns an HTTP handler for reserving capacity.
func HandleCreateOffer(svc OfferCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req createOfferRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if err := req.validate(); err != nil {
			switch err {
			case domain.ErrInvalidQuantity:
				writeError(w, http.StatusBadRequest, codeInvalidQuantity, err.Error())
			case domain.ErrBuyerRequired:
				writeError(w, http.StatusBadRequest, codeBuyerRequired, err.Error())
			default:
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, err.Error())
			}
			return
		}

		hold, err := svc.CreateOffer(r.Context(), app.CreateOfferInput{
			ItemID:   req.ItemID,
			BuyerID:  req.BuyerID,
			Quantity: req.Quantity,
		})
		if err != nil {
			switch err {
			case domain.ErrInvalidQuantity:
				writeError(w, http.StatusBadRequest, codeInvalidQuantity, err.Error())
			case domain.ErrBuyerRequired:
				writeError(w, http.StatusBadRequest, codeBuyerRequired, err.Error())
			case domain.ErrInvalidID:
				writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
			case domain.ErrItemNotFound:
				writeError(w, http.StatusNotFound, codeItemNotFound, err.Error())
			case domain.ErrInsufficientCapacity:
				writeError(w, http.StatusConflict, codeInsufficientCapacity, err.Error())
			default:
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			}
			return
		}

		resp := createOfferResponse{
			HoldID:    hold.ID,
			Status:    string(hold.Status),
			ExpiresAt: hold.ExpiresAt,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

type createOfferRequest struct {
	ItemID   string `json:"item_id"`
	BuyerID  string `json:"buyer_id"`
	Quantity int    `json:"quantity"`
}

func (r createOfferRequest) validate() error {
	if r.ItemID == "" {
		return domain.ErrInvalidID
	}
	if r.BuyerID == "" {
		return domain.ErrBuyerRequired
	}
	if r.Quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	return nil
}

type createOfferResponse struct {
	HoldID    string    `json:"hold_id"`
	Status    string    `json:"status"`
	ExpiresAt time.Time `json:"expires_at"`
}
