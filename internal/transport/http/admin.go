package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ticketcore/boxoffice/internal/app"
	"github.com/ticketcore/boxoffice/internal/domain"
)

// AdminItemService is the minimal interface needed for admin item endpoints.
type AdminItemService interface {
	CreateItem(ctx context.Context, in app.CreateItemInput) (domain.Item, error)
	ListItems(ctx context.Context) ([]domain.Item, error)
}

// HandleAdminItems returns an HTTP handler for catalog item creation/listing.
func HandleAdminItems(svc AdminItemService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			items, err := svc.ListItems(r.Context())
			if err != nil {
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
				return
			}
			resp := make([]itemResponse, 0, len(items))
			for _, item := range items {
				resp = append(resp, newItemResponse(item))
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(resp)
			return
		case http.MethodPost:
			var req createItemRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}

			item, err := svc.CreateItem(r.Context(), app.CreateItemInput{
				Name:     req.Name,
				Price:    req.Price,
				Capacity: req.Capacity,
			})
			if err != nil {
				switch err {
				case domain.ErrItemNameRequired:
					writeError(w, http.StatusBadRequest, codeItemNameRequired, err.Error())
				case domain.ErrInvalidCapacity:
					writeError(w, http.StatusBadRequest, codeInvalidCapacity, err.Error())
				case domain.ErrInvalidPrice:
					writeError(w, http.StatusBadRequest, codeInvalidPrice, err.Error())
				default:
					writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
				}
				return
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(newItemResponse(item))
			return
		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}
	}
}

type createItemRequest struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Capacity int    `json:"capacity"`
}

type itemResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Capacity int    `json:"capacity"`
	Sold     int    `json:"sold"`
	Held     int    `json:"held"`
}

func newItemResponse(item domain.Item) itemResponse {
	return itemResponse{
		ID:       item.ID,
		Name:     item.Name,
		Price:    item.Price,
		Capacity: item.Capacity,
		Sold:     item.Sold,
		Held:     item.Held,
	}
}
