package http

import (
	"encoding/json"
	"net/http"
)

const (
	codeMethodNotAllowed       = "method_not_allowed"
	codeNotFound               = "not_found"
	codeInvalidRequestBody     = "invalid_request_body"
	codeInvalidID              = "invalid_id"
	codeInvalidQuantity        = "invalid_quantity"
	codeBuyerRequired          = "buyer_required"
	codeItemNotFound           = "item_not_found"
	codeInsufficientCapacity   = "insufficient_capacity"
	codeHoldNotFound           = "hold_not_found"
	codeOfferExpired           = "offer_expired"
	codeAmountMismatch         = "amount_mismatch"
	codeItemMismatch           = "item_mismatch"
	codePaymentConflict        = "payment_conflict"
	codeMalformedNotification  = "malformed_notification"
	codeInvalidSignature       = "invalid_signature"
	codeItemNameRequired       = "item_name_required"
	codeInvalidCapacity        = "invalid_capacity"
	codeInvalidPrice           = "invalid_price"
	codePaymentReferenceNeeded = "payment_reference_required"
	codeForbidden              = "forbidden"
	codeInternalError          = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}
