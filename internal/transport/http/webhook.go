package http

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog"
	stripe "github.com/stripe/stripe-go"
	"github.com/stripe/stripe-go/webhook"

	"github.com/ticketcore/boxoffice/internal/app"
	"github.com/ticketcore/boxoffice/internal/domain"
)

const maxWebhookBody = int64(65536)

const signatureHeader = "Stripe-Signature"

// paymentNotification is the subset of a gateway event the core acts on.
type paymentNotification struct {
	HoldID           string
	PaymentReference string
	Amount           int64
}

// HandlePaymentWebhook returns an HTTP handler for asynchronous payment
// confirmations. Delivery is at-least-once and unordered; duplicates are
// absorbed by the confirmation service's idempotent replay. When secret is
// empty, signature verification is skipped (local development only).
func HandlePaymentWebhook(svc PurchaseConfirmer, secret string, logger zerolog.Logger) http.HandlerFunc {
	log := logger.With().Str("component", "payment_webhook").Logger()

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBody)
		payload, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "unable to read request body")
			return
		}

		var event stripe.Event
		if secret != "" {
			event, err = webhook.ConstructEvent(payload, r.Header.Get(signatureHeader), secret)
			if err != nil {
				log.Warn().Err(err).Msg("webhook signature verification failed")
				writeError(w, http.StatusBadRequest, codeInvalidSignature, "signature verification failed")
				return
			}
		} else if err := json.Unmarshal(payload, &event); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid event payload")
			return
		}

		if event.Type != "payment_intent.succeeded" {
			// Not ours to process; acknowledge so the gateway stops retrying.
			w.WriteHeader(http.StatusOK)
			return
		}

		note, err := parsePaymentNotification(event)
		if err != nil {
			log.Warn().Str("event_id", event.ID).Err(err).Msg("rejected malformed payment notification")
			writeError(w, http.StatusBadRequest, codeMalformedNotification, err.Error())
			return
		}

		res, err := svc.Confirm(r.Context(), app.ConfirmInput{
			HoldID:           note.HoldID,
			PaymentReference: note.PaymentReference,
			Amount:           note.Amount,
		})
		if err != nil {
			if err == domain.ErrPaymentConflict {
				log.Error().
					Str("hold_id", note.HoldID).
					Str("payment_reference", note.PaymentReference).
					Msg("payment conflict on purchased hold")
			}
			writeConfirmError(w, err)
			return
		}

		if !res.Created {
			log.Info().Str("hold_id", note.HoldID).Msg("duplicate payment notification replayed")
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(confirmResponse{Sales: saleResponses(res.Sales)})
	}
}

// parsePaymentNotification extracts the routing metadata the gateway was
// instructed to attach when the payment was initiated. Absent fields reject
// the event before any state is touched.
func parsePaymentNotification(event stripe.Event) (paymentNotification, error) {
	if event.Data == nil {
		return paymentNotification{}, domain.ErrMalformedNotification
	}
	object := event.Data.Object

	reference, _ := object["id"].(string)
	if reference == "" {
		return paymentNotification{}, domain.ErrMalformedNotification
	}

	metadata, _ := object["metadata"].(map[string]interface{})
	holdID, _ := metadata["hold_id"].(string)
	if holdID == "" {
		return paymentNotification{}, domain.ErrMalformedNotification
	}

	amount, ok := object["amount"].(float64)
	if !ok {
		return paymentNotification{}, domain.ErrMalformedNotification
	}

	return paymentNotification{
		HoldID:           holdID,
		PaymentReference: reference,
		Amount:           int64(amount),
	}, nil
}
