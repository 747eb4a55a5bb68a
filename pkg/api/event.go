package api

import (
	"net/http"

	"github.com/Mindburn-Labs/pact-conformance/pkg/pact"
)

// Legacy messages of the event endpoints. Conformance clients match on them.
const (
	MsgMissingFields  = "Missing required fields in request body"
	MsgInvalidPfID    = "Invalid pfId format"
	MsgWebhookFailure = "Internal server error processing webhook"
)

// EventError is the error body of the event endpoints. It keeps the legacy
// error field next to code and message.
type EventError struct {
	Error   string `json:"error"`
	Status  int    `json:"status,omitempty"`
	Details string `json:"details,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteInvalidEvent answers an envelope missing required fields.
func WriteInvalidEvent(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusBadRequest, EventError{
		Error:   MsgMissingFields,
		Code:    pact.CodeBadRequest,
		Message: message,
	})
}

// WriteInvalidPayload answers a Published event with malformed ids.
func WriteInvalidPayload(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusBadRequest, EventError{
		Error:   MsgInvalidPfID,
		Code:    pact.CodeBadRequest,
		Message: message,
	})
}

// WriteForwardingFailed answers a fulfilled request whose response event
// could not be delivered. status is the counterparty status, 0 if none.
func WriteForwardingFailed(w http.ResponseWriter, source, code string, status int, message string) {
	WriteJSON(w, http.StatusBadGateway, EventError{
		Error:   "Failed to forward request to " + source,
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// WriteWebhookFailure answers an unexpected failure while handling an event.
func WriteWebhookFailure(w http.ResponseWriter, details string) {
	WriteJSON(w, http.StatusInternalServerError, EventError{
		Error:   MsgWebhookFailure,
		Details: details,
		Code:    pact.CodeInternalError,
		Message: "An unexpected error occurred while processing the event.",
	})
}
