package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/Mindburn-Labs/pact-conformance/pkg/api"
	"github.com/Mindburn-Labs/pact-conformance/pkg/auth"
	"github.com/Mindburn-Labs/pact-conformance/pkg/exchange"
	"github.com/Mindburn-Labs/pact-conformance/pkg/pact"
)

const maxEventBody = 1 << 20

// postEvent hands the envelope to the exchange service. Success is 200 with
// an empty body, whether the event was acknowledged, rejected or fulfilled.
func (s *Server) postEvent(p *pact.Protocol) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxEventBody))
		if err != nil {
			api.WriteInvalidEvent(w, "request body could not be read")
			return
		}
		if s.opts.Exchange == nil {
			api.WriteWebhookFailure(w, "event handling is not configured")
			return
		}

		res, err := s.opts.Exchange.Handle(r.Context(), p.Revision, body)
		if err != nil {
			s.writeExchangeError(w, r, res, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func (s *Server) writeExchangeError(w http.ResponseWriter, r *http.Request, res *exchange.Result, err error) {
	source := ""
	if res != nil && res.Inbound != nil {
		source = res.Inbound.Source
	}

	var (
		te *pact.TokenError
		fe *pact.ForwardingError
	)
	switch {
	case errors.Is(err, pact.ErrInvalidEvent):
		api.WriteInvalidEvent(w, err.Error())
	case errors.Is(err, pact.ErrInvalidPayload):
		api.WriteInvalidPayload(w, err.Error())
	case errors.As(err, &te):
		s.logger.ErrorContext(r.Context(), "fulfillment not delivered",
			"source", source, "endpoint", te.Endpoint, "status", te.Status,
			"request_id", auth.GetRequestID(r.Context()), "error", err)
		api.WriteForwardingFailed(w, source, pact.CodeTokenAcquisitionFailed, te.Status, err.Error())
	case errors.As(err, &fe):
		s.logger.ErrorContext(r.Context(), "fulfillment not delivered",
			"source", source, "destination", fe.Destination, "status", fe.Status,
			"request_id", auth.GetRequestID(r.Context()), "error", err)
		api.WriteForwardingFailed(w, source, pact.CodeForwardingFailed, fe.Status, err.Error())
	default:
		s.logger.ErrorContext(r.Context(), "event handling failed",
			"request_id", auth.GetRequestID(r.Context()), "error", err)
		api.WriteWebhookFailure(w, err.Error())
	}
}
