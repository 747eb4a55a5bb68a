package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Mindburn-Labs/pact-conformance/pkg/api"
	"github.com/Mindburn-Labs/pact-conformance/pkg/footprint"
	"github.com/Mindburn-Labs/pact-conformance/pkg/observability"
	"github.com/Mindburn-Labs/pact-conformance/pkg/pact"
	"github.com/Mindburn-Labs/pact-conformance/pkg/query"
)

// listFootprints filters and pages the revision's store. A nil store serves
// an empty list.
func listFootprints[T footprint.Record](s *Server, p *pact.Protocol, store *footprint.Store[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var records []T
		if store != nil {
			records = store.All()
		}

		q := r.URL.Query()
		page, err := query.Run(records, q)
		if err != nil {
			if errors.Is(err, query.ErrInvalidCriteria) {
				api.WriteBadRequest(w, err.Error())
				return
			}
			api.WriteInternal(w, r, err)
			return
		}
		s.opts.Metrics.QueryResults(string(p.Revision), page.TotalCount)
		observability.SetAttributes(r.Context(),
			observability.AttrRevision.String(string(p.Revision)),
			observability.AttrResultCount.Int(page.TotalCount))

		items := page.Items
		if items == nil {
			items = []T{}
		}
		w.Header().Set("Link", query.RenderLinks(s.linkBase(r), q, page.Links))
		api.WriteCacheable(w, r, api.Data[[]T]{Data: items})
	}
}

func getFootprint[T footprint.Record](s *Server, p *pact.Protocol, store *footprint.Store[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if store == nil {
			api.WriteNotFound(w, p.NotFoundCode, notFoundMessage(id))
			return
		}
		pf, ok := store.Get(id)
		if !ok {
			api.WriteNotFound(w, p.NotFoundCode, notFoundMessage(id))
			return
		}
		api.WriteCacheable(w, r, api.Data[T]{Data: pf})
	}
}

func notFoundMessage(id string) string {
	return "Footprint with id " + id + " not found."
}

// linkBase is the absolute URL Link targets are built on, without a query.
func (s *Server) linkBase(r *http.Request) string {
	if s.opts.BaseURL != "" {
		return strings.TrimRight(s.opts.BaseURL, "/") + r.URL.Path
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if fwd := r.Header.Get("X-Forwarded-Proto"); fwd != "" {
		scheme = strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	return scheme + "://" + r.Host + r.URL.Path
}
