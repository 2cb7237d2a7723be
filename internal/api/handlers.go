package api

import (
	"net/http"

	"github.com/gorilla/schema"

	"salesync/internal/query"
	"salesync/pkg/model"
)

// viewParams are the query-string parameters of a view request.
type viewParams struct {
	Store      string `schema:"store"`
	SortField  string `schema:"sortField"`
	SortOrder  string `schema:"sortOrder"`
	PageNumber int    `schema:"pageNumber"`
	PageSize   int    `schema:"pageSize"`
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	params := viewParams{
		Store:      "postgres",
		PageNumber: 1,
		PageSize:   10,
	}
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	if err := decoder.Decode(&params, r.URL.Query()); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid query parameters: "+err.Error())
		return
	}

	res, err := s.engine.Query(r.Context(), params.Store, r.PathValue("view"), query.Options{
		SortField:  params.SortField,
		SortOrder:  params.SortOrder,
		PageNumber: params.PageNumber,
		PageSize:   params.PageSize,
	})
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCreateSale(w http.ResponseWriter, r *http.Request) {
	var in model.NewSale
	if err := decodeJSONBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	if err := validateNewSale(in); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	rec, err := s.facts.InsertSale(r.Context(), in)
	if err != nil {
		s.logger.Error("sale insert failed", "invoiceNo", in.InvoiceNo, "error", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to record sale")
		return
	}

	// The fact is committed; propagation failures are logged inside the
	// propagator and must not fail the write.
	if err := s.propagator.Propagate(r.Context(), rec); err != nil {
		s.logger.Warn("propagation incomplete, reconciler will heal",
			"invoiceNo", rec.InvoiceNo, "error", err)
	}

	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	statuses := s.healthz.Latest()
	healthy := len(statuses) > 0
	for _, st := range statuses {
		if !st.Healthy {
			healthy = false
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"healthy": healthy,
		"stores":  statuses,
	})
}
