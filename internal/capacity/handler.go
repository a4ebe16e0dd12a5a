package capacity

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pulsehub/scheduler/pkg/cerr"
	"github.com/pulsehub/scheduler/pkg/civil"
)

type Server struct {
	ledger *Ledger
}

func NewServer(ledger *Ledger) *Server {
	return &Server{ledger: ledger}
}

func (s *Server) Routes(r chi.Router) {
	r.Get("/capacities", s.handleList)
	r.Put("/capacities", s.handleUpsert)
	r.Get("/capacities/{capacityID}", s.handleGet)
	r.Delete("/capacities/{capacityID}", s.handleRemove)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entry, err := s.ledger.Get(ctx, chi.URLParam(r, "capacityID"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, entry)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	filter := ListFilter{
		AccountID: q.Get("account_id"),
		UserID:    q.Get("user_id"),
	}
	if raw := q.Get("week_start"); raw != "" {
		week, err := civil.ParseDate(raw)
		if err != nil {
			cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid week_start date", err)
			return
		}
		filter.WeekStart = &week
	}
	result, err := s.ledger.List(ctx, filter)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, result)
}

func (s *Server) handleUpsert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var in UpsertInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	entry, err := s.ledger.Upsert(ctx, in)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, entry)
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := s.ledger.Remove(ctx, chi.URLParam(r, "capacityID")); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponseStatus(ctx, nil, http.StatusNoContent)
}
