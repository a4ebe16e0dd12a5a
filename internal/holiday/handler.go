package holiday

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pulsehub/scheduler/pkg/cerr"
	"github.com/pulsehub/scheduler/pkg/civil"
)

type Server struct {
	calendar *Calendar
}

func NewServer(calendar *Calendar) *Server {
	return &Server{calendar: calendar}
}

func (s *Server) Routes(r chi.Router) {
	r.Get("/holidays", s.handleList)
	r.Post("/holidays", s.handleCreate)
	r.Get("/holidays/{holidayID}", s.handleGet)
	r.Delete("/holidays/{holidayID}", s.handleRemove)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h, err := s.calendar.Get(ctx, chi.URLParam(r, "holidayID"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, h)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	filter := ListFilter{
		AccountID: q.Get("account_id"),
		ProjectID: q.Get("project_id"),
	}
	var ok bool
	if filter.From, ok = dateParam(r, "from"); !ok {
		return
	}
	if filter.To, ok = dateParam(r, "to"); !ok {
		return
	}
	holidays, err := s.calendar.List(ctx, filter)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, holidays)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var in CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	h, err := s.calendar.Create(ctx, in)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponseStatus(ctx, h, http.StatusCreated)
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := s.calendar.Remove(ctx, chi.URLParam(r, "holidayID")); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponseStatus(ctx, nil, http.StatusNoContent)
}

func dateParam(r *http.Request, name string) (*civil.Date, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	d, err := civil.ParseDate(raw)
	if err != nil {
		cerr.SetNewJSONError(r.Context(), cerr.InvalidArgument, "invalid "+name+" date", err)
		return nil, false
	}
	return &d, true
}
