package sprint

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pulsehub/scheduler/internal/taskcatalog"
	"github.com/pulsehub/scheduler/pkg/cerr"
	"github.com/pulsehub/scheduler/pkg/civil"
)

// Server exposes the scheduling REST surface. Handlers register their
// outcome on the request context; the cerr middleware writes the JSON
// response or error.
type Server struct {
	store         *Store
	velocityWeeks int
}

func NewServer(store *Store, velocityWeeks int) *Server {
	return &Server{store: store, velocityWeeks: velocityWeeks}
}

func (s *Server) Routes(r chi.Router) {
	r.Get("/sprints", s.handleList)
	r.Get("/sprints/available-tasks", s.handleAvailableTasks)
	r.Post("/sprints", s.handleCreate)
	r.Get("/sprints/{sprintID}", s.handleGet)
	r.Put("/sprints/{sprintID}", s.handleUpdate)
	r.Delete("/sprints/{sprintID}", s.handleDelete)
	r.Get("/sprints/{sprintID}/metrics", s.handleMetrics)
	r.Post("/sprints/{sprintID}/tasks", s.handleAddTask)
	r.Put("/sprints/{sprintID}/tasks/reorder", s.handleReorder)
	r.Put("/sprints/{sprintID}/tasks/{taskID}", s.handleUpdateAssignment)
	r.Delete("/sprints/{sprintID}/tasks/{taskID}", s.handleRemoveTask)
	r.Put("/sprints/{sprintID}/capacities", s.handleUpsertCapacity)
	r.Delete("/sprints/{sprintID}/capacities/{capacityID}", s.handleRemoveCapacity)
	r.Get("/velocity", s.handleVelocity)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	filter := ListFilter{
		AccountID:      q.Get("account_id"),
		ProjectID:      q.Get("project_id"),
		WithoutProject: q.Get("without_project") == "true",
		Status:         Status(q.Get("status")),
	}
	sprints, err := s.store.List(ctx, filter)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, sprints)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sp, err := s.store.Get(ctx, chi.URLParam(r, "sprintID"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, sp)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var in CreateInput
	if !decodeJSON(r, &in) {
		return
	}
	sp, err := s.store.Create(ctx, in)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponseStatus(ctx, sp, http.StatusCreated)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var in UpdateInput
	if !decodeJSON(r, &in) {
		return
	}
	sp, err := s.store.Update(ctx, chi.URLParam(r, "sprintID"), in)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, sp)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := s.store.Delete(ctx, chi.URLParam(r, "sprintID")); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponseStatus(ctx, nil, http.StatusNoContent)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sp, err := s.store.Get(ctx, chi.URLParam(r, "sprintID"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, ComputeMetrics(sp))
}

func (s *Server) handleAddTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var in struct {
		Version int64 `json:"version"`
		TaskInput
	}
	if !decodeJSON(r, &in) {
		return
	}
	sp, err := s.store.AddTask(ctx, chi.URLParam(r, "sprintID"), in.Version, in.TaskInput)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponseStatus(ctx, sp, http.StatusCreated)
}

func (s *Server) handleReorder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var in struct {
		Version int64    `json:"version"`
		TaskIDs []string `json:"task_ids"`
	}
	if !decodeJSON(r, &in) {
		return
	}
	sp, err := s.store.Reorder(ctx, chi.URLParam(r, "sprintID"), in.Version, in.TaskIDs)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, sp)
}

func (s *Server) handleUpdateAssignment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var in struct {
		Version int64 `json:"version"`
		AssignmentPatch
	}
	if !decodeJSON(r, &in) {
		return
	}
	sp, err := s.store.UpdateAssignment(ctx, chi.URLParam(r, "sprintID"), in.Version,
		chi.URLParam(r, "taskID"), in.AssignmentPatch)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, sp)
}

func (s *Server) handleRemoveTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	version, ok := versionParam(r)
	if !ok {
		return
	}
	sp, err := s.store.RemoveTask(ctx, chi.URLParam(r, "sprintID"), version, chi.URLParam(r, "taskID"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, sp)
}

func (s *Server) handleUpsertCapacity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var in struct {
		Version int64 `json:"version"`
		CapacityInput
	}
	if !decodeJSON(r, &in) {
		return
	}
	sp, err := s.store.UpsertCapacity(ctx, chi.URLParam(r, "sprintID"), in.Version, in.CapacityInput)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, sp)
}

func (s *Server) handleRemoveCapacity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	version, ok := versionParam(r)
	if !ok {
		return
	}
	sp, err := s.store.RemoveCapacity(ctx, chi.URLParam(r, "sprintID"), version, chi.URLParam(r, "capacityID"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, sp)
}

func (s *Server) handleAvailableTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	tasks, err := s.store.AvailableTasks(ctx, q.Get("account_id"), q.Get("project_id"),
		taskcatalog.TaskStatus(q.Get("status")))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, tasks)
}

func (s *Server) handleVelocity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	accountID := q.Get("account_id")
	if accountID == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "account_id is required", nil)
		return
	}

	asOf := civil.Today()
	if raw := q.Get("as_of"); raw != "" {
		parsed, err := civil.ParseDate(raw)
		if err != nil {
			cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid as_of date", err)
			return
		}
		asOf = parsed
	}
	weeks := s.velocityWeeks
	if raw := q.Get("weeks"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "weeks must be a positive integer", err)
			return
		}
		weeks = parsed
	}

	report, err := s.store.Velocity(ctx, accountID, q.Get("project_id"), asOf, weeks)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, report)
}

func decodeJSON(r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		cerr.SetNewJSONError(r.Context(), cerr.InvalidArgument, "invalid request body", err)
		return false
	}
	return true
}

// versionParam reads the optimistic-concurrency token from the query
// string for bodyless requests.
func versionParam(r *http.Request) (int64, bool) {
	raw := r.URL.Query().Get("version")
	version, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		cerr.SetNewJSONError(r.Context(), cerr.InvalidArgument, "version query parameter is required", err)
		return 0, false
	}
	return version, true
}
