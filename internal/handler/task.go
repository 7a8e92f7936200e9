package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/team-tasks/internal/auth"
	"github.com/BuzzLyutic/team-tasks/internal/model"
	"github.com/BuzzLyutic/team-tasks/internal/repo"
	"github.com/BuzzLyutic/team-tasks/internal/service"
	"github.com/BuzzLyutic/team-tasks/pkg/respond"
)

type TaskHandler struct {
	service *service.TaskService
	logger  *zap.Logger
}

func NewTaskHandler(srv *service.TaskService, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		service: srv,
		logger:  logger,
	}
}

// Routes монтирует API задач; вызывающий отвечает за auth.Middleware.
func (h *TaskHandler) Routes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Patch)
	r.Delete("/{id}", h.Delete)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {

	if r.ContentLength == 0 {
		respond.Error(w, r, http.StatusBadRequest, "empty request body")
		return
	}

	var req model.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debug("failed to decode json", zap.Error(err))
		respond.Error(w, r, http.StatusBadRequest, fmt.Sprintf("invalid json: %v", err))
		return
	}

	idempKey := r.Header.Get("Idempotency-Key")
	task, err := h.service.Create(r.Context(), auth.UserID(r.Context()), req, idempKey)
	if err != nil {
		h.handleErrors(w, r, err, 0)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/tasks/%d", task.ID))
	respond.JSON(w, r, http.StatusCreated, task)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(r)
	if !ok {
		respond.Error(w, r, http.StatusNotFound, "not found")
		return
	}

	task, err := h.service.Get(r.Context(), id, auth.UserID(r.Context()))
	if err != nil {
		h.handleErrors(w, r, err, id)
		return
	}
	setETag(w, task)
	respond.JSON(w, r, http.StatusOK, task)
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.TaskFilter{Scope: model.TaskScope(q.Get("scope"))}

	switch filter.Scope {
	case model.ScopeAny, model.ScopeAssigned, model.ScopeCreated:
	default:
		respond.Error(w, r, http.StatusBadRequest, "scope must be assigned or created")
		return
	}
	if v := q.Get("completed"); v != "" {
		completed, err := strconv.ParseBool(v)
		if err != nil {
			respond.Error(w, r, http.StatusBadRequest, "invalid completed filter")
			return
		}
		filter.Completed = &completed
	}
	if v := q.Get("team_id"); v != "" {
		teamID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			respond.Error(w, r, http.StatusBadRequest, "invalid team_id")
			return
		}
		filter.TeamID = &teamID
	}

	limit, _ := strconv.Atoi(q.Get("limit"))

	tasks, err := h.service.List(r.Context(), auth.UserID(r.Context()), filter, limit)
	if err != nil {
		h.handleErrors(w, r, err, 0)
		return
	}
	respond.JSON(w, r, http.StatusOK, tasks)
}

func (h *TaskHandler) Patch(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(r)
	if !ok {
		respond.Error(w, r, http.StatusNotFound, "not found")
		return
	}

	var req model.PatchTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	var (
		task   model.TaskView
		err    error
		userID = auth.UserID(r.Context())
	)
	switch {
	case req.Steps != nil:
		version, ok := expectedVersion(r, req)
		if !ok {
			respond.Error(w, r, http.StatusBadRequest, "invalid version")
			return
		}
		task, err = h.service.UpdateSteps(r.Context(), id, *req.Steps, version, userID)
	case req.Complete != nil && *req.Complete:
		task, err = h.service.Complete(r.Context(), id, userID)
	case req.AssigneeID != nil:
		task, err = h.service.Reassign(r.Context(), id, *req.AssigneeID, userID)
	default:
		respond.Error(w, r, http.StatusBadRequest, "expected one of steps, complete or assigneeId")
		return
	}
	if err != nil {
		h.handleErrors(w, r, err, id)
		return
	}

	setETag(w, task)
	respond.JSON(w, r, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(r)
	if !ok {
		respond.Error(w, r, http.StatusNotFound, "not found")
		return
	}

	if err := h.service.Delete(r.Context(), id, auth.UserID(r.Context())); err != nil {
		h.handleErrors(w, r, err, id)
		return
	}

	respond.JSON(w, r, http.StatusOK, map[string]string{"status": "deleted"})
}

// expectedVersion берет версию из тела, иначе из If-Match; 0 - без проверки.
func expectedVersion(r *http.Request, req model.PatchTaskRequest) (int, bool) {
	if req.Version != nil {
		return *req.Version, *req.Version > 0
	}
	tag := strings.TrimSpace(r.Header.Get("If-Match"))
	if tag == "" {
		return 0, true
	}
	tag = strings.Trim(strings.TrimPrefix(tag, "W/"), `"`)
	v, err := strconv.Atoi(tag)
	return v, err == nil && v > 0
}

func setETag(w http.ResponseWriter, task model.TaskView) {
	w.Header().Set("ETag", fmt.Sprintf(`"%d"`, task.Version))
}

func taskID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func (h *TaskHandler) handleErrors(w http.ResponseWriter, r *http.Request, err error, id int64) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		respond.Error(w, r, http.StatusUnauthorized, "unauthenticated")
	case errors.Is(err, service.ErrForbidden):
		respond.Error(w, r, http.StatusForbidden, "forbidden")
	case errors.Is(err, repo.ErrorNotFound):
		respond.Error(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, repo.ErrorConflict):
		respond.Error(w, r, http.StatusConflict, "conflict")
	case errors.Is(err, service.ErrTaskCompleted):
		respond.Error(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrValidation):
		respond.Error(w, r, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("internal error",
			zap.Error(err),
			zap.Int64("task_id", id),
			zap.String("user_id", auth.UserID(r.Context())),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
		respond.Error(w, r, http.StatusInternalServerError, "internal error")
	}
}
