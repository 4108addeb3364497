package handler

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/msomdec/project-planner/internal/domain"
	"github.com/msomdec/project-planner/internal/service"
)

// TaskHandler serves the /tasks routes.
type TaskHandler struct {
	tasks    *service.TaskService
	validate *validator.Validate
}

func NewTaskHandler(tasks *service.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks, validate: newValidator()}
}

type createTaskRequest struct {
	Title          string   `json:"title" validate:"required,max=200"`
	Description    string   `json:"description" validate:"max=5000"`
	ProjectID      string   `json:"project_id" validate:"required"`
	ParentTaskID   *string  `json:"parent_task_id"`
	AssignedTo     *string  `json:"assigned_to"`
	Priority       string   `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	Status         string   `json:"status" validate:"omitempty,oneof=todo in_progress review completed cancelled"`
	DueDate        string   `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	StartDate      string   `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EstimatedHours *float64 `json:"estimated_hours" validate:"omitempty,gte=0"`
	Tags           []string `json:"tags" validate:"omitempty,max=50,dive,max=50"`
	Dependencies   []string `json:"dependencies" validate:"omitempty,max=100,dive,required"`
}

type updateTaskRequest struct {
	Title          *string   `json:"title" validate:"omitempty,min=1,max=200"`
	Description    *string   `json:"description" validate:"omitempty,max=5000"`
	AssignedTo     *string   `json:"assigned_to"`
	Priority       *string   `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	Status         *string   `json:"status" validate:"omitempty,oneof=todo in_progress review completed cancelled"`
	Progress       *int      `json:"progress" validate:"omitempty,gte=0,lte=100"`
	DueDate        *string   `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	StartDate      *string   `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	CompletedDate  *string   `json:"completed_date"`
	EstimatedHours *float64  `json:"estimated_hours" validate:"omitempty,gte=0"`
	ActualHours    *float64  `json:"actual_hours" validate:"omitempty,gte=0"`
	Tags           *[]string `json:"tags" validate:"omitempty,max=50,dive,max=50"`
	Dependencies   *[]string `json:"dependencies" validate:"omitempty,max=100,dive,required"`
}

// parseCompletedDate accepts a full RFC 3339 timestamp or a bare date.
func parseCompletedDate(s string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func (req *updateTaskRequest) patch() (domain.TaskPatch, bool) {
	p := domain.TaskPatch{
		Title:          req.Title,
		Description:    req.Description,
		AssignedTo:     req.AssignedTo,
		Progress:       req.Progress,
		DueDate:        req.DueDate,
		StartDate:      req.StartDate,
		EstimatedHours: req.EstimatedHours,
		ActualHours:    req.ActualHours,
		Tags:           req.Tags,
		Dependencies:   req.Dependencies,
	}
	if req.Priority != nil {
		v := domain.Priority(*req.Priority)
		p.Priority = &v
	}
	if req.Status != nil {
		v := domain.TaskStatus(*req.Status)
		p.Status = &v
	}
	if req.CompletedDate != nil {
		t, ok := parseCompletedDate(*req.CompletedDate)
		if !ok {
			return p, false
		}
		p.CompletedAt = &t
	}
	return p, true
}

// HandleCreate adds a task to a project.
// POST /tasks
func (h *TaskHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	t, err := h.tasks.Create(r.Context(), UserIDFromContext(r.Context()), service.NewTask{
		Title:          req.Title,
		Description:    req.Description,
		ProjectID:      req.ProjectID,
		ParentTaskID:   req.ParentTaskID,
		AssignedTo:     req.AssignedTo,
		Priority:       domain.Priority(req.Priority),
		Status:         domain.TaskStatus(req.Status),
		DueDate:        req.DueDate,
		StartDate:      req.StartDate,
		EstimatedHours: req.EstimatedHours,
		Tags:           req.Tags,
		Dependencies:   req.Dependencies,
	})
	if err != nil {
		// Only the project lookup reports not found; bad parents are 400s.
		writeServiceError(w, r, "Project", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTaskDTO(t))
}

// HandleList returns the caller's tasks, optionally narrowed to one project.
// GET /tasks?project_id=
func (h *TaskHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.tasks.List(r.Context(), UserIDFromContext(r.Context()), r.URL.Query().Get("project_id"))
	if err != nil {
		writeServiceError(w, r, "Project", err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(tasks, toTaskDTO))
}

// HandleGet returns one task.
// GET /tasks/{id}
func (h *TaskHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	t, err := h.tasks.Get(r.Context(), UserIDFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, "Task", err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskDTO(t))
}

// HandleUpdate applies a partial update.
// PUT /tasks/{id}
func (h *TaskHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateTaskRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}
	patch, ok := req.patch()
	if !ok {
		writeError(w, http.StatusBadRequest, "completed_date must be an RFC 3339 timestamp or YYYY-MM-DD")
		return
	}

	t, err := h.tasks.Update(r.Context(), UserIDFromContext(r.Context()), r.PathValue("id"), patch)
	if err != nil {
		writeServiceError(w, r, "Task", err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskDTO(t))
}

// HandleDelete removes a task. Its subtasks are kept and detached.
// DELETE /tasks/{id}
func (h *TaskHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.tasks.Delete(r.Context(), UserIDFromContext(r.Context()), r.PathValue("id")); err != nil {
		writeServiceError(w, r, "Task", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Task deleted successfully"})
}
