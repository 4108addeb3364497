package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/msomdec/project-planner/internal/domain"
	"github.com/msomdec/project-planner/internal/service"
)

// ProjectHandler serves the /projects routes.
type ProjectHandler struct {
	projects *service.ProjectService
	validate *validator.Validate
}

func NewProjectHandler(projects *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects, validate: newValidator()}
}

type createProjectRequest struct {
	Name        string   `json:"name" validate:"required,max=200"`
	Description string   `json:"description" validate:"max=5000"`
	StartDate   string   `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate     string   `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Priority    string   `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	Status      string   `json:"status" validate:"omitempty,oneof=planning active on_hold completed cancelled"`
	Budget      *float64 `json:"budget" validate:"omitempty,gte=0"`
	CategoryID  *string  `json:"category_id"`
	AssignedTo  []string `json:"assigned_to" validate:"omitempty,max=100,dive,required"`
	Tags        []string `json:"tags" validate:"omitempty,max=50,dive,max=50"`
}

type updateProjectRequest struct {
	Name        *string   `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string   `json:"description" validate:"omitempty,max=5000"`
	StartDate   *string   `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate     *string   `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Priority    *string   `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	Status      *string   `json:"status" validate:"omitempty,oneof=planning active on_hold completed cancelled"`
	Progress    *int      `json:"progress" validate:"omitempty,gte=0,lte=100"`
	Budget      *float64  `json:"budget" validate:"omitempty,gte=0"`
	CategoryID  *string   `json:"category_id"`
	AssignedTo  *[]string `json:"assigned_to" validate:"omitempty,max=100,dive,required"`
	Tags        *[]string `json:"tags" validate:"omitempty,max=50,dive,max=50"`
	IsArchived  *bool     `json:"is_archived"`
}

func (req *updateProjectRequest) patch() domain.ProjectPatch {
	p := domain.ProjectPatch{
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Progress:    req.Progress,
		Budget:      req.Budget,
		CategoryID:  req.CategoryID,
		AssignedTo:  req.AssignedTo,
		Tags:        req.Tags,
		IsArchived:  req.IsArchived,
	}
	if req.Priority != nil {
		v := domain.Priority(*req.Priority)
		p.Priority = &v
	}
	if req.Status != nil {
		v := domain.ProjectStatus(*req.Status)
		p.Status = &v
	}
	return p
}

// HandleList returns the projects the caller owns or is assigned to.
// GET /projects
func (h *ProjectHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projects.List(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, "Project", err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(projects, toProjectDTO))
}

// HandleCreate creates a project owned by the caller.
// POST /projects
func (h *ProjectHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	p, err := h.projects.Create(r.Context(), UserIDFromContext(r.Context()), service.NewProject{
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Priority:    domain.Priority(req.Priority),
		Status:      domain.ProjectStatus(req.Status),
		Budget:      req.Budget,
		CategoryID:  req.CategoryID,
		AssignedTo:  req.AssignedTo,
		Tags:        req.Tags,
	})
	if err != nil {
		writeServiceError(w, r, "Project", err)
		return
	}
	writeJSON(w, http.StatusCreated, toProjectDTO(p))
}

// HandleGet returns one project.
// GET /projects/{id}
func (h *ProjectHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.projects.Get(r.Context(), UserIDFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, "Project", err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectDTO(p))
}

// HandleUpdate applies a partial update.
// PUT /projects/{id}
func (h *ProjectHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateProjectRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	p, err := h.projects.Update(r.Context(), UserIDFromContext(r.Context()), r.PathValue("id"), req.patch())
	if err != nil {
		writeServiceError(w, r, "Project", err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectDTO(p))
}

// HandleDelete removes a project and its tasks.
// DELETE /projects/{id}
func (h *ProjectHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.projects.Delete(r.Context(), UserIDFromContext(r.Context()), r.PathValue("id")); err != nil {
		writeServiceError(w, r, "Project", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Project deleted successfully"})
}

// HandleListTasks returns the tasks of one project.
// GET /projects/{id}/tasks
func (h *ProjectHandler) HandleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.projects.ListTasks(r.Context(), UserIDFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, "Project", err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(tasks, toTaskDTO))
}
