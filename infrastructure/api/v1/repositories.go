// Package v1 provides the v1 API routes.
package v1

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sourcelore/sourcelore/application/service"
	"github.com/sourcelore/sourcelore/domain/repository"
	"github.com/sourcelore/sourcelore/infrastructure/api/middleware"
)

// RepositoriesRouter handles repository management API endpoints (C1).
type RepositoriesRouter struct {
	repositories *service.Repository
}

// NewRepositoriesRouter creates a new RepositoriesRouter.
func NewRepositoriesRouter(repositories *service.Repository) *RepositoriesRouter {
	return &RepositoriesRouter{repositories: repositories}
}

// Routes returns the chi router for repository endpoints.
func (r *RepositoriesRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", r.List)
	router.Post("/", r.Add)
	router.Get("/{id}", r.Get)
	router.Delete("/{id}", r.Delete)
	router.Post("/{id}/rescan", r.Rescan)
	router.Get("/{id}/branches", r.Branches)

	return router
}

func (r *RepositoriesRouter) repositoryID(req *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(req, "id"), 10, 64)
}

type repositoryData struct {
	ID              int64    `json:"id"`
	Owner           string   `json:"owner"`
	Name            string   `json:"name"`
	URL             string   `json:"url"`
	PrimaryLanguage string   `json:"primary_language"`
	Description     string   `json:"description"`
	DefaultBranch   string   `json:"default_branch"`
	Status          string   `json:"status"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
	Branches        []string `json:"branches,omitempty"`
}

func repositoryToData(repo repository.Repository) repositoryData {
	branches := make([]string, 0, len(repo.Branches()))
	for _, b := range repo.Branches() {
		branches = append(branches, b.Name())
	}
	return repositoryData{
		ID:              repo.ID(),
		Owner:           repo.Owner(),
		Name:            repo.Name(),
		URL:             repo.URL(),
		PrimaryLanguage: repo.PrimaryLanguage(),
		Description:     repo.Description(),
		DefaultBranch:   repo.DefaultBranch(),
		Status:          repo.Status().String(),
		CreatedAt:       repo.CreatedAt().Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:       repo.UpdatedAt().Format("2006-01-02T15:04:05Z07:00"),
		Branches:        branches,
	}
}

// List handles GET /api/v1/repositories.
func (r *RepositoriesRouter) List(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	pagination := ParsePagination(req)

	repos, err := r.repositories.Find(ctx, pagination.Options()...)
	if err != nil {
		middleware.WriteError(w, req, err, nil)
		return
	}

	total, err := r.repositories.Count(ctx)
	if err != nil {
		middleware.WriteError(w, req, err, nil)
		return
	}

	data := make([]repositoryData, 0, len(repos))
	for _, repo := range repos {
		data = append(data, repositoryToData(repo))
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"data":  data,
		"meta":  PaginationMeta(pagination, total),
		"links": PaginationLinks(req, pagination, total),
	})
}

type addRepositoryRequest struct {
	Owner  string `json:"owner"`
	Name   string `json:"name"`
	URL    string `json:"url"`
	Branch string `json:"branch"`
	Tag    string `json:"tag"`
	Commit string `json:"commit"`
}

// Add handles POST /api/v1/repositories.
func (r *RepositoriesRouter) Add(w http.ResponseWriter, req *http.Request) {
	var body addRepositoryRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, middleware.NewAPIError(http.StatusBadRequest, "invalid request body", err), nil)
		return
	}

	repo, created, err := r.repositories.Add(req.Context(), &service.RepositoryAddParams{
		Owner:  body.Owner,
		Name:   body.Name,
		URL:    body.URL,
		Branch: body.Branch,
		Tag:    body.Tag,
		Commit: body.Commit,
	})
	if err != nil {
		middleware.WriteError(w, req, err, nil)
		return
	}

	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	middleware.WriteJSON(w, status, map[string]any{"data": repositoryToData(repo)})
}

// Get handles GET /api/v1/repositories/{id}.
func (r *RepositoriesRouter) Get(w http.ResponseWriter, req *http.Request) {
	id, err := r.repositoryID(req)
	if err != nil {
		middleware.WriteError(w, req, middleware.NewAPIError(http.StatusBadRequest, "invalid repository id", err), nil)
		return
	}

	repo, err := r.repositories.Get(req.Context(), repository.WithID(id))
	if err != nil {
		middleware.WriteError(w, req, err, nil)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]any{"data": repositoryToData(repo)})
}

// Delete handles DELETE /api/v1/repositories/{id}.
func (r *RepositoriesRouter) Delete(w http.ResponseWriter, req *http.Request) {
	id, err := r.repositoryID(req)
	if err != nil {
		middleware.WriteError(w, req, middleware.NewAPIError(http.StatusBadRequest, "invalid repository id", err), nil)
		return
	}

	if err := r.repositories.Delete(req.Context(), id); err != nil {
		middleware.WriteError(w, req, err, nil)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Rescan handles POST /api/v1/repositories/{id}/rescan, re-queuing the full
// ingestion pipeline (C10) for an already-tracked repository.
func (r *RepositoriesRouter) Rescan(w http.ResponseWriter, req *http.Request) {
	id, err := r.repositoryID(req)
	if err != nil {
		middleware.WriteError(w, req, middleware.NewAPIError(http.StatusBadRequest, "invalid repository id", err), nil)
		return
	}

	if err := r.repositories.Rescan(req.Context(), &service.RescanParams{RepositoryID: id}); err != nil {
		middleware.WriteError(w, req, err, nil)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// Branches handles GET /api/v1/repositories/{id}/branches.
func (r *RepositoriesRouter) Branches(w http.ResponseWriter, req *http.Request) {
	id, err := r.repositoryID(req)
	if err != nil {
		middleware.WriteError(w, req, middleware.NewAPIError(http.StatusBadRequest, "invalid repository id", err), nil)
		return
	}

	branches, err := r.repositories.BranchesForRepository(req.Context(), id)
	if err != nil {
		middleware.WriteError(w, req, err, nil)
		return
	}

	data := make([]map[string]any, 0, len(branches))
	for _, b := range branches {
		data = append(data, map[string]any{"name": b.Name(), "is_default": b.IsDefault()})
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"data": data})
}
