package v1

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sourcelore/sourcelore/application/service"
	"github.com/sourcelore/sourcelore/domain/documentation"
	"github.com/sourcelore/sourcelore/domain/task"
	"github.com/sourcelore/sourcelore/infrastructure/api/middleware"
)

// DocumentationRouter handles Documentation Generator (C6) query and
// regeneration endpoints.
type DocumentationRouter struct {
	docs  *service.Documentation
	tasks *service.Queue
}

// NewDocumentationRouter creates a new DocumentationRouter.
func NewDocumentationRouter(docs *service.Documentation, tasks *service.Queue) *DocumentationRouter {
	return &DocumentationRouter{docs: docs, tasks: tasks}
}

// Routes returns the chi router for documentation endpoints, mounted under
// /api/v1/repositories/{id}/documentation.
func (r *DocumentationRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", r.Get)
	router.Post("/regenerate", r.Regenerate)

	return router
}

func (r *DocumentationRouter) repositoryID(req *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(req, "id"), 10, 64)
}

type sectionData struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

type documentationData struct {
	RepositoryID int64         `json:"repository_id"`
	Status       string        `json:"status"`
	Version      string        `json:"version"`
	QualityScore float64       `json:"quality_score"`
	ErrorMessage string        `json:"error_message,omitempty"`
	Sections     []sectionData `json:"sections"`
}

func documentationToData(doc documentation.Documentation) documentationData {
	sections := make([]sectionData, 0, len(doc.Sections()))
	for _, s := range doc.Sections() {
		sections = append(sections, sectionData{Type: string(s.Type()), Title: s.Title(), Content: s.Content()})
	}
	return documentationData{
		RepositoryID: doc.RepositoryID(),
		Status:       doc.Status().String(),
		Version:      doc.Version(),
		QualityScore: doc.QualityScore(),
		ErrorMessage: doc.ErrorMessage(),
		Sections:     sections,
	}
}

// Get handles GET /api/v1/repositories/{id}/documentation.
func (r *DocumentationRouter) Get(w http.ResponseWriter, req *http.Request) {
	id, err := r.repositoryID(req)
	if err != nil {
		middleware.WriteError(w, req, middleware.NewAPIError(http.StatusBadRequest, "invalid repository id", err), nil)
		return
	}

	doc, err := r.docs.FindOrCreate(req.Context(), id)
	if err != nil {
		middleware.WriteError(w, req, err, nil)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]any{"data": documentationToData(doc)})
}

// Regenerate handles POST /api/v1/repositories/{id}/documentation/regenerate,
// enqueuing the operation sequence that re-runs the Documentation Generator.
func (r *DocumentationRouter) Regenerate(w http.ResponseWriter, req *http.Request) {
	id, err := r.repositoryID(req)
	if err != nil {
		middleware.WriteError(w, req, middleware.NewAPIError(http.StatusBadRequest, "invalid repository id", err), nil)
		return
	}

	ops := task.NewPrescribedOperations(true, true).RegenerateDocumentation()
	payload := map[string]any{"repository_id": id}
	for _, op := range ops {
		t := task.NewTask(op, 0, payload)
		if err := r.tasks.Enqueue(req.Context(), t); err != nil {
			middleware.WriteError(w, req, err, nil)
			return
		}
	}

	w.WriteHeader(http.StatusAccepted)
}
