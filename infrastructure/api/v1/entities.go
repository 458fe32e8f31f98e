package v1

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sourcelore/sourcelore/application/service"
	"github.com/sourcelore/sourcelore/domain/entity"
	"github.com/sourcelore/sourcelore/infrastructure/api/middleware"
)

// EntitiesRouter handles code entity and relationship query endpoints (C2),
// serving the knowledge graph's underlying node/edge storage over HTTP.
type EntitiesRouter struct {
	entities *service.Entity
}

// NewEntitiesRouter creates a new EntitiesRouter.
func NewEntitiesRouter(entities *service.Entity) *EntitiesRouter {
	return &EntitiesRouter{entities: entities}
}

// Routes returns the chi router for entity endpoints.
func (r *EntitiesRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", r.List)
	router.Get("/{entity_id}", r.Get)
	router.Get("/{entity_id}/relationships/from", r.RelationshipsFrom)
	router.Get("/{entity_id}/relationships/to", r.RelationshipsTo)

	return router
}

type entityData struct {
	EntityID  string `json:"entity_id"`
	Name      string `json:"name"`
	FullName  string `json:"full_name"`
	Kind      string `json:"kind"`
	FilePath  string `json:"file_path"`
	Language  string `json:"language"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
}

func entityToData(e entity.CodeEntity) entityData {
	loc := e.Location()
	return entityData{
		EntityID:  e.EntityID(),
		Name:      e.Name(),
		FullName:  e.FullName(),
		Kind:      string(e.Kind()),
		FilePath:  e.FilePath(),
		Language:  e.Language(),
		StartLine: loc.StartLine(),
		EndLine:   loc.EndLine(),
	}
}

type relationshipData struct {
	SourceEntityID string  `json:"source_entity_id"`
	TargetEntityID string  `json:"target_entity_id"`
	Type           string  `json:"type"`
	Weight         float64 `json:"weight"`
}

func relationshipToData(rel entity.CodeRelationship) relationshipData {
	return relationshipData{
		SourceEntityID: rel.SourceEntityID(),
		TargetEntityID: rel.TargetEntityID(),
		Type:           string(rel.Type()),
		Weight:         rel.Weight(),
	}
}

// List handles GET /api/v1/entities?repository_id=...
func (r *EntitiesRouter) List(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	pagination := ParsePagination(req)

	var repoID int64
	if s := req.URL.Query().Get("repository_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			middleware.WriteError(w, req, middleware.NewAPIError(http.StatusBadRequest, "invalid repository_id", err), nil)
			return
		}
		repoID = id
	}

	entities, err := r.entities.List(ctx, &service.EntityListParams{
		RepositoryID: repoID,
		FilePath:     req.URL.Query().Get("file_path"),
		Kind:         entity.Kind(req.URL.Query().Get("kind")),
		Limit:        pagination.Limit(),
		Offset:       pagination.Offset(),
	})
	if err != nil {
		middleware.WriteError(w, req, err, nil)
		return
	}

	data := make([]entityData, 0, len(entities))
	for _, e := range entities {
		data = append(data, entityToData(e))
	}

	total, err := r.entities.Count(ctx, repoID)
	if err != nil {
		middleware.WriteError(w, req, err, nil)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"data":  data,
		"meta":  PaginationMeta(pagination, total),
		"links": PaginationLinks(req, pagination, total),
	})
}

// Get handles GET /api/v1/entities/{entity_id}.
func (r *EntitiesRouter) Get(w http.ResponseWriter, req *http.Request) {
	e, err := r.entities.ByID(req.Context(), chi.URLParam(req, "entity_id"))
	if err != nil {
		middleware.WriteError(w, req, err, nil)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"data": entityToData(e)})
}

// RelationshipsFrom handles GET /api/v1/entities/{entity_id}/relationships/from.
func (r *EntitiesRouter) RelationshipsFrom(w http.ResponseWriter, req *http.Request) {
	rels, err := r.entities.RelationshipsFrom(req.Context(), chi.URLParam(req, "entity_id"))
	if err != nil {
		middleware.WriteError(w, req, err, nil)
		return
	}
	data := make([]relationshipData, 0, len(rels))
	for _, rel := range rels {
		data = append(data, relationshipToData(rel))
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"data": data})
}

// RelationshipsTo handles GET /api/v1/entities/{entity_id}/relationships/to.
func (r *EntitiesRouter) RelationshipsTo(w http.ResponseWriter, req *http.Request) {
	rels, err := r.entities.RelationshipsTo(req.Context(), chi.URLParam(req, "entity_id"))
	if err != nil {
		middleware.WriteError(w, req, err, nil)
		return
	}
	data := make([]relationshipData, 0, len(rels))
	for _, rel := range rels {
		data = append(data, relationshipToData(rel))
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"data": data})
}
