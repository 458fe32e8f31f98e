package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/sourcelore/sourcelore"
	apimiddleware "github.com/sourcelore/sourcelore/infrastructure/api/middleware"
	"github.com/sourcelore/sourcelore/infrastructure/api/v1"
)

// APIServer wires the sourcelore Client's services into the v1 REST
// surface: repositories (C1), code entities and relationships (C2/C3),
// documentation (C6), and conversations (C7/C9).
type APIServer struct {
	client       *sourcelore.Client
	router       chi.Router
	routerCalled bool
	logger       *slog.Logger
}

// NewAPIServer creates a new APIServer bound to client. API keys for
// write-protected routes come from client.APIKeys(); an empty list
// disables authentication.
func NewAPIServer(client *sourcelore.Client) *APIServer {
	return &APIServer{
		client: client,
		logger: client.Logger(),
	}
}

// Router returns the chi router for the API, creating it on first use.
func (a *APIServer) Router() chi.Router {
	if a.router == nil {
		a.router = chi.NewRouter()
	}
	return a.router
}

// MountRoutes mounts every v1 resource router under /api/v1. Idempotent:
// calling it more than once is a no-op after the first call.
func (a *APIServer) MountRoutes() {
	if a.routerCalled {
		return
	}
	a.routerCalled = true

	router := a.Router()
	c := a.client
	writeProtect := apimiddleware.WriteProtectAuth(c.APIKeys())

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(writeProtect)

		r.Mount("/repositories", v1.NewRepositoriesRouter(c.Repositories).Routes())
		r.Mount("/entities", v1.NewEntitiesRouter(c.Entities).Routes())
		r.Mount("/conversations", v1.NewConversationsRouter(c.Conversations, c.ConversationalAI).Routes())
		r.Mount("/repositories/{id}/documentation", v1.NewDocumentationRouter(c.Documentation, c.Tasks).Routes())
	})
}

// DocsRouter creates a documentation router serving the OpenAPI spec and
// Swagger UI at the given spec URL.
func (a *APIServer) DocsRouter(specURL string) *DocsRouter {
	return NewDocsRouter(specURL)
}
