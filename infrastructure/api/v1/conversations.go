package v1

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sourcelore/sourcelore/application/service"
	"github.com/sourcelore/sourcelore/domain/conversation"
	"github.com/sourcelore/sourcelore/domain/repository"
	"github.com/sourcelore/sourcelore/infrastructure/api/middleware"
)

// ConversationsRouter handles the Conversation Store (C7) and Conversational
// AI Service (C9) endpoints: starting conversations and driving turns
// through ProcessQuery.
type ConversationsRouter struct {
	conversations *service.Conversation
	ai            *service.ConversationalAI
}

// NewConversationsRouter creates a new ConversationsRouter.
func NewConversationsRouter(conversations *service.Conversation, ai *service.ConversationalAI) *ConversationsRouter {
	return &ConversationsRouter{conversations: conversations, ai: ai}
}

// Routes returns the chi router for conversation endpoints.
func (r *ConversationsRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", r.List)
	router.Post("/", r.Start)
	router.Get("/{id}", r.Get)
	router.Post("/{id}/messages", r.Ask)
	router.Post("/{id}/archive", r.Archive)
	router.Delete("/{id}", r.Delete)

	return router
}

func (r *ConversationsRouter) conversationID(req *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(req, "id"), 10, 64)
}

type messageData struct {
	Sequence  int    `json:"sequence"`
	Type      string `json:"type"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

type conversationData struct {
	ID               int64         `json:"id"`
	UserID           string        `json:"user_id"`
	Title            string        `json:"title"`
	Status           string        `json:"status"`
	RepositoryIDs    []int64       `json:"repository_ids"`
	CreatedAt        string        `json:"created_at"`
	LastActivityAt   string        `json:"last_activity_at"`
	Messages         []messageData `json:"messages,omitempty"`
}

func conversationToData(conv conversation.Conversation) conversationData {
	messages := make([]messageData, 0, len(conv.Messages()))
	for _, m := range conv.Messages() {
		messages = append(messages, messageData{
			Sequence:  m.Sequence(),
			Type:      string(m.Type()),
			Content:   m.Content(),
			Timestamp: m.Timestamp().Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return conversationData{
		ID:             conv.ID(),
		UserID:         conv.UserID(),
		Title:          conv.Title(),
		Status:         string(conv.Status()),
		RepositoryIDs:  conv.Context().RepositoryIDs(),
		CreatedAt:      conv.CreatedAt().Format("2006-01-02T15:04:05Z07:00"),
		LastActivityAt: conv.LastActivityAt().Format("2006-01-02T15:04:05Z07:00"),
		Messages:       messages,
	}
}

type startConversationRequest struct {
	UserID        string   `json:"user_id"`
	Title         string   `json:"title"`
	RepositoryIDs []int64  `json:"repository_ids"`
	Domain        string   `json:"domain"`
	IntentHint    string   `json:"intent_hint"`
}

// List handles GET /api/v1/conversations?user_id=...
func (r *ConversationsRouter) List(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	pagination := ParsePagination(req)

	opts := pagination.Options()
	if userID := req.URL.Query().Get("user_id"); userID != "" {
		opts = append(opts, conversation.WithUserID(userID))
	}

	convs, err := r.conversations.Find(ctx, opts...)
	if err != nil {
		middleware.WriteError(w, req, err, nil)
		return
	}

	data := make([]conversationData, 0, len(convs))
	for _, conv := range convs {
		data = append(data, conversationToData(conv))
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"data": data})
}

// Start handles POST /api/v1/conversations.
func (r *ConversationsRouter) Start(w http.ResponseWriter, req *http.Request) {
	var body startConversationRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, middleware.NewAPIError(http.StatusBadRequest, "invalid request body", err), nil)
		return
	}

	ctxValue := conversation.NewContext(body.RepositoryIDs, body.Domain, body.IntentHint, nil)
	conv, err := r.conversations.Start(req.Context(), body.UserID, body.Title, ctxValue)
	if err != nil {
		middleware.WriteError(w, req, err, nil)
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, map[string]any{"data": conversationToData(conv)})
}

// Get handles GET /api/v1/conversations/{id}.
func (r *ConversationsRouter) Get(w http.ResponseWriter, req *http.Request) {
	conv, err := r.loadConversation(req)
	if err != nil {
		middleware.WriteError(w, req, err, nil)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"data": conversationToData(conv)})
}

type askRequest struct {
	Query string `json:"query"`
}

type queryResponseData struct {
	Answer              string   `json:"answer"`
	Intent              string   `json:"intent"`
	Confidence          float64  `json:"confidence"`
	FollowUpQuestions   []string `json:"follow_up_questions"`
	ResponseTimeSeconds float64  `json:"response_time_seconds"`
}

// Ask handles POST /api/v1/conversations/{id}/messages, running one full
// conversational turn (C9) against the conversation's retrieval context.
func (r *ConversationsRouter) Ask(w http.ResponseWriter, req *http.Request) {
	conv, err := r.loadConversation(req)
	if err != nil {
		middleware.WriteError(w, req, err, nil)
		return
	}

	var body askRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, middleware.NewAPIError(http.StatusBadRequest, "invalid request body", err), nil)
		return
	}
	if body.Query == "" {
		middleware.WriteError(w, req, middleware.NewAPIError(http.StatusBadRequest, "query must not be empty", nil), nil)
		return
	}

	updated, resp, err := r.ai.ProcessQuery(req.Context(), conv, body.Query)
	if err != nil {
		middleware.WriteError(w, req, err, nil)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"conversation": conversationToData(updated),
			"response": queryResponseData{
				Answer:              resp.Answer(),
				Intent:              string(resp.Intent()),
				Confidence:          resp.Confidence(),
				FollowUpQuestions:   resp.FollowUpQuestions(),
				ResponseTimeSeconds: resp.ResponseTimeSeconds(),
			},
		},
	})
}

// Archive handles POST /api/v1/conversations/{id}/archive.
func (r *ConversationsRouter) Archive(w http.ResponseWriter, req *http.Request) {
	conv, err := r.loadConversation(req)
	if err != nil {
		middleware.WriteError(w, req, err, nil)
		return
	}

	archived, err := r.conversations.Archive(req.Context(), conv)
	if err != nil {
		middleware.WriteError(w, req, err, nil)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"data": conversationToData(archived)})
}

// Delete handles DELETE /api/v1/conversations/{id}.
func (r *ConversationsRouter) Delete(w http.ResponseWriter, req *http.Request) {
	conv, err := r.loadConversation(req)
	if err != nil {
		middleware.WriteError(w, req, err, nil)
		return
	}

	if _, err := r.conversations.Delete(req.Context(), conv); err != nil {
		middleware.WriteError(w, req, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *ConversationsRouter) loadConversation(req *http.Request) (conversation.Conversation, error) {
	id, err := r.conversationID(req)
	if err != nil {
		return conversation.Conversation{}, middleware.NewAPIError(http.StatusBadRequest, "invalid conversation id", err)
	}
	return r.conversations.Get(req.Context(), repository.WithID(id))
}
