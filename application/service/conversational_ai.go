package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sourcelore/sourcelore/domain/conversation"
	"github.com/sourcelore/sourcelore/domain/search"
	"github.com/sourcelore/sourcelore/infrastructure/eventbus"
	"github.com/sourcelore/sourcelore/infrastructure/provider"
	"github.com/sourcelore/sourcelore/internal/config"
)

// intentClassificationSystemPrompt constrains the LLM to the fixed Intent
// enum and a JSON-only response.
const intentClassificationSystemPrompt = `You are an intent classifier for a codebase Q&A assistant.
Classify the user's query into exactly one of these types:
explain_concept, find_implementation, compare_approaches, troubleshoot, provide_example, architectural_query, code_review, documentation, testing.
Also extract any domain or technical terms (function names, types, libraries, concepts) mentioned in the query.
Respond with JSON only, no additional text, in this exact shape:
{"type": "<one of the types above>", "confidence": <0.0-1.0>, "entities": ["term1", "term2"]}`

const answerSystemPrompt = `You are a coding assistant answering questions about one or more software repositories.
Ground every claim in the provided evidence; when evidence is insufficient, say so rather than guessing.
Cite file paths and line numbers from the evidence when referencing code.`

const followUpSystemPrompt = `Given a question and the answer just given, suggest up to 3 natural follow-up questions
a developer might ask next. Respond with JSON only: {"questions": ["q1", "q2", "q3"]}`

const summarizeSystemPrompt = `Summarize the following conversation history concisely, preserving the
technical details (names, files, decisions) a continuation of the conversation would need.`

// deltaChunkWords is how many words of a completed answer are grouped into
// each simulated MessageDelta; provider.TextGenerator has no token-streaming
// API, so streaming is emulated by chunking the finished response rather
// than forwarding provider-level deltas.
const deltaChunkWords = 12

// QueryResponse is the result of a single conversational turn: the answer
// text, the classified intent and its confidence, the evidence cited as
// code references, suggested follow-ups, and how long it took to produce.
type QueryResponse struct {
	answer              string
	intent              search.Intent
	confidence          float64
	codeReferences      []Evidence
	followUpQuestions   []string
	responseTimeSeconds float64
}

func (r QueryResponse) Answer() string                { return r.answer }
func (r QueryResponse) Intent() search.Intent          { return r.intent }
func (r QueryResponse) Confidence() float64            { return r.confidence }
func (r QueryResponse) CodeReferences() []Evidence     { return append([]Evidence{}, r.codeReferences...) }
func (r QueryResponse) FollowUpQuestions() []string    { return append([]string{}, r.followUpQuestions...) }
func (r QueryResponse) ResponseTimeSeconds() float64   { return r.responseTimeSeconds }

// MessageDelta is a partial-answer event published on infrastructure/eventbus
// while an answer is being assembled, keyed by conversation ID. Sequence is
// the sequence number of the message the delta belongs to, so every delta of
// one answer carries the same value as that answer's MessageComplete; the
// deltas themselves are not numbered individually.
type MessageDelta struct {
	ConversationID int64
	Sequence       int
	Delta          string
}

// MessageComplete is the terminal event for a streamed answer, carrying the
// final message's sequence number (a message's identity within its
// conversation, per domain/conversation.Message).
type MessageComplete struct {
	ConversationID int64
	Sequence       int
	Content        string
}

// ConversationalAI is the Conversational AI Service (C9): it classifies
// query intent, drives retrieval (C8) to ground its answers, calls the
// configured LLM provider for completion and follow-up generation, and
// streams the result over the Event Bus (C11).
type ConversationalAI struct {
	generator    provider.TextGenerator
	retrieval    *Retrieval
	conversation *Conversation
	bus          *eventbus.Bus
	cfg          config.ConversationalAIConfig
	logger       *slog.Logger
}

// NewConversationalAI creates a new ConversationalAI service.
func NewConversationalAI(
	generator provider.TextGenerator,
	retrieval *Retrieval,
	convService *Conversation,
	bus *eventbus.Bus,
	cfg config.ConversationalAIConfig,
	logger *slog.Logger,
) *ConversationalAI {
	return &ConversationalAI{
		generator:    generator,
		retrieval:    retrieval,
		conversation: convService,
		bus:          bus,
		cfg:          cfg,
		logger:       logger,
	}
}

type intentClassification struct {
	Type       string   `json:"type"`
	Confidence float64  `json:"confidence"`
	Entities   []string `json:"entities"`
}

// AnalyzeQueryIntent classifies a query into the fixed Intent enum and
// extracts any entities it mentions. A classification with confidence below
// cfg.MinConfidenceThreshold falls back to IntentExplainConcept, per
// spec.md's default minConfidenceThreshold of 0.3.
func (a *ConversationalAI) AnalyzeQueryIntent(ctx context.Context, query string) (search.Intent, float64, []string, error) {
	req := provider.NewChatCompletionRequest([]provider.Message{
		provider.SystemMessage(intentClassificationSystemPrompt),
		provider.UserMessage(query),
	}).WithMaxTokens(256).WithTemperature(0)

	resp, err := a.callWithRetry(ctx, req)
	if err != nil {
		return "", 0, nil, fmt.Errorf("classify intent: %w", err)
	}

	var classification intentClassification
	if err := json.Unmarshal([]byte(extractJSONObject(resp.Content())), &classification); err != nil {
		return search.IntentExplainConcept, 0, nil, fmt.Errorf("parse intent classification: %w", err)
	}

	intent := matchIntent(classification.Type)
	if classification.Confidence < a.cfg.MinConfidenceThreshold() {
		intent = search.IntentExplainConcept
	}
	return intent, classification.Confidence, classification.Entities, nil
}

func matchIntent(raw string) search.Intent {
	candidate := search.Intent(raw)
	for _, known := range search.Intents() {
		if known == candidate {
			return known
		}
	}
	return search.IntentExplainConcept
}

// ExtractEntities extracts domain/technical terms from a query without an
// LLM round trip, for callers (e.g. query expansion) that need a quick,
// synchronous estimate rather than AnalyzeQueryIntent's classified entities.
// It picks out backtick-quoted spans and CamelCase/snake_case identifiers.
func ExtractEntities(query string) []string {
	var entities []string
	seen := map[string]bool{}
	add := func(term string) {
		term = strings.TrimSpace(term)
		if term == "" || seen[term] {
			return
		}
		seen[term] = true
		entities = append(entities, term)
	}

	var inBacktick bool
	var current strings.Builder
	for _, r := range query {
		if r == '`' {
			if inBacktick {
				add(current.String())
				current.Reset()
			}
			inBacktick = !inBacktick
			continue
		}
		if inBacktick {
			current.WriteRune(r)
		}
	}

	for _, word := range strings.Fields(query) {
		word = strings.Trim(word, ".,!?;:()[]{}\"'")
		if looksLikeIdentifier(word) {
			add(word)
		}
	}

	return entities
}

func looksLikeIdentifier(word string) bool {
	if len(word) < 2 {
		return false
	}
	hasUpperAfterLower := false
	hasUnderscore := strings.Contains(word, "_")
	hasDot := strings.Contains(word, ".") && word != "."
	for i := 1; i < len(word); i++ {
		if word[i] >= 'A' && word[i] <= 'Z' && word[i-1] >= 'a' && word[i-1] <= 'z' {
			hasUpperAfterLower = true
		}
	}
	return hasUpperAfterLower || hasUnderscore || hasDot
}

// SummarizeConversation condenses a message history to at most maxLen
// characters, used by C8's expandQuery once history exceeds its threshold
// and by callers assembling a shorter prompt than the full transcript
// affords. Below maxLen it returns the concatenated transcript unchanged.
func (a *ConversationalAI) SummarizeConversation(ctx context.Context, messages []conversation.Message, maxLen int) (string, error) {
	transcript := renderTranscript(messages)
	if len(transcript) <= maxLen {
		return transcript, nil
	}

	req := provider.NewChatCompletionRequest([]provider.Message{
		provider.SystemMessage(summarizeSystemPrompt),
		provider.UserMessage(transcript),
	}).WithMaxTokens(maxLen / 3).WithTemperature(0.3)

	resp, err := a.callWithRetry(ctx, req)
	if err != nil {
		return "", fmt.Errorf("summarize conversation: %w", err)
	}
	return truncate(resp.Content(), maxLen), nil
}

func renderTranscript(messages []conversation.Message) string {
	var b strings.Builder
	for _, m := range messages {
		fmt.Fprintf(&b, "[%s] %s\n", m.Type(), m.Content())
	}
	return b.String()
}

// ProcessQuery runs one full conversational turn: classify intent, retrieve
// grounding evidence, append the user's message, call the LLM for
// completion, append and stream the assistant's response, and suggest
// follow-ups. It returns the updated conversation and the response.
func (a *ConversationalAI) ProcessQuery(ctx context.Context, conv conversation.Conversation, query string) (conversation.Conversation, QueryResponse, error) {
	start := time.Now()

	intent, confidence, _, err := a.AnalyzeQueryIntent(ctx, query)
	if err != nil {
		a.logger.Warn("intent classification failed, defaulting", slog.String("error", err.Error()))
		intent, confidence = search.IntentExplainConcept, 0
	}

	history := conv.Messages()
	evidence, err := a.retrieval.RetrieveRelevantContext(ctx, query, conv.Context(), intent, history, a.cfg.MaxContextItems())
	if err != nil {
		return conv, QueryResponse{}, fmt.Errorf("retrieve context: %w", err)
	}

	prompt := a.retrieval.BuildContextPrompt(query, evidence, history, conv.Context())

	conv, _, err = a.conversation.AppendMessage(ctx, conv, conversation.MessageTypeUserQuery, query, nil, nil)
	if err != nil {
		return conv, QueryResponse{}, fmt.Errorf("append user message: %w", err)
	}

	req := provider.NewChatCompletionRequest([]provider.Message{
		provider.SystemMessage(answerSystemPrompt),
		provider.UserMessage(prompt),
	}).WithMaxTokens(a.cfg.MaxTokensPerResponse()).WithTemperature(a.cfg.Temperature())

	resp, err := a.callWithRetry(ctx, req)
	if err != nil {
		return conv, QueryResponse{}, fmt.Errorf("generate answer: %w", err)
	}
	answer := resp.Content()

	conv, aiMsg, err := a.conversation.AppendMessage(ctx, conv, conversation.MessageTypeAIResponse, answer, nil, nil)
	if err != nil {
		return conv, QueryResponse{}, fmt.Errorf("append ai response: %w", err)
	}

	a.streamMessage(conv.ID(), aiMsg, answer)

	followUps, err := a.generateFollowUpQuestions(ctx, query, answer)
	if err != nil {
		a.logger.Warn("follow-up generation failed", slog.String("error", err.Error()))
		followUps = nil
	}

	return conv, QueryResponse{
		answer:              answer,
		intent:              intent,
		confidence:          confidence,
		codeReferences:      evidence,
		followUpQuestions:   followUps,
		responseTimeSeconds: time.Since(start).Seconds(),
	}, nil
}

// streamMessage publishes the finished answer as a sequence of MessageDelta
// events followed by a terminal MessageComplete, so subscribers see the same
// shape they would from genuine token streaming.
func (a *ConversationalAI) streamMessage(conversationID int64, msg conversation.Message, content string) {
	if a.bus == nil {
		return
	}
	words := strings.Fields(content)
	for i := 0; i < len(words); i += deltaChunkWords {
		end := i + deltaChunkWords
		if end > len(words) {
			end = len(words)
		}
		chunk := strings.Join(words[i:end], " ")
		if i > 0 {
			chunk = " " + chunk
		}
		a.bus.Publish(eventbus.TopicMessageDelta, MessageDelta{
			ConversationID: conversationID,
			Sequence:       msg.Sequence(),
			Delta:          chunk,
		})
	}
	a.bus.Publish(eventbus.TopicMessageComplete, MessageComplete{
		ConversationID: conversationID,
		Sequence:       msg.Sequence(),
		Content:        content,
	})
}

type followUpQuestions struct {
	Questions []string `json:"questions"`
}

func (a *ConversationalAI) generateFollowUpQuestions(ctx context.Context, query, answer string) ([]string, error) {
	prompt := fmt.Sprintf("Question: %s\n\nAnswer: %s", query, answer)
	req := provider.NewChatCompletionRequest([]provider.Message{
		provider.SystemMessage(followUpSystemPrompt),
		provider.UserMessage(prompt),
	}).WithMaxTokens(256).WithTemperature(0.5)

	resp, err := a.callWithRetry(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("generate follow-ups: %w", err)
	}

	var parsed followUpQuestions
	if err := json.Unmarshal([]byte(extractJSONObject(resp.Content())), &parsed); err != nil {
		return nil, fmt.Errorf("parse follow-ups: %w", err)
	}
	return parsed.Questions, nil
}

// callWithRetry retries transient provider failures with exponential
// backoff, grounded on provider.OpenAIProvider.withRetry but written against
// the provider-agnostic TextGenerator interface and ProviderError, since
// ConversationalAI is not bound to a single provider implementation.
func (a *ConversationalAI) callWithRetry(ctx context.Context, req provider.ChatCompletionRequest) (provider.ChatCompletionResponse, error) {
	const (
		initialDelay  = 500 * time.Millisecond
		backoffFactor = 2.0
	)

	delay := initialDelay
	var lastErr error

	for attempt := 0; attempt <= a.cfg.RetryAttempts(); attempt++ {
		if err := ctx.Err(); err != nil {
			return provider.ChatCompletionResponse{}, err
		}

		resp, err := a.generator.ChatCompletion(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !isRetryableProviderError(err) {
			return provider.ChatCompletionResponse{}, err
		}

		if attempt < a.cfg.RetryAttempts() {
			select {
			case <-ctx.Done():
				return provider.ChatCompletionResponse{}, ctx.Err()
			case <-time.After(delay):
				delay = time.Duration(float64(delay) * backoffFactor)
			}
		}
	}

	return provider.ChatCompletionResponse{}, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func isRetryableProviderError(err error) bool {
	var providerErr *provider.ProviderError
	if !errors.As(err, &providerErr) {
		return false
	}
	switch providerErr.StatusCode() {
	case 429, 500, 502, 503, 504:
		return true
	}
	return providerErr.IsRateLimited()
}

// extractJSONObject trims any leading/trailing prose an LLM adds around a
// JSON object despite being told not to, via brace-depth matching.
func extractJSONObject(text string) string {
	start := strings.Index(text, "{")
	if start == -1 {
		return text
	}
	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return text[start:]
}
