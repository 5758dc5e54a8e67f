package api

import (
	"bufio"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"whatsapp-agent/internal/account"
	"whatsapp-agent/internal/agent"
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush implements http.Flusher for SSE
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack implements http.Hijacker for websocket upgrades
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijacking not supported")
	}
	return h.Hijack()
}

// Router holds the HTTP multiplexer and handlers
type Router struct {
	mux                 *http.ServeMux
	webhookHandler      *WebhookHandler
	conversationHandler *ConversationHandler
	eventsHandler       *ConversationEventsHandler
	agentHandler        *AgentHandler
	sessionHandler      *SessionHandler
	accountHandler      *AccountHandler
	events              *Events
	staticDir           string
}

// NewRouter creates a new router with all routes configured.
// events must be the sink the runtime's directory publishes to.
func NewRouter(runtime *agent.Runtime, store *account.Store, events *Events, staticDir string) *Router {
	r := &Router{
		mux:                 http.NewServeMux(),
		webhookHandler:      NewWebhookHandler(runtime),
		conversationHandler: NewConversationHandler(runtime.Directory()),
		eventsHandler:       NewConversationEventsHandler(events.SSE(), runtime.Directory()),
		agentHandler:        NewAgentHandler(runtime),
		sessionHandler:      NewSessionHandler(store),
		accountHandler:      NewAccountHandler(store),
		events:              events,
		staticDir:           staticDir,
	}
	r.setupRoutes()
	return r
}

func (r *Router) setupRoutes() {
	r.mux.HandleFunc("GET /health", HealthHandler)

	// WhatsApp webhook
	r.mux.HandleFunc("GET /webhook", r.webhookHandler.Verify)
	r.mux.HandleFunc("POST /webhook", r.webhookHandler.Receive)

	// Conversations
	r.mux.HandleFunc("GET /api/conversations", r.conversationHandler.List)
	r.mux.HandleFunc("GET /api/conversations/{id}", r.conversationHandler.Get)
	r.mux.HandleFunc("GET /api/conversations/{id}/messages", r.conversationHandler.GetMessages)
	r.mux.HandleFunc("POST /api/conversations/{id}/end", r.conversationHandler.End)
	r.mux.HandleFunc("GET /api/conversations/{id}/events", r.eventsHandler.HandleEvents)
	r.mux.HandleFunc("GET /api/ws", r.events.WebSocket().HandleWS)

	// Agent
	r.mux.HandleFunc("GET /api/agent", r.agentHandler.Get)
	r.mux.HandleFunc("PUT /api/agent", r.agentHandler.Update)
	r.mux.HandleFunc("POST /api/test-message", r.agentHandler.TestMessage)
	r.mux.HandleFunc("POST /api/notifications", r.agentHandler.Notify)
	r.mux.HandleFunc("GET /api/outbox", r.agentHandler.Outbox)

	// Session
	r.mux.HandleFunc("GET /api/session", r.sessionHandler.Get)
	r.mux.HandleFunc("POST /api/session/login", r.sessionHandler.Login)
	r.mux.HandleFunc("POST /api/session/logout", r.sessionHandler.Logout)

	// Accounts
	r.mux.HandleFunc("GET /api/accounts", r.accountHandler.List)
	r.mux.HandleFunc("POST /api/accounts", r.accountHandler.Create)
	r.mux.HandleFunc("GET /api/accounts/current", r.accountHandler.Current)
	r.mux.HandleFunc("PUT /api/accounts/{id}", r.accountHandler.Update)
	r.mux.HandleFunc("DELETE /api/accounts/{id}", r.accountHandler.Delete)
	r.mux.HandleFunc("POST /api/accounts/{id}/switch", r.accountHandler.Switch)

	// Static dashboard
	if r.staticDir != "" {
		if info, err := os.Stat(r.staticDir); err == nil && info.IsDir() {
			r.mux.HandleFunc("GET /", r.serveStatic)
		} else {
			log.Printf("[HTTP] Static directory not found, dashboard disabled dir=%s", r.staticDir)
		}
	}
}

// serveStatic serves the dashboard, falling back to index.html for client-side routes
func (r *Router) serveStatic(w http.ResponseWriter, req *http.Request) {
	path := req.URL.Path
	if path == "/" {
		path = "/index.html"
	}

	filePath := filepath.Join(r.staticDir, filepath.Clean("/"+path))

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		filePath = filepath.Join(r.staticDir, "index.html")
	}

	http.ServeFile(w, req, filePath)
}

// ServeHTTP implements the http.Handler interface
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	start := time.Now()

	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if req.Method == "OPTIONS" {
		log.Printf("[HTTP] CORS preflight method=OPTIONS path=%s", req.URL.Path)
		w.WriteHeader(http.StatusOK)
		return
	}

	// Skip logging for static files, health checks and streaming endpoints
	shouldLog := (strings.HasPrefix(req.URL.Path, "/api/") || req.URL.Path == "/webhook") &&
		!strings.HasSuffix(req.URL.Path, "/events") && req.URL.Path != "/api/ws"

	if shouldLog {
		log.Printf("[HTTP] Request started method=%s path=%s", req.Method, req.URL.Path)
	}

	wrapped := newResponseWriter(w)
	r.mux.ServeHTTP(wrapped, req)

	if shouldLog {
		log.Printf("[HTTP] Request completed method=%s path=%s status=%d duration=%v",
			req.Method, req.URL.Path, wrapped.statusCode, time.Since(start))
	}
}

// Events returns the event fan-out used by the router
func (r *Router) Events() *Events {
	return r.events
}
