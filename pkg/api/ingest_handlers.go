package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ita004/analytics-engine/pkg/enrich"
	"github.com/ita004/analytics-engine/pkg/events"
	"github.com/ita004/analytics-engine/pkg/httputil"
	"github.com/ita004/analytics-engine/pkg/middleware"
	"github.com/ita004/analytics-engine/pkg/observability"
)

// IngestHandlers accepts behavioral events on the write path
type IngestHandlers struct {
	writer *events.Writer
	logger *observability.Logger
	debug  bool
}

// NewIngestHandlers creates the ingestion handlers
func NewIngestHandlers(writer *events.Writer, logger *observability.Logger, debug bool) *IngestHandlers {
	return &IngestHandlers{writer: writer, logger: logger, debug: debug}
}

// RegisterRoutes registers the ingestion routes
func (h *IngestHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("", h.ingestEvent).Methods("POST")
	router.HandleFunc("/", h.ingestEvent).Methods("POST")
}

// ingestEvent handles POST /api/events
func (h *IngestHandlers) ingestEvent(w http.ResponseWriter, r *http.Request) {
	cred := middleware.GetCredential(r.Context())
	if cred == nil {
		httputil.WriteUnauthenticated(w)
		return
	}

	var payload events.Payload
	if !httputil.ParseJSONOrError(w, r, &payload) {
		return
	}

	rawSignature := r.Header.Get("User-Agent")
	sig := enrich.ParseSignature(rawSignature)
	address := enrich.ResolveAddress(r.Header, r.RemoteAddr)

	event, err := h.writer.Write(r.Context(), cred, sig, address, rawSignature, payload)
	if err != nil {
		httputil.WriteAppError(w, err, h.debug)
		return
	}

	// Ingestion responds with the bare receipt, not the data envelope: SDK
	// clients treat any 201 body as the receipt object.
	httputil.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"id":         event.ID,
		"created_at": event.CreatedAt,
	})
}
