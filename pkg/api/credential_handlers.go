package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ita004/analytics-engine/pkg/apperr"
	"github.com/ita004/analytics-engine/pkg/contextkeys"
	"github.com/ita004/analytics-engine/pkg/credentials"
	"github.com/ita004/analytics-engine/pkg/httputil"
)

// CredentialHandlers manages the credential lifecycle for the session account
type CredentialHandlers struct {
	service *credentials.Service
	debug   bool
}

// NewCredentialHandlers creates the credential lifecycle handlers
func NewCredentialHandlers(service *credentials.Service, debug bool) *CredentialHandlers {
	return &CredentialHandlers{service: service, debug: debug}
}

// RegisterRoutes registers the credential lifecycle routes
func (h *CredentialHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("", h.registerApp).Methods("POST")
	router.HandleFunc("", h.listApps).Methods("GET")
	router.HandleFunc("/{id}", h.revokeApp).Methods("DELETE")
	router.HandleFunc("/{id}/regenerate", h.regenerateKey).Methods("POST")
}

// registerAppRequest is the application registration body
type registerAppRequest struct {
	Name          string `json:"name"`
	Domain        string `json:"domain,omitempty"`
	ExpiresInDays int    `json:"expires_in_days,omitempty"`
}

// registerApp handles POST /api/apps
func (h *CredentialHandlers) registerApp(w http.ResponseWriter, r *http.Request) {
	var req registerAppRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	accountID := contextkeys.GetAccountID(r.Context())
	cred, err := h.service.Register(r.Context(), accountID, req.Name, req.Domain, req.ExpiresInDays)
	if err != nil {
		httputil.WriteAppError(w, err, h.debug)
		return
	}

	httputil.WriteData(w, http.StatusCreated, cred)
}

// listApps handles GET /api/apps
func (h *CredentialHandlers) listApps(w http.ResponseWriter, r *http.Request) {
	accountID := contextkeys.GetAccountID(r.Context())
	creds, err := h.service.List(r.Context(), accountID)
	if err != nil {
		httputil.WriteAppError(w, err, h.debug)
		return
	}

	httputil.WriteData(w, http.StatusOK, creds)
}

// revokeApp handles DELETE /api/apps/{id}
func (h *CredentialHandlers) revokeApp(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}

	accountID := contextkeys.GetAccountID(r.Context())
	if err := h.service.Revoke(r.Context(), accountID, id); err != nil {
		httputil.WriteAppError(w, err, h.debug)
		return
	}

	httputil.WriteData(w, http.StatusOK, map[string]string{"status": "revoked"})
}

// regenerateKey handles POST /api/apps/{id}/regenerate
func (h *CredentialHandlers) regenerateKey(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}

	var req registerAppRequest
	// A body is optional here; a missing one keeps the default expiry. A
	// present body still has to be valid JSON.
	if err := httputil.ParseJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		httputil.WriteAppError(w, apperr.Validation("invalid JSON payload", nil), h.debug)
		return
	}

	accountID := contextkeys.GetAccountID(r.Context())
	cred, err := h.service.Regenerate(r.Context(), accountID, id, req.ExpiresInDays)
	if err != nil {
		httputil.WriteAppError(w, err, h.debug)
		return
	}

	httputil.WriteData(w, http.StatusOK, cred)
}
