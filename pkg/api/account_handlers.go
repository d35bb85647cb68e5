package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ita004/analytics-engine/pkg/apperr"
	"github.com/ita004/analytics-engine/pkg/contextkeys"
	"github.com/ita004/analytics-engine/pkg/httputil"
	"github.com/ita004/analytics-engine/pkg/middleware"
	"github.com/ita004/analytics-engine/pkg/storage"
)

// accountStore is the slice of storage the account handlers need
type accountStore interface {
	UpsertAccount(ctx context.Context, providerID, email, name, avatarURL string) (*storage.Account, error)
	GetAccount(ctx context.Context, id string) (*storage.Account, error)
}

// AccountHandlers provisions accounts from the external identity provider
// and serves the session profile
type AccountHandlers struct {
	store accountStore
	debug bool
}

// NewAccountHandlers creates the account handlers
func NewAccountHandlers(store accountStore, debug bool) *AccountHandlers {
	return &AccountHandlers{store: store, debug: debug}
}

// RegisterRoutes registers the account routes
func (h *AccountHandlers) RegisterRoutes(router *mux.Router) {
	// The sync endpoint is called by the authenticating proxy after a
	// successful external login, not by browsers.
	router.HandleFunc("/api/internal/accounts/sync", h.syncAccount).Methods("POST")

	me := router.PathPrefix("/api/me").Subrouter()
	me.Use(middleware.RequireSession)
	me.HandleFunc("", h.currentAccount).Methods("GET")
}

// syncAccountRequest is the provisioning body forwarded by the proxy
type syncAccountRequest struct {
	ProviderID string `json:"provider_id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	AvatarURL  string `json:"avatar_url,omitempty"`
}

// syncAccount handles POST /api/internal/accounts/sync
func (h *AccountHandlers) syncAccount(w http.ResponseWriter, r *http.Request) {
	var req syncAccountRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.ProviderID, "provider_id") {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Email, "email") {
		return
	}

	account, err := h.store.UpsertAccount(r.Context(), req.ProviderID, req.Email, req.Name, req.AvatarURL)
	if err != nil {
		httputil.WriteAppError(w, apperr.Storage(err), h.debug)
		return
	}

	httputil.WriteData(w, http.StatusOK, account)
}

// currentAccount handles GET /api/me
func (h *AccountHandlers) currentAccount(w http.ResponseWriter, r *http.Request) {
	accountID := contextkeys.GetAccountID(r.Context())
	account, err := h.store.GetAccount(r.Context(), accountID)
	if err != nil {
		httputil.WriteAppError(w, apperr.Storage(err), h.debug)
		return
	}
	if account == nil {
		httputil.WriteAppError(w, apperr.NotFound("account not found"), h.debug)
		return
	}

	httputil.WriteData(w, http.StatusOK, account)
}
