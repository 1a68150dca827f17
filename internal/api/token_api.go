package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"log/slog"

	"github.com/tinywideclouds/go-apns-service/internal/platform/apns"
	"github.com/tinywideclouds/go-apns-service/pkg/dispatch"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
	"github.com/tinywideclouds/go-microservice-base/pkg/response"
	urn "github.com/tinywideclouds/go-platform/pkg/net/v1"
)

type TokenAPI struct {
	Store  dispatch.TokenStore
	Logger *slog.Logger
}

func NewTokenAPI(store dispatch.TokenStore, logger *slog.Logger) *TokenAPI {
	return &TokenAPI{
		Store:  store,
		Logger: logger,
	}
}

type APNSTokenRequest struct {
	Token string `json:"token"`
}

func (api *TokenAPI) RegisterAPNS(w http.ResponseWriter, r *http.Request) {
	userURN, req, ok := api.decode(w, r)
	if !ok {
		return
	}

	if !apns.IsValidDeviceToken(req.Token) {
		api.Logger.Warn("RegisterAPNS: Validation failed", "reason", "malformed token", "length", len(req.Token))
		response.WriteJSONError(w, http.StatusBadRequest, "invalid device token")
		return
	}

	if err := api.Store.RegisterAPNS(r.Context(), userURN, req.Token); err != nil {
		api.Logger.Error("failed to register apns", "err", err)
		response.WriteJSONError(w, http.StatusInternalServerError, "storage failed")
		return
	}
	api.Logger.Info("RegisterAPNS: Token registered", "user", userURN)

	w.WriteHeader(http.StatusNoContent)
}

func (api *TokenAPI) UnregisterAPNS(w http.ResponseWriter, r *http.Request) {
	userURN, req, ok := api.decode(w, r)
	if !ok {
		return
	}

	if req.Token == "" {
		response.WriteJSONError(w, http.StatusBadRequest, "missing token")
		return
	}

	if err := api.Store.UnregisterAPNS(r.Context(), userURN, req.Token); err != nil {
		// Log but don't fail hard; idempotency is preferred for unregister
		api.Logger.Warn("failed to unregister apns", "err", err)
	}

	w.WriteHeader(http.StatusNoContent)
}

// decode resolves the caller and the request body, writing the error response itself.
func (api *TokenAPI) decode(w http.ResponseWriter, r *http.Request) (userURN urn.URN, req APNSTokenRequest, ok bool) {
	userID, ok := middleware.GetUserHandleFromContext(r.Context())
	if !ok {
		response.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return userURN, req, false
	}
	userURN, err := urn.Parse(userID)
	if err != nil {
		api.Logger.Warn("caller identity is not a URN", "user", userID, "err", err)
		response.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return userURN, req, false
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteJSONError(w, http.StatusBadRequest, "invalid json")
		return userURN, req, false
	}
	req.Token = strings.TrimSpace(req.Token)

	return userURN, req, true
}
