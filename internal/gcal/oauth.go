package gcal

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"

	"github.com/rochsolutions/ai-receptionist/pkg/logging"
)

// NewOAuthConfig builds the oauth2 config used for the one-time calendar
// connection handshake. redirectURL must be the public callback URL Google
// redirects back to.
func NewOAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     google.Endpoint,
		Scopes: []string{
			calendar.CalendarEventsScope,
			calendar.CalendarReadonlyScope,
		},
	}
}

// OAuthHandler serves the Google OAuth handshake: an operator visits the
// start URL once, grants calendar access, and the refresh token lands in
// Redis for the receptionist to use.
type OAuthHandler struct {
	cfg    *oauth2.Config
	tokens *TokenStore
	logger *logging.Logger
}

func NewOAuthHandler(cfg *oauth2.Config, tokens *TokenStore, logger *logging.Logger) *OAuthHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &OAuthHandler{cfg: cfg, tokens: tokens, logger: logger}
}

// Routes mounts the handshake endpoints.
func (h *OAuthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/google/start", h.Start)
	r.Get("/google/callback", h.Callback)
	return r
}

// Start stores a one-time state nonce and redirects to Google's consent
// screen. Offline access with forced consent so we always get a refresh
// token back.
func (h *OAuthHandler) Start(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("gcal").Start(r.Context(), "oauth.start")
	defer span.End()

	state := uuid.NewString()
	if err := h.tokens.PutState(ctx, state); err != nil {
		h.logger.Error("failed to store oauth state", "error", err)
		writeError(w, http.StatusInternalServerError, "could not start authorization")
		return
	}

	url := h.cfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
	http.Redirect(w, r, url, http.StatusFound)
}

// Callback validates the state nonce, exchanges the code and persists the
// token bundle.
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("gcal").Start(r.Context(), "oauth.callback")
	defer span.End()

	state := r.URL.Query().Get("state")
	ok, err := h.tokens.CheckState(ctx, state)
	if err != nil {
		h.logger.Error("failed to check oauth state", "error", err)
		writeError(w, http.StatusInternalServerError, "authorization failed")
		return
	}
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid or expired state")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing authorization code")
		return
	}

	tok, err := h.cfg.Exchange(ctx, code)
	if err != nil {
		h.logger.Error("oauth code exchange failed", "error", err)
		writeError(w, http.StatusBadGateway, "code exchange failed")
		return
	}
	if err := h.tokens.Put(ctx, tok); err != nil {
		h.logger.Error("failed to store oauth token", "error", err)
		writeError(w, http.StatusInternalServerError, "could not store credential")
		return
	}

	h.logger.Info("google calendar connected")
	writeJSON(w, http.StatusOK, map[string]string{"status": "connected"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
