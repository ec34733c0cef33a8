package relay

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/cuemby/sakya/pkg/identity"
	"github.com/cuemby/sakya/pkg/log"
	"github.com/cuemby/sakya/pkg/metrics"
	"github.com/cuemby/sakya/pkg/room"
	"github.com/cuemby/sakya/pkg/store"
)

// accountNamespace derives a stable account id from an email address.
// The relay has no standalone account table (§4.L is a contract, not
// an accounts service); every login for the same address must resolve
// to the same account id, so it is derived rather than stored.
var accountNamespace = uuid.NewSHA1(uuid.NameSpaceDNS, []byte("sakya.accounts"))

func accountIDForEmail(email string) uuid.UUID {
	return uuid.NewSHA1(accountNamespace, []byte(strings.ToLower(email)))
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Server is the relay's HTTP and WebSocket surface (§6), wiring
// together identity, rooms, and the update store for every accepted
// connection.
type Server struct {
	deps    Deps
	router  chi.Router
	version string
	sweeper *roomSweeper
}

// Config carries the collaborators NewServer assembles into a router.
type Config struct {
	Identity      *identity.Service
	Rooms         *room.Manager
	Store         *store.Store
	ServerVersion string
	MaxFragment   int
	FragmentTTL   int64
}

// NewServer builds the relay's chi router. Call Router to obtain an
// http.Handler, or ListenAndServe to run it directly.
func NewServer(cfg Config) *Server {
	s := &Server{
		deps: Deps{
			Identity:      cfg.Identity,
			Rooms:         cfg.Rooms,
			Store:         cfg.Store,
			ServerVersion: cfg.ServerVersion,
			MaxFragment:   cfg.MaxFragment,
			FragmentTTL:   cfg.FragmentTTL,
		},
		version: cfg.ServerVersion,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", metrics.Handler())
	r.Post("/auth/magic-link", s.handleMagicLink)
	r.Post("/auth/verify", s.handleVerify)
	r.Get("/sync", s.handleSync)

	r.Group(func(r chi.Router) {
		r.Use(s.requireBearer)
		r.Get("/devices", s.handleListDevices)
		r.Post("/devices", s.handleCreateDevice)
		r.Delete("/devices/{id}", s.handleDeleteDevice)
	})

	s.router = r
	s.sweeper = newRoomSweeper(cfg.Rooms)
	s.sweeper.Start()
	return s
}

// Router returns the assembled http.Handler.
func (s *Server) Router() http.Handler {
	return s.router
}

// ListenAndServe runs the relay's HTTP server on addr.
func (s *Server) ListenAndServe(addr string) error {
	log.WithComponent("relay").Info().Str("addr", addr).Msg("relay listening")
	return http.ListenAndServe(addr, s.router)
}

// Close stops the server's background room sweeper. It does not close
// any in-flight HTTP listener: ListenAndServe blocks until the process
// exits or the listener errors.
func (s *Server) Close() {
	s.sweeper.Stop()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.version,
	})
}

func (s *Server) handleMagicLink(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email required"})
		return
	}

	if _, err := s.deps.Identity.CreateMagicLink(req.Email); err != nil {
		if err == identity.ErrRateLimited {
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not issue magic link"})
		return
	}

	metrics.MagicLinksIssuedTotal.Inc()

	// Delivery (email transport) is out of scope: the token is handed
	// to the operator's mail pipeline elsewhere, never returned here.
	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token      string `json:"token"`
		DeviceName string `json:"device_name"`
		PublicKey  []byte `json:"public_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request"})
		return
	}
	if len(req.PublicKey) != 32 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "public_key must be 32 bytes"})
		return
	}

	email, err := s.deps.Identity.VerifyMagicLink(req.Token)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return
	}

	var pubKey [32]byte
	copy(pubKey[:], req.PublicKey)

	accountID := accountIDForEmail(email)
	deviceID := s.deps.Identity.RegisterDevice(accountID, req.DeviceName, pubKey)

	token, err := s.deps.Identity.GenerateToken(accountID, deviceID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not issue token"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"jwt":        token,
		"account_id": accountID.String(),
		"device_id":  deviceID.String(),
	})
}

// requireBearer validates the Authorization: Bearer <token> header and
// stores the resulting identity.Identity on the request context.
func (s *Server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
			return
		}
		id, err := s.deps.Identity.ValidateToken(token)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid bearer token"})
			return
		}
		ctx := r.Context()
		ctx = contextWithIdentity(ctx, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing identity"})
		return
	}
	if d, ok := s.deps.Identity.Device(id.DeviceID); ok {
		writeJSON(w, http.StatusOK, []map[string]string{{
			"device_id": d.ID.String(),
			"name":      d.Name,
		}})
		return
	}
	writeJSON(w, http.StatusOK, []map[string]string{})
}

func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing identity"})
		return
	}

	var req struct {
		Name      string `json:"name"`
		PublicKey []byte `json:"public_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.PublicKey) != 32 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name and 32-byte public_key required"})
		return
	}

	var pubKey [32]byte
	copy(pubKey[:], req.PublicKey)
	deviceID := s.deps.Identity.RegisterDevice(id.AccountID, req.Name, pubKey)

	writeJSON(w, http.StatusOK, map[string]string{"device_id": deviceID.String()})
}

func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing identity"})
		return
	}

	deviceID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed device id"})
		return
	}

	// Removing the device record does not revoke any bearer token
	// already issued for it: tokens carry their own expiry and the
	// relay holds no session table to invalidate.
	s.deps.Identity.RemoveDevice(id.AccountID, deviceID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	sess := NewSession(conn, s.deps)
	go sess.Serve()
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
