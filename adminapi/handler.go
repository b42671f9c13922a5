package adminapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	roleAdministrator = "Administrador"

	defaultPageSize = 25
	maxPageSize     = 100
)

// Handler defines a public type used by tramite APIs.
//
// Handler instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Handler struct {
	store  Store
	secret []byte
	log    *zap.Logger
}

// New creates the administration [Handler]. secret is the HS256 key shared
// with the auth service.
func New(store Store, secret []byte, log *zap.Logger) (*Handler, error) {
	if store == nil {
		return nil, errors.New("adminapi: store is required")
	}
	if len(secret) == 0 {
		return nil, errors.New("adminapi: secret is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{store: store, secret: secret, log: log}, nil
}

type adminClaims struct {
	AppMetadata struct {
		Role string `json:"role"`
	} `json:"app_metadata"`
	jwt.RegisteredClaims
}

// ServeHTTP describes the servehttp operation and its observable behavior.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	w.Header().Set("X-Request-Id", requestID)
	log := h.log.With(zap.String("request_id", requestID),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path))

	role, err := h.authorize(r)
	if err != nil {
		log.Warn("unauthorized request", zap.Error(err))
		writeError(w, http.StatusUnauthorized, "token ausente ou inválido")
		return
	}
	if role != roleAdministrator {
		log.Warn("forbidden request", zap.String("role", role))
		writeError(w, http.StatusForbidden, "acesso restrito a administradores")
		return
	}

	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/"), "/")

	switch {
	case id == "" && r.Method == http.MethodGet:
		h.list(w, r, log)
	case id == "" && r.Method == http.MethodPost:
		h.create(w, r, log)
	case id == "":
		writeError(w, http.StatusMethodNotAllowed, "método não suportado")
	case strings.Contains(id, "/"):
		writeError(w, http.StatusNotFound, "rota desconhecida")
	case r.Method == http.MethodPost && r.URL.Query().Get("action") == "reset":
		h.reset(w, r, id, log)
	case r.Method == http.MethodPut || r.Method == http.MethodPatch:
		h.update(w, r, id, log)
	case r.Method == http.MethodDelete:
		h.delete(w, r, id, log)
	default:
		// The resource route only exists for the methods above; anything
		// else names a route this API does not serve.
		writeError(w, http.StatusNotFound, "rota desconhecida")
	}
}

// authorize verifies the bearer token's signature and returns its role
// claim. Any parse or verification failure reads as an absent token.
func (h *Handler) authorize(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", errors.New("missing bearer token")
	}
	raw := strings.TrimPrefix(header, "Bearer ")

	claims := &adminClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return h.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return "", err
	}
	return claims.AppMetadata.Role, nil
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, log *zap.Logger) {
	page := intParam(r, "page", 1)
	size := intParam(r, "size", defaultPageSize)
	if page < 1 || size < 1 || size > maxPageSize {
		writeError(w, http.StatusBadRequest, "paginação inválida")
		return
	}

	users, total, err := h.store.List(r.Context(), page, size)
	if err != nil {
		h.storeError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"users": users,
		"total": total,
		"page":  page,
		"size":  size,
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request, log *zap.Logger) {
	var in CreateUser
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "corpo JSON inválido")
		return
	}
	if in.Email == "" || in.Password == "" || in.Papel == "" {
		writeError(w, http.StatusBadRequest, "email, password e papel são obrigatórios")
		return
	}

	user, err := h.store.Create(r.Context(), in)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			writeError(w, http.StatusBadRequest, "e-mail já cadastrado")
			return
		}
		h.storeError(w, log, err)
		return
	}
	log.Info("user created", zap.String("user_id", user.ID))
	writeJSON(w, http.StatusCreated, user)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request, id string, log *zap.Logger) {
	var in UpdateUser
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "corpo JSON inválido")
		return
	}
	if in.Email == nil && in.Papel == nil {
		writeError(w, http.StatusBadRequest, "nada a atualizar")
		return
	}

	user, err := h.store.Update(r.Context(), id, in)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "usuário não encontrado")
			return
		}
		h.storeError(w, log, err)
		return
	}
	log.Info("user updated", zap.String("user_id", id))
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request, id string, log *zap.Logger) {
	if err := h.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "usuário não encontrado")
			return
		}
		h.storeError(w, log, err)
		return
	}
	log.Info("user deleted", zap.String("user_id", id))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) reset(w http.ResponseWriter, r *http.Request, id string, log *zap.Logger) {
	if err := h.store.ResetPassword(r.Context(), id); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "usuário não encontrado")
			return
		}
		h.storeError(w, log, err)
		return
	}
	log.Info("password reset requested", zap.String("user_id", id))
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) storeError(w http.ResponseWriter, log *zap.Logger, err error) {
	log.Error("store operation failed", zap.Error(err))
	writeError(w, http.StatusBadGateway, "falha no serviço de usuários")
}

func intParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
