package session

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"gopedidos/internal/api/httpx"
	apperror "gopedidos/internal/errors"
	"gopedidos/internal/pkg/logger"
)

// TokenIssuer emite tokens para sessões anônimas de dispositivo.
type TokenIssuer interface {
	GenerateToken(deviceID string) (string, time.Time, error)
}

// Response é devolvido ao abrir uma sessão.
type Response struct {
	Token     string    `json:"token"`
	DeviceID  string    `json:"device_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Handler abre sessões de dispositivo.
type Handler struct {
	Tokens TokenIssuer
	Logger logger.Logger
	resp   httpx.Responder
}

func NewHandler(tokens TokenIssuer, log logger.Logger) *Handler {
	return &Handler{Tokens: tokens, Logger: log, resp: httpx.Responder{Logger: log}}
}

// CreateSessionHandler lida com a requisição POST /v1/sessions.
// Cada chamada gera um novo device id; não há contas de usuário.
func (h *Handler) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	deviceID := uuid.NewString()
	token, expiresAt, err := h.Tokens.GenerateToken(deviceID)
	if err != nil {
		h.resp.Respond(w, r, nil, apperror.NewInternalError("Falha ao gerar token de sessão", err), http.StatusCreated)
		return
	}

	h.Logger.Info("Sessão de dispositivo criada", map[string]interface{}{"device_id": deviceID})
	h.resp.Respond(w, r, Response{Token: token, DeviceID: deviceID, ExpiresAt: expiresAt}, nil, http.StatusCreated)
}
