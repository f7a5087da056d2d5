package middleware

import (
	"context"
	"net/http"
	"strings"

	"gopedidos/internal/api/httpx"
	"gopedidos/internal/pkg/token"
)

// ContextKey é o tipo das chaves de contexto deste pacote.
type ContextKey int

const (
	DeviceClaimsKey ContextKey = iota
)

// DeviceClaims identifica o dispositivo autenticado na requisição.
type DeviceClaims struct {
	DeviceID string
}

// TokenService define o contrato de validação necessário para o middleware.
type TokenService interface {
	ValidateToken(tokenString string) (*token.CustomClaims, error)
}

// NewAuthMiddleware valida o JWT da sessão de dispositivo e anexa as claims ao contexto.
func NewAuthMiddleware(tokenSvc TokenService) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || tokenString == "" {
				httpx.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Token de autorização ausente ou malformado.")
				return
			}

			claims, err := tokenSvc.ValidateToken(tokenString)
			if err != nil {
				httpx.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Token inválido ou expirado.")
				return
			}

			ctx := context.WithValue(r.Context(), DeviceClaimsKey, DeviceClaims{DeviceID: claims.DeviceID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetDeviceClaimsFromContext é uma função utilitária para extrair as claims no handler.
func GetDeviceClaimsFromContext(ctx context.Context) (DeviceClaims, bool) {
	claims, ok := ctx.Value(DeviceClaimsKey).(DeviceClaims)
	return claims, ok
}
