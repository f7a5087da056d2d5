package cache

import (
	"context"
	"encoding/json"
	"time"
)

// GetJSON lê a chave e decodifica em dst. Devolve false em miss, erro de cache ou JSON inválido;
// o chamador segue para o banco nesses casos.
func GetJSON(ctx context.Context, c Client, key string, dst interface{}) bool {
	if c == nil {
		return false
	}
	raw, err := c.Get(ctx, key)
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(raw), dst) == nil
}

// SetJSON grava v serializado em JSON. Falhas de cache são ignoradas.
func SetJSON(ctx context.Context, c Client, key string, v interface{}, ttl time.Duration) {
	if c == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = c.Set(ctx, key, data, ttl)
}

// Invalidate remove a chave; falhas são ignoradas e a entrada expira pelo TTL.
func Invalidate(ctx context.Context, c Client, key string) {
	if c == nil {
		return
	}
	_ = c.Delete(ctx, key)
}
