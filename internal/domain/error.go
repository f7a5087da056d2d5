package domain

// ErrorResponse é a estrutura padronizada para respostas de erro na API.
// Devolvida pelos handlers, pelo auth e pelo rate limiter em caso de falha.
type ErrorResponse struct {
	Code     int    `json:"code"`
	Category string `json:"category"`
	Message  string `json:"message"`
}
