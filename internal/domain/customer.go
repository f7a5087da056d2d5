package domain

import "time"

// Customer representa um cliente cadastrado. Nome e telefone são obrigatórios.
type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Doc       string    `json:"doc,omitempty"` // CPF/CNPJ
	Phone     string    `json:"phone"`
	Email     string    `json:"email,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CustomerFilter define os parâmetros de busca de clientes.
type CustomerFilter struct {
	Search string
}
