package domain

import "time"

// Loja é uma loja da rede. Cada loja possui no máximo um local de estoque (tipo loja).
type Loja struct {
	ID        string    `json:"id"`
	Nome      string    `json:"nome"`
	Cidade    string    `json:"cidade,omitempty"`
	Estado    string    `json:"estado,omitempty"`
	Ativo     bool      `json:"ativo"`
	CreatedAt time.Time `json:"created_at"`
}
