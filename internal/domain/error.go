package domain

// ErrorResponse é a estrutura padronizada para respostas de erro na API.
// @Description Estrutura padronizada para respostas de erro na API.
type ErrorResponse struct {
	Code     int    `json:"code" example:"400"`
	Category string `json:"category" example:"INVALID_TRANSITION"`
	Message  string `json:"message" example:"Transição de status inválida: aplicado -> cotacao"`
}
