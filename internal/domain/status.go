package domain

import (
	apperror "estoquemkt/internal/errors"
)

// Status é o estado do ciclo de vida de uma solicitação.
type Status string

const (
	StatusSolicitacao       Status = "solicitacao"
	StatusCotacao           Status = "cotacao"
	StatusAguardandoOC      Status = "aguardando_oc"
	StatusEmProducao        Status = "em_producao"
	StatusProntoParaRetirar Status = "pronto_para_retirar"
	StatusEnviadoParaLoja   Status = "enviado_para_loja"
	StatusAplicado          Status = "aplicado"
	StatusCancelado         Status = "cancelado"
)

// transicoes é o grafo fixo de status: origem -> destinos permitidos.
// Estados sem destinos são terminais.
var transicoes = map[Status][]Status{
	StatusSolicitacao:       {StatusCotacao, StatusCancelado},
	StatusCotacao:           {StatusAguardandoOC, StatusCancelado},
	StatusAguardandoOC:      {StatusEmProducao, StatusCancelado},
	StatusEmProducao:        {StatusProntoParaRetirar, StatusCancelado},
	StatusProntoParaRetirar: {StatusEnviadoParaLoja, StatusCancelado},
	StatusEnviadoParaLoja:   {StatusAplicado, StatusCancelado},
	StatusAplicado:          {},
	StatusCancelado:         {},
}

var rotulos = map[Status]string{
	StatusSolicitacao:       "Solicitação",
	StatusCotacao:           "Cotação",
	StatusAguardandoOC:      "Aguardando OC",
	StatusEmProducao:        "Em Produção",
	StatusProntoParaRetirar: "Pronto para Retirar",
	StatusEnviadoParaLoja:   "Enviado para Loja",
	StatusAplicado:          "Instalado/Aplicado",
	StatusCancelado:         "Cancelado",
}

// AllStatuses lista os status na ordem do fluxo.
func AllStatuses() []Status {
	return []Status{
		StatusSolicitacao, StatusCotacao, StatusAguardandoOC, StatusEmProducao,
		StatusProntoParaRetirar, StatusEnviadoParaLoja, StatusAplicado, StatusCancelado,
	}
}

// Valid indica se o status pertence ao grafo.
func (s Status) Valid() bool {
	_, ok := transicoes[s]
	return ok
}

// Proximos retorna os destinos permitidos a partir de s. Status desconhecido retorna vazio.
func (s Status) Proximos() []Status {
	next := transicoes[s]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

// IsTerminal indica estado absorvente (aplicado, cancelado).
func (s Status) IsTerminal() bool {
	next, ok := transicoes[s]
	return ok && len(next) == 0
}

// Editavel indica se os campos da solicitação podem ser alterados neste status.
func (s Status) Editavel() bool {
	return s == StatusSolicitacao || s == StatusCotacao
}

// Label é o nome exibido do status, usado nas observações dos movimentos automáticos.
func (s Status) Label() string {
	if l, ok := rotulos[s]; ok {
		return l
	}
	return string(s)
}

// PodeTransitar consulta o grafo. Uma única busca, sem ramificações por estado.
func PodeTransitar(de, para Status) bool {
	for _, s := range transicoes[de] {
		if s == para {
			return true
		}
	}
	return false
}

// ValidarTransicao retorna InvalidTransitionError quando para não é destino permitido de de.
func ValidarTransicao(de, para Status) error {
	if !PodeTransitar(de, para) {
		return apperror.NewInvalidTransitionError(string(de), string(para))
	}
	return nil
}
