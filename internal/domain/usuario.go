package domain

import (
	apperror "estoquemkt/internal/errors"
)

// Nivel é o papel do usuário (tabela users_regras).
type Nivel string

const (
	NivelDiretor    Nivel = "diretor"
	NivelSupervisor Nivel = "supervisor"
)

// Caller é o usuário autenticado da requisição. É passado explicitamente
// para toda operação de serviço que precisa de escopo.
type Caller struct {
	UserID          string   `json:"user_id"` // user_ref (sub do token)
	RegraID         string   `json:"regra_id"`
	Nome            string   `json:"nome"`
	Email           string   `json:"email"`
	Nivel           Nivel    `json:"nivel"`
	LojasVinculadas []string `json:"lojas_vinculadas"`
}

// Perfil é a resposta de GET /me.
type Perfil struct {
	Caller
	Lojas []Loja `json:"lojas"`
}

// IsDiretor indica acesso irrestrito.
func (c Caller) IsDiretor() bool {
	return c.Nivel == NivelDiretor
}

// CanAccessLoja aplica o escopo: diretor vê tudo, supervisor só as lojas vinculadas.
func (c Caller) CanAccessLoja(lojaID string) bool {
	switch c.Nivel {
	case NivelDiretor:
		return true
	case NivelSupervisor:
		for _, id := range c.LojasVinculadas {
			if id == lojaID {
				return true
			}
		}
	}
	return false
}

// EnsureLoja é a versão de CanAccessLoja para busca de entidade única.
func (c Caller) EnsureLoja(lojaID string) error {
	if !c.CanAccessLoja(lojaID) {
		return apperror.NewForbiddenError("Usuário sem acesso a esta loja.")
	}
	return nil
}

// LojaScope devolve o filtro para listagens. restrito=false significa sem filtro.
// Para níveis desconhecidos o filtro é restrito e vazio.
func (c Caller) LojaScope() (lojas []string, restrito bool) {
	switch c.Nivel {
	case NivelDiretor:
		return nil, false
	case NivelSupervisor:
		return c.LojasVinculadas, true
	default:
		return []string{}, true
	}
}

// CanAccessLocal: o central é visível a diretor e supervisor; o local de loja segue o escopo da loja.
func (c Caller) CanAccessLocal(local EstoqueLocal) bool {
	if local.Tipo == LocalCentral {
		return c.Nivel == NivelDiretor || c.Nivel == NivelSupervisor
	}
	if local.LojaID == nil {
		return c.IsDiretor()
	}
	return c.CanAccessLoja(*local.LojaID)
}

// EnsureLocal retorna Forbidden quando o local está fora do escopo.
func (c Caller) EnsureLocal(local EstoqueLocal) error {
	if !c.CanAccessLocal(local) {
		return apperror.NewForbiddenError("Usuário sem acesso a este local de estoque.")
	}
	return nil
}

// EnsureDiretor protege operações administrativas.
func (c Caller) EnsureDiretor() error {
	if !c.IsDiretor() {
		return apperror.NewForbiddenError("Apenas diretores.")
	}
	return nil
}
