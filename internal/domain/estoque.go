package domain

import (
	"fmt"
	"time"

	apperror "estoquemkt/internal/errors"
)

// TipoLocal distingue o estoque central dos estoques de loja.
type TipoLocal string

const (
	LocalCentral TipoLocal = "central"
	LocalLoja    TipoLocal = "loja"
)

// EstoqueLocal é um local físico de estoque: o central único ou o de uma loja (1:1).
type EstoqueLocal struct {
	ID        string    `json:"id"`
	Nome      string    `json:"nome"`
	Tipo      TipoLocal `json:"tipo"`
	LojaID    *string   `json:"loja_id,omitempty"`
	LojaNome  string    `json:"loja_nome,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Saldo é a quantidade de um produto em um local. Nunca negativa.
// Version é usada no controle de concorrência otimista.
type Saldo struct {
	ID             string    `json:"id"`
	ProdutoID      string    `json:"produto_id"`
	EstoqueLocalID string    `json:"estoque_local_id"`
	Quantidade     int       `json:"quantidade"`
	Version        int       `json:"version"`
	UpdatedAt      time.Time `json:"updated_at"`

	ProdutoNome   string  `json:"produto_nome,omitempty"`
	ProdutoSKU    *string `json:"produto_sku,omitempty"`
	CategoriaNome string  `json:"categoria,omitempty"`
	LocalNome     string  `json:"estoque_local_nome,omitempty"`
}

// TipoMovimento é o tipo de lançamento no livro de estoque.
type TipoMovimento string

const (
	MovimentoEntrada       TipoMovimento = "entrada"
	MovimentoSaida         TipoMovimento = "saida"
	MovimentoTransferencia TipoMovimento = "transferencia"
	MovimentoAjuste        TipoMovimento = "ajuste"
)

// ReferenciaSolicitacao é o referencia_tipo dos movimentos gerados por solicitações.
const ReferenciaSolicitacao = "solicitacao"

// Movimento é um lançamento imutável. Correções são feitas com novos movimentos.
type Movimento struct {
	ID             string        `json:"id"`
	ProdutoID      string        `json:"produto_id"`
	Tipo           TipoMovimento `json:"tipo"`
	Quantidade     int           `json:"quantidade"`
	OrigemID       *string       `json:"estoque_local_origem_id"`
	DestinoID      *string       `json:"estoque_local_destino_id"`
	ReferenciaTipo *string       `json:"referencia_tipo,omitempty"`
	ReferenciaID   *string       `json:"referencia_id,omitempty"`
	Observacao     string        `json:"observacao,omitempty"`
	CreatedBy      *string       `json:"created_by,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

// Validate confere a quantidade e o padrão de origem/destino exigido pelo tipo.
func (m Movimento) Validate() error {
	if m.ProdutoID == "" {
		return apperror.NewValidationError("produto_id é obrigatório.")
	}
	if m.Quantidade <= 0 {
		return apperror.NewValidationError("A quantidade do movimento deve ser maior que zero.")
	}

	temOrigem := m.OrigemID != nil && *m.OrigemID != ""
	temDestino := m.DestinoID != nil && *m.DestinoID != ""

	switch m.Tipo {
	case MovimentoEntrada:
		if temOrigem || !temDestino {
			return apperror.NewValidationError("Entrada exige apenas o local de destino.")
		}
	case MovimentoSaida:
		if !temOrigem || temDestino {
			return apperror.NewValidationError("Saída exige apenas o local de origem.")
		}
	case MovimentoTransferencia:
		if !temOrigem || !temDestino {
			return apperror.NewValidationError("Transferência exige origem e destino.")
		}
		if *m.OrigemID == *m.DestinoID {
			return apperror.NewValidationError("Origem e destino da transferência devem ser diferentes.")
		}
	case MovimentoAjuste:
		if temOrigem == temDestino {
			return apperror.NewValidationError("Ajuste exige exatamente um local (origem ou destino).")
		}
	default:
		return apperror.NewValidationError(fmt.Sprintf("Tipo de movimento desconhecido: %s", m.Tipo))
	}
	return nil
}

// ObservacaoAjuste monta a observação registrada nos ajustes manuais.
func ObservacaoAjuste(motivo string, anterior, nova int) string {
	return fmt.Sprintf("Ajuste: %s. Quantidade anterior: %d, Nova: %d", motivo, anterior, nova)
}

// SaldoFiltro define os filtros de GET /estoque/saldos.
// LojaIDs/Restrito vêm do escopo do usuário, nunca da query string.
type SaldoFiltro struct {
	EstoqueLocalID string
	Categoria      string
	Search         string
	LojaIDs        []string
	Restrito       bool
}

// MovimentoFiltro define os filtros de GET /estoque/movimentos.
// EstoqueLocalID casa com origem OU destino.
type MovimentoFiltro struct {
	ProdutoID      string
	EstoqueLocalID string
	ReferenciaID   string
	Limit          int
	LojaIDs        []string
	Restrito       bool
}

// LocalFiltro restringe os locais visíveis.
type LocalFiltro struct {
	LojaIDs  []string
	Restrito bool
}

// EntradaInput é o payload de POST /estoque/entrada.
type EntradaInput struct {
	ProdutoID  string `json:"produto_id" validate:"required,uuid"`
	Quantidade int    `json:"quantidade" validate:"required,gt=0"`
	DestinoID  string `json:"estoque_local_destino_id" validate:"required,uuid"`
	Observacao string `json:"observacao" validate:"max=1000"`
}

// SaidaInput é o payload de POST /estoque/saida.
type SaidaInput struct {
	ProdutoID  string `json:"produto_id" validate:"required,uuid"`
	Quantidade int    `json:"quantidade" validate:"required,gt=0"`
	OrigemID   string `json:"estoque_local_origem_id" validate:"required,uuid"`
	Observacao string `json:"observacao" validate:"max=1000"`
}

// TransferenciaInput é o payload de POST /estoque/transferencia.
type TransferenciaInput struct {
	ProdutoID  string `json:"produto_id" validate:"required,uuid"`
	Quantidade int    `json:"quantidade" validate:"required,gt=0"`
	OrigemID   string `json:"origem_id" validate:"required,uuid"`
	DestinoID  string `json:"destino_id" validate:"required,uuid,nefield=OrigemID"`
	Observacao string `json:"observacao" validate:"max=1000"`
}

// AjusteInput é o payload de POST /estoque/ajuste. A quantidade informada é o novo saldo.
type AjusteInput struct {
	ProdutoID      string `json:"produto_id" validate:"required,uuid"`
	QuantidadeNova *int   `json:"quantidade_nova" validate:"required,min=0"`
	EstoqueLocalID string `json:"estoque_local_id" validate:"required,uuid"`
	Motivo         string `json:"motivo" validate:"required,min=1,max=500"`
}
