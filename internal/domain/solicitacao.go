package domain

import (
	"time"
)

// Solicitacao é um pedido de materiais de marketing para uma loja.
type Solicitacao struct {
	ID           string    `json:"id"`
	LojaID       string    `json:"loja_id"`
	LojaNome     string    `json:"loja_nome,omitempty"`
	SupervisorID *string   `json:"supervisor_id,omitempty"`
	CriadoPor    *string   `json:"criado_por,omitempty"`
	Objetivo     string    `json:"objetivo"`
	Observacoes  string    `json:"observacoes"`
	Prioridade   string    `json:"prioridade,omitempty"`
	Referencias  []string  `json:"referencias"`
	Status       Status    `json:"status"`
	Ativo        bool      `json:"ativo"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Itens        []Item        `json:"itens,omitempty"`
	Logs         []StatusLog   `json:"logs,omitempty"`
	Comprovantes []Comprovante `json:"comprovantes,omitempty"`
}

// Item é uma linha da solicitação. Aprovada e enviada ficam nulas até as etapas correspondentes.
type Item struct {
	ID                   string    `json:"id"`
	SolicitacaoID        string    `json:"solicitacao_id"`
	ProdutoID            string    `json:"produto_id"`
	ProdutoNome          string    `json:"produto_nome,omitempty"`
	QuantidadeSolicitada int       `json:"quantidade_solicitada"`
	QuantidadeAprovada   *int      `json:"quantidade_aprovada"`
	QuantidadeEnviada    *int      `json:"quantidade_enviada"`
	ObservacaoItem       string    `json:"observacao_item,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
}

// StatusLog é a trilha de auditoria gravada pelo trigger do banco a cada mudança de status.
type StatusLog struct {
	ID             string    `json:"id"`
	SolicitacaoID  string    `json:"solicitacao_id"`
	StatusAnterior *Status   `json:"status_anterior"`
	StatusNovo     Status    `json:"status_novo"`
	AlteradoPor    *string   `json:"alterado_por,omitempty"`
	Motivo         *string   `json:"motivo,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// TipoComprovante identifica a ação comprovada.
type TipoComprovante string

const (
	ComprovanteRetirada  TipoComprovante = "retirada"
	ComprovanteEnvio     TipoComprovante = "envio"
	ComprovanteAplicacao TipoComprovante = "aplicacao"
)

// Comprovante é um registro imutável (imagem, assinatura, rastreio) ligado à solicitação.
type Comprovante struct {
	ID            string          `json:"id"`
	SolicitacaoID string          `json:"solicitacao_id"`
	Tipo          TipoComprovante `json:"tipo"`
	ImagemURL     *string         `json:"imagem_url,omitempty"`
	AssinaturaURL *string         `json:"assinatura_url,omitempty"`
	TrackingCode  *string         `json:"tracking_code,omitempty"`
	Observacao    *string         `json:"observacao,omitempty"`
	CreatedBy     *string         `json:"created_by,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// SolicitacaoFiltro define os filtros de GET /solicitacoes.
// Ativo nil significa ativas e inativas.
type SolicitacaoFiltro struct {
	Status        Status
	LojaID        string
	Search        string
	PeriodoInicio *time.Time
	PeriodoFim    *time.Time
	Ativo         *bool
	LojaIDs       []string
	Restrito      bool
}

// CreateSolicitacaoInput é o payload de POST /solicitacoes.
type CreateSolicitacaoInput struct {
	LojaID      string          `json:"loja_id" validate:"required,uuid"`
	Objetivo    string          `json:"objetivo" validate:"max=2000"`
	Observacoes string          `json:"observacoes" validate:"max=2000"`
	Prioridade  string          `json:"prioridade" validate:"omitempty,oneof=baixa normal alta urgente"`
	Referencias []string        `json:"referencias" validate:"omitempty,dive,min=1"`
	Itens       []NovoItemInput `json:"itens" validate:"required,min=1,dive"`
}

// NovoItemInput é uma linha de item na criação ou em POST /solicitacoes/{id}/itens.
type NovoItemInput struct {
	ProdutoID            string `json:"produto_id" validate:"required,uuid"`
	QuantidadeSolicitada int    `json:"quantidade_solicitada" validate:"required,gt=0"`
	ObservacaoItem       string `json:"observacao_item" validate:"max=1000"`
}

// UpdateSolicitacaoInput é o payload parcial de PUT /solicitacoes/{id}.
type UpdateSolicitacaoInput struct {
	Objetivo    *string  `json:"objetivo" validate:"omitempty,max=2000"`
	Observacoes *string  `json:"observacoes" validate:"omitempty,max=2000"`
	Prioridade  *string  `json:"prioridade" validate:"omitempty,oneof=baixa normal alta urgente"`
	Referencias []string `json:"referencias" validate:"omitempty,dive,min=1"`
	Ativo       *bool    `json:"ativo"`
}

// Desativando indica que o payload desativa a solicitação, permitido em qualquer status.
func (u UpdateSolicitacaoInput) Desativando() bool {
	return u.Ativo != nil && !*u.Ativo
}

// SomenteDesativacao indica que o payload apenas desativa, sem alterar nenhum outro campo.
func (u UpdateSolicitacaoInput) SomenteDesativacao() bool {
	return u.Desativando() && u.Objetivo == nil && u.Observacoes == nil && u.Prioridade == nil && u.Referencias == nil
}

// UpdateItemInput é o payload parcial de PUT /solicitacoes/{id}/itens/{item_id}.
type UpdateItemInput struct {
	QuantidadeSolicitada *int    `json:"quantidade_solicitada" validate:"omitempty,gt=0"`
	QuantidadeAprovada   *int    `json:"quantidade_aprovada" validate:"omitempty,min=0"`
	QuantidadeEnviada    *int    `json:"quantidade_enviada" validate:"omitempty,min=0"`
	ObservacaoItem       *string `json:"observacao_item" validate:"omitempty,max=1000"`
}

// MudancaStatusInput é o payload de POST /solicitacoes/{id}/status.
type MudancaStatusInput struct {
	StatusNovo Status `json:"status_novo" validate:"required"`
	Motivo     string `json:"motivo" validate:"max=1000"`
}

// ReprovarOCInput é o payload de POST /solicitacoes/{id}/reprovar-oc.
type ReprovarOCInput struct {
	Motivo string `json:"motivo" validate:"required,min=1,max=1000"`
}

// ComprovanteInput cobre os três endpoints de confirmação.
type ComprovanteInput struct {
	ImagemURL     *string `json:"imagem_url" validate:"omitempty,url"`
	AssinaturaURL *string `json:"assinatura_url" validate:"omitempty,url"`
	TrackingCode  *string `json:"tracking_code" validate:"omitempty,max=120"`
	Observacao    *string `json:"observacao" validate:"omitempty,max=1000"`
}

// ResultadoLancamento é o desfecho do lançamento de um item.
type ResultadoLancamento string

const (
	LancamentoPostado  ResultadoLancamento = "postado"
	LancamentoIgnorado ResultadoLancamento = "ignorado"
	LancamentoFalhou   ResultadoLancamento = "falhou"
)

// ResultadoItem é uma linha do relatório de integração com o estoque.
type ResultadoItem struct {
	ItemID      string              `json:"item_id"`
	ProdutoID   string              `json:"produto_id"`
	Quantidade  int                 `json:"quantidade"`
	Resultado   ResultadoLancamento `json:"resultado"`
	MovimentoID string              `json:"movimento_id,omitempty"`
	Erro        string              `json:"erro,omitempty"`
}

// RelatorioIntegracao resume os movimentos gerados por uma mudança de status.
// Erro preenchido indica falha de configuração (nenhum item processado).
type RelatorioIntegracao struct {
	SolicitacaoID string          `json:"solicitacao_id"`
	Status        Status          `json:"status"`
	Tipo          TipoMovimento   `json:"tipo"`
	Erro          string          `json:"erro,omitempty"`
	Itens         []ResultadoItem `json:"itens"`
}

// Contagem devolve quantos itens foram postados, ignorados e falharam.
func (r RelatorioIntegracao) Contagem() (postados, ignorados, falhas int) {
	for _, it := range r.Itens {
		switch it.Resultado {
		case LancamentoPostado:
			postados++
		case LancamentoIgnorado:
			ignorados++
		case LancamentoFalhou:
			falhas++
		}
	}
	return
}

// MudancaStatusResultado é a resposta da mudança de status: a solicitação atualizada
// acrescida do relatório de integração, quando o status gera movimentos.
type MudancaStatusResultado struct {
	Solicitacao
	Integracao *RelatorioIntegracao `json:"integracao_estoque,omitempty"`
}
