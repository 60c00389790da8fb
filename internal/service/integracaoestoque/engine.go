package integracaoestoque

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"estoquemkt/internal/domain"
	apperror "estoquemkt/internal/errors"
	"estoquemkt/internal/pkg/logger"
)

// Ledger é o livro de estoque onde os movimentos são lançados.
type Ledger interface {
	PostMovimento(ctx context.Context, m domain.Movimento) (domain.Movimento, error)
}

// LocalResolver encontra os locais envolvidos na transição.
type LocalResolver interface {
	FindCentral(ctx context.Context) (domain.EstoqueLocal, error)
	FindByLoja(ctx context.Context, lojaID string) (domain.EstoqueLocal, error)
}

// ItemLister lê os itens atuais da solicitação.
type ItemLister interface {
	ListItens(ctx context.Context, solicitacaoID string) ([]domain.Item, error)
}

// Engine lança no estoque os efeitos de uma mudança de status já gravada.
// Falhas por item são registradas e não interrompem os demais itens.
type Engine struct {
	ledger LocalLedger
	itens  ItemLister
	logger logger.Logger
	tracer trace.Tracer
}

// LocalLedger junta o livro e a resolução de locais (o serviço de estoque atende aos dois).
type LocalLedger interface {
	Ledger
	LocalResolver
}

// NewEngine cria o motor de integração com o estoque.
func NewEngine(ledger LocalLedger, itens ItemLister, logger logger.Logger) *Engine {
	return &Engine{
		ledger: ledger,
		itens:  itens,
		logger: logger,
		tracer: otel.Tracer("estoquemkt/integracaoestoque"),
	}
}

// Processar gera um movimento por item para o status atual da solicitação.
// Erro de resolução de local é devolvido como ConfigurationError junto com o relatório
// (Erro preenchido, nenhum item processado). Erros por item ficam apenas no relatório.
func (e *Engine) Processar(ctx context.Context, sol domain.Solicitacao, actor string) (domain.RelatorioIntegracao, error) {
	tipo, ok := Gatilho(sol.Status)
	rel := domain.RelatorioIntegracao{SolicitacaoID: sol.ID, Status: sol.Status, Tipo: tipo, Itens: []domain.ResultadoItem{}}
	if !ok {
		return rel, nil
	}

	ctx, span := e.tracer.Start(ctx, "integracaoestoque.Processar", trace.WithAttributes(
		attribute.String("solicitacao.id", sol.ID),
		attribute.String("solicitacao.status", string(sol.Status)),
		attribute.String("movimento.tipo", string(tipo)),
	))
	defer span.End()

	origem, destino, err := e.resolverLocais(ctx, tipo, sol)
	if err != nil {
		rel.Erro = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, "resolução de local")
		e.logger.Error(fmt.Sprintf("Integração com estoque abortada para a solicitação %s.", sol.ID), err)
		return rel, err
	}

	itens, err := e.itens.ListItens(ctx, sol.ID)
	if err != nil {
		rel.Erro = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, "leitura de itens")
		e.logger.Error(fmt.Sprintf("Falha ao ler itens da solicitação %s para integração.", sol.ID), err)
		return rel, err
	}

	observacao := Observacao(tipo, sol.ID, sol.Status)
	for _, it := range itens {
		res := e.lancarItem(ctx, sol, it, tipo, origem, destino, observacao, actor)
		span.AddEvent("item", trace.WithAttributes(
			attribute.String("item.id", it.ID),
			attribute.String("item.resultado", string(res.Resultado)),
			attribute.Int("item.quantidade", res.Quantidade),
		))
		rel.Itens = append(rel.Itens, res)
	}

	postados, ignorados, falhas := rel.Contagem()
	span.SetAttributes(
		attribute.Int("itens.postados", postados),
		attribute.Int("itens.ignorados", ignorados),
		attribute.Int("itens.falhas", falhas),
	)
	fields := map[string]interface{}{
		"solicitacao_id": sol.ID,
		"status":         sol.Status,
		"tipo":           tipo,
		"postados":       postados,
		"ignorados":      ignorados,
		"falhas":         falhas,
	}
	if falhas > 0 {
		e.logger.Warn("Integração com estoque concluída com falhas.", fields)
	} else {
		e.logger.Info("Integração com estoque concluída.", fields)
	}
	return rel, nil
}

func (e *Engine) lancarItem(ctx context.Context, sol domain.Solicitacao, it domain.Item, tipo domain.TipoMovimento,
	origem, destino *string, observacao, actor string) domain.ResultadoItem {

	qtd := QuantidadePara(sol.Status, it)
	res := domain.ResultadoItem{ItemID: it.ID, ProdutoID: it.ProdutoID, Quantidade: qtd}

	if qtd <= 0 {
		e.logger.Info("Item ignorado na integração: quantidade resolvida não positiva.", map[string]interface{}{
			"solicitacao_id": sol.ID,
			"item_id":        it.ID,
			"produto_id":     it.ProdutoID,
			"quantidade":     qtd,
		})
		res.Resultado = domain.LancamentoIgnorado
		return res
	}

	refTipo := domain.ReferenciaSolicitacao
	refID := sol.ID
	m := domain.Movimento{
		ProdutoID:      it.ProdutoID,
		Tipo:           tipo,
		Quantidade:     qtd,
		OrigemID:       origem,
		DestinoID:      destino,
		ReferenciaTipo: &refTipo,
		ReferenciaID:   &refID,
		Observacao:     observacao,
	}
	if actor != "" {
		m.CreatedBy = &actor
	}

	mov, err := e.ledger.PostMovimento(ctx, m)
	if err != nil {
		postErr := apperror.NewPostingError(it.ID, err)
		e.logger.Error(fmt.Sprintf("Solicitação %s: produto %s, quantidade %d.", sol.ID, it.ProdutoID, qtd), postErr)
		res.Resultado = domain.LancamentoFalhou
		res.Erro = err.Error()
		return res
	}

	res.Resultado = domain.LancamentoPostado
	res.MovimentoID = mov.ID
	return res
}

// resolverLocais devolve origem e destino do movimento conforme o tipo.
func (e *Engine) resolverLocais(ctx context.Context, tipo domain.TipoMovimento, sol domain.Solicitacao) (origem, destino *string, err error) {
	central := func() (*string, error) {
		l, err := e.ledger.FindCentral(ctx)
		if err != nil {
			return nil, configuracao(err, "Estoque central não encontrado. Configure o estoque central.")
		}
		return &l.ID, nil
	}
	daLoja := func() (*string, error) {
		l, err := e.ledger.FindByLoja(ctx, sol.LojaID)
		if err != nil {
			return nil, configuracao(err, fmt.Sprintf("Estoque da loja %s não encontrado. Configure o estoque da loja.", sol.LojaID))
		}
		return &l.ID, nil
	}

	switch tipo {
	case domain.MovimentoEntrada:
		destino, err = central()
	case domain.MovimentoTransferencia:
		if origem, err = central(); err == nil {
			destino, err = daLoja()
		}
	case domain.MovimentoSaida:
		origem, err = daLoja()
	}
	return origem, destino, err
}

// configuracao converte "não encontrado" em ConfigurationError; demais erros seguem como estão.
func configuracao(err error, msg string) error {
	if _, ok := err.(*apperror.NotFoundError); ok {
		return apperror.NewConfigurationError(msg)
	}
	return err
}

// Observacao monta o texto gravado nos movimentos automáticos.
func Observacao(tipo domain.TipoMovimento, solicitacaoID string, status domain.Status) string {
	var prefixo string
	switch tipo {
	case domain.MovimentoEntrada:
		prefixo = "Entrada automática"
	case domain.MovimentoTransferencia:
		prefixo = "Transferência automática"
	default:
		prefixo = "Baixa definitiva"
	}
	return fmt.Sprintf("%s - Solicitação %s - Status: %s", prefixo, solicitacaoID, status.Label())
}
