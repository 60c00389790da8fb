package solicitacaoservice

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"estoquemkt/internal/domain"
	apperror "estoquemkt/internal/errors"
	"estoquemkt/internal/pkg/logger"
	"estoquemkt/internal/pkg/validator"
	"estoquemkt/internal/service/integracaoestoque"
)

// SolicitacaoRepository define o contrato que o Serviço de Solicitações espera da camada de Persistência.
type SolicitacaoRepository interface {
	List(ctx context.Context, f domain.SolicitacaoFiltro) ([]domain.Solicitacao, error)
	GetByID(ctx context.Context, id string) (domain.Solicitacao, error)
	Create(ctx context.Context, s domain.Solicitacao, itens []domain.Item, actor string) (domain.Solicitacao, error)
	Update(ctx context.Context, s domain.Solicitacao) (domain.Solicitacao, error)
	UpdateStatus(ctx context.Context, id string, de, para domain.Status, motivo, actor string) error
	AprovarOC(ctx context.Context, id, actor string) error

	ListItens(ctx context.Context, solicitacaoID string) ([]domain.Item, error)
	GetItem(ctx context.Context, solicitacaoID, itemID string) (domain.Item, error)
	AddItem(ctx context.Context, it domain.Item) (domain.Item, error)
	UpdateItem(ctx context.Context, it domain.Item) (domain.Item, error)
	DeleteItem(ctx context.Context, solicitacaoID, itemID string) error

	ListLogs(ctx context.Context, solicitacaoID string) ([]domain.StatusLog, error)
	CreateComprovante(ctx context.Context, c domain.Comprovante) (domain.Comprovante, error)
	ListComprovantes(ctx context.Context, solicitacaoID string) ([]domain.Comprovante, error)
}

// Integrador lança no estoque os efeitos de uma mudança de status.
type Integrador interface {
	Processar(ctx context.Context, sol domain.Solicitacao, actor string) (domain.RelatorioIntegracao, error)
}

// Service orquestra o ciclo de vida das solicitações: escopo, grafo de status e integração com o estoque.
type Service struct {
	repo       SolicitacaoRepository
	integracao Integrador
	logger     logger.Logger
	tracer     trace.Tracer
}

// NewService cria e retorna uma nova instância do Serviço de Solicitações.
func NewService(repo SolicitacaoRepository, integracao Integrador, logger logger.Logger) *Service {
	return &Service{
		repo:       repo,
		integracao: integracao,
		logger:     logger,
		tracer:     otel.Tracer("estoquemkt/solicitacaoservice"),
	}
}

// List aplica o escopo do usuário. Solicitações fora do escopo são filtradas sem erro.
func (s *Service) List(ctx context.Context, caller domain.Caller, f domain.SolicitacaoFiltro) ([]domain.Solicitacao, error) {
	f.LojaIDs, f.Restrito = caller.LojaScope()
	return s.repo.List(ctx, f)
}

// Alertas lista as solicitações ativas prontas para retirada.
func (s *Service) Alertas(ctx context.Context, caller domain.Caller) ([]domain.Solicitacao, error) {
	ativo := true
	return s.List(ctx, caller, domain.SolicitacaoFiltro{Status: domain.StatusProntoParaRetirar, Ativo: &ativo})
}

// Get devolve a solicitação com itens, trilha de status e comprovantes.
func (s *Service) Get(ctx context.Context, caller domain.Caller, id string) (domain.Solicitacao, error) {
	sol, err := s.carregar(ctx, caller, id)
	if err != nil {
		return domain.Solicitacao{}, err
	}
	return s.detalhar(ctx, sol)
}

func (s *Service) detalhar(ctx context.Context, sol domain.Solicitacao) (domain.Solicitacao, error) {
	var err error
	if sol.Itens, err = s.repo.ListItens(ctx, sol.ID); err != nil {
		return domain.Solicitacao{}, err
	}
	if sol.Logs, err = s.repo.ListLogs(ctx, sol.ID); err != nil {
		return domain.Solicitacao{}, err
	}
	if sol.Comprovantes, err = s.repo.ListComprovantes(ctx, sol.ID); err != nil {
		return domain.Solicitacao{}, err
	}
	return sol, nil
}

// Create abre uma solicitação em status solicitacao para uma loja do escopo.
func (s *Service) Create(ctx context.Context, caller domain.Caller, in domain.CreateSolicitacaoInput) (domain.Solicitacao, error) {
	if err := validator.Struct(in); err != nil {
		return domain.Solicitacao{}, err
	}
	if err := caller.EnsureLoja(in.LojaID); err != nil {
		s.logger.Warn("Criação de solicitação fora do escopo.", map[string]interface{}{"user_id": caller.UserID, "loja_id": in.LojaID})
		return domain.Solicitacao{}, err
	}

	uid := caller.UserID
	sol := domain.Solicitacao{
		LojaID:       in.LojaID,
		SupervisorID: &uid,
		CriadoPor:    &uid,
		Objetivo:     strings.TrimSpace(in.Objetivo),
		Observacoes:  strings.TrimSpace(in.Observacoes),
		Prioridade:   in.Prioridade,
		Referencias:  in.Referencias,
		Status:       domain.StatusSolicitacao,
		Ativo:        true,
	}

	itens := make([]domain.Item, 0, len(in.Itens))
	for _, it := range in.Itens {
		itens = append(itens, domain.Item{
			ProdutoID:            it.ProdutoID,
			QuantidadeSolicitada: it.QuantidadeSolicitada,
			ObservacaoItem:       strings.TrimSpace(it.ObservacaoItem),
		})
	}

	created, err := s.repo.Create(ctx, sol, itens, caller.UserID)
	if err != nil {
		return domain.Solicitacao{}, err
	}
	if created.Itens, err = s.repo.ListItens(ctx, created.ID); err != nil {
		return domain.Solicitacao{}, err
	}

	s.logger.Info("Solicitação criada.", map[string]interface{}{"solicitacao_id": created.ID, "loja_id": created.LojaID, "itens": len(itens)})
	return created, nil
}

// Update altera os campos da solicitação. Fora de solicitacao/cotacao só a desativação é aceita.
func (s *Service) Update(ctx context.Context, caller domain.Caller, id string, in domain.UpdateSolicitacaoInput) (domain.Solicitacao, error) {
	if err := validator.Struct(in); err != nil {
		return domain.Solicitacao{}, err
	}
	sol, err := s.carregar(ctx, caller, id)
	if err != nil {
		return domain.Solicitacao{}, err
	}

	if !sol.Status.Editavel() {
		if !in.SomenteDesativacao() {
			return domain.Solicitacao{}, apperror.NewValidationError(
				fmt.Sprintf("Solicitação em status %s não pode ser editada; apenas a desativação (ativo=false, sem outros campos) é permitida.", sol.Status.Label()))
		}
		sol.Ativo = false
		return s.repo.Update(ctx, sol)
	}

	if in.Objetivo != nil {
		sol.Objetivo = strings.TrimSpace(*in.Objetivo)
	}
	if in.Observacoes != nil {
		sol.Observacoes = strings.TrimSpace(*in.Observacoes)
	}
	if in.Prioridade != nil {
		sol.Prioridade = *in.Prioridade
	}
	if in.Referencias != nil {
		sol.Referencias = in.Referencias
	}
	if in.Ativo != nil {
		sol.Ativo = *in.Ativo
	}
	return s.repo.Update(ctx, sol)
}

// AddItem inclui um item. Permitido apenas enquanto a solicitação está em status solicitacao.
func (s *Service) AddItem(ctx context.Context, caller domain.Caller, id string, in domain.NovoItemInput) (domain.Item, error) {
	if err := validator.Struct(in); err != nil {
		return domain.Item{}, err
	}
	sol, err := s.carregar(ctx, caller, id)
	if err != nil {
		return domain.Item{}, err
	}
	if sol.Status != domain.StatusSolicitacao {
		return domain.Item{}, apperror.NewValidationError("Itens só podem ser adicionados no status Solicitação.")
	}

	return s.repo.AddItem(ctx, domain.Item{
		SolicitacaoID:        sol.ID,
		ProdutoID:            in.ProdutoID,
		QuantidadeSolicitada: in.QuantidadeSolicitada,
		ObservacaoItem:       strings.TrimSpace(in.ObservacaoItem),
	})
}

// UpdateItem altera quantidades ou observação de um item. Recusado em status terminal.
func (s *Service) UpdateItem(ctx context.Context, caller domain.Caller, id, itemID string, in domain.UpdateItemInput) (domain.Item, error) {
	if err := validator.UUID("item_id", itemID); err != nil {
		return domain.Item{}, err
	}
	if err := validator.Struct(in); err != nil {
		return domain.Item{}, err
	}
	sol, err := s.carregar(ctx, caller, id)
	if err != nil {
		return domain.Item{}, err
	}
	if sol.Status.IsTerminal() {
		return domain.Item{}, apperror.NewValidationError(
			fmt.Sprintf("Solicitação em status %s não aceita alterações.", sol.Status.Label()))
	}

	it, err := s.repo.GetItem(ctx, sol.ID, itemID)
	if err != nil {
		return domain.Item{}, err
	}
	if in.QuantidadeSolicitada != nil {
		it.QuantidadeSolicitada = *in.QuantidadeSolicitada
	}
	if in.QuantidadeAprovada != nil {
		it.QuantidadeAprovada = in.QuantidadeAprovada
	}
	if in.QuantidadeEnviada != nil {
		it.QuantidadeEnviada = in.QuantidadeEnviada
	}
	if in.ObservacaoItem != nil {
		it.ObservacaoItem = strings.TrimSpace(*in.ObservacaoItem)
	}
	return s.repo.UpdateItem(ctx, it)
}

// DeleteItem remove um item enquanto a solicitação é editável.
func (s *Service) DeleteItem(ctx context.Context, caller domain.Caller, id, itemID string) error {
	if err := validator.UUID("item_id", itemID); err != nil {
		return err
	}
	sol, err := s.carregar(ctx, caller, id)
	if err != nil {
		return err
	}
	if !sol.Status.Editavel() {
		return apperror.NewValidationError(
			fmt.Sprintf("Itens não podem ser removidos no status %s.", sol.Status.Label()))
	}
	return s.repo.DeleteItem(ctx, sol.ID, itemID)
}

// ChangeStatus valida a transição no grafo, grava o novo status e, nos status de gatilho,
// lança os movimentos de estoque. Falhas da integração não desfazem a mudança de status:
// o relatório acompanha a resposta.
func (s *Service) ChangeStatus(ctx context.Context, caller domain.Caller, id string, in domain.MudancaStatusInput) (domain.MudancaStatusResultado, error) {
	ctx, span := s.tracer.Start(ctx, "solicitacaoservice.ChangeStatus", trace.WithAttributes(
		attribute.String("solicitacao.id", id),
		attribute.String("status.novo", string(in.StatusNovo)),
	))
	defer span.End()

	if err := validator.Struct(in); err != nil {
		return domain.MudancaStatusResultado{}, err
	}
	sol, err := s.carregar(ctx, caller, id)
	if err != nil {
		return domain.MudancaStatusResultado{}, err
	}
	span.SetAttributes(attribute.String("status.anterior", string(sol.Status)))

	if err := domain.ValidarTransicao(sol.Status, in.StatusNovo); err != nil {
		s.logger.Warn("Transição de status recusada.", map[string]interface{}{
			"solicitacao_id": id,
			"de":             sol.Status,
			"para":           in.StatusNovo,
		})
		span.SetStatus(codes.Error, "transição inválida")
		return domain.MudancaStatusResultado{}, err
	}

	motivo := strings.TrimSpace(in.Motivo)
	if err := s.repo.UpdateStatus(ctx, sol.ID, sol.Status, in.StatusNovo, motivo, caller.UserID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "gravação do status")
		return domain.MudancaStatusResultado{}, err
	}

	return s.aposTransicao(ctx, span, sol, in.StatusNovo, caller.UserID)
}

// recarregar relê a solicitação depois de uma escrita já confirmada. Se a leitura falhar,
// devolve a versão carregada antes da escrita com o novo status.
func (s *Service) recarregar(ctx context.Context, sol domain.Solicitacao, para domain.Status) domain.Solicitacao {
	atual, err := s.repo.GetByID(ctx, sol.ID)
	if err == nil {
		return atual
	}
	s.logger.Warn("Falha ao recarregar solicitação após mudança de status já gravada.", map[string]interface{}{
		"solicitacao_id": sol.ID,
		"status":         para,
		"error":          err.Error(),
	})
	sol.Status = para
	return sol
}

// aposTransicao recarrega a solicitação e roda a integração com o estoque quando o status é gatilho.
func (s *Service) aposTransicao(ctx context.Context, span trace.Span, sol domain.Solicitacao, para domain.Status, actor string) (domain.MudancaStatusResultado, error) {
	atual := s.recarregar(ctx, sol, para)
	res := domain.MudancaStatusResultado{Solicitacao: atual}

	if _, ok := integracaoestoque.Gatilho(atual.Status); !ok {
		return res, nil
	}

	rel, err := s.integracao.Processar(ctx, atual, actor)
	if err != nil {
		// O status já foi gravado; a falha segue apenas no relatório.
		span.RecordError(err)
		s.logger.Warn("Status alterado sem integração completa com o estoque.", map[string]interface{}{
			"solicitacao_id": atual.ID,
			"status":         atual.Status,
			"error":          err.Error(),
		})
	}
	res.Integracao = &rel
	return res, nil
}

// AprovarOC aprova integralmente os itens e move aguardando_oc -> em_producao.
func (s *Service) AprovarOC(ctx context.Context, caller domain.Caller, id string) (domain.Solicitacao, error) {
	ctx, span := s.tracer.Start(ctx, "solicitacaoservice.AprovarOC", trace.WithAttributes(attribute.String("solicitacao.id", id)))
	defer span.End()

	if err := caller.EnsureDiretor(); err != nil {
		return domain.Solicitacao{}, err
	}
	sol, err := s.carregar(ctx, caller, id)
	if err != nil {
		return domain.Solicitacao{}, err
	}
	if sol.Status != domain.StatusAguardandoOC {
		return domain.Solicitacao{}, apperror.NewInvalidTransitionError(string(sol.Status), string(domain.StatusEmProducao))
	}

	if err := s.repo.AprovarOC(ctx, sol.ID, caller.UserID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "aprovação da OC")
		return domain.Solicitacao{}, err
	}
	s.logger.Info("OC aprovada.", map[string]interface{}{"solicitacao_id": sol.ID, "user_id": caller.UserID})

	atual := s.recarregar(ctx, sol, domain.StatusEmProducao)
	itens, err := s.repo.ListItens(ctx, sol.ID)
	if err != nil {
		s.logger.Warn("OC aprovada, mas os itens não puderam ser relidos.", map[string]interface{}{"solicitacao_id": sol.ID, "error": err.Error()})
		return atual, nil
	}
	atual.Itens = itens
	return atual, nil
}

// ReprovarOC devolve a solicitação de aguardando_oc para cotacao. O motivo é obrigatório.
func (s *Service) ReprovarOC(ctx context.Context, caller domain.Caller, id string, in domain.ReprovarOCInput) (domain.Solicitacao, error) {
	if err := caller.EnsureDiretor(); err != nil {
		return domain.Solicitacao{}, err
	}
	in.Motivo = strings.TrimSpace(in.Motivo)
	if err := validator.Struct(in); err != nil {
		return domain.Solicitacao{}, err
	}
	sol, err := s.carregar(ctx, caller, id)
	if err != nil {
		return domain.Solicitacao{}, err
	}
	if sol.Status != domain.StatusAguardandoOC {
		return domain.Solicitacao{}, apperror.NewInvalidTransitionError(string(sol.Status), string(domain.StatusCotacao))
	}

	if err := s.repo.UpdateStatus(ctx, sol.ID, domain.StatusAguardandoOC, domain.StatusCotacao, in.Motivo, caller.UserID); err != nil {
		return domain.Solicitacao{}, err
	}
	s.logger.Info("OC reprovada.", map[string]interface{}{"solicitacao_id": sol.ID, "user_id": caller.UserID})
	return s.recarregar(ctx, sol, domain.StatusCotacao), nil
}

// ConfirmarRetirada registra o comprovante de retirada.
func (s *Service) ConfirmarRetirada(ctx context.Context, caller domain.Caller, id string, in domain.ComprovanteInput) (domain.Comprovante, error) {
	return s.registrarComprovante(ctx, caller, id, domain.ComprovanteRetirada, in)
}

// ConfirmarEnvio registra o comprovante de envio (apenas diretores).
func (s *Service) ConfirmarEnvio(ctx context.Context, caller domain.Caller, id string, in domain.ComprovanteInput) (domain.Comprovante, error) {
	if err := caller.EnsureDiretor(); err != nil {
		return domain.Comprovante{}, err
	}
	return s.registrarComprovante(ctx, caller, id, domain.ComprovanteEnvio, in)
}

// ConfirmarAplicacao registra o comprovante de aplicação na loja.
func (s *Service) ConfirmarAplicacao(ctx context.Context, caller domain.Caller, id string, in domain.ComprovanteInput) (domain.Comprovante, error) {
	return s.registrarComprovante(ctx, caller, id, domain.ComprovanteAplicacao, in)
}

func (s *Service) registrarComprovante(ctx context.Context, caller domain.Caller, id string, tipo domain.TipoComprovante, in domain.ComprovanteInput) (domain.Comprovante, error) {
	if err := validator.Struct(in); err != nil {
		return domain.Comprovante{}, err
	}
	sol, err := s.carregar(ctx, caller, id)
	if err != nil {
		return domain.Comprovante{}, err
	}

	c := domain.Comprovante{
		SolicitacaoID: sol.ID,
		Tipo:          tipo,
		ImagemURL:     in.ImagemURL,
		AssinaturaURL: in.AssinaturaURL,
		TrackingCode:  in.TrackingCode,
		Observacao:    in.Observacao,
	}
	if caller.UserID != "" {
		uid := caller.UserID
		c.CreatedBy = &uid
	}
	return s.repo.CreateComprovante(ctx, c)
}

// Logs devolve a trilha de status, da mais recente para a mais antiga.
func (s *Service) Logs(ctx context.Context, caller domain.Caller, id string) ([]domain.StatusLog, error) {
	sol, err := s.carregar(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	return s.repo.ListLogs(ctx, sol.ID)
}

// carregar busca a solicitação e aplica o escopo de busca única (Forbidden fora do escopo).
func (s *Service) carregar(ctx context.Context, caller domain.Caller, id string) (domain.Solicitacao, error) {
	if err := validator.UUID("id", id); err != nil {
		return domain.Solicitacao{}, err
	}
	sol, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Solicitacao{}, err
	}
	if err := caller.EnsureLoja(sol.LojaID); err != nil {
		s.logger.Warn("Acesso a solicitação fora do escopo.", map[string]interface{}{
			"user_id":        caller.UserID,
			"solicitacao_id": id,
			"loja_id":        sol.LojaID,
		})
		return domain.Solicitacao{}, err
	}
	return sol, nil
}
