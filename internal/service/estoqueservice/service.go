package estoqueservice

import (
	"context"

	"estoquemkt/internal/domain"
	"estoquemkt/internal/pkg/logger"
	"estoquemkt/internal/pkg/validator"
)

// Limites de GET /estoque/movimentos.
const (
	DefaultMovimentosLimit = 100
	MaxMovimentosLimit     = 500
)

// EstoqueRepository define o contrato que o livro de estoque espera da persistência.
type EstoqueRepository interface {
	FindCentral(ctx context.Context) (domain.EstoqueLocal, error)
	FindByLoja(ctx context.Context, lojaID string) (domain.EstoqueLocal, error)
	GetLocal(ctx context.Context, id string) (domain.EstoqueLocal, error)
	ListLocais(ctx context.Context, f domain.LocalFiltro) ([]domain.EstoqueLocal, error)
	ListSaldos(ctx context.Context, f domain.SaldoFiltro) ([]domain.Saldo, error)
	ListMovimentos(ctx context.Context, f domain.MovimentoFiltro) ([]domain.Movimento, error)
	PostMovimento(ctx context.Context, m domain.Movimento) (domain.Movimento, error)
	Ajustar(ctx context.Context, produtoID, localID string, nova int, motivo string, actor *string) (domain.Movimento, error)
}

// Service é o livro de estoque: lançamentos manuais com escopo e as projeções de leitura.
type Service struct {
	repo   EstoqueRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Estoque.
func NewService(repo EstoqueRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// FindCentral resolve o estoque central.
func (s *Service) FindCentral(ctx context.Context) (domain.EstoqueLocal, error) {
	return s.repo.FindCentral(ctx)
}

// FindByLoja resolve o estoque de uma loja.
func (s *Service) FindByLoja(ctx context.Context, lojaID string) (domain.EstoqueLocal, error) {
	return s.repo.FindByLoja(ctx, lojaID)
}

// PostMovimento lança um movimento sem checagem de escopo. Usado por fluxos internos
// (integração de solicitações e saldo inicial de produto).
func (s *Service) PostMovimento(ctx context.Context, m domain.Movimento) (domain.Movimento, error) {
	return s.repo.PostMovimento(ctx, m)
}

// ListLocais lista os locais visíveis ao usuário.
func (s *Service) ListLocais(ctx context.Context, caller domain.Caller) ([]domain.EstoqueLocal, error) {
	ids, restrito := caller.LojaScope()
	return s.repo.ListLocais(ctx, domain.LocalFiltro{LojaIDs: ids, Restrito: restrito})
}

// ListSaldos aplica o escopo do usuário ao filtro de saldos.
func (s *Service) ListSaldos(ctx context.Context, caller domain.Caller, f domain.SaldoFiltro) ([]domain.Saldo, error) {
	f.LojaIDs, f.Restrito = caller.LojaScope()
	return s.repo.ListSaldos(ctx, f)
}

// ListMovimentos aplica escopo e limites ao filtro de movimentos.
func (s *Service) ListMovimentos(ctx context.Context, caller domain.Caller, f domain.MovimentoFiltro) ([]domain.Movimento, error) {
	f.LojaIDs, f.Restrito = caller.LojaScope()
	if f.Limit <= 0 {
		f.Limit = DefaultMovimentosLimit
	}
	if f.Limit > MaxMovimentosLimit {
		f.Limit = MaxMovimentosLimit
	}
	return s.repo.ListMovimentos(ctx, f)
}

// Entrada lança a entrada de material em um local.
func (s *Service) Entrada(ctx context.Context, caller domain.Caller, in domain.EntradaInput) (domain.Movimento, error) {
	if err := validator.Struct(in); err != nil {
		return domain.Movimento{}, err
	}
	if err := s.ensureLocais(ctx, caller, in.DestinoID); err != nil {
		return domain.Movimento{}, err
	}

	return s.lancar(ctx, domain.Movimento{
		ProdutoID:  in.ProdutoID,
		Tipo:       domain.MovimentoEntrada,
		Quantidade: in.Quantidade,
		DestinoID:  &in.DestinoID,
		Observacao: in.Observacao,
		CreatedBy:  actor(caller),
	})
}

// Saida lança a baixa de material de um local.
func (s *Service) Saida(ctx context.Context, caller domain.Caller, in domain.SaidaInput) (domain.Movimento, error) {
	if err := validator.Struct(in); err != nil {
		return domain.Movimento{}, err
	}
	if err := s.ensureLocais(ctx, caller, in.OrigemID); err != nil {
		return domain.Movimento{}, err
	}

	return s.lancar(ctx, domain.Movimento{
		ProdutoID:  in.ProdutoID,
		Tipo:       domain.MovimentoSaida,
		Quantidade: in.Quantidade,
		OrigemID:   &in.OrigemID,
		Observacao: in.Observacao,
		CreatedBy:  actor(caller),
	})
}

// Transferencia move material entre dois locais diferentes.
func (s *Service) Transferencia(ctx context.Context, caller domain.Caller, in domain.TransferenciaInput) (domain.Movimento, error) {
	if err := validator.Struct(in); err != nil {
		return domain.Movimento{}, err
	}
	if err := s.ensureLocais(ctx, caller, in.OrigemID, in.DestinoID); err != nil {
		return domain.Movimento{}, err
	}

	return s.lancar(ctx, domain.Movimento{
		ProdutoID:  in.ProdutoID,
		Tipo:       domain.MovimentoTransferencia,
		Quantidade: in.Quantidade,
		OrigemID:   &in.OrigemID,
		DestinoID:  &in.DestinoID,
		Observacao: in.Observacao,
		CreatedBy:  actor(caller),
	})
}

// Ajuste define o novo saldo de um produto em um local.
func (s *Service) Ajuste(ctx context.Context, caller domain.Caller, in domain.AjusteInput) (domain.Movimento, error) {
	if err := validator.Struct(in); err != nil {
		return domain.Movimento{}, err
	}
	if err := s.ensureLocais(ctx, caller, in.EstoqueLocalID); err != nil {
		return domain.Movimento{}, err
	}

	m, err := s.repo.Ajustar(ctx, in.ProdutoID, in.EstoqueLocalID, *in.QuantidadeNova, in.Motivo, actor(caller))
	if err != nil {
		s.logger.Warn("Ajuste de estoque recusado.", map[string]interface{}{
			"produto_id": in.ProdutoID,
			"local_id":   in.EstoqueLocalID,
			"error":      err.Error(),
		})
		return domain.Movimento{}, err
	}
	return m, nil
}

func (s *Service) lancar(ctx context.Context, m domain.Movimento) (domain.Movimento, error) {
	saved, err := s.repo.PostMovimento(ctx, m)
	if err != nil {
		s.logger.Warn("Movimento de estoque recusado.", map[string]interface{}{
			"produto_id": m.ProdutoID,
			"tipo":       m.Tipo,
			"quantidade": m.Quantidade,
			"error":      err.Error(),
		})
		return domain.Movimento{}, err
	}
	return saved, nil
}

// ensureLocais carrega cada local e confere o escopo do usuário.
func (s *Service) ensureLocais(ctx context.Context, caller domain.Caller, ids ...string) error {
	for _, id := range ids {
		local, err := s.repo.GetLocal(ctx, id)
		if err != nil {
			return err
		}
		if err := caller.EnsureLocal(local); err != nil {
			s.logger.Warn("Lançamento em local fora do escopo.", map[string]interface{}{"user_id": caller.UserID, "local_id": id})
			return err
		}
	}
	return nil
}

func actor(caller domain.Caller) *string {
	if caller.UserID == "" {
		return nil
	}
	id := caller.UserID
	return &id
}
