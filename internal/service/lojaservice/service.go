package lojaservice

import (
	"context"

	"estoquemkt/internal/domain"
	"estoquemkt/internal/pkg/logger"
	"estoquemkt/internal/pkg/validator"
)

// LojaRepository define o contrato de leitura de lojas.
type LojaRepository interface {
	GetByID(ctx context.Context, id string) (domain.Loja, error)
	List(ctx context.Context, ids []string, restrito bool) ([]domain.Loja, error)
}

// Service aplica o escopo de acesso às consultas de lojas.
type Service struct {
	repo   LojaRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Lojas.
func NewService(repo LojaRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// List devolve as lojas visíveis. Supervisor sem lojas recebe lista vazia.
func (s *Service) List(ctx context.Context, caller domain.Caller) ([]domain.Loja, error) {
	ids, restrito := caller.LojaScope()
	return s.repo.List(ctx, ids, restrito)
}

// Get busca uma loja respeitando o escopo (403 fora dele).
func (s *Service) Get(ctx context.Context, caller domain.Caller, id string) (domain.Loja, error) {
	if err := validator.UUID("id", id); err != nil {
		return domain.Loja{}, err
	}
	if err := caller.EnsureLoja(id); err != nil {
		s.logger.Warn("Acesso a loja fora do escopo.", map[string]interface{}{"user_id": caller.UserID, "loja_id": id})
		return domain.Loja{}, err
	}
	return s.repo.GetByID(ctx, id)
}
