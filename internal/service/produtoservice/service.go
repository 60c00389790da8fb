package produtoservice

import (
	"context"
	"fmt"
	"strings"

	"estoquemkt/internal/domain"
	apperror "estoquemkt/internal/errors"
	"estoquemkt/internal/pkg/logger"
	"estoquemkt/internal/pkg/validator"
)

// ObservacaoSaldoInicial é a observação do movimento que semeia o saldo de um produto novo.
const ObservacaoSaldoInicial = "Saldo inicial do produto"

// ProdutoRepository define o contrato que o Serviço de Produtos espera da camada de Persistência.
type ProdutoRepository interface {
	Create(ctx context.Context, p domain.Produto) (domain.Produto, error)
	GetByID(ctx context.Context, id string) (domain.Produto, error)
	List(ctx context.Context, f domain.ProdutoFiltro) ([]domain.Produto, error)
	Update(ctx context.Context, p domain.Produto) (domain.Produto, error)
	Desativar(ctx context.Context, id string) error
}

// CategoriaResolver traduz categoria_id ou nome de categoria para o ID.
type CategoriaResolver interface {
	Resolver(ctx context.Context, id, nome *string) (string, error)
}

// Ledger é a parte do livro de estoque usada para o saldo inicial.
type Ledger interface {
	FindCentral(ctx context.Context) (domain.EstoqueLocal, error)
	PostMovimento(ctx context.Context, m domain.Movimento) (domain.Movimento, error)
}

// Service implementa o catálogo de produtos.
type Service struct {
	repo       ProdutoRepository
	categorias CategoriaResolver
	ledger     Ledger
	logger     logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Produtos.
func NewService(repo ProdutoRepository, categorias CategoriaResolver, ledger Ledger, logger logger.Logger) *Service {
	return &Service{repo: repo, categorias: categorias, ledger: ledger, logger: logger}
}

// List busca produtos. O filtro por nome de categoria é resolvido para o ID;
// categoria inexistente resulta em lista vazia.
func (s *Service) List(ctx context.Context, f domain.ProdutoFiltro) ([]domain.Produto, error) {
	if f.CategoriaID == "" && strings.TrimSpace(f.Categoria) != "" {
		nome := f.Categoria
		id, err := s.categorias.Resolver(ctx, nil, &nome)
		if err != nil {
			if _, ok := err.(*apperror.NotFoundError); ok {
				return []domain.Produto{}, nil
			}
			return nil, err
		}
		f.CategoriaID = id
	}
	return s.repo.List(ctx, f)
}

// Get busca um produto pelo ID.
func (s *Service) Get(ctx context.Context, id string) (domain.Produto, error) {
	if err := validator.UUID("id", id); err != nil {
		return domain.Produto{}, err
	}
	return s.repo.GetByID(ctx, id)
}

// Create cadastra o produto e, se houver quantidade inicial, lança uma entrada no estoque central.
func (s *Service) Create(ctx context.Context, caller domain.Caller, in domain.CreateProdutoInput) (domain.Produto, error) {
	if err := validator.Struct(in); err != nil {
		return domain.Produto{}, err
	}
	nome := strings.TrimSpace(in.Nome)
	if nome == "" {
		return domain.Produto{}, apperror.NewValidationError("nome é obrigatório")
	}

	categoriaID, err := s.categorias.Resolver(ctx, in.CategoriaID, in.Categoria)
	if err != nil {
		return domain.Produto{}, err
	}

	p := domain.Produto{
		Nome:            nome,
		SKU:             limpar(in.SKU),
		CategoriaID:     &categoriaID,
		EstoqueMinimo:   in.EstoqueMinimo,
		Ativo:           true,
		ImagemURL:       in.ImagemURL,
		Image1URL:       in.Image1URL,
		Image2URL:       in.Image2URL,
		Image3URL:       in.Image3URL,
		ImagemCapaIndex: 1,
	}
	if in.Ativo != nil {
		p.Ativo = *in.Ativo
	}
	if in.ImagemCapaIndex != 0 {
		p.ImagemCapaIndex = in.ImagemCapaIndex
	}

	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return domain.Produto{}, err
	}
	s.logger.Info("Produto criado.", map[string]interface{}{"produto_id": created.ID, "nome": created.Nome})

	if in.QuantidadeDisponivel > 0 {
		if s.semearSaldo(ctx, caller, created.ID, in.QuantidadeDisponivel) {
			created.QuantidadeDisponivel = in.QuantidadeDisponivel
		}
	}
	return created, nil
}

// semearSaldo lança a entrada inicial. Falhas são registradas e não desfazem o cadastro.
func (s *Service) semearSaldo(ctx context.Context, caller domain.Caller, produtoID string, qtd int) bool {
	central, err := s.ledger.FindCentral(ctx)
	if err != nil {
		if _, ok := err.(*apperror.NotFoundError); ok {
			err = apperror.NewConfigurationError("Estoque central não encontrado. Saldo inicial não lançado.")
		}
		s.logger.Error(fmt.Sprintf("Produto %s criado sem saldo inicial.", produtoID), err)
		return false
	}

	m := domain.Movimento{
		ProdutoID:  produtoID,
		Tipo:       domain.MovimentoEntrada,
		Quantidade: qtd,
		DestinoID:  &central.ID,
		Observacao: ObservacaoSaldoInicial,
	}
	if caller.UserID != "" {
		uid := caller.UserID
		m.CreatedBy = &uid
	}
	if _, err := s.ledger.PostMovimento(ctx, m); err != nil {
		s.logger.Error(fmt.Sprintf("Falha ao lançar saldo inicial do produto %s.", produtoID), err)
		return false
	}
	return true
}

// Update aplica a atualização parcial. A quantidade só muda por movimentos de estoque.
func (s *Service) Update(ctx context.Context, id string, in domain.UpdateProdutoInput) (domain.Produto, error) {
	if err := validator.UUID("id", id); err != nil {
		return domain.Produto{}, err
	}
	if err := validator.Struct(in); err != nil {
		return domain.Produto{}, err
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Produto{}, err
	}

	if in.Nome != nil {
		nome := strings.TrimSpace(*in.Nome)
		if nome == "" {
			return domain.Produto{}, apperror.NewValidationError("nome não pode ser vazio")
		}
		p.Nome = nome
	}
	if in.SKU != nil {
		p.SKU = limpar(in.SKU)
	}
	if in.CategoriaID != nil || in.Categoria != nil {
		categoriaID, err := s.categorias.Resolver(ctx, in.CategoriaID, in.Categoria)
		if err != nil {
			return domain.Produto{}, err
		}
		p.CategoriaID = &categoriaID
	}
	if in.Ativo != nil {
		p.Ativo = *in.Ativo
	}
	if in.EstoqueMinimo != nil {
		p.EstoqueMinimo = *in.EstoqueMinimo
	}
	if in.ImagemURL != nil {
		p.ImagemURL = in.ImagemURL
	}
	if in.Image1URL != nil {
		p.Image1URL = in.Image1URL
	}
	if in.Image2URL != nil {
		p.Image2URL = in.Image2URL
	}
	if in.Image3URL != nil {
		p.Image3URL = in.Image3URL
	}
	if in.ImagemCapaIndex != nil {
		p.ImagemCapaIndex = *in.ImagemCapaIndex
	}

	return s.repo.Update(ctx, p)
}

// Delete desativa o produto. Movimentos e saldos históricos são preservados.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := validator.UUID("id", id); err != nil {
		return err
	}
	return s.repo.Desativar(ctx, id)
}

// limpar trata SKU vazio como ausente.
func limpar(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
