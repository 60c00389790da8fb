package categoriaservice

import (
	"context"
	"fmt"
	"strings"

	"estoquemkt/internal/domain"
	apperror "estoquemkt/internal/errors"
	"estoquemkt/internal/pkg/logger"
	"estoquemkt/internal/pkg/validator"
)

// CategoriaRepository define o contrato que o Serviço de Categorias espera da camada de Persistência.
type CategoriaRepository interface {
	Create(ctx context.Context, c domain.Categoria) (domain.Categoria, error)
	GetByID(ctx context.Context, id string) (domain.Categoria, error)
	FindByNome(ctx context.Context, nome string) (domain.Categoria, error)
	List(ctx context.Context, f domain.CategoriaFiltro) ([]domain.Categoria, error)
	Update(ctx context.Context, c domain.Categoria) (domain.Categoria, error)
	CountProdutos(ctx context.Context, id string) (int, error)
	Delete(ctx context.Context, id string) error
}

// Service implementa as regras de categorias.
type Service struct {
	repo   CategoriaRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Categorias.
func NewService(repo CategoriaRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// List busca categorias por nome e situação.
func (s *Service) List(ctx context.Context, f domain.CategoriaFiltro) ([]domain.Categoria, error) {
	return s.repo.List(ctx, f)
}

// Get busca uma categoria pelo ID.
func (s *Service) Get(ctx context.Context, id string) (domain.Categoria, error) {
	if err := validator.UUID("id", id); err != nil {
		return domain.Categoria{}, err
	}
	return s.repo.GetByID(ctx, id)
}

// Create cria uma categoria. O nome é único sem diferenciar maiúsculas.
func (s *Service) Create(ctx context.Context, in domain.CategoriaInput) (domain.Categoria, error) {
	if err := validator.Struct(in); err != nil {
		return domain.Categoria{}, err
	}

	nome := strings.TrimSpace(in.Nome)
	if nome == "" {
		return domain.Categoria{}, apperror.NewValidationError("nome é obrigatório")
	}
	if err := s.garantirNomeLivre(ctx, nome, ""); err != nil {
		return domain.Categoria{}, err
	}

	c := domain.Categoria{Nome: nome, Descricao: strings.TrimSpace(in.Descricao), Ativo: true}
	if in.Ativo != nil {
		c.Ativo = *in.Ativo
	}

	created, err := s.repo.Create(ctx, c)
	if err != nil {
		return domain.Categoria{}, err
	}
	s.logger.Info("Categoria criada.", map[string]interface{}{"id": created.ID, "nome": created.Nome})
	return created, nil
}

// Update aplica a atualização parcial mantendo a unicidade do nome.
func (s *Service) Update(ctx context.Context, id string, in domain.CategoriaUpdate) (domain.Categoria, error) {
	if err := validator.UUID("id", id); err != nil {
		return domain.Categoria{}, err
	}
	if err := validator.Struct(in); err != nil {
		return domain.Categoria{}, err
	}

	atual, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Categoria{}, err
	}

	if in.Nome != nil {
		nome := strings.TrimSpace(*in.Nome)
		if nome == "" {
			return domain.Categoria{}, apperror.NewValidationError("nome não pode ser vazio")
		}
		if !strings.EqualFold(nome, atual.Nome) {
			if err := s.garantirNomeLivre(ctx, nome, id); err != nil {
				return domain.Categoria{}, err
			}
		}
		atual.Nome = nome
	}
	if in.Descricao != nil {
		atual.Descricao = strings.TrimSpace(*in.Descricao)
	}
	if in.Ativo != nil {
		atual.Ativo = *in.Ativo
	}

	return s.repo.Update(ctx, atual)
}

// Delete remove a categoria se nenhum produto a referencia.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := validator.UUID("id", id); err != nil {
		return err
	}

	total, err := s.repo.CountProdutos(ctx, id)
	if err != nil {
		return err
	}
	if total > 0 {
		s.logger.Warn("Exclusão de categoria bloqueada por produtos vinculados.", map[string]interface{}{"id": id, "produtos": total})
		return apperror.NewConflictError(fmt.Sprintf("Categoria possui %d produto(s) vinculado(s).", total))
	}

	return s.repo.Delete(ctx, id)
}

// Resolver devolve o ID da categoria a partir do id ou do nome informado.
func (s *Service) Resolver(ctx context.Context, id, nome *string) (string, error) {
	if id != nil && *id != "" {
		c, err := s.repo.GetByID(ctx, *id)
		if err != nil {
			return "", err
		}
		return c.ID, nil
	}
	if nome != nil && strings.TrimSpace(*nome) != "" {
		c, err := s.repo.FindByNome(ctx, strings.TrimSpace(*nome))
		if err != nil {
			return "", err
		}
		return c.ID, nil
	}
	return "", apperror.NewValidationError("Informe categoria_id ou categoria.")
}

func (s *Service) garantirNomeLivre(ctx context.Context, nome, ignorarID string) error {
	existente, err := s.repo.FindByNome(ctx, nome)
	if err == nil && existente.ID != ignorarID {
		return apperror.NewConflictError(fmt.Sprintf("Já existe uma categoria com o nome %q.", nome))
	}
	if err != nil {
		if _, ok := err.(*apperror.NotFoundError); !ok {
			return err
		}
	}
	return nil
}
