package categoriarepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"estoquemkt/internal/domain"
	"estoquemkt/internal/errors"
	"estoquemkt/internal/pkg/cache"
	"estoquemkt/internal/pkg/database"
	"estoquemkt/internal/pkg/logger"
)

const categoriaCacheKey = "categoria:%s"

// Repository implementa o CRUD de estoque_categorias.
type Repository struct {
	DB        *sql.DB
	Cache     cache.Client
	DBTimeout time.Duration
	CacheTTL  time.Duration
	logger    logger.Logger
}

// NewRepository cria e retorna uma nova instância do Repositório de Categorias.
func NewRepository(db *sql.DB, cacheClient cache.Client, dbTimeout, cacheTTL time.Duration, logger logger.Logger) *Repository {
	return &Repository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		CacheTTL:  cacheTTL,
		logger:    logger,
	}
}

const categoriaColumns = `id, nome, COALESCE(descricao, ''), ativo, created_at, updated_at`

func scanCategoria(row interface{ Scan(...interface{}) error }) (domain.Categoria, error) {
	var c domain.Categoria
	err := row.Scan(&c.ID, &c.Nome, &c.Descricao, &c.Ativo, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// Create insere uma nova categoria. Nome duplicado (sem diferenciar maiúsculas) vira Conflict.
func (r *Repository) Create(ctx context.Context, c domain.Categoria) (domain.Categoria, error) {
	r.logger.Debug("Iniciando Create de categoria no repositório.", map[string]interface{}{"nome": c.Nome})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	now := time.Now().UTC()

	query := `
        INSERT INTO estoque_categorias (id, nome, descricao, ativo, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $5)
        RETURNING ` + categoriaColumns

	saved, err := scanCategoria(r.DB.QueryRowContext(ctxTimeout, query, c.ID, c.Nome, c.Descricao, c.Ativo, now))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return domain.Categoria{}, errors.NewConflictError(fmt.Sprintf("Já existe uma categoria com o nome %q.", c.Nome))
		}
		r.logger.Error("Falha ao inserir categoria no DB.", err)
		return domain.Categoria{}, errors.NewDBError("Falha ao criar categoria", err)
	}

	r.logger.Info("Categoria criada com sucesso.", map[string]interface{}{"id": saved.ID, "nome": saved.Nome})
	return saved, nil
}

// GetByID busca uma categoria pelo ID (Cache-Aside).
func (r *Repository) GetByID(ctx context.Context, id string) (domain.Categoria, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	key := fmt.Sprintf(categoriaCacheKey, id)
	var cached domain.Categoria
	if err := cache.GetJSON(ctxTimeout, r.Cache, key, &cached); err == nil {
		return cached, nil
	} else if err != cache.ErrCacheMiss {
		r.logger.Warn("Falha ao ler categoria do cache.", map[string]interface{}{"id": id, "error": err.Error()})
	}

	query := `SELECT ` + categoriaColumns + ` FROM estoque_categorias WHERE id = $1`

	c, err := scanCategoria(r.DB.QueryRowContext(ctxTimeout, query, id))
	if err == sql.ErrNoRows {
		return domain.Categoria{}, errors.NewNotFoundError(fmt.Sprintf("Categoria com ID %s não encontrada.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar categoria no DB.", err)
		return domain.Categoria{}, errors.NewDBError("Falha ao buscar categoria", err)
	}

	if err := cache.SetJSON(ctxTimeout, r.Cache, key, c, r.CacheTTL); err != nil {
		r.logger.Warn("Falha ao gravar categoria no cache.", map[string]interface{}{"id": id, "error": err.Error()})
	}
	return c, nil
}

// FindByNome busca uma categoria pelo nome, sem diferenciar maiúsculas.
func (r *Repository) FindByNome(ctx context.Context, nome string) (domain.Categoria, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + categoriaColumns + ` FROM estoque_categorias WHERE lower(nome) = lower($1)`

	c, err := scanCategoria(r.DB.QueryRowContext(ctxTimeout, query, nome))
	if err == sql.ErrNoRows {
		return domain.Categoria{}, errors.NewNotFoundError(fmt.Sprintf("Categoria %q não encontrada.", nome))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar categoria por nome no DB.", err)
		return domain.Categoria{}, errors.NewDBError("Falha ao buscar categoria", err)
	}
	return c, nil
}

// List busca categorias ordenadas por nome.
func (r *Repository) List(ctx context.Context, f domain.CategoriaFiltro) ([]domain.Categoria, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var w database.Filter
	if f.Search != "" {
		w.Add("nome ILIKE " + w.Arg("%"+f.Search+"%"))
	}
	if f.Ativo != nil {
		w.Add("ativo = " + w.Arg(*f.Ativo))
	}

	query := `SELECT ` + categoriaColumns + ` FROM estoque_categorias` + w.Where() + ` ORDER BY nome`

	rows, err := r.DB.QueryContext(ctxTimeout, query, w.Args()...)
	if err != nil {
		r.logger.Error("Falha ao listar categorias.", err)
		return nil, errors.NewDBError("Falha ao listar categorias", err)
	}
	defer rows.Close()

	categorias := []domain.Categoria{}
	for rows.Next() {
		c, err := scanCategoria(rows)
		if err != nil {
			r.logger.Error("Falha ao mapear categoria.", err)
			return nil, errors.NewDBError("Falha ao mapear categorias do DB", err)
		}
		categorias = append(categorias, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Erro após iteração de categorias", err)
	}
	return categorias, nil
}

// Update grava todos os campos editáveis e invalida o cache.
func (r *Repository) Update(ctx context.Context, c domain.Categoria) (domain.Categoria, error) {
	r.logger.Debug("Iniciando Update de categoria no repositório.", map[string]interface{}{"id": c.ID})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        UPDATE estoque_categorias
        SET nome = $1, descricao = $2, ativo = $3, updated_at = $4
        WHERE id = $5
        RETURNING ` + categoriaColumns

	saved, err := scanCategoria(r.DB.QueryRowContext(ctxTimeout, query, c.Nome, c.Descricao, c.Ativo, time.Now().UTC(), c.ID))
	if err == sql.ErrNoRows {
		return domain.Categoria{}, errors.NewNotFoundError(fmt.Sprintf("Categoria com ID %s não encontrada para atualização.", c.ID))
	}
	if err != nil {
		if database.IsUniqueViolation(err) {
			return domain.Categoria{}, errors.NewConflictError(fmt.Sprintf("Já existe uma categoria com o nome %q.", c.Nome))
		}
		r.logger.Error("Falha ao atualizar categoria no DB.", err)
		return domain.Categoria{}, errors.NewDBError("Falha ao atualizar categoria", err)
	}

	r.invalidar(ctxTimeout, c.ID)
	r.logger.Info("Categoria atualizada com sucesso.", map[string]interface{}{"id": saved.ID, "nome": saved.Nome})
	return saved, nil
}

// CountProdutos conta os produtos vinculados à categoria.
func (r *Repository) CountProdutos(ctx context.Context, id string) (int, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var total int
	err := r.DB.QueryRowContext(ctxTimeout, `SELECT COUNT(*) FROM estoque_produtos WHERE categoria_id = $1`, id).Scan(&total)
	if err != nil {
		r.logger.Error("Falha ao contar produtos da categoria.", err)
		return 0, errors.NewDBError("Falha ao contar produtos da categoria", err)
	}
	return total, nil
}

// Delete remove a categoria. Produtos vinculados bloqueiam a exclusão (FK).
func (r *Repository) Delete(ctx context.Context, id string) error {
	r.logger.Debug("Iniciando Delete de categoria no repositório.", map[string]interface{}{"id": id})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM estoque_categorias WHERE id = $1`, id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return errors.NewConflictError("Categoria possui produtos vinculados.")
		}
		r.logger.Error("Falha ao deletar categoria do DB.", err)
		return errors.NewDBError("Falha ao deletar categoria", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Categoria com ID %s não encontrada para exclusão.", id))
	}

	r.invalidar(ctxTimeout, id)
	r.logger.Info("Categoria deletada com sucesso.", map[string]interface{}{"id": id})
	return nil
}

func (r *Repository) invalidar(ctx context.Context, id string) {
	if err := r.Cache.Delete(ctx, fmt.Sprintf(categoriaCacheKey, id)); err != nil {
		r.logger.Warn("Falha ao invalidar cache da categoria.", map[string]interface{}{"id": id, "error": err.Error()})
	}
}
