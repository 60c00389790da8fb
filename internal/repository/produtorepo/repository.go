package produtorepo

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

// Define a chave de cache para produtos.
const produtoCacheKey = "produto:%s"

// Repository contém as conexões necessárias para acessar produtos.
type Repository struct {
	DB        *sql.DB      // Conexão principal com o banco de dados (PostgreSQL)
	Cache     cache.Client // Cliente para operações de cache (Redis)
	DBTimeout time.Duration
	CacheTTL  time.Duration
	logger    logger.Logger
}

// NewRepository cria e retorna uma nova instância do Repositório.
// Aqui injetamos as dependências de Infraestrutura (DB e Cache).
func NewRepository(db *sql.DB, cacheClient cache.Client, dbTimeout, cacheTTL time.Duration, logger logger.Logger) *Repository {
	return &Repository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		CacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// A quantidade disponível é derivada dos saldos; nunca é gravada no produto.
const produtoSelect = `
        SELECT p.id, p.nome, p.sku, p.categoria_id, COALESCE(c.nome, ''),
               COALESCE((SELECT SUM(s.quantidade) FROM estoque_saldos s WHERE s.produto_id = p.id), 0),
               p.estoque_minimo, p.ativo, p.imagem_url, p.image_1_url, p.image_2_url, p.image_3_url,
               p.imagem_capa_index, p.created_at, p.updated_at
        FROM estoque_produtos p
        LEFT JOIN estoque_categorias c ON c.id = p.categoria_id`

func scanProduto(row interface{ Scan(...interface{}) error }) (domain.Produto, error) {
	var p domain.Produto
	var sku, categoriaID, img, img1, img2, img3 sql.NullString
	err := row.Scan(
		&p.ID, &p.Nome, &sku, &categoriaID, &p.CategoriaNome,
		&p.QuantidadeDisponivel,
		&p.EstoqueMinimo, &p.Ativo, &img, &img1, &img2, &img3,
		&p.ImagemCapaIndex, &p.CreatedAt, &p.UpdatedAt,
	)
	p.SKU = nullString(sku)
	p.CategoriaID = nullString(categoriaID)
	p.ImagemURL = nullString(img)
	p.Image1URL = nullString(img1)
	p.Image2URL = nullString(img2)
	p.Image3URL = nullString(img3)
	return p, err
}

// Create persiste um novo produto. O saldo inicial é lançado pelo serviço no livro de estoque.
func (r *Repository) Create(ctx context.Context, p domain.Produto) (domain.Produto, error) {
	r.logger.Debug("Iniciando Create de produto no repositório.", map[string]interface{}{"nome": p.Nome})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	p.ID = uuid.New().String()
	now := time.Now().UTC()

	query := `
        INSERT INTO estoque_produtos (id, nome, sku, categoria_id, estoque_minimo, ativo,
                                      imagem_url, image_1_url, image_2_url, image_3_url, imagem_capa_index,
                                      created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)`

	_, err := r.DB.ExecContext(ctxTimeout, query,
		p.ID, p.Nome, p.SKU, p.CategoriaID, p.EstoqueMinimo, p.Ativo,
		p.ImagemURL, p.Image1URL, p.Image2URL, p.Image3URL, p.ImagemCapaIndex,
		now,
	)
	if err != nil {
		return domain.Produto{}, r.traduzir("Falha ao inserir produto", err)
	}

	r.logger.Info("Produto salvo com sucesso no repositório.", map[string]interface{}{"produto_id": p.ID, "nome": p.Nome})
	return r.buscar(ctxTimeout, p.ID)
}

// GetByID busca um produto pelo ID, utilizando a estratégia Cache-Aside.
// O cache guarda o cadastro; a quantidade disponível é sempre lida dos saldos.
func (r *Repository) GetByID(ctx context.Context, id string) (domain.Produto, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	key := fmt.Sprintf(produtoCacheKey, id)

	var cached domain.Produto
	if err := cache.GetJSON(ctxTimeout, r.Cache, key, &cached); err == nil {
		qtd, qErr := r.quantidade(ctxTimeout, id)
		if qErr != nil {
			return domain.Produto{}, qErr
		}
		cached.QuantidadeDisponivel = qtd
		return cached, nil
	} else if err != cache.ErrCacheMiss {
		r.logger.Warn("Falha ao ler produto do cache Redis.", map[string]interface{}{"produto_id": id, "error": err.Error()})
	}

	p, err := r.buscar(ctxTimeout, id)
	if err != nil {
		return domain.Produto{}, err
	}

	if err := cache.SetJSON(ctxTimeout, r.Cache, key, p, r.CacheTTL); err != nil {
		r.logger.Warn("Falha ao gravar produto no cache.", map[string]interface{}{"produto_id": id, "error": err.Error()})
	}
	return p, nil
}

// List busca produtos ordenados por nome.
func (r *Repository) List(ctx context.Context, f domain.ProdutoFiltro) ([]domain.Produto, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var w database.Filter
	if f.Search != "" {
		s := w.Arg("%" + f.Search + "%")
		w.Add("(p.nome ILIKE " + s + " OR p.sku ILIKE " + s + ")")
	}
	if f.CategoriaID != "" {
		w.Add("p.categoria_id = " + w.Arg(f.CategoriaID))
	}
	if f.Ativo != nil {
		w.Add("p.ativo = " + w.Arg(*f.Ativo))
	}
	if f.ComEstoqueLocalID != "" {
		w.Add(`EXISTS (SELECT 1 FROM estoque_saldos s2
                WHERE s2.produto_id = p.id AND s2.estoque_local_id = ` + w.Arg(f.ComEstoqueLocalID) + ` AND s2.quantidade > 0)`)
	}

	rows, err := r.DB.QueryContext(ctxTimeout, produtoSelect+w.Where()+` ORDER BY p.nome`, w.Args()...)
	if err != nil {
		r.logger.Error("Falha ao listar produtos.", err)
		return nil, errors.NewDBError("Falha ao listar produtos", err)
	}
	defer rows.Close()

	produtos := []domain.Produto{}
	for rows.Next() {
		p, err := scanProduto(rows)
		if err != nil {
			r.logger.Error("Falha ao mapear produto.", err)
			return nil, errors.NewDBError("Falha ao mapear produtos do DB", err)
		}
		produtos = append(produtos, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Erro após iteração de produtos", err)
	}
	return produtos, nil
}

// Update grava o cadastro completo do produto e invalida o cache.
func (r *Repository) Update(ctx context.Context, p domain.Produto) (domain.Produto, error) {
	r.logger.Debug("Iniciando Update de produto no repositório.", map[string]interface{}{"produto_id": p.ID})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        UPDATE estoque_produtos
        SET nome = $1, sku = $2, categoria_id = $3, estoque_minimo = $4, ativo = $5,
            imagem_url = $6, image_1_url = $7, image_2_url = $8, image_3_url = $9, imagem_capa_index = $10,
            updated_at = $11
        WHERE id = $12`

	result, err := r.DB.ExecContext(ctxTimeout, query,
		p.Nome, p.SKU, p.CategoriaID, p.EstoqueMinimo, p.Ativo,
		p.ImagemURL, p.Image1URL, p.Image2URL, p.Image3URL, p.ImagemCapaIndex,
		time.Now().UTC(), p.ID,
	)
	if err != nil {
		return domain.Produto{}, r.traduzir("Falha ao atualizar produto", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.Produto{}, errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe na base de dados.", p.ID))
	}

	r.invalidar(ctxTimeout, p.ID)
	r.logger.Info("Produto atualizado com sucesso.", map[string]interface{}{"produto_id": p.ID})
	return r.buscar(ctxTimeout, p.ID)
}

// Desativar faz a exclusão lógica (ativo = false).
func (r *Repository) Desativar(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout,
		`UPDATE estoque_produtos SET ativo = FALSE, updated_at = $1 WHERE id = $2`, time.Now().UTC(), id)
	if err != nil {
		r.logger.Error("Falha ao desativar produto.", err)
		return errors.NewDBError("Falha ao desativar produto", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe na base de dados.", id))
	}

	r.invalidar(ctxTimeout, id)
	r.logger.Info("Produto desativado.", map[string]interface{}{"produto_id": id})
	return nil
}

func (r *Repository) buscar(ctx context.Context, id string) (domain.Produto, error) {
	p, err := scanProduto(r.DB.QueryRowContext(ctx, produtoSelect+` WHERE p.id = $1`, id))
	if err == sql.ErrNoRows {
		return domain.Produto{}, errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe na base de dados.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar produto no DB.", err)
		return domain.Produto{}, errors.NewDBError("Falha ao buscar produto no DB", err)
	}
	return p, nil
}

func (r *Repository) quantidade(ctx context.Context, id string) (int, error) {
	var total int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(quantidade), 0) FROM estoque_saldos WHERE produto_id = $1`, id).Scan(&total)
	if err != nil {
		r.logger.Error("Falha ao somar saldos do produto.", err)
		return 0, errors.NewDBError("Falha ao somar saldos do produto", err)
	}
	return total, nil
}

func (r *Repository) invalidar(ctx context.Context, id string) {
	if err := r.Cache.Delete(ctx, fmt.Sprintf(produtoCacheKey, id)); err != nil {
		r.logger.Warn("Falha ao invalidar cache do produto.", map[string]interface{}{"produto_id": id, "error": err.Error()})
	}
}

func (r *Repository) traduzir(msg string, err error) error {
	switch {
	case database.IsUniqueViolation(err):
		return errors.NewConflictError("Já existe um produto com este SKU.")
	case database.IsForeignKeyViolation(err):
		return errors.NewNotFoundError("Categoria informada não existe.")
	}
	r.logger.Error(msg+".", err)
	return errors.NewDBError(msg, err)
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
