package lojarepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"estoquemkt/internal/domain"
	"estoquemkt/internal/errors"
	"estoquemkt/internal/pkg/database"
	"estoquemkt/internal/pkg/logger"
)

// Repository consulta a tabela lojas. O cadastro de lojas é administrativo e fica fora da API.
type Repository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewRepository cria e retorna uma nova instância do Repositório de Lojas.
func NewRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *Repository {
	return &Repository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// GetByID busca uma loja pelo ID.
func (r *Repository) GetByID(ctx context.Context, id string) (domain.Loja, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        SELECT id, nome, COALESCE(cidade, ''), COALESCE(estado, ''), ativo, created_at
        FROM lojas
        WHERE id = $1`

	var l domain.Loja
	err := r.DB.QueryRowContext(ctxTimeout, query, id).Scan(&l.ID, &l.Nome, &l.Cidade, &l.Estado, &l.Ativo, &l.CreatedAt)
	if err == sql.ErrNoRows {
		return domain.Loja{}, errors.NewNotFoundError(fmt.Sprintf("Loja %s não existe.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar loja no DB.", err)
		return domain.Loja{}, errors.NewDBError("Falha ao buscar loja", err)
	}
	return l, nil
}

// List lista lojas ordenadas por nome. Com restrito=true só as lojas de ids aparecem.
func (r *Repository) List(ctx context.Context, ids []string, restrito bool) ([]domain.Loja, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var w database.Filter
	if restrito {
		w.Add("id = ANY(" + w.Arg(pq.Array(ids)) + ")")
	}

	query := `
        SELECT id, nome, COALESCE(cidade, ''), COALESCE(estado, ''), ativo, created_at
        FROM lojas` + w.Where() + `
        ORDER BY nome`

	rows, err := r.DB.QueryContext(ctxTimeout, query, w.Args()...)
	if err != nil {
		r.logger.Error("Falha ao listar lojas.", err)
		return nil, errors.NewDBError("Falha ao listar lojas", err)
	}
	defer rows.Close()

	lojas := []domain.Loja{}
	for rows.Next() {
		var l domain.Loja
		if err := rows.Scan(&l.ID, &l.Nome, &l.Cidade, &l.Estado, &l.Ativo, &l.CreatedAt); err != nil {
			return nil, errors.NewDBError("Falha ao ler loja", err)
		}
		lojas = append(lojas, l)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar lojas", err)
	}
	return lojas, nil
}
