package usuariorepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"estoquemkt/internal/domain"
	apperror "estoquemkt/internal/errors"
	"estoquemkt/internal/pkg/logger"
)

// Repository lê o perfil de acesso (users_regras) e as lojas vinculadas.
// Os usuários em si vivem no provedor de identidade; aqui só há o vínculo pelo user_ref.
type Repository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewRepository cria uma nova instância do Repository, injetando o DB.
func NewRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *Repository {
	return &Repository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// FindByUserRef carrega o perfil do usuário (sub do token) com as lojas vinculadas.
func (r *Repository) FindByUserRef(ctx context.Context, userRef string) (domain.Caller, error) {
	r.logger.Debug("Buscando perfil do usuário no repositório.", map[string]interface{}{"user_ref": userRef})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        SELECT id, user_ref, COALESCE(nome, ''), COALESCE(email, ''), nivel
        FROM users_regras
        WHERE user_ref = $1`

	var c domain.Caller
	err := r.DB.QueryRowContext(ctxTimeout, query, userRef).Scan(&c.RegraID, &c.UserID, &c.Nome, &c.Email, &c.Nivel)
	if err == sql.ErrNoRows {
		r.logger.Info("Perfil de usuário não encontrado.", map[string]interface{}{"user_ref": userRef})
		return domain.Caller{}, apperror.NewNotFoundError(fmt.Sprintf("Perfil do usuário %s não existe.", userRef))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar perfil do usuário no DB.", err)
		return domain.Caller{}, apperror.NewDBError("Falha ao buscar perfil do usuário", err)
	}

	rows, err := r.DB.QueryContext(ctxTimeout,
		`SELECT loja_id FROM users_regras_lojas WHERE user_regra_id = $1 ORDER BY loja_id`, c.RegraID)
	if err != nil {
		r.logger.Error("Falha ao buscar lojas vinculadas.", err)
		return domain.Caller{}, apperror.NewDBError("Falha ao buscar lojas vinculadas", err)
	}
	defer rows.Close()

	c.LojasVinculadas = []string{}
	for rows.Next() {
		var lojaID string
		if err := rows.Scan(&lojaID); err != nil {
			return domain.Caller{}, apperror.NewDBError("Falha ao ler loja vinculada", err)
		}
		c.LojasVinculadas = append(c.LojasVinculadas, lojaID)
	}
	if err := rows.Err(); err != nil {
		return domain.Caller{}, apperror.NewDBError("Falha ao iterar lojas vinculadas", err)
	}

	return c, nil
}
