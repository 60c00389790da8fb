package estoquerepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"estoquemkt/internal/domain"
	"estoquemkt/internal/errors"
	"estoquemkt/internal/pkg/cache"
	"estoquemkt/internal/pkg/database"
	"estoquemkt/internal/pkg/logger"
)

// Chave de cache do estoque central (consultado a cada mudança de status com efeito em estoque).
const centralCacheKey = "estoque:local:central"

// Repository guarda locais, saldos e o livro de movimentos.
type Repository struct {
	DB        *sql.DB
	Cache     cache.Client
	DBTimeout time.Duration
	CacheTTL  time.Duration
	logger    logger.Logger
}

// NewRepository cria e retorna uma nova instância do Repositório de Estoque.
func NewRepository(db *sql.DB, cacheClient cache.Client, dbTimeout, cacheTTL time.Duration, logger logger.Logger) *Repository {
	return &Repository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		CacheTTL:  cacheTTL,
		logger:    logger,
	}
}

const localColumns = `l.id, l.nome, l.tipo, l.loja_id, COALESCE(lj.nome, ''), l.created_at`

func scanLocal(row interface{ Scan(...interface{}) error }) (domain.EstoqueLocal, error) {
	var l domain.EstoqueLocal
	var lojaID sql.NullString
	err := row.Scan(&l.ID, &l.Nome, &l.Tipo, &lojaID, &l.LojaNome, &l.CreatedAt)
	if lojaID.Valid {
		l.LojaID = &lojaID.String
	}
	return l, err
}

// FindCentral busca o estoque central (Cache-Aside).
func (r *Repository) FindCentral(ctx context.Context) (domain.EstoqueLocal, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var cached domain.EstoqueLocal
	if err := cache.GetJSON(ctxTimeout, r.Cache, centralCacheKey, &cached); err == nil {
		return cached, nil
	} else if err != cache.ErrCacheMiss {
		r.logger.Warn("Falha ao ler estoque central do cache.", map[string]interface{}{"error": err.Error()})
	}

	query := `SELECT ` + localColumns + `
        FROM estoque_locais l
        LEFT JOIN lojas lj ON lj.id = l.loja_id
        WHERE l.tipo = 'central'
        LIMIT 1`

	local, err := scanLocal(r.DB.QueryRowContext(ctxTimeout, query))
	if err == sql.ErrNoRows {
		return domain.EstoqueLocal{}, errors.NewNotFoundError("Estoque central não cadastrado.")
	}
	if err != nil {
		r.logger.Error("Falha ao buscar estoque central no DB.", err)
		return domain.EstoqueLocal{}, errors.NewDBError("Falha ao buscar estoque central", err)
	}

	if err := cache.SetJSON(ctxTimeout, r.Cache, centralCacheKey, local, r.CacheTTL); err != nil {
		r.logger.Warn("Falha ao gravar estoque central no cache.", map[string]interface{}{"error": err.Error()})
	}
	return local, nil
}

// FindByLoja busca o local de estoque da loja.
func (r *Repository) FindByLoja(ctx context.Context, lojaID string) (domain.EstoqueLocal, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + localColumns + `
        FROM estoque_locais l
        LEFT JOIN lojas lj ON lj.id = l.loja_id
        WHERE l.tipo = 'loja' AND l.loja_id = $1`

	local, err := scanLocal(r.DB.QueryRowContext(ctxTimeout, query, lojaID))
	if err == sql.ErrNoRows {
		return domain.EstoqueLocal{}, errors.NewNotFoundError(fmt.Sprintf("Estoque da loja %s não cadastrado.", lojaID))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar estoque da loja no DB.", err)
		return domain.EstoqueLocal{}, errors.NewDBError("Falha ao buscar estoque da loja", err)
	}
	return local, nil
}

// GetLocal busca um local pelo ID.
func (r *Repository) GetLocal(ctx context.Context, id string) (domain.EstoqueLocal, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + localColumns + `
        FROM estoque_locais l
        LEFT JOIN lojas lj ON lj.id = l.loja_id
        WHERE l.id = $1`

	local, err := scanLocal(r.DB.QueryRowContext(ctxTimeout, query, id))
	if err == sql.ErrNoRows {
		return domain.EstoqueLocal{}, errors.NewNotFoundError(fmt.Sprintf("Local de estoque %s não existe.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar local de estoque no DB.", err)
		return domain.EstoqueLocal{}, errors.NewDBError("Falha ao buscar local de estoque", err)
	}
	return local, nil
}

// ListLocais lista os locais visíveis. Restrito mostra o central e os locais das lojas informadas.
func (r *Repository) ListLocais(ctx context.Context, f domain.LocalFiltro) ([]domain.EstoqueLocal, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var w database.Filter
	if f.Restrito {
		w.Add("(l.tipo = 'central' OR l.loja_id = ANY(" + w.Arg(pq.Array(f.LojaIDs)) + "))")
	}

	query := `SELECT ` + localColumns + `
        FROM estoque_locais l
        LEFT JOIN lojas lj ON lj.id = l.loja_id` + w.Where() + `
        ORDER BY l.tipo, l.nome`

	rows, err := r.DB.QueryContext(ctxTimeout, query, w.Args()...)
	if err != nil {
		r.logger.Error("Falha ao listar locais de estoque.", err)
		return nil, errors.NewDBError("Falha ao listar locais de estoque", err)
	}
	defer rows.Close()

	locais := []domain.EstoqueLocal{}
	for rows.Next() {
		l, err := scanLocal(rows)
		if err != nil {
			return nil, errors.NewDBError("Falha ao ler local de estoque", err)
		}
		locais = append(locais, l)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar locais de estoque", err)
	}
	return locais, nil
}

// ListSaldos lista os saldos com nome do produto, categoria e local.
func (r *Repository) ListSaldos(ctx context.Context, f domain.SaldoFiltro) ([]domain.Saldo, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var w database.Filter
	if f.EstoqueLocalID != "" {
		w.Add("s.estoque_local_id = " + w.Arg(f.EstoqueLocalID))
	}
	if f.Categoria != "" {
		w.Add("lower(c.nome) = lower(" + w.Arg(f.Categoria) + ")")
	}
	if f.Search != "" {
		p := w.Arg("%" + f.Search + "%")
		w.Add("(p.nome ILIKE " + p + " OR p.sku ILIKE " + p + ")")
	}
	if f.Restrito {
		w.Add("(l.tipo = 'central' OR l.loja_id = ANY(" + w.Arg(pq.Array(f.LojaIDs)) + "))")
	}

	query := `
        SELECT s.id, s.produto_id, s.estoque_local_id, s.quantidade, s.version, s.updated_at,
               p.nome, p.sku, COALESCE(c.nome, ''), l.nome
        FROM estoque_saldos s
        JOIN estoque_produtos p ON p.id = s.produto_id
        LEFT JOIN estoque_categorias c ON c.id = p.categoria_id
        JOIN estoque_locais l ON l.id = s.estoque_local_id` + w.Where() + `
        ORDER BY p.nome, l.nome`

	rows, err := r.DB.QueryContext(ctxTimeout, query, w.Args()...)
	if err != nil {
		r.logger.Error("Falha ao listar saldos.", err)
		return nil, errors.NewDBError("Falha ao listar saldos", err)
	}
	defer rows.Close()

	saldos := []domain.Saldo{}
	for rows.Next() {
		var s domain.Saldo
		var sku sql.NullString
		if err := rows.Scan(&s.ID, &s.ProdutoID, &s.EstoqueLocalID, &s.Quantidade, &s.Version, &s.UpdatedAt,
			&s.ProdutoNome, &sku, &s.CategoriaNome, &s.LocalNome); err != nil {
			return nil, errors.NewDBError("Falha ao ler saldo", err)
		}
		if sku.Valid {
			s.ProdutoSKU = &sku.String
		}
		saldos = append(saldos, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar saldos", err)
	}
	return saldos, nil
}

// ListMovimentos lista o livro do mais recente para o mais antigo.
// EstoqueLocalID casa com origem ou destino. No escopo restrito basta um dos dois locais ser visível.
func (r *Repository) ListMovimentos(ctx context.Context, f domain.MovimentoFiltro) ([]domain.Movimento, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var w database.Filter
	if f.ProdutoID != "" {
		w.Add("m.produto_id = " + w.Arg(f.ProdutoID))
	}
	if f.EstoqueLocalID != "" {
		p := w.Arg(f.EstoqueLocalID)
		w.Add("(m.estoque_local_origem_id = " + p + " OR m.estoque_local_destino_id = " + p + ")")
	}
	if f.ReferenciaID != "" {
		w.Add("m.referencia_id = " + w.Arg(f.ReferenciaID))
	}
	if f.Restrito {
		p := w.Arg(pq.Array(f.LojaIDs))
		w.Add("((lo.id IS NOT NULL AND (lo.tipo = 'central' OR lo.loja_id = ANY(" + p + "))) OR " +
			"(ld.id IS NOT NULL AND (ld.tipo = 'central' OR ld.loja_id = ANY(" + p + "))))")
	}

	query := `
        SELECT m.id, m.produto_id, m.tipo, m.quantidade, m.estoque_local_origem_id, m.estoque_local_destino_id,
               m.referencia_tipo, m.referencia_id, COALESCE(m.observacao, ''), m.created_by, m.created_at
        FROM estoque_movimentos m
        LEFT JOIN estoque_locais lo ON lo.id = m.estoque_local_origem_id
        LEFT JOIN estoque_locais ld ON ld.id = m.estoque_local_destino_id` + w.Where() + `
        ORDER BY m.created_at DESC
        LIMIT ` + w.Arg(f.Limit)

	rows, err := r.DB.QueryContext(ctxTimeout, query, w.Args()...)
	if err != nil {
		r.logger.Error("Falha ao listar movimentos.", err)
		return nil, errors.NewDBError("Falha ao listar movimentos", err)
	}
	defer rows.Close()

	movimentos := []domain.Movimento{}
	for rows.Next() {
		var m domain.Movimento
		var origem, destino, refTipo, refID, createdBy sql.NullString
		if err := rows.Scan(&m.ID, &m.ProdutoID, &m.Tipo, &m.Quantidade, &origem, &destino,
			&refTipo, &refID, &m.Observacao, &createdBy, &m.CreatedAt); err != nil {
			return nil, errors.NewDBError("Falha ao ler movimento", err)
		}
		m.OrigemID = nullString(origem)
		m.DestinoID = nullString(destino)
		m.ReferenciaTipo = nullString(refTipo)
		m.ReferenciaID = nullString(refID)
		m.CreatedBy = nullString(createdBy)
		movimentos = append(movimentos, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar movimentos", err)
	}
	return movimentos, nil
}

// PostMovimento grava o movimento e aplica o delta nos saldos em uma única transação.
// O saldo da origem é decrementado e o do destino incrementado; cada linha é travada
// com FOR UPDATE e atualizada condicionada à version lida (OCC).
func (r *Repository) PostMovimento(ctx context.Context, m domain.Movimento) (domain.Movimento, error) {
	m.OrigemID = emptyToNil(m.OrigemID)
	m.DestinoID = emptyToNil(m.DestinoID)
	if err := m.Validate(); err != nil {
		return domain.Movimento{}, err
	}

	r.logger.Debug("Lançando movimento de estoque.", map[string]interface{}{
		"produto_id": m.ProdutoID,
		"tipo":       m.Tipo,
		"quantidade": m.Quantidade,
	})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		r.logger.Error("Falha ao iniciar transação do movimento.", err)
		return domain.Movimento{}, errors.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	if m.OrigemID != nil {
		if err := r.aplicarDelta(ctxTimeout, tx, m.ProdutoID, *m.OrigemID, -m.Quantidade); err != nil {
			return domain.Movimento{}, err
		}
	}
	if m.DestinoID != nil {
		if err := r.aplicarDelta(ctxTimeout, tx, m.ProdutoID, *m.DestinoID, m.Quantidade); err != nil {
			return domain.Movimento{}, err
		}
	}

	saved, err := r.inserirMovimento(ctxTimeout, tx, m)
	if err != nil {
		return domain.Movimento{}, err
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("Falha ao commitar transação do movimento.", err)
		return domain.Movimento{}, errors.NewDBError("Falha ao commitar transação", err)
	}

	r.logger.Info("Movimento de estoque lançado.", map[string]interface{}{
		"movimento_id": saved.ID,
		"produto_id":   saved.ProdutoID,
		"tipo":         saved.Tipo,
		"quantidade":   saved.Quantidade,
	})
	return saved, nil
}

// Ajustar define o novo saldo de um produto em um local. O saldo atual é lido sob lock
// e o delta vira um movimento de ajuste (destino se positivo, origem se negativo).
func (r *Repository) Ajustar(ctx context.Context, produtoID, localID string, nova int, motivo string, actor *string) (domain.Movimento, error) {
	if nova < 0 {
		return domain.Movimento{}, errors.NewValidationError("A quantidade nova não pode ser negativa.")
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		r.logger.Error("Falha ao iniciar transação do ajuste.", err)
		return domain.Movimento{}, errors.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	saldo, err := r.travarSaldo(ctxTimeout, tx, produtoID, localID)
	if err != nil {
		return domain.Movimento{}, err
	}

	delta := nova - saldo.quantidade
	if delta == 0 {
		return domain.Movimento{}, errors.NewValidationError("Nenhuma alteração necessária.")
	}

	m := domain.Movimento{
		ProdutoID:  produtoID,
		Tipo:       domain.MovimentoAjuste,
		Quantidade: abs(delta),
		Observacao: domain.ObservacaoAjuste(motivo, saldo.quantidade, nova),
		CreatedBy:  actor,
	}
	local := localID
	if delta > 0 {
		m.DestinoID = &local
	} else {
		m.OrigemID = &local
	}

	if err := r.gravarSaldo(ctxTimeout, tx, saldo, produtoID, localID, nova); err != nil {
		return domain.Movimento{}, err
	}

	saved, err := r.inserirMovimento(ctxTimeout, tx, m)
	if err != nil {
		return domain.Movimento{}, err
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("Falha ao commitar transação do ajuste.", err)
		return domain.Movimento{}, errors.NewDBError("Falha ao commitar transação", err)
	}

	r.logger.Info("Ajuste de estoque lançado.", map[string]interface{}{
		"movimento_id": saved.ID,
		"produto_id":   produtoID,
		"local_id":     localID,
		"anterior":     saldo.quantidade,
		"nova":         nova,
	})
	return saved, nil
}

type saldoTravado struct {
	id         string
	quantidade int
	version    int
	existe     bool
}

// travarSaldo lê o saldo com FOR UPDATE. Sem linha, o saldo é zero e será criado na gravação.
func (r *Repository) travarSaldo(ctx context.Context, tx *sql.Tx, produtoID, localID string) (saldoTravado, error) {
	var s saldoTravado
	err := tx.QueryRowContext(ctx,
		`SELECT id, quantidade, version FROM estoque_saldos WHERE produto_id = $1 AND estoque_local_id = $2 FOR UPDATE`,
		produtoID, localID,
	).Scan(&s.id, &s.quantidade, &s.version)
	if err == sql.ErrNoRows {
		return saldoTravado{}, nil
	}
	if err != nil {
		r.logger.Error("Falha ao travar saldo para atualização.", err)
		return saldoTravado{}, errors.NewDBError("Falha ao buscar saldo para atualização", err)
	}
	s.existe = true
	return s, nil
}

// gravarSaldo cria a linha de saldo ou atualiza com checagem de version.
func (r *Repository) gravarSaldo(ctx context.Context, tx *sql.Tx, s saldoTravado, produtoID, localID string, nova int) error {
	if !s.existe {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO estoque_saldos (id, produto_id, estoque_local_id, quantidade, version, updated_at)
             VALUES ($1, $2, $3, $4, 1, $5)`,
			uuid.New().String(), produtoID, localID, nova, time.Now(),
		)
		if err != nil {
			return r.traduzir("Falha ao criar saldo", err)
		}
		return nil
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE estoque_saldos SET quantidade = $1, version = version + 1, updated_at = $2
         WHERE id = $3 AND version = $4`,
		nova, time.Now(), s.id, s.version,
	)
	if err != nil {
		return r.traduzir("Falha ao atualizar saldo", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		r.logger.Warn("Falha no controle de concorrência otimista (OCC) do saldo.", map[string]interface{}{
			"produto_id":       produtoID,
			"local_id":         localID,
			"expected_version": s.version,
		})
		return errors.NewConflictError("O saldo foi modificado por outra operação. Tente novamente.")
	}
	return nil
}

// aplicarDelta trava o saldo, garante que não fique negativo e grava o novo valor.
func (r *Repository) aplicarDelta(ctx context.Context, tx *sql.Tx, produtoID, localID string, delta int) error {
	saldo, err := r.travarSaldo(ctx, tx, produtoID, localID)
	if err != nil {
		return err
	}

	nova := saldo.quantidade + delta
	if nova < 0 {
		r.logger.Warn("Estoque insuficiente para o movimento.", map[string]interface{}{
			"produto_id": produtoID,
			"local_id":   localID,
			"disponivel": saldo.quantidade,
			"solicitado": -delta,
		})
		return errors.NewInsufficientStockError(produtoID, localID, saldo.quantidade, -delta)
	}

	return r.gravarSaldo(ctx, tx, saldo, produtoID, localID, nova)
}

func (r *Repository) inserirMovimento(ctx context.Context, tx *sql.Tx, m domain.Movimento) (domain.Movimento, error) {
	m.ID = uuid.New().String()

	query := `
        INSERT INTO estoque_movimentos (id, produto_id, tipo, quantidade, estoque_local_origem_id, estoque_local_destino_id,
                                        referencia_tipo, referencia_id, observacao, created_by)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING created_at`

	err := tx.QueryRowContext(ctx, query,
		m.ID, m.ProdutoID, string(m.Tipo), m.Quantidade, m.OrigemID, m.DestinoID,
		m.ReferenciaTipo, m.ReferenciaID, m.Observacao, m.CreatedBy,
	).Scan(&m.CreatedAt)
	if err != nil {
		return domain.Movimento{}, r.traduzir("Falha ao inserir movimento", err)
	}
	return m, nil
}

// traduzir converte erros do driver: FK vira NotFound, unicidade vira Conflict.
func (r *Repository) traduzir(msg string, err error) error {
	switch {
	case database.IsForeignKeyViolation(err):
		return errors.NewNotFoundError("Produto ou local de estoque não encontrado.")
	case database.IsUniqueViolation(err):
		return errors.NewConflictError("O saldo foi criado por outra operação. Tente novamente.")
	case database.IsCheckViolation(err):
		return errors.NewValidationError("Operação violaria uma restrição de estoque.")
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

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
