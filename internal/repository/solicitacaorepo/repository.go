package solicitacaorepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"estoquemkt/internal/domain"
	"estoquemkt/internal/errors"
	"estoquemkt/internal/pkg/database"
	"estoquemkt/internal/pkg/logger"
)

// MotivoAprovacaoOC é gravado no log da transição aguardando_oc -> em_producao feita por AprovarOC.
const MotivoAprovacaoOC = "OC aprovada"

// Repository persiste solicitações, itens, comprovantes e lê a trilha de status.
// A trilha é gravada por trigger; o autor vem de app.user_id, definido na mesma transação.
type Repository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewRepository cria e retorna uma nova instância do Repositório de Solicitações.
func NewRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *Repository {
	return &Repository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

const solicitacaoSelect = `
        SELECT s.id, s.loja_id, COALESCE(l.nome, ''), s.supervisor_id, s.criado_por, s.objetivo, s.observacoes,
               COALESCE(s.prioridade, ''), s.referencias, s.status, s.ativo, s.created_at, s.updated_at
        FROM estoque_solicitacoes s
        JOIN lojas l ON l.id = s.loja_id`

func scanSolicitacao(row interface{ Scan(...interface{}) error }) (domain.Solicitacao, error) {
	var s domain.Solicitacao
	var supervisor, criadoPor sql.NullString
	var refs []byte
	err := row.Scan(&s.ID, &s.LojaID, &s.LojaNome, &supervisor, &criadoPor, &s.Objetivo, &s.Observacoes,
		&s.Prioridade, &refs, &s.Status, &s.Ativo, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return domain.Solicitacao{}, err
	}
	s.SupervisorID = nullString(supervisor)
	s.CriadoPor = nullString(criadoPor)
	s.Referencias = []string{}
	if len(refs) > 0 {
		if err := json.Unmarshal(refs, &s.Referencias); err != nil {
			return domain.Solicitacao{}, err
		}
	}
	return s, nil
}

// List busca solicitações da mais recente para a mais antiga.
func (r *Repository) List(ctx context.Context, f domain.SolicitacaoFiltro) ([]domain.Solicitacao, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var w database.Filter
	if f.Status != "" {
		w.Add("s.status = " + w.Arg(string(f.Status)))
	}
	if f.LojaID != "" {
		w.Add("s.loja_id = " + w.Arg(f.LojaID))
	}
	if f.Search != "" {
		p := w.Arg("%" + f.Search + "%")
		w.Add("(s.objetivo ILIKE " + p + " OR l.nome ILIKE " + p + ")")
	}
	if f.PeriodoInicio != nil {
		w.Add("s.created_at >= " + w.Arg(*f.PeriodoInicio))
	}
	if f.PeriodoFim != nil {
		w.Add("s.created_at <= " + w.Arg(*f.PeriodoFim))
	}
	if f.Ativo != nil {
		w.Add("s.ativo = " + w.Arg(*f.Ativo))
	}
	if f.Restrito {
		w.Add("s.loja_id = ANY(" + w.Arg(pq.Array(f.LojaIDs)) + ")")
	}

	rows, err := r.DB.QueryContext(ctxTimeout, solicitacaoSelect+w.Where()+` ORDER BY s.created_at DESC`, w.Args()...)
	if err != nil {
		r.logger.Error("Falha ao listar solicitações.", err)
		return nil, errors.NewDBError("Falha ao listar solicitações", err)
	}
	defer rows.Close()

	lista := []domain.Solicitacao{}
	for rows.Next() {
		s, err := scanSolicitacao(rows)
		if err != nil {
			r.logger.Error("Falha ao mapear solicitação.", err)
			return nil, errors.NewDBError("Falha ao mapear solicitações do DB", err)
		}
		lista = append(lista, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Erro após iteração de solicitações", err)
	}
	return lista, nil
}

// GetByID busca o cabeçalho da solicitação com o nome da loja.
func (r *Repository) GetByID(ctx context.Context, id string) (domain.Solicitacao, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	s, err := scanSolicitacao(r.DB.QueryRowContext(ctxTimeout, solicitacaoSelect+` WHERE s.id = $1`, id))
	if err == sql.ErrNoRows {
		return domain.Solicitacao{}, errors.NewNotFoundError(fmt.Sprintf("Solicitação %s não encontrada.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar solicitação no DB.", err)
		return domain.Solicitacao{}, errors.NewDBError("Falha ao buscar solicitação", err)
	}
	return s, nil
}

// Create grava a solicitação e os itens em uma transação. O trigger registra o log inicial.
func (r *Repository) Create(ctx context.Context, s domain.Solicitacao, itens []domain.Item, actor string) (domain.Solicitacao, error) {
	r.logger.Debug("Iniciando Create de solicitação no repositório.", map[string]interface{}{"loja_id": s.LojaID, "itens": len(itens)})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		r.logger.Error("Falha ao iniciar transação da solicitação.", err)
		return domain.Solicitacao{}, errors.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	if err := definirAutor(ctxTimeout, tx, actor); err != nil {
		return domain.Solicitacao{}, errors.NewDBError("Falha ao definir autor da transação", err)
	}

	refs, err := json.Marshal(referencias(s.Referencias))
	if err != nil {
		return domain.Solicitacao{}, errors.NewInternalError("Falha ao serializar referências", err)
	}

	s.ID = uuid.New().String()
	now := time.Now().UTC()

	_, err = tx.ExecContext(ctxTimeout, `
        INSERT INTO estoque_solicitacoes (id, loja_id, supervisor_id, criado_por, objetivo, observacoes, prioridade,
                                          referencias, status, ativo, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9, TRUE, $10, $10)`,
		s.ID, s.LojaID, s.SupervisorID, s.CriadoPor, s.Objetivo, s.Observacoes, s.Prioridade,
		string(refs), string(domain.StatusSolicitacao), now,
	)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return domain.Solicitacao{}, errors.NewNotFoundError("Loja informada não existe.")
		}
		r.logger.Error("Falha ao inserir solicitação.", err)
		return domain.Solicitacao{}, errors.NewDBError("Falha ao inserir solicitação", err)
	}

	for _, it := range itens {
		it.SolicitacaoID = s.ID
		if _, err := inserirItem(ctxTimeout, tx, it); err != nil {
			return domain.Solicitacao{}, r.traduzirItem(err)
		}
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("Falha ao commitar transação da solicitação.", err)
		return domain.Solicitacao{}, errors.NewDBError("Falha ao commitar transação", err)
	}

	r.logger.Info("Solicitação criada.", map[string]interface{}{"solicitacao_id": s.ID, "loja_id": s.LojaID})
	return r.GetByID(ctx, s.ID)
}

// Update grava os campos editáveis e o flag ativo.
func (r *Repository) Update(ctx context.Context, s domain.Solicitacao) (domain.Solicitacao, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	refs, err := json.Marshal(referencias(s.Referencias))
	if err != nil {
		return domain.Solicitacao{}, errors.NewInternalError("Falha ao serializar referências", err)
	}

	result, err := r.DB.ExecContext(ctxTimeout, `
        UPDATE estoque_solicitacoes
        SET objetivo = $1, observacoes = $2, prioridade = NULLIF($3, ''), referencias = $4, ativo = $5, updated_at = $6
        WHERE id = $7`,
		s.Objetivo, s.Observacoes, s.Prioridade, string(refs), s.Ativo, time.Now().UTC(), s.ID,
	)
	if err != nil {
		r.logger.Error("Falha ao atualizar solicitação.", err)
		return domain.Solicitacao{}, errors.NewDBError("Falha ao atualizar solicitação", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.Solicitacao{}, errors.NewNotFoundError(fmt.Sprintf("Solicitação %s não encontrada.", s.ID))
	}

	r.logger.Info("Solicitação atualizada.", map[string]interface{}{"solicitacao_id": s.ID})
	return r.GetByID(ctx, s.ID)
}

// UpdateStatus grava a transição de -> para condicionada ao status atual.
// Se outra operação mudou o status antes, devolve Conflict sem gravar nada.
// O motivo, quando informado, anota o log criado pelo trigger na mesma transação.
func (r *Repository) UpdateStatus(ctx context.Context, id string, de, para domain.Status, motivo, actor string) error {
	return r.transicionar(ctx, id, de, para, motivo, actor, false)
}

// AprovarOC aprova integralmente os itens (aprovada := solicitada) e move
// aguardando_oc -> em_producao na mesma transação.
func (r *Repository) AprovarOC(ctx context.Context, id, actor string) error {
	return r.transicionar(ctx, id, domain.StatusAguardandoOC, domain.StatusEmProducao, MotivoAprovacaoOC, actor, true)
}

func (r *Repository) transicionar(ctx context.Context, id string, de, para domain.Status, motivo, actor string, aprovarItens bool) error {
	r.logger.Debug("Iniciando mudança de status no repositório.", map[string]interface{}{
		"solicitacao_id": id,
		"de":             de,
		"para":           para,
	})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		r.logger.Error("Falha ao iniciar transação de status.", err)
		return errors.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	if err := definirAutor(ctxTimeout, tx, actor); err != nil {
		return errors.NewDBError("Falha ao definir autor da transação", err)
	}

	if aprovarItens {
		if _, err := tx.ExecContext(ctxTimeout,
			`UPDATE estoque_solicitacao_itens SET quantidade_aprovada = quantidade_solicitada WHERE solicitacao_id = $1`, id); err != nil {
			r.logger.Error("Falha ao aprovar itens da solicitação.", err)
			return errors.NewDBError("Falha ao aprovar itens", err)
		}
	}

	result, err := tx.ExecContext(ctxTimeout,
		`UPDATE estoque_solicitacoes SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		string(para), time.Now().UTC(), id, string(de),
	)
	if err != nil {
		r.logger.Error("Falha ao atualizar status da solicitação.", err)
		return errors.NewDBError("Falha ao atualizar status", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		r.logger.Warn("Status da solicitação mudou durante a transição.", map[string]interface{}{
			"solicitacao_id":  id,
			"status_esperado": de,
		})
		return errors.NewConflictError("O status da solicitação foi alterado por outra operação. Recarregue e tente novamente.")
	}

	if motivo != "" {
		_, err := tx.ExecContext(ctxTimeout, `
            UPDATE estoque_solicitacao_status_logs SET motivo = $1
            WHERE id = (
                SELECT id FROM estoque_solicitacao_status_logs
                WHERE solicitacao_id = $2 AND status_anterior = $3 AND status_novo = $4
                ORDER BY created_at DESC
                LIMIT 1
            )`,
			motivo, id, string(de), string(para),
		)
		if err != nil {
			r.logger.Error("Falha ao registrar motivo no log de status.", err)
			return errors.NewDBError("Falha ao registrar motivo", err)
		}
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("Falha ao commitar mudança de status.", err)
		return errors.NewDBError("Falha ao commitar transação", err)
	}

	r.logger.Info("Status da solicitação atualizado.", map[string]interface{}{
		"solicitacao_id": id,
		"de":             de,
		"para":           para,
	})
	return nil
}

const itemSelect = `
        SELECT i.id, i.solicitacao_id, i.produto_id, COALESCE(p.nome, ''), i.quantidade_solicitada,
               i.quantidade_aprovada, i.quantidade_enviada, COALESCE(i.observacao_item, ''), i.created_at
        FROM estoque_solicitacao_itens i
        LEFT JOIN estoque_produtos p ON p.id = i.produto_id`

func scanItem(row interface{ Scan(...interface{}) error }) (domain.Item, error) {
	var it domain.Item
	var aprovada, enviada sql.NullInt64
	err := row.Scan(&it.ID, &it.SolicitacaoID, &it.ProdutoID, &it.ProdutoNome, &it.QuantidadeSolicitada,
		&aprovada, &enviada, &it.ObservacaoItem, &it.CreatedAt)
	it.QuantidadeAprovada = nullInt(aprovada)
	it.QuantidadeEnviada = nullInt(enviada)
	return it, err
}

// ListItens lista os itens na ordem de criação.
func (r *Repository) ListItens(ctx context.Context, solicitacaoID string) ([]domain.Item, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout, itemSelect+` WHERE i.solicitacao_id = $1 ORDER BY i.created_at, i.id`, solicitacaoID)
	if err != nil {
		r.logger.Error("Falha ao listar itens da solicitação.", err)
		return nil, errors.NewDBError("Falha ao listar itens", err)
	}
	defer rows.Close()

	itens := []domain.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, errors.NewDBError("Falha ao mapear item", err)
		}
		itens = append(itens, it)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Erro após iteração de itens", err)
	}
	return itens, nil
}

// GetItem busca um item garantindo que pertence à solicitação.
func (r *Repository) GetItem(ctx context.Context, solicitacaoID, itemID string) (domain.Item, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	it, err := scanItem(r.DB.QueryRowContext(ctxTimeout, itemSelect+` WHERE i.id = $1 AND i.solicitacao_id = $2`, itemID, solicitacaoID))
	if err == sql.ErrNoRows {
		return domain.Item{}, errors.NewNotFoundError(fmt.Sprintf("Item %s não encontrado na solicitação.", itemID))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar item.", err)
		return domain.Item{}, errors.NewDBError("Falha ao buscar item", err)
	}
	return it, nil
}

// AddItem insere um item em uma solicitação existente.
func (r *Repository) AddItem(ctx context.Context, it domain.Item) (domain.Item, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	id, err := inserirItem(ctxTimeout, r.DB, it)
	if err != nil {
		return domain.Item{}, r.traduzirItem(err)
	}
	r.logger.Info("Item adicionado à solicitação.", map[string]interface{}{"solicitacao_id": it.SolicitacaoID, "item_id": id})
	return r.GetItem(ctx, it.SolicitacaoID, id)
}

// UpdateItem grava quantidades e observação do item.
func (r *Repository) UpdateItem(ctx context.Context, it domain.Item) (domain.Item, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `
        UPDATE estoque_solicitacao_itens
        SET quantidade_solicitada = $1, quantidade_aprovada = $2, quantidade_enviada = $3, observacao_item = $4
        WHERE id = $5 AND solicitacao_id = $6`,
		it.QuantidadeSolicitada, it.QuantidadeAprovada, it.QuantidadeEnviada, it.ObservacaoItem, it.ID, it.SolicitacaoID,
	)
	if err != nil {
		return domain.Item{}, r.traduzirItem(err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.Item{}, errors.NewNotFoundError(fmt.Sprintf("Item %s não encontrado na solicitação.", it.ID))
	}
	return r.GetItem(ctx, it.SolicitacaoID, it.ID)
}

// DeleteItem remove um item da solicitação.
func (r *Repository) DeleteItem(ctx context.Context, solicitacaoID, itemID string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout,
		`DELETE FROM estoque_solicitacao_itens WHERE id = $1 AND solicitacao_id = $2`, itemID, solicitacaoID)
	if err != nil {
		r.logger.Error("Falha ao remover item.", err)
		return errors.NewDBError("Falha ao remover item", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Item %s não encontrado na solicitação.", itemID))
	}
	r.logger.Info("Item removido da solicitação.", map[string]interface{}{"solicitacao_id": solicitacaoID, "item_id": itemID})
	return nil
}

// ListLogs devolve a trilha de status da mais recente para a mais antiga.
func (r *Repository) ListLogs(ctx context.Context, solicitacaoID string) ([]domain.StatusLog, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout, `
        SELECT id, solicitacao_id, status_anterior, status_novo, alterado_por, motivo, created_at
        FROM estoque_solicitacao_status_logs
        WHERE solicitacao_id = $1
        ORDER BY created_at DESC`, solicitacaoID)
	if err != nil {
		r.logger.Error("Falha ao listar logs de status.", err)
		return nil, errors.NewDBError("Falha ao listar logs de status", err)
	}
	defer rows.Close()

	logs := []domain.StatusLog{}
	for rows.Next() {
		var l domain.StatusLog
		var anterior, alteradoPor, motivo sql.NullString
		if err := rows.Scan(&l.ID, &l.SolicitacaoID, &anterior, &l.StatusNovo, &alteradoPor, &motivo, &l.CreatedAt); err != nil {
			return nil, errors.NewDBError("Falha ao mapear log de status", err)
		}
		if anterior.Valid {
			st := domain.Status(anterior.String)
			l.StatusAnterior = &st
		}
		l.AlteradoPor = nullString(alteradoPor)
		l.Motivo = nullString(motivo)
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Erro após iteração de logs", err)
	}
	return logs, nil
}

// CreateComprovante registra um comprovante imutável.
func (r *Repository) CreateComprovante(ctx context.Context, c domain.Comprovante) (domain.Comprovante, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	c.ID = uuid.New().String()
	err := r.DB.QueryRowContext(ctxTimeout, `
        INSERT INTO estoque_solicitacao_comprovantes (id, solicitacao_id, tipo, imagem_url, assinatura_url, tracking_code, observacao, created_by)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING created_at`,
		c.ID, c.SolicitacaoID, string(c.Tipo), c.ImagemURL, c.AssinaturaURL, c.TrackingCode, c.Observacao, c.CreatedBy,
	).Scan(&c.CreatedAt)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return domain.Comprovante{}, errors.NewNotFoundError("Solicitação não encontrada.")
		}
		r.logger.Error("Falha ao inserir comprovante.", err)
		return domain.Comprovante{}, errors.NewDBError("Falha ao inserir comprovante", err)
	}

	r.logger.Info("Comprovante registrado.", map[string]interface{}{"solicitacao_id": c.SolicitacaoID, "tipo": c.Tipo})
	return c, nil
}

// ListComprovantes lista os comprovantes da solicitação em ordem de criação.
func (r *Repository) ListComprovantes(ctx context.Context, solicitacaoID string) ([]domain.Comprovante, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout, `
        SELECT id, solicitacao_id, tipo, imagem_url, assinatura_url, tracking_code, observacao, created_by, created_at
        FROM estoque_solicitacao_comprovantes
        WHERE solicitacao_id = $1
        ORDER BY created_at`, solicitacaoID)
	if err != nil {
		r.logger.Error("Falha ao listar comprovantes.", err)
		return nil, errors.NewDBError("Falha ao listar comprovantes", err)
	}
	defer rows.Close()

	lista := []domain.Comprovante{}
	for rows.Next() {
		var c domain.Comprovante
		var img, ass, track, obs, by sql.NullString
		if err := rows.Scan(&c.ID, &c.SolicitacaoID, &c.Tipo, &img, &ass, &track, &obs, &by, &c.CreatedAt); err != nil {
			return nil, errors.NewDBError("Falha ao mapear comprovante", err)
		}
		c.ImagemURL = nullString(img)
		c.AssinaturaURL = nullString(ass)
		c.TrackingCode = nullString(track)
		c.Observacao = nullString(obs)
		c.CreatedBy = nullString(by)
		lista = append(lista, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Erro após iteração de comprovantes", err)
	}
	return lista, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func inserirItem(ctx context.Context, db execer, it domain.Item) (string, error) {
	id := uuid.New().String()
	_, err := db.ExecContext(ctx, `
        INSERT INTO estoque_solicitacao_itens (id, solicitacao_id, produto_id, quantidade_solicitada, observacao_item, created_at)
        VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)`,
		id, it.SolicitacaoID, it.ProdutoID, it.QuantidadeSolicitada, it.ObservacaoItem, time.Now().UTC(),
	)
	return id, err
}

func (r *Repository) traduzirItem(err error) error {
	if database.IsForeignKeyViolation(err) {
		return errors.NewNotFoundError("Produto ou solicitação informada não existe.")
	}
	if database.IsCheckViolation(err) {
		return errors.NewValidationError("Quantidades do item devem ser positivas.")
	}
	r.logger.Error("Falha ao gravar item da solicitação.", err)
	return errors.NewDBError("Falha ao gravar item", err)
}

// definirAutor expõe o usuário ao trigger de auditoria (escopo da transação).
func definirAutor(ctx context.Context, tx *sql.Tx, actor string) error {
	_, err := tx.ExecContext(ctx, `SELECT set_config('app.user_id', $1, true)`, actor)
	return err
}

func referencias(refs []string) []string {
	if refs == nil {
		return []string{}
	}
	return refs
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullInt(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
