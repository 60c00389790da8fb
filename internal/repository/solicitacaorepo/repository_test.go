package solicitacaorepo_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estoquemkt/internal/domain"
	apperror "estoquemkt/internal/errors"
	"estoquemkt/internal/pkg/logger"
	"estoquemkt/internal/repository/solicitacaorepo"
)

func newRepo(t *testing.T) (*solicitacaorepo.Repository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return solicitacaorepo.NewRepository(db, 5*time.Second, logger.NewLogger("error")), mock
}

func TestUpdateStatus_GravaComAutorEMotivo(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("SELECT set_config").WithArgs("user-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE estoque_solicitacoes SET status").
		WithArgs("cotacao", sqlmock.AnyArg(), "sol-1", "solicitacao").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE estoque_solicitacao_status_logs SET motivo").
		WithArgs("orçamento recebido", "sol-1", "solicitacao", "cotacao").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.UpdateStatus(context.Background(), "sol-1", domain.StatusSolicitacao, domain.StatusCotacao, "orçamento recebido", "user-1")

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_SemMotivoNaoAnotaLog(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("SELECT set_config").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE estoque_solicitacoes SET status").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.UpdateStatus(context.Background(), "sol-1", domain.StatusCotacao, domain.StatusAguardandoOC, "", "user-1")

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_StatusConcorrenteViraConflito(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("SELECT set_config").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE estoque_solicitacoes SET status").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.UpdateStatus(context.Background(), "sol-1", domain.StatusSolicitacao, domain.StatusCotacao, "motivo", "user-1")

	assert.IsType(t, &apperror.ConflictError{}, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAprovarOC_AprovaItensEMudaStatusNaMesmaTransacao(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("SELECT set_config").WithArgs("dir-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE estoque_solicitacao_itens SET quantidade_aprovada = quantidade_solicitada").
		WithArgs("sol-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("UPDATE estoque_solicitacoes SET status").
		WithArgs("em_producao", sqlmock.AnyArg(), "sol-1", "aguardando_oc").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE estoque_solicitacao_status_logs SET motivo").
		WithArgs(solicitacaorepo.MotivoAprovacaoOC, "sol-1", "aguardando_oc", "em_producao").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.AprovarOC(context.Background(), "sol-1", "dir-1")

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListLogs_MapeiaStatusAnteriorNulo(t *testing.T) {
	repo, mock := newRepo(t)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "solicitacao_id", "status_anterior", "status_novo", "alterado_por", "motivo", "created_at"}).
		AddRow("log-2", "sol-1", "solicitacao", "cotacao", "user-1", "ok", now).
		AddRow("log-1", "sol-1", nil, "solicitacao", "user-1", nil, now.Add(-time.Minute))
	mock.ExpectQuery("FROM estoque_solicitacao_status_logs").WithArgs("sol-1").WillReturnRows(rows)

	logs, err := repo.ListLogs(context.Background(), "sol-1")

	require.NoError(t, err)
	require.Len(t, logs, 2)
	require.NotNil(t, logs[0].StatusAnterior)
	assert.Equal(t, domain.StatusSolicitacao, *logs[0].StatusAnterior)
	assert.Equal(t, "ok", *logs[0].Motivo)
	assert.Nil(t, logs[1].StatusAnterior)
	assert.Nil(t, logs[1].Motivo)
	assert.NoError(t, mock.ExpectationsWereMet())
}
