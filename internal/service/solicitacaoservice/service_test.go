package solicitacaoservice_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"estoquemkt/internal/domain"
	apperror "estoquemkt/internal/errors"
	"estoquemkt/internal/pkg/logger"
	"estoquemkt/internal/service/solicitacaoservice"
)

type MockSolicitacaoRepository struct {
	mock.Mock
}

func (m *MockSolicitacaoRepository) List(ctx context.Context, f domain.SolicitacaoFiltro) ([]domain.Solicitacao, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]domain.Solicitacao), args.Error(1)
}

func (m *MockSolicitacaoRepository) GetByID(ctx context.Context, id string) (domain.Solicitacao, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Solicitacao), args.Error(1)
}

func (m *MockSolicitacaoRepository) Create(ctx context.Context, s domain.Solicitacao, itens []domain.Item, actor string) (domain.Solicitacao, error) {
	args := m.Called(ctx, s, itens, actor)
	return args.Get(0).(domain.Solicitacao), args.Error(1)
}

func (m *MockSolicitacaoRepository) Update(ctx context.Context, s domain.Solicitacao) (domain.Solicitacao, error) {
	args := m.Called(ctx, s)
	return args.Get(0).(domain.Solicitacao), args.Error(1)
}

func (m *MockSolicitacaoRepository) UpdateStatus(ctx context.Context, id string, de, para domain.Status, motivo, actor string) error {
	args := m.Called(ctx, id, de, para, motivo, actor)
	return args.Error(0)
}

func (m *MockSolicitacaoRepository) AprovarOC(ctx context.Context, id, actor string) error {
	args := m.Called(ctx, id, actor)
	return args.Error(0)
}

func (m *MockSolicitacaoRepository) ListItens(ctx context.Context, solicitacaoID string) ([]domain.Item, error) {
	args := m.Called(ctx, solicitacaoID)
	return args.Get(0).([]domain.Item), args.Error(1)
}

func (m *MockSolicitacaoRepository) GetItem(ctx context.Context, solicitacaoID, itemID string) (domain.Item, error) {
	args := m.Called(ctx, solicitacaoID, itemID)
	return args.Get(0).(domain.Item), args.Error(1)
}

func (m *MockSolicitacaoRepository) AddItem(ctx context.Context, it domain.Item) (domain.Item, error) {
	args := m.Called(ctx, it)
	return args.Get(0).(domain.Item), args.Error(1)
}

func (m *MockSolicitacaoRepository) UpdateItem(ctx context.Context, it domain.Item) (domain.Item, error) {
	args := m.Called(ctx, it)
	return args.Get(0).(domain.Item), args.Error(1)
}

func (m *MockSolicitacaoRepository) DeleteItem(ctx context.Context, solicitacaoID, itemID string) error {
	args := m.Called(ctx, solicitacaoID, itemID)
	return args.Error(0)
}

func (m *MockSolicitacaoRepository) ListLogs(ctx context.Context, solicitacaoID string) ([]domain.StatusLog, error) {
	args := m.Called(ctx, solicitacaoID)
	return args.Get(0).([]domain.StatusLog), args.Error(1)
}

func (m *MockSolicitacaoRepository) CreateComprovante(ctx context.Context, c domain.Comprovante) (domain.Comprovante, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(domain.Comprovante), args.Error(1)
}

func (m *MockSolicitacaoRepository) ListComprovantes(ctx context.Context, solicitacaoID string) ([]domain.Comprovante, error) {
	args := m.Called(ctx, solicitacaoID)
	return args.Get(0).([]domain.Comprovante), args.Error(1)
}

type MockIntegrador struct {
	mock.Mock
}

func (m *MockIntegrador) Processar(ctx context.Context, sol domain.Solicitacao, actor string) (domain.RelatorioIntegracao, error) {
	args := m.Called(ctx, sol, actor)
	return args.Get(0).(domain.RelatorioIntegracao), args.Error(1)
}

const (
	solID  = "99999999-9999-9999-9999-999999999999"
	itemID = "88888888-8888-8888-8888-888888888888"
	lojaA  = "11111111-1111-1111-1111-111111111111"
	lojaB  = "22222222-2222-2222-2222-222222222222"
	prodID = "44444444-4444-4444-4444-444444444444"
)

var (
	diretor     = domain.Caller{UserID: "dir-1", Nivel: domain.NivelDiretor}
	supervisorA = domain.Caller{UserID: "sup-1", Nivel: domain.NivelSupervisor, LojasVinculadas: []string{lojaA}}
)

func intPtr(v int) *int { return &v }

func newService() (*solicitacaoservice.Service, *MockSolicitacaoRepository, *MockIntegrador) {
	repo := new(MockSolicitacaoRepository)
	integ := new(MockIntegrador)
	return solicitacaoservice.NewService(repo, integ, logger.NewLogger("debug")), repo, integ
}

func sol(status domain.Status, loja string) domain.Solicitacao {
	return domain.Solicitacao{ID: solID, LojaID: loja, Status: status, Ativo: true}
}

func TestChangeStatus_ParesForaDoGrafoNaoGravam(t *testing.T) {
	for _, de := range domain.AllStatuses() {
		for _, para := range domain.AllStatuses() {
			if domain.PodeTransitar(de, para) {
				continue
			}
			svc, repo, integ := newService()
			repo.On("GetByID", mock.Anything, solID).Return(sol(de, lojaA), nil)

			_, err := svc.ChangeStatus(context.Background(), diretor, solID, domain.MudancaStatusInput{StatusNovo: para})

			assert.IsType(t, &apperror.InvalidTransitionError{}, err, "%s -> %s", de, para)
			repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			integ.AssertNotCalled(t, "Processar", mock.Anything, mock.Anything, mock.Anything)
		}
	}
}

func TestChangeStatus_StatusTerminalNaoTransita(t *testing.T) {
	for _, terminal := range []domain.Status{domain.StatusAplicado, domain.StatusCancelado} {
		svc, repo, _ := newService()
		repo.On("GetByID", mock.Anything, solID).Return(sol(terminal, lojaA), nil)

		_, err := svc.ChangeStatus(context.Background(), diretor, solID, domain.MudancaStatusInput{StatusNovo: terminal})

		assert.IsType(t, &apperror.InvalidTransitionError{}, err)
		repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	}
}

func TestChangeStatus_SemGatilhoNaoChamaIntegracao(t *testing.T) {
	svc, repo, integ := newService()

	repo.On("GetByID", mock.Anything, solID).Return(sol(domain.StatusSolicitacao, lojaA), nil).Once()
	repo.On("UpdateStatus", mock.Anything, solID, domain.StatusSolicitacao, domain.StatusCotacao, "orçamento pedido", "sup-1").Return(nil)
	repo.On("GetByID", mock.Anything, solID).Return(sol(domain.StatusCotacao, lojaA), nil).Once()

	res, err := svc.ChangeStatus(context.Background(), supervisorA, solID, domain.MudancaStatusInput{
		StatusNovo: domain.StatusCotacao,
		Motivo:     "  orçamento pedido ",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusCotacao, res.Status)
	assert.Nil(t, res.Integracao)
	integ.AssertNotCalled(t, "Processar", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestChangeStatus_GatilhoAnexaRelatorio(t *testing.T) {
	svc, repo, integ := newService()

	repo.On("GetByID", mock.Anything, solID).Return(sol(domain.StatusEmProducao, lojaA), nil).Once()
	repo.On("UpdateStatus", mock.Anything, solID, domain.StatusEmProducao, domain.StatusProntoParaRetirar, "", "dir-1").Return(nil)
	repo.On("GetByID", mock.Anything, solID).Return(sol(domain.StatusProntoParaRetirar, lojaA), nil).Once()
	rel := domain.RelatorioIntegracao{
		SolicitacaoID: solID,
		Tipo:          domain.MovimentoEntrada,
		Itens: []domain.ResultadoItem{
			{ProdutoID: "P1", Quantidade: 5, Resultado: domain.LancamentoPostado},
			{ProdutoID: "P2", Quantidade: 0, Resultado: domain.LancamentoIgnorado},
		},
	}
	integ.On("Processar", mock.Anything, mock.MatchedBy(func(s domain.Solicitacao) bool {
		return s.Status == domain.StatusProntoParaRetirar
	}), "dir-1").Return(rel, nil)

	res, err := svc.ChangeStatus(context.Background(), diretor, solID, domain.MudancaStatusInput{StatusNovo: domain.StatusProntoParaRetirar})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusProntoParaRetirar, res.Status)
	require.NotNil(t, res.Integracao)
	assert.Len(t, res.Integracao.Itens, 2)
}

func TestChangeStatus_SemEstoqueCentralMantemStatus(t *testing.T) {
	svc, repo, integ := newService()

	repo.On("GetByID", mock.Anything, solID).Return(sol(domain.StatusEmProducao, lojaA), nil).Once()
	repo.On("UpdateStatus", mock.Anything, solID, domain.StatusEmProducao, domain.StatusProntoParaRetirar, "", "dir-1").Return(nil)
	repo.On("GetByID", mock.Anything, solID).Return(sol(domain.StatusProntoParaRetirar, lojaA), nil).Once()
	cfgErr := apperror.NewConfigurationError("Estoque central não encontrado.")
	integ.On("Processar", mock.Anything, mock.Anything, "dir-1").
		Return(domain.RelatorioIntegracao{Tipo: domain.MovimentoEntrada, Erro: cfgErr.Error(), Itens: []domain.ResultadoItem{}}, cfgErr)

	res, err := svc.ChangeStatus(context.Background(), diretor, solID, domain.MudancaStatusInput{StatusNovo: domain.StatusProntoParaRetirar})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusProntoParaRetirar, res.Status)
	require.NotNil(t, res.Integracao)
	assert.NotEmpty(t, res.Integracao.Erro)
	assert.Empty(t, res.Integracao.Itens)
	repo.AssertCalled(t, "UpdateStatus", mock.Anything, solID, domain.StatusEmProducao, domain.StatusProntoParaRetirar, "", "dir-1")
}

func TestChangeStatus_FalhaAoRecarregarAindaIntegraEstoque(t *testing.T) {
	svc, repo, integ := newService()

	repo.On("GetByID", mock.Anything, solID).Return(sol(domain.StatusEmProducao, lojaA), nil).Once()
	repo.On("UpdateStatus", mock.Anything, solID, domain.StatusEmProducao, domain.StatusProntoParaRetirar, "", "dir-1").Return(nil)
	repo.On("GetByID", mock.Anything, solID).
		Return(domain.Solicitacao{}, apperror.NewDBError("conexão perdida", context.DeadlineExceeded)).Once()
	rel := domain.RelatorioIntegracao{
		SolicitacaoID: solID,
		Tipo:          domain.MovimentoEntrada,
		Itens:         []domain.ResultadoItem{{ProdutoID: prodID, Quantidade: 3, Resultado: domain.LancamentoPostado}},
	}
	integ.On("Processar", mock.Anything, mock.MatchedBy(func(s domain.Solicitacao) bool {
		return s.ID == solID && s.LojaID == lojaA && s.Status == domain.StatusProntoParaRetirar
	}), "dir-1").Return(rel, nil)

	res, err := svc.ChangeStatus(context.Background(), diretor, solID, domain.MudancaStatusInput{StatusNovo: domain.StatusProntoParaRetirar})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusProntoParaRetirar, res.Status)
	require.NotNil(t, res.Integracao)
	assert.Len(t, res.Integracao.Itens, 1)
	integ.AssertExpectations(t)
}

func TestChangeStatus_SupervisorForaDoEscopo(t *testing.T) {
	svc, repo, _ := newService()

	repo.On("GetByID", mock.Anything, solID).Return(sol(domain.StatusSolicitacao, lojaB), nil)

	_, err := svc.ChangeStatus(context.Background(), supervisorA, solID, domain.MudancaStatusInput{StatusNovo: domain.StatusCotacao})

	assert.IsType(t, &apperror.ForbiddenError{}, err)
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLogs_SupervisorDeOutraLoja(t *testing.T) {
	svc, repo, _ := newService()

	repo.On("GetByID", mock.Anything, solID).Return(sol(domain.StatusCotacao, lojaB), nil)

	_, err := svc.Logs(context.Background(), supervisorA, solID)

	assert.IsType(t, &apperror.ForbiddenError{}, err)
	repo.AssertNotCalled(t, "ListLogs", mock.Anything, mock.Anything)
}

func TestLogs_DaLojaDoSupervisor(t *testing.T) {
	svc, repo, _ := newService()

	repo.On("GetByID", mock.Anything, solID).Return(sol(domain.StatusCotacao, lojaA), nil)
	repo.On("ListLogs", mock.Anything, solID).Return([]domain.StatusLog{{ID: "l2"}, {ID: "l1"}}, nil)

	logs, err := svc.Logs(context.Background(), supervisorA, solID)

	require.NoError(t, err)
	assert.Len(t, logs, 2)
}

func TestAprovarOC_ExigeAguardandoOC(t *testing.T) {
	svc, repo, _ := newService()

	repo.On("GetByID", mock.Anything, solID).Return(sol(domain.StatusCotacao, lojaA), nil)

	_, err := svc.AprovarOC(context.Background(), diretor, solID)

	assert.IsType(t, &apperror.InvalidTransitionError{}, err)
	repo.AssertNotCalled(t, "AprovarOC", mock.Anything, mock.Anything, mock.Anything)
}

func TestAprovarOC_SupervisorNaoAprova(t *testing.T) {
	svc, repo, _ := newService()

	_, err := svc.AprovarOC(context.Background(), supervisorA, solID)

	assert.IsType(t, &apperror.ForbiddenError{}, err)
	repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestAprovarOC_AprovaItensEDevolveSolicitacao(t *testing.T) {
	svc, repo, _ := newService()

	repo.On("GetByID", mock.Anything, solID).Return(sol(domain.StatusAguardandoOC, lojaA), nil).Once()
	repo.On("AprovarOC", mock.Anything, solID, "dir-1").Return(nil)
	repo.On("GetByID", mock.Anything, solID).Return(sol(domain.StatusEmProducao, lojaA), nil).Once()
	repo.On("ListItens", mock.Anything, solID).Return([]domain.Item{
		{ID: itemID, QuantidadeSolicitada: 4, QuantidadeAprovada: intPtr(4)},
	}, nil)

	atual, err := svc.AprovarOC(context.Background(), diretor, solID)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusEmProducao, atual.Status)
	require.Len(t, atual.Itens, 1)
	assert.Equal(t, 4, *atual.Itens[0].QuantidadeAprovada)
}

func TestAprovarOC_FalhaAoRecarregarDevolveStatusGravado(t *testing.T) {
	svc, repo, _ := newService()

	repo.On("GetByID", mock.Anything, solID).Return(sol(domain.StatusAguardandoOC, lojaA), nil).Once()
	repo.On("AprovarOC", mock.Anything, solID, "dir-1").Return(nil)
	repo.On("GetByID", mock.Anything, solID).
		Return(domain.Solicitacao{}, apperror.NewDBError("conexão perdida", context.DeadlineExceeded)).Once()
	repo.On("ListItens", mock.Anything, solID).Return([]domain.Item{}, apperror.NewDBError("conexão perdida", context.DeadlineExceeded))

	atual, err := svc.AprovarOC(context.Background(), diretor, solID)

	require.NoError(t, err)
	assert.Equal(t, solID, atual.ID)
	assert.Equal(t, domain.StatusEmProducao, atual.Status)
}

func TestReprovarOC_ExigeMotivo(t *testing.T) {
	svc, repo, _ := newService()

	_, err := svc.ReprovarOC(context.Background(), diretor, solID, domain.ReprovarOCInput{Motivo: "   "})

	assert.IsType(t, &apperror.ValidationError{}, err)
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReprovarOC_VoltaParaCotacao(t *testing.T) {
	svc, repo, _ := newService()

	repo.On("GetByID", mock.Anything, solID).Return(sol(domain.StatusAguardandoOC, lojaA), nil).Once()
	repo.On("UpdateStatus", mock.Anything, solID, domain.StatusAguardandoOC, domain.StatusCotacao, "preço acima do orçamento", "dir-1").Return(nil)
	repo.On("GetByID", mock.Anything, solID).Return(sol(domain.StatusCotacao, lojaA), nil).Once()

	atual, err := svc.ReprovarOC(context.Background(), diretor, solID, domain.ReprovarOCInput{Motivo: "preço acima do orçamento"})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusCotacao, atual.Status)
	repo.AssertExpectations(t)
}

func TestReprovarOC_ForaDeAguardandoOC(t *testing.T) {
	svc, repo, _ := newService()

	repo.On("GetByID", mock.Anything, solID).Return(sol(domain.StatusEmProducao, lojaA), nil)

	_, err := svc.ReprovarOC(context.Background(), diretor, solID, domain.ReprovarOCInput{Motivo: "x"})

	assert.IsType(t, &apperror.InvalidTransitionError{}, err)
}

func TestList_AplicaEscopoDoSupervisor(t *testing.T) {
	svc, repo, _ := newService()

	repo.On("List", mock.Anything, mock.MatchedBy(func(f domain.SolicitacaoFiltro) bool {
		return f.Restrito && len(f.LojaIDs) == 1 && f.LojaIDs[0] == lojaA
	})).Return([]domain.Solicitacao{}, nil)

	lista, err := svc.List(context.Background(), supervisorA, domain.SolicitacaoFiltro{})

	require.NoError(t, err)
	assert.Empty(t, lista)
	repo.AssertExpectations(t)
}

func TestAlertas_SomenteProntasEAtivas(t *testing.T) {
	svc, repo, _ := newService()

	repo.On("List", mock.Anything, mock.MatchedBy(func(f domain.SolicitacaoFiltro) bool {
		return f.Status == domain.StatusProntoParaRetirar && f.Ativo != nil && *f.Ativo && !f.Restrito
	})).Return([]domain.Solicitacao{sol(domain.StatusProntoParaRetirar, lojaA)}, nil)

	lista, err := svc.Alertas(context.Background(), diretor)

	require.NoError(t, err)
	assert.Len(t, lista, 1)
}

func TestCreate_LojaForaDoEscopo(t *testing.T) {
	svc, repo, _ := newService()

	_, err := svc.Create(context.Background(), supervisorA, domain.CreateSolicitacaoInput{
		LojaID: lojaB,
		Itens:  []domain.NovoItemInput{{ProdutoID: prodID, QuantidadeSolicitada: 1}},
	})

	assert.IsType(t, &apperror.ForbiddenError{}, err)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreate_SemItensEhInvalido(t *testing.T) {
	svc, repo, _ := newService()

	_, err := svc.Create(context.Background(), supervisorA, domain.CreateSolicitacaoInput{LojaID: lojaA})

	assert.IsType(t, &apperror.ValidationError{}, err)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreate_GravaComoSolicitacaoDoSupervisor(t *testing.T) {
	svc, repo, _ := newService()

	repo.On("Create", mock.Anything, mock.MatchedBy(func(s domain.Solicitacao) bool {
		return s.LojaID == lojaA && s.Status == domain.StatusSolicitacao &&
			*s.SupervisorID == "sup-1" && *s.CriadoPor == "sup-1"
	}), mock.MatchedBy(func(itens []domain.Item) bool {
		return len(itens) == 2 && itens[0].QuantidadeSolicitada == 3
	}), "sup-1").Return(sol(domain.StatusSolicitacao, lojaA), nil)
	repo.On("ListItens", mock.Anything, solID).Return([]domain.Item{{ID: "a"}, {ID: "b"}}, nil)

	created, err := svc.Create(context.Background(), supervisorA, domain.CreateSolicitacaoInput{
		LojaID:   lojaA,
		Objetivo: "Campanha de inverno",
		Itens: []domain.NovoItemInput{
			{ProdutoID: prodID, QuantidadeSolicitada: 3},
			{ProdutoID: prodID, QuantidadeSolicitada: 1},
		},
	})

	require.NoError(t, err)
	assert.Len(t, created.Itens, 2)
	repo.AssertExpectations(t)
}

func TestUpdate_ForaDeEdicaoSoDesativa(t *testing.T) {
	svc, repo, _ := newService()

	repo.On("GetByID", mock.Anything, solID).Return(sol(domain.StatusEmProducao, lojaA), nil)

	objetivo := "novo"
	_, err := svc.Update(context.Background(), diretor, solID, domain.UpdateSolicitacaoInput{Objetivo: &objetivo})
	assert.IsType(t, &apperror.ValidationError{}, err)

	inativo := false
	repo.On("Update", mock.Anything, mock.MatchedBy(func(s domain.Solicitacao) bool { return !s.Ativo })).
		Return(domain.Solicitacao{ID: solID, Status: domain.StatusEmProducao}, nil)

	_, err = svc.Update(context.Background(), diretor, solID, domain.UpdateSolicitacaoInput{Ativo: &inativo})
	require.NoError(t, err)
	repo.AssertNumberOfCalls(t, "Update", 1)
}

func TestUpdate_ForaDeEdicaoRecusaDesativacaoComOutrosCampos(t *testing.T) {
	svc, repo, _ := newService()

	repo.On("GetByID", mock.Anything, solID).Return(sol(domain.StatusEmProducao, lojaA), nil)

	inativo := false
	obs := "encerrada pela loja"
	_, err := svc.Update(context.Background(), diretor, solID, domain.UpdateSolicitacaoInput{Ativo: &inativo, Observacoes: &obs})

	assert.IsType(t, &apperror.ValidationError{}, err)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestAddItem_SomenteEmSolicitacao(t *testing.T) {
	svc, repo, _ := newService()

	repo.On("GetByID", mock.Anything, solID).Return(sol(domain.StatusCotacao, lojaA), nil)

	_, err := svc.AddItem(context.Background(), diretor, solID, domain.NovoItemInput{ProdutoID: prodID, QuantidadeSolicitada: 2})

	assert.IsType(t, &apperror.ValidationError{}, err)
	repo.AssertNotCalled(t, "AddItem", mock.Anything, mock.Anything)
}

func TestUpdateItem_RecusadoEmStatusTerminal(t *testing.T) {
	svc, repo, _ := newService()

	repo.On("GetByID", mock.Anything, solID).Return(sol(domain.StatusAplicado, lojaA), nil)

	_, err := svc.UpdateItem(context.Background(), diretor, solID, itemID, domain.UpdateItemInput{QuantidadeEnviada: intPtr(2)})

	assert.IsType(t, &apperror.ValidationError{}, err)
	repo.AssertNotCalled(t, "UpdateItem", mock.Anything, mock.Anything)
}

func TestUpdateItem_GravaQuantidadeEnviada(t *testing.T) {
	svc, repo, _ := newService()

	repo.On("GetByID", mock.Anything, solID).Return(sol(domain.StatusProntoParaRetirar, lojaA), nil)
	repo.On("GetItem", mock.Anything, solID, itemID).Return(domain.Item{ID: itemID, SolicitacaoID: solID, QuantidadeSolicitada: 5}, nil)
	repo.On("UpdateItem", mock.Anything, mock.MatchedBy(func(it domain.Item) bool {
		return it.QuantidadeEnviada != nil && *it.QuantidadeEnviada == 4 && it.QuantidadeSolicitada == 5
	})).Return(domain.Item{ID: itemID}, nil)

	_, err := svc.UpdateItem(context.Background(), diretor, solID, itemID, domain.UpdateItemInput{QuantidadeEnviada: intPtr(4)})

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestDeleteItem_SomenteEditavel(t *testing.T) {
	svc, repo, _ := newService()

	repo.On("GetByID", mock.Anything, solID).Return(sol(domain.StatusAguardandoOC, lojaA), nil)

	err := svc.DeleteItem(context.Background(), diretor, solID, itemID)

	assert.IsType(t, &apperror.ValidationError{}, err)
	repo.AssertNotCalled(t, "DeleteItem", mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmarEnvio_SomenteDiretor(t *testing.T) {
	svc, repo, _ := newService()

	_, err := svc.ConfirmarEnvio(context.Background(), supervisorA, solID, domain.ComprovanteInput{})

	assert.IsType(t, &apperror.ForbiddenError{}, err)
	repo.AssertNotCalled(t, "CreateComprovante", mock.Anything, mock.Anything)
}

func TestConfirmarRetirada_RegistraComprovante(t *testing.T) {
	svc, repo, _ := newService()

	repo.On("GetByID", mock.Anything, solID).Return(sol(domain.StatusProntoParaRetirar, lojaA), nil)
	repo.On("CreateComprovante", mock.Anything, mock.MatchedBy(func(c domain.Comprovante) bool {
		return c.Tipo == domain.ComprovanteRetirada && c.SolicitacaoID == solID && *c.CreatedBy == "sup-1"
	})).Return(domain.Comprovante{ID: "c1", Tipo: domain.ComprovanteRetirada}, nil)

	c, err := svc.ConfirmarRetirada(context.Background(), supervisorA, solID, domain.ComprovanteInput{})

	require.NoError(t, err)
	assert.Equal(t, "c1", c.ID)
}

func TestGet_CarregaDetalhes(t *testing.T) {
	svc, repo, _ := newService()

	repo.On("GetByID", mock.Anything, solID).Return(sol(domain.StatusCotacao, lojaA), nil)
	repo.On("ListItens", mock.Anything, solID).Return([]domain.Item{{ID: itemID}}, nil)
	repo.On("ListLogs", mock.Anything, solID).Return([]domain.StatusLog{{ID: "l1"}}, nil)
	repo.On("ListComprovantes", mock.Anything, solID).Return([]domain.Comprovante{}, nil)

	s, err := svc.Get(context.Background(), supervisorA, solID)

	require.NoError(t, err)
	assert.Len(t, s.Itens, 1)
	assert.Len(t, s.Logs, 1)
}
