package estoqueservice_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"estoquemkt/internal/domain"
	apperror "estoquemkt/internal/errors"
	"estoquemkt/internal/pkg/logger"
	"estoquemkt/internal/service/estoqueservice"
)

type MockEstoqueRepository struct {
	mock.Mock
}

func (m *MockEstoqueRepository) FindCentral(ctx context.Context) (domain.EstoqueLocal, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.EstoqueLocal), args.Error(1)
}

func (m *MockEstoqueRepository) FindByLoja(ctx context.Context, lojaID string) (domain.EstoqueLocal, error) {
	args := m.Called(ctx, lojaID)
	return args.Get(0).(domain.EstoqueLocal), args.Error(1)
}

func (m *MockEstoqueRepository) GetLocal(ctx context.Context, id string) (domain.EstoqueLocal, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.EstoqueLocal), args.Error(1)
}

func (m *MockEstoqueRepository) ListLocais(ctx context.Context, f domain.LocalFiltro) ([]domain.EstoqueLocal, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]domain.EstoqueLocal), args.Error(1)
}

func (m *MockEstoqueRepository) ListSaldos(ctx context.Context, f domain.SaldoFiltro) ([]domain.Saldo, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]domain.Saldo), args.Error(1)
}

func (m *MockEstoqueRepository) ListMovimentos(ctx context.Context, f domain.MovimentoFiltro) ([]domain.Movimento, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]domain.Movimento), args.Error(1)
}

func (m *MockEstoqueRepository) PostMovimento(ctx context.Context, mov domain.Movimento) (domain.Movimento, error) {
	args := m.Called(ctx, mov)
	return args.Get(0).(domain.Movimento), args.Error(1)
}

func (m *MockEstoqueRepository) Ajustar(ctx context.Context, produtoID, localID string, nova int, motivo string, actor *string) (domain.Movimento, error) {
	args := m.Called(ctx, produtoID, localID, nova, motivo, actor)
	return args.Get(0).(domain.Movimento), args.Error(1)
}

const (
	produtoID = "44444444-4444-4444-4444-444444444444"
	centralID = "55555555-5555-5555-5555-555555555555"
	localA    = "66666666-6666-6666-6666-666666666666"
	localB    = "77777777-7777-7777-7777-777777777777"
	lojaA     = "11111111-1111-1111-1111-111111111111"
	lojaB     = "22222222-2222-2222-2222-222222222222"
)

func ptr(s string) *string { return &s }

func supervisorA() domain.Caller {
	return domain.Caller{UserID: "sup-1", Nivel: domain.NivelSupervisor, LojasVinculadas: []string{lojaA}}
}

func newService() (*estoqueservice.Service, *MockEstoqueRepository) {
	repo := new(MockEstoqueRepository)
	return estoqueservice.NewService(repo, logger.NewLogger("debug")), repo
}

func TestSaida_LocalDeOutraLojaForbidden(t *testing.T) {
	svc, repo := newService()

	repo.On("GetLocal", mock.Anything, localB).
		Return(domain.EstoqueLocal{ID: localB, Tipo: domain.LocalLoja, LojaID: ptr(lojaB)}, nil)

	_, err := svc.Saida(context.Background(), supervisorA(), domain.SaidaInput{
		ProdutoID: produtoID, Quantidade: 1, OrigemID: localB,
	})

	assert.IsType(t, &apperror.ForbiddenError{}, err)
	repo.AssertNotCalled(t, "PostMovimento", mock.Anything, mock.Anything)
}

func TestTransferencia_CentralParaLojaDoSupervisor(t *testing.T) {
	svc, repo := newService()

	repo.On("GetLocal", mock.Anything, centralID).Return(domain.EstoqueLocal{ID: centralID, Tipo: domain.LocalCentral}, nil)
	repo.On("GetLocal", mock.Anything, localA).
		Return(domain.EstoqueLocal{ID: localA, Tipo: domain.LocalLoja, LojaID: ptr(lojaA)}, nil)
	repo.On("PostMovimento", mock.Anything, mock.MatchedBy(func(m domain.Movimento) bool {
		return m.Tipo == domain.MovimentoTransferencia &&
			*m.OrigemID == centralID && *m.DestinoID == localA &&
			m.Quantidade == 4 && *m.CreatedBy == "sup-1"
	})).Return(domain.Movimento{ID: "mov-1"}, nil)

	mov, err := svc.Transferencia(context.Background(), supervisorA(), domain.TransferenciaInput{
		ProdutoID: produtoID, Quantidade: 4, OrigemID: centralID, DestinoID: localA,
	})

	require.NoError(t, err)
	assert.Equal(t, "mov-1", mov.ID)
	repo.AssertExpectations(t)
}

func TestTransferencia_OrigemIgualDestinoInvalida(t *testing.T) {
	svc, repo := newService()

	_, err := svc.Transferencia(context.Background(), supervisorA(), domain.TransferenciaInput{
		ProdutoID: produtoID, Quantidade: 4, OrigemID: centralID, DestinoID: centralID,
	})

	assert.IsType(t, &apperror.ValidationError{}, err)
	repo.AssertNotCalled(t, "GetLocal", mock.Anything, mock.Anything)
}

func TestEntrada_QuantidadeZeroInvalida(t *testing.T) {
	svc, _ := newService()

	_, err := svc.Entrada(context.Background(), supervisorA(), domain.EntradaInput{
		ProdutoID: produtoID, Quantidade: 0, DestinoID: centralID,
	})

	assert.IsType(t, &apperror.ValidationError{}, err)
}

func TestAjuste_RepassaNovoSaldo(t *testing.T) {
	svc, repo := newService()

	nova := 0
	repo.On("GetLocal", mock.Anything, centralID).Return(domain.EstoqueLocal{ID: centralID, Tipo: domain.LocalCentral}, nil)
	repo.On("Ajustar", mock.Anything, produtoID, centralID, 0, "avaria", mock.Anything).
		Return(domain.Movimento{ID: "mov-2", Tipo: domain.MovimentoAjuste}, nil)

	mov, err := svc.Ajuste(context.Background(), domain.Caller{UserID: "dir-1", Nivel: domain.NivelDiretor}, domain.AjusteInput{
		ProdutoID: produtoID, QuantidadeNova: &nova, EstoqueLocalID: centralID, Motivo: "avaria",
	})

	require.NoError(t, err)
	assert.Equal(t, "mov-2", mov.ID)
	repo.AssertExpectations(t)
}

func TestListMovimentos_EscopoELimite(t *testing.T) {
	svc, repo := newService()

	repo.On("ListMovimentos", mock.Anything, domain.MovimentoFiltro{
		Limit:    estoqueservice.MaxMovimentosLimit,
		LojaIDs:  []string{lojaA},
		Restrito: true,
	}).Return([]domain.Movimento{}, nil)

	_, err := svc.ListMovimentos(context.Background(), supervisorA(), domain.MovimentoFiltro{Limit: 10000})

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestListSaldos_DiretorSemRestricao(t *testing.T) {
	svc, repo := newService()

	repo.On("ListSaldos", mock.Anything, domain.SaldoFiltro{Search: "banner"}).Return([]domain.Saldo{{ID: "s-1"}}, nil)

	saldos, err := svc.ListSaldos(context.Background(), domain.Caller{Nivel: domain.NivelDiretor}, domain.SaldoFiltro{Search: "banner"})

	require.NoError(t, err)
	assert.Len(t, saldos, 1)
}
