package router_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"estoquemkt/internal/api/categoria"
	"estoquemkt/internal/api/estoque"
	"estoquemkt/internal/api/produto"
	"estoquemkt/internal/api/router"
	"estoquemkt/internal/api/solicitacao"
	"estoquemkt/internal/api/usuario"
	"estoquemkt/internal/domain"
	apperror "estoquemkt/internal/errors"
	"estoquemkt/internal/pkg/logger"
	"estoquemkt/internal/pkg/token"
)

// MockSolicitacaoService implementa apenas o que as rotas testadas usam.
type MockSolicitacaoService struct {
	solicitacao.SolicitacaoService
	mock.Mock
}

func (m *MockSolicitacaoService) ChangeStatus(ctx context.Context, caller domain.Caller, id string, in domain.MudancaStatusInput) (domain.MudancaStatusResultado, error) {
	args := m.Called(ctx, caller, id, in)
	return args.Get(0).(domain.MudancaStatusResultado), args.Error(1)
}

func (m *MockSolicitacaoService) List(ctx context.Context, caller domain.Caller, f domain.SolicitacaoFiltro) ([]domain.Solicitacao, error) {
	args := m.Called(ctx, caller, f)
	return args.Get(0).([]domain.Solicitacao), args.Error(1)
}

type MockCallerLoader struct {
	mock.Mock
}

func (m *MockCallerLoader) LoadCaller(ctx context.Context, userID, email string) (domain.Caller, error) {
	args := m.Called(ctx, userID, email)
	return args.Get(0).(domain.Caller), args.Error(1)
}

var supervisor = domain.Caller{UserID: "user-sup", Nivel: domain.NivelSupervisor, LojasVinculadas: []string{"loja-A"}}

func setup(t *testing.T) (http.Handler, *MockSolicitacaoService, string) {
	log := logger.NewLogger("error")
	tokens := token.NewService("segredo-de-teste", "", time.Hour)

	loader := new(MockCallerLoader)
	loader.On("LoadCaller", mock.Anything, "user-sup", "sup@loja.com").Return(supervisor, nil)

	svc := new(MockSolicitacaoService)
	h := router.Handlers{
		Usuario:     usuario.NewHandler(nil, nil, log),
		Categoria:   categoria.NewHandler(nil, log),
		Produto:     produto.NewHandler(nil, log),
		Estoque:     estoque.NewHandler(nil, log),
		Solicitacao: solicitacao.NewHandler(svc, log),
	}

	tk, err := tokens.GenerateToken("user-sup", "sup@loja.com")
	require.NoError(t, err)

	return router.NewRouter(h, router.Options{Tokens: tokens, Callers: loader, Logger: log}), svc, tk
}

func do(t *testing.T, handler http.Handler, method, path, tk, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if tk != "" {
		req.Header.Set("Authorization", "Bearer "+tk)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestPing(t *testing.T) {
	handler, _, _ := setup(t)

	rr := do(t, handler, http.MethodGet, "/ping", "", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "pong", rr.Body.String())
}

func TestChangeStatus_SemTokenRetorna401(t *testing.T) {
	handler, svc, _ := setup(t)

	rr := do(t, handler, http.MethodPost, "/solicitacoes/sol-1/status", "", `{"status_novo":"cotacao"}`)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	svc.AssertNotCalled(t, "ChangeStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestChangeStatus_Sucesso(t *testing.T) {
	handler, svc, tk := setup(t)

	in := domain.MudancaStatusInput{StatusNovo: domain.StatusCotacao, Motivo: "orçamento"}
	svc.On("ChangeStatus", mock.Anything, supervisor, "sol-1", in).
		Return(domain.MudancaStatusResultado{Solicitacao: domain.Solicitacao{ID: "sol-1", Status: domain.StatusCotacao}}, nil)

	rr := do(t, handler, http.MethodPost, "/solicitacoes/sol-1/status", tk, `{"status_novo":"cotacao","motivo":"orçamento"}`)

	require.Equal(t, http.StatusOK, rr.Code)
	var out domain.MudancaStatusResultado
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	assert.Equal(t, domain.StatusCotacao, out.Status)
	svc.AssertExpectations(t)
}

func TestChangeStatus_TransicaoInvalidaRetorna400(t *testing.T) {
	handler, svc, tk := setup(t)

	svc.On("ChangeStatus", mock.Anything, supervisor, "sol-1", mock.Anything).
		Return(domain.MudancaStatusResultado{}, apperror.NewInvalidTransitionError("aplicado", "cotacao"))

	rr := do(t, handler, http.MethodPost, "/solicitacoes/sol-1/status", tk, `{"status_novo":"cotacao"}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	var out domain.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	assert.Equal(t, "INVALID_TRANSITION", out.Category)
}

func TestChangeStatus_LojaForaDoEscopoRetorna403(t *testing.T) {
	handler, svc, tk := setup(t)

	svc.On("ChangeStatus", mock.Anything, supervisor, "sol-2", mock.Anything).
		Return(domain.MudancaStatusResultado{}, apperror.NewForbiddenError("Loja fora do seu escopo."))

	rr := do(t, handler, http.MethodPost, "/solicitacoes/sol-2/status", tk, `{"status_novo":"cotacao"}`)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestAprovarOC_SupervisorBarradoNoMiddleware(t *testing.T) {
	handler, _, tk := setup(t)

	rr := do(t, handler, http.MethodPost, "/solicitacoes/sol-1/aprovar-oc", tk, "")

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestMetodoNaoRegistradoRetorna405(t *testing.T) {
	handler, _, tk := setup(t)

	rr := do(t, handler, http.MethodPatch, "/solicitacoes/sol-1/status", tk, "")

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestFiltrosDeIDInvalidosRetornam400(t *testing.T) {
	handler, svc, tk := setup(t)

	paths := []string{
		"/estoque/saldos?estoque_local_id=abc",
		"/estoque/movimentos?produto_id=abc",
		"/estoque/movimentos?estoque_local_id=1%27%20or%201=1",
		"/estoque/movimentos?referencia_id=123",
		"/solicitacoes?loja_id=loja-A",
	}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			rr := do(t, handler, http.MethodGet, path, tk, "")

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			var out domain.ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
			assert.Equal(t, "VALIDATION_ERROR", out.Category)
		})
	}
	svc.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
}

func TestListSolicitacoes_FiltroLojaValidoChegaAoServico(t *testing.T) {
	handler, svc, tk := setup(t)

	loja := "11111111-1111-1111-1111-111111111111"
	svc.On("List", mock.Anything, supervisor, mock.MatchedBy(func(f domain.SolicitacaoFiltro) bool {
		return f.LojaID == loja
	})).Return([]domain.Solicitacao{}, nil)

	rr := do(t, handler, http.MethodGet, "/solicitacoes?loja_id="+loja, tk, "")

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}
