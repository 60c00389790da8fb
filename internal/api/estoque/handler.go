package estoque

import (
	"context"
	"net/http"

	"estoquemkt/internal/api/respond"
	"estoquemkt/internal/domain"
	"estoquemkt/internal/pkg/logger"
)

// EstoqueService define o contrato que o Handler espera do livro de estoque.
type EstoqueService interface {
	ListLocais(ctx context.Context, caller domain.Caller) ([]domain.EstoqueLocal, error)
	ListSaldos(ctx context.Context, caller domain.Caller, f domain.SaldoFiltro) ([]domain.Saldo, error)
	ListMovimentos(ctx context.Context, caller domain.Caller, f domain.MovimentoFiltro) ([]domain.Movimento, error)
	Entrada(ctx context.Context, caller domain.Caller, in domain.EntradaInput) (domain.Movimento, error)
	Saida(ctx context.Context, caller domain.Caller, in domain.SaidaInput) (domain.Movimento, error)
	Transferencia(ctx context.Context, caller domain.Caller, in domain.TransferenciaInput) (domain.Movimento, error)
	Ajuste(ctx context.Context, caller domain.Caller, in domain.AjusteInput) (domain.Movimento, error)
}

// Handler agrupa as rotas de locais, saldos e movimentos.
type Handler struct {
	Service EstoqueService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc EstoqueService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log}
}

// ListLocaisHandler lida com GET /estoques/locais.
// @Summary Lista os locais de estoque visíveis
// @Tags estoque
// @Produce json
// @Success 200 {array} domain.EstoqueLocal
// @Security ApiKeyAuth
// @Router /estoques/locais [get]
func (h *Handler) ListLocaisHandler(w http.ResponseWriter, r *http.Request) {
	caller, err := respond.Caller(r)
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}

	locais, err := h.Service.ListLocais(r.Context(), caller)
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, http.StatusOK, locais)
}

// ListSaldosHandler lida com GET /estoque/saldos.
// @Summary Lista saldos por produto e local
// @Tags estoque
// @Produce json
// @Param estoque_local_id query string false "ID do local"
// @Param categoria query string false "Nome da categoria"
// @Param search query string false "Busca por nome ou SKU do produto"
// @Success 200 {array} domain.Saldo
// @Security ApiKeyAuth
// @Router /estoque/saldos [get]
func (h *Handler) ListSaldosHandler(w http.ResponseWriter, r *http.Request) {
	caller, err := respond.Caller(r)
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}

	localID, err := respond.UUIDQuery(r, "estoque_local_id")
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}

	q := r.URL.Query()
	saldos, err := h.Service.ListSaldos(r.Context(), caller, domain.SaldoFiltro{
		EstoqueLocalID: localID,
		Categoria:      q.Get("categoria"),
		Search:         q.Get("search"),
	})
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, http.StatusOK, saldos)
}

// ListMovimentosHandler lida com GET /estoque/movimentos.
// @Summary Lista movimentos, do mais recente para o mais antigo
// @Tags estoque
// @Produce json
// @Param produto_id query string false "ID do produto"
// @Param estoque_local_id query string false "Local de origem ou destino"
// @Param referencia_id query string false "ID da solicitação de origem"
// @Param limit query int false "Máximo de linhas (padrão 100, máximo 500)"
// @Success 200 {array} domain.Movimento
// @Security ApiKeyAuth
// @Router /estoque/movimentos [get]
func (h *Handler) ListMovimentosHandler(w http.ResponseWriter, r *http.Request) {
	caller, err := respond.Caller(r)
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	limit, err := respond.IntQuery(r, "limit")
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}

	var f domain.MovimentoFiltro
	for _, p := range []struct {
		nome  string
		campo *string
	}{
		{"produto_id", &f.ProdutoID},
		{"estoque_local_id", &f.EstoqueLocalID},
		{"referencia_id", &f.ReferenciaID},
	} {
		if *p.campo, err = respond.UUIDQuery(r, p.nome); err != nil {
			respond.Error(w, r, h.Logger, err)
			return
		}
	}
	f.Limit = limit

	movimentos, err := h.Service.ListMovimentos(r.Context(), caller, f)
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, http.StatusOK, movimentos)
}

// EntradaHandler lida com POST /estoque/entrada.
// @Summary Lança entrada de material
// @Tags estoque
// @Accept json
// @Produce json
// @Param entrada body domain.EntradaInput true "Entrada"
// @Success 201 {object} domain.Movimento
// @Failure 400 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /estoque/entrada [post]
func (h *Handler) EntradaHandler(w http.ResponseWriter, r *http.Request) {
	var in domain.EntradaInput
	h.lancar(w, r, &in, func(ctx context.Context, caller domain.Caller) (domain.Movimento, error) {
		return h.Service.Entrada(ctx, caller, in)
	})
}

// SaidaHandler lida com POST /estoque/saida.
// @Summary Lança saída de material
// @Tags estoque
// @Accept json
// @Produce json
// @Param saida body domain.SaidaInput true "Saída"
// @Success 201 {object} domain.Movimento
// @Failure 400 {object} domain.ErrorResponse "Inclui estoque insuficiente"
// @Failure 403 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /estoque/saida [post]
func (h *Handler) SaidaHandler(w http.ResponseWriter, r *http.Request) {
	var in domain.SaidaInput
	h.lancar(w, r, &in, func(ctx context.Context, caller domain.Caller) (domain.Movimento, error) {
		return h.Service.Saida(ctx, caller, in)
	})
}

// TransferenciaHandler lida com POST /estoque/transferencia.
// @Summary Transfere material entre locais
// @Tags estoque
// @Accept json
// @Produce json
// @Param transferencia body domain.TransferenciaInput true "Transferência"
// @Success 201 {object} domain.Movimento
// @Failure 400 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /estoque/transferencia [post]
func (h *Handler) TransferenciaHandler(w http.ResponseWriter, r *http.Request) {
	var in domain.TransferenciaInput
	h.lancar(w, r, &in, func(ctx context.Context, caller domain.Caller) (domain.Movimento, error) {
		return h.Service.Transferencia(ctx, caller, in)
	})
}

// AjusteHandler lida com POST /estoque/ajuste.
// @Summary Ajusta o saldo para a quantidade informada
// @Tags estoque
// @Accept json
// @Produce json
// @Param ajuste body domain.AjusteInput true "Ajuste"
// @Success 201 {object} domain.Movimento
// @Failure 400 {object} domain.ErrorResponse "Inclui ajuste sem alteração"
// @Failure 403 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /estoque/ajuste [post]
func (h *Handler) AjusteHandler(w http.ResponseWriter, r *http.Request) {
	var in domain.AjusteInput
	h.lancar(w, r, &in, func(ctx context.Context, caller domain.Caller) (domain.Movimento, error) {
		return h.Service.Ajuste(ctx, caller, in)
	})
}

// lancar decodifica o payload em in e executa o lançamento.
func (h *Handler) lancar(w http.ResponseWriter, r *http.Request, in interface{},
	fn func(ctx context.Context, caller domain.Caller) (domain.Movimento, error)) {

	caller, err := respond.Caller(r)
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	if err := respond.Decode(r, in); err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}

	mov, err := fn(r.Context(), caller)
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, http.StatusCreated, mov)
}
