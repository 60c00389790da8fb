package solicitacao

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"estoquemkt/internal/api/respond"
	"estoquemkt/internal/domain"
	apperror "estoquemkt/internal/errors"
	"estoquemkt/internal/pkg/logger"
	"estoquemkt/internal/pkg/validator"
)

// SolicitacaoService define o contrato que o Handler espera da camada de Serviço.
type SolicitacaoService interface {
	List(ctx context.Context, caller domain.Caller, f domain.SolicitacaoFiltro) ([]domain.Solicitacao, error)
	Alertas(ctx context.Context, caller domain.Caller) ([]domain.Solicitacao, error)
	Get(ctx context.Context, caller domain.Caller, id string) (domain.Solicitacao, error)
	Create(ctx context.Context, caller domain.Caller, in domain.CreateSolicitacaoInput) (domain.Solicitacao, error)
	Update(ctx context.Context, caller domain.Caller, id string, in domain.UpdateSolicitacaoInput) (domain.Solicitacao, error)
	AddItem(ctx context.Context, caller domain.Caller, id string, in domain.NovoItemInput) (domain.Item, error)
	UpdateItem(ctx context.Context, caller domain.Caller, id, itemID string, in domain.UpdateItemInput) (domain.Item, error)
	DeleteItem(ctx context.Context, caller domain.Caller, id, itemID string) error
	ChangeStatus(ctx context.Context, caller domain.Caller, id string, in domain.MudancaStatusInput) (domain.MudancaStatusResultado, error)
	AprovarOC(ctx context.Context, caller domain.Caller, id string) (domain.Solicitacao, error)
	ReprovarOC(ctx context.Context, caller domain.Caller, id string, in domain.ReprovarOCInput) (domain.Solicitacao, error)
	ConfirmarRetirada(ctx context.Context, caller domain.Caller, id string, in domain.ComprovanteInput) (domain.Comprovante, error)
	ConfirmarEnvio(ctx context.Context, caller domain.Caller, id string, in domain.ComprovanteInput) (domain.Comprovante, error)
	ConfirmarAplicacao(ctx context.Context, caller domain.Caller, id string, in domain.ComprovanteInput) (domain.Comprovante, error)
	Logs(ctx context.Context, caller domain.Caller, id string) ([]domain.StatusLog, error)
}

// Handler agrupa as rotas de solicitações.
type Handler struct {
	Service SolicitacaoService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc SolicitacaoService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log}
}

// ListHandler lida com GET /solicitacoes.
// @Summary Lista solicitações
// @Description ativo padrão true; "all" traz ativas e inativas.
// @Tags solicitacoes
// @Produce json
// @Param status query string false "Status"
// @Param loja_id query string false "ID da loja"
// @Param search query string false "Busca no objetivo ou nome da loja"
// @Param periodo_inicio query string false "Data inicial (AAAA-MM-DD)"
// @Param periodo_fim query string false "Data final (AAAA-MM-DD)"
// @Param ativo query string false "true, false ou all"
// @Success 200 {array} domain.Solicitacao
// @Security ApiKeyAuth
// @Router /solicitacoes [get]
func (h *Handler) ListHandler(w http.ResponseWriter, r *http.Request) {
	caller, err := respond.Caller(r)
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}

	f, err := filtro(r)
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}

	lista, err := h.Service.List(r.Context(), caller, f)
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, http.StatusOK, lista)
}

// AlertasHandler lida com GET /alertas.
// @Summary Solicitações prontas para retirada
// @Tags solicitacoes
// @Produce json
// @Success 200 {array} domain.Solicitacao
// @Security ApiKeyAuth
// @Router /alertas [get]
func (h *Handler) AlertasHandler(w http.ResponseWriter, r *http.Request) {
	caller, err := respond.Caller(r)
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}

	lista, err := h.Service.Alertas(r.Context(), caller)
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, http.StatusOK, lista)
}

// GetHandler lida com GET /solicitacoes/{id}.
// @Summary Detalha uma solicitação
// @Tags solicitacoes
// @Produce json
// @Param id path string true "ID da solicitação"
// @Success 200 {object} domain.Solicitacao
// @Failure 403 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /solicitacoes/{id} [get]
func (h *Handler) GetHandler(w http.ResponseWriter, r *http.Request) {
	caller, err := respond.Caller(r)
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}

	sol, err := h.Service.Get(r.Context(), caller, r.PathValue("id"))
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, http.StatusOK, sol)
}

// CreateHandler lida com POST /solicitacoes.
// @Summary Abre uma solicitação
// @Tags solicitacoes
// @Accept json
// @Produce json
// @Param solicitacao body domain.CreateSolicitacaoInput true "Solicitação com itens"
// @Success 201 {object} domain.Solicitacao
// @Failure 400 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /solicitacoes [post]
func (h *Handler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var in domain.CreateSolicitacaoInput
	h.executar(w, r, &in, http.StatusCreated, func(ctx context.Context, caller domain.Caller) (interface{}, error) {
		return h.Service.Create(ctx, caller, in)
	})
}

// UpdateHandler lida com PUT /solicitacoes/{id}.
// @Summary Atualiza uma solicitação
// @Tags solicitacoes
// @Accept json
// @Produce json
// @Param id path string true "ID da solicitação"
// @Param solicitacao body domain.UpdateSolicitacaoInput true "Campos a alterar"
// @Success 200 {object} domain.Solicitacao
// @Failure 400 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /solicitacoes/{id} [put]
func (h *Handler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	var in domain.UpdateSolicitacaoInput
	h.executar(w, r, &in, http.StatusOK, func(ctx context.Context, caller domain.Caller) (interface{}, error) {
		return h.Service.Update(ctx, caller, r.PathValue("id"), in)
	})
}

// AddItemHandler lida com POST /solicitacoes/{id}/itens.
// @Summary Adiciona um item
// @Tags solicitacoes
// @Accept json
// @Produce json
// @Param id path string true "ID da solicitação"
// @Param item body domain.NovoItemInput true "Item"
// @Success 201 {object} domain.Item
// @Security ApiKeyAuth
// @Router /solicitacoes/{id}/itens [post]
func (h *Handler) AddItemHandler(w http.ResponseWriter, r *http.Request) {
	var in domain.NovoItemInput
	h.executar(w, r, &in, http.StatusCreated, func(ctx context.Context, caller domain.Caller) (interface{}, error) {
		return h.Service.AddItem(ctx, caller, r.PathValue("id"), in)
	})
}

// UpdateItemHandler lida com PUT /solicitacoes/{id}/itens/{item_id}.
// @Summary Atualiza quantidades de um item
// @Tags solicitacoes
// @Accept json
// @Produce json
// @Param id path string true "ID da solicitação"
// @Param item_id path string true "ID do item"
// @Param item body domain.UpdateItemInput true "Campos a alterar"
// @Success 200 {object} domain.Item
// @Security ApiKeyAuth
// @Router /solicitacoes/{id}/itens/{item_id} [put]
func (h *Handler) UpdateItemHandler(w http.ResponseWriter, r *http.Request) {
	var in domain.UpdateItemInput
	h.executar(w, r, &in, http.StatusOK, func(ctx context.Context, caller domain.Caller) (interface{}, error) {
		return h.Service.UpdateItem(ctx, caller, r.PathValue("id"), r.PathValue("item_id"), in)
	})
}

// DeleteItemHandler lida com DELETE /solicitacoes/{id}/itens/{item_id}.
// @Summary Remove um item
// @Tags solicitacoes
// @Param id path string true "ID da solicitação"
// @Param item_id path string true "ID do item"
// @Success 204
// @Security ApiKeyAuth
// @Router /solicitacoes/{id}/itens/{item_id} [delete]
func (h *Handler) DeleteItemHandler(w http.ResponseWriter, r *http.Request) {
	caller, err := respond.Caller(r)
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}

	if err := h.Service.DeleteItem(r.Context(), caller, r.PathValue("id"), r.PathValue("item_id")); err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ChangeStatusHandler lida com POST /solicitacoes/{id}/status.
// @Summary Muda o status da solicitação
// @Description Nos status pronto_para_retirar, enviado_para_loja e aplicado a resposta inclui o relatório de integração com o estoque.
// @Tags solicitacoes
// @Accept json
// @Produce json
// @Param id path string true "ID da solicitação"
// @Param status body domain.MudancaStatusInput true "Novo status e motivo"
// @Success 200 {object} domain.MudancaStatusResultado
// @Failure 400 {object} domain.ErrorResponse "Transição inválida"
// @Failure 403 {object} domain.ErrorResponse "Loja fora do escopo"
// @Failure 409 {object} domain.ErrorResponse "Status alterado por outra operação"
// @Security ApiKeyAuth
// @Router /solicitacoes/{id}/status [post]
func (h *Handler) ChangeStatusHandler(w http.ResponseWriter, r *http.Request) {
	var in domain.MudancaStatusInput
	h.executar(w, r, &in, http.StatusOK, func(ctx context.Context, caller domain.Caller) (interface{}, error) {
		return h.Service.ChangeStatus(ctx, caller, r.PathValue("id"), in)
	})
}

// AprovarOCHandler lida com POST /solicitacoes/{id}/aprovar-oc.
// @Summary Aprova a OC (itens aprovados = solicitados)
// @Tags solicitacoes
// @Produce json
// @Param id path string true "ID da solicitação"
// @Success 200 {object} domain.Solicitacao
// @Failure 400 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /solicitacoes/{id}/aprovar-oc [post]
func (h *Handler) AprovarOCHandler(w http.ResponseWriter, r *http.Request) {
	caller, err := respond.Caller(r)
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}

	sol, err := h.Service.AprovarOC(r.Context(), caller, r.PathValue("id"))
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, http.StatusOK, sol)
}

// ReprovarOCHandler lida com POST /solicitacoes/{id}/reprovar-oc.
// @Summary Reprova a OC e devolve para cotação
// @Tags solicitacoes
// @Accept json
// @Produce json
// @Param id path string true "ID da solicitação"
// @Param motivo body domain.ReprovarOCInput true "Motivo"
// @Success 200 {object} domain.Solicitacao
// @Failure 400 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /solicitacoes/{id}/reprovar-oc [post]
func (h *Handler) ReprovarOCHandler(w http.ResponseWriter, r *http.Request) {
	var in domain.ReprovarOCInput
	h.executar(w, r, &in, http.StatusOK, func(ctx context.Context, caller domain.Caller) (interface{}, error) {
		return h.Service.ReprovarOC(ctx, caller, r.PathValue("id"), in)
	})
}

// ConfirmarRetiradaHandler lida com POST /solicitacoes/{id}/confirmar-retirada.
// @Summary Registra comprovante de retirada
// @Tags solicitacoes
// @Accept json
// @Produce json
// @Param id path string true "ID da solicitação"
// @Param comprovante body domain.ComprovanteInput true "Comprovante"
// @Success 201 {object} domain.Comprovante
// @Security ApiKeyAuth
// @Router /solicitacoes/{id}/confirmar-retirada [post]
func (h *Handler) ConfirmarRetiradaHandler(w http.ResponseWriter, r *http.Request) {
	var in domain.ComprovanteInput
	h.executar(w, r, &in, http.StatusCreated, func(ctx context.Context, caller domain.Caller) (interface{}, error) {
		return h.Service.ConfirmarRetirada(ctx, caller, r.PathValue("id"), in)
	})
}

// ConfirmarEnvioHandler lida com POST /solicitacoes/{id}/confirmar-envio.
// @Summary Registra comprovante de envio
// @Tags solicitacoes
// @Accept json
// @Produce json
// @Param id path string true "ID da solicitação"
// @Param comprovante body domain.ComprovanteInput true "Comprovante"
// @Success 201 {object} domain.Comprovante
// @Security ApiKeyAuth
// @Router /solicitacoes/{id}/confirmar-envio [post]
func (h *Handler) ConfirmarEnvioHandler(w http.ResponseWriter, r *http.Request) {
	var in domain.ComprovanteInput
	h.executar(w, r, &in, http.StatusCreated, func(ctx context.Context, caller domain.Caller) (interface{}, error) {
		return h.Service.ConfirmarEnvio(ctx, caller, r.PathValue("id"), in)
	})
}

// ConfirmarAplicacaoHandler lida com POST /solicitacoes/{id}/confirmar-aplicacao.
// @Summary Registra comprovante de aplicação
// @Tags solicitacoes
// @Accept json
// @Produce json
// @Param id path string true "ID da solicitação"
// @Param comprovante body domain.ComprovanteInput true "Comprovante"
// @Success 201 {object} domain.Comprovante
// @Security ApiKeyAuth
// @Router /solicitacoes/{id}/confirmar-aplicacao [post]
func (h *Handler) ConfirmarAplicacaoHandler(w http.ResponseWriter, r *http.Request) {
	var in domain.ComprovanteInput
	h.executar(w, r, &in, http.StatusCreated, func(ctx context.Context, caller domain.Caller) (interface{}, error) {
		return h.Service.ConfirmarAplicacao(ctx, caller, r.PathValue("id"), in)
	})
}

// LogsHandler lida com GET /solicitacoes/{id}/logs.
// @Summary Trilha de status da solicitação
// @Tags solicitacoes
// @Produce json
// @Param id path string true "ID da solicitação"
// @Success 200 {array} domain.StatusLog
// @Failure 403 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /solicitacoes/{id}/logs [get]
func (h *Handler) LogsHandler(w http.ResponseWriter, r *http.Request) {
	caller, err := respond.Caller(r)
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}

	logs, err := h.Service.Logs(r.Context(), caller, r.PathValue("id"))
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, http.StatusOK, logs)
}

// executar decodifica o corpo em in, chama fn e responde com status em caso de sucesso.
func (h *Handler) executar(w http.ResponseWriter, r *http.Request, in interface{}, status int,
	fn func(ctx context.Context, caller domain.Caller) (interface{}, error)) {

	caller, err := respond.Caller(r)
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	if err := respond.Decode(r, in); err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}

	out, err := fn(r.Context(), caller)
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, status, out)
}

func filtro(r *http.Request) (domain.SolicitacaoFiltro, error) {
	q := r.URL.Query()
	f := domain.SolicitacaoFiltro{
		Status: domain.Status(q.Get("status")),
		LojaID: q.Get("loja_id"),
		Search: q.Get("search"),
	}
	if f.Status != "" && !f.Status.Valid() {
		return f, apperror.NewValidationError(fmt.Sprintf("status desconhecido: %s", f.Status))
	}
	if f.LojaID != "" {
		if err := validator.UUID("loja_id", f.LojaID); err != nil {
			return f, err
		}
	}

	switch ativo := strings.ToLower(strings.TrimSpace(q.Get("ativo"))); ativo {
	case "":
		v := true
		f.Ativo = &v
	case "all":
	default:
		v, err := strconv.ParseBool(ativo)
		if err != nil {
			return f, apperror.NewValidationError("ativo deve ser true, false ou all")
		}
		f.Ativo = &v
	}

	var err error
	if f.PeriodoInicio, err = data(q.Get("periodo_inicio"), "periodo_inicio", false); err != nil {
		return f, err
	}
	if f.PeriodoFim, err = data(q.Get("periodo_fim"), "periodo_fim", true); err != nil {
		return f, err
	}
	return f, nil
}

// data aceita AAAA-MM-DD ou RFC3339. Para o fim do período uma data simples cobre o dia inteiro.
func data(raw, campo string, fimDoDia bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, apperror.NewValidationError(fmt.Sprintf("%s deve estar no formato AAAA-MM-DD", campo))
	}
	if fimDoDia {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
