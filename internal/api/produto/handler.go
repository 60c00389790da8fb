package produto

import (
	"context"
	"net/http"

	"estoquemkt/internal/api/respond"
	"estoquemkt/internal/domain"
	"estoquemkt/internal/pkg/logger"
)

// ProdutoService define o contrato que o Handler espera da camada de Serviço.
type ProdutoService interface {
	List(ctx context.Context, f domain.ProdutoFiltro) ([]domain.Produto, error)
	Get(ctx context.Context, id string) (domain.Produto, error)
	Create(ctx context.Context, caller domain.Caller, in domain.CreateProdutoInput) (domain.Produto, error)
	Update(ctx context.Context, id string, in domain.UpdateProdutoInput) (domain.Produto, error)
	Delete(ctx context.Context, id string) error
}

// Handler agrupa as rotas de produtos.
type Handler struct {
	Service ProdutoService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc ProdutoService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log}
}

// ListHandler lida com GET /produtos.
// @Summary Lista produtos
// @Tags produtos
// @Produce json
// @Param search query string false "Busca por nome ou SKU"
// @Param categoria_id query string false "ID da categoria"
// @Param categoria query string false "Nome da categoria"
// @Param ativo query bool false "Filtra por situação"
// @Param com_estoque_local_id query string false "Somente produtos com saldo no local"
// @Success 200 {array} domain.Produto
// @Security ApiKeyAuth
// @Router /produtos [get]
func (h *Handler) ListHandler(w http.ResponseWriter, r *http.Request) {
	ativo, err := respond.BoolQuery(r, "ativo")
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}

	q := r.URL.Query()
	produtos, err := h.Service.List(r.Context(), domain.ProdutoFiltro{
		Search:            q.Get("search"),
		CategoriaID:       q.Get("categoria_id"),
		Categoria:         q.Get("categoria"),
		Ativo:             ativo,
		ComEstoqueLocalID: q.Get("com_estoque_local_id"),
	})
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, http.StatusOK, produtos)
}

// GetHandler lida com GET /produtos/{id}.
// @Summary Obtém um produto por ID
// @Tags produtos
// @Produce json
// @Param id path string true "ID do produto"
// @Success 200 {object} domain.Produto
// @Failure 404 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /produtos/{id} [get]
func (h *Handler) GetHandler(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, http.StatusOK, p)
}

// CreateHandler lida com POST /produtos.
// @Summary Cria um produto
// @Description Quantidade inicial maior que zero gera uma entrada no estoque central.
// @Tags produtos
// @Accept json
// @Produce json
// @Param produto body domain.CreateProdutoInput true "Dados do produto"
// @Success 201 {object} domain.Produto
// @Failure 400 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "SKU duplicado"
// @Security ApiKeyAuth
// @Router /produtos [post]
func (h *Handler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	caller, err := respond.Caller(r)
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}

	var in domain.CreateProdutoInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}

	p, err := h.Service.Create(r.Context(), caller, in)
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, http.StatusCreated, p)
}

// UpdateHandler lida com PUT /produtos/{id}.
// @Summary Atualiza um produto
// @Tags produtos
// @Accept json
// @Produce json
// @Param id path string true "ID do produto"
// @Param produto body domain.UpdateProdutoInput true "Campos a alterar"
// @Success 200 {object} domain.Produto
// @Failure 404 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /produtos/{id} [put]
func (h *Handler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	var in domain.UpdateProdutoInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}

	p, err := h.Service.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, http.StatusOK, p)
}

// DeleteHandler lida com DELETE /produtos/{id} (exclusão lógica).
// @Summary Desativa um produto
// @Tags produtos
// @Param id path string true "ID do produto"
// @Success 204
// @Failure 404 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /produtos/{id} [delete]
func (h *Handler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), r.PathValue("id")); err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
