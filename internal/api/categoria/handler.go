package categoria

import (
	"context"
	"net/http"

	"estoquemkt/internal/api/respond"
	"estoquemkt/internal/domain"
	"estoquemkt/internal/pkg/logger"
)

// CategoriaService define o contrato que o Handler espera da camada de Serviço.
type CategoriaService interface {
	List(ctx context.Context, f domain.CategoriaFiltro) ([]domain.Categoria, error)
	Get(ctx context.Context, id string) (domain.Categoria, error)
	Create(ctx context.Context, in domain.CategoriaInput) (domain.Categoria, error)
	Update(ctx context.Context, id string, in domain.CategoriaUpdate) (domain.Categoria, error)
	Delete(ctx context.Context, id string) error
}

// Handler agrupa as rotas de categorias.
type Handler struct {
	Service CategoriaService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc CategoriaService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log}
}

// ListHandler lida com GET /categorias.
// @Summary Lista categorias
// @Tags categorias
// @Produce json
// @Param search query string false "Busca por nome"
// @Param ativo query bool false "Filtra por situação"
// @Success 200 {array} domain.Categoria
// @Security ApiKeyAuth
// @Router /categorias [get]
func (h *Handler) ListHandler(w http.ResponseWriter, r *http.Request) {
	ativo, err := respond.BoolQuery(r, "ativo")
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}

	categorias, err := h.Service.List(r.Context(), domain.CategoriaFiltro{
		Search: r.URL.Query().Get("search"),
		Ativo:  ativo,
	})
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, http.StatusOK, categorias)
}

// GetHandler lida com GET /categorias/{id}.
// @Summary Obtém uma categoria por ID
// @Tags categorias
// @Produce json
// @Param id path string true "ID da categoria"
// @Success 200 {object} domain.Categoria
// @Failure 404 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /categorias/{id} [get]
func (h *Handler) GetHandler(w http.ResponseWriter, r *http.Request) {
	c, err := h.Service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, http.StatusOK, c)
}

// CreateHandler lida com POST /categorias.
// @Summary Cria uma categoria
// @Tags categorias
// @Accept json
// @Produce json
// @Param categoria body domain.CategoriaInput true "Dados da categoria"
// @Success 201 {object} domain.Categoria
// @Failure 400 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Nome já existe"
// @Security ApiKeyAuth
// @Router /categorias [post]
func (h *Handler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var in domain.CategoriaInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}

	c, err := h.Service.Create(r.Context(), in)
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, http.StatusCreated, c)
}

// UpdateHandler lida com PUT /categorias/{id}.
// @Summary Atualiza uma categoria
// @Tags categorias
// @Accept json
// @Produce json
// @Param id path string true "ID da categoria"
// @Param categoria body domain.CategoriaUpdate true "Campos a alterar"
// @Success 200 {object} domain.Categoria
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /categorias/{id} [put]
func (h *Handler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	var in domain.CategoriaUpdate
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}

	c, err := h.Service.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, http.StatusOK, c)
}

// DeleteHandler lida com DELETE /categorias/{id}.
// @Summary Remove uma categoria sem produtos
// @Tags categorias
// @Param id path string true "ID da categoria"
// @Success 204
// @Failure 409 {object} domain.ErrorResponse "Categoria com produtos"
// @Security ApiKeyAuth
// @Router /categorias/{id} [delete]
func (h *Handler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), r.PathValue("id")); err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
