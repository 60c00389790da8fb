package usuario

import (
	"context"
	"net/http"

	"estoquemkt/internal/api/respond"
	"estoquemkt/internal/domain"
	"estoquemkt/internal/pkg/logger"
)

// PerfilService fornece o perfil do usuário autenticado.
type PerfilService interface {
	Me(ctx context.Context, caller domain.Caller) (domain.Perfil, error)
}

// LojaService lista e busca lojas respeitando o escopo.
type LojaService interface {
	List(ctx context.Context, caller domain.Caller) ([]domain.Loja, error)
	Get(ctx context.Context, caller domain.Caller, id string) (domain.Loja, error)
}

// Handler agrupa as rotas de identidade e lojas.
type Handler struct {
	Perfil PerfilService
	Lojas  LojaService
	Logger logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando os Services e o Logger.
func NewHandler(perfil PerfilService, lojas LojaService, log logger.Logger) *Handler {
	return &Handler{Perfil: perfil, Lojas: lojas, Logger: log}
}

// MeHandler lida com GET /me.
// @Summary Perfil do usuário autenticado
// @Tags usuarios
// @Produce json
// @Success 200 {object} domain.Perfil
// @Failure 401 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse "Usuário sem perfil cadastrado"
// @Security ApiKeyAuth
// @Router /me [get]
func (h *Handler) MeHandler(w http.ResponseWriter, r *http.Request) {
	caller, err := respond.Caller(r)
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}

	perfil, err := h.Perfil.Me(r.Context(), caller)
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, http.StatusOK, perfil)
}

// ListLojasHandler lida com GET /lojas.
// @Summary Lista as lojas visíveis ao usuário
// @Tags lojas
// @Produce json
// @Success 200 {array} domain.Loja
// @Security ApiKeyAuth
// @Router /lojas [get]
func (h *Handler) ListLojasHandler(w http.ResponseWriter, r *http.Request) {
	caller, err := respond.Caller(r)
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}

	lojas, err := h.Lojas.List(r.Context(), caller)
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, http.StatusOK, lojas)
}

// GetLojaHandler lida com GET /lojas/{id}.
// @Summary Obtém uma loja por ID
// @Tags lojas
// @Produce json
// @Param id path string true "ID da loja"
// @Success 200 {object} domain.Loja
// @Failure 403 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /lojas/{id} [get]
func (h *Handler) GetLojaHandler(w http.ResponseWriter, r *http.Request) {
	caller, err := respond.Caller(r)
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}

	loja, err := h.Lojas.Get(r.Context(), caller, r.PathValue("id"))
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, http.StatusOK, loja)
}
