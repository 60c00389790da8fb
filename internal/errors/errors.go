package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError é a interface central para todos os erros customizados da API de estoque.
// Ela permite que o código externo (Handler) acesse a Categoria e a Mensagem do erro.
type AppError interface {
	Error() string    // Implementa a interface error padrão do Go
	Category() string // Categoria do erro (e.g., "VALIDATION_ERROR", "NOT_FOUND")
	HTTPStatus() int  // Código HTTP sugerido para o Handler
	Unwrap() error    // Permite encapsular erros subjacentes (original error)
}

// --- Tipos de Erro Específicos (Erros de Domínio) ---

// ValidationError representa falhas de validação de dados de entrada.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string    { return fmt.Sprintf("Erro de Validação: %s", e.Msg) }
func (e *ValidationError) Category() string { return "VALIDATION_ERROR" }
func (e *ValidationError) HTTPStatus() int  { return http.StatusBadRequest } // 400
func (e *ValidationError) Unwrap() error    { return nil }

// NewValidationError cria um novo erro de validação.
func NewValidationError(msg string) AppError {
	return &ValidationError{Msg: msg}
}

// InvalidTransitionError indica uma mudança de status fora do grafo permitido.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("Transição de status inválida: %s -> %s", e.From, e.To)
}
func (e *InvalidTransitionError) Category() string { return "INVALID_TRANSITION" }
func (e *InvalidTransitionError) HTTPStatus() int  { return http.StatusBadRequest } // 400
func (e *InvalidTransitionError) Unwrap() error    { return nil }

// NewInvalidTransitionError cria um erro de transição de status inválida.
func NewInvalidTransitionError(from, to string) AppError {
	return &InvalidTransitionError{From: from, To: to}
}

// InsufficientStockError indica que o movimento deixaria o saldo da origem negativo.
type InsufficientStockError struct {
	ProdutoID  string
	LocalID    string
	Disponivel int
	Solicitado int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Estoque insuficiente: disponível %d, solicitado %d (produto %s, local %s)",
		e.Disponivel, e.Solicitado, e.ProdutoID, e.LocalID)
}
func (e *InsufficientStockError) Category() string { return "INSUFFICIENT_STOCK" }
func (e *InsufficientStockError) HTTPStatus() int  { return http.StatusBadRequest } // 400
func (e *InsufficientStockError) Unwrap() error    { return nil }

// NewInsufficientStockError cria um erro de estoque insuficiente.
func NewInsufficientStockError(produtoID, localID string, disponivel, solicitado int) AppError {
	return &InsufficientStockError{ProdutoID: produtoID, LocalID: localID, Disponivel: disponivel, Solicitado: solicitado}
}

// UnauthorizedError representa ausência ou invalidade de credenciais.
type UnauthorizedError struct {
	Msg string
}

func (e *UnauthorizedError) Error() string    { return fmt.Sprintf("Não autorizado: %s", e.Msg) }
func (e *UnauthorizedError) Category() string { return "UNAUTHORIZED" }
func (e *UnauthorizedError) HTTPStatus() int  { return http.StatusUnauthorized } // 401
func (e *UnauthorizedError) Unwrap() error    { return nil }

// NewUnauthorizedError cria um novo erro de autenticação.
func NewUnauthorizedError(msg string) AppError {
	return &UnauthorizedError{Msg: msg}
}

// ForbiddenError representa acesso fora do escopo do usuário (nível ou lojas vinculadas).
type ForbiddenError struct {
	Msg string
}

func (e *ForbiddenError) Error() string    { return fmt.Sprintf("Acesso negado: %s", e.Msg) }
func (e *ForbiddenError) Category() string { return "FORBIDDEN" }
func (e *ForbiddenError) HTTPStatus() int  { return http.StatusForbidden } // 403
func (e *ForbiddenError) Unwrap() error    { return nil }

// NewForbiddenError cria um novo erro de acesso negado.
func NewForbiddenError(msg string) AppError {
	return &ForbiddenError{Msg: msg}
}

// NotFoundError representa a ausência de um recurso solicitado.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string    { return fmt.Sprintf("Recurso não encontrado: %s", e.Msg) }
func (e *NotFoundError) Category() string { return "NOT_FOUND" }
func (e *NotFoundError) HTTPStatus() int  { return http.StatusNotFound } // 404
func (e *NotFoundError) Unwrap() error    { return nil }

// NewNotFoundError cria um novo erro de recurso não encontrado.
func NewNotFoundError(msg string) AppError {
	return &NotFoundError{Msg: msg}
}

// ConflictError representa um conflito na regra de negócio (e.g., OCC, recurso duplicado).
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string    { return fmt.Sprintf("Conflito de estado: %s", e.Msg) }
func (e *ConflictError) Category() string { return "CONFLICT" }
func (e *ConflictError) HTTPStatus() int  { return http.StatusConflict } // 409
func (e *ConflictError) Unwrap() error    { return nil }

// NewConflictError cria um novo erro de conflito (usado em OCC).
func NewConflictError(msg string) AppError {
	return &ConflictError{Msg: msg}
}

// --- Tipos de Erro de Infraestrutura (Encapsulamento) ---

// ConfigurationError indica que um pré-requisito administrativo não existe
// (ex: estoque central ou estoque da loja não cadastrado).
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string    { return fmt.Sprintf("Erro de Configuração: %s", e.Msg) }
func (e *ConfigurationError) Category() string { return "CONFIGURATION_ERROR" }
func (e *ConfigurationError) HTTPStatus() int  { return http.StatusInternalServerError } // 500
func (e *ConfigurationError) Unwrap() error    { return nil }

// NewConfigurationError cria um erro de configuração.
func NewConfigurationError(msg string) AppError {
	return &ConfigurationError{Msg: msg}
}

// PostingError representa a falha ao lançar o movimento de um item específico.
// Nunca é devolvido ao cliente da mudança de status, apenas registrado no relatório.
type PostingError struct {
	ItemID string
	Err    error
}

func (e *PostingError) Error() string {
	return fmt.Sprintf("Falha ao lançar movimento do item %s: %v", e.ItemID, e.Err)
}
func (e *PostingError) Category() string { return "POSTING_FAILURE" }
func (e *PostingError) HTTPStatus() int  { return http.StatusInternalServerError } // 500
func (e *PostingError) Unwrap() error    { return e.Err }

// NewPostingError cria um erro de lançamento de item.
func NewPostingError(itemID string, err error) AppError {
	return &PostingError{ItemID: itemID, Err: err}
}

// InternalError representa falhas inesperadas no servidor, serviço ou repositório.
type InternalError struct {
	Msg string
	Err error // Erro original subjacente (e.g., erro do driver SQL)
}

func (e *InternalError) Error() string    { return fmt.Sprintf("Erro Interno: %s", e.Msg) }
func (e *InternalError) Category() string { return "INTERNAL_ERROR" }
func (e *InternalError) HTTPStatus() int  { return http.StatusInternalServerError } // 500
func (e *InternalError) Unwrap() error    { return e.Err }

// NewInternalError cria um erro de servidor (para falhas de lógica ou código não esperado).
func NewInternalError(msg string, err error) AppError {
	return &InternalError{Msg: msg, Err: err}
}

// NewDBError é um atalho para criar um InternalError específico de falhas no DB.
func NewDBError(msg string, err error) AppError {
	return NewInternalError(fmt.Sprintf("%s (DB): %s", msg, err.Error()), err)
}

// --- Helper para o Handler (Tradução Final) ---

// MapToHTTPStatus recebe um erro e o traduz para o código HTTP e corpo de resposta.
func MapToHTTPStatus(err error) (int, string, string) {
	var appErr AppError
	if stderrors.As(err, &appErr) {
		if appErr.HTTPStatus() >= http.StatusInternalServerError {
			// Não vaza detalhes do driver para o cliente
			if _, ok := appErr.(*InternalError); ok {
				return appErr.HTTPStatus(), appErr.Category(), "Ocorreu um erro interno. Tente novamente."
			}
		}
		return appErr.HTTPStatus(), appErr.Category(), appErr.Error()
	}

	// Erro não tipado (e.g., erro simples de pacote Go que não implementa AppError)
	return http.StatusInternalServerError, "UNKNOWN_ERROR", "Ocorreu um erro inesperado."
}
