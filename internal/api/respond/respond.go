// Package respond concentra a escrita das respostas HTTP dos handlers.
package respond

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"estoquemkt/internal/domain"
	apperror "estoquemkt/internal/errors"
	"estoquemkt/internal/pkg/logger"
	"estoquemkt/internal/pkg/middleware"
	"estoquemkt/internal/pkg/validator"
)

// JSON escreve data com o status informado. data nil gera corpo vazio.
func JSON(w http.ResponseWriter, log logger.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error("Falha ao codificar JSON de resposta", err)
	}
}

// Error traduz o erro de serviço para status HTTP e corpo padronizado.
func Error(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	status, category, message := apperror.MapToHTTPStatus(err)

	if status >= http.StatusInternalServerError {
		log.Error(fmt.Sprintf("Erro de Servidor: %s", category), err)
	} else {
		log.Debug(fmt.Sprintf("Requisição rejeitada com status %d. Categoria: %s", status, category), map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
		})
	}

	JSON(w, log, status, domain.ErrorResponse{Code: status, Category: category, Message: message})
}

// Decode lê o corpo JSON. Corpo malformado vira ValidationError.
func Decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperror.NewValidationError("Payload inválido. Verifique o formato JSON.")
	}
	return nil
}

// Caller devolve o usuário carregado pelo middleware de perfil.
func Caller(r *http.Request) (domain.Caller, error) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		return domain.Caller{}, apperror.NewUnauthorizedError("Perfil do usuário não carregado.")
	}
	return caller, nil
}

// BoolQuery interpreta true/false da query string. Ausente ou vazio devolve nil.
func BoolQuery(r *http.Request, name string) (*bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperror.NewValidationError(fmt.Sprintf("%s deve ser true ou false", name))
	}
	return &v, nil
}

// IntQuery interpreta um inteiro da query string. Ausente devolve 0.
func IntQuery(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.NewValidationError(fmt.Sprintf("%s deve ser um número inteiro", name))
	}
	return v, nil
}

// UUIDQuery lê um filtro de ID da query string. Ausente devolve "", inválido é 400.
func UUIDQuery(r *http.Request, name string) (string, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return "", nil
	}
	if err := validator.UUID(name, raw); err != nil {
		return "", err
	}
	return raw, nil
}
