package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"estoquemkt/internal/domain"
	apperror "estoquemkt/internal/errors"
	"estoquemkt/internal/pkg/logger"
	"estoquemkt/internal/pkg/token"
)

// ContextKey é o tipo das chaves que este pacote grava no contexto.
type ContextKey int

const (
	UserClaimsKey ContextKey = iota
	CallerKey
)

// UserClaims representa os dados do usuário extraídos do token JWT.
type UserClaims struct {
	UserID string
	Email  string
}

// TokenService define o contrato de validação necessário para o middleware.
type TokenService interface {
	ValidateToken(tokenString string) (*token.CustomClaims, error)
}

// CallerLoader carrega o perfil (users_regras + lojas vinculadas) do usuário autenticado.
type CallerLoader interface {
	LoadCaller(ctx context.Context, userID, email string) (domain.Caller, error)
}

// NewAuthMiddleware valida o Bearer token e anexa as claims ao contexto da requisição.
func NewAuthMiddleware(tokenSvc TokenService) func(next http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			// 1. Extrair o Token do Header Authorization: Bearer <token>
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") || len(authHeader) <= len("Bearer ") {
				writeError(w, apperror.NewUnauthorizedError("Token não fornecido."))
				return
			}

			// 2. Validar o Token
			claims, err := tokenSvc.ValidateToken(strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				writeError(w, apperror.NewUnauthorizedError("Token inválido ou expirado."))
				return
			}

			// 3. Anexar Claims ao Contexto
			ctx := context.WithValue(r.Context(), UserClaimsKey, UserClaims{UserID: claims.UserID(), Email: claims.Email})
			next.ServeHTTP(w, r.WithContext(ctx))
		}
	}
}

// NewCallerMiddleware carrega o perfil do usuário e o anexa ao contexto.
// Deve rodar depois do NewAuthMiddleware.
func NewCallerMiddleware(loader CallerLoader, log logger.Logger) func(next http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetUserClaimsFromContext(r.Context())
			if !ok {
				writeError(w, apperror.NewUnauthorizedError("Usuário não autenticado."))
				return
			}

			caller, err := loader.LoadCaller(r.Context(), claims.UserID, claims.Email)
			if err != nil {
				log.Warn("Falha ao carregar perfil do usuário.", map[string]interface{}{"user_id": claims.UserID, "error": err.Error()})
				writeError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), CallerKey, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		}
	}
}

// GetUserClaimsFromContext é uma função utilitária para extrair as claims no handler.
func GetUserClaimsFromContext(ctx context.Context) (UserClaims, bool) {
	claims, ok := ctx.Value(UserClaimsKey).(UserClaims)
	return claims, ok
}

// CallerFromContext devolve o usuário carregado pelo NewCallerMiddleware.
func CallerFromContext(ctx context.Context) (domain.Caller, bool) {
	caller, ok := ctx.Value(CallerKey).(domain.Caller)
	return caller, ok
}

// WithCaller anexa um Caller ao contexto. Útil em testes de handler.
func WithCaller(ctx context.Context, caller domain.Caller) context.Context {
	return context.WithValue(ctx, CallerKey, caller)
}

// RequireNivel restringe a rota aos níveis informados (403 caso contrário).
func RequireNivel(niveis ...domain.Nivel) func(next http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			caller, ok := CallerFromContext(r.Context())
			if !ok {
				writeError(w, apperror.NewUnauthorizedError("Autorização necessária. Perfil não carregado."))
				return
			}

			for _, n := range niveis {
				if caller.Nivel == n {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeError(w, apperror.NewForbiddenError("Você não tem a permissão necessária."))
		}
	}
}

// RequireDiretor é o atalho usado nas rotas administrativas.
func RequireDiretor(next http.HandlerFunc) http.HandlerFunc {
	return RequireNivel(domain.NivelDiretor)(next)
}

func writeError(w http.ResponseWriter, err error) {
	status, category, message := apperror.MapToHTTPStatus(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(domain.ErrorResponse{Code: status, Category: category, Message: message})
}
