package router

import (
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	"estoquemkt/internal/api/categoria"
	"estoquemkt/internal/api/estoque"
	"estoquemkt/internal/api/produto"
	"estoquemkt/internal/api/solicitacao"
	"estoquemkt/internal/api/usuario"
	"estoquemkt/internal/pkg/cache"
	"estoquemkt/internal/pkg/logger"
	"estoquemkt/internal/pkg/middleware"
)

// Handlers reúne os handlers já inicializados por injeção de dependências.
type Handlers struct {
	Usuario     *usuario.Handler
	Categoria   *categoria.Handler
	Produto     *produto.Handler
	Estoque     *estoque.Handler
	Solicitacao *solicitacao.Handler
}

// Options agrupa as dependências dos middlewares.
type Options struct {
	Tokens     middleware.TokenService
	Callers    middleware.CallerLoader
	Cache      cache.Client
	RateLimit  int
	RatePeriod time.Duration
	Logger     logger.Logger
}

// NewRouter configura e retorna o roteador HTTP principal.
func NewRouter(h Handlers, opt Options) http.Handler {
	mux := http.NewServeMux()

	authMW := middleware.NewAuthMiddleware(opt.Tokens)
	callerMW := middleware.NewCallerMiddleware(opt.Callers, opt.Logger)

	// Autenticado + perfil carregado.
	protegida := func(next http.HandlerFunc) http.HandlerFunc {
		return authMW(callerMW(next))
	}
	// Apenas diretores.
	admin := func(next http.HandlerFunc) http.HandlerFunc {
		return protegida(middleware.RequireDiretor(next))
	}

	// --- 1. Health Check e documentação ---
	mux.HandleFunc("GET /ping", PingHandler)
	mux.Handle("GET /swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// --- 2. Identidade e lojas ---
	mux.HandleFunc("GET /me", protegida(h.Usuario.MeHandler))
	mux.HandleFunc("GET /lojas", protegida(h.Usuario.ListLojasHandler))
	mux.HandleFunc("GET /lojas/{id}", protegida(h.Usuario.GetLojaHandler))

	// --- 3. Categorias ---
	mux.HandleFunc("GET /categorias", protegida(h.Categoria.ListHandler))
	mux.HandleFunc("GET /categorias/{id}", protegida(h.Categoria.GetHandler))
	mux.HandleFunc("POST /categorias", admin(h.Categoria.CreateHandler))
	mux.HandleFunc("PUT /categorias/{id}", admin(h.Categoria.UpdateHandler))
	mux.HandleFunc("DELETE /categorias/{id}", admin(h.Categoria.DeleteHandler))

	// --- 4. Produtos ---
	mux.HandleFunc("GET /produtos", protegida(h.Produto.ListHandler))
	mux.HandleFunc("GET /produtos/{id}", protegida(h.Produto.GetHandler))
	mux.HandleFunc("POST /produtos", admin(h.Produto.CreateHandler))
	mux.HandleFunc("PUT /produtos/{id}", admin(h.Produto.UpdateHandler))
	mux.HandleFunc("DELETE /produtos/{id}", admin(h.Produto.DeleteHandler))

	// --- 5. Livro de estoque ---
	mux.HandleFunc("GET /estoques/locais", protegida(h.Estoque.ListLocaisHandler))
	mux.HandleFunc("GET /estoque/saldos", protegida(h.Estoque.ListSaldosHandler))
	mux.HandleFunc("GET /estoque/movimentos", protegida(h.Estoque.ListMovimentosHandler))
	mux.HandleFunc("POST /estoque/entrada", protegida(h.Estoque.EntradaHandler))
	mux.HandleFunc("POST /estoque/saida", protegida(h.Estoque.SaidaHandler))
	mux.HandleFunc("POST /estoque/transferencia", protegida(h.Estoque.TransferenciaHandler))
	mux.HandleFunc("POST /estoque/ajuste", protegida(h.Estoque.AjusteHandler))

	// --- 6. Solicitações ---
	mux.HandleFunc("GET /solicitacoes", protegida(h.Solicitacao.ListHandler))
	mux.HandleFunc("POST /solicitacoes", protegida(h.Solicitacao.CreateHandler))
	mux.HandleFunc("GET /solicitacoes/{id}", protegida(h.Solicitacao.GetHandler))
	mux.HandleFunc("PUT /solicitacoes/{id}", protegida(h.Solicitacao.UpdateHandler))
	mux.HandleFunc("POST /solicitacoes/{id}/itens", protegida(h.Solicitacao.AddItemHandler))
	mux.HandleFunc("PUT /solicitacoes/{id}/itens/{item_id}", protegida(h.Solicitacao.UpdateItemHandler))
	mux.HandleFunc("DELETE /solicitacoes/{id}/itens/{item_id}", protegida(h.Solicitacao.DeleteItemHandler))
	mux.HandleFunc("POST /solicitacoes/{id}/status", protegida(h.Solicitacao.ChangeStatusHandler))
	mux.HandleFunc("POST /solicitacoes/{id}/aprovar-oc", admin(h.Solicitacao.AprovarOCHandler))
	mux.HandleFunc("POST /solicitacoes/{id}/reprovar-oc", admin(h.Solicitacao.ReprovarOCHandler))
	mux.HandleFunc("POST /solicitacoes/{id}/confirmar-retirada", protegida(h.Solicitacao.ConfirmarRetiradaHandler))
	mux.HandleFunc("POST /solicitacoes/{id}/confirmar-envio", admin(h.Solicitacao.ConfirmarEnvioHandler))
	mux.HandleFunc("POST /solicitacoes/{id}/confirmar-aplicacao", protegida(h.Solicitacao.ConfirmarAplicacaoHandler))
	mux.HandleFunc("GET /solicitacoes/{id}/logs", protegida(h.Solicitacao.LogsHandler))
	mux.HandleFunc("GET /alertas", protegida(h.Solicitacao.AlertasHandler))

	// --- 7. Middlewares globais ---
	var handler http.Handler = mux
	if opt.Cache != nil && opt.RateLimit > 0 {
		handler = middleware.RateLimiter(opt.Cache, opt.RateLimit, opt.RatePeriod, opt.Logger)(handler)
	}
	return middleware.RequestLogger(opt.Logger)(handler)
}

// PingHandler é o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
