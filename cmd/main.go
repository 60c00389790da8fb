package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	// Infraestrutura e utilitários
	"estoquemkt/config"
	_ "estoquemkt/docs" // Documento Swagger servido em /swagger/
	"estoquemkt/internal/pkg/cache"
	"estoquemkt/internal/pkg/database"
	"estoquemkt/internal/pkg/logger"
	"estoquemkt/internal/pkg/telemetry"
	"estoquemkt/internal/pkg/token"

	// Camadas para Injeção de Dependências
	"estoquemkt/internal/api/categoria"
	"estoquemkt/internal/api/estoque"
	"estoquemkt/internal/api/produto"
	"estoquemkt/internal/api/router"
	"estoquemkt/internal/api/solicitacao"
	"estoquemkt/internal/api/usuario"
	"estoquemkt/internal/repository/categoriarepo"
	"estoquemkt/internal/repository/estoquerepo"
	"estoquemkt/internal/repository/lojarepo"
	"estoquemkt/internal/repository/produtorepo"
	"estoquemkt/internal/repository/solicitacaorepo"
	"estoquemkt/internal/repository/usuariorepo"
	"estoquemkt/internal/service/categoriaservice"
	"estoquemkt/internal/service/estoqueservice"
	"estoquemkt/internal/service/integracaoestoque"
	"estoquemkt/internal/service/lojaservice"
	"estoquemkt/internal/service/produtoservice"
	"estoquemkt/internal/service/solicitacaoservice"
	"estoquemkt/internal/service/usuarioservice"
)

// @title Estoque de Materiais de Marketing API
// @version 1.0
// @description Inventário de materiais de marketing e fluxo de solicitações das lojas.
// @BasePath /

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	log.Println("⚡ Inicializando API de estoque de marketing...")

	// 0. Variáveis de ambiente (.env é opcional: em contêiner vêm do sistema)
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ Aviso: Arquivo .env não encontrado. Carregando configs apenas do ambiente do sistema.")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("Configurações carregadas.", map[string]interface{}{"env": cfg.Environment, "service": cfg.ServiceName})

	// 1. Tracing
	shutdownTracer, err := telemetry.InitTracer(context.Background(), cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal("Falha ao inicializar o tracing.", err)
	}

	// 2. Infraestrutura
	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer db.Close()
	log.Info("Conexão PostgreSQL estabelecida.", nil)

	// Sem Redis a API segue funcionando direto no banco; os repositórios registram os misses.
	cacheClient, err := cache.NewRedisClient(cfg.RedisAddr)
	if err != nil {
		log.Warn("Redis indisponível. Seguindo sem cache.", map[string]interface{}{"addr": cfg.RedisAddr, "error": err.Error()})
	} else {
		log.Info("Conexão Redis estabelecida.", map[string]interface{}{"addr": cfg.RedisAddr})
	}
	defer cacheClient.Close()

	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.JWTAudience, cfg.TokenExpiry)

	// 3. Injeção de dependências: Repository -> Service -> Handler
	lojaRepo := lojarepo.NewRepository(db, cfg.DBTimeout, log)
	usuarioRepo := usuariorepo.NewRepository(db, cfg.DBTimeout, log)
	categoriaRepo := categoriarepo.NewRepository(db, cacheClient, cfg.DBTimeout, cfg.CacheTTL, log)
	produtoRepo := produtorepo.NewRepository(db, cacheClient, cfg.DBTimeout, cfg.CacheTTL, log)
	estoqueRepo := estoquerepo.NewRepository(db, cacheClient, cfg.DBTimeout, cfg.CacheTTL, log)
	solicitacaoRepo := solicitacaorepo.NewRepository(db, cfg.DBTimeout, log)
	log.Debug("Repositórios inicializados.", nil)

	usuarioSvc := usuarioservice.NewService(usuarioRepo, lojaRepo, log)
	lojaSvc := lojaservice.NewService(lojaRepo, log)
	categoriaSvc := categoriaservice.NewService(categoriaRepo, log)
	estoqueSvc := estoqueservice.NewService(estoqueRepo, log)
	produtoSvc := produtoservice.NewService(produtoRepo, categoriaSvc, estoqueSvc, log)
	engine := integracaoestoque.NewEngine(estoqueSvc, solicitacaoRepo, log)
	solicitacaoSvc := solicitacaoservice.NewService(solicitacaoRepo, engine, log)
	log.Debug("Serviços inicializados.", nil)

	handlers := router.Handlers{
		Usuario:     usuario.NewHandler(usuarioSvc, lojaSvc, log),
		Categoria:   categoria.NewHandler(categoriaSvc, log),
		Produto:     produto.NewHandler(produtoSvc, log),
		Estoque:     estoque.NewHandler(estoqueSvc, log),
		Solicitacao: solicitacao.NewHandler(solicitacaoSvc, log),
	}

	// 4. Roteador e servidor
	r := router.NewRouter(handlers, router.Options{
		Tokens:     tokenSvc,
		Callers:    usuarioSvc,
		Cache:      cacheClient,
		RateLimit:  cfg.RateLimitMaxRequests,
		RatePeriod: cfg.RateLimitPeriod,
		Logger:     log,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 5. Execução e Graceful Shutdown
	go func() {
		log.Info("Servidor ouvindo na porta.", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Servidor falhou.", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Desligamento do servidor forçado.", err)
	}
	if err := shutdownTracer(ctx); err != nil {
		log.Error("Falha ao descarregar spans pendentes.", err)
	}

	log.Info("Servidor encerrado com sucesso.", nil)
}
