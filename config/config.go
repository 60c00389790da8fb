package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config armazena todas as configurações da API de estoque de materiais de marketing.
type Config struct {
	// Geral
	Port        string
	Environment string
	LogLevel    string
	ServiceName string

	// Banco de Dados (PostgreSQL)
	DatabaseURL string
	DBTimeout   time.Duration

	// Cache (Redis)
	RedisAddr string
	CacheTTL  time.Duration

	// Segurança (JWT emitido pelo provedor de identidade)
	JWTSecretKey string
	JWTAudience  string
	TokenExpiry  time.Duration

	// Rate Limiting
	RateLimitMaxRequests int
	RateLimitPeriod      time.Duration

	// Tracing (OpenTelemetry). Vazio desliga a exportação.
	OTLPEndpoint string
}

// LoadConfig lê o ambiente e devolve todas as variáveis ausentes ou inválidas de uma vez.
func LoadConfig() (*Config, error) {
	env := &leitor{}

	cfg := &Config{
		Port:        env.texto("PORT", "8080"),
		Environment: env.texto("ENV", "development"),
		LogLevel:    env.texto("LOG_LEVEL", "info"),
		ServiceName: env.texto("SERVICE_NAME", "estoquemkt-api"),

		DatabaseURL: env.obrigatorio("DATABASE_URL"),
		DBTimeout:   env.duracao("DB_TIMEOUT_SEC", 5, time.Second),

		RedisAddr: env.texto("REDIS_ADDR", "localhost:6379"),
		CacheTTL:  env.duracao("CACHE_TTL_SEC", 300, time.Second),

		JWTSecretKey: env.obrigatorio("JWT_SECRET_KEY"),
		JWTAudience:  env.texto("JWT_AUDIENCE", "authenticated"),
		TokenExpiry:  env.duracao("JWT_EXPIRY_MIN", 60, time.Minute),

		RateLimitMaxRequests: env.inteiro("RATE_LIMIT_MAX_REQUESTS", 100),
		RateLimitPeriod:      env.duracao("RATE_LIMIT_PERIOD_MIN", 1, time.Minute),

		OTLPEndpoint: env.texto("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if len(env.erros) > 0 {
		return nil, fmt.Errorf("configuração inválida: %s", strings.Join(env.erros, "; "))
	}
	return cfg, nil
}

// leitor acumula os problemas encontrados para que o operador corrija tudo numa rodada só.
type leitor struct {
	erros []string
}

func (l *leitor) texto(key, padrao string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return padrao
}

func (l *leitor) obrigatorio(key string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		l.erros = append(l.erros, key+" deve ser definida")
	}
	return value
}

// inteiro aceita apenas valores não negativos.
func (l *leitor) inteiro(key string, padrao int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return padrao
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		l.erros = append(l.erros, fmt.Sprintf("%s=%q não é um inteiro válido", key, raw))
		return padrao
	}
	return n
}

func (l *leitor) duracao(key string, padrao int, unidade time.Duration) time.Duration {
	return time.Duration(l.inteiro(key, padrao)) * unidade
}
