// Comando devtoken emite um access token HS256 no formato do provedor de identidade,
// para testar a API localmente sem o provedor.
//
//	go run ./cmd/devtoken -sub <user_ref> -email diretor@exemplo.com
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"estoquemkt/config"
	"estoquemkt/internal/pkg/token"
)

func main() {
	_ = godotenv.Load()

	sub := flag.String("sub", "", "user_ref do usuário (claim sub). Vazio gera um UUID novo.")
	email := flag.String("email", "", "e-mail do usuário")
	flag.Parse()

	if *sub == "" {
		*sub = uuid.New().String()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	svc := token.NewService(cfg.JWTSecretKey, cfg.JWTAudience, cfg.TokenExpiry)

	tk, err := svc.GenerateToken(*sub, *email)
	if err != nil {
		log.Fatalf("falha ao emitir token: %v", err)
	}
	fmt.Println(tk)
}
