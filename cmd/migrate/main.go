package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	"estoquemkt/config"
	"estoquemkt/internal/pkg/database"
	"estoquemkt/internal/pkg/logger"
)

// gooseLogger encaminha as mensagens do goose para o logger da aplicação.
type gooseLogger struct {
	log logger.Logger
}

func (g gooseLogger) Printf(format string, v ...interface{}) {
	g.log.Info("goose", map[string]interface{}{"msg": fmt.Sprintf(format, v...)})
}

func (g gooseLogger) Fatalf(format string, v ...interface{}) {
	log.Fatalf(format, v...)
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️ Aviso: Arquivo .env não encontrado. Carregando configs apenas do ambiente do sistema: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("goose: %v", err)
	}
	appLog := logger.NewLogger(cfg.LogLevel)

	var migrationsDir string
	flag.StringVar(&migrationsDir, "dir", "./sql", "diretório com as migrações")
	flag.Parse()

	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		appLog.Fatal("goose: falha ao conectar ao banco.", err)
	}
	defer db.Close()

	goose.SetLogger(gooseLogger{log: appLog})
	if err := goose.SetDialect("postgres"); err != nil {
		appLog.Fatal("goose: dialeto não suportado.", err)
	}

	// Sem comando, aplica todas as migrações pendentes.
	arguments := flag.Args()
	if len(arguments) == 0 {
		arguments = []string{"up"}
	}
	command, args := arguments[0], arguments[1:]

	if err := goose.Run(command, db, migrationsDir, args...); err != nil {
		appLog.Fatal("goose "+command+" falhou.", err)
	}
	appLog.Info("goose concluído.", map[string]interface{}{"command": command, "dir": migrationsDir})
}
