package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	"gopedidos/config"
	"gopedidos/internal/pkg/database"
	"gopedidos/internal/pkg/logger"
	"gopedidos/internal/repository/orderrepo"
)

// normalizeCommand reescreve pedidos antigos (status em português, itens camelCase) no formato atual.
const normalizeCommand = "normalize-orders"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Aviso: arquivo .env não encontrado. Carregando configs apenas do ambiente do sistema: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("configuração inválida: %v", err)
	}
	if cfg.IsMemoryStore() {
		log.Fatalf("migrações exigem STORE_DRIVER=%s", config.StoreDriverPostgres)
	}

	var migrationsDir string
	flag.StringVar(&migrationsDir, "dir", "./sql", "diretório com os arquivos de migração")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL, database.PoolOptions{MaxOpenConns: 2})
	if err != nil {
		log.Fatalf("goose: falha ao conectar ao DB: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("goose: falha ao fechar o DB: %v", err)
		}
	}()

	arguments := flag.Args()
	if len(arguments) == 0 {
		arguments = []string{"up"}
	}
	command, args := arguments[0], arguments[1:]

	if command == normalizeCommand {
		appLog := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: "gopedidos-migrate"})
		n, err := orderrepo.NewOrderRepository(db, time.Minute, appLog).NormalizeLegacy(ctx)
		if err != nil {
			log.Fatalf("%s: %v", normalizeCommand, err)
		}
		fmt.Printf("%s: %d pedidos reescritos\n", normalizeCommand, n)
		return
	}

	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("goose: %v", err)
	}
	if err := goose.RunContext(ctx, command, db, migrationsDir, args...); err != nil {
		log.Fatalf("goose %v: %v", command, err)
	}

	fmt.Printf("goose %s success\n", command)
}
