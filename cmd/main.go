package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/shopspring/decimal"

	"gopedidos/config"
	"gopedidos/internal/api/customer"
	"gopedidos/internal/api/order"
	"gopedidos/internal/api/product"
	"gopedidos/internal/api/router"
	"gopedidos/internal/api/session"
	"gopedidos/internal/export"
	"gopedidos/internal/pkg/bootstrap"
	"gopedidos/internal/pkg/cache"
	"gopedidos/internal/pkg/database"
	"gopedidos/internal/pkg/logger"
	"gopedidos/internal/pkg/metrics"
	"gopedidos/internal/pkg/token"
	"gopedidos/internal/repository/counterrepo"
	"gopedidos/internal/repository/customerrepo"
	"gopedidos/internal/repository/memrepo"
	"gopedidos/internal/repository/orderrepo"
	"gopedidos/internal/repository/productrepo"
	"gopedidos/internal/service/customerservice"
	"gopedidos/internal/service/orderservice"
	"gopedidos/internal/service/productservice"
	"gopedidos/internal/service/sequenceservice"
)

// storage reúne os repositórios do driver escolhido (Postgres+Redis ou memória).
type storage struct {
	customers customerservice.CustomerRepository
	products  productservice.ProductRepository
	orders    orderservice.OrderRepository
	counters  sequenceservice.CounterRepository
	cache     cache.Client
	close     func()
}

func openStorage(ctx context.Context, cfg *config.Config, log logger.Logger) (*storage, error) {
	if cfg.IsMemoryStore() {
		store := memrepo.NewStore()
		log.Warn("STORE_DRIVER=memory: dados não são persistidos.", nil)
		return &storage{
			customers: store.Customers(),
			products:  store.Products(),
			orders:    store.Orders(),
			counters:  store.Counters(),
			cache:     cache.NewMemoryClient(),
			close:     func() {},
		}, nil
	}

	db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL, database.PoolOptions{})
	if err != nil {
		return nil, err
	}
	log.Info("Conexão PostgreSQL estabelecida.", nil)

	redisClient, err := cache.NewRedisClient(ctx, cfg.RedisAddr)
	if err != nil {
		db.Close()
		return nil, err
	}
	log.Info("Conexão Redis estabelecida.", map[string]interface{}{"addr": cfg.RedisAddr})

	return &storage{
		customers: customerrepo.NewCustomerRepository(db, redisClient, cfg.DBTimeout, cfg.CacheTTL, log),
		products:  productrepo.NewProductRepository(db, redisClient, cfg.DBTimeout, cfg.CacheTTL, log),
		orders:    orderrepo.NewOrderRepository(db, cfg.DBTimeout, log),
		counters:  counterrepo.NewCounterRepository(db, cfg.DBTimeout, log),
		cache:     redisClient,
		close:     closeAll(db, redisClient),
	}, nil
}

func closeAll(db *sql.DB, redisClient *cache.RedisClient) func() {
	return func() {
		_ = redisClient.Close()
		_ = db.Close()
	}
}

// newHandler monta Repository -> Service -> Handler sobre o armazenamento aberto.
func newHandler(cfg *config.Config, store *storage, tokenSvc *token.Service, boot *bootstrap.Bootstrap,
	reg *prometheus.Registry, orderMetrics *metrics.OrderMetrics, appLog logger.Logger) http.Handler {
	sequenceSvc := sequenceservice.NewService(store.counters, sequenceservice.Options{
		Prefix:       cfg.OrderNumberPrefix,
		Width:        cfg.OrderNumberWidth,
		MaxRetries:   cfg.SequenceMaxRetries,
		RetryBackoff: cfg.SequenceRetryBackoff,
	}, appLog, orderMetrics)

	orderSvc := orderservice.NewService(
		store.orders, store.customers, store.products, sequenceSvc,
		export.NewXLSXExporter(cfg.ExportCompanyName), appLog,
		orderservice.WithLifecycle(orderservice.Lifecycle{AllowReopen: cfg.OrderAllowReopen}),
		orderservice.WithMetrics(orderMetrics),
	)

	return router.NewRouter(router.Deps{
		Customers:  customer.NewHandler(customerservice.NewService(store.customers, appLog), appLog),
		Products:   product.NewHandler(productservice.NewService(store.products, appLog), appLog),
		Orders:     order.NewHandler(orderSvc, appLog),
		Sessions:   session.NewHandler(tokenSvc, appLog),
		Tokens:     tokenSvc,
		Cache:      store.cache,
		Readiness:  boot,
		Gatherer:   reg,
		RateLimit:  cfg.RateLimitMaxRequests,
		RateWindow: cfg.RateLimitPeriod,
		ReqTimeout: cfg.RequestTimeout,
		Logger:     appLog,
	})
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Aviso: arquivo .env não encontrado. Carregando configs apenas do ambiente do sistema.")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("configuração inválida: %v", err)
	}
	appLog := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: "gopedidos"})
	appLog.Info("Configurações carregadas.", map[string]interface{}{"env": cfg.Environment, "store": cfg.StoreDriver})

	// Valores monetários saem como números JSON, não strings.
	decimal.MarshalJSONWithoutQuotes = true

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	orderMetrics := metrics.NewOrderMetrics(reg)

	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)

	// O servidor sobe antes do armazenamento: /ping e /readyz respondem durante a inicialização.
	boot := bootstrap.New()
	gate := router.NewGate(boot, cfg.RequestTimeout)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           gate,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		appLog.Info("Servidor gopedidos ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatal("Servidor falhou.", err)
		}
	}()

	var store *storage
	initCtx, cancelInit := context.WithTimeout(context.Background(), 30*time.Second)
	err = boot.Init(initCtx, func(ctx context.Context) error {
		var openErr error
		if store, openErr = openStorage(ctx, cfg, appLog); openErr != nil {
			return openErr
		}
		gate.Set(newHandler(cfg, store, tokenSvc, boot, reg, orderMetrics, appLog))
		return nil
	})
	cancelInit()
	if err != nil {
		appLog.Fatal("Falha ao inicializar o armazenamento.", err)
	}
	defer store.close()
	appLog.Info("Armazenamento pronto.", map[string]interface{}{"store": cfg.StoreDriver})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLog.Error("Desligamento do servidor forçado.", err)
	}
	appLog.Info("Servidor encerrado com sucesso.", nil)
}
