package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config armazena todas as configurações do serviço de pedidos.
type Config struct {
	// Geral
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"json"`

	// HTTP
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"15s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`

	// Armazenamento: "postgres" (hospedado) ou "memory" (offline/desenvolvimento)
	StoreDriver string        `envconfig:"STORE_DRIVER" default:"postgres"`
	DatabaseURL string        `envconfig:"DATABASE_URL"`
	DBTimeout   time.Duration `envconfig:"DB_TIMEOUT" default:"5s"`

	// Cache (Redis)
	RedisAddr string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	CacheTTL  time.Duration `envconfig:"CACHE_TTL" default:"5m"`

	// Sessões anônimas de dispositivo (JWT)
	JWTSecretKey string        `envconfig:"JWT_SECRET_KEY" required:"true"`
	TokenExpiry  time.Duration `envconfig:"JWT_EXPIRY" default:"720h"`

	// Rate Limiting
	RateLimitMaxRequests int           `envconfig:"RATE_LIMIT_MAX_REQUESTS" default:"100"`
	RateLimitPeriod      time.Duration `envconfig:"RATE_LIMIT_PERIOD" default:"1m"`

	// Numeração e ciclo de vida dos pedidos
	OrderNumberPrefix    string        `envconfig:"ORDER_NUMBER_PREFIX" default:"SAG"`
	OrderNumberWidth     int           `envconfig:"ORDER_NUMBER_WIDTH" default:"4"`
	OrderAllowReopen     bool          `envconfig:"ORDER_ALLOW_REOPEN" default:"false"`
	SequenceMaxRetries   uint64        `envconfig:"SEQUENCE_MAX_RETRIES" default:"8"`
	SequenceRetryBackoff time.Duration `envconfig:"SEQUENCE_RETRY_BACKOFF" default:"20ms"`

	// Cabeçalho da planilha exportada
	ExportCompanyName string `envconfig:"EXPORT_COMPANY_NAME"`
}

// LoadConfig carrega as configurações a partir das variáveis de ambiente e as valida.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("falha ao ler configuração: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate verifica combinações que o envconfig não consegue expressar.
func (c *Config) Validate() error {
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL é obrigatória quando STORE_DRIVER=%s", StoreDriverPostgres)
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER inválido: %q", c.StoreDriver)
	}

	if c.OrderNumberWidth < 4 || c.OrderNumberWidth > 6 {
		return fmt.Errorf("ORDER_NUMBER_WIDTH deve estar entre 4 e 6, recebido %d", c.OrderNumberWidth)
	}
	if strings.TrimSpace(c.OrderNumberPrefix) == "" {
		return fmt.Errorf("ORDER_NUMBER_PREFIX não pode ser vazio")
	}
	if c.SequenceRetryBackoff <= 0 {
		return fmt.Errorf("SEQUENCE_RETRY_BACKOFF deve ser positivo")
	}
	return nil
}

// IsMemoryStore reporta se o serviço roda sem Postgres/Redis.
func (c *Config) IsMemoryStore() bool {
	return c.StoreDriver == StoreDriverMemory
}
