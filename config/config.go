package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config armazena todas as configurações do servidor GoFunko.
// Todos os campos são definidos com base nos requisitos do projeto
// (Protocolo TLS, DB, Cache, Segurança, Notificações).
type Config struct {
	// Geral
	Port        string
	Environment string
	LogLevel    string

	// Transporte Seguro (TLS)
	TLSEnabled  bool
	TLSCertFile string
	TLSKeyFile  string
	TLSCAFile   string // opcional: verifica certificado do cliente quando definido

	// Banco de Dados (PostgreSQL)
	DatabaseURL string
	DBTimeout   time.Duration

	// Cache de Funkos (em memória, LRU + TTL)
	CacheCapacity      int
	CacheTTL           time.Duration
	CacheSweepInterval time.Duration

	// Segurança (JWT)
	JWTSecretKey string
	TokenExpiry  time.Duration

	// Rate Limiting de LOGIN (Redis, opcional)
	RedisAddr         string
	LoginRateLimitMax int
	LoginRatePeriod   time.Duration

	// Relay de notificações (Kafka, opcional)
	KafkaBrokers string
	KafkaTopic   string
}

// LoadConfig carrega as configurações a partir das variáveis de ambiente.
func LoadConfig() *Config {
	cfg := &Config{
		// 1. Geral
		Port:        getEnv("PORT", "3000"),
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// 2. Transporte Seguro
		TLSEnabled:  getBoolEnv("TLS_ENABLED", true),
		TLSCertFile: getEnv("TLS_CERT_FILE", ""),
		TLSKeyFile:  getEnv("TLS_KEY_FILE", ""),
		TLSCAFile:   getEnv("TLS_CA_FILE", ""),

		// 3. Banco de Dados (PostgreSQL)
		// mustGetEnv garante que a aplicação não inicie sem credenciais de DB
		DatabaseURL: mustGetEnv("DATABASE_URL"),
		DBTimeout:   getDurationEnv("DB_TIMEOUT_SEC", 5) * time.Second,

		// 4. Cache de Funkos
		CacheCapacity:      getIntEnv("CACHE_CAPACITY", 15),
		CacheTTL:           getDurationEnv("CACHE_TTL_SEC", 60) * time.Second,
		CacheSweepInterval: getDurationEnv("CACHE_SWEEP_SEC", 60) * time.Second,

		// 5. Segurança (JWT)
		JWTSecretKey: mustGetEnv("JWT_SECRET_KEY"),
		TokenExpiry:  getDurationEnv("JWT_EXPIRY_MIN", 10) * time.Minute,

		// 6. Rate Limiting de LOGIN (desativado quando REDIS_ADDR está vazio)
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		LoginRateLimitMax: getIntEnv("LOGIN_RATE_LIMIT_MAX", 5),
		LoginRatePeriod:   getDurationEnv("LOGIN_RATE_PERIOD_MIN", 1) * time.Minute,

		// 7. Relay Kafka (desativado quando KAFKA_BROKERS está vazio)
		KafkaBrokers: getEnv("KAFKA_BROKERS", ""),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "funko-events"),
	}

	return cfg
}

// Funções Helpers (Auxiliares)

// getEnv lê a variável de ambiente ou retorna um valor padrão.
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// mustGetEnv lê a variável de ambiente, fatal se não estiver presente.
func mustGetEnv(key string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Fatalf("❌ Erro de Configuração: A variável de ambiente %s deve ser definida.", key)
	return ""
}

// getDurationEnv lê uma variável de ambiente numérica e retorna-a como time.Duration.
func getDurationEnv(key string, defaultValue int) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return time.Duration(defaultValue)
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("⚠️ Aviso: Valor de %s ('%s') não é um número inteiro válido. Usando padrão (%d).", key, valueStr, defaultValue)
		return time.Duration(defaultValue)
	}
	return time.Duration(value)
}

// getIntEnv lê uma variável de ambiente numérica e retorna-a como int.
func getIntEnv(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("⚠️ Aviso: Valor de %s ('%s') não é um número inteiro válido. Usando padrão (%d).", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

// getBoolEnv lê uma variável de ambiente booleana ("true"/"false").
func getBoolEnv(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return strings.EqualFold(valueStr, "true") || valueStr == "1"
}
