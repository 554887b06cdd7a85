package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	// Nossos pacotes de infraestrutura e utilitários
	"gofunko/config"
	"gofunko/internal/pkg/broker"
	"gofunko/internal/pkg/cache"
	"gofunko/internal/pkg/database"
	"gofunko/internal/pkg/logger"
	"gofunko/internal/pkg/ratelimit"
	"gofunko/internal/pkg/token"

	// Camadas do domínio para Injeção de Dependências
	"gofunko/internal/domain"
	"gofunko/internal/repository/funkorepo"
	"gofunko/internal/repository/userrepo"
	"gofunko/internal/server"
	"gofunko/internal/service/funkocache"
	"gofunko/internal/service/funkoservice"
	"gofunko/internal/service/notification"
	"gofunko/internal/service/userservice"
	"gofunko/internal/storage/funkostorage"
)

func main() {
	// 0. CARREGAR VARIÁVEIS DE AMBIENTE (.env)
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ Aviso: Arquivo .env não encontrado ou erro de leitura. Carregando configs apenas do ambiente do sistema.")
	}

	// 1. Configuração e Inicialização
	cfg := config.LoadConfig()
	logg := logger.NewLogger(cfg.LogLevel)
	logg.Info("Configurações carregadas.", nil)

	// 2. Conexão com Recursos de Infraestrutura

	// A. Banco de Dados (PostgreSQL)
	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		logg.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer db.Close()
	logg.Info("Conexão PostgreSQL estabelecida.", nil)

	// B. Rate limiter de LOGIN (Redis, opcional)
	var limiter *ratelimit.Limiter
	if cfg.RedisAddr != "" {
		cacheClient, err := cache.NewRedisClient(cfg.RedisAddr)
		if err != nil {
			logg.Fatal("Falha ao conectar ao Redis.", err)
		}
		limiter = ratelimit.NewLimiter(cacheClient, cfg.LoginRateLimitMax, cfg.LoginRatePeriod)
		logg.Info("Rate limiter de login ativado (Redis).", map[string]interface{}{"addr": cfg.RedisAddr})
	}

	// 3. INJEÇÃO DE DEPENDÊNCIAS (singletons de processo, construídos uma
	// vez aqui e passados explicitamente, nada de estado global)

	// A. Cache de Funkos (LRU + TTL, limpeza em background)
	funkoCache := funkocache.New(cfg.CacheCapacity, cfg.CacheTTL, cfg.CacheSweepInterval, logg)
	defer funkoCache.Shutdown()

	// B. Hub de Notificações
	hub := notification.NewHub(logg)
	defer hub.Close()

	// C. Relay Kafka (opcional): assina o hub e encaminha os eventos
	if cfg.KafkaBrokers != "" {
		producer := broker.NewProducer(strings.Split(cfg.KafkaBrokers, ","), cfg.KafkaTopic)
		defer producer.Close()

		events, cancel := hub.Subscribe()
		defer cancel()
		go func() {
			for event := range events {
				key := string(event.Type) + ":" + strconv.FormatInt(event.Funko.ID, 10)
				if err := producer.PublishEvent(context.Background(), key, event); err != nil {
					logg.Error("Falha ao encaminhar evento para o Kafka.", err)
				}
			}
		}()
		logg.Info("Relay de eventos Kafka ativado.", map[string]interface{}{"topic": cfg.KafkaTopic})
	}

	// D. Log local de notificações: um assinante do próprio processo
	notifications, cancelNotifications := hub.Subscribe()
	defer cancelNotifications()
	go func() {
		for event := range notifications {
			logg.Info("🔔 Notificação de catálogo.", map[string]interface{}{
				"type": string(event.Type),
				"id":   event.Funko.ID,
			})
		}
	}()

	// E. Repositórios (Camada de Acesso a Dados)
	funkoRepo := funkorepo.NewFunkoRepository(db, cfg.DBTimeout, logg)
	userRepo := userrepo.NewUserRepository(db, cfg.DBTimeout, logg)

	// F. Serviços (Camada de Lógica de Negócio)
	storage := funkostorage.NewStorageService(logg)
	funkoSvc := funkoservice.NewService(funkoRepo, funkoCache, hub, storage, logg)

	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)
	userSvc := userservice.NewService(userRepo, tokenSvc, logg)

	// G. Usuários iniciais (idempotente)
	if err := seedUsers(userRepo); err != nil {
		logg.Fatal("Falha ao semear usuários iniciais.", err)
	}

	// 4. Servidor de Sessões (TLS)
	srv, err := buildServer(cfg, funkoSvc, userSvc, limiter, logg)
	if err != nil {
		logg.Fatal("Falha ao configurar o servidor.", err)
	}

	// 5. Execução e Graceful Shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			logg.Fatal("Servidor falhou.", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logg.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	srv.Shutdown()
	logg.Info("Servidor encerrado com sucesso.", nil)
}

// buildServer monta o listener com ou sem TLS conforme a configuração.
func buildServer(cfg *config.Config, funkoSvc domain.FunkoService, userSvc domain.UserService, limiter *ratelimit.Limiter, logg logger.Logger) (*server.Server, error) {
	addr := ":" + cfg.Port

	if !cfg.TLSEnabled {
		logg.Info("⚠️ TLS desativado: aceitando TCP puro (apenas desenvolvimento).", nil)
		return server.New(addr, nil, funkoSvc, userSvc, limiter, logg), nil
	}

	tlsCfg, err := server.BuildTLSConfig(cfg)
	if err != nil {
		return nil, err
	}
	return server.New(addr, tlsCfg, funkoSvc, userSvc, limiter, logg), nil
}

// seedUsers garante os usuários padrão do sistema (hash gerado em runtime,
// inserção idempotente).
func seedUsers(repo domain.UserRepository) error {
	seeds := []struct {
		username string
		password string
		role     domain.UserRole
	}{
		{"admin", "admin1234", domain.RoleAdmin},
		{"pepe", "pepe1234", domain.RoleUser},
	}

	ctx := context.Background()
	for _, seed := range seeds {
		hash, err := userservice.HashPassword(seed.password)
		if err != nil {
			return err
		}
		if _, err := repo.Save(ctx, domain.User{
			Username:     seed.username,
			PasswordHash: hash,
			Role:         seed.role,
		}); err != nil {
			return err
		}
	}
	return nil
}
