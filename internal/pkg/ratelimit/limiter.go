package ratelimit

import (
	"context"
	"time"

	"gofunko/internal/pkg/cache"
)

// Limiter limita tentativas de LOGIN por chave (username + IP remoto),
// usando um contador com expiração no cache compartilhado (Redis).
// Um Limiter nulo permite tudo; o servidor funciona sem Redis.
type Limiter struct {
	client cache.Client
	limit  int
	period time.Duration
}

// NewLimiter cria um novo Limiter sobre o cache compartilhado.
func NewLimiter(client cache.Client, limit int, period time.Duration) *Limiter {
	return &Limiter{
		client: client,
		limit:  limit,
		period: period,
	}
}

// Allow registra uma tentativa para a chave e informa se ela ainda está
// dentro do limite da janela. Falhas de infraestrutura do cache não
// bloqueiam o login (fail-open): o limite é proteção, não dependência.
func (l *Limiter) Allow(ctx context.Context, key string) bool {
	if l == nil || l.client == nil {
		return true
	}

	cacheKey := "login-attempts:" + key

	count, err := l.client.GetInt(ctx, cacheKey)
	if err == cache.ErrCacheMiss {
		// Primeira tentativa da janela: cria o contador com expiração.
		if err := l.client.Set(ctx, cacheKey, 1, l.period); err != nil {
			return true
		}
		return true
	} else if err != nil {
		return true
	}

	if count >= l.limit {
		return false
	}

	if err := l.client.Incr(ctx, cacheKey); err != nil {
		return true
	}
	return true
}
