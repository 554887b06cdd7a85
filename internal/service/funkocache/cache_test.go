package funkocache_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"gofunko/internal/domain"
	"gofunko/internal/pkg/logger"
	"gofunko/internal/service/funkocache"
)

func newTestCache(capacity int, ttl time.Duration) *funkocache.Cache {
	// Sweep longo: os testes exercitam a expiração preguiçosa no Get.
	return funkocache.New(capacity, ttl, time.Hour, logger.NewLogger("error"))
}

func funkoWithID(id int64) domain.Funko {
	return domain.Funko{ID: id, Name: fmt.Sprintf("Funko %d", id), Model: domain.ModelAnime}
}

// TestCache_PutGet testa o caminho básico de escrita e leitura.
func TestCache_PutGet(t *testing.T) {
	c := newTestCache(5, time.Minute)
	defer c.Shutdown()

	c.Put(1, funkoWithID(1))

	got, ok := c.Get(1)
	assert.True(t, ok)
	assert.Equal(t, int64(1), got.ID)

	_, ok = c.Get(99)
	assert.False(t, ok)
}

// TestCache_CapacityEvictsLRU garante o invariante de capacidade: nunca
// mais entradas residentes do que o limite, removendo a menos
// recentemente usada primeiro.
func TestCache_CapacityEvictsLRU(t *testing.T) {
	c := newTestCache(3, time.Minute)
	defer c.Shutdown()

	c.Put(1, funkoWithID(1))
	c.Put(2, funkoWithID(2))
	c.Put(3, funkoWithID(3))

	// Toca a chave 1 para que a LRU seja a 2.
	_, ok := c.Get(1)
	assert.True(t, ok)

	c.Put(4, funkoWithID(4))

	assert.Equal(t, 3, c.Len())

	_, ok = c.Get(2)
	assert.False(t, ok, "a entrada menos recentemente usada deveria ter sido removida")

	for _, id := range []int64{1, 3, 4} {
		_, ok := c.Get(id)
		assert.True(t, ok, "a entrada %d deveria continuar residente", id)
	}
}

// TestCache_TTLExpiryWithoutSweep garante que o Get após o deadline é um
// miss mesmo sem nenhuma passada da limpeza.
func TestCache_TTLExpiryWithoutSweep(t *testing.T) {
	c := newTestCache(5, 30*time.Millisecond)
	defer c.Shutdown()

	c.Put(1, funkoWithID(1))

	time.Sleep(60 * time.Millisecond)

	_, ok := c.Get(1)
	assert.False(t, ok, "entrada vencida deveria contar como miss")
}

// TestCache_PutResetsDeadline garante que um Put reinicia a janela de
// expiração da chave.
func TestCache_PutResetsDeadline(t *testing.T) {
	c := newTestCache(5, 80*time.Millisecond)
	defer c.Shutdown()

	c.Put(1, funkoWithID(1))
	time.Sleep(50 * time.Millisecond)

	c.Put(1, funkoWithID(1)) // reinicia o deadline
	time.Sleep(50 * time.Millisecond)

	_, ok := c.Get(1)
	assert.True(t, ok, "o Put deveria ter reiniciado a expiração")
}

// TestCache_BackgroundSweep garante que a limpeza periódica remove
// entradas vencidas independente de acesso.
func TestCache_BackgroundSweep(t *testing.T) {
	c := funkocache.New(5, 20*time.Millisecond, 30*time.Millisecond, logger.NewLogger("error"))
	defer c.Shutdown()

	c.Put(1, funkoWithID(1))
	c.Put(2, funkoWithID(2))

	assert.Eventually(t, func() bool {
		return c.Len() == 0
	}, time.Second, 10*time.Millisecond, "a limpeza deveria ter esvaziado o cache")
}

// TestCache_DeleteAndClear testa remoção explícita e limpeza total.
func TestCache_DeleteAndClear(t *testing.T) {
	c := newTestCache(5, time.Minute)
	defer c.Shutdown()

	c.Put(1, funkoWithID(1))
	c.Put(2, funkoWithID(2))

	c.Delete(1)
	c.Delete(99) // no-op

	_, ok := c.Get(1)
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
}

// TestCache_ShutdownIsSafe garante que operações após o Shutdown são
// no-ops seguros (cache nulo, não crash).
func TestCache_ShutdownIsSafe(t *testing.T) {
	c := newTestCache(5, time.Minute)

	c.Put(1, funkoWithID(1))
	c.Shutdown()
	c.Shutdown() // idempotente

	assert.NotPanics(t, func() {
		c.Put(2, funkoWithID(2))
		_, ok := c.Get(1)
		assert.False(t, ok)
		c.Delete(1)
		c.Clear()
	})
}

// TestCache_ConcurrentAccess exercita o cache sob sessões concorrentes.
func TestCache_ConcurrentAccess(t *testing.T) {
	c := newTestCache(15, time.Minute)
	defer c.Shutdown()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			for i := int64(0); i < 200; i++ {
				id := (seed*31 + i) % 40
				c.Put(id, funkoWithID(id))
				c.Get(id)
				if i%7 == 0 {
					c.Delete(id)
				}
			}
		}(int64(g))
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 15, "a capacidade nunca pode ser excedida")
}

// TestCache_PutGetLinearizable: um Put seguido de Get da mesma chave
// observa a escrita (sem eviction no meio).
func TestCache_PutGetLinearizable(t *testing.T) {
	c := newTestCache(5, time.Minute)
	defer c.Shutdown()

	f := funkoWithID(7)
	f.Price = 99.5
	c.Put(7, f)

	got, ok := c.Get(7)
	assert.True(t, ok)
	assert.Equal(t, 99.5, got.Price)
}
