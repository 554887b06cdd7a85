package funkocache

import (
	"container/list"
	"sync"
	"time"

	"gofunko/internal/domain"
	"gofunko/internal/pkg/logger"
)

// Cache é o cache de Funkos do catálogo: limitado por capacidade (LRU),
// com janela de expiração fixa por entrada e uma limpeza periódica em
// background que remove entradas vencidas independente de acesso.
//
// Todas as operações são seguras para qualquer número de sessões
// concorrentes e linearizáveis por chave (um único mutex serializa o acesso).
// Um miss NUNCA dispara busca no repositório; isso é responsabilidade do
// Serviço de catálogo (cache-aside).
type Cache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration

	entries map[int64]*list.Element
	order   *list.List // frente = mais recentemente usado

	closed   bool
	stop     chan struct{}
	stopOnce sync.Once

	log logger.Logger
}

// entry é o valor guardado na lista LRU.
type entry struct {
	id       int64
	funko    domain.Funko
	deadline time.Time
}

// New cria o cache e inicia a limpeza periódica em background.
// A limpeza pertence ao cache e deve ser parada via Shutdown no
// encerramento ordenado do servidor.
func New(capacity int, ttl, sweepInterval time.Duration, log logger.Logger) *Cache {
	c := &Cache{
		capacity: capacity,
		ttl:      ttl,
		entries:  make(map[int64]*list.Element),
		order:    list.New(),
		stop:     make(chan struct{}),
		log:      log,
	}

	go c.sweepLoop(sweepInterval)

	return c
}

// Get retorna o Funko associado ao id, ou miss se ausente ou vencido.
// Uma entrada vencida conta como miss mesmo que a limpeza ainda não
// tenha passado por ela.
func (c *Cache) Get(id int64) (domain.Funko, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return domain.Funko{}, false
	}

	el, ok := c.entries[id]
	if !ok {
		return domain.Funko{}, false
	}

	ent := el.Value.(*entry)
	if time.Now().After(ent.deadline) {
		// Expirada: remove imediatamente, sem esperar a limpeza.
		c.removeLocked(el)
		return domain.Funko{}, false
	}

	c.order.MoveToFront(el)
	return ent.funko, true
}

// Put insere ou substitui o valor da chave e reinicia sua janela de expiração.
// Se o cache está cheio e a chave é nova, a entrada menos recentemente
// usada é removida antes da inserção.
func (c *Cache) Put(id int64, funko domain.Funko) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	deadline := time.Now().Add(c.ttl)

	if el, ok := c.entries[id]; ok {
		ent := el.Value.(*entry)
		ent.funko = funko
		ent.deadline = deadline
		c.order.MoveToFront(el)
		return
	}

	if c.order.Len() >= c.capacity {
		// Eviction por capacidade tem prioridade sobre o TTL na inserção.
		oldest := c.order.Back()
		if oldest != nil {
			c.removeLocked(oldest)
		}
	}

	el := c.order.PushFront(&entry{id: id, funko: funko, deadline: deadline})
	c.entries[id] = el
}

// Delete remove a chave se presente; no-op caso contrário.
func (c *Cache) Delete(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	if el, ok := c.entries[id]; ok {
		c.removeLocked(el)
	}
}

// Clear esvazia a estrutura.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.entries = make(map[int64]*list.Element)
	c.order.Init()
}

// Len retorna o número de entradas residentes (incluindo vencidas ainda
// não varridas).
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Shutdown para a limpeza em background e congela o cache.
// Operações após o Shutdown são no-ops seguros (cache nulo, não crash):
// o servidor pode continuar drenando requisições em voo.
func (c *Cache) Shutdown() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.entries = make(map[int64]*list.Element)
	c.order.Init()
}

// removeLocked remove um elemento da lista e do índice. Exige c.mu.
func (c *Cache) removeLocked(el *list.Element) {
	ent := el.Value.(*entry)
	delete(c.entries, ent.id)
	c.order.Remove(el)
}

// sweepLoop remove periodicamente as entradas vencidas.
func (c *Cache) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stop:
			return
		}
	}
}

// sweep percorre as entradas e descarta as vencidas.
func (c *Cache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	now := time.Now()
	removed := 0
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		if ent := el.Value.(*entry); now.After(ent.deadline) {
			c.removeLocked(el)
			removed++
		}
		el = prev
	}

	if removed > 0 && c.log != nil {
		c.log.Debug("Limpeza do cache de funkos concluída.", map[string]interface{}{
			"removed":  removed,
			"resident": c.order.Len(),
		})
	}
}
