package notification

import (
	"sync"

	"gofunko/internal/domain"
	"gofunko/internal/pkg/logger"
)

// subscriberBuffer é a folga de cada assinante antes de começarmos a
// descartar eventos para ele (entrega best-effort, sem fila durável).
const subscriberBuffer = 32

// Hub é o broadcaster ao vivo de eventos de mudança do catálogo.
// Sem persistência e sem replay: um assinante só recebe eventos futuros,
// e eventos publicados sem nenhum assinante são descartados.
// A ordem de publicação é preservada dentro de cada assinante.
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan domain.FunkoEvent
	closed bool

	log logger.Logger
}

// NewHub cria um hub vazio.
func NewHub(log logger.Logger) *Hub {
	return &Hub{
		subs: make(map[int]chan domain.FunkoEvent),
		log:  log,
	}
}

// Publish entrega o evento a todos os assinantes atuais.
// Um assinante lento (buffer cheio) perde o evento em vez de bloquear a
// sessão que publicou.
func (h *Hub) Publish(event domain.FunkoEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}

	for id, ch := range h.subs {
		select {
		case ch <- event:
		default:
			if h.log != nil {
				h.log.Debug("Assinante lento: evento descartado.", map[string]interface{}{
					"subscriber": id,
					"event":      string(event.Type),
				})
			}
		}
	}
}

// Subscribe registra um novo assinante e retorna o canal de eventos futuros
// junto com a função de cancelamento. O canal é fechado no cancelamento ou
// no Close do hub.
func (h *Hub) Subscribe() (<-chan domain.FunkoEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan domain.FunkoEvent, subscriberBuffer)

	if h.closed {
		close(ch)
		return ch, func() {}
	}

	id := h.nextID
	h.nextID++
	h.subs[id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
	}

	return ch, cancel
}

// Close encerra o hub e fecha o canal de todos os assinantes.
// Publicações após o Close são no-ops.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
