package notification_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"gofunko/internal/domain"
	"gofunko/internal/pkg/logger"
	"gofunko/internal/service/notification"
)

func newTestHub() *notification.Hub {
	return notification.NewHub(logger.NewLogger("error"))
}

func eventWithID(eventType domain.EventType, id int64) domain.FunkoEvent {
	return domain.FunkoEvent{Type: eventType, Funko: domain.Funko{ID: id, Name: "Funko", Model: domain.ModelMarvel}}
}

// TestHub_PublishReachesAllSubscribers garante fan-out: cada assinante
// ativo recebe o evento publicado.
func TestHub_PublishReachesAllSubscribers(t *testing.T) {
	h := newTestHub()
	defer h.Close()

	ch1, cancel1 := h.Subscribe()
	defer cancel1()
	ch2, cancel2 := h.Subscribe()
	defer cancel2()

	h.Publish(eventWithID(domain.EventCreated, 1))

	for _, ch := range []<-chan domain.FunkoEvent{ch1, ch2} {
		select {
		case ev := <-ch:
			assert.Equal(t, domain.EventCreated, ev.Type)
			assert.Equal(t, int64(1), ev.Funko.ID)
		case <-time.After(time.Second):
			t.Fatal("assinante não recebeu o evento")
		}
	}
}

// TestHub_OrderPerSubscriber garante que cada assinante observa os
// eventos na ordem de publicação.
func TestHub_OrderPerSubscriber(t *testing.T) {
	h := newTestHub()
	defer h.Close()

	ch, cancel := h.Subscribe()
	defer cancel()

	h.Publish(eventWithID(domain.EventCreated, 1))
	h.Publish(eventWithID(domain.EventUpdated, 1))
	h.Publish(eventWithID(domain.EventDeleted, 1))

	want := []domain.EventType{domain.EventCreated, domain.EventUpdated, domain.EventDeleted}
	for _, wantType := range want {
		select {
		case ev := <-ch:
			assert.Equal(t, wantType, ev.Type)
		case <-time.After(time.Second):
			t.Fatal("evento não chegou na ordem esperada")
		}
	}
}

// TestHub_NoReplayForLateSubscriber garante que assinantes tardios não
// recebem eventos antigos.
func TestHub_NoReplayForLateSubscriber(t *testing.T) {
	h := newTestHub()
	defer h.Close()

	h.Publish(eventWithID(domain.EventCreated, 1))

	ch, cancel := h.Subscribe()
	defer cancel()

	select {
	case ev := <-ch:
		t.Fatalf("assinante tardio não deveria receber replay, recebeu %v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

// TestHub_PublishWithoutSubscribers garante que publicar sem assinantes
// é seguro e descarta o evento.
func TestHub_PublishWithoutSubscribers(t *testing.T) {
	h := newTestHub()
	defer h.Close()

	assert.NotPanics(t, func() {
		h.Publish(eventWithID(domain.EventDeleted, 7))
	})
}

// TestHub_CancelStopsDelivery garante que após cancelar, o canal é
// fechado e o assinante não recebe mais nada.
func TestHub_CancelStopsDelivery(t *testing.T) {
	h := newTestHub()
	defer h.Close()

	ch, cancel := h.Subscribe()
	cancel()
	cancel() // idempotente

	h.Publish(eventWithID(domain.EventCreated, 1))

	_, open := <-ch
	assert.False(t, open, "o canal deveria estar fechado após o cancelamento")
}

// TestHub_SlowSubscriberDropsInsteadOfBlocking garante que um assinante
// com buffer cheio não bloqueia a publicação.
func TestHub_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	h := newTestHub()
	defer h.Close()

	ch, cancel := h.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		// Bem além do buffer do assinante; sem leitor, os excedentes
		// têm de ser descartados sem travar.
		for i := 0; i < 200; i++ {
			h.Publish(eventWithID(domain.EventUpdated, int64(i)))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish bloqueou com assinante lento")
	}

	// O assinante ainda recebe o que coube no buffer, em ordem.
	ev := <-ch
	assert.Equal(t, int64(0), ev.Funko.ID)
}

// TestHub_Close garante que o Close fecha os canais dos assinantes e que
// publicações e cancelamentos posteriores são no-ops seguros.
func TestHub_Close(t *testing.T) {
	h := newTestHub()

	ch, cancel := h.Subscribe()

	h.Close()
	h.Close() // idempotente

	_, open := <-ch
	assert.False(t, open)

	assert.NotPanics(t, func() {
		h.Publish(eventWithID(domain.EventCreated, 1))
		cancel()
	})

	// Assinatura após o Close devolve canal já fechado.
	late, lateCancel := h.Subscribe()
	defer lateCancel()
	_, open = <-late
	assert.False(t, open)
}
