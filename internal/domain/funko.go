package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Funko representa o item principal do catálogo (a Entidade).
// O ID é atribuído pelo repositório na criação e nunca muda; o Cod é o
// código externo visível ao cliente, definido na criação e imutável.
type Funko struct {
	ID          int64     `json:"id"`
	Cod         uuid.UUID `json:"cod"`
	Name        string    `json:"name"`
	Model       Model     `json:"model"`
	Price       float64   `json:"price"`
	ReleaseDate time.Time `json:"release_date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Model é a enumeração fechada de modelos de Funko.
type Model string

const (
	ModelMarvel Model = "MARVEL"
	ModelDisney Model = "DISNEY"
	ModelAnime  Model = "ANIME"
	ModelOtros  Model = "OTROS"
)

// ParseModel converte uma string em um Model válido.
// Valores fora da enumeração são rejeitados.
func ParseModel(s string) (Model, error) {
	switch Model(s) {
	case ModelMarvel, ModelDisney, ModelAnime, ModelOtros:
		return Model(s), nil
	default:
		return "", fmt.Errorf("modelo desconhecido: %q", s)
	}
}

// --- Notificações de mudança de catálogo ---

// EventType identifica o tipo de mudança ocorrida em um Funko.
type EventType string

const (
	EventCreated EventType = "CREATED"
	EventUpdated EventType = "UPDATED"
	EventDeleted EventType = "DELETED"
)

// FunkoEvent é o evento publicado no hub de notificações após cada
// escrita confirmada no repositório.
type FunkoEvent struct {
	Type  EventType `json:"type"`
	Funko Funko     `json:"funko"`
}

// --- Interfaces de Contrato ---

// FunkoRepository é a interface que a camada de Repositório (Data Access) DEVE implementar.
// Ela define o que o Serviço de catálogo pode pedir para a camada de Persistência fazer.
type FunkoRepository interface {
	FindAll(ctx context.Context) ([]Funko, error)
	FindByID(ctx context.Context, id int64) (Funko, error)
	FindByCod(ctx context.Context, cod uuid.UUID) (Funko, error)
	FindByName(ctx context.Context, name string) ([]Funko, error)
	Save(ctx context.Context, funko Funko) (Funko, error)
	Update(ctx context.Context, funko Funko) (Funko, error)
	DeleteByID(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) error
}

// FunkoService é a interface que a camada de Serviço (Business Logic) DEVE implementar.
// É o contrato consumido pelo Session Worker.
type FunkoService interface {
	FindAll(ctx context.Context) ([]Funko, error)
	FindByID(ctx context.Context, id int64) (Funko, error)
	FindByCod(ctx context.Context, cod uuid.UUID) (Funko, error)
	FindByName(ctx context.Context, name string) ([]Funko, error)
	FindByModel(ctx context.Context, model Model) ([]Funko, error)
	FindByReleaseYear(ctx context.Context, year int) ([]Funko, error)
	Create(ctx context.Context, funko Funko) (Funko, error)
	Update(ctx context.Context, funko Funko) (Funko, error)
	DeleteByID(ctx context.Context, id int64) (Funko, error)
	DeleteAll(ctx context.Context) error
}
