package domain

import (
	"context"
	"time"
)

// User representa a entidade do usuário no sistema.
// A senha é armazenada apenas como hash (bcrypt) e nunca comparada em texto puro.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Oculta o hash da senha no JSON de resposta
	Role         UserRole  `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserRole é um tipo string para representar o papel do usuário no sistema.
type UserRole string

// Constantes para os papéis de usuário (enumeração fechada do protocolo)
const (
	RoleAdmin UserRole = "ADMIN"
	RoleUser  UserRole = "USER"
)

// UserRepository define o contrato de persistência para a entidade User
// (o credential store consumido pelo núcleo).
type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (User, error)
	FindByID(ctx context.Context, id int64) (User, error)
	Save(ctx context.Context, user User) (User, error)
}

// UserService define o contrato de autenticação consumido pelo Session Worker.
type UserService interface {
	// Login verifica as credenciais e retorna um token assinado.
	Login(ctx context.Context, username string, password string) (string, error)
	// Authenticate valida um token e resolve o usuário correspondente.
	Authenticate(ctx context.Context, tokenString string) (User, error)
}
