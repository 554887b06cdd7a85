package userservice

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"gofunko/internal/domain"
	apperror "gofunko/internal/errors"
	"gofunko/internal/pkg/logger"
	"gofunko/internal/pkg/token"
)

// UserService implementa a autenticação de sessões: login com credenciais
// e resolução de tokens para requisições subsequentes.
type UserService struct {
	UserRepo domain.UserRepository
	TokenSvc token.TokenService
	logger   logger.Logger
}

// NewService cria uma nova instância do UserService, injetando o
// repositório de credenciais e o serviço de tokens.
func NewService(repo domain.UserRepository, tokenSvc token.TokenService, log logger.Logger) *UserService {
	return &UserService{
		UserRepo: repo,
		TokenSvc: tokenSvc,
		logger:   log,
	}
}

// Login autentica um usuário, verifica a senha e gera um JWT.
// A falha de credencial retorna IMEDIATAMENTE: nenhum token é emitido e
// nada mais é tentado com um usuário possivelmente ausente.
func (s *UserService) Login(ctx context.Context, username string, password string) (string, error) {
	// 1. Validação Básica
	if username == "" || password == "" {
		return "", apperror.NewUnauthorizedError("username and password are required")
	}

	// 2. Buscar Usuário pelo Username
	user, err := s.UserRepo.FindByUsername(ctx, username)
	if err != nil {
		// NotFound vira Unauthorized para não dar dicas a invasores.
		var notFoundErr *apperror.NotFoundError
		if errors.As(err, &notFoundErr) {
			s.logger.Debug("Login com usuário inexistente.", map[string]interface{}{"username": username})
			return "", apperror.NewUnauthorizedError("invalid credentials")
		}
		return "", err
	}

	// 3. Comparar Senhas (hash bcrypt, nunca texto puro)
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Debug("Login com senha incorreta.", map[string]interface{}{"username": username})
		return "", apperror.NewUnauthorizedError("invalid credentials")
	}

	// 4. Gerar JWT
	tokenString, err := s.TokenSvc.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return "", apperror.NewInternalError("failed to generate authentication token", err)
	}

	return tokenString, nil
}

// Authenticate valida um token e resolve o usuário das claims.
// Qualquer falha (assinatura, expiração ou usuário ausente) resulta em
// UnauthorizedError com a mensagem fixa do protocolo.
func (s *UserService) Authenticate(ctx context.Context, tokenString string) (domain.User, error) {
	if tokenString == "" {
		return domain.User{}, apperror.NewUnauthorizedError("invalid or expired token")
	}

	claims, err := s.TokenSvc.ValidateToken(tokenString)
	if err != nil {
		s.logger.Debug("Token rejeitado.", map[string]interface{}{"reason": err.Error()})
		return domain.User{}, apperror.NewUnauthorizedError("invalid or expired token")
	}

	user, err := s.UserRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		var notFoundErr *apperror.NotFoundError
		if errors.As(err, &notFoundErr) {
			return domain.User{}, apperror.NewUnauthorizedError("invalid or expired token")
		}
		return domain.User{}, err
	}

	return user, nil
}

// HashPassword gera o hash bcrypt de uma senha (usado no seed de usuários).
func HashPassword(password string) (string, error) {
	hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashBytes), nil
}
