package userservice_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"gofunko/internal/domain"
	apperror "gofunko/internal/errors"
	"gofunko/internal/pkg/logger"
	"gofunko/internal/pkg/token"
	"gofunko/internal/service/userservice"
)

// MockUserRepository é uma implementação mock da interface UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (domain.User, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id int64) (domain.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserRepository) Save(ctx context.Context, user domain.User) (domain.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(domain.User), args.Error(1)
}

func newTokenService() token.TokenService {
	return token.NewService("test-secret", 10*time.Minute)
}

func seededUser(t *testing.T, id int64, username, password string, role domain.UserRole) domain.User {
	t.Helper()
	hash, err := userservice.HashPassword(password)
	assert.NoError(t, err)
	return domain.User{ID: id, Username: username, PasswordHash: hash, Role: role}
}

// TestLogin_Success testa o login com credenciais corretas: o token
// emitido carrega as claims do usuário.
func TestLogin_Success(t *testing.T) {
	mockRepo := new(MockUserRepository)
	tokenSvc := newTokenService()
	svc := userservice.NewService(mockRepo, tokenSvc, logger.NewLogger("error"))

	pepe := seededUser(t, 2, "pepe", "pepe1234", domain.RoleUser)
	mockRepo.On("FindByUsername", mock.Anything, "pepe").Return(pepe, nil)

	tokenString, err := svc.Login(context.Background(), "pepe", "pepe1234")

	assert.NoError(t, err)
	assert.NotEmpty(t, tokenString)

	claims, err := tokenSvc.ValidateToken(tokenString)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), claims.UserID)
	assert.Equal(t, "USER", claims.Role)
	mockRepo.AssertExpectations(t)
}

// TestLogin_WrongPassword testa que senha incorreta resulta em
// Unauthorized sem emissão de token.
func TestLogin_WrongPassword(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := userservice.NewService(mockRepo, newTokenService(), logger.NewLogger("error"))

	pepe := seededUser(t, 2, "pepe", "pepe1234", domain.RoleUser)
	mockRepo.On("FindByUsername", mock.Anything, "pepe").Return(pepe, nil)

	tokenString, err := svc.Login(context.Background(), "pepe", "senha-errada")

	assert.Error(t, err)
	assert.Empty(t, tokenString)
	var unauthorized *apperror.UnauthorizedError
	assert.True(t, errors.As(err, &unauthorized))
}

// TestLogin_UnknownUser testa o curto-circuito: usuário inexistente
// retorna Unauthorized imediatamente, sem tentar gerar token.
func TestLogin_UnknownUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := userservice.NewService(mockRepo, newTokenService(), logger.NewLogger("error"))

	mockRepo.On("FindByUsername", mock.Anything, "fantasma").
		Return(domain.User{}, apperror.NewNotFoundError("user not found"))

	tokenString, err := svc.Login(context.Background(), "fantasma", "qualquer")

	assert.Error(t, err)
	assert.Empty(t, tokenString)
	var unauthorized *apperror.UnauthorizedError
	assert.True(t, errors.As(err, &unauthorized))
	assert.Equal(t, "invalid credentials", err.Error())
}

// TestLogin_EmptyCredentials testa que credenciais vazias falham antes
// de qualquer consulta ao repositório.
func TestLogin_EmptyCredentials(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := userservice.NewService(mockRepo, newTokenService(), logger.NewLogger("error"))

	for _, creds := range [][2]string{{"", "pepe1234"}, {"pepe", ""}, {"", ""}} {
		tokenString, err := svc.Login(context.Background(), creds[0], creds[1])

		assert.Error(t, err)
		assert.Empty(t, tokenString)
	}

	mockRepo.AssertNotCalled(t, "FindByUsername", mock.Anything, mock.Anything)
}

// TestLogin_RepositoryError testa que falha de infraestrutura não vira
// Unauthorized: o erro original é propagado.
func TestLogin_RepositoryError(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := userservice.NewService(mockRepo, newTokenService(), logger.NewLogger("error"))

	dbErr := apperror.NewDBError("failed to query user", errors.New("connection refused"))
	mockRepo.On("FindByUsername", mock.Anything, "pepe").Return(domain.User{}, dbErr)

	_, err := svc.Login(context.Background(), "pepe", "pepe1234")

	assert.Error(t, err)
	var unauthorized *apperror.UnauthorizedError
	assert.False(t, errors.As(err, &unauthorized), "erro de infraestrutura não deve virar Unauthorized")
}

// TestAuthenticate_Success testa a resolução de um token válido para o
// usuário correspondente.
func TestAuthenticate_Success(t *testing.T) {
	mockRepo := new(MockUserRepository)
	tokenSvc := newTokenService()
	svc := userservice.NewService(mockRepo, tokenSvc, logger.NewLogger("error"))

	admin := seededUser(t, 1, "admin", "admin1234", domain.RoleAdmin)
	mockRepo.On("FindByID", mock.Anything, int64(1)).Return(admin, nil)

	tokenString, err := tokenSvc.GenerateToken(1, "ADMIN")
	assert.NoError(t, err)

	user, err := svc.Authenticate(context.Background(), tokenString)

	assert.NoError(t, err)
	assert.Equal(t, "admin", user.Username)
	assert.Equal(t, domain.RoleAdmin, user.Role)
}

// TestAuthenticate_InvalidTokens testa que token vazio, adulterado ou
// expirado resulta sempre na mensagem fixa do protocolo.
func TestAuthenticate_InvalidTokens(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := userservice.NewService(mockRepo, newTokenService(), logger.NewLogger("error"))

	expiredSvc := token.NewService("test-secret", -time.Minute)
	expired, err := expiredSvc.GenerateToken(1, "USER")
	assert.NoError(t, err)

	otherSecret := token.NewService("outro-segredo", 10*time.Minute)
	forged, err := otherSecret.GenerateToken(1, "ADMIN")
	assert.NoError(t, err)

	for _, tokenString := range []string{"", "garbage", expired, forged} {
		_, err := svc.Authenticate(context.Background(), tokenString)

		assert.Error(t, err)
		assert.Equal(t, "invalid or expired token", err.Error())
	}

	mockRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

// TestAuthenticate_UserNoLongerExists testa token válido de um usuário
// que já foi removido: Unauthorized com a mensagem fixa.
func TestAuthenticate_UserNoLongerExists(t *testing.T) {
	mockRepo := new(MockUserRepository)
	tokenSvc := newTokenService()
	svc := userservice.NewService(mockRepo, tokenSvc, logger.NewLogger("error"))

	mockRepo.On("FindByID", mock.Anything, int64(99)).
		Return(domain.User{}, apperror.NewNotFoundError("user not found"))

	tokenString, err := tokenSvc.GenerateToken(99, "USER")
	assert.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), tokenString)

	assert.Error(t, err)
	assert.Equal(t, "invalid or expired token", err.Error())
}

// TestHashPassword testa que o hash gerado valida a senha original.
func TestHashPassword(t *testing.T) {
	hash, err := userservice.HashPassword("admin1234")

	assert.NoError(t, err)
	assert.NotEqual(t, "admin1234", hash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("admin1234")))
	assert.Error(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("outra")))
}
