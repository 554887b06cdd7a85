package userrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gofunko/internal/domain"
	apperror "gofunko/internal/errors"
	"gofunko/internal/pkg/logger"
)

// UserRepository implementa a interface domain.UserRepository (o credential
// store) sobre PostgreSQL.
type UserRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewUserRepository cria uma nova instância do UserRepository, injetando o DB.
func NewUserRepository(db *sql.DB, dbTimeout time.Duration, log logger.Logger) *UserRepository {
	return &UserRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    log,
	}
}

const userColumns = `id, username, password_hash, role, created_at, updated_at`

// scanUser mapeia uma linha do DB para a struct domain.User.
func scanUser(row interface{ Scan(dest ...interface{}) error }) (domain.User, error) {
	var u domain.User
	var role string
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}
	u.Role = domain.UserRole(role)
	return u, nil
}

// FindByUsername busca um usuário pelo nome de login.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (domain.User, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	u, err := scanUser(r.DB.QueryRowContext(ctxTimeout, query, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, apperror.NewNotFoundError(fmt.Sprintf("user %q not found", username))
		}
		r.logger.Error("Falha ao buscar usuário por username no DB.", err)
		return domain.User{}, apperror.NewDBError("failed to find user by username", err)
	}

	return u, nil
}

// FindByID busca um usuário pelo id (usado na resolução de claims do token).
func (r *UserRepository) FindByID(ctx context.Context, id int64) (domain.User, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(r.DB.QueryRowContext(ctxTimeout, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, apperror.NewNotFoundError(fmt.Sprintf("user with id %d not found", id))
		}
		r.logger.Error("Falha ao buscar usuário por id no DB.", err)
		return domain.User{}, apperror.NewDBError("failed to find user by id", err)
	}

	return u, nil
}

// Save insere um usuário caso o username ainda não exista (seed idempotente).
// Retorna o usuário persistido, recuperando a linha existente em caso de conflito.
func (r *UserRepository) Save(ctx context.Context, user domain.User) (domain.User, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `INSERT INTO users (username, password_hash, role, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5)
	          ON CONFLICT (username) DO NOTHING
	          RETURNING id`

	err := r.DB.QueryRowContext(ctxTimeout, query,
		user.Username,
		user.PasswordHash,
		string(user.Role),
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Já existia: devolve a linha atual.
			return r.FindByUsername(ctx, user.Username)
		}
		r.logger.Error("Falha ao inserir usuário no DB.", err)
		return domain.User{}, apperror.NewDBError("failed to insert user", err)
	}

	return user, nil
}
