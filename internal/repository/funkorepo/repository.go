package funkorepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gofunko/internal/domain"
	apperror "gofunko/internal/errors"
	"gofunko/internal/pkg/logger"
)

// FunkoRepository implementa a interface domain.FunkoRepository sobre PostgreSQL.
// Toda chamada roda sob um contexto com timeout (DBTimeout): uma consulta
// lenta vira um erro de persistência daquela requisição, nunca um worker
// pendurado para sempre.
type FunkoRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewFunkoRepository cria uma nova instância do Repositório, injetando o DB.
func NewFunkoRepository(db *sql.DB, dbTimeout time.Duration, log logger.Logger) *FunkoRepository {
	return &FunkoRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    log,
	}
}

const funkoColumns = `id, cod, name, model, price, release_date, created_at, updated_at`

// scanFunko mapeia uma linha do DB para a struct domain.Funko.
func scanFunko(row interface{ Scan(dest ...interface{}) error }) (domain.Funko, error) {
	var f domain.Funko
	var model string
	err := row.Scan(
		&f.ID,
		&f.Cod,
		&f.Name,
		&model,
		&f.Price,
		&f.ReleaseDate,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	if err != nil {
		return domain.Funko{}, err
	}
	f.Model = domain.Model(model)
	return f, nil
}

// FindAll retorna todos os funkos persistidos, em ordem de id.
// Esta leitura NÃO passa pelo cache: o chamador sempre vê o estado
// completo do repositório.
func (r *FunkoRepository) FindAll(ctx context.Context) ([]domain.Funko, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + funkoColumns + ` FROM funkos ORDER BY id`

	rows, err := r.DB.QueryContext(ctxTimeout, query)
	if err != nil {
		r.logger.Error("Falha ao buscar funkos no DB.", err)
		return nil, apperror.NewDBError("failed to list funkos", err)
	}
	defer rows.Close()

	funkos := make([]domain.Funko, 0)
	for rows.Next() {
		f, err := scanFunko(rows)
		if err != nil {
			return nil, apperror.NewDBError("failed to scan funko row", err)
		}
		funkos = append(funkos, f)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("failed to iterate funko rows", err)
	}

	return funkos, nil
}

// FindByID busca um funko pelo seu id interno.
func (r *FunkoRepository) FindByID(ctx context.Context, id int64) (domain.Funko, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + funkoColumns + ` FROM funkos WHERE id = $1`

	f, err := scanFunko(r.DB.QueryRowContext(ctxTimeout, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Funko{}, apperror.NewNotFoundError(fmt.Sprintf("funko with id %d does not exist", id))
		}
		r.logger.Error("Falha ao buscar funko por id no DB.", err)
		return domain.Funko{}, apperror.NewDBError("failed to find funko by id", err)
	}

	return f, nil
}

// FindByCod busca um funko pelo seu código externo (UUID).
func (r *FunkoRepository) FindByCod(ctx context.Context, cod uuid.UUID) (domain.Funko, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + funkoColumns + ` FROM funkos WHERE cod = $1`

	f, err := scanFunko(r.DB.QueryRowContext(ctxTimeout, query, cod))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Funko{}, apperror.NewNotFoundError(fmt.Sprintf("funko with cod %s does not exist", cod))
		}
		r.logger.Error("Falha ao buscar funko por cod no DB.", err)
		return domain.Funko{}, apperror.NewDBError("failed to find funko by cod", err)
	}

	return f, nil
}

// FindByName busca funkos cujo nome contém o termo informado.
func (r *FunkoRepository) FindByName(ctx context.Context, name string) ([]domain.Funko, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + funkoColumns + ` FROM funkos WHERE name ILIKE '%' || $1 || '%' ORDER BY id`

	rows, err := r.DB.QueryContext(ctxTimeout, query, name)
	if err != nil {
		r.logger.Error("Falha ao buscar funkos por nome no DB.", err)
		return nil, apperror.NewDBError("failed to find funkos by name", err)
	}
	defer rows.Close()

	funkos := make([]domain.Funko, 0)
	for rows.Next() {
		f, err := scanFunko(rows)
		if err != nil {
			return nil, apperror.NewDBError("failed to scan funko row", err)
		}
		funkos = append(funkos, f)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("failed to iterate funko rows", err)
	}

	return funkos, nil
}

// Save insere um novo funko e retorna a entidade com o id atribuído pelo DB.
// O id é do servidor; o cod vem do cliente e é único (constraint no schema).
func (r *FunkoRepository) Save(ctx context.Context, funko domain.Funko) (domain.Funko, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	now := time.Now().UTC()
	funko.CreatedAt = now
	funko.UpdatedAt = now

	query := `INSERT INTO funkos (cod, name, model, price, release_date, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`

	err := r.DB.QueryRowContext(ctxTimeout, query,
		funko.Cod,
		funko.Name,
		string(funko.Model),
		funko.Price,
		funko.ReleaseDate,
		funko.CreatedAt,
		funko.UpdatedAt,
	).Scan(&funko.ID)

	if err != nil {
		r.logger.Error("Falha ao inserir funko no DB.", err)
		return domain.Funko{}, apperror.NewDBError("failed to insert funko", err)
	}

	return funko, nil
}

// Update atualiza os campos mutáveis de um funko existente.
// id e cod são imutáveis e nunca entram no SET.
func (r *FunkoRepository) Update(ctx context.Context, funko domain.Funko) (domain.Funko, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	funko.UpdatedAt = time.Now().UTC()

	query := `UPDATE funkos
	          SET name = $1, model = $2, price = $3, release_date = $4, updated_at = $5
	          WHERE id = $6
	          RETURNING ` + funkoColumns

	updated, err := scanFunko(r.DB.QueryRowContext(ctxTimeout, query,
		funko.Name,
		string(funko.Model),
		funko.Price,
		funko.ReleaseDate,
		funko.UpdatedAt,
		funko.ID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Funko{}, apperror.NewNotFoundError(fmt.Sprintf("funko with id %d does not exist", funko.ID))
		}
		r.logger.Error("Falha ao atualizar funko no DB.", err)
		return domain.Funko{}, apperror.NewDBError("failed to update funko", err)
	}

	return updated, nil
}

// DeleteByID remove um funko pelo id.
func (r *FunkoRepository) DeleteByID(ctx context.Context, id int64) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM funkos WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Falha ao remover funko no DB.", err)
		return apperror.NewDBError("failed to delete funko", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperror.NewDBError("failed to check delete result", err)
	}
	if affected == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("funko with id %d does not exist", id))
	}

	return nil
}

// DeleteAll trunca a tabela de funkos.
func (r *FunkoRepository) DeleteAll(ctx context.Context) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	if _, err := r.DB.ExecContext(ctxTimeout, `TRUNCATE TABLE funkos RESTART IDENTITY`); err != nil {
		r.logger.Error("Falha ao truncar a tabela de funkos.", err)
		return apperror.NewDBError("failed to truncate funkos", err)
	}

	return nil
}
