package funkoservice

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"gofunko/internal/domain"
	apperror "gofunko/internal/errors"
	"gofunko/internal/pkg/logger"
)

// Cache é o contrato que este Serviço espera do cache de Funkos.
// A estratégia é cache-aside: um miss aqui nunca busca no repositório
// sozinho; quem decide repopular é o Serviço.
type Cache interface {
	Get(id int64) (domain.Funko, bool)
	Put(id int64, funko domain.Funko)
	Delete(id int64)
	Clear()
}

// Notifier é o contrato do hub de notificações consumido pelo Serviço.
type Notifier interface {
	Publish(event domain.FunkoEvent)
}

// Storage é o contrato do serviço de import/export em massa (CSV/JSON).
type Storage interface {
	ImportFromCSV(path string) ([]domain.Funko, error)
	ExportToJSON(funkos []domain.Funko, path string) (bool, error)
}

// Service implementa a interface domain.FunkoService orquestrando
// repositório, cache e notificações.
//
// Invariante de ordem nas escritas: o estado do cache para um id só é
// atualizado DEPOIS que a escrita correspondente no repositório foi
// confirmada; uma escrita falhada deixa o cache intocado. A exceção é o
// delete, que remove do cache antes do delete persistente, trade-off
// aceito para não servir valor velho enquanto o DB está lento.
type Service struct {
	repo     domain.FunkoRepository
	cache    Cache
	notifier Notifier
	storage  Storage
	logger   logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de catálogo.
func NewService(repo domain.FunkoRepository, cache Cache, notifier Notifier, storage Storage, log logger.Logger) *Service {
	return &Service{
		repo:     repo,
		cache:    cache,
		notifier: notifier,
		storage:  storage,
		logger:   log,
	}
}

// FindAll retorna o estado persistido completo, sem passar pelo cache.
func (s *Service) FindAll(ctx context.Context) ([]domain.Funko, error) {
	s.logger.Debug("Buscando todos os funkos.", nil)
	return s.repo.FindAll(ctx)
}

// FindByID busca pelo id interno: cache primeiro, repositório no miss,
// repopulando o cache antes de retornar.
func (s *Service) FindByID(ctx context.Context, id int64) (domain.Funko, error) {
	if funko, ok := s.cache.Get(id); ok {
		s.logger.Debug("Cache hit para funko.", map[string]interface{}{"id": id})
		return funko, nil
	}

	funko, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Funko{}, err
	}

	s.cache.Put(funko.ID, funko)
	return funko, nil
}

// FindByCod busca pelo código externo. O cod não é chave de cache: a
// consulta vai sempre ao repositório, mas o acerto popula o cache pelo
// id interno do item.
func (s *Service) FindByCod(ctx context.Context, cod uuid.UUID) (domain.Funko, error) {
	funko, err := s.repo.FindByCod(ctx, cod)
	if err != nil {
		return domain.Funko{}, err
	}

	s.cache.Put(funko.ID, funko)
	return funko, nil
}

// FindByName busca funkos pelo nome diretamente no repositório.
func (s *Service) FindByName(ctx context.Context, name string) ([]domain.Funko, error) {
	return s.repo.FindByName(ctx, name)
}

// FindByModel filtra o conjunto completo pelo modelo informado.
func (s *Service) FindByModel(ctx context.Context, model domain.Model) ([]domain.Funko, error) {
	funkos, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]domain.Funko, 0)
	for _, f := range funkos {
		if f.Model == model {
			filtered = append(filtered, f)
		}
	}
	return filtered, nil
}

// FindByReleaseYear filtra o conjunto completo pelo ano de lançamento.
func (s *Service) FindByReleaseYear(ctx context.Context, year int) ([]domain.Funko, error) {
	funkos, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]domain.Funko, 0)
	for _, f := range funkos {
		if f.ReleaseDate.Year() == year {
			filtered = append(filtered, f)
		}
	}
	return filtered, nil
}

// Create valida e persiste um novo funko; só depois do repositório
// confirmar é que o cache é populado e o evento CREATED publicado.
func (s *Service) Create(ctx context.Context, funko domain.Funko) (domain.Funko, error) {
	if err := validateFunko(funko); err != nil {
		return domain.Funko{}, err
	}
	if funko.Cod == uuid.Nil {
		funko.Cod = uuid.New()
	}

	saved, err := s.repo.Save(ctx, funko)
	if err != nil {
		// Escrita rejeitada (e.g., cod duplicado): cache fica intocado.
		return domain.Funko{}, err
	}

	s.cache.Put(saved.ID, saved)
	s.notifier.Publish(domain.FunkoEvent{Type: domain.EventCreated, Funko: saved})

	s.logger.Info("Funko criado.", map[string]interface{}{"id": saved.ID, "cod": saved.Cod.String()})
	return saved, nil
}

// Update exige que o funko já exista (propaga NotFound); id e cod são
// preservados do registro existente.
func (s *Service) Update(ctx context.Context, funko domain.Funko) (domain.Funko, error) {
	if err := validateFunko(funko); err != nil {
		return domain.Funko{}, err
	}

	existing, err := s.FindByID(ctx, funko.ID)
	if err != nil {
		return domain.Funko{}, err
	}
	funko.Cod = existing.Cod // cod é imutável

	updated, err := s.repo.Update(ctx, funko)
	if err != nil {
		return domain.Funko{}, err
	}

	s.cache.Put(updated.ID, updated)
	s.notifier.Publish(domain.FunkoEvent{Type: domain.EventUpdated, Funko: updated})

	s.logger.Info("Funko atualizado.", map[string]interface{}{"id": updated.ID})
	return updated, nil
}

// DeleteByID remove um funko existente. A entrada do cache é removida
// ANTES do delete persistente; se o delete falhar, a entrada fica ausente
// até a próxima leitura repopular. Janela de staleness aceita,
// preferível a servir um valor já condenado.
func (s *Service) DeleteByID(ctx context.Context, id int64) (domain.Funko, error) {
	funko, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Funko{}, err
	}

	s.cache.Delete(id)

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return domain.Funko{}, err
	}

	s.notifier.Publish(domain.FunkoEvent{Type: domain.EventDeleted, Funko: funko})

	s.logger.Info("Funko removido.", map[string]interface{}{"id": id})
	return funko, nil
}

// DeleteAll limpa o cache e trunca o repositório.
func (s *Service) DeleteAll(ctx context.Context) error {
	s.cache.Clear()
	return s.repo.DeleteAll(ctx)
}

// Backup exporta o conjunto persistido completo para um arquivo JSON.
func (s *Service) Backup(ctx context.Context, path string) (bool, error) {
	s.logger.Debug("Realizando backup dos funkos.", map[string]interface{}{"path": path})

	funkos, err := s.repo.FindAll(ctx)
	if err != nil {
		return false, err
	}

	return s.storage.ExportToJSON(funkos, path)
}

// ImportCSV carrega funkos de um CSV e os persiste um a um, com
// notificação CREATED para cada item salvo.
func (s *Service) ImportCSV(ctx context.Context, path string) ([]domain.Funko, error) {
	s.logger.Debug("Importando funkos de CSV.", map[string]interface{}{"path": path})

	funkos, err := s.storage.ImportFromCSV(path)
	if err != nil {
		return nil, err
	}

	imported := make([]domain.Funko, 0, len(funkos))
	for _, f := range funkos {
		saved, err := s.Create(ctx, f)
		if err != nil {
			return imported, err
		}
		imported = append(imported, saved)
	}
	return imported, nil
}

// validateFunko aplica as regras de negócio básicas de um funko.
func validateFunko(funko domain.Funko) error {
	if funko.Name == "" {
		return apperror.NewValidationError("funko name is required")
	}
	if funko.Price < 0 {
		return apperror.NewValidationError("funko price must not be negative")
	}
	if _, err := domain.ParseModel(string(funko.Model)); err != nil {
		return apperror.NewValidationError(fmt.Sprintf("invalid funko model %q", funko.Model))
	}
	return nil
}
