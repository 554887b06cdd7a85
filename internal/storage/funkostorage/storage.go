package funkostorage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"

	"gofunko/internal/domain"
	apperror "gofunko/internal/errors"
	"gofunko/internal/pkg/logger"
)

// StorageService faz o import/export em massa de funkos (CSV para dentro,
// JSON para fora). Fora do núcleo do protocolo: consumido apenas pelo
// Serviço de catálogo para seed e backup.
type StorageService struct {
	logger logger.Logger
}

// NewStorageService cria uma nova instância do StorageService.
func NewStorageService(log logger.Logger) *StorageService {
	return &StorageService{logger: log}
}

// ImportFromCSV lê funkos de um CSV no formato
// cod,name,model,price,release_date (com linha de cabeçalho).
func (s *StorageService) ImportFromCSV(path string) ([]domain.Funko, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, apperror.NewInternalError("failed to open csv file", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = 5

	records, err := reader.ReadAll()
	if err != nil {
		return nil, apperror.NewValidationError(fmt.Sprintf("malformed csv file %s: %v", path, err))
	}

	funkos := make([]domain.Funko, 0, len(records))
	for i, record := range records {
		if i == 0 {
			// Linha de cabeçalho
			continue
		}

		funko, err := parseRecord(record)
		if err != nil {
			return nil, apperror.NewValidationError(fmt.Sprintf("csv line %d: %v", i+1, err))
		}
		funkos = append(funkos, funko)
	}

	s.logger.Info("Funkos importados do CSV.", map[string]interface{}{"path": path, "count": len(funkos)})
	return funkos, nil
}

// ExportToJSON escreve a lista de funkos em um arquivo JSON.
func (s *StorageService) ExportToJSON(funkos []domain.Funko, path string) (bool, error) {
	if len(funkos) == 0 || path == "" {
		return false, nil
	}

	data, err := json.MarshalIndent(funkos, "", "  ")
	if err != nil {
		return false, apperror.NewInternalError("failed to serialize funkos", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, apperror.NewInternalError("failed to write backup file", err)
	}

	s.logger.Info("Backup de funkos exportado.", map[string]interface{}{"path": path, "count": len(funkos)})
	return true, nil
}

// parseRecord converte uma linha do CSV em um domain.Funko.
func parseRecord(record []string) (domain.Funko, error) {
	cod, err := uuid.Parse(record[0])
	if err != nil {
		return domain.Funko{}, fmt.Errorf("invalid cod %q: %w", record[0], err)
	}

	model, err := domain.ParseModel(record[2])
	if err != nil {
		return domain.Funko{}, err
	}

	price, err := strconv.ParseFloat(record[3], 64)
	if err != nil {
		return domain.Funko{}, fmt.Errorf("invalid price %q: %w", record[3], err)
	}

	releaseDate, err := time.Parse("2006-01-02", record[4])
	if err != nil {
		return domain.Funko{}, fmt.Errorf("invalid release date %q: %w", record[4], err)
	}

	return domain.Funko{
		Cod:         cod,
		Name:        record[1],
		Model:       model,
		Price:       price,
		ReleaseDate: releaseDate,
	}, nil
}
