package ports

import (
	"context"

	"github.com/alejandrodnm/polycopy/internal/domain"
)

// Storage persiste los resultados de cada ejecución del analizador.
type Storage interface {
	// SaveRun persiste el resumen de la ejecución y hace upsert de los traders elegibles.
	SaveRun(ctx context.Context, summary domain.RunSummary, reports []domain.TraderReport) error

	// TopTraders devuelve los traders guardados con mejor score.
	TopTraders(ctx context.Context, limit int) ([]domain.TraderReport, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
