package ports

import (
	"context"

	"github.com/alejandrodnm/polycopy/internal/domain"
)

// Notifier presenta los traders analizados al usuario.
type Notifier interface {
	// Notify muestra los reports ordenados por score y el resumen de la ejecución.
	Notify(ctx context.Context, reports []domain.TraderReport, summary domain.RunSummary) error
}
