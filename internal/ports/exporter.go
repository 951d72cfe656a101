package ports

import "github.com/alejandrodnm/polycopy/internal/domain"

// Exporter vuelca los reports de una ejecución fuera del proceso (ficheros CSV).
type Exporter interface {
	// Export devuelve las rutas escritas.
	Export(reports []domain.TraderReport) ([]string, error)
}
