package domain

// ResolutionStatus es el estado de liquidación de un mercado.
type ResolutionStatus int

const (
	// ResolutionUnknown: no se pudo determinar (fallo de red, respuesta vacía).
	ResolutionUnknown ResolutionStatus = iota
	// ResolutionUnresolved: el mercado sigue abierto.
	ResolutionUnresolved
	// ResolutionResolved: el mercado se liquidó.
	ResolutionResolved
)

func (s ResolutionStatus) String() string {
	switch s {
	case ResolutionResolved:
		return "resolved"
	case ResolutionUnresolved:
		return "unresolved"
	default:
		return "unknown"
	}
}

// Resolution es la respuesta del resolver para un mercado. WinningAssetID
// puede ser un token id o una etiqueta (YES/NO); vacío si el mercado cerró
// sin ganador declarado.
type Resolution struct {
	Status         ResolutionStatus
	WinningAssetID string
}

// Resolved construye una resolución liquidada.
func Resolved(winner string) Resolution {
	return Resolution{Status: ResolutionResolved, WinningAssetID: winner}
}

// Unresolved construye una resolución de mercado abierto.
func Unresolved() Resolution {
	return Resolution{Status: ResolutionUnresolved}
}

// UnknownResolution construye una resolución indeterminada.
func UnknownResolution() Resolution {
	return Resolution{Status: ResolutionUnknown}
}

// Wins devuelve true si el asset (con su clase) es el ganador de la resolución.
// Solo tiene sentido para Status == ResolutionResolved.
func (r Resolution) Wins(assetID string, class TokenClass) bool {
	if r.Status != ResolutionResolved || r.WinningAssetID == "" {
		return false
	}
	if assetID == r.WinningAssetID {
		return true
	}
	switch class {
	case TokenYes:
		return IsYesLabel(r.WinningAssetID)
	case TokenNo:
		return IsNoLabel(r.WinningAssetID)
	}
	return false
}
