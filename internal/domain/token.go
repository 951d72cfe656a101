package domain

import "strings"

// TokenClass clasifica un asset id por su etiqueta literal. Es informativo:
// solo sirve para casar con un ganador expresado como etiqueta binaria.
type TokenClass string

const (
	TokenYes     TokenClass = "YES"
	TokenNo      TokenClass = "NO"
	TokenUnknown TokenClass = "UNKNOWN"
)

// IsYesLabel devuelve true para YES/TRUE/1 (sin distinguir mayúsculas).
func IsYesLabel(s string) bool {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "YES", "TRUE", "1":
		return true
	}
	return false
}

// IsNoLabel devuelve true para NO/FALSE/0 (sin distinguir mayúsculas).
func IsNoLabel(s string) bool {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "NO", "FALSE", "0":
		return true
	}
	return false
}

// ClassifyToken devuelve la clase del asset id.
func ClassifyToken(assetID string) TokenClass {
	switch {
	case IsYesLabel(assetID):
		return TokenYes
	case IsNoLabel(assetID):
		return TokenNo
	default:
		return TokenUnknown
	}
}
