package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Aliases por campo destino, en orden de prioridad. Un valor vacío o cero
// cae al siguiente alias.
var (
	timestampAliases = []string{"timestamp", "time", "createdAt"}
	marketAliases    = []string{"market", "conditionId", "condition_id", "marketId"}
	assetAliases     = []string{"asset", "asset_id", "assetId", "outcome"}
)

var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Normalize convierte un RawTrade a NormalizedTrade. Devuelve false si el
// registro no es utilizable: timestamp ilegible, size<=0, price fuera de (0,1]
// o side distinto de BUY/SELL. Nunca hace panic.
func Normalize(raw RawTrade) (NormalizedTrade, bool) {
	ts, ok := parseTimestamp(firstPresent(raw, timestampAliases))
	if !ok {
		return NormalizedTrade{}, false
	}

	size, ok := toFloat(raw["size"])
	if !ok || size <= 0 {
		return NormalizedTrade{}, false
	}
	price, ok := toFloat(raw["price"])
	if !ok || price <= 0 || price > 1 {
		return NormalizedTrade{}, false
	}

	side := Side(strings.ToUpper(strings.TrimSpace(toString(raw["side"]))))
	if side != SideBuy && side != SideSell {
		return NormalizedTrade{}, false
	}

	return NormalizedTrade{
		Timestamp: ts,
		MarketID:  idOrUnknown(raw, marketAliases),
		AssetID:   idOrUnknown(raw, assetAliases),
		Side:      side,
		Size:      size,
		Price:     price,
	}, true
}

// NormalizeAll normaliza un lote conservando el orden de llegada y descarta
// los registros rechazados.
func NormalizeAll(raws []RawTrade) []NormalizedTrade {
	out := make([]NormalizedTrade, 0, len(raws))
	for _, r := range raws {
		if t, ok := Normalize(r); ok {
			out = append(out, t)
		}
	}
	return out
}

func firstPresent(raw RawTrade, aliases []string) any {
	for _, k := range aliases {
		v, ok := raw[k]
		if ok && !isEmpty(v) {
			return v
		}
	}
	return nil
}

func idOrUnknown(raw RawTrade, aliases []string) string {
	if s := strings.TrimSpace(toString(firstPresent(raw, aliases))); s != "" {
		return s
	}
	return UnknownID
}

func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case json.Number:
		return x == "" || x == "0"
	case float64:
		return x == 0
	case int:
		return x == 0
	case int64:
		return x == 0
	case time.Time:
		return x.IsZero()
	}
	return false
}

func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

func toFloat(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		p, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = p
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = p
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// parseTimestamp acepta unix en segundos (con decimales), unix en milisegundos
// y strings ISO-8601.
func parseTimestamp(v any) (time.Time, bool) {
	switch x := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return x.UTC(), true
	case string:
		s := strings.TrimSpace(x)
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return unixToTime(f)
		}
		for _, layout := range isoLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true
			}
		}
		return time.Time{}, false
	}
	f, ok := toFloat(v)
	if !ok {
		return time.Time{}, false
	}
	return unixToTime(f)
}

func unixToTime(f float64) (time.Time, bool) {
	if f <= 0 {
		return time.Time{}, false
	}
	if f > 1e12 {
		ms := int64(f)
		return time.UnixMilli(ms).UTC(), true
	}
	sec := int64(f)
	nsec := int64((f - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC(), true
}
