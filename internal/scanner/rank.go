package scanner

import (
	"sort"

	"github.com/alejandrodnm/polycopy/internal/domain"
)

// rankReports ordena por score desc; empates por dirección para que el
// resultado no dependa del orden en que terminan los workers.
func rankReports(reports []domain.TraderReport) []domain.TraderReport {
	sort.SliceStable(reports, func(i, j int) bool {
		a, b := reports[i].Metrics, reports[j].Metrics
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.Address < b.Address
	})
	return reports
}
