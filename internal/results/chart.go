package results

import "github.com/edcb/wellbeing/internal/models"

// ExtractChart returns r's chart as a PNG data URI. It reads grafica_base64,
// then grafica, and reports false when r is nil or carries neither.
func ExtractChart(r *models.PredictionResult) (string, bool) {
	if r == nil {
		return "", false
	}
	return r.DataURI()
}
