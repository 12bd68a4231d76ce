package results

import (
	"strings"

	"github.com/edcb/wellbeing/internal/models"
)

const (
	defaultSocialMediaScore = 5
	defaultEmotionalScore   = 5
	defaultImpactFlag       = 0

	// assumed when the addiction result is present without a percentage
	defaultAddictionPercentage = 50.0
	// assumed when the mental-health result is present without a score
	defaultMentalHealthScore = 5.0
)

// affirmativeTokens are the string outcomes that count as "affected"
var affirmativeTokens = map[string]bool{"sí": true, "si": true}

// Derived holds the second-wave parameters computed from the first wave
type Derived struct {
	SocialMediaScore int
	EmotionalScore   int
	ImpactFlag       int
}

// DeriveOrFallback returns extract(result) when the first-wave result is
// present and yields a value, otherwise the leading integer of raw, otherwise def.
func DeriveOrFallback[T any](result *T, extract func(*T) (int, bool), raw string, def int) int {
	if result != nil {
		if v, ok := extract(result); ok {
			return v
		}
	}
	if v, ok := parseLeadingInt(raw); ok {
		return v
	}
	return def
}

// socialMediaScore maps the 0-100 addiction percentage onto 0-10
func socialMediaScore(r *models.PredictionResult) (int, bool) {
	pct := defaultAddictionPercentage
	if r.PrediccionPorcentaje != nil {
		pct = *r.PrediccionPorcentaje
	}
	return roundHalfUp(pct / 10), true
}

func emotionalScore(r *models.PredictionResult) (int, bool) {
	score := defaultMentalHealthScore
	if r.SaludMentalScore != nil {
		score = *r.SaludMentalScore
	}
	return roundHalfUp(score), true
}

func impactFlag(r *models.PredictionResult) (int, bool) {
	if r.PrediccionBooleana != nil {
		if *r.PrediccionBooleana {
			return 1, true
		}
		return 0, true
	}
	if r.Prediccion != nil {
		if affirmativeTokens[strings.ToLower(strings.TrimSpace(*r.Prediccion))] {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// Derive computes the second-wave parameters. Absent first-wave results are
// nil and fall back to the raw parameters.
func Derive(p Params, addiction, performance, mentalHealth *models.PredictionResult) Derived {
	return Derived{
		SocialMediaScore: DeriveOrFallback(addiction, socialMediaScore, p.Get(KeyUsoRedesSociales), defaultSocialMediaScore),
		EmotionalScore:   DeriveOrFallback(mentalHealth, emotionalScore, p.Get(KeyEstadoEmocional), defaultEmotionalScore),
		ImpactFlag:       DeriveOrFallback(performance, impactFlag, p.Get(KeyAfectacionDesempeno), defaultImpactFlag),
	}
}
