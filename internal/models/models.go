package models

import "strings"

// PNGDataURIPrefix is prepended to bare base64 chart payloads
const PNGDataURIPrefix = "data:image/png;base64,"

// Chart holds the chart payload; the backend uses either field name
type Chart struct {
	GraficaBase64 *string `json:"grafica_base64,omitempty"`
	Grafica       *string `json:"grafica,omitempty"`
}

// DataURI returns the chart as a PNG data URI, or false when no payload is set
func (c Chart) DataURI() (string, bool) {
	var payload string
	switch {
	case c.GraficaBase64 != nil && *c.GraficaBase64 != "":
		payload = *c.GraficaBase64
	case c.Grafica != nil && *c.Grafica != "":
		payload = *c.Grafica
	default:
		return "", false
	}
	if strings.HasPrefix(payload, PNGDataURIPrefix) {
		return payload, true
	}
	return PNGDataURIPrefix + payload, true
}

// InputEcho is the backend's echo of the values it was called with
type InputEcho struct {
	HorasDiariasUso    *float64 `json:"horas_diarias_uso,omitempty"`
	HorasSuenoNocturno *float64 `json:"horas_sueño_nocturno,omitempty"`
	EstatusRelacion    *float64 `json:"estatus_relacion,omitempty"`
}

// ModelExplanation describes the model in plain language
type ModelExplanation struct {
	QueEs        *string `json:"que_es,omitempty"`
	ComoFunciona *string `json:"como_funciona,omitempty"`
	ParaQueSirve *string `json:"para_que_sirve,omitempty"`
}

// ModelMetadata describes the model behind a prediction
type ModelMetadata struct {
	Algoritmo         *string           `json:"algoritmo,omitempty"`
	Variables         []string          `json:"variables,omitempty"`
	ExplicacionModelo *ModelExplanation `json:"explicacion_modelo,omitempty"`
}

// ChartInterpretation explains the two charts of the addiction response
type ChartInterpretation struct {
	Grafica1 *string `json:"grafica_1,omitempty"`
	Grafica2 *string `json:"grafica_2,omitempty"`
}

// PredictionResult is the body returned by the first-wave endpoints.
// Every field is optional; a missing field means a degraded response.
type PredictionResult struct {
	Chart

	PrediccionPorcentaje   *float64             `json:"prediccion_porcentaje,omitempty"`
	NivelAdiccion          *string              `json:"nivel_adiccion,omitempty"`
	Mensaje                *string              `json:"mensaje,omitempty"`
	PrediccionBooleana     *bool                `json:"prediccion_booleana,omitempty"`
	Prediccion             *string              `json:"prediccion,omitempty"`
	ProbabilidadAfectacion *float64             `json:"probabilidad_afectacion,omitempty"`
	SaludMentalScore       *float64             `json:"salud_mental_score,omitempty"`
	ValoresIngresados      *InputEcho           `json:"valores_ingresados,omitempty"`
	ModeloMetadata         *ModelMetadata       `json:"modelo_metadata,omitempty"`
	InterpretacionGraficas *ChartInterpretation `json:"interpretacion_graficas,omitempty"`
}

// SleepQualityResult is the sleep-quality classification
type SleepQualityResult struct {
	Chart
	Categoria *string `json:"Categoria,omitempty"`
}

// ConflictRiskResult is the social-media conflict risk
type ConflictRiskResult struct {
	Chart
	RiesgoAlto   *bool    `json:"RiesgoAlto,omitempty"`
	Probabilidad *float64 `json:"Probabilidad,omitempty"`
}

// ScreenTimeResult is the recommended daily screen time
type ScreenTimeResult struct {
	Chart
	RecommendedHours *float64 `json:"RecommendedHours,omitempty"`
}

// StudyEfficiencyResult is the study efficiency score
type StudyEfficiencyResult struct {
	Chart
	StudyEfficiencyScore *float64 `json:"StudyEfficiencyScore,omitempty"`
}

// ResultSet is the merged dashboard record. A nil slot means the call
// failed or the endpoint is disabled.
type ResultSet struct {
	Adiccion        *PredictionResult      `json:"adiccion"`
	Rendimiento     *PredictionResult      `json:"rendimiento"`
	SaludMental     *PredictionResult      `json:"saludMental"`
	SleepQuality    *SleepQualityResult    `json:"sleepQuality"`
	HighAddiction   *PredictionResult      `json:"highAddiction"`
	ConflictRisk    *ConflictRiskResult    `json:"conflictRisk"`
	ScreenTime      *ScreenTimeResult      `json:"screenTime"`
	SocialWellbeing *PredictionResult      `json:"socialWellbeing"`
	StudyEfficiency *StudyEfficiencyResult `json:"studyEfficiency"`
}

// Slot names, in dashboard order
const (
	SlotAdiccion        = "adiccion"
	SlotRendimiento     = "rendimiento"
	SlotSaludMental     = "saludMental"
	SlotSleepQuality    = "sleepQuality"
	SlotHighAddiction   = "highAddiction"
	SlotConflictRisk    = "conflictRisk"
	SlotScreenTime      = "screenTime"
	SlotSocialWellbeing = "socialWellbeing"
	SlotStudyEfficiency = "studyEfficiency"
)

// Charts maps each present slot that carries a chart to its data URI
func (rs *ResultSet) Charts() map[string]string {
	charts := make(map[string]string)
	if rs == nil {
		return charts
	}
	add := func(name string, c *Chart) {
		if c == nil {
			return
		}
		if uri, ok := c.DataURI(); ok {
			charts[name] = uri
		}
	}
	if rs.Adiccion != nil {
		add(SlotAdiccion, &rs.Adiccion.Chart)
	}
	if rs.Rendimiento != nil {
		add(SlotRendimiento, &rs.Rendimiento.Chart)
	}
	if rs.SaludMental != nil {
		add(SlotSaludMental, &rs.SaludMental.Chart)
	}
	if rs.SleepQuality != nil {
		add(SlotSleepQuality, &rs.SleepQuality.Chart)
	}
	if rs.HighAddiction != nil {
		add(SlotHighAddiction, &rs.HighAddiction.Chart)
	}
	if rs.ConflictRisk != nil {
		add(SlotConflictRisk, &rs.ConflictRisk.Chart)
	}
	if rs.ScreenTime != nil {
		add(SlotScreenTime, &rs.ScreenTime.Chart)
	}
	if rs.SocialWellbeing != nil {
		add(SlotSocialWellbeing, &rs.SocialWellbeing.Chart)
	}
	if rs.StudyEfficiency != nil {
		add(SlotStudyEfficiency, &rs.StudyEfficiency.Chart)
	}
	return charts
}

// Present lists the names of the populated slots
func (rs *ResultSet) Present() []string {
	var names []string
	if rs == nil {
		return names
	}
	slots := []struct {
		name string
		ok   bool
	}{
		{SlotAdiccion, rs.Adiccion != nil},
		{SlotRendimiento, rs.Rendimiento != nil},
		{SlotSaludMental, rs.SaludMental != nil},
		{SlotSleepQuality, rs.SleepQuality != nil},
		{SlotHighAddiction, rs.HighAddiction != nil},
		{SlotConflictRisk, rs.ConflictRisk != nil},
		{SlotScreenTime, rs.ScreenTime != nil},
		{SlotSocialWellbeing, rs.SocialWellbeing != nil},
		{SlotStudyEfficiency, rs.StudyEfficiency != nil},
	}
	for _, s := range slots {
		if s.ok {
			names = append(names, s.name)
		}
	}
	return names
}

// ResultsResponse is the body of GET /api/resultados
type ResultsResponse struct {
	Results *ResultSet        `json:"results"`
	Charts  map[string]string `json:"charts"`
}

// ErrorResponse is the body of every failed API call
type ErrorResponse struct {
	Error   string   `json:"error"`
	Missing []string `json:"missing,omitempty"`
}
