package survey

import (
	"fmt"
	"strings"
)

// Submission is the body posted by the survey form
type Submission struct {
	Edad               *float64 `json:"edad"`
	NivelEstudios      string   `json:"nivelEstudios"`
	Genero             string   `json:"genero"`
	Pais               string   `json:"pais"`
	HorasRedesSociales *float64 `json:"horasRedesSociales"`
	RedSocialFavorita  string   `json:"redSocialFavorita"`
	HorasSueno         *float64 `json:"horasSueno"`
	RelacionActual     string   `json:"relacionActual"`
	ConflictosRedes    *bool    `json:"conflictosRedes"`
}

// Form labels stored as integer codes
var (
	genderCodes = map[string]int{
		"Masculino": 1,
		"Femenino":  2,
	}
	relationshipCodes = map[string]int{
		"Soltero/a":       1,
		"En una relación": 2,
		"Es complicado":   3,
	}
)

const (
	minAge        = 17
	minSleepHours = 1
)

// FieldError describes one invalid field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is returned when a submission is rejected
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, fe := range v {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "invalid submission: " + strings.Join(parts, "; ")
}

// Validate checks every field and returns all problems at once, or nil
func (s Submission) Validate() error {
	var errs ValidationErrors
	add := func(field, msg string) {
		errs = append(errs, FieldError{Field: field, Message: msg})
	}
	required := func(field, v string) bool {
		if strings.TrimSpace(v) == "" {
			add(field, "this field is required")
			return false
		}
		return true
	}

	switch {
	case s.Edad == nil:
		add("edad", "this field is required")
	case *s.Edad < minAge:
		add("edad", fmt.Sprintf("must be at least %d", minAge))
	}
	required("nivelEstudios", s.NivelEstudios)
	if required("genero", s.Genero) {
		if _, ok := genderCodes[s.Genero]; !ok {
			add("genero", fmt.Sprintf("unknown value %q", s.Genero))
		}
	}
	required("pais", s.Pais)
	switch {
	case s.HorasRedesSociales == nil:
		add("horasRedesSociales", "this field is required")
	case *s.HorasRedesSociales < 0:
		add("horasRedesSociales", "must not be negative")
	}
	required("redSocialFavorita", s.RedSocialFavorita)
	switch {
	case s.HorasSueno == nil:
		add("horasSueno", "this field is required")
	case *s.HorasSueno < minSleepHours:
		add("horasSueno", fmt.Sprintf("must be at least %d", minSleepHours))
	}
	if required("relacionActual", s.RelacionActual) {
		if _, ok := relationshipCodes[s.RelacionActual]; !ok {
			add("relacionActual", fmt.Sprintf("unknown value %q", s.RelacionActual))
		}
	}
	if s.ConflictosRedes == nil {
		add("conflictosRedes", "this field is required")
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Row is a validated submission in its stored shape
type Row struct {
	Age                      float64
	AcademicLevel            string
	Gender                   int
	Country                  string
	AvgDailyUsageHours       float64
	MostUsedPlatform         string
	SleepHoursPerNight       float64
	RelationshipStatus       int
	ConflictsOverSocialMedia int
}

// ToRow validates s and maps its labels to the stored codes
func (s Submission) ToRow() (Row, error) {
	if err := s.Validate(); err != nil {
		return Row{}, err
	}
	conflicts := 0
	if *s.ConflictosRedes {
		conflicts = 1
	}
	return Row{
		Age:                      *s.Edad,
		AcademicLevel:            strings.TrimSpace(s.NivelEstudios),
		Gender:                   genderCodes[s.Genero],
		Country:                  strings.TrimSpace(s.Pais),
		AvgDailyUsageHours:       *s.HorasRedesSociales,
		MostUsedPlatform:         strings.TrimSpace(s.RedSocialFavorita),
		SleepHoursPerNight:       *s.HorasSueno,
		RelationshipStatus:       relationshipCodes[s.RelacionActual],
		ConflictsOverSocialMedia: conflicts,
	}, nil
}
