package survey

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fields(err error) []string {
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]string, len(verrs))
	for i, fe := range verrs {
		out[i] = fe.Field
	}
	return out
}

func TestValidateAccepts(t *testing.T) {
	assert.NoError(t, validSubmission().Validate())

	// zero hours and boundary values are fine
	sub := validSubmission()
	sub.HorasRedesSociales = f64(0)
	sub.HorasSueno = f64(1)
	sub.Edad = f64(17)
	sub.ConflictosRedes = boolPtr(false)
	assert.NoError(t, sub.Validate())
}

func TestValidateEmpty(t *testing.T) {
	err := Submission{}.Validate()
	require.Error(t, err)
	assert.Equal(t, []string{
		"edad", "nivelEstudios", "genero", "pais", "horasRedesSociales",
		"redSocialFavorita", "horasSueno", "relacionActual", "conflictosRedes",
	}, fields(err))
}

func TestValidateRanges(t *testing.T) {
	sub := validSubmission()
	sub.Edad = f64(16)
	sub.HorasRedesSociales = f64(-1)
	sub.HorasSueno = f64(0.5)

	assert.Equal(t, []string{"edad", "horasRedesSociales", "horasSueno"}, fields(sub.Validate()))
}

func TestValidateUnknownLabels(t *testing.T) {
	sub := validSubmission()
	sub.Genero = "Otro"
	sub.RelacionActual = "Casado/a"

	assert.Equal(t, []string{"genero", "relacionActual"}, fields(sub.Validate()))
}

func TestToRowCodes(t *testing.T) {
	sub := validSubmission()
	sub.Genero = "Masculino"
	sub.RelacionActual = "Soltero/a"
	sub.ConflictosRedes = boolPtr(false)

	row, err := sub.ToRow()
	require.NoError(t, err)
	assert.Equal(t, 1, row.Gender)
	assert.Equal(t, 1, row.RelationshipStatus)
	assert.Equal(t, 0, row.ConflictsOverSocialMedia)
}

func TestSubmissionDecodesFormBody(t *testing.T) {
	body := `{"edad":22,"nivelEstudios":"TSU","genero":"Masculino","pais":"Chile",
		"horasRedesSociales":3,"redSocialFavorita":"TikTok","horasSueno":6,
		"relacionActual":"En una relación","conflictosRedes":false}`

	var sub Submission
	require.NoError(t, json.Unmarshal([]byte(body), &sub))

	row, err := sub.ToRow()
	require.NoError(t, err)
	assert.Equal(t, 2, row.RelationshipStatus)
	assert.Equal(t, "TikTok", row.MostUsedPlatform)
}

func TestValidationErrorsMessage(t *testing.T) {
	err := ValidationErrors{{Field: "edad", Message: "must be at least 17"}}
	assert.Equal(t, "invalid submission: edad: must be at least 17", err.Error())
}
