package results

import (
	"errors"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// Query parameter keys sent by the survey form
const (
	KeyHorasUso            = "HorasUso"
	KeyHorasSueno          = "HorasSueno"
	KeyRelacionInt         = "RelacionInt"
	KeyEdad                = "Edad"
	KeyEstadoEmocional     = "EstadoEmocional"
	KeyUsoRedesSociales    = "UsoRedesSociales"
	KeyPlataforma          = "Plataforma"
	KeyAfectacionDesempeno = "AfectacionDesempeno"
)

// RequiredKeys lists every parameter the aggregation needs, in reporting order
var RequiredKeys = []string{
	KeyHorasUso,
	KeyHorasSueno,
	KeyRelacionInt,
	KeyEdad,
	KeyEstadoEmocional,
	KeyUsoRedesSociales,
	KeyPlataforma,
	KeyAfectacionDesempeno,
}

// ErrMissingParameters is matched by every MissingParametersError
var ErrMissingParameters = errors.New("missing required parameters")

// MissingParametersError names the required keys that were absent or empty
type MissingParametersError struct {
	Keys []string
}

func (e *MissingParametersError) Error() string {
	return ErrMissingParameters.Error() + ": " + strings.Join(e.Keys, ", ")
}

func (e *MissingParametersError) Is(target error) bool {
	return target == ErrMissingParameters
}

// Params are the raw query parameters from the results page URL
type Params map[string]string

// ParamsFromQuery keeps the first value of every key
func ParamsFromQuery(q url.Values) Params {
	p := make(Params, len(q))
	for k, v := range q {
		if len(v) > 0 {
			p[k] = v[0]
		}
	}
	return p
}

// Get looks key up as given, then in lower case
func (p Params) Get(key string) string {
	if v := strings.TrimSpace(p[key]); v != "" {
		return v
	}
	return strings.TrimSpace(p[strings.ToLower(key)])
}

// Validate fails with a MissingParametersError unless every required key is set
func (p Params) Validate() error {
	var missing []string
	for _, k := range RequiredKeys {
		if p.Get(k) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return &MissingParametersError{Keys: missing}
	}
	return nil
}

// FormatNumericToken renders integral values with exactly one decimal
// ("6" -> "6.0") and anything else in its shortest form. The backend routes
// on the decimal shape of the hour parameters.
func FormatNumericToken(s string) string {
	s = strings.TrimSpace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return s
	}
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// parseLeadingInt reads the leading integer of s ("7", "7.9", "7abc" -> 7)
func parseLeadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// roundHalfUp rounds .5 towards +Inf
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
