package predict

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edcb/wellbeing/internal/models"
)

func TestNewRejectsBadURL(t *testing.T) {
	for _, raw := range []string{"", "localhost:5000", "ftp://host", "http://", "http://bad host"} {
		_, err := New(raw)
		assert.Error(t, err, "url %q", raw)
	}
}

func TestBuildURL(t *testing.T) {
	c, err := New("http://localhost:5000/")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5000/api/grafica-adiccion/6.0/5.0",
		c.BuildURL(EndpointAddiction, "6.0", "5.0"))
	assert.Equal(t, "http://localhost:5000/api/grafica-conflict-risk/4/6.0/1/2",
		c.BuildURL(EndpointConflictRisk, "4", "6.0", "1", "2"))
	assert.Equal(t, "http://localhost:5000/api/grafica-adiccion",
		c.BuildURL(EndpointAddiction))
	// path segments are escaped
	assert.Equal(t, "http://localhost:5000/api/grafica-salud-mental/7.0/a%2Fb",
		c.BuildURL(EndpointMentalHealth, "7.0", "a/b"))
}

func TestGetDecodesBody(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"prediccion_porcentaje": 63.5, "nivel_adiccion": "ALTO"}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	var out models.PredictionResult
	require.NoError(t, c.Get(context.Background(), EndpointAddiction, &out, "6.0", "5.0"))

	assert.Equal(t, "/api/grafica-adiccion/6.0/5.0", gotPath)
	require.NotNil(t, out.PrediccionPorcentaje)
	assert.InDelta(t, 63.5, *out.PrediccionPorcentaje, 1e-9)
	require.NotNil(t, out.NivelAdiccion)
	assert.Equal(t, "ALTO", *out.NivelAdiccion)
}

func TestGetStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	var out models.PredictionResult
	err = c.Get(context.Background(), EndpointPerformance, &out, "6.0", "5.0")
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.Code)
	assert.Equal(t, EndpointPerformance, statusErr.Endpoint)
	assert.Equal(t, "model not loaded", statusErr.Body)
}

func TestGetMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>oops</html>`))
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	var out models.PredictionResult
	assert.Error(t, c.Get(context.Background(), EndpointMentalHealth, &out, "5.0", "1"))
}

func TestGetEmptyResult(t *testing.T) {
	for _, body := range []string{"null", " null\n", ""} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}))

		c, err := New(srv.URL)
		require.NoError(t, err)

		var out models.PredictionResult
		err = c.Get(context.Background(), EndpointAddiction, &out, "6.0", "5.0")
		assert.ErrorIs(t, err, ErrEmptyResult, "body %q", body)
		srv.Close()
	}
}

func TestGetCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out models.PredictionResult
	err = c.Get(ctx, EndpointAddiction, &out, "6.0", "5.0")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
