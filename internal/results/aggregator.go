// Package results turns the survey's query parameters into the dashboard's
// result set. It calls the prediction backend in two waves: the second wave's
// parameters are derived from the first wave's answers.
package results

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/edcb/wellbeing/internal/models"
	"github.com/edcb/wellbeing/internal/predict"
)

// ErrBackendUnavailable is the single error reported when aggregation is
// abandoned for anything other than missing parameters.
var ErrBackendUnavailable = errors.New("failed to fetch results; make sure the prediction backend is running")

// Fetcher performs one backend call. *predict.Client implements it.
type Fetcher interface {
	Get(ctx context.Context, endpoint predict.Endpoint, out any, params ...string) error
}

// Aggregator runs the two waves against a Fetcher
type Aggregator struct {
	fetcher Fetcher
	logger  *zap.Logger
	timeout time.Duration
}

// AggregatorOption configures an Aggregator
type AggregatorOption func(*Aggregator)

// WithCallTimeout bounds every backend call. Zero leaves calls bound only to
// the caller's context.
func WithCallTimeout(d time.Duration) AggregatorOption {
	return func(a *Aggregator) { a.timeout = d }
}

// WithLogger sets the aggregator's logger
func WithLogger(l *zap.Logger) AggregatorOption {
	return func(a *Aggregator) { a.logger = l }
}

// NewAggregator creates an Aggregator
func NewAggregator(fetcher Fetcher, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		fetcher: fetcher,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// call is one request of a wave; it writes into its own slot
type call struct {
	endpoint predict.Endpoint
	params   []string
	out      any
	ok       *bool
}

// Aggregate validates p, runs both waves and assembles the result set.
// Individual call failures leave their slot nil and are not errors. The
// returned error is either a *MissingParametersError (no call was made) or
// ErrBackendUnavailable.
func (a *Aggregator) Aggregate(ctx context.Context, p Params) (rs *models.ResultSet, err error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("aggregation aborted", zap.Any("panic", r))
			rs, err = nil, ErrBackendUnavailable
		}
	}()

	horasUso := FormatNumericToken(p.Get(KeyHorasUso))
	horasSueno := FormatNumericToken(p.Get(KeyHorasSueno))
	relacion := p.Get(KeyRelacionInt)

	var (
		addiction, performance, mentalHealth       models.PredictionResult
		addictionOK, performanceOK, mentalHealthOK bool
	)
	if err := a.wave(ctx, 1, []call{
		{predict.EndpointAddiction, []string{horasUso, horasSueno}, &addiction, &addictionOK},
		{predict.EndpointPerformance, []string{horasUso, horasSueno}, &performance, &performanceOK},
		{predict.EndpointMentalHealth, []string{horasSueno, relacion}, &mentalHealth, &mentalHealthOK},
	}); err != nil {
		return nil, err
	}

	rs = &models.ResultSet{}
	if addictionOK {
		rs.Adiccion = &addiction
	}
	if performanceOK {
		rs.Rendimiento = &performance
	}
	if mentalHealthOK {
		rs.SaludMental = &mentalHealth
	}

	d := Derive(p, rs.Adiccion, rs.Rendimiento, rs.SaludMental)
	a.logger.Debug("derived parameters",
		zap.Int("social_media_score", d.SocialMediaScore),
		zap.Int("emotional_score", d.EmotionalScore),
		zap.Int("impact_flag", d.ImpactFlag))

	social := strconv.Itoa(d.SocialMediaScore)
	emotional := strconv.Itoa(d.EmotionalScore)

	var (
		sleep      models.SleepQualityResult
		conflict   models.ConflictRiskResult
		screenTime models.ScreenTimeResult
		study      models.StudyEfficiencyResult

		sleepOK, conflictOK, screenTimeOK, studyOK bool
	)
	if err := a.wave(ctx, 2, []call{
		{predict.EndpointSleepQuality, []string{horasSueno, emotional, social}, &sleep, &sleepOK},
		{predict.EndpointConflictRisk, []string{social, horasUso, relacion, p.Get(KeyPlataforma)}, &conflict, &conflictOK},
		{predict.EndpointScreenTime, []string{p.Get(KeyEdad), social, emotional}, &screenTime, &screenTimeOK},
		{predict.EndpointStudyEfficiency, []string{strconv.Itoa(d.ImpactFlag), horasUso, horasSueno}, &study, &studyOK},
	}); err != nil {
		return nil, err
	}

	if sleepOK {
		rs.SleepQuality = &sleep
	}
	if conflictOK {
		rs.ConflictRisk = &conflict
	}
	if screenTimeOK {
		rs.ScreenTime = &screenTime
	}
	if studyOK {
		rs.StudyEfficiency = &study
	}

	a.logger.Info("results aggregated", zap.Strings("present", rs.Present()))
	return rs, nil
}

// wave issues every call concurrently and waits for all of them. A failed
// call only clears its own ok flag; siblings are never cancelled. The only
// error returned is ErrBackendUnavailable after a panic inside a call.
func (a *Aggregator) wave(ctx context.Context, n int, calls []call) error {
	var g errgroup.Group
	for _, c := range calls {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					a.logger.Error("backend call panicked",
						zap.Int("wave", n),
						zap.String("endpoint", string(c.endpoint)),
						zap.Any("panic", r))
					err = fmt.Errorf("%s: %w", c.endpoint, ErrBackendUnavailable)
				}
			}()

			callCtx := ctx
			if a.timeout > 0 {
				var cancel context.CancelFunc
				callCtx, cancel = context.WithTimeout(ctx, a.timeout)
				defer cancel()
			}

			if err := a.fetcher.Get(callCtx, c.endpoint, c.out, c.params...); err != nil {
				a.logger.Warn("backend call failed",
					zap.Int("wave", n),
					zap.String("endpoint", string(c.endpoint)),
					zap.Strings("params", c.params),
					zap.Error(err))
				return nil
			}
			*c.ok = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ErrBackendUnavailable
	}
	return nil
}
