package score

import (
	"log/slog"
	"math"

	"github.com/mchmarny/leadscore/pkg/feature"
	"github.com/mchmarny/leadscore/pkg/model"
	"github.com/pkg/errors"
)

const (
	// DefaultProbability fills every row when no model can score.
	DefaultProbability = 0.1

	// placeholder confidences for label-only models
	positiveLabelProbability = 0.8
	negativeLabelProbability = 0.2
)

// State is the terminal state of a scoring run.
type State string

const (
	StateScored        State = "scored"
	StateNoModel       State = "no_model"
	StateScoringFailed State = "scoring_failed"
)

// Resolver yields the model for a scoring call.
type Resolver interface {
	Resolve(explicit string) (*model.Artifact, error)
}

// Result is the outcome of one scoring call. Probabilities always has one
// entry per input set.
type Result struct {
	Probabilities []float64
	State         State
	ModelPath     string
	ModelKind     model.Kind
	Capability    model.Capability
}

// Scorer converts feature sets into conversion probabilities.
type Scorer struct {
	resolver Resolver
	fallback float64
	logger   *slog.Logger
}

// NewScorer creates a scorer. A fallback outside [0,1] is replaced with
// DefaultProbability.
func NewScorer(r Resolver, fallback float64, logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	if fallback < 0 || fallback > 1 {
		fallback = DefaultProbability
	}
	return &Scorer{
		resolver: r,
		fallback: fallback,
		logger:   logger.WithGroup("score"),
	}
}

// Score returns one probability per set, in input order. It never fails;
// any resolution or scoring error yields the fallback for every row.
func (s *Scorer) Score(sets []feature.Set, modelPathHint string) []float64 {
	return s.Run(sets, modelPathHint).Probabilities
}

// Run is Score with the run details attached.
func (s *Scorer) Run(sets []feature.Set, modelPathHint string) *Result {
	a, err := s.resolve(modelPathHint)
	if err != nil {
		s.logger.Debug("no model, using default probability", "error", err, "rows", len(sets))
		return &Result{Probabilities: s.fill(len(sets)), State: StateNoModel}
	}

	res := &Result{
		ModelPath:  a.Path,
		ModelKind:  a.Kind,
		Capability: a.Capability,
	}

	probs, err := s.predict(a, sets)
	if err != nil {
		s.logger.Error("error making predictions", "path", a.Path, "error", err)
		res.Probabilities = s.fill(len(sets))
		res.State = StateScoringFailed
		return res
	}

	res.Probabilities = probs
	res.State = StateScored
	return res
}

func (s *Scorer) resolve(hint string) (a *model.Artifact, err error) {
	if s.resolver == nil {
		return nil, errors.New("resolver not configured")
	}
	defer func() {
		if rec := recover(); rec != nil {
			a, err = nil, errors.Errorf("resolver panic: %v", rec)
		}
	}()
	a, err = s.resolver.Resolve(hint)
	if err == nil && (a == nil || a.Classifier == nil) {
		err = errors.New("resolver returned an empty artifact")
	}
	return a, err
}

func (s *Scorer) predict(a *model.Artifact, sets []feature.Set) (probs []float64, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			probs, err = nil, errors.Errorf("prediction panic: %v", rec)
		}
	}()

	x, err := feature.Matrix(sets)
	if err != nil {
		return nil, errors.Wrap(err, "error building feature matrix")
	}

	switch a.Capability {
	case model.CapabilityProbability:
		probs, err = s.fromProbabilities(a.Classifier, x)
	case model.CapabilityDecision:
		probs, err = fromDecision(a.Classifier, x)
	default:
		probs, err = fromLabels(a.Classifier, x)
	}
	if err != nil {
		return nil, err
	}

	if len(probs) != len(sets) {
		return nil, errors.Errorf("model returned %d predictions for %d rows", len(probs), len(sets))
	}
	for i, p := range probs {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return nil, errors.Errorf("non-finite prediction for row %d", i)
		}
	}
	return probs, nil
}

func (s *Scorer) fromProbabilities(c model.Classifier, x [][]float64) ([]float64, error) {
	pc, ok := c.(model.ProbabilityClassifier)
	if !ok {
		return nil, errors.Errorf("%s model has no probability output", c.Kind())
	}
	out, err := pc.PredictProba(x)
	if err != nil {
		return nil, errors.Wrap(err, "predict proba")
	}

	probs := make([]float64, len(out))
	for i, row := range out {
		switch len(row) {
		case 0:
			return nil, errors.Errorf("empty probability row %d", i)
		case 1:
			// single column output is taken as the positive class as is
			s.logger.Debug("single column probability output", "row", i)
			probs[i] = row[0]
		default:
			probs[i] = row[1]
		}
	}
	return probs, nil
}

func fromDecision(c model.Classifier, x [][]float64) ([]float64, error) {
	dc, ok := c.(model.DecisionClassifier)
	if !ok {
		return nil, errors.Errorf("%s model has no decision output", c.Kind())
	}
	scores, err := dc.DecisionFunction(x)
	if err != nil {
		return nil, errors.Wrap(err, "decision function")
	}
	probs := make([]float64, len(scores))
	for i, z := range scores {
		probs[i] = model.Sigmoid(z)
	}
	return probs, nil
}

func fromLabels(c model.Classifier, x [][]float64) ([]float64, error) {
	labels, err := c.Predict(x)
	if err != nil {
		return nil, errors.Wrap(err, "predict")
	}
	probs := make([]float64, len(labels))
	for i, l := range labels {
		if l == 1 {
			probs[i] = positiveLabelProbability
		} else {
			probs[i] = negativeLabelProbability
		}
	}
	return probs, nil
}

func (s *Scorer) fill(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = s.fallback
	}
	return out
}
