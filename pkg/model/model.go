package model

import (
	"math"

	"github.com/pkg/errors"
)

// Kind identifies the classifier stored in an artifact.
type Kind string

const (
	KindLogisticRegression Kind = "logistic_regression"
	KindRandomForest       Kind = "random_forest"
	KindGradientBoosting   Kind = "gradient_boosting"
	KindLinearSVM          Kind = "linear_svm"
	KindThresholdRule      Kind = "threshold_rule"
)

var ErrShape = errors.New("feature shape mismatch")

// Classifier is the capability every model has: hard labels.
type Classifier interface {
	Kind() Kind
	Predict(x [][]float64) ([]int, error)
	Validate() error
}

// ProbabilityClassifier outputs one probability per class for each row.
type ProbabilityClassifier interface {
	Classifier
	PredictProba(x [][]float64) ([][]float64, error)
}

// DecisionClassifier outputs an unbounded margin for each row.
type DecisionClassifier interface {
	Classifier
	DecisionFunction(x [][]float64) ([]float64, error)
}

// Capability is the best prediction output a classifier supports.
type Capability int

const (
	CapabilityLabel Capability = iota
	CapabilityDecision
	CapabilityProbability
)

func (c Capability) String() string {
	switch c {
	case CapabilityProbability:
		return "probability"
	case CapabilityDecision:
		return "decision"
	default:
		return "label"
	}
}

// CapabilityOf returns the highest priority capability of c.
func CapabilityOf(c Classifier) Capability {
	switch c.(type) {
	case ProbabilityClassifier:
		return CapabilityProbability
	case DecisionClassifier:
		return CapabilityDecision
	default:
		return CapabilityLabel
	}
}

// Capabilities lists every output c supports, highest priority first.
func Capabilities(c Classifier) []Capability {
	list := make([]Capability, 0, 3)
	if _, ok := c.(ProbabilityClassifier); ok {
		list = append(list, CapabilityProbability)
	}
	if _, ok := c.(DecisionClassifier); ok {
		list = append(list, CapabilityDecision)
	}
	return append(list, CapabilityLabel)
}

// Sigmoid maps a margin to (0,1).
func Sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func checkShape(x [][]float64, n int) error {
	for i, row := range x {
		if len(row) != n {
			return errors.Wrapf(ErrShape, "row %d has %d features, model expects %d", i, len(row), n)
		}
	}
	return nil
}

func dot(w, x []float64) float64 {
	var s float64
	for i := range w {
		s += w[i] * x[i]
	}
	return s
}
