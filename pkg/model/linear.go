package model

import (
	"github.com/pkg/errors"
)

// LogisticRegression scores z = Intercept + Coefficients·x and maps it
// through the logistic function.
type LogisticRegression struct {
	Coefficients []float64
	Intercept    float64
}

func (m *LogisticRegression) Kind() Kind { return KindLogisticRegression }

func (m *LogisticRegression) Validate() error {
	if len(m.Coefficients) == 0 {
		return errors.New("logistic regression has no coefficients")
	}
	return nil
}

func (m *LogisticRegression) DecisionFunction(x [][]float64) ([]float64, error) {
	return linearScores(x, m.Coefficients, m.Intercept)
}

func (m *LogisticRegression) PredictProba(x [][]float64) ([][]float64, error) {
	scores, err := m.DecisionFunction(x)
	if err != nil {
		return nil, err
	}
	out := make([][]float64, len(scores))
	for i, z := range scores {
		p := Sigmoid(z)
		out[i] = []float64{1 - p, p}
	}
	return out, nil
}

func (m *LogisticRegression) Predict(x [][]float64) ([]int, error) {
	scores, err := m.DecisionFunction(x)
	if err != nil {
		return nil, err
	}
	return marginLabels(scores), nil
}

// LinearSVM exposes only its margin and the labels derived from it.
type LinearSVM struct {
	Coefficients []float64
	Intercept    float64
}

func (m *LinearSVM) Kind() Kind { return KindLinearSVM }

func (m *LinearSVM) Validate() error {
	if len(m.Coefficients) == 0 {
		return errors.New("linear svm has no coefficients")
	}
	return nil
}

func (m *LinearSVM) DecisionFunction(x [][]float64) ([]float64, error) {
	return linearScores(x, m.Coefficients, m.Intercept)
}

func (m *LinearSVM) Predict(x [][]float64) ([]int, error) {
	scores, err := m.DecisionFunction(x)
	if err != nil {
		return nil, err
	}
	return marginLabels(scores), nil
}

func linearScores(x [][]float64, w []float64, b float64) ([]float64, error) {
	if err := checkShape(x, len(w)); err != nil {
		return nil, err
	}
	scores := make([]float64, len(x))
	for i, row := range x {
		scores[i] = b + dot(w, row)
	}
	return scores, nil
}

func marginLabels(scores []float64) []int {
	labels := make([]int, len(scores))
	for i, z := range scores {
		if z > 0 {
			labels[i] = 1
		}
	}
	return labels
}
