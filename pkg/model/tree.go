package model

import (
	"github.com/pkg/errors"
)

// Node is a binary decision tree node. A node without children is a leaf
// and carries Value: class weights for forests, a single margin
// contribution for boosted trees.
type Node struct {
	Feature   int
	Threshold float64
	Left      *Node
	Right     *Node
	Value     []float64
}

func (n *Node) leaf() bool {
	return n.Left == nil && n.Right == nil
}

// eval walks to the leaf for x; x[Feature] <= Threshold goes left.
func (n *Node) eval(x []float64) ([]float64, error) {
	cur := n
	for !cur.leaf() {
		if cur.Feature < 0 || cur.Feature >= len(x) {
			return nil, errors.Wrapf(ErrShape, "node splits on feature %d, row has %d", cur.Feature, len(x))
		}
		next := cur.Right
		if x[cur.Feature] <= cur.Threshold {
			next = cur.Left
		}
		if next == nil {
			return nil, errors.New("tree node has a single child")
		}
		cur = next
	}
	return cur.Value, nil
}

func (n *Node) validate(width int) error {
	if n == nil {
		return errors.New("nil tree")
	}
	if n.leaf() {
		if len(n.Value) != width {
			return errors.Errorf("leaf has %d values, expected %d", len(n.Value), width)
		}
		return nil
	}
	if n.Left == nil || n.Right == nil {
		return errors.New("tree node has a single child")
	}
	if err := n.Left.validate(width); err != nil {
		return err
	}
	return n.Right.validate(width)
}

// RandomForest averages the normalized leaf class weights of its trees.
// Classes lists the class labels in output column order.
type RandomForest struct {
	Classes  []int
	Trees    []*Node
	Features int
}

func (m *RandomForest) Kind() Kind { return KindRandomForest }

func (m *RandomForest) Validate() error {
	if len(m.Classes) == 0 {
		return errors.New("random forest has no classes")
	}
	if len(m.Trees) == 0 {
		return errors.New("random forest has no trees")
	}
	for i, t := range m.Trees {
		if err := t.validate(len(m.Classes)); err != nil {
			return errors.Wrapf(err, "tree %d", i)
		}
	}
	return nil
}

func (m *RandomForest) PredictProba(x [][]float64) ([][]float64, error) {
	if err := checkShape(x, m.Features); err != nil {
		return nil, err
	}
	out := make([][]float64, len(x))
	for i, row := range x {
		p := make([]float64, len(m.Classes))
		for _, t := range m.Trees {
			v, err := t.eval(row)
			if err != nil {
				return nil, err
			}
			if len(v) != len(p) {
				return nil, errors.Errorf("leaf has %d values, expected %d", len(v), len(p))
			}
			var total float64
			for _, w := range v {
				total += w
			}
			if total == 0 {
				continue
			}
			for k, w := range v {
				p[k] += w / total
			}
		}
		for k := range p {
			p[k] /= float64(len(m.Trees))
		}
		out[i] = p
	}
	return out, nil
}

func (m *RandomForest) Predict(x [][]float64) ([]int, error) {
	proba, err := m.PredictProba(x)
	if err != nil {
		return nil, err
	}
	labels := make([]int, len(proba))
	for i, p := range proba {
		best := 0
		for k := range p {
			if p[k] > p[best] {
				best = k
			}
		}
		labels[i] = m.Classes[best]
	}
	return labels, nil
}

// GradientBoosting sums BaseScore and the scaled leaf values of its trees
// into a log-odds margin.
type GradientBoosting struct {
	BaseScore    float64
	LearningRate float64
	Trees        []*Node
	Features     int
}

func (m *GradientBoosting) Kind() Kind { return KindGradientBoosting }

func (m *GradientBoosting) Validate() error {
	if len(m.Trees) == 0 {
		return errors.New("gradient boosting has no trees")
	}
	if m.LearningRate <= 0 {
		return errors.Errorf("invalid learning rate: %v", m.LearningRate)
	}
	for i, t := range m.Trees {
		if err := t.validate(1); err != nil {
			return errors.Wrapf(err, "tree %d", i)
		}
	}
	return nil
}

func (m *GradientBoosting) DecisionFunction(x [][]float64) ([]float64, error) {
	if err := checkShape(x, m.Features); err != nil {
		return nil, err
	}
	scores := make([]float64, len(x))
	for i, row := range x {
		z := m.BaseScore
		for _, t := range m.Trees {
			v, err := t.eval(row)
			if err != nil {
				return nil, err
			}
			if len(v) != 1 {
				return nil, errors.Errorf("leaf has %d values, expected 1", len(v))
			}
			z += m.LearningRate * v[0]
		}
		scores[i] = z
	}
	return scores, nil
}

func (m *GradientBoosting) PredictProba(x [][]float64) ([][]float64, error) {
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

func (m *GradientBoosting) Predict(x [][]float64) ([]int, error) {
	scores, err := m.DecisionFunction(x)
	if err != nil {
		return nil, err
	}
	return marginLabels(scores), nil
}

// ThresholdRule labels a row 1 when x[Feature] >= Threshold.
type ThresholdRule struct {
	Feature   int
	Threshold float64
	Features  int
}

func (m *ThresholdRule) Kind() Kind { return KindThresholdRule }

func (m *ThresholdRule) Validate() error {
	if m.Feature < 0 || m.Feature >= m.Features {
		return errors.Errorf("rule feature %d out of range [0,%d)", m.Feature, m.Features)
	}
	return nil
}

func (m *ThresholdRule) Predict(x [][]float64) ([]int, error) {
	if err := checkShape(x, m.Features); err != nil {
		return nil, err
	}
	labels := make([]int, len(x))
	for i, row := range x {
		if row[m.Feature] >= m.Threshold {
			labels[i] = 1
		}
	}
	return labels, nil
}
