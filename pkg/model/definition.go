package model

import (
	"os"

	"github.com/mchmarny/leadscore/pkg/feature"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Definition is the human editable form of a model, written in YAML or
// JSON. Trees are nested and split on feature names.
type Definition struct {
	Kind         Kind       `yaml:"kind" json:"kind"`
	Coefficients []float64  `yaml:"coefficients,omitempty" json:"coefficients,omitempty"`
	Intercept    float64    `yaml:"intercept,omitempty" json:"intercept,omitempty"`
	Classes      []int      `yaml:"classes,omitempty" json:"classes,omitempty"`
	Trees        []*NodeDef `yaml:"trees,omitempty" json:"trees,omitempty"`
	BaseScore    float64    `yaml:"base_score,omitempty" json:"base_score,omitempty"`
	LearningRate float64    `yaml:"learning_rate,omitempty" json:"learning_rate,omitempty"`
	Feature      string     `yaml:"feature,omitempty" json:"feature,omitempty"`
	Threshold    float64    `yaml:"threshold,omitempty" json:"threshold,omitempty"`
}

// NodeDef is a tree node split on a feature name. A node without children
// is a leaf carrying Value.
type NodeDef struct {
	Feature   string    `yaml:"feature,omitempty" json:"feature,omitempty"`
	Threshold float64   `yaml:"threshold,omitempty" json:"threshold,omitempty"`
	Left      *NodeDef  `yaml:"left,omitempty" json:"left,omitempty"`
	Right     *NodeDef  `yaml:"right,omitempty" json:"right,omitempty"`
	Value     []float64 `yaml:"value,omitempty" json:"value,omitempty"`
}

// ReadDefinition parses a YAML (or JSON) model definition file.
func ReadDefinition(path string) (*Definition, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading model definition: %s", path)
	}
	var d Definition
	if err := yaml.Unmarshal(b, &d); err != nil {
		return nil, errors.Wrapf(err, "error parsing model definition: %s", path)
	}
	return &d, nil
}

// Build converts the definition into a validated classifier.
func (d *Definition) Build() (Classifier, error) {
	n := len(feature.Columns)

	var c Classifier
	switch d.Kind {
	case KindLogisticRegression:
		if len(d.Coefficients) != n {
			return nil, errors.Errorf("expected %d coefficients, got %d", n, len(d.Coefficients))
		}
		c = &LogisticRegression{Coefficients: d.Coefficients, Intercept: d.Intercept}
	case KindLinearSVM:
		if len(d.Coefficients) != n {
			return nil, errors.Errorf("expected %d coefficients, got %d", n, len(d.Coefficients))
		}
		c = &LinearSVM{Coefficients: d.Coefficients, Intercept: d.Intercept}
	case KindRandomForest:
		classes := d.Classes
		if len(classes) == 0 {
			classes = []int{0, 1}
		}
		trees, err := buildTrees(d.Trees)
		if err != nil {
			return nil, err
		}
		c = &RandomForest{Classes: classes, Trees: trees, Features: n}
	case KindGradientBoosting:
		trees, err := buildTrees(d.Trees)
		if err != nil {
			return nil, err
		}
		lr := d.LearningRate
		if lr == 0 {
			lr = 1
		}
		c = &GradientBoosting{BaseScore: d.BaseScore, LearningRate: lr, Trees: trees, Features: n}
	case KindThresholdRule:
		idx, err := columnIndex(d.Feature)
		if err != nil {
			return nil, err
		}
		c = &ThresholdRule{Feature: idx, Threshold: d.Threshold, Features: n}
	default:
		return nil, errors.Wrapf(ErrUnknownKind, "kind: %q", d.Kind)
	}

	if err := c.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid %s definition", d.Kind)
	}
	return c, nil
}

func buildTrees(defs []*NodeDef) ([]*Node, error) {
	trees := make([]*Node, 0, len(defs))
	for i, d := range defs {
		t, err := d.build()
		if err != nil {
			return nil, errors.Wrapf(err, "tree %d", i)
		}
		trees = append(trees, t)
	}
	return trees, nil
}

func (d *NodeDef) build() (*Node, error) {
	if d == nil {
		return nil, errors.New("empty node")
	}
	if d.Left == nil && d.Right == nil {
		return &Node{Value: d.Value}, nil
	}
	idx, err := columnIndex(d.Feature)
	if err != nil {
		return nil, err
	}
	left, err := d.Left.build()
	if err != nil {
		return nil, err
	}
	right, err := d.Right.build()
	if err != nil {
		return nil, err
	}
	return &Node{Feature: idx, Threshold: d.Threshold, Left: left, Right: right}, nil
}

func columnIndex(name string) (int, error) {
	for i, c := range feature.Columns {
		if c == name {
			return i, nil
		}
	}
	return -1, errors.Errorf("unknown feature: %q", name)
}
