package model

import (
	"bytes"
	"encoding/gob"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const (
	// ArtifactFormat tags every artifact envelope.
	ArtifactFormat  = "leadscore-model"
	ArtifactVersion = 1

	// FileExt is the default artifact file extension.
	FileExt = ".gob"

	dirMode  = 0700
	fileMode = 0600
)

var (
	ErrUnknownKind = errors.New("unknown model kind")
	ErrFormat      = errors.New("not a model artifact")

	kinds = map[Kind]func() Classifier{
		KindLogisticRegression: func() Classifier { return &LogisticRegression{} },
		KindRandomForest:       func() Classifier { return &RandomForest{} },
		KindGradientBoosting:   func() Classifier { return &GradientBoosting{} },
		KindLinearSVM:          func() Classifier { return &LinearSVM{} },
		KindThresholdRule:      func() Classifier { return &ThresholdRule{} },
	}
)

type envelope struct {
	Format  string
	Version int
	Kind    Kind
	Payload []byte
}

// Artifact is a decoded model with its capability resolved at load time.
type Artifact struct {
	Path       string
	Kind       Kind
	Classifier Classifier
	Capability Capability
}

// Encode writes c as an artifact to w.
func Encode(w io.Writer, c Classifier) error {
	if c == nil {
		return errors.New("classifier required")
	}
	if _, ok := kinds[c.Kind()]; !ok {
		return errors.Wrapf(ErrUnknownKind, "kind: %s", c.Kind())
	}
	if err := c.Validate(); err != nil {
		return errors.Wrapf(err, "invalid %s model", c.Kind())
	}

	var payload bytes.Buffer
	if err := gob.NewEncoder(&payload).Encode(c); err != nil {
		return errors.Wrapf(err, "failed to encode %s model", c.Kind())
	}

	env := envelope{
		Format:  ArtifactFormat,
		Version: ArtifactVersion,
		Kind:    c.Kind(),
		Payload: payload.Bytes(),
	}
	if err := gob.NewEncoder(w).Encode(&env); err != nil {
		return errors.Wrap(err, "failed to encode artifact")
	}
	return nil
}

// Decode reads an artifact from r.
func Decode(r io.Reader) (*Artifact, error) {
	var env envelope
	if err := gob.NewDecoder(r).Decode(&env); err != nil {
		return nil, errors.Wrapf(ErrFormat, "%v", err)
	}
	if env.Format != ArtifactFormat {
		return nil, errors.Wrapf(ErrFormat, "format: %q", env.Format)
	}
	if env.Version != ArtifactVersion {
		return nil, errors.Errorf("unsupported artifact version: %d", env.Version)
	}

	newFn, ok := kinds[env.Kind]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownKind, "kind: %s", env.Kind)
	}

	c := newFn()
	if err := gob.NewDecoder(bytes.NewReader(env.Payload)).Decode(c); err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s model", env.Kind)
	}
	if err := c.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid %s model", env.Kind)
	}

	return &Artifact{
		Kind:       env.Kind,
		Classifier: c,
		Capability: CapabilityOf(c),
	}, nil
}

// Load opens and decodes the artifact at path. The file is closed before
// Load returns.
func Load(path string) (*Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error opening model file: %s", path)
	}
	defer f.Close()

	a, err := Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "error loading model: %s", path)
	}
	a.Path = path
	return a, nil
}

// Save writes c as an artifact to path, creating parent directories.
func Save(path string, c Classifier) error {
	if path == "" {
		return errors.New("artifact path required")
	}

	var buf bytes.Buffer
	if err := Encode(&buf, c); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), dirMode); err != nil {
		return errors.Wrapf(err, "failed to create dir for: %s", path)
	}
	if err := os.WriteFile(path, buf.Bytes(), fileMode); err != nil {
		return errors.Wrapf(err, "failed to write model file: %s", path)
	}
	return nil
}
