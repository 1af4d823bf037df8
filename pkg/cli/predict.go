package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/mchmarny/leadscore/pkg/data"
	"github.com/mchmarny/leadscore/pkg/feature"
	"github.com/mchmarny/leadscore/pkg/score"
	urfave "github.com/urfave/cli/v3"
)

func predictFlags() []urfave.Flag {
	return []urfave.Flag{
		&urfave.StringFlag{
			Name:    modelFlagName,
			Aliases: []string{"m"},
			Usage:   "Path to a model artifact, skips the default lookup (optional)",
			Sources: urfave.EnvVars(envPrefix + "MODEL"),
		},
		&urfave.FloatFlag{
			Name:    defaultProbabilityFlagName,
			Usage:   "Probability returned for every row when no model can score",
			Value:   score.DefaultProbability,
			Sources: urfave.EnvVars(envPrefix + "DEFAULT_PROBABILITY"),
		},
		&urfave.BoolFlag{
			Name:  gradeFlagName,
			Usage: "Adds a quality grade (Hot, Warm, Cold, Unknown) per prediction",
		},
	}
}

type predictOutput struct {
	Success     bool          `json:"success"`
	Predictions []float64     `json:"predictions"`
	Grades      []score.Grade `json:"grades,omitempty"`
}

type failureOutput struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func cmdPredict(_ context.Context, cmd *urfave.Command) error {
	cfg, err := getConfig(cmd)
	if err != nil {
		return err
	}
	w := cmd.Root().Writer

	if cmd.Args().Len() < 1 {
		fmt.Fprintf(cmd.Root().ErrWriter, "Usage: %s '<json_features>'\n", appName)
		return urfave.Exit("", 1)
	}

	sets, err := feature.ParseInput([]byte(cmd.Args().First()))
	if err != nil {
		if werr := writeResult(w, &failureOutput{Error: err.Error()}); werr != nil {
			return werr
		}
		return urfave.Exit("", 1)
	}

	res := newScorer(cfg).Run(sets, cmd.String(modelFlagName))

	grades := score.Grades(res.Probabilities)
	out := &predictOutput{
		Success:     true,
		Predictions: res.Probabilities,
	}
	if cmd.Bool(gradeFlagName) {
		out.Grades = grades
	}

	if cfg.Config.HistoryDB != "" {
		recordRun(cfg, res, grades)
	}

	return writeResult(w, out)
}

// writeResult prints v as a single line of JSON.
func writeResult(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}

// recordRun stores the run in the history database. Failures are logged,
// the scoring output is not affected.
func recordRun(cfg *appConfig, res *score.Result, grades []score.Grade) {
	path := cfg.Config.HistoryDB
	if err := data.Init(path); err != nil {
		cfg.Logger.Error("error initializing history", "path", path, "error", err)
		return
	}
	db, err := data.GetDB(path)
	if err != nil {
		cfg.Logger.Error("error opening history", "path", path, "error", err)
		return
	}
	defer db.Close()

	run := &data.Run{
		RanAt:     time.Now().UTC(),
		State:     string(res.State),
		ModelPath: res.ModelPath,
		ModelKind: string(res.ModelKind),
		Rows:      len(res.Probabilities),
	}
	if res.State != score.StateNoModel {
		run.Capability = res.Capability.String()
	}
	for i, p := range res.Probabilities {
		run.Predictions = append(run.Predictions, &data.Prediction{
			Row:         i,
			Probability: p,
			Grade:       string(grades[i]),
		})
	}

	if err := data.SaveRun(db, run); err != nil {
		cfg.Logger.Error("error recording history", "path", path, "error", err)
		return
	}
	cfg.Logger.Debug("run recorded", "id", run.ID, "rows", run.Rows)
}
