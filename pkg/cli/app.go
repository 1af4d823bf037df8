package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mchmarny/leadscore/pkg/config"
	"github.com/mchmarny/leadscore/pkg/logging"
	"github.com/mchmarny/leadscore/pkg/resolve"
	"github.com/mchmarny/leadscore/pkg/score"
	urfave "github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	appName      = "predict"
	appConfigKey = "app-config"
	envPrefix    = "LEADSCORE_"

	formatJSON = "json"
	formatYAML = "yaml"
)

const (
	debugFlagName              = "debug"
	logLevelFlagName           = "log-level"
	configFlagName             = "config"
	modelDirFlagName           = "model-dir"
	dbFlagName                 = "db"
	modelFlagName              = "model"
	defaultProbabilityFlagName = "default-probability"
	gradeFlagName              = "grade"
	formatFlagName             = "format"
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""
)

// Execute creates and runs the CLI application.
func Execute() {
	logging.SetDefaultCLILogger(os.Getenv(envPrefix + "LOG_LEVEL"))

	app := newApp(os.Stdout, os.Stderr)
	if err := app.Run(context.Background(), os.Args); err != nil {
		os.Exit(exitCode(err, os.Stderr))
	}
}

type appConfig struct {
	Config *config.Config
	Logger *slog.Logger
	Debug  bool
}

// getConfig builds the app config on first use. Flags are read from the
// running command so persistent flags given after a subcommand apply too.
func getConfig(cmd *urfave.Command) (*appConfig, error) {
	root := cmd.Root()
	if cfg, ok := root.Metadata[appConfigKey].(*appConfig); ok {
		return cfg, nil
	}

	c, err := config.Load(cmd.String(configFlagName))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	applyFlags(cmd, c)

	debug := cmd.Bool(debugFlagName)
	level := c.LogLevel
	if debug {
		level = "debug"
	}

	cfg := &appConfig{
		Config: c,
		Logger: slog.New(logging.NewCLIHandler(root.ErrWriter, logging.ParseLogLevel(level))),
		Debug:  debug,
	}
	root.Metadata[appConfigKey] = cfg
	slog.SetDefault(cfg.Logger)
	return cfg, nil
}

func newApp(stdout, stderr io.Writer) *urfave.Command {
	return &urfave.Command{
		Name:            appName,
		Version:         fmt.Sprintf("%s (%s - %s)", version, commit, date),
		Usage:           "Score lead conversion probability with a trained model",
		UsageText:       appName + " [options] '<json_features>'",
		Description:     "Prints one line of compact JSON to stdout, {\"success\":true,\"predictions\":[...]}.\nDiagnostics go to stderr.",
		HideHelpCommand: true,
		Writer:          stdout,
		ErrWriter:       stderr,
		Metadata:        map[string]any{},
		// exit codes are resolved by Execute
		ExitErrHandler: func(context.Context, *urfave.Command, error) {},
		Flags: append(globalFlags(), predictFlags()...),
		Commands: []*urfave.Command{
			newArtifactCmd(),
			newHistoryCmd(),
		},
		Action: cmdPredict,
	}
}

// globalFlags apply to every command.
func globalFlags() []urfave.Flag {
	return []urfave.Flag{
		&urfave.BoolFlag{
			Name:    debugFlagName,
			Usage:   "Prints verbose diagnostics to stderr (optional, default: false)",
			Sources: urfave.EnvVars(envPrefix + "DEBUG"),
		},
		&urfave.StringFlag{
			Name:    logLevelFlagName,
			Usage:   "Diagnostic log level [debug, info, warn, error]",
			Sources: urfave.EnvVars(envPrefix + "LOG_LEVEL"),
		},
		&urfave.StringFlag{
			Name:    configFlagName,
			Aliases: []string{"c"},
			Usage:   "Path to the YAML config file (optional)",
			Sources: urfave.EnvVars(envPrefix + "CONFIG"),
		},
		&urfave.StringFlag{
			Name:    modelDirFlagName,
			Usage:   "Directory holding the model artifacts (optional, defaults to ../../pkl from the executable)",
			Sources: urfave.EnvVars(envPrefix + "MODEL_DIR"),
		},
		&urfave.StringFlag{
			Name:    dbFlagName,
			Usage:   "Path to the SQLite history database (optional, history is not recorded when empty)",
			Sources: urfave.EnvVars(envPrefix + "DB"),
		},
	}
}

func formatFlag() urfave.Flag {
	return &urfave.StringFlag{
		Name:  formatFlagName,
		Usage: "Output format [json, yaml]",
		Value: formatJSON,
	}
}

// applyFlags overrides the config file with flags and env vars.
func applyFlags(cmd *urfave.Command, cfg *config.Config) {
	if cmd.IsSet(logLevelFlagName) {
		cfg.LogLevel = cmd.String(logLevelFlagName)
	}
	if cmd.IsSet(modelDirFlagName) {
		cfg.ModelDir = cmd.String(modelDirFlagName)
	}
	if cmd.IsSet(dbFlagName) {
		cfg.HistoryDB = cmd.String(dbFlagName)
	}
	if cmd.IsSet(defaultProbabilityFlagName) {
		cfg.DefaultProbability = cmd.Float(defaultProbabilityFlagName)
	}
}

func newResolver(cfg *appConfig) *resolve.Resolver {
	return resolve.New(cfg.Config, cfg.Logger)
}

func newScorer(cfg *appConfig) *score.Scorer {
	return score.NewScorer(newResolver(cfg), cfg.Config.DefaultProbability, cfg.Logger)
}

// exitCode reports err on w unless it only carries an exit code.
func exitCode(err error, w io.Writer) int {
	var ec urfave.ExitCoder
	if errors.As(err, &ec) {
		if msg := ec.Error(); msg != "" {
			fmt.Fprintln(w, msg)
		}
		return ec.ExitCode()
	}
	fmt.Fprintf(w, "fatal error: %v\n", err)
	return 1
}

func encode(w io.Writer, format string, v any) error {
	if format == formatYAML || format == "yml" {
		y := yaml.NewEncoder(w)
		if err := y.Encode(v); err != nil {
			return err
		}
		return y.Close()
	}
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(v)
}
