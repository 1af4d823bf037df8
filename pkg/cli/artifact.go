package cli

import (
	"context"
	"fmt"

	"github.com/mchmarny/leadscore/pkg/model"
	urfave "github.com/urfave/cli/v3"
)

const (
	fromFlagName = "from"
	outFlagName  = "out"
)

func newArtifactCmd() *urfave.Command {
	return &urfave.Command{
		Name:    "artifact",
		Aliases: []string{"a"},
		Usage:   "Model artifact commands",
		Commands: []*urfave.Command{
			{
				Name:   "build",
				Usage:  "Build a binary model artifact from a definition file",
				Action: cmdBuildArtifact,
				Flags: []urfave.Flag{
					&urfave.StringFlag{
						Name:     fromFlagName,
						Usage:    "Path to the YAML or JSON model definition",
						Required: true,
					},
					&urfave.StringFlag{
						Name:  outFlagName,
						Usage: "Artifact output path (optional, defaults to the primary artifact path)",
					},
				},
			},
			{
				Name:      "inspect",
				Usage:     "Print the kind and capabilities of an artifact",
				ArgsUsage: "[path]",
				Action:    cmdInspectArtifact,
				Flags: []urfave.Flag{
					formatFlag(),
				},
			},
		},
	}
}

type artifactInfo struct {
	Path         string   `json:"path" yaml:"path"`
	Kind         string   `json:"kind" yaml:"kind"`
	Capability   string   `json:"capability" yaml:"capability"`
	Capabilities []string `json:"capabilities" yaml:"capabilities"`
}

func cmdBuildArtifact(_ context.Context, cmd *urfave.Command) error {
	cfg, err := getConfig(cmd)
	if err != nil {
		return err
	}

	def, err := model.ReadDefinition(cmd.String(fromFlagName))
	if err != nil {
		return err
	}
	c, err := def.Build()
	if err != nil {
		return fmt.Errorf("building %s model: %w", def.Kind, err)
	}

	out := cmd.String(outFlagName)
	if out == "" {
		out = newResolver(cfg).PrimaryPath()
	}
	if err := model.Save(out, c); err != nil {
		return err
	}

	cfg.Logger.Info("artifact written", "path", out, "kind", c.Kind())
	return nil
}

// cmdInspectArtifact describes the artifact at the given path, or the one
// the default lookup would pick.
func cmdInspectArtifact(_ context.Context, cmd *urfave.Command) error {
	cfg, err := getConfig(cmd)
	if err != nil {
		return err
	}

	a, err := newResolver(cfg).Resolve(cmd.Args().First())
	if err != nil {
		return err
	}

	info := &artifactInfo{
		Path:       a.Path,
		Kind:       string(a.Kind),
		Capability: a.Capability.String(),
	}
	for _, c := range model.Capabilities(a.Classifier) {
		info.Capabilities = append(info.Capabilities, c.String())
	}

	return encode(cmd.Root().Writer, cmd.String(formatFlagName), info)
}
