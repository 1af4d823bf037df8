package cli

import (
	"context"
	"errors"

	"github.com/mchmarny/leadscore/pkg/data"
	urfave "github.com/urfave/cli/v3"
)

const (
	historyLimitDefault  = 10
	historyLimitFlagName = "limit"
)

func newHistoryCmd() *urfave.Command {
	return &urfave.Command{
		Name:   "history",
		Usage:  "List recent scoring runs recorded with --db",
		Action: cmdHistory,
		Flags: []urfave.Flag{
			&urfave.IntFlag{
				Name:  historyLimitFlagName,
				Usage: "Limits number of runs returned",
				Value: historyLimitDefault,
			},
			formatFlag(),
		},
	}
}

func cmdHistory(_ context.Context, cmd *urfave.Command) error {
	cfg, err := getConfig(cmd)
	if err != nil {
		return err
	}

	path := cfg.Config.HistoryDB
	if path == "" {
		return errors.New("history database not set, use --db or history_db in config")
	}
	if err := data.Init(path); err != nil {
		return err
	}
	db, err := data.GetDB(path)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := data.ListRuns(db, cmd.Int(historyLimitFlagName))
	if err != nil {
		return err
	}
	return encode(cmd.Root().Writer, cmd.String(formatFlagName), runs)
}
