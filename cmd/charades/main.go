package main

import (
	"os"

	"github.com/okian/charades/pkg/logger"

	"github.com/urfave/cli/v2"
)

var (
	name    = "charades"
	version = "v0.0.1-default"

	dbFilePath   = "charades.db"
	versionsFile = ""

	dbFilePathFlag = &cli.StringFlag{
		Name:        "db",
		Usage:       "Path to the SQLite round database (optional, default: charades.db)",
		Destination: &dbFilePath,
		Value:       dbFilePath,
	}

	versionsFileFlag = &cli.StringFlag{
		Name:        "versions",
		Usage:       "Path to the scoring version registry file (optional)",
		Destination: &versionsFile,
	}
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	app := &cli.App{
		Name:    name,
		Version: version,
		Usage:   "Commitment and payout tooling for prediction rounds",
		Flags: []cli.Flag{
			dbFilePathFlag,
			versionsFileFlag,
		},
		Commands: []*cli.Command{
			commitCmd,
			saltCmd,
			verifyCmd,
			verifyRoundCmd,
			processCmd,
		},
	}

	if err := app.Run(os.Args); err != nil {
		os.Stderr.WriteString("error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
