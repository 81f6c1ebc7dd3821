package main

import (
	"fmt"

	app "github.com/okian/charades/internal/app"
	"github.com/okian/charades/internal/config"
	"github.com/okian/charades/internal/domain/round"
	"github.com/okian/charades/pkg/logger"

	"github.com/urfave/cli/v2"
)

var (
	roundIDFlag = &cli.StringFlag{
		Name:    "round",
		Aliases: []string{"r"},
		Usage:   "Round identifier to process",
	}

	allRoundsFlag = &cli.BoolFlag{
		Name:  "all",
		Usage: "Process every unprocessed round with participants",
	}

	prizePoolFlag = &cli.Float64Flag{
		Name:  "prize-pool",
		Usage: "Prize pool override (optional, falls back to the stored pool)",
	}

	forceFlag = &cli.BoolFlag{
		Name:  "force",
		Usage: "Continue past commitment verification failures",
	}

	skipVerifyFlag = &cli.BoolFlag{
		Name:  "skip-verify",
		Usage: "Skip commitment verification entirely",
	}

	processCmd = &cli.Command{
		Name:   "process",
		Usage:  "Run payouts for one round or for all unprocessed rounds",
		Action: cmdProcess,
		Flags: []cli.Flag{
			roundIDFlag,
			allRoundsFlag,
			prizePoolFlag,
			forceFlag,
			skipVerifyFlag,
		},
	}

	verifyRoundCmd = &cli.Command{
		Name:   "verify-round",
		Usage:  "Re-check all revealed commitments for a stored round",
		Action: cmdVerifyRound,
		Flags: []cli.Flag{
			roundIDFlag,
		},
	}
)

func cmdProcess(c *cli.Context) error {
	roundID := c.String(roundIDFlag.Name)
	processAll := c.Bool(allRoundsFlag.Name)
	if roundID == "" && !processAll {
		return cli.Exit("either --round or --all is required", 1)
	}

	svc := app.New(
		app.WithLogger(logger.Get()),
		app.WithStoreDriver(config.StoreDriverSQLite, dbFilePath),
		app.WithVersionsFile(versionsFile),
	)
	ctx := c.Context
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	opts := round.Options{
		PrizePool:        c.Float64(prizePoolFlag.Name),
		SkipVerification: c.Bool(skipVerifyFlag.Name),
		ForceContinue:    c.Bool(forceFlag.Name),
	}

	if processAll {
		results, err := svc.ProcessAllRounds(ctx, opts)
		if err != nil {
			return err
		}
		for _, res := range results {
			printResult(res)
		}
		fmt.Printf("processed %d round(s)\n", len(results))
		return nil
	}

	res, err := svc.ProcessRound(ctx, roundID, opts)
	if err != nil {
		return err
	}
	printResult(res)
	return nil
}

func cmdVerifyRound(c *cli.Context) error {
	roundID := c.String(roundIDFlag.Name)
	if roundID == "" {
		return cli.Exit("--round is required", 1)
	}

	svc := app.New(
		app.WithLogger(logger.Get()),
		app.WithStoreDriver(config.StoreDriverSQLite, dbFilePath),
		app.WithVersionsFile(versionsFile),
	)
	ctx := c.Context
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	allValid, err := svc.VerifyRound(ctx, roundID)
	if err != nil {
		return err
	}
	if !allValid {
		fmt.Printf("round %s: one or more commitments failed verification\n", roundID)
		return cli.Exit("", 1)
	}
	fmt.Printf("round %s: all commitments verified\n", roundID)
	return nil
}

func printResult(res *round.Result) {
	if res.NoValidParticipants {
		fmt.Printf("round %s: no valid participants, nothing to pay out\n", res.RoundID)
		return
	}
	fmt.Printf("round %s (pool %.2f):\n", res.RoundID, res.PrizePool)
	for _, p := range res.Payouts {
		fmt.Printf("  %-20s %.6f\n", p.Username, p.Payout)
	}
}
