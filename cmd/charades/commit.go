package main

import (
	"fmt"

	"github.com/okian/charades/internal/domain/commitment"

	"github.com/urfave/cli/v2"
)

var (
	commitMessageFlag = &cli.StringFlag{
		Name:     "message",
		Aliases:  []string{"m"},
		Usage:    "Prediction text to commit to",
		Required: true,
	}

	commitSaltFlag = &cli.StringFlag{
		Name:     "salt",
		Aliases:  []string{"s"},
		Usage:    "Salt appended to the message before hashing",
		Required: true,
	}

	verifyHashFlag = &cli.StringFlag{
		Name:     "hash",
		Usage:    "Commitment digest to check against",
		Required: true,
	}

	commitCmd = &cli.Command{
		Name:   "commit",
		Usage:  "Compute the commitment digest for a message and salt",
		Action: cmdCommit,
		Flags: []cli.Flag{
			commitMessageFlag,
			commitSaltFlag,
		},
	}

	saltCmd = &cli.Command{
		Name:   "salt",
		Usage:  "Generate a random salt",
		Action: cmdSalt,
	}

	verifyCmd = &cli.Command{
		Name:   "verify",
		Usage:  "Check a message and salt against a commitment digest",
		Action: cmdVerify,
		Flags: []cli.Flag{
			commitMessageFlag,
			commitSaltFlag,
			verifyHashFlag,
		},
	}
)

func cmdCommit(c *cli.Context) error {
	digest, err := commitment.Commit(c.String(commitMessageFlag.Name), c.String(commitSaltFlag.Name))
	if err != nil {
		return err
	}
	fmt.Println(digest)
	return nil
}

func cmdSalt(c *cli.Context) error {
	fmt.Println(commitment.GenerateSalt())
	return nil
}

func cmdVerify(c *cli.Context) error {
	ok := commitment.Verify(
		c.String(commitMessageFlag.Name),
		c.String(commitSaltFlag.Name),
		c.String(verifyHashFlag.Name),
	)
	if !ok {
		fmt.Println("mismatch")
		return cli.Exit("", 1)
	}
	fmt.Println("ok")
	return nil
}
