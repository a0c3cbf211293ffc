package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/Versifine/threadboard/server/seed"
)

var seedCmd = &cobra.Command{
	Use:   "seed <file>",
	Short: "Add users (and their first threads) from a JSON seed file",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	path := cfg.SeedFile
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		return errors.New("no seed file given and seed_file is not configured")
	}

	f, err := seed.Load(path)
	if err != nil {
		return err
	}
	st, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	res, err := seed.Apply(cmd.Context(), st, f, cfg.Upload.Dir)
	if err != nil {
		return err
	}

	color.Green("Seeded %d users", res.Users)
	fmt.Printf("Threads:  %d\n", res.Threads)
	fmt.Printf("Avatars:  %d\n", res.Images)
	if res.Skipped > 0 {
		color.Yellow("Skipped %d existing users", res.Skipped)
	}
	return nil
}
