package main

import (
	"ormosbot/cmd/scan"
	"ormosbot/cmd/update"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ormosbot",
		Short: "Maintains the Scryfall stats data module for the wiki",
	}
	rootCmd.AddCommand(scan.Scan)
	rootCmd.AddCommand(update.Update)

	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}
