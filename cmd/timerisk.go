package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zeropenalty/riskzone/internal/timerisk"
)

var timeriskCmd = &cobra.Command{
	Use:   "timerisk",
	Short: "Show the current time-of-day risk context",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := json.MarshalIndent(timerisk.Now(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(timeriskCmd)
}
