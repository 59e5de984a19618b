package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zeropenalty/riskzone/internal/engine"
)

var (
	checkLat     float64
	checkLng     float64
	checkSpeed   float64
	checkDynamic bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Evaluate a single position and speed",
	Long:  "Runs one risk-zone evaluation for the given coordinates and prints the result as JSON.",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEngine(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Engine.Evaluate(cmd.Context(), engine.Request{
			Latitude:  checkLat,
			Longitude: checkLng,
			SpeedKmh:  checkSpeed,
			Dynamic:   checkDynamic,
		})
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	checkCmd.Flags().Float64Var(&checkLat, "lat", 0, "latitude (required)")
	checkCmd.Flags().Float64Var(&checkLng, "lng", 0, "longitude (required)")
	checkCmd.Flags().Float64Var(&checkSpeed, "speed", 0, "current speed in km/h")
	checkCmd.Flags().BoolVar(&checkDynamic, "dynamic", true, "run dynamic OSM-based evaluation")
	_ = checkCmd.MarkFlagRequired("lat")
	_ = checkCmd.MarkFlagRequired("lng")
	rootCmd.AddCommand(checkCmd)
}
