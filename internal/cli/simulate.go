package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"weather-alert-pipeline/internal/app"
)

var (
	simulateTemperature   float64
	simulatePrecipitation float64
	simulateWind          float64
	simulateHumidity      float64
	simulateSend          bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate-alert",
	Short: "Evaluate synthetic conditions and optionally send the alerts",
	RunE: func(cmd *cobra.Command, args []string) error {
		if simulateHumidity < 0 || simulateHumidity > 100 {
			return fmt.Errorf("--humidity must be between 0 and 100")
		}

		opts := app.SimulateOptions{
			Temperature:   simulateTemperature,
			Precipitation: simulatePrecipitation,
			WindSpeed:     simulateWind,
			Humidity:      simulateHumidity,
			Send:          simulateSend,
		}

		return getApp().SimulateAlert(cmd.Context(), opts)
	},
}

func init() {
	simulateCmd.Flags().Float64Var(&simulateTemperature, "temperature", 20, "Synthetic temperature in °C")
	simulateCmd.Flags().Float64Var(&simulatePrecipitation, "precipitation", 15, "Synthetic precipitation in mm/h")
	simulateCmd.Flags().Float64Var(&simulateWind, "wind", 60, "Synthetic wind speed in km/h")
	simulateCmd.Flags().Float64Var(&simulateHumidity, "humidity", 85, "Synthetic relative humidity in %")
	simulateCmd.Flags().BoolVar(&simulateSend, "send", false, "Actually deliver the alerts and record them")
}
