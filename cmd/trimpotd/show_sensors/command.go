package showsensors

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/trimpotd/trimpotd/hwmon/sensor"
)

func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "show-sensors",
		Short: "Show the name of available sensors",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, args []string) error {
			collector, err := sensor.New()
			if err != nil {
				return err
			}

			temps, err := collector.Temperatures()
			if err != nil {
				return err
			}

			slices.SortStableFunc(temps, func(a, b sensor.Temperature) int {
				return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
			})

			for _, t := range temps {
				fmt.Printf("%3.0f°C   \"%s\"\n", t.Temperature, t.Name)
			}

			return nil
		},
	}
}
