package showcurves

import (
	"bytes"
	"fmt"
	"image"
	_ "image/png"
	"maps"
	"os"
	"slices"
	"strconv"

	"github.com/go-analyze/charts"
	"github.com/mattn/go-sixel"
	"github.com/spf13/cobra"
	"github.com/trimpotd/trimpotd"
	"github.com/trimpotd/trimpotd/hwmon/sensor"
	"github.com/trimpotd/trimpotd/mcp4x"
)

func Command() *cobra.Command {
	var cpath string
	var resolution int

	cmd := &cobra.Command{
		Use:   "show-curves",
		Short: "Show the trim curve of each pot",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := trimpotd.Load(cpath)
			if err != nil {
				return err
			}

			collector, err := sensor.New()
			if err != nil {
				return err
			}

			temps, err := collector.Temperatures()
			if err != nil {
				return err
			}

			shaper, err := trimpotd.NewTrimShaper(cfg, temps)
			if err != nil {
				return err
			}

			var maxT int
			labels := map[mcp4x.Channel]string{}
			probes := map[string]sensor.TemperatureID{}
			for _, pot := range cfg.PotSettings {
				labels[pot.Channel] = pot.Label

				for _, p := range pot.CurvePoints {
					for _, thresholds := range p {
						for tname, v := range thresholds {
							maxT = max(maxT, v)
							if _, ok := probes[tname]; !ok {
								for _, t := range temps {
									if t.Name == tname {
										probes[tname] = t.ID
										break
									}
								}
							}
						}
					}
				}
			}

			maxT = max(maxT, 100) // Set defaults to 100°C which leads to better x-axis values.

			//
			// Compute points
			//

			m := make(map[mcp4x.Channel]map[sensor.TemperatureID]charts.LineSeries)
			decimals := 100 // HWMON can return 42.321°C

			for probe, tid := range probes {
				for t := range maxT + 1 {
					for decimal := range decimals {
						temps = []sensor.Temperature{
							{
								ID:          tid,
								Name:        probe,
								Temperature: float64(t) + float64(decimal)/float64(decimals),
							},
						}

						for _, eval := range shaper.Eval(temps) {
							if _, ok := m[eval.Pot]; !ok {
								m[eval.Pot] = make(map[sensor.TemperatureID]charts.LineSeries)
							}
							if _, ok := m[eval.Pot][eval.TemperatureID]; !ok {
								m[eval.Pot][eval.TemperatureID] = charts.LineSeries{
									Name: eval.TemperatureName,
								}
							}

							ls := m[eval.Pot][eval.TemperatureID]
							ls.Values = append(ls.Values, float64(eval.Position))
							m[eval.Pot][eval.TemperatureID] = ls
						}
					}
				}
			}

			//
			// Render charts
			//

			for _, pid := range slices.Sorted(maps.Keys(m)) {
				pm := m[pid]

				var set charts.LineSeriesList
				for _, ls := range pm {
					set = append(set, ls)
				}

				opt := charts.NewLineChartOptionWithSeries(set)
				opt.Theme = charts.GetTheme(charts.ThemeVividDark)
				opt.Padding = charts.NewBox(20, 20, 20, 20)
				opt.Title.Text = fmt.Sprintf("pot%d: %s", pid, labels[pid])
				opt.Title.FontStyle.FontSize = 16
				opt.Title.Offset = charts.OffsetLeft
				opt.Legend = charts.LegendOption{
					Show:     trimpotd.ToPtr(true),
					Offset:   charts.OffsetCenter,
					Vertical: trimpotd.ToPtr(true),
					Padding:  charts.NewBox(0, 0, 0, 20),
				}
				opt.Symbol = charts.SymbolNone
				opt.LineStrokeWidth = 2
				opt.StrokeSmoothingTension = 1
				opt.XAxis.Show = trimpotd.ToPtr(true)
				opt.XAxis.Title = "°C"
				opt.XAxis.Labels = []string{} // Reset
				for t := range maxT + 1 {
					for range decimals {
						// Generate the same integer for all decimal points of that integer.
						// It offers a better `opt.XAxis.LabelCount = maxT / 10' display.
						opt.XAxis.Labels = append(opt.XAxis.Labels, strconv.Itoa(t))
					}
				}
				opt.XAxis.LabelCount = maxT / 10
				opt.YAxis = []charts.YAxisOption{
					{
						Show:                   trimpotd.ToPtr(true),
						Title:                  "wiper",
						Min:                    trimpotd.ToPtr(float64(0)),
						Max:                    trimpotd.ToPtr(float64(255)),
						RangeValuePaddingScale: trimpotd.ToPtr(float64(0)),
						Unit:                   32,
					},
				}
				p := charts.NewPainter(charts.PainterOptions{
					OutputFormat: charts.ChartOutputPNG,
					Width:        resolution,
					Height:       int(float64(resolution) / (16.0 / 9.0)),
				})

				err := p.LineChart(opt)
				if err != nil {
					return fmt.Errorf("pot%d: %w", pid, err)
				}

				mPNG, err := p.Bytes()
				if err != nil {
					return fmt.Errorf("pot%d: %w", pid, err)
				}

				img, _, err := image.Decode(bytes.NewReader(mPNG))
				if err != nil {
					return fmt.Errorf("pot%d: %w", pid, err)
				}

				codec := sixel.NewEncoder(os.Stdout)
				err = codec.Encode(img)
				if err != nil {
					return fmt.Errorf("pot%d: %w", pid, err)
				}
			}

			return nil
		},
	}
	cmd.Flags().StringVarP(&cpath, "config", "c", "/etc/trimpotd/trimpotd.yml", "Configfile path")
	cmd.Flags().IntVarP(&resolution, "resolution", "r", 1000, "The width size in pixel of each graph")

	return cmd
}
