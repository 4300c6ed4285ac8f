package sensor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/trimpotd/trimpotd/hwmon/environment"
)

// Scan logic derived from github.com/shirou/gopsutil/v4 and adapted.
// gopsutil is distributed under BSD license.

// Sysfs reports temperatures in millidegree Celsius.
const hostTemperatureScale = 1000

func scan() (map[string]Temperature, error) {
	files, err := temperatureFiles()
	if err != nil {
		return nil, fmt.Errorf("could not get temperature files: %w", err)
	}

	temperatures := make(map[string]Temperature, len(files))

	var errs []error
	for i, file := range files {
		t, err := probe(TemperatureID(i), file)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		temperatures[file] = t
	}

	return temperatures, errors.Join(errs...)
}

// probe builds a Temperature out of a temp*_input file and its siblings
// (name, temp*_label, temp*_max, temp*_crit).
func probe(id TemperatureID, file string) (Temperature, error) {
	directory := filepath.Dir(file)
	basename := strings.Split(filepath.Base(file), "_")[0] // e.g. temp1
	basepath := filepath.Join(directory, basename)

	// The label file does not exist when the directory holds a single probe.
	raw, _ := os.ReadFile(basepath + "_label")
	label := strings.TrimSpace(string(raw))

	raw, err := os.ReadFile(filepath.Join(directory, "name"))
	if err != nil {
		return Temperature{}, err
	}

	key := strings.TrimSpace(string(raw))
	if label != "" {
		// Format the label from "Core 0" to "core_0".
		key += "_" + strings.Join(strings.Split(strings.ToLower(label), " "), "_")
	}

	device := deviceName(filepath.Join(directory, "device"))
	if device == "" {
		device = strings.TrimSpace(string(raw))
	}

	name := device
	if label != "" {
		name += ": " + label
	}

	refresh := func() (float64, error) {
		raw, err := os.ReadFile(file)
		if err != nil {
			return 0, err
		}

		v, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
		if err != nil {
			return 0, err
		}

		return v / hostTemperatureScale, nil
	}

	v, err := refresh()
	if err != nil {
		return Temperature{}, err
	}

	return Temperature{
		ID:          id,
		Key:         key,
		Name:        name,
		Device:      device,
		Temperature: v,
		High:        optionalValue(basepath+"_max") / hostTemperatureScale,
		Critical:    optionalValue(basepath+"_crit") / hostTemperatureScale,
		refresh:     refresh,
	}, nil
}

func temperatureFiles() ([]string, error) {
	// Only the temp*_input file carries the current reading:
	// https://www.kernel.org/doc/Documentation/hwmon/sysfs-interface
	files, err := filepath.Glob(environment.SysPath("class", "hwmon", "hwmon*", "temp*_input"))
	if err != nil {
		return nil, err
	}

	if len(files) == 0 {
		// CentOS has an intermediate /device directory:
		// https://github.com/giampaolo/psutil/issues/971
		files, err = filepath.Glob(environment.SysPath("class", "hwmon", "hwmon*", "device", "temp*_input"))
		if err != nil {
			return nil, err
		}
	}

	return files, nil
}

func optionalValue(filename string) float64 {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return 0
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
	if err != nil {
		return 0
	}

	return v
}

func deviceName(directory string) string {
	for _, file := range []string{"name", "model"} {
		if raw, err := os.ReadFile(filepath.Join(directory, file)); err == nil {
			return strings.TrimSpace(string(raw))
		}
	}

	return ""
}
