// Package control provides the subcommands that drive manual overrides of the
// daemon. A pot argument is `0', `1' or `all'.
package control

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func SetCommand(client *http.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "set <pot> <position>",
		Short: "Pin a pot to a fixed wiper position",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			pot, err := parsePot(args[0])
			if err != nil {
				return err
			}

			position, err := strconv.ParseUint(args[1], 0, 8)
			if err != nil {
				return fmt.Errorf("invalid position %q: position must be 0 to 255", args[1])
			}

			return post(client, "/set", map[string]any{"pot": pot, "position": position})
		},
	}
}

func ReleaseCommand(client *http.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "release <pot>",
		Short: "Return a pinned or parked pot to temperature control",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			pot, err := parsePot(args[0])
			if err != nil {
				return err
			}

			return post(client, "/release", map[string]any{"pot": pot})
		},
	}
}

func ShutdownCommand(client *http.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "shutdown <pot>",
		Short: "Park a pot in software shutdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			pot, err := parsePot(args[0])
			if err != nil {
				return err
			}

			return post(client, "/shutdown", map[string]any{"pot": pot})
		},
	}
}

func parsePot(s string) (int, error) {
	switch strings.ToLower(s) {
	case "0":
		return 0, nil
	case "1":
		return 1, nil
	case "2", "all":
		return 2, nil
	}
	return 0, fmt.Errorf("invalid pot %q: use 0, 1 or all", s)
}

func post(client *http.Client, path string, params any) error {
	payload, err := json.Marshal(params)
	if err != nil {
		return err
	}

	resp, err := client.Post("http://unix"+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(b)))
	}

	return nil
}
