package command

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/postvote-go/internal/cli/connection"
)

// SystemCommand returns the system subcommand group.
func SystemCommand() *cli.Command {
	return &cli.Command{
		Name:    "system",
		Aliases: []string{"sys"},
		Usage:   "Server status commands",
		Subcommands: []*cli.Command{
			{
				Name:   "health",
				Usage:  "Check that the server is up",
				Action: systemHealth,
			},
			{
				Name:   "ready",
				Usage:  "Check that the server can reach its storage",
				Action: systemReady,
			},
		},
	}
}

func systemHealth(c *cli.Context) error {
	return checkStatus(c, "/health")
}

func systemReady(c *cli.Context) error {
	return checkStatus(c, "/ready")
}

// checkStatus prints the status document at path. A failed check still
// prints the document before returning an error.
func checkStatus(c *cli.Context, path string) error {
	client, flags, err := newClient(c)
	if err != nil {
		return err
	}

	resp, err := client.Get(c.Context, path)
	if err != nil {
		return fmt.Errorf("server unreachable: %w", err)
	}

	var result healthView
	parseErr := connection.ParseResponse(resp, &result)

	var apiErr *connection.APIError
	if parseErr != nil && !(errors.As(parseErr, &apiErr) && result.Status != "") {
		return parseErr
	}
	if err := printResult(c, flags, &result); err != nil {
		return err
	}
	if parseErr != nil {
		return fmt.Errorf("server %s: %s", result.Status, result.Error)
	}
	return nil
}
