package command

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/postvote-go/internal/cli/config"
	"github.com/yndnr/postvote-go/internal/cli/connection"
)

// SessionCommand returns the session subcommand group.
func SessionCommand() *cli.Command {
	return &cli.Command{
		Name:    "session",
		Aliases: []string{"sess"},
		Usage:   "Manage sessions",
		Subcommands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Log in and open a new session",
				Flags:  credentialFlags(),
				Action: sessionLogin,
			},
			{
				Name:   "verify",
				Usage:  "Check whether --user-id and --token form a live session",
				Action: sessionVerify,
			},
			{
				Name:   "forget",
				Usage:  "Remove the saved session from the settings file",
				Action: sessionForget,
			},
		},
	}
}

func sessionLogin(c *cli.Context) error {
	return openSession(c, "/sessions")
}

func sessionVerify(c *cli.Context) error {
	client, flags, err := newClient(c)
	if err != nil {
		return err
	}
	if flags.UserID == "" && flags.Token == "" {
		return errNoSession
	}

	resp, err := client.Post(c.Context, "/sessions/verify", map[string]string{
		"user_id": flags.UserID,
		"token":   flags.Token,
	})
	if err != nil {
		return err
	}

	var result verifyView
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}
	if err := printResult(c, flags, &result); err != nil {
		return err
	}
	if !result.Valid {
		return errors.New("session is not valid")
	}
	return nil
}

func sessionForget(c *cli.Context) error {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}

	cfg := loadedConfig(c)
	if !cfg.HasSession() {
		fmt.Fprintln(c.App.Writer, "no saved session")
		return nil
	}
	cfg.ClearSession()

	path := flags.ConfigPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	if err := config.Save(cfg, path); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "saved session removed")
	return nil
}
