package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/postvote-go/internal/cli/connection"
)

// credentialFlags are the flags of register and login.
func credentialFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "email",
			Aliases:  []string{"e"},
			Usage:    "account email",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "password",
			Aliases:  []string{"p"},
			Usage:    "account password",
			EnvVars:  []string{"POSTVOTE_PASSWORD"},
			Required: true,
		},
		&cli.BoolFlag{
			Name:  "save",
			Usage: "store the new session in the settings file",
		},
	}
}

// UserCommand returns the user subcommand group.
func UserCommand() *cli.Command {
	return &cli.Command{
		Name:  "user",
		Usage: "Manage accounts",
		Subcommands: []*cli.Command{
			{
				Name:   "register",
				Usage:  "Create an account and open a session",
				Flags:  credentialFlags(),
				Action: userRegister,
			},
		},
	}
}

func userRegister(c *cli.Context) error {
	return openSession(c, "/users")
}

// openSession posts the credentials to path and prints the session.
func openSession(c *cli.Context, path string) error {
	client, flags, err := newClient(c)
	if err != nil {
		return err
	}

	resp, err := client.Post(c.Context, path, map[string]string{
		"email":    c.String("email"),
		"password": c.String("password"),
	})
	if err != nil {
		return err
	}

	var session sessionView
	if err := connection.ParseResponse(resp, &session); err != nil {
		return err
	}

	if c.Bool("save") {
		if err := saveSession(c, flags, &session); err != nil {
			return err
		}
	}
	return printResult(c, flags, &session)
}
