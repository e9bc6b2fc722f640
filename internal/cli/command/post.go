package command

import (
	"fmt"
	"net/url"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/postvote-go/internal/cli/connection"
)

// PostCommand returns the post subcommand group.
func PostCommand() *cli.Command {
	return &cli.Command{
		Name:  "post",
		Usage: "Create, read and vote on posts",
		Subcommands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a post",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "title",
						Usage:    "post title",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "body",
						Usage: "post body",
					},
				},
				Action: postCreate,
			},
			{
				Name:      "get",
				Usage:     "Show a post",
				ArgsUsage: "POST_ID",
				Action:    postGet,
			},
			{
				Name:      "vote",
				Usage:     "Vote on a post; repeating a vote retracts it",
				ArgsUsage: "POST_ID up|down",
				Action:    postVote,
			},
		},
	}
}

func postCreate(c *cli.Context) error {
	client, flags, err := newClient(c)
	if err != nil {
		return err
	}
	if !client.HasCredentials() {
		return errNoSession
	}

	resp, err := client.Post(c.Context, "/posts", map[string]string{
		"title": c.String("title"),
		"body":  c.String("body"),
	})
	if err != nil {
		return err
	}

	var post postView
	if err := connection.ParseResponse(resp, &post); err != nil {
		return err
	}
	return printResult(c, flags, &post)
}

func postGet(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: post get POST_ID")
	}

	client, flags, err := newClient(c)
	if err != nil {
		return err
	}

	resp, err := client.Get(c.Context, "/posts/"+url.PathEscape(c.Args().First()))
	if err != nil {
		return err
	}

	var post postView
	if err := connection.ParseResponse(resp, &post); err != nil {
		return err
	}
	return printResult(c, flags, &post)
}

func postVote(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: post vote POST_ID up|down")
	}

	client, flags, err := newClient(c)
	if err != nil {
		return err
	}
	if !client.HasCredentials() {
		return errNoSession
	}

	path := "/posts/" + url.PathEscape(c.Args().Get(0)) + "/votes"
	resp, err := client.Post(c.Context, path, map[string]string{
		"direction": c.Args().Get(1),
	})
	if err != nil {
		return err
	}

	var vote voteView
	if err := connection.ParseResponse(resp, &vote); err != nil {
		return err
	}
	return printResult(c, flags, &vote)
}
