package main

import (
	"github.com/urfave/cli/v2"
)

func contentCommand(withApp actionWrapper) *cli.Command {
	limitFlag := &cli.IntFlag{Name: "limit", Value: 20}
	return &cli.Command{
		Name:  "content",
		Usage: "read CMS content through the internal API",
		Subcommands: []*cli.Command{
			{
				Name: "home",
				Action: withApp(func(c *cli.Context, a *app) error {
					home, err := a.content.Home(c.Context)
					if err != nil {
						return err
					}
					return printJSON(c.App.Writer, home)
				}),
			},
			{
				Name: "settings",
				Action: withApp(func(c *cli.Context, a *app) error {
					settings, err := a.content.Settings(c.Context)
					if err != nil {
						return err
					}
					return printJSON(c.App.Writer, settings)
				}),
			},
			{
				Name:      "page",
				ArgsUsage: "<slug>",
				Action: withApp(func(c *cli.Context, a *app) error {
					slug, err := requireArg(c, 0, "slug")
					if err != nil {
						return err
					}
					page, err := a.content.Page(c.Context, slug)
					if err != nil {
						return err
					}
					return printJSON(c.App.Writer, page)
				}),
			},
			{
				Name:  "products",
				Flags: []cli.Flag{limitFlag},
				Action: withApp(func(c *cli.Context, a *app) error {
					docs, err := a.content.Products(c.Context, c.Int("limit"))
					if err != nil {
						return err
					}
					return printJSON(c.App.Writer, docs)
				}),
			},
			{
				Name:  "collections",
				Flags: []cli.Flag{limitFlag},
				Action: withApp(func(c *cli.Context, a *app) error {
					docs, err := a.content.Collections(c.Context, c.Int("limit"))
					if err != nil {
						return err
					}
					return printJSON(c.App.Writer, docs)
				}),
			},
		},
	}
}
