package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"headless-storefront/internal/auth"
	"headless-storefront/internal/customeraccount"
)

func accountCommand(withApp actionWrapper) *cli.Command {
	pageFlags := []cli.Flag{
		&cli.IntFlag{Name: "first", Value: customeraccount.DefaultPageSize},
		&cli.StringFlag{Name: "after", Usage: "cursor from a previous page"},
	}
	// signedIn restores the stored session before fn runs.
	signedIn := func(fn func(c *cli.Context, a *app) error) cli.ActionFunc {
		return withApp(func(c *cli.Context, a *app) error {
			if err := a.auth.CheckStatus(c.Context); err != nil {
				return err
			}
			if !a.auth.State().IsAuthenticated() {
				return auth.ErrAuthRequired
			}
			return fn(c, a)
		})
	}
	return &cli.Command{
		Name:  "account",
		Usage: "signed-in customer data",
		Subcommands: []*cli.Command{
			{
				Name: "profile",
				Action: signedIn(func(c *cli.Context, a *app) error {
					customer, err := a.auth.LoadCustomer(c.Context)
					if err != nil {
						return err
					}
					return printJSON(c.App.Writer, customer)
				}),
			},
			{
				Name: "update",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "first-name"},
					&cli.StringFlag{Name: "last-name"},
				},
				Action: signedIn(func(c *cli.Context, a *app) error {
					in := customeraccount.CustomerUpdate{
						FirstName: c.String("first-name"),
						LastName:  c.String("last-name"),
					}
					customer, err := a.account.UpdateCustomer(c.Context, in)
					if err != nil {
						return err
					}
					a.auth.SetCustomer(customer)
					return printJSON(c.App.Writer, customer)
				}),
			},
			{
				Name:  "orders",
				Flags: pageFlags,
				Action: signedIn(func(c *cli.Context, a *app) error {
					page, err := a.account.Orders(c.Context, c.Int("first"), c.String("after"))
					if err != nil {
						return err
					}
					tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "ORDER\tDATE\tSTATUS\tTOTAL")
					for _, o := range page.Nodes {
						fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", o.Name, o.ProcessedAt.Format("2006-01-02"), o.FulfillmentStatus, o.TotalPrice.Format())
					}
					_ = tw.Flush()
					if page.PageInfo.HasNextPage {
						fmt.Fprintf(c.App.Writer, "next: --after %s\n", page.PageInfo.EndCursor)
					}
					return nil
				}),
			},
			{
				Name:  "addresses",
				Flags: pageFlags,
				Action: signedIn(func(c *cli.Context, a *app) error {
					page, err := a.account.Addresses(c.Context, c.Int("first"), c.String("after"))
					if err != nil {
						return err
					}
					return printJSON(c.App.Writer, page)
				}),
			},
			{
				Name:      "delete-address",
				ArgsUsage: "<address-id>",
				Action: signedIn(func(c *cli.Context, a *app) error {
					id, err := requireArg(c, 0, "address id")
					if err != nil {
						return err
					}
					deleted, err := a.account.DeleteAddress(c.Context, id)
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "deleted %s\n", deleted)
					return nil
				}),
			},
			{
				Name:  "payment-methods",
				Flags: pageFlags,
				Action: signedIn(func(c *cli.Context, a *app) error {
					page, err := a.account.PaymentMethods(c.Context, c.Int("first"), c.String("after"))
					if err != nil {
						return err
					}
					return printJSON(c.App.Writer, page)
				}),
			},
			{
				Name:  "subscriptions",
				Flags: pageFlags,
				Action: signedIn(func(c *cli.Context, a *app) error {
					page, err := a.account.SubscriptionContracts(c.Context, c.Int("first"), c.String("after"))
					if err != nil {
						return err
					}
					return printJSON(c.App.Writer, page)
				}),
			},
		},
	}
}
