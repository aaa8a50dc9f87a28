package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"headless-storefront/internal/content"
	"headless-storefront/internal/domain"
)

func catalogCommand(withApp actionWrapper) *cli.Command {
	pageFlags := []cli.Flag{
		&cli.IntFlag{Name: "first", Value: 20, Usage: "page size"},
		&cli.IntFlag{Name: "pages", Value: 1, Usage: "pages to load"},
	}
	return &cli.Command{
		Name:  "catalog",
		Usage: "browse products and collections",
		Subcommands: []*cli.Command{
			{
				Name:  "shop",
				Usage: "print shop details",
				Action: withApp(func(c *cli.Context, a *app) error {
					shop, err := a.shop.Shop(c.Context)
					if err != nil {
						return err
					}
					return printJSON(c.App.Writer, shop)
				}),
			},
			{
				Name:  "status",
				Usage: "check that the storefront token can read the catalog",
				Action: withApp(func(c *cli.Context, a *app) error {
					return printJSON(c.App.Writer, a.shop.StoreStatus(c.Context))
				}),
			},
			{
				Name:  "products",
				Usage: "list products",
				Flags: pageFlags,
				Action: withApp(func(c *cli.Context, a *app) error {
					pager := content.ProductPager(a.shop, c.Int("first"))
					if err := loadPages(c, pager); err != nil {
						return err
					}
					tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "HANDLE\tTITLE\tAVAILABLE")
					for _, p := range pager.Items() {
						fmt.Fprintf(tw, "%s\t%s\t%t\n", p.Handle, p.Title, p.AvailableForSale)
					}
					_ = tw.Flush()
					printMore(c.App.Writer, pager.HasMore())
					return nil
				}),
			},
			{
				Name:      "product",
				Usage:     "show one product",
				ArgsUsage: "<handle>",
				Action: withApp(func(c *cli.Context, a *app) error {
					handle, err := requireArg(c, 0, "handle")
					if err != nil {
						return err
					}
					product, err := a.shop.ProductByHandle(c.Context, handle)
					if err != nil {
						return err
					}
					if product == nil {
						return fmt.Errorf("product %s: %w", handle, domain.ErrNotFound)
					}
					return printJSON(c.App.Writer, product)
				}),
			},
			{
				Name:  "collections",
				Usage: "list collections",
				Flags: pageFlags,
				Action: withApp(func(c *cli.Context, a *app) error {
					pager := content.CollectionPager(a.shop, c.Int("first"))
					if err := loadPages(c, pager); err != nil {
						return err
					}
					tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "HANDLE\tTITLE")
					for _, col := range pager.Items() {
						fmt.Fprintf(tw, "%s\t%s\n", col.Handle, col.Title)
					}
					_ = tw.Flush()
					printMore(c.App.Writer, pager.HasMore())
					return nil
				}),
			},
			{
				Name:      "collection",
				Usage:     "show one collection",
				ArgsUsage: "<handle>",
				Action: withApp(func(c *cli.Context, a *app) error {
					handle, err := requireArg(c, 0, "handle")
					if err != nil {
						return err
					}
					col, err := a.shop.CollectionByHandle(c.Context, handle)
					if err != nil {
						return err
					}
					if col == nil {
						return fmt.Errorf("collection %s: %w", handle, domain.ErrNotFound)
					}
					return printJSON(c.App.Writer, col)
				}),
			},
		},
	}
}

func loadPages[T any](c *cli.Context, pager *content.Pager[T]) error {
	for i := 0; i < c.Int("pages") && pager.HasMore(); i++ {
		if _, err := pager.Next(c.Context); err != nil {
			return err
		}
	}
	return nil
}

func printMore(w io.Writer, more bool) {
	if more {
		fmt.Fprintln(w, "(more available, raise --pages)")
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
