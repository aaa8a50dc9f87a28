package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"headless-storefront/internal/cart"
	"headless-storefront/internal/domain"
	"headless-storefront/internal/shopify"
)

func cartCommand(withApp actionWrapper) *cli.Command {
	// cartAction initializes the cart, runs fn and prints the resulting cart.
	cartAction := func(fn func(c *cli.Context, cc *cart.Coordinator) error) cli.ActionFunc {
		return withApp(func(c *cli.Context, a *app) error {
			if err := a.cart.Initialize(c.Context); err != nil {
				return err
			}
			if fn != nil {
				if err := fn(c, a.cart); err != nil {
					return err
				}
			}
			printCart(c.App.Writer, a.cart.State())
			return nil
		})
	}

	return &cli.Command{
		Name:  "cart",
		Usage: "inspect and change the device cart",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "print the cart",
				Action: cartAction(nil),
			},
			{
				Name:      "add",
				Usage:     "add a product variant",
				ArgsUsage: "<merchandise-id>",
				Flags:     []cli.Flag{&cli.IntFlag{Name: "quantity", Aliases: []string{"q"}, Value: 1}},
				Action: cartAction(func(c *cli.Context, cc *cart.Coordinator) error {
					id, err := requireArg(c, 0, "merchandise id")
					if err != nil {
						return err
					}
					return cc.AddToCart(c.Context, id, c.Int("quantity"), nil)
				}),
			},
			{
				Name:      "update",
				Usage:     "set a line's quantity (0 removes it)",
				ArgsUsage: "<line-id> <quantity>",
				Action: cartAction(func(c *cli.Context, cc *cart.Coordinator) error {
					lineID, err := requireArg(c, 0, "line id")
					if err != nil {
						return err
					}
					qty, err := intArg(c, 1, "quantity")
					if err != nil {
						return err
					}
					return cc.UpdateCartLine(c.Context, lineID, qty)
				}),
			},
			{
				Name:      "remove",
				Usage:     "remove a line",
				ArgsUsage: "<line-id>",
				Action: cartAction(func(c *cli.Context, cc *cart.Coordinator) error {
					lineID, err := requireArg(c, 0, "line id")
					if err != nil {
						return err
					}
					return cc.RemoveFromCart(c.Context, lineID)
				}),
			},
			{
				Name:      "inc",
				Usage:     "add one of a product variant",
				ArgsUsage: "<merchandise-id>",
				Action: cartAction(func(c *cli.Context, cc *cart.Coordinator) error {
					id, err := requireArg(c, 0, "merchandise id")
					if err != nil {
						return err
					}
					return cc.IncrementItem(c.Context, id, nil)
				}),
			},
			{
				Name:      "dec",
				Usage:     "remove one of a product variant",
				ArgsUsage: "<merchandise-id>",
				Action: cartAction(func(c *cli.Context, cc *cart.Coordinator) error {
					id, err := requireArg(c, 0, "merchandise id")
					if err != nil {
						return err
					}
					return cc.DecrementItem(c.Context, id)
				}),
			},
			{
				Name:      "set",
				Usage:     "set the quantity of a product variant",
				ArgsUsage: "<merchandise-id> <quantity>",
				Action: cartAction(func(c *cli.Context, cc *cart.Coordinator) error {
					id, err := requireArg(c, 0, "merchandise id")
					if err != nil {
						return err
					}
					qty, err := intArg(c, 1, "quantity")
					if err != nil {
						return err
					}
					return cc.SetItemQuantity(c.Context, id, qty, nil)
				}),
			},
			{
				Name:      "note",
				Usage:     "set the order note",
				ArgsUsage: "<note>",
				Action: cartAction(func(c *cli.Context, cc *cart.Coordinator) error {
					return cc.UpdateNote(c.Context, strings.Join(c.Args().Slice(), " "))
				}),
			},
			{
				Name:  "buyer",
				Usage: "attach buyer details to the cart",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email"},
					&cli.StringFlag{Name: "phone"},
					&cli.StringFlag{Name: "country"},
				},
				Action: withApp(func(c *cli.Context, a *app) error {
					if err := a.cart.Initialize(c.Context); err != nil {
						return err
					}
					identity := shopify.BuyerIdentityInput{
						Email:       c.String("email"),
						Phone:       c.String("phone"),
						CountryCode: c.String("country"),
					}
					// Signed-in customers get their checkout prefilled.
					if token, err := a.auth.AccessToken(c.Context); err == nil {
						identity.CustomerAccessToken = token
					}
					if err := a.cart.UpdateBuyerIdentity(c.Context, identity); err != nil {
						return err
					}
					printCart(c.App.Writer, a.cart.State())
					return nil
				}),
			},
			{
				Name:  "discount",
				Usage: "manage discount codes",
				Subcommands: []*cli.Command{
					{
						Name:      "apply",
						ArgsUsage: "<code>",
						Action: cartAction(func(c *cli.Context, cc *cart.Coordinator) error {
							return cc.ApplyDiscountCode(c.Context, c.Args().First())
						}),
					},
					{
						Name:      "remove",
						ArgsUsage: "<code>",
						Action: cartAction(func(c *cli.Context, cc *cart.Coordinator) error {
							code, err := requireArg(c, 0, "code")
							if err != nil {
								return err
							}
							return cc.RemoveDiscountCode(c.Context, code)
						}),
					},
				},
			},
			{
				Name:  "checkout",
				Usage: "print the checkout URL",
				Action: withApp(func(c *cli.Context, a *app) error {
					if err := a.cart.Initialize(c.Context); err != nil {
						return err
					}
					url := a.cart.State().CheckoutURL()
					if url == "" {
						return cart.ErrNoCart
					}
					fmt.Fprintln(c.App.Writer, url)
					return nil
				}),
			},
			{
				Name:  "clear",
				Usage: "forget the cart and start a new one",
				Action: withApp(func(c *cli.Context, a *app) error {
					if err := a.cart.ClearCart(c.Context); err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, "cart cleared")
					return nil
				}),
			},
		},
	}
}

func printCart(w io.Writer, st cart.State) {
	if st.Cart == nil {
		fmt.Fprintln(w, "no cart")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LINE\tITEM\tQTY\tTOTAL")
	for _, line := range st.Lines() {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", line.ID, lineTitle(line), line.Quantity, line.Cost.TotalAmount.Format())
	}
	_ = tw.Flush()

	sum := st.Summary()
	fmt.Fprintf(w, "items: %d\n", st.TotalQuantity())
	fmt.Fprintf(w, "subtotal: %s\n", sum.Subtotal)
	if codes := st.AppliedDiscountCodes(); len(codes) > 0 {
		fmt.Fprintf(w, "discounts: %s (saving %s %s)\n", strings.Join(codes, ", "), st.CurrencyCode(), st.DiscountSavings())
	}
	if sum.Tax != "" {
		fmt.Fprintf(w, "tax: %s\n", sum.Tax)
	}
	fmt.Fprintf(w, "total: %s\n", sum.Total)
	if st.Error != "" {
		fmt.Fprintf(w, "error: %s\n", st.Error)
	}
}

func lineTitle(line domain.CartLine) string {
	title := line.Merchandise.Product.Title
	if line.Merchandise.Title != "" && line.Merchandise.Title != "Default Title" {
		title += " / " + line.Merchandise.Title
	}
	return title
}

func requireArg(c *cli.Context, i int, name string) (string, error) {
	v := strings.TrimSpace(c.Args().Get(i))
	if v == "" {
		return "", fmt.Errorf("missing %s", name)
	}
	return v, nil
}

func intArg(c *cli.Context, i int, name string) (int, error) {
	raw, err := requireArg(c, i, name)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative number", name)
	}
	return n, nil
}
