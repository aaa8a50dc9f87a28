package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"headless-storefront/internal/auth"
)

func authCommand(withApp actionWrapper) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "customer account sign in",
		Subcommands: []*cli.Command{
			{
				Name:  "login",
				Usage: "sign in through the browser",
				Action: withApp(func(c *cli.Context, a *app) error {
					if err := a.auth.Login(c.Context); err != nil {
						return err
					}
					customer, err := a.auth.LoadCustomer(c.Context)
					if err != nil {
						a.logger.WithError(err).Warn("signed in, but the profile could not be loaded")
						fmt.Fprintln(c.App.Writer, "signed in")
						return nil
					}
					fmt.Fprintf(c.App.Writer, "signed in as %s\n", customer.DisplayName)
					return nil
				}),
			},
			{
				Name:  "logout",
				Usage: "sign out and forget stored tokens",
				Action: withApp(func(c *cli.Context, a *app) error {
					if err := a.auth.Logout(c.Context); err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, "signed out")
					return nil
				}),
			},
			{
				Name:  "status",
				Usage: "show the stored session, refreshing it when due",
				Action: withApp(func(c *cli.Context, a *app) error {
					if err := a.auth.CheckStatus(c.Context); err != nil {
						return err
					}
					st := a.auth.State()
					if !st.IsAuthenticated() {
						fmt.Fprintln(c.App.Writer, "not signed in")
						return nil
					}
					fmt.Fprintf(c.App.Writer, "status: %s\n", st.Status)
					if st.Tokens != nil {
						expires := time.UnixMilli(st.Tokens.ExpiresAt)
						fmt.Fprintf(c.App.Writer, "token expires: %s\n", expires.Format(time.RFC3339))
					}
					return nil
				}),
			},
			{
				Name:  "biometric-login",
				Usage: "confirm on the device, then sign in through the browser",
				Action: withApp(func(c *cli.Context, a *app) error {
					if !a.auth.EnableBiometrics(c.Context) {
						return errors.New("biometric unlock is not available")
					}
					ok, err := a.auth.LoginWithBiometrics(c.Context)
					if err != nil {
						return err
					}
					if !ok {
						fmt.Fprintln(c.App.Writer, "sign in cancelled")
						return nil
					}
					fmt.Fprintln(c.App.Writer, "signed in")
					return nil
				}),
			},
			{
				Name:  "watch",
				Usage: "keep the session fresh until interrupted",
				Action: withApp(func(c *cli.Context, a *app) error {
					if err := a.auth.CheckStatus(c.Context); err != nil {
						return err
					}
					if !a.auth.State().IsAuthenticated() {
						return auth.ErrAuthRequired
					}

					ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
					defer stop()

					last := a.auth.State().Status
					unsubscribe := a.auth.Subscribe(func(st auth.State) {
						if st.Status == last {
							return
						}
						last = st.Status
						fmt.Fprintf(c.App.Writer, "%s status: %s\n", time.Now().Format(time.RFC3339), st.Status)
						if st.Status == auth.StatusUnauthenticated {
							stop()
						}
					})
					defer unsubscribe()

					fmt.Fprintln(c.App.Writer, "watching session, interrupt to stop")
					<-a.auth.StartBackgroundRefresh(ctx)
					if !a.auth.State().IsAuthenticated() {
						return auth.ErrAuthRequired
					}
					return nil
				}),
			},
			{
				Name:  "refresh",
				Usage: "refresh the access token now",
				Action: withApp(func(c *cli.Context, a *app) error {
					if err := a.auth.CheckStatus(c.Context); err != nil {
						return err
					}
					if err := a.auth.Refresh(c.Context); err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, "token refreshed")
					return nil
				}),
			},
		},
	}
}
