/*
   Copyright 2026 The Tapp Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tapp.so/tapp/apis"
	"tapp.so/tapp/config"
	"tapp.so/tapp/mockserver"
)

func newStartCmd(a *app) *cobra.Command {
	var (
		authToken    string
		projectToken string
		env          string
		affiliate    string
	)
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Store the SDK configuration and bootstrap the secret",
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			s := &a.file.Start
			if authToken != "" {
				s.AuthToken = authToken
			}
			if projectToken != "" {
				s.ProjectToken = projectToken
			}
			if env != "" {
				e, err := apis.ParseEnvironment(env)
				if err != nil {
					return err
				}
				s.Environment = e
			}
			if affiliate != "" {
				af, err := apis.ParseAffiliate(affiliate)
				if err != nil {
					return err
				}
				s.Affiliate = af
			}

			// engine starts on its own once the options validate.
			if err := config.Validate(*s); err != nil {
				return err
			}
			ctx := cmd.Context()
			eng, err := a.engine(ctx)
			if err != nil {
				return err
			}
			cfg, err := eng.Config(ctx)
			if err != nil {
				return err
			}
			return a.out.print("config", cfg)
		}),
	}
	f := cmd.Flags()
	f.StringVar(&authToken, "auth-token", "", "backend auth token")
	f.StringVar(&projectToken, "project-token", "", "tapp project token")
	f.StringVar(&env, "env", "", "environment: production or sandbox")
	f.StringVar(&affiliate, "affiliate", "", "affiliate: tapp, tapp_native, adjust or appsflyer")
	return cmd
}

func newOpenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "open <url>",
		Short: "Resolve an app-open URL",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eng, err := a.engine(ctx)
			if err != nil {
				return err
			}
			if err := eng.OnAppOpen(ctx, args[0]); err != nil {
				return err
			}
			eng.Wait()
			cfg, err := eng.Config(ctx)
			if err != nil {
				return err
			}
			return a.out.print("config", cfg)
		}),
	}
}

func newLinkDataCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "link-data [url]",
		Short: "Fetch link data for a URL, or for the stored deep link",
		Args:  cobra.MaximumNArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eng, err := a.engine(ctx)
			if err != nil {
				return err
			}
			var resp apis.LinkDataResponse
			if len(args) == 1 {
				resp, err = eng.FetchLinkData(ctx, args[0])
			} else {
				resp, err = eng.FetchOriginalLinkData(ctx)
			}
			if err != nil {
				return err
			}
			return a.out.print("link_data", resp)
		}),
	}
}

func newURLCmd(a *app) *cobra.Command {
	var req apis.AffiliateURLRequest
	cmd := &cobra.Command{
		Use:   "url",
		Short: "Generate an influencer URL",
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			eng, err := a.engine(ctx)
			if err != nil {
				return err
			}
			resp, err := eng.GenerateURL(ctx, req)
			if err != nil {
				return err
			}
			return a.out.print("influencer_url", resp)
		}),
	}
	f := cmd.Flags()
	f.StringVar(&req.Influencer, "influencer", "", "influencer name")
	f.StringVar(&req.AdGroup, "adgroup", "", "ad group")
	f.StringVar(&req.Creative, "creative", "", "creative")
	f.StringToStringVar(&req.Data, "data", nil, "extra key=value data")
	return cmd
}

func newEventCmd(a *app) *cobra.Command {
	var meta map[string]string
	cmd := &cobra.Command{
		Use:   "event <name>",
		Short: "Track a Tapp event",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eng, err := a.engine(ctx)
			if err != nil {
				return err
			}
			ev := apis.Event{Action: apis.Custom(args[0])}
			if len(meta) > 0 {
				ev.Metadata = make(map[string]any, len(meta))
				for k, v := range meta {
					ev.Metadata[k] = v
				}
			}
			if err := eng.TrackEvent(ctx, ev); err != nil {
				return err
			}
			return a.out.print("event", ev.Action)
		}),
	}
	cmd.Flags().StringToStringVar(&meta, "meta", nil, "event metadata key=value")
	return cmd
}

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the stored configuration",
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			eng, err := a.engine(ctx)
			if err != nil {
				return err
			}
			cfg, err := eng.Config(ctx)
			if err != nil {
				return err
			}
			eng.LogConfig(ctx)
			return a.out.print("config", cfg)
		}),
	}
}

func newMockServerCmd(a *app) *cobra.Command {
	var (
		addr   string
		secret string
	)
	cmd := &cobra.Command{
		Use:   "mock-server",
		Short: "Serve an in-process stand-in for the resolution backend",
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			opts := []mockserver.Option{mockserver.WithLogger(a.logger)}
			if secret != "" {
				opts = append(opts, mockserver.WithSecret(secret))
			}
			srv := &http.Server{
				Addr:              addr,
				Handler:           mockserver.New(opts...).Handler(),
				ReadHeaderTimeout: 5 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()
			a.logger.Info("mock backend listening", slog.String("addr", addr), slog.String("base_url", "http://"+addr+mockserver.Prefix))

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}),
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&secret, "secret", "", "secret returned by /secrets (random when empty)")
	return cmd
}
