package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-totp/internal/refresh"
	"github.com/jeremyhahn/go-totp/pkg/api"
)

func newCodeCmd(a *app) *cobra.Command {
	var (
		in     inputFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "code [secret...]",
		Short: "Print the current code of each secret",
		Long: `Print the current code of each secret.

Secrets are read from the arguments, --file, or stdin, one per line.
otpauth:// URIs are accepted in place of a bare secret. Lines that do not
decode print "Invalid secret" and make the command exit with status 1.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, step, err := in.read(cmd, args, a.log)
			if err != nil {
				return err
			}

			resp, err := a.codes(cmd.Context(), input, step, a.now())
			if err != nil {
				return err
			}

			if asJSON {
				err = renderJSON(cmd.OutOrStdout(), resp)
			} else {
				err = renderText(cmd.OutOrStdout(), resp)
			}
			if err != nil {
				return err
			}

			for _, r := range resp.Results {
				if r.Error != "" {
					return errInvalidLines
				}
			}
			return nil
		},
	}

	in.bind(cmd, a.cfg.TimeStep)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of text")

	return cmd
}

func newWatchCmd(a *app) *cobra.Command {
	var (
		in          inputFlags
		interval    time.Duration
		clearScreen bool
	)

	cmd := &cobra.Command{
		Use:   "watch [secret...]",
		Short: "Redraw the codes of each secret until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, step, err := in.read(cmd, args, a.log)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			loop := refresh.Loop{Interval: interval, Now: a.now, Log: a.log}
			return loop.Run(cmd.Context(), func(ctx context.Context, now time.Time) error {
				resp, err := a.codes(ctx, input, step, now)
				if err != nil {
					return err
				}
				if clearScreen {
					fmt.Fprint(out, "\033[H\033[2J")
				}
				return renderText(out, resp)
			})
		},
	}

	in.bind(cmd, a.cfg.TimeStep)
	cmd.Flags().DurationVar(&interval, "interval", a.cfg.RefreshInterval, "redraw interval (env TOTP_REFRESH_INTERVAL)")
	cmd.Flags().BoolVar(&clearScreen, "clear", true, "clear the terminal before each redraw")

	return cmd
}

// codes evaluates every line at the given instant.
func (a *app) codes(ctx context.Context, input string, step int64, at time.Time) (api.CodesResponse, error) {
	svc, err := a.service()
	if err != nil {
		return api.CodesResponse{}, err
	}
	return svc.CodesAt(ctx, api.CodesRequest{Secrets: api.Secrets(input), TimeStep: step}, at)
}

func renderText(w io.Writer, resp api.CodesResponse) error {
	for _, r := range resp.Results {
		var err error
		if r.Error != "" {
			_, err = fmt.Fprintln(w, r.Error)
		} else {
			_, err = fmt.Fprintf(w, "%s %3ds\n", r.Code, r.RemainingSeconds)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func renderJSON(w io.Writer, resp api.CodesResponse) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
