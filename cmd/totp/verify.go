package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-totp/pkg/api"
	"github.com/jeremyhahn/go-totp/pkg/totp"
)

var errCodeRejected = errors.New("code rejected")

func newVerifyCmd(a *app) *cobra.Command {
	var (
		step int64
		skew uint
	)

	cmd := &cobra.Command{
		Use:   "verify <secret|otpauth-uri> <code>",
		Short: "Check a code against a secret",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, period := expandURIs(args[0], a.log)
			if cmd.Flags().Changed("step") {
				if step <= 0 {
					return fmt.Errorf("--step %d: %w", step, totp.ErrInvalidTimeStep)
				}
			} else if period > 0 {
				step = period
			}

			svc, err := a.service()
			if err != nil {
				return err
			}
			resp, err := svc.Verify(cmd.Context(), api.VerifyRequest{
				Secret:   secret,
				Code:     args[1],
				TimeStep: step,
				Skew:     skew,
			})
			if err != nil {
				return err
			}

			if !resp.Valid {
				fmt.Fprintln(cmd.OutOrStdout(), "invalid")
				return errCodeRejected
			}
			fmt.Fprintln(cmd.OutOrStdout(), "valid")
			return nil
		},
	}

	cmd.Flags().Int64Var(&step, "step", a.cfg.TimeStep, "time step in seconds (env TOTP_TIME_STEP)")
	cmd.Flags().UintVar(&skew, "skew", a.cfg.VerifySkew, "steps accepted on either side (env TOTP_VERIFY_SKEW)")

	return cmd
}
