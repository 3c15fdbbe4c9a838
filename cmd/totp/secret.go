package main

import (
	"encoding/json"
	"fmt"

	"github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeremyhahn/go-totp/pkg/otp"
)

// qrSize is the edge length of the PNG in pixels.
const qrSize = 256

type secretOutput struct {
	Secret string `json:"secret"`
	URI    string `json:"uri"`
}

func newSecretCmd(a *app) *cobra.Command {
	var (
		issuer  string
		account string
		qrPath  string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Generate a random secret and its otpauth:// URI",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, uri, err := otp.GenerateSecret(issuer, account)
			if err != nil {
				return err
			}

			if qrPath != "" {
				if err := qrcode.WriteFile(uri, qrcode.Medium, qrSize, qrPath); err != nil {
					return fmt.Errorf("write qr code: %w", err)
				}
				a.log.Info("qr code written", zap.String("path", qrPath))
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return json.NewEncoder(out).Encode(secretOutput{Secret: secret, URI: uri})
			}
			fmt.Fprintln(out, secret)
			fmt.Fprintln(out, uri)
			return nil
		},
	}

	cmd.Flags().StringVar(&issuer, "issuer", "go-totp", "issuer shown by authenticator apps")
	cmd.Flags().StringVar(&account, "account", "", "account name shown by authenticator apps")
	cmd.Flags().StringVar(&qrPath, "qr", "", "also write the URI as a PNG QR code to this path")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of text")
	_ = cmd.MarkFlagRequired("account")

	return cmd
}
