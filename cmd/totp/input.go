package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeremyhahn/go-totp/pkg/otp"
	"github.com/jeremyhahn/go-totp/pkg/totp"
)

var (
	errNoSecrets    = errors.New("no secrets given")
	errInvalidLines = errors.New("one or more secrets are invalid")
)

// unusable replaces a line that must report as invalid. It decodes to
// zero bytes.
const unusable = "="

// inputFlags are the secret source flags shared by code and watch.
type inputFlags struct {
	file string
	step int64
}

func (f *inputFlags) bind(cmd *cobra.Command, defaultStep int64) {
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "read secrets from a file, one per line (- for stdin)")
	cmd.Flags().Int64Var(&f.step, "step", defaultStep, "time step in seconds (env TOTP_TIME_STEP)")
}

// read returns the secret lines and the time step to use. Arguments win
// over --file, which wins over stdin. An explicit --step wins over the
// period of an otpauth URI.
func (f *inputFlags) read(cmd *cobra.Command, args []string, log *zap.Logger) (string, int64, error) {
	input, err := readSecrets(args, f.file, cmd.InOrStdin())
	if err != nil {
		return "", 0, err
	}
	if strings.TrimSpace(input) == "" {
		return "", 0, errNoSecrets
	}

	input, period := expandURIs(input, log)
	step := f.step
	if !cmd.Flags().Changed("step") && period > 0 {
		step = period
	}
	if step <= 0 {
		return "", 0, fmt.Errorf("--step %d: %w", step, totp.ErrInvalidTimeStep)
	}
	return input, step, nil
}

func readSecrets(args []string, file string, stdin io.Reader) (string, error) {
	switch {
	case len(args) > 0:
		return strings.Join(args, "\n"), nil
	case file != "" && file != "-":
		b, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read secrets: %w", err)
		}
		return string(b), nil
	default:
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read secrets: %w", err)
		}
		return string(b), nil
	}
}

// expandURIs replaces otpauth:// lines with their secret and returns the
// period of the first TOTP URI. Line positions are preserved. A URI that
// does not parse, or describes an HOTP key, becomes an invalid line.
func expandURIs(input string, log *zap.Logger) (string, int64) {
	lines := strings.Split(input, "\n")
	var period int64

	for i, line := range lines {
		s := strings.TrimSpace(line)
		if !strings.HasPrefix(strings.ToLower(s), "otpauth://") {
			continue
		}

		cfg, err := otp.ParseURI(s)
		if err != nil {
			log.Debug("unusable otpauth uri", zap.Int("line", i+1), zap.Error(err))
			lines[i] = unusable
			continue
		}
		if cfg.Type != otp.TypeTOTP {
			log.Debug("otpauth uri is not totp", zap.Int("line", i+1), zap.String("type", string(cfg.Type)))
			lines[i] = unusable
			continue
		}

		lines[i] = cfg.Secret
		if period == 0 {
			period = cfg.Period
		}
	}

	return strings.Join(lines, "\n"), period
}
