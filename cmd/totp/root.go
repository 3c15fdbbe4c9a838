package main

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeremyhahn/go-totp/internal/config"
	"github.com/jeremyhahn/go-totp/pkg/api"
)

// app carries what every command shares.
type app struct {
	cfg config.Config
	log *zap.Logger
	now func() time.Time

	svc *api.Service
}

func newRootCmd(a *app) *cobra.Command {
	if a.log == nil {
		a.log = zap.NewNop()
	}
	if a.now == nil {
		a.now = time.Now
	}

	root := &cobra.Command{
		Use:           "totp",
		Short:         "Google Authenticator compatible one-time codes",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newCodeCmd(a))
	root.AddCommand(newWatchCmd(a))
	root.AddCommand(newVerifyCmd(a))
	root.AddCommand(newSecretCmd(a))
	root.AddCommand(newServeCmd(a))

	return root
}

// service returns the Service used by the local commands, building it on
// first use.
func (a *app) service() (*api.Service, error) {
	if a.svc != nil {
		return a.svc, nil
	}
	svc, err := api.NewService(a.serviceConfig(nil))
	if err != nil {
		return nil, err
	}
	a.svc = svc
	return svc, nil
}

func (a *app) serviceConfig(m *api.Metrics) api.Config {
	return api.Config{
		TimeStep: a.cfg.TimeStep,
		Workers:  a.cfg.BatchWorkers,
		Skew:     a.cfg.VerifySkew,
		Now:      a.now,
		Logger:   a.log,
		Metrics:  m,
	}
}
