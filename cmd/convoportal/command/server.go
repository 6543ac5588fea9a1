package command

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/harrylevesque/convoportal/internal/api"
	"github.com/harrylevesque/convoportal/internal/auth"
	"github.com/harrylevesque/convoportal/internal/backend"
	"github.com/harrylevesque/convoportal/internal/certs"
	"github.com/harrylevesque/convoportal/internal/config"
	"github.com/harrylevesque/convoportal/internal/crypto"
	"github.com/harrylevesque/convoportal/internal/utils"
)

// certWarnWindow is how close to expiry the serving certificate gets logged.
const certWarnWindow = 14 * 24 * time.Hour

type Server struct{}

func (cmd Server) Command(configPath func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "run the portal web server",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath())
			if err != nil {
				return err
			}
			logger, closer, err := utils.NewLogger(cfg.Log)
			if err != nil {
				return err
			}
			defer closer.Close()

			if err := cmd.main(c.Context(), cfg, logger); err != nil {
				logger.WithError(err).Error("server stopped")
				return err
			}
			logger.Info("server stopped")
			return nil
		},
	}
}

func (cmd Server) main(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	start := time.Now()
	tokens, err := crypto.NewDecryptor(cfg.Token.Passphrase, cfg.Token.Salt, cfg.Token.Iterations)
	if err != nil {
		return errors.Wrap(err, "server : failed to derive token key")
	}
	logger.WithField("duration", time.Since(start)).Debug("token key derived")

	states, err := api.NewStateCodec([]byte(cfg.Cookie.Secret), cfg.Cookie.MaxAge)
	if err != nil {
		return errors.Wrap(err, "server : failed to create state codec")
	}

	client := backend.New(backend.Options{
		BaseURL:              cfg.Backend.BaseURL,
		Timeout:              cfg.Backend.Timeout,
		SubscribeTokenSuffix: cfg.Backend.SubscribeTokenSuffix,
		UnsubscribePath:      cfg.Backend.UnsubscribePath,
		Logger:               logger.WithField("component", "backend"),
	})

	router, err := api.NewRouter(api.Deps{
		Config:   cfg,
		Logger:   logger,
		Backend:  client,
		Sessions: auth.NewResolver(tokens),
		States:   states,
	})
	if err != nil {
		return errors.Wrap(err, "server : failed to build routes")
	}

	tlsConfig, err := cmd.tls(cfg.HTTP, logger)
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"env":     cfg.AppEnv,
		"backend": cfg.Backend.BaseURL,
		"plans":   len(cfg.Plans),
	}).Info("portal configured")

	return api.NewServer(cfg.HTTP, router, logger, tlsConfig).Serve(ctx)
}

func (cmd Server) tls(cfg config.HTTP, logger *logrus.Logger) (*tls.Config, error) {
	if cfg.TLSCert == "" {
		return nil, nil
	}
	cm := certs.NewCertManager(cfg.TLSCert, cfg.TLSKey)
	tlsConfig, leaf, err := cm.TLSConfig()
	if err != nil {
		return nil, errors.Wrap(err, "server : failed to load tls certificate")
	}
	if cm.ExpiresWithin(leaf, certWarnWindow) {
		logger.WithField("not_after", leaf.NotAfter).Warn("tls certificate expires soon")
	}
	return tlsConfig, nil
}
