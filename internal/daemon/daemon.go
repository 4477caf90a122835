// Package daemon configures and starts the stitchd daemon and its subsystems.
package daemon

import (
	"context"
	"fmt"
	"net"

	"github.com/gorilla/mux"
	"github.com/stitchkit/stitch/internal"
	"github.com/stitchkit/stitch/internal/api"
	"github.com/stitchkit/stitch/internal/authz"
	"github.com/stitchkit/stitch/internal/event"
	"github.com/stitchkit/stitch/internal/http"
	"github.com/stitchkit/stitch/internal/identity"
	"github.com/stitchkit/stitch/internal/logr"
	"github.com/stitchkit/stitch/internal/profile"
	"github.com/stitchkit/stitch/internal/sql"
	"github.com/stitchkit/stitch/internal/tenant"
	"github.com/stitchkit/stitch/internal/tokens"
	"golang.org/x/sync/errgroup"
)

type Daemon struct {
	Config
	logr.Logger

	*sql.DB

	Tenants  *tenant.Service
	Profiles *profile.Service
	Identity *identity.Service
	Events   *event.Service
	Tokens   *tokens.Service

	// ListenAddress is the listening address of the daemon's http server,
	// e.g. localhost:8080
	ListenAddress *net.TCPAddr

	handlers []http.Handlers
}

// New builds a new daemon and establishes a connection to the database and
// migrates it to the latest schema. Close() should be called to close this
// connection.
func New(ctx context.Context, logger logr.Logger, cfg Config) (*Daemon, error) {
	db, err := sql.New(ctx, logger, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("creating database pool: %w", err)
	}

	responder := api.NewResponder(logger)
	authorizer := authz.NewAuthorizer(logger)

	tokensService := tokens.NewService(tokens.Options{
		Logger:    logger,
		SiteToken: cfg.SiteToken,
	})

	tenantService := tenant.NewService(tenant.Options{
		Logger:     logger,
		Authorizer: authorizer,
		DB:         db,
		Responder:  responder,
	})
	profileService := profile.NewService(profile.Options{
		Logger:     logger,
		Authorizer: authorizer,
		DB:         db,
		Responder:  responder,
	})
	identityService := identity.NewService(identity.Options{
		Logger:     logger,
		Authorizer: authorizer,
		DB:         db,
		Responder:  responder,
	})
	eventService := event.NewService(event.Options{
		Logger:          logger,
		Authorizer:      authorizer,
		DB:              db,
		Responder:       responder,
		IdentityService: identityService,
	})

	handlers := []http.Handlers{
		tenantService,
		profileService,
		identityService,
		eventService,
	}

	return &Daemon{
		Config:   cfg,
		Logger:   logger,
		DB:       db,
		Tenants:  tenantService,
		Profiles: profileService,
		Identity: identityService,
		Events:   eventService,
		Tokens:   tokensService,
		handlers: handlers,
	}, nil
}

// Start the stitchd daemon and block until ctx is cancelled or an error is
// returned. The started channel is closed once the daemon has started.
func (d *Daemon) Start(ctx context.Context, started chan struct{}) error {
	// Cancel context the first time a func started with g.Go() fails
	g, ctx := errgroup.WithContext(ctx)

	// close all db connections upon exit
	defer d.DB.Close()

	server, err := http.NewServer(d.Logger, http.ServerConfig{
		SSL:                  d.SSL,
		CertFile:             d.CertFile,
		KeyFile:              d.KeyFile,
		EnableRequestLogging: d.EnableRequestLogging,
		Middleware:           []mux.MiddlewareFunc{d.Tokens.Middleware()},
		Handlers:             d.handlers,
	})
	if err != nil {
		return fmt.Errorf("setting up http server: %w", err)
	}
	ln, err := net.Listen("tcp", d.Address)
	if err != nil {
		return err
	}
	d.ListenAddress = ln.Addr().(*net.TCPAddr)

	defer ln.Close()

	// Start subsystems. The sweeper takes a cluster-wide lock so that only one
	// stitchd instance sweeps at a time.
	if !d.DisableSweeper {
		sweeper := &Subsystem{
			Name:   "sweeper",
			Logger: d.Logger,
			DB:     d.DB,
			LockID: internal.Ptr(sql.SweeperLockID),
			System: &identity.Sweeper{
				Logger:           d.Logger.WithValues("component", "sweeper"),
				OverrideInterval: d.SweepInterval,
				Service:          d.Identity,
			},
		}
		if err := sweeper.Start(ctx, g); err != nil {
			return err
		}
	}

	// Run HTTP/JSON-API server
	g.Go(func() error {
		if err := server.Start(ctx, ln); err != nil {
			return fmt.Errorf("http server terminated: %w", err)
		}
		return nil
	})

	// Inform the caller the daemon has started
	close(started)

	// Block until error or Ctrl-C received.
	return g.Wait()
}
