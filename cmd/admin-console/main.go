package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/diwise/service-chassis/pkg/infrastructure/buildinfo"
	"github.com/diwise/service-chassis/pkg/infrastructure/env"
	"github.com/diwise/service-chassis/pkg/infrastructure/net/http/handlers"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"
	"github.com/diwise/service-chassis/pkg/infrastructure/servicerunner"
	"github.com/railstats/admin-console/internal/pkg/application/admin"
	"github.com/railstats/admin-console/internal/pkg/application/events"
	"github.com/railstats/admin-console/internal/pkg/infrastructure/router"
	"github.com/railstats/admin-console/internal/pkg/infrastructure/storage/blobs"
	"github.com/railstats/admin-console/internal/pkg/infrastructure/storage/database"
	"github.com/railstats/admin-console/internal/pkg/infrastructure/storage/documents"
	"github.com/railstats/admin-console/internal/pkg/presentation/api"
	"github.com/railstats/admin-console/internal/pkg/presentation/api/auth"
)

const serviceName string = "admin-console"

func DefaultFlags() FlagMap {
	return FlagMap{
		listenAddress: "",     // listen on all ipv4 and ipv6 interfaces
		servicePort:   "8080", //
		controlPort:   "",     // control port disabled by default

		configPath: "",
		opaPath:    "/opt/railstats/config/authz.rego",

		logFormat: "json",
	}
}

func main() {
	ctx, flags := parseExternalConfig(context.Background(), DefaultFlags())

	serviceVersion := buildinfo.SourceVersion()
	ctx, logger, cleanup := o11y.Init(ctx, serviceName, serviceVersion, flags[logFormat])
	defer cleanup()

	cfg := &AppConfig{}

	runner, err := initialize(ctx, flags, cfg)
	exitIf(err, logger, "failed to initialize service runner")

	err = runner.Run(ctx)
	exitIf(err, logger, "service runner failed")
}

func initialize(ctx context.Context, flags FlagMap, cfg *AppConfig) (servicerunner.Runner[AppConfig], error) {
	var err error

	if cfg.opaConfig == nil {
		cfg.opaConfig, err = os.Open(flags[opaPath])
		if err != nil {
			return nil, fmt.Errorf("failed to open policy file: %w", err)
		}
	}
	defer cfg.opaConfig.Close()

	if cfg.adminConfig == nil && flags[configPath] != "" {
		cfg.adminConfig, err = os.Open(flags[configPath])
		if err != nil {
			return nil, fmt.Errorf("failed to open configuration file: %w", err)
		}
	}

	consoleConfig := admin.DefaultConfig()
	if cfg.adminConfig != nil {
		defer cfg.adminConfig.Close()

		consoleConfig, err = admin.LoadConfiguration(cfg.adminConfig)
		if err != nil {
			return nil, err
		}
	}

	if cfg.tokens == nil {
		cfg.tokens = auth.ParseTokens(flags[adminTokens])
	}

	err = connectStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.notifier == nil && flags[notifierEndpoint] != "" {
		cfg.notifier, err = events.NewNotifier(ctx, flags[notifierEndpoint])
		if err != nil {
			return nil, err
		}
	}

	app := admin.New(consoleConfig, cfg.docs, cfg.blobs, cfg.notifier)

	r := router.New(serviceName)
	err = api.RegisterHandlers(ctx, r, cfg.opaConfig, cfg.tokens, app)
	if err != nil {
		return nil, err
	}

	probes := map[string]handlers.ServiceProber{}
	if cfg.db != nil {
		probes["postgres"] = func(ctx context.Context) (string, error) {
			if err := cfg.db.Ping(ctx); err != nil {
				return "unreachable", err
			}
			return "ok", nil
		}
	}

	_, runner := servicerunner.New(ctx, *cfg,
		ifnot(flags[controlPort] == "",
			webserver("control", listen(flags[listenAddress]), port(flags[controlPort]),
				pprof(), liveness(func() error { return nil }), readiness(probes),
			),
		),
		webserver("public", listen(flags[listenAddress]), port(flags[servicePort]),
			muxinit(func(ctx context.Context, identifier, port string, appCfg *AppConfig, handler *http.ServeMux) error {
				appCfg.publicPort = port
				handler.Handle("/", r)
				return nil
			}),
		),
		onstarting(func(ctx context.Context, appCfg *AppConfig) error {
			if appCfg.notifier != nil {
				return appCfg.notifier.Start()
			}
			return nil
		}),
		onshutdown(func(ctx context.Context, appCfg *AppConfig) error {
			if appCfg.db != nil {
				defer appCfg.db.Close()
			}
			if appCfg.notifier != nil {
				return appCfg.notifier.Stop()
			}
			return nil
		}),
	)

	return runner, nil
}

// connectStorage selects postgres backed stores when a database host is
// configured and in-memory stores otherwise
func connectStorage(ctx context.Context, cfg *AppConfig) error {
	if cfg.docs != nil && cfg.blobs != nil {
		return nil
	}

	dbConfig := database.LoadConfiguration(ctx)
	if !dbConfig.Enabled() {
		if cfg.docs == nil {
			cfg.docs = documents.NewMemoryStore()
		}
		if cfg.blobs == nil {
			cfg.blobs = blobs.NewMemoryStore()
		}
		return nil
	}

	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		return err
	}
	cfg.db = pool

	if cfg.docs == nil {
		cfg.docs, err = documents.NewPostgresStore(ctx, pool)
		if err != nil {
			return err
		}
	}

	if cfg.blobs == nil {
		cfg.blobs, err = blobs.NewPostgresStore(ctx, pool)
		if err != nil {
			return err
		}
	}

	return nil
}

func parseExternalConfig(ctx context.Context, flags FlagMap) (context.Context, FlagMap) {

	// Allow environment variables to override certain defaults
	envOrDef := env.GetVariableOrDefault
	flags[listenAddress] = envOrDef(ctx, "LISTEN_ADDRESS", flags[listenAddress])
	flags[servicePort] = envOrDef(ctx, "SERVICE_PORT", flags[servicePort])
	flags[controlPort] = envOrDef(ctx, "CONTROL_PORT", flags[controlPort])
	flags[configPath] = envOrDef(ctx, "ADMIN_CONFIG_PATH", flags[configPath])
	flags[opaPath] = envOrDef(ctx, "ADMIN_POLICY_FILE", flags[opaPath])
	flags[adminTokens] = envOrDef(ctx, "ADMIN_TOKENS", flags[adminTokens])
	flags[notifierEndpoint] = envOrDef(ctx, "NOTIFIER_ENDPOINT", flags[notifierEndpoint])

	apply := func(f FlagType) func(string) error {
		return func(value string) error {
			flags[f] = value
			return nil
		}
	}

	// Allow command line arguments to override defaults and environment variables
	flag.Func("config", "a yaml file with console configuration", apply(configPath))
	flag.Func("policies", "an authorization policy file", apply(opaPath))
	flag.Func("logformat", "log format, json or text", apply(logFormat))
	flag.Parse()

	return ctx, flags
}

func exitIf(err error, logger *slog.Logger, msg string, args ...any) {
	if err != nil {
		logger.With(args...).Error(msg, "err", err.Error())
		os.Exit(1)
	}
}
