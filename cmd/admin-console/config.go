package main

import (
	"io"

	"github.com/diwise/service-chassis/pkg/infrastructure/servicerunner"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/railstats/admin-console/internal/pkg/application/events"
	"github.com/railstats/admin-console/internal/pkg/infrastructure/storage/blobs"
	"github.com/railstats/admin-console/internal/pkg/infrastructure/storage/documents"
)

type FlagType int
type FlagMap map[FlagType]string

const (
	listenAddress FlagType = iota
	servicePort
	controlPort

	configPath
	opaPath

	logFormat

	adminTokens
	notifierEndpoint
)

type AppConfig struct {
	adminConfig io.ReadCloser
	opaConfig   io.ReadCloser
	tokens      map[string]string

	db       *pgxpool.Pool
	docs     documents.Store
	blobs    blobs.Store
	notifier events.Notifier

	publicPort string
}

var ifnot = servicerunner.IfNot[AppConfig]
var onstarting = servicerunner.OnStarting[AppConfig]
var onshutdown = servicerunner.OnShutdown[AppConfig]
var webserver = servicerunner.WithHTTPServeMux[AppConfig]
var muxinit = servicerunner.OnMuxInit[AppConfig]
var listen = servicerunner.WithListenAddr[AppConfig]
var port = servicerunner.WithPort[AppConfig]
var pprof = servicerunner.WithPPROF[AppConfig]
var liveness = servicerunner.WithK8SLivenessProbe[AppConfig]
var readiness = servicerunner.WithK8SReadinessProbes[AppConfig]
