package config

import "time"

const (
	envPort         = "PORT"
	envConfigFile   = "CONFIG_FILE"
	envPageSize     = "PAGE_SIZE"
	envStoreBackend = "STORE_BACKEND"
	envPostgresDSN  = "POSTGRES_DSN"
	envStorePoll    = "STORE_POLL_INTERVAL"
	envContentDir   = "CONTENT_DIR"
	envEnrichOn     = "ENRICH_PROVIDER"
	envEnrichURL    = "ENRICH_BASE_URL"
	envEnrichKey    = "ENRICH_API_KEY"
	envEnrichWait   = "ENRICH_TIMEOUT"
	envMetricsPort  = "METRICS_PORT"
	envMetricsOn    = "METRICS_ENABLED"
	envOtelEndpoint = "OTEL_EXPORTER_OTLP_ENDPOINT"
	envOtelService  = "OTEL_SERVICE_NAME"
	envOtelInsecure = "OTEL_EXPORTER_OTLP_INSECURE"

	defaultPort        = "4010"
	defaultPageSize    = 25
	defaultBackend     = "memory"
	defaultMetricsPort = "9090"
	defaultService     = "agency-data-service"
	// Cadence for the poll-and-diff subscription used by SQL-backed stores.
	defaultStorePoll = 5 * Duration(time.Second)
	// Baseline deadline for external enrichment lookups.
	defaultEnrichTimeout  = 10 * Duration(time.Second)
	defaultEnrichProvider = "fixture"
)
