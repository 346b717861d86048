package constants

import "time"

const (
	ExternalAPITimeout = 10 * time.Second
	ReconcileTimeout   = 2 * time.Minute
	NotifyTimeout      = 15 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
	DBBatchSize       = 100
)

const (
	// EnrichmentConcurrency caps concurrent solo-status lookups per pass
	// to stay under the enrichment API's rate limit.
	EnrichmentConcurrency = 4

	DefaultLookbackDays = 1

	// SoloLossWindow is slightly over an hour to absorb scheduler jitter
	// between ingestion passes.
	SoloLossWindow = 70 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)
