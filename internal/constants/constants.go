package constants

import "time"

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 30 * time.Second
	// a full roster sync walks up to ten accounts through a throttled API
	SyncTimeout = 10 * time.Minute
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
	DBBatchSize       = 100
)

const (
	ShutdownTimeout = 5 * time.Second
)

// match history paging
const (
	MatchPageSize    = 100
	MaxMatchesPerRun = 500
)

const (
	TeamMatchLimit        = 50
	TeamMatchMinPlayers   = 3
	TeamMatchFetchWorkers = 4

	DetectionRecentMatches  = 5
	DetectionMatchesChecked = 2
	DetectionMinPlayers     = 2
)

const (
	ExportVersion = 2
	TeamSize      = 5
)

const (
	StatsStreamHeartbeat = 25 * time.Second
	RosterPageMaxBytes   = 2 << 20
)
