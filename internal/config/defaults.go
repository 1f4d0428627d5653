package config

const (
	defaultDataDir              = "~/.local/share/songaday"
	defaultLogDir               = "~/.local/share/songaday/logs"
	defaultFeedURL              = "https://spreadsheets.google.com/feeds/cells/1HRfMfK1IF3sP9tTmBe_eXClBuG-Go9BCXmFK9oipSvA/od6/public/values?alt=json-in-script"
	defaultFeedTimeout          = 30
	defaultYouTubeBaseURL       = "https://www.googleapis.com/youtube/v3"
	defaultYouTubeTimeout       = 15
	defaultYouTubeRPS           = 5.0
	defaultYouTubeBurst         = 2
	defaultYouTubeChunkSize     = 50
	defaultRunIntervalMinutes   = 30
	defaultStaleAfterMinutes    = 120
	defaultSearchLimit          = 25
	defaultSearchMinScore       = 0.1
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	maxYouTubeIDsPerQuery       = 50
	minimumRunIntervalMinutes   = 1
	defaultSearchEnabled        = true
	defaultLogToFile            = true
	defaultCatalogDatabaseName  = "catalog.db"
	defaultLockFileName         = "songaday.lock"
	defaultSearchIndexDirectory = "search.bleve"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Feed: Feed{
			URL:            defaultFeedURL,
			TimeoutSeconds: defaultFeedTimeout,
		},
		YouTube: YouTube{
			BaseURL:           defaultYouTubeBaseURL,
			TimeoutSeconds:    defaultYouTubeTimeout,
			RequestsPerSecond: defaultYouTubeRPS,
			Burst:             defaultYouTubeBurst,
			ChunkSize:         defaultYouTubeChunkSize,
		},
		Workflow: Workflow{
			RunIntervalMinutes: defaultRunIntervalMinutes,
			StaleAfterMinutes:  defaultStaleAfterMinutes,
		},
		Search: Search{
			Enabled:  defaultSearchEnabled,
			MinScore: defaultSearchMinScore,
			Limit:    defaultSearchLimit,
		},
		Logging: Logging{
			Format:    defaultLogFormat,
			Level:     defaultLogLevel,
			LogToFile: defaultLogToFile,
		},
	}
}
