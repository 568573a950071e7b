package config

const (
	defaultWorkspaceDir = "~/.local/share/vellum/workspace"
	defaultInboxDir     = "~/.local/share/vellum/inbox"
	defaultOutputDir    = "~/.local/share/vellum/output"
	defaultLogDir       = "~/.local/share/vellum/logs"

	defaultEngineBinary   = "archivist"
	defaultExtractBinary  = "pdftotext"
	defaultInfoBinary     = "pdfinfo"
	defaultMinFreeDiskGiB = 2

	defaultMaxConcurrent      = 3
	defaultTimeoutSeconds     = 1800
	defaultTimeoutScanSeconds = 15
	defaultCleanupTTLSeconds  = 3600
	defaultCleanupScanSeconds = 60
	defaultInboxPollSeconds   = 5

	defaultMaxPagesChecked    = 10
	defaultMinCharsPerPage    = 50
	defaultTextRatioThreshold = 0.8

	defaultComplianceLevel  = 2
	defaultOCRLanguage      = "eng"
	defaultCompression      = "standard"
	defaultSafeModeDPI      = 150
	defaultProgressThrottle = 1000

	defaultNtfyRequestTimeout = 10

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkspaceDir: defaultWorkspaceDir,
			InboxDir:     defaultInboxDir,
			OutputDir:    defaultOutputDir,
			LogDir:       defaultLogDir,
		},
		Engine: Engine{
			Binary:         defaultEngineBinary,
			ExtractBinary:  defaultExtractBinary,
			InfoBinary:     defaultInfoBinary,
			MinFreeDiskGiB: defaultMinFreeDiskGiB,
		},
		Jobs: Jobs{
			MaxConcurrent:      defaultMaxConcurrent,
			TimeoutSeconds:     defaultTimeoutSeconds,
			TimeoutScanSeconds: defaultTimeoutScanSeconds,
			CleanupTTLSeconds:  defaultCleanupTTLSeconds,
			CleanupScanSeconds: defaultCleanupScanSeconds,
			InboxPollSeconds:   defaultInboxPollSeconds,
		},
		Inspection: Inspection{
			MaxPagesChecked:    defaultMaxPagesChecked,
			MinCharsPerPage:    defaultMinCharsPerPage,
			TextRatioThreshold: defaultTextRatioThreshold,
		},
		Conversion: Conversion{
			DefaultComplianceLevel: defaultComplianceLevel,
			DefaultOCRLanguage:     defaultOCRLanguage,
			DefaultCompression:     defaultCompression,
			SafeModeResolutionDPI:  defaultSafeModeDPI,
		},
		Broadcast: Broadcast{
			ProgressThrottleMillis: defaultProgressThrottle,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyRequestTimeout,
			Completed:      true,
			Failed:         true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
