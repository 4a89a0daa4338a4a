package config

const (
	defaultDataDir               = "~/.local/share/ffcraft"
	defaultLogDir                = "~/.local/share/ffcraft/logs"
	defaultFFmpegBinary          = "ffmpeg"
	defaultFFprobeBinary         = "ffprobe"
	defaultKillGraceSeconds      = 5
	defaultTimeoutSeconds        = 0
	defaultMaxConcurrent         = 2
	defaultMaxRetries            = 3
	defaultRetryDelaySeconds     = 30
	defaultPriorityMode          = PriorityModePriority
	defaultRetentionHours        = 24
	defaultPollIntervalMillis    = 500
	defaultCleanupIntervalSecond = 300
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Priority modes accepted by queue.priority_mode.
const (
	PriorityModeFIFO     = "fifo"
	PriorityModePriority = "priority"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		FFmpeg: FFmpeg{
			Binary:           defaultFFmpegBinary,
			FFprobeBinary:    defaultFFprobeBinary,
			KillGraceSeconds: defaultKillGraceSeconds,
			TimeoutSeconds:   defaultTimeoutSeconds,
		},
		Queue: Queue{
			MaxConcurrent:     defaultMaxConcurrent,
			MaxRetries:        defaultMaxRetries,
			RetryDelaySeconds: defaultRetryDelaySeconds,
			PriorityMode:      defaultPriorityMode,
			RetentionHours:    defaultRetentionHours,
		},
		Worker: Worker{
			PollIntervalMillis:     defaultPollIntervalMillis,
			CleanupIntervalSeconds: defaultCleanupIntervalSecond,
			AutoRetry:              true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
