package config

const (
	defaultConfigPath = "~/.config/deepscan/config.toml"

	defaultModelDir  = "~/.local/share/deepscan/models"
	defaultLogDir    = "~/.local/share/deepscan/logs"
	defaultReportDir = "~/.local/share/deepscan/reports"
	defaultUploadDir = "~/.local/share/deepscan/uploads"
	defaultHistoryDB = "~/.local/share/deepscan/history.db"
	defaultAPIBind   = "127.0.0.1:7488"

	defaultConfidenceThreshold      = 0.5
	defaultConsensusThreshold       = 0.5
	defaultFrameSampleRate          = 5
	defaultFakeFrameRatio           = 0.3
	defaultInputSize                = 224
	defaultAudioSampleRate          = 16000
	defaultAudioConfidence          = 0.5
	defaultSpectralEntropyThreshold = 5.0
	defaultDevice                   = "cpu"

	defaultFFmpegBinary  = "ffmpeg"
	defaultFFprobeBinary = "ffprobe"

	defaultMaxFileSizeMB = 500

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ModelDir:  defaultModelDir,
			LogDir:    defaultLogDir,
			ReportDir: defaultReportDir,
			UploadDir: defaultUploadDir,
			HistoryDB: defaultHistoryDB,
			APIBind:   defaultAPIBind,
		},
		Detection: Detection{
			ConfidenceThreshold:      defaultConfidenceThreshold,
			ConsensusThreshold:       defaultConsensusThreshold,
			FrameSampleRate:          defaultFrameSampleRate,
			FakeFrameRatio:           defaultFakeFrameRatio,
			InputSize:                defaultInputSize,
			AudioSampleRate:          defaultAudioSampleRate,
			AudioConfidence:          defaultAudioConfidence,
			SpectralEntropyThreshold: defaultSpectralEntropyThreshold,
			Device:                   defaultDevice,
		},
		Media: Media{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
		},
		Upload: Upload{
			MaxFileSizeMB: defaultMaxFileSizeMB,
		},
		History: History{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
