package api

// Version is reported by the info endpoint and the CLI.
const Version = "1.0.0"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Detection describes one analysed file in a transport-friendly format.
type Detection struct {
	Status           string             `json:"status"`
	RunID            string             `json:"run_id,omitempty"`
	CaseID           string             `json:"case_id,omitempty"`
	Filename         string             `json:"filename"`
	MediaType        string             `json:"media_type"`
	IsDeepfake       bool               `json:"is_deepfake"`
	Confidence       float64            `json:"confidence"`
	ModelPredictions map[string]bool    `json:"model_predictions"`
	ModelConfidences map[string]float64 `json:"model_confidences"`
	Metadata         map[string]any     `json:"metadata"`
	AnalysisDetails  map[string]any     `json:"analysis_details,omitempty"`
	Error            string             `json:"error,omitempty"`
	SHA256           string             `json:"sha256,omitempty"`
	JSONReport       string             `json:"json_report,omitempty"`
	HTMLReport       string             `json:"html_report,omitempty"`
	YAMLReport       string             `json:"yaml_report,omitempty"`
	Forensics        *ForensicSummary   `json:"forensics,omitempty"`
}

// ForensicSummary condenses a forensic report for API consumers.
type ForensicSummary struct {
	Flags  []string          `json:"flags"`
	EXIF   int               `json:"exif_tags"`
	Errors map[string]string `json:"errors,omitempty"`
}

// HistoryEntry is a stored run as listed by history views.
type HistoryEntry struct {
	ID         string  `json:"id"`
	Filename   string  `json:"filename"`
	MediaType  string  `json:"media_type"`
	IsDeepfake bool    `json:"is_deepfake"`
	Confidence float64 `json:"confidence"`
	SHA256     string  `json:"sha256,omitempty"`
	Error      string  `json:"error,omitempty"`
	CreatedAt  string  `json:"created_at,omitempty"`
}

// ModelStatus mirrors registry information for one detector.
type ModelStatus struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Device      string `json:"device"`
	State       string `json:"state"`
	Checkpoint  string `json:"checkpoint,omitempty"`
	Parameters  int    `json:"parameters"`
}

// SystemInfo is the payload of the info endpoint.
type SystemInfo struct {
	Version       string        `json:"version"`
	CUDAAvailable bool          `json:"cuda_available"`
	Device        string        `json:"device"`
	ModelsLoaded  []string      `json:"models_loaded"`
	Models        []ModelStatus `json:"models"`

	// Dependencies reports the media decoders; video and audio analysis
	// need both.
	Dependencies []DependencyStatus `json:"dependencies,omitempty"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}
