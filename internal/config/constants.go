package config

// Application constants
const (
	AppName = "calcium"

	// Report formats
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatBoth = "both"
	FormatNone = "none"

	// Defaults
	DefaultOutputDir   = "reports"
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "json"
	DefaultLogFile     = "logs/calcium.log"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB
	DefaultServerAddr  = "127.0.0.1:8080"
	UploadsDir         = "uploads"

	// Report file names inside a run directory
	SummaryFile        = "summary.csv"
	PreviewFile        = "preview.csv"
	SizeTableFile      = "sizes.csv"
	IntensityTableFile = "intensities.csv"
	WorkbookFile       = "report.xlsx"
	OverlapChartFile   = "overlap.png"
	SummaryJSONFile    = "summary.json"
	BaselineTableFile  = "baseline_window.csv"
	KClTableFile       = "kcl_window.csv"
	CapTableFile       = "cap_responders_window.csv"
	MCTableFile        = "mc_responders_window.csv"
	CapResponsesFile   = "cap_responses.csv"
	MCResponsesFile    = "mc_responses.csv"
	RatiosFile         = "ratios.csv"
)
