package config

// AppVersion is the version of the application, set at build time with -ldflags.
var AppVersion = "0.1.0"

// AppName is the name of the application.
const AppName = "apodwall"

// LogFileDefault as logging.file selects the rotating log below the user cache dir.
const LogFileDefault = "default"

// KeyringService is the service name under which secrets are stored in the OS keyring.
const KeyringService = AppName

// KeyringAPIKeyUser is the keyring account that holds the APOD API key.
const KeyringAPIKeyUser = "apod_api_key"

// APIKeyEnv overrides every other API key source when set.
const APIKeyEnv = "APOD_API_KEY"

// DemoAPIKey is the rate-limited public key accepted by api.nasa.gov.
const DemoAPIKey = "DEMO_KEY"

// Fetch strategies.
const (
	StrategyAPI  = "api"
	StrategyHTML = "html"
)

// Defaults
const (
	DefaultAPIBaseURL        = "https://api.nasa.gov/planetary/apod"
	DefaultSiteURL           = "https://apod.nasa.gov/apod/"
	DefaultUserAgent         = "apodwall/1.0 (+https://github.com/Jerry-Ma/nasa-apod-desktop)"
	DefaultTimeoutSeconds    = 60
	DefaultRequestsPerHour   = 1000
	DefaultMinFileSize       = 10 * 1024
	DefaultMinWidth          = 1400
	DefaultMinHeight         = 900
	DefaultMinAspectRatio    = 1.0
	DefaultMaxAspectRatio    = 2.0
	DefaultCapacity          = 10
	DefaultMaxLookbackDays   = 60
	DefaultOrigDir           = "image_orig"
	DefaultActiveDir         = "image_use_as_bg"
	DefaultDescriptor        = "apod_backgrounds.xml"
	DefaultDisplaySeconds    = 1200
	DefaultTransitionSeconds = 5
	DefaultCaptionFontScale  = 2
	DefaultLogRetentionDays  = 28
)
