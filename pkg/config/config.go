package config

// this holds the resolved configuration values from CLI
//
//nolint:lll // readablity
var (
	DB                string // sqlite file path or postgresql connection string
	EnvFile           string // path to a dotenv file holding the credentials
	Username          string // iRacing account (email)
	Password          string // iRacing password
	APIURL            string // base URL of the iRacing data API
	AuthURL           string // URL of the iRacing legacy auth endpoint
	HTTPTimeout       string // timeout for a single API request
	WaitForServices   string // duration to wait for other services to be ready
	LogLevel          string // sets the log level (zap log level values)
	LogFormat         string // text vs json
	LogFilter         string // zapfilter rules, e.g. "debug:iracing.* info:*"
	EnableTelemetry   bool   // enable telemetry
	TelemetryEndpoint string // endpoint for telemetry ("stdout" prints spans)
)

const (
	DefaultDB          = "pacelock.db"
	DefaultAPIURL      = "https://members-ng.iracing.com"
	DefaultAuthURL     = "https://members-ng.iracing.com/auth"
	DefaultSubsession  = 78923458
	UsernameEnv        = "IRACING_USERNAME"
	PasswordEnv        = "IRACING_PASSWORD"
	DefaultEnvFile     = ".env"
	DefaultHTTPTimeout = "30s"
)
