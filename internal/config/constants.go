package config

import "time"

// Process exit codes. External wrappers branch on these values.
const (
	ExitSent          = 0
	ExitNothingToSend = 10
	ExitNoInventories = 11
	ExitFatal         = 20
)

// FatalLogPrefix starts every log line emitted for a fatal condition.
const FatalLogPrefix = "HandleError"

// Inventories
const (
	DefaultInventoryPairs = "730/2"
	PrimaryAppID          = "730"
	PrimaryContextID      = "2"
	PrimaryGroupName      = "CS2"
	OtherGroupName        = "Other"
	InventoryPageSize     = 2000
	InventoryRPS          = 2
	InventoryMaxRetries   = 2
	InventoryRetryBackoff = 3 * time.Second
	InventoryMaxRetryWait = 30 * time.Second
)

// Report
const (
	ReportSchemaVersion = 3
	ReportDataFile      = "report_data.json"
	ReportTextFile      = "report.txt"
	ReportArchiveDir    = "archive"
	ReportAnchorWeekday = time.Wednesday
	SkinPriceThreshold  = 0.6
	TopSkinsLimit       = 10
	PriceUnavailable    = "N/A"
)

// Price
const (
	PriceLookupTimeout  = 6 * time.Second
	PriceCacheDuration  = 30 * time.Minute
	PriceCacheCleanup   = time.Hour
	MarketPricePath     = "/market/priceoverview/"
	CircuitBreakerLimit = 5
	CircuitCooldown     = 30 * time.Second
)

// Circuit Breaker States
const (
	CircuitClosed   = "closed"
	CircuitOpen     = "open"
	CircuitHalfOpen = "half_open"
)

// Steam
const (
	SteamIDBase           = 76561197960265728
	SteamWebsiteID        = "Community"
	SteamGuardDeviceCode  = 3
	LoginPollInterval     = 2 * time.Second
	LoginPollAttempts     = 10
	AcknowledgePath       = "/trade/new/acknowledge"
	ConfirmationListTag   = "list"
	ConfirmationAllowTag  = "allow"
	ConfirmationNotActMsg = "Could not act on confirmation"
	ConfirmationKeyMaxTag = 32
	SessionIDBytes        = 12
	SteamHTTPTimeout      = 30 * time.Second
	SteamUserAgent        = "Mozilla/5.0 (Linux; Android 12) looter"
)

// Steam endpoints, relative to the configured base URLs.
const (
	RSAKeyPath           = "/IAuthenticationService/GetPasswordRSAPublicKey/v1"
	BeginAuthPath        = "/IAuthenticationService/BeginAuthSessionViaCredentials/v1"
	SubmitGuardCodePath  = "/IAuthenticationService/UpdateAuthSessionWithSteamGuardCode/v1"
	PollAuthPath         = "/IAuthenticationService/PollAuthSessionStatus/v1"
	FinalizeLoginPath    = "/jwt/finalizelogin"
	InventoryPath        = "/inventory/%s/%s/%s"
	TradeOfferNewPath    = "/tradeoffer/new/"
	TradeOfferSendPath   = "/tradeoffer/new/send"
	ConfirmationListPath = "/mobileconf/getlist"
	ConfirmationOpPath   = "/mobileconf/ajaxop"
)

// Server
const (
	APITimeout           = 30 * time.Second
	ServerReadTimeout    = 30 * time.Second
	ServerWriteTimeout   = 60 * time.Second
	ServerIdleTimeout    = 120 * time.Second
	ServerMaxHeaderBytes = 1 << 20
	ShutdownTimeout      = 10 * time.Second
)

// Logging
const (
	LogFilePattern   = "looter-%s.log" // %s = YYYY-MM-DD
	LogMaxAgeDays    = 30
	LogFormatJSON    = "json"
	LogFormatConsole = "console"
)

// Journal
const (
	DBBusyTimeout     = 5000 // milliseconds
	RunsDefaultLimit  = 50
	RunsMaxLimit      = 500
	RunStatusRunning  = "running"
	RunStatusFinished = "finished"
)
