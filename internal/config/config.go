package config

import (
	"io/fs"
	"time"
)

// -----------------------------------------------------------------------------
// Build Information
// -----------------------------------------------------------------------------

// Build variables are injected via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// UserAgent identifies the HTTP client.
var UserAgent = "Go-Astrology/" + Version

// -----------------------------------------------------------------------------
// Application Constants
// -----------------------------------------------------------------------------

const (
	AppName           = "Go Astrology"
	AppID             = "com.github.tartampluch.go-astrology"
	LocalhostBindAddr = "127.0.0.1"
	LogFileName       = "app.log"
	DBFileName        = "astrology.db"
	JournalFileName   = "journal.ics"
	EnvPrefix         = "ASTRO"
)

// -----------------------------------------------------------------------------
// Exit Codes
// -----------------------------------------------------------------------------

const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
)

// -----------------------------------------------------------------------------
// System & File Permissions
// -----------------------------------------------------------------------------

const (
	// FilePermUserRW represents -rw------- (Read/Write for owner only).
	// Used for logs and the reading journal.
	FilePermUserRW fs.FileMode = 0600

	// DirPermUserRWX represents drwx------ (Read/Write/Exec for owner only).
	DirPermUserRWX fs.FileMode = 0700

	// ChannelBufferSize defines the standard buffer size for internal signaling channels.
	ChannelBufferSize = 1
)

// -----------------------------------------------------------------------------
// CLI Flags & Descriptions
// -----------------------------------------------------------------------------

const (
	FlagVersion      = "version"
	FlagDebug        = "debug"
	FlagServe        = "serve"
	FlagDescVersion  = "Show application version and exit"
	FlagDescDebug    = "Enable debug logging to stdout"
	FlagDescServe    = "Serve the reading journal as an iCalendar feed while the menu runs"
	MsgVersionOutput = "%s version %s (%s/%s)\n"
)

// -----------------------------------------------------------------------------
// Default Values & Business Logic
// -----------------------------------------------------------------------------

const (
	DefaultLanguage  = "en"
	DefaultWrapWidth = 80
	DefaultPort      = "18081"

	// Name rules: alphabetic, first rune uppercase, strictly under 50 runes.
	MaxNameLength = 49

	// Birth chart computations are restricted to the validity window of the
	// planetary elements and to latitudes where the ascendant is defined.
	EphemerisMinYear = 1800
	EphemerisMaxYear = 2050
	MaxChartLatitude = 66.0
)

// SupportedLanguages defines the list of available terminal languages (ISO 639-1).
var SupportedLanguages = []string{"en", "fr"}

// -----------------------------------------------------------------------------
// Data Formats
// -----------------------------------------------------------------------------

const (
	// DateFormatInput is the day/month/year layout typed by the user and
	// written into persisted rows.
	DateFormatInput = "02/01/2006"
	// TimeFormatInput is the 24-hour hour:minute layout. Input must match its
	// length exactly, so "9:30" is rejected.
	TimeFormatInput = "15:04"

	// vCard BDAY layouts.
	DateFormatFullDash  = "2006-01-02"
	DateFormatFullBasic = "20060102"
	DateFormatRFC3339   = time.RFC3339

	VCardBDAY = "BDAY"
	VCardFN   = "FN"

	// Dataset columns: city,country,lat,lng
	DatasetColumns   = 4
	DatasetAssetPath = "cities.csv.gz"
)

// -----------------------------------------------------------------------------
// Horoscope Site Endpoints
// -----------------------------------------------------------------------------

// URL template placeholders.
const (
	PlaceholderOrdinal = "{ordinal}"
	PlaceholderSign    = "{sign}"
	PlaceholderYear    = "{year}"
	PlaceholderSigns   = "{signs}"
	SignPairSeparator  = "-"
)

// Default endpoint templates for the public horoscope site.
const (
	EndpointDaily         = "https://www.horoscope.com/us/horoscopes/general/horoscope-general-daily-today.aspx?sign={ordinal}"
	EndpointWeekly        = "https://www.horoscope.com/us/horoscopes/general/horoscope-general-weekly.aspx?sign={ordinal}"
	EndpointMonthly       = "https://www.horoscope.com/us/horoscopes/general/horoscope-general-monthly.aspx?sign={ordinal}"
	EndpointYearly        = "https://www.horoscope.com/us/horoscopes/yearly/{year}-horoscope-{sign}.aspx"
	EndpointCompatibility = "https://www.horoscope.com/us/games/compatibility/game-love-compatibility.aspx?ZodiacSignSelector_alphastring={signs}"
)

// CSS selectors used to extract reading text.
const (
	SelectorDaily         = ".main-horoscope"
	SelectorYearly        = "#personal"
	SelectorCompatibility = ".module-skin"
	SelectorParagraph     = "p"
)

// -----------------------------------------------------------------------------
// Network & Timeouts
// -----------------------------------------------------------------------------

const (
	HTTPTimeout         = 30 * time.Second
	ShutdownTimeout     = 5 * time.Second
	ServerReadTimeout   = 10 * time.Second
	ServerWriteTimeout  = 30 * time.Second
	ServerIdleTimeout   = 60 * time.Second
	RetryAfterSeconds   = "10"
	AllowedMethods      = "GET, HEAD"
	MaxHTTPResponseSize = 8 * 1024 * 1024 // 8MB, horoscope pages are plain HTML
	SchemeHTTP          = "http"
	SchemeHTTPS         = "https"
	RouteJournal        = "/journal.ics"
	AddrSeparator       = ":"
)

// -----------------------------------------------------------------------------
// HTTP Headers & MIME Types
// -----------------------------------------------------------------------------

const (
	HeaderContentType     = "Content-Type"
	HeaderCacheControl    = "Cache-Control"
	HeaderETag            = "ETag"
	HeaderLastModified    = "Last-Modified"
	HeaderRetryAfter      = "Retry-After"
	HeaderAllow           = "Allow"
	HeaderXContentType    = "X-Content-Type-Options"
	HeaderUserAgent       = "User-Agent"
	HeaderIfNoneMatch     = "If-None-Match"
	HeaderIfModifiedSince = "If-Modified-Since"

	MimeTextCalendar    = "text/calendar; charset=utf-8"
	MimeNoSniff         = "nosniff"
	CacheControlPrivate = "private, no-cache"

	// FormatETag expects a string argument.
	FormatETag = `"%s"`
)

// -----------------------------------------------------------------------------
// Standards: iCalendar
// -----------------------------------------------------------------------------

const (
	ICalVersion = "2.0"
	ICalProdid  = "-//Go Astrology//Journal//EN"
	ICalCalName = "Astrology Readings"
	ICalDomain  = "goastrology"

	PropUID         = "UID"
	PropSummary     = "SUMMARY"
	PropDescription = "DESCRIPTION"
	PropDTStart     = "DTSTART"
	PropDTStamp     = "DTSTAMP"
	PropCategories  = "CATEGORIES"
	PropVersion     = "VERSION"
	PropProdid      = "PRODID"
	PropXWRCalName  = "X-WR-CALNAME"

	FormatUID = "%s@%s"

	// StubVCalendar is the minimal valid iCalendar object served while the
	// journal has no entries.
	StubVCalendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:" + ICalProdid + "\r\nEND:VCALENDAR\r\n"
)

// -----------------------------------------------------------------------------
// Terminal Translation Keys (i18n)
// -----------------------------------------------------------------------------

const (
	TKeyBanner          = "banner"
	TKeyMenuTitle       = "menu_title"
	TKeyMenuHoroscope   = "menu_horoscope"
	TKeyMenuCompat      = "menu_compatibility"
	TKeyMenuChart       = "menu_birth_chart"
	TKeyMenuContacts    = "menu_contacts"
	TKeyMenuHistory     = "menu_history"
	TKeyMenuQuit        = "menu_quit"
	TKeyPromptChoice    = "prompt_choice"
	TKeyPromptName      = "prompt_name"
	TKeyPromptDate      = "prompt_date"
	TKeyPromptTime      = "prompt_time"
	TKeyPromptCity      = "prompt_city"
	TKeyPromptCountry   = "prompt_country"
	TKeyPromptTimeframe = "prompt_timeframe"
	TKeyPromptVCF       = "prompt_vcf_path"
	TKeyPromptContact   = "prompt_contact"
	TKeyPromptSheet     = "prompt_sheet"
	TKeyPersonFirst     = "person_first"
	TKeyPersonSecond    = "person_second"
	TKeyTimeframeDaily  = "timeframe_daily"
	TKeyTimeframeWeekly = "timeframe_weekly"
	TKeyTimeframeMonth  = "timeframe_monthly"
	TKeyTimeframeYear   = "timeframe_yearly"
	TKeySheetHoroscope  = "sheet_horoscope"
	TKeySheetCompat     = "sheet_compatibility"
	TKeySheetChart      = "sheet_birth_chart"
	TKeyResultSign      = "result_sign"   // Requires Name, Sign
	TKeyResultCompat    = "result_compat" // Requires First, Second
	TKeyResultChart     = "result_chart"  // Requires Name, Timezone
	TKeyResultSaved     = "result_saved"
	TKeyContactsFound   = "contacts_found" // Requires Count
	TKeyContactsNone    = "contacts_none"
	TKeyHistoryEmpty    = "history_empty"
	TKeyGoodbye         = "goodbye"
	TKeyErrName         = "err_name"
	TKeyErrDate         = "err_date"
	TKeyErrTime         = "err_time"
	TKeyErrLocation     = "err_location"
	TKeyErrChoice       = "err_choice"
	TKeyErrContent      = "err_content_unavailable"
	TKeyErrNotFound     = "err_location_not_found"
	TKeyErrTimezone     = "err_timezone_not_found"
	TKeyErrChart        = "err_chart"
	TKeyErrPersist      = "err_persist"
	TKeyErrContacts     = "err_contacts"
	TKeyErrGeneric      = "err_generic"

	// HistoryLimit is the number of rows listed per sheet.
	HistoryLimit = 10
	// HistoryTimeFormat renders the stored timestamp of a row.
	HistoryTimeFormat = "2006-01-02 15:04"
	// HistoryFieldSeparator joins the fields of a listed row.
	HistoryFieldSeparator = " | "
	// WrapIndent prefixes every line of a wrapped reading.
	WrapIndent = "  "
)

// -----------------------------------------------------------------------------
// Error Messages (Technical/Logs)
// -----------------------------------------------------------------------------

const (
	ErrInvalidName         = "invalid name"
	ErrInvalidDate         = "invalid date"
	ErrInvalidTime         = "invalid time"
	ErrInvalidLocation     = "invalid location"
	ErrNoSignMatch         = "date matches no zodiac range"
	ErrUnknownSignCode     = "unknown zodiac sign code"
	ErrContentUnavailable  = "horoscope content unavailable"
	ErrElementMissing      = "expected element not found"
	ErrLocationNotFound    = "location not found"
	ErrTimezoneNotFound    = "timezone not found"
	ErrChartComputation    = "birth chart computation failed"
	ErrPersist             = "failed to persist row"
	ErrSchemaMismatch      = "row does not match sheet schema"
	ErrUnknownSheet        = "unknown sheet"
	ErrUnknownTimeframe    = "unknown timeframe"
	ErrServerStartup       = "server startup failed"
	ErrServerShutdown      = "server shutdown failed"
	ErrPortRequired        = "server port is required"
	ErrInvalidURL          = "invalid URL structure"
	ErrProtocol            = "unsupported protocol scheme (http/https only)"
	ErrFetcherMissing      = "internal error: network fetcher is not initialized"
	ErrSinkMissing         = "internal error: persistence sink is not initialized"
	ErrChartDepsMissing    = "internal error: birth chart collaborators are not initialized"
	ErrDatasetLoad         = "failed to load city dataset"
	ErrDatasetRow          = "malformed city dataset row"
	ErrTZFinder            = "failed to initialise timezone finder"
	ErrSettingsLoad        = "failed to load settings"
	ErrEndpointsLoad       = "failed to load endpoints file"
	ErrStoreOpen           = "failed to open reading store"
	ErrJournalOpen         = "failed to open reading journal"
	ErrICalEncode          = "failed to encode iCalendar data"
	ErrICalDecode          = "failed to decode iCalendar data"
	ErrVCardParse          = "failed to parse vCard stream"
	ErrContactsImport      = "failed to import contacts"
	ErrDateParse           = "unable to parse date"
	ErrLogFile             = "failed to open log file"
	ErrCacheDir            = "could not determine user cache dir"
	ErrCreateDir           = "could not create app cache dir"
	ErrAppFailed           = "application failed unexpectedly"
	ErrLocalesAccess       = "failed to access embedded locales"
	ErrLocaleLoad          = "failed to load locale file"
	ErrInputClosed         = "input stream closed"
	ErrValidatorRegister   = "failed to register validation rule"
	ErrTimezoneUnknownName = "unknown IANA timezone"
)

// -----------------------------------------------------------------------------
// HTTP Server Responses
// -----------------------------------------------------------------------------

const (
	HTTPMsgInitializing = "Journal initializing, please try again shortly."
	HTTPMsgMethodNotAll = "Method Not Allowed"
)

// -----------------------------------------------------------------------------
// Log Messages
// -----------------------------------------------------------------------------

const (
	MsgAppStop         = "Application stopped gracefully"
	MsgAppStarting     = "Starting application"
	MsgCtxCancel       = "Context cancelled, leaving menu"
	MsgServerListen    = "HTTP server listening"
	MsgServerStop      = "Shutting down HTTP server..."
	MsgCacheUpdated    = "Journal cache updated"
	MsgLocaleSkip      = "Skipping non-locale file"
	MsgLocaleBadName   = "Skipping malformed locale filename"
	MsgLocaleLoaded    = "Locale loaded successfully"
	MsgTransMissing    = "Missing translation key"
	MsgLogWarning      = "Warning: %s at %s: %v\n"
	MsgFetchStart      = "Fetching reading"
	MsgReadingStored   = "Reading stored"
	MsgChartStored     = "Birth chart stored"
	MsgPipelineAbort   = "Pipeline aborted"
	MsgDatasetLoaded   = "City dataset loaded"
	MsgSkippedCard     = "Skipping malformed vCard"
	MsgSkippedDate     = "Skipping invalid date format"
	MsgSkippedContact  = "Skipping contact with invalid data"
	MsgContactsLoaded  = "Contacts imported"
	MsgRowAppended     = "Row appended"
	MsgJournalAppended = "Journal entry appended"
	MsgMirrorFailed    = "Secondary sink failed, row kept in primary"
	MsgSettingsLoaded  = "Settings loaded"
)

// -----------------------------------------------------------------------------
// Structured Logging Keys (slog)
// -----------------------------------------------------------------------------

const (
	LogKeyComponent = "component"
	LogKeyError     = "error"
	LogKeyURL       = "url"
	LogKeyStatus    = "status_code"
	LogKeyFile      = "file"
	LogKeyLang      = "lang"
	LogKeyKey       = "key"
	LogKeyPort      = "port"
	LogKeyName      = "name"
	LogKeySign      = "sign"
	LogKeyTimeframe = "timeframe"
	LogKeySheet     = "sheet"
	LogKeyCity      = "city"
	LogKeyTimezone  = "timezone"
	LogKeyCount     = "count"
	LogKeyValue     = "value"
	LogKeyPath      = "path"
	LogKeySizeBytes = "size_bytes"
	LogKeyETag      = "etag"
	LogKeyDuration  = "duration_ms"
	LogKeyStage     = "stage"

	// Startup Info Keys
	LogKeyBuild   = "build"
	LogKeyApp     = "app"
	LogKeyVersion = "version"
	LogKeyGoVer   = "go_version"
	LogKeyEnv     = "env"
	LogKeyOS      = "os"
	LogKeyArch    = "arch"
	LogKeyPID     = "pid"
)

// -----------------------------------------------------------------------------
// Log Components
// -----------------------------------------------------------------------------

const (
	CompCLI      = "cli"
	CompEngine   = "engine"
	CompServer   = "server"
	CompFetcher  = "fetcher"
	CompStore    = "store"
	CompJournal  = "journal"
	CompGeo      = "geo"
	CompChart    = "chart"
	CompContacts = "contacts"
	CompMain     = "main"
	CompI18n     = "i18n"
)
