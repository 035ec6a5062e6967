package domain

import "time"

const unknownDescription = "Unknown"

// PowerMode classifies the device state that drives the capture cadence.
type PowerMode string

// Power modes, from most to least aggressive capture cadence.
const (
	PowerNormal   PowerMode = "normal"
	PowerBattery  PowerMode = "battery"
	PowerThermal  PowerMode = "thermal"
	PowerUserIdle PowerMode = "user_idle"
)

// Description returns a human-readable description of the mode.
func (m PowerMode) Description() string {
	switch m {
	case PowerNormal:
		return "Normal (on power)"
	case PowerBattery:
		return "On battery"
	case PowerThermal:
		return "Thermal throttled"
	case PowerUserIdle:
		return "User idle"
	default:
		return unknownDescription
	}
}

// AllPowerModes returns all power modes.
func AllPowerModes() []PowerMode {
	return []PowerMode{PowerNormal, PowerBattery, PowerThermal, PowerUserIdle}
}

// DeviceState is a point-in-time reading of power, thermal and input state.
type DeviceState struct {
	// OnBattery is true when running without external power.
	OnBattery bool `json:"on_battery"`

	// ThermalThrottled is true when the OS reports thermal pressure.
	ThermalThrottled bool `json:"thermal_throttled"`

	// IdleFor is the time since the last user input.
	IdleFor time.Duration `json:"-"`

	// IdleSeconds mirrors IdleFor for JSON helpers.
	IdleSeconds float64 `json:"idle_seconds"`
}

// Mode resolves the device state to a power mode. User idleness wins over
// thermal pressure, which wins over battery.
func (d DeviceState) Mode(idleThreshold time.Duration) PowerMode {
	idle := d.IdleFor
	if idle == 0 && d.IdleSeconds > 0 {
		idle = time.Duration(d.IdleSeconds * float64(time.Second))
	}
	switch {
	case idleThreshold > 0 && idle > idleThreshold:
		return PowerUserIdle
	case d.ThermalThrottled:
		return PowerThermal
	case d.OnBattery:
		return PowerBattery
	default:
		return PowerNormal
	}
}

// CaptureSettings holds the scheduler timing policy.
type CaptureSettings struct {
	// Sensitivity is the Hamming distance that counts as a change.
	Sensitivity int `toml:"sensitivity_bits"`

	// PollIntervalSeconds is the window enumeration cadence.
	PollIntervalSeconds float64 `toml:"poll_interval_seconds"`

	// TickSeconds is the scheduler timer resolution.
	TickSeconds float64 `toml:"tick_seconds"`

	// MinIntervalSeconds is the minimum time between extractions per window.
	MinIntervalSeconds float64 `toml:"min_interval_seconds"`

	// MaxIntervalSeconds forces a re-sync regardless of other gating.
	MaxIntervalSeconds float64 `toml:"max_interval_seconds"`

	// NormalIntervalSeconds is the base interval on external power.
	NormalIntervalSeconds float64 `toml:"normal_interval_seconds"`

	// BatteryIntervalSeconds is the base interval on battery.
	BatteryIntervalSeconds float64 `toml:"battery_interval_seconds"`

	// ThermalIntervalSeconds is the base interval when throttled.
	ThermalIntervalSeconds float64 `toml:"thermal_interval_seconds"`

	// IdleIntervalSeconds is the base interval when the user is idle.
	IdleIntervalSeconds float64 `toml:"idle_interval_seconds"`

	// IdleThresholdSeconds is the input inactivity that counts as idle.
	IdleThresholdSeconds float64 `toml:"idle_threshold_seconds"`

	// FocusDebounceMillis delays focus triggers.
	FocusDebounceMillis int `toml:"focus_debounce_ms"`

	// BurstPerMinute caps extraction attempts per window per minute.
	BurstPerMinute int `toml:"burst_per_minute"`

	// Workers bounds concurrent capture/extraction work.
	Workers int `toml:"workers"`

	// ExtractorAttempts is the number of attempts per extractor kind
	// before falling back.
	ExtractorAttempts int `toml:"extractor_attempts"`
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

// MinInterval returns the minimum interval as a duration.
func (c CaptureSettings) MinInterval() time.Duration { return seconds(c.MinIntervalSeconds) }

// MaxInterval returns the forced re-sync interval as a duration.
func (c CaptureSettings) MaxInterval() time.Duration { return seconds(c.MaxIntervalSeconds) }

// PollInterval returns the window enumeration cadence.
func (c CaptureSettings) PollInterval() time.Duration { return seconds(c.PollIntervalSeconds) }

// Tick returns the scheduler timer resolution.
func (c CaptureSettings) Tick() time.Duration { return seconds(c.TickSeconds) }

// IdleThreshold returns the input inactivity threshold.
func (c CaptureSettings) IdleThreshold() time.Duration { return seconds(c.IdleThresholdSeconds) }

// FocusDebounce returns the focus trigger delay.
func (c CaptureSettings) FocusDebounce() time.Duration {
	return time.Duration(c.FocusDebounceMillis) * time.Millisecond
}

// BaseInterval returns the capture interval for a power mode.
func (c CaptureSettings) BaseInterval(mode PowerMode) time.Duration {
	switch mode {
	case PowerBattery:
		return seconds(c.BatteryIntervalSeconds)
	case PowerThermal:
		return seconds(c.ThermalIntervalSeconds)
	case PowerUserIdle:
		return seconds(c.IdleIntervalSeconds)
	default:
		return seconds(c.NormalIntervalSeconds)
	}
}

// PrivacySettings holds the blocklists.
type PrivacySettings struct {
	// BlockedApps are exact or wildcard (*token*) application identities.
	BlockedApps []string `toml:"blocked_apps"`

	// SensitiveTitleKeywords are case-insensitive window title substrings.
	SensitiveTitleKeywords []string `toml:"sensitive_title_keywords"`
}

// StorageSettings configures the persistent store.
type StorageSettings struct {
	// DataDir holds the SQLite database. Empty means ~/.glance/data.
	DataDir string `toml:"data_dir"`
}

// TransportSettings configures the IPC surfaces.
type TransportSettings struct {
	// BulkSocket is the unix socket for payload delivery.
	BulkSocket string `toml:"bulk_socket"`

	// AdminSocket is the unix socket for administrative control.
	AdminSocket string `toml:"admin_socket"`

	// MaxControlMessageBytes bounds messages on the control channel.
	MaxControlMessageBytes int64 `toml:"max_control_message_bytes"`

	// MaxControlResponseBytes bounds responses written to the control channel.
	MaxControlResponseBytes int64 `toml:"max_control_response_bytes"`
}

// HelperSettings names the external OS binding executables. Empty
// commands disable the corresponding capability.
type HelperSettings struct {
	WindowsCommand       []string `toml:"windows_cmd"`
	CaptureCommand       []string `toml:"capture_cmd"`
	AccessibilityCommand []string `toml:"accessibility_cmd"`
	OCRCommand           []string `toml:"ocr_cmd"`
	DeviceCommand        []string `toml:"device_cmd"`
	TimeoutSeconds       float64  `toml:"timeout_seconds"`
}

// Timeout returns the helper invocation timeout.
func (h HelperSettings) Timeout() time.Duration { return seconds(h.TimeoutSeconds) }

// IngestSettings configures chunking.
type IngestSettings struct {
	// Chunker names the chunker to build.
	Chunker string `toml:"chunker"`

	// ChunkTokens is the number of tokens per chunk.
	ChunkTokens int `toml:"chunk_tokens"`

	// ChunkOverlap is the number of tokens shared by consecutive chunks.
	ChunkOverlap int `toml:"chunk_overlap"`

	// RetryMaxSeconds caps the ingestion retry backoff.
	RetryMaxSeconds float64 `toml:"retry_max_seconds"`
}

// RetryMax returns the ingestion retry backoff cap.
func (i IngestSettings) RetryMax() time.Duration { return seconds(i.RetryMaxSeconds) }

// LoggingSettings configures logging.
type LoggingSettings struct {
	Verbose bool `toml:"verbose"`
}

// Config is the complete application configuration.
type Config struct {
	Capture    CaptureSettings   `toml:"capture"`
	Privacy    PrivacySettings   `toml:"privacy"`
	Extractors RoutingTable      `toml:"extractors"`
	Storage    StorageSettings   `toml:"storage"`
	Ingest     IngestSettings    `toml:"ingest"`
	Transport  TransportSettings `toml:"transport"`
	Helpers    HelperSettings    `toml:"helpers"`
	Logging    LoggingSettings   `toml:"logging"`
}

// DefaultCaptureSettings returns the default timing policy.
func DefaultCaptureSettings() CaptureSettings {
	return CaptureSettings{
		Sensitivity:            DefaultSensitivity,
		PollIntervalSeconds:    2,
		TickSeconds:            1,
		MinIntervalSeconds:     3,
		MaxIntervalSeconds:     60,
		NormalIntervalSeconds:  5,
		BatteryIntervalSeconds: 15,
		ThermalIntervalSeconds: 30,
		IdleIntervalSeconds:    60,
		IdleThresholdSeconds:   30,
		FocusDebounceMillis:    500,
		BurstPerMinute:         10,
		Workers:                4,
		ExtractorAttempts:      2,
	}
}

// DefaultConfig returns sensible defaults for the whole application.
func DefaultConfig() Config {
	return Config{
		Capture: DefaultCaptureSettings(),
		Privacy: PrivacySettings{
			BlockedApps:            DefaultBlockedApps(),
			SensitiveTitleKeywords: DefaultSensitiveTitleKeywords(),
		},
		Extractors: DefaultRoutingTable(),
		Ingest: IngestSettings{
			Chunker:         "token",
			ChunkTokens:     1024,
			RetryMaxSeconds: 60,
		},
		Transport: TransportSettings{
			MaxControlMessageBytes:  64 << 20,
			MaxControlResponseBytes: 1 << 20,
		},
		Helpers: HelperSettings{TimeoutSeconds: 10},
	}
}

// DefaultBlockedApps returns application identities that are never captured:
// password managers and system credential UIs.
func DefaultBlockedApps() []string {
	return []string{
		"com.1password.1password",
		"com.agilebits.onepassword*",
		"com.bitwarden.desktop",
		"com.lastpass.LastPass",
		"com.dashlane.Dashlane",
		"com.keepersecurity.passwordmanager",
		"org.keepassxc.keepassxc",
		"com.apple.keychainaccess",
		"com.apple.Passwords",
		"com.apple.SecurityAgent",
		"com.apple.LocalAuthentication.UIAgent",
		"*password*",
		"*keychain*",
	}
}

// DefaultSensitiveTitleKeywords returns window title keywords that block
// capture: sign-in pages, password prompts, banking, private browsing.
func DefaultSensitiveTitleKeywords() []string {
	return []string{
		"sign in",
		"sign-in",
		"log in",
		"login",
		"password",
		"passcode",
		"2fa",
		"verification code",
		"bank",
		"banking",
		"private browsing",
		"incognito",
		"inprivate",
	}
}
