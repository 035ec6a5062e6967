package domain

// ExtractorKind names a content extraction strategy.
type ExtractorKind string

// Extraction strategies, in routing priority order.
const (
	// KindExternalPush is used for applications whose content arrives
	// unsolicited from an integration; capture and hashing are bypassed.
	KindExternalPush ExtractorKind = "external_push"

	// KindAccessibility reads structured text from the accessibility tree.
	KindAccessibility ExtractorKind = "accessibility"

	// KindOptical captures the window image and runs OCR on it.
	// It is the universal fallback.
	KindOptical ExtractorKind = "optical"
)

// Valid reports whether the kind is one of the known strategies.
func (k ExtractorKind) Valid() bool {
	switch k {
	case KindExternalPush, KindAccessibility, KindOptical:
		return true
	default:
		return false
	}
}

// NeedsCapture reports whether the strategy requires a captured image
// before extraction.
func (k ExtractorKind) NeedsCapture() bool {
	return k != KindExternalPush
}

// RoutingTable is the data that drives extractor selection. Adding support
// for an application is an edit to this table.
type RoutingTable struct {
	// PushApps are application identities with an external push integration.
	PushApps []string `toml:"push_apps"`

	// AccessibilityApps are known-good structured extraction targets.
	AccessibilityApps []string `toml:"accessibility_apps"`
}

// DefaultRoutingTable returns the built-in routing table.
func DefaultRoutingTable() RoutingTable {
	return RoutingTable{
		PushApps: []string{
			"com.google.Chrome",
			"com.brave.Browser",
			"org.mozilla.firefox",
			"com.microsoft.edgemac",
			"com.tinyspeck.slackmacgap",
		},
		AccessibilityApps: []string{
			"com.apple.Notes",
			"com.apple.mail",
			"com.apple.TextEdit",
			"com.apple.Safari",
			"com.microsoft.VSCode",
			"com.microsoft.Word",
			"com.apple.iWork.Pages",
			"md.obsidian",
			"notion.id",
			"com.apple.Terminal",
			"com.googlecode.iterm2",
		},
	}
}
