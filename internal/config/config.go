package config

import "time"

// Canvas settings
const (
	Width  = 1920
	Height = 1920
)

// Photo region - the cropped source image is scaled into this rectangle
const (
	PhotoX      = 280
	PhotoY      = 445
	PhotoWidth  = 560
	PhotoHeight = 560
)

// Caption layout
// Captions are centred on the photo region and top-aligned at their Y offset.
const (
	CaptionMaxWidth   = 560
	CaptionCenterX    = (PhotoX + PhotoX + PhotoWidth) / 2 // 560
	CaptionLineHeight = 50

	NameY        = 1100
	NameFontSize = 48.0 // bold

	CompanyY        = 1165
	CompanyFontSize = 30.0 // regular

	// Caption text colour (black)
	CaptionColorR = 0
	CaptionColorG = 0
	CaptionColorB = 0
)

// Placeholder colour used when even the default avatar cannot be loaded
const (
	PlaceholderColorR = 204
	PlaceholderColorG = 204
	PlaceholderColorB = 204
)

// Avatar service
const (
	AvatarBaseURL     = "https://secure.gravatar.com/avatar/"
	AvatarSize        = 560
	AvatarProbeMode   = "404" // ask the service for a not-found response when no avatar exists
	AvatarDefaultMode = "mp"
	AvatarDefaultHash = "00000000000000000000000000000000"

	// DefaultFetchTimeout bounds each image load. Zero disables the timeout.
	DefaultFetchTimeout = 10 * time.Second
)

// Frame assets, relative to the page (or asset base) location.
// Order is the order frames are offered to the user.
var FramePaths = []string{
	"assets/frames/attendee-tag.png",
	"assets/frames/speaker-tag.png",
	"assets/frames/sponsor-tag.png",
	"assets/frames/organizer-tag.png",
	"assets/frames/volunteer-tag.png",
}

// DefaultAssetBase is the base every frame path is resolved against when no
// other base is configured. The embed scheme is served from the binary.
const DefaultAssetBase = "embed:///index.html"

// Export and share
const (
	DownloadFilename = "wordcamp_kerala_personal_poster.png"

	ShareTitle = "Save the date for WordCamp Kerala 2024!"
	ShareText  = "Let's connect at the event! Don't miss out."
	ShareURL   = "https://kerala.wordcamp.org/2024/"

	// ShareURLToken is replaced in fallback link templates with the
	// percent-encoded image data URL.
	ShareURLToken = "URL"

	// QRSize is the edge length of the fallback share QR code in pixels.
	QRSize = 256
)

// ShareLink is a fallback social-network share link.
// Href carries ShareURLToken where the image URL belongs.
type ShareLink struct {
	Label string `yaml:"label" json:"label"`
	Href  string `yaml:"href" json:"href"`
}

// DefaultShareLinks returns the stock fallback share panel.
func DefaultShareLinks() []ShareLink {
	return []ShareLink{
		{Label: "Facebook", Href: "https://www.facebook.com/sharer/sharer.php?u=URL"},
		{Label: "Twitter", Href: "https://twitter.com/intent/tweet?url=URL"},
		{Label: "LinkedIn", Href: "https://www.linkedin.com/sharing/share-offsite/?url=URL"},
	}
}
