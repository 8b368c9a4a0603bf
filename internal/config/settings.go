package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings holds optional runtime overrides loaded from a YAML file.
// Nil or empty fields fall back to the compiled-in defaults.
type Settings struct {
	Event struct {
		Title string `yaml:"title"`
		Text  string `yaml:"text"`
		URL   string `yaml:"url"`
	} `yaml:"event"`

	ShareLinks []ShareLink `yaml:"share_links"`

	// Hex colours, with or without a leading '#'
	CaptionColor     string `yaml:"caption_color"`
	PlaceholderColor string `yaml:"placeholder_color"`

	// FetchTimeout bounds each remote image load, e.g. "5s". "0s" disables it.
	FetchTimeout *Duration `yaml:"fetch_timeout"`

	// Custom TrueType fonts; the built-in Go fonts are used when empty
	NameFont    string `yaml:"name_font"`
	CompanyFont string `yaml:"company_font"`

	// AssetBase overrides DefaultAssetBase (e.g. an https:// site root)
	AssetBase string `yaml:"asset_base"`

	// AvatarBase points avatar lookups at a Gravatar-compatible mirror
	AvatarBase string `yaml:"avatar_base"`
}

// Duration is a time.Duration that unmarshals from strings like "10s".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = v
	return nil
}

// Load reads settings from a YAML file. An empty path returns defaults.
func Load(path string) (*Settings, error) {
	s := &Settings{}
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return s, nil
}

// Validate checks colour strings and timeouts.
func (s *Settings) Validate() error {
	if s.CaptionColor != "" {
		if _, _, _, err := ParseHexColor(s.CaptionColor); err != nil {
			return fmt.Errorf("caption_color: %w", err)
		}
	}
	if s.PlaceholderColor != "" {
		if _, _, _, err := ParseHexColor(s.PlaceholderColor); err != nil {
			return fmt.Errorf("placeholder_color: %w", err)
		}
	}
	if s.FetchTimeout != nil && s.FetchTimeout.Duration < 0 {
		return fmt.Errorf("fetch_timeout must not be negative")
	}
	for i, l := range s.ShareLinks {
		if l.Label == "" || l.Href == "" {
			return fmt.Errorf("share_links[%d]: label and href are required", i)
		}
	}
	return nil
}

// GetCaptionColor returns the caption colour override or the default.
// The override was checked by Validate, so a parse error falls back to the default.
func (s *Settings) GetCaptionColor() (r, g, b uint8) {
	if s.CaptionColor != "" {
		if r, g, b, err := ParseHexColor(s.CaptionColor); err == nil {
			return r, g, b
		}
	}
	return CaptionColorR, CaptionColorG, CaptionColorB
}

// GetPlaceholderColor returns the placeholder colour override or the default.
func (s *Settings) GetPlaceholderColor() (r, g, b uint8) {
	if s.PlaceholderColor != "" {
		if r, g, b, err := ParseHexColor(s.PlaceholderColor); err == nil {
			return r, g, b
		}
	}
	return PlaceholderColorR, PlaceholderColorG, PlaceholderColorB
}

// GetFetchTimeout returns the configured fetch timeout or DefaultFetchTimeout.
func (s *Settings) GetFetchTimeout() time.Duration {
	if s.FetchTimeout != nil {
		return s.FetchTimeout.Duration
	}
	return DefaultFetchTimeout
}

// GetShareMeta returns title, text and url for native sharing.
func (s *Settings) GetShareMeta() (title, text, url string) {
	title, text, url = ShareTitle, ShareText, ShareURL
	if s.Event.Title != "" {
		title = s.Event.Title
	}
	if s.Event.Text != "" {
		text = s.Event.Text
	}
	if s.Event.URL != "" {
		url = s.Event.URL
	}
	return title, text, url
}

// GetShareLinks returns the configured fallback links or DefaultShareLinks.
func (s *Settings) GetShareLinks() []ShareLink {
	if len(s.ShareLinks) > 0 {
		out := make([]ShareLink, len(s.ShareLinks))
		copy(out, s.ShareLinks)
		return out
	}
	return DefaultShareLinks()
}

// GetAssetBase returns the base URL frame paths are resolved against.
func (s *Settings) GetAssetBase() string {
	if s.AssetBase != "" {
		return s.AssetBase
	}
	return DefaultAssetBase
}

// GetAvatarBase returns the avatar service root, ending in a slash.
func (s *Settings) GetAvatarBase() string {
	if s.AvatarBase == "" {
		return AvatarBaseURL
	}
	if !strings.HasSuffix(s.AvatarBase, "/") {
		return s.AvatarBase + "/"
	}
	return s.AvatarBase
}

// ParseHexColor parses "RRGGBB" or "#RRGGBB".
func ParseHexColor(s string) (r, g, b uint8, err error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) != 6 {
		return 0, 0, 0, fmt.Errorf("invalid hex colour %q: want 6 hex digits", s)
	}
	raw, err := hex.DecodeString(h)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid hex colour %q: %w", s, err)
	}
	return raw[0], raw[1], raw[2], nil
}
