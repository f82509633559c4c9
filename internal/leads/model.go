package leads

import (
	"net/url"
	"strings"
	"unicode"
)

// NotAvailable is shown in place of a missing link or phone.
const NotAvailable = "N/A"

// Lead represents one prospected business returned by the backend.
type Lead struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Instagram string `json:"instagram,omitempty"`
	Website   string `json:"website,omitempty"`
	WhatsApp  string `json:"whatsapp,omitempty"`
	Contact   string `json:"contact"`
	Score     int    `json:"score"`
}

// PrimaryLink returns the instagram URL, else the website, else N/A.
func (l Lead) PrimaryLink() string {
	if l.Instagram != "" {
		return l.Instagram
	}
	if l.Website != "" {
		return l.Website
	}
	return NotAvailable
}

// OutreachNumber returns the WhatsApp number, falling back to the contact string.
func (l Lead) OutreachNumber() string {
	if l.WhatsApp != "" {
		return l.WhatsApp
	}
	if l.Contact != "" {
		return l.Contact
	}
	return NotAvailable
}

// WhatsAppURL builds a wa.me link from the digits of OutreachNumber.
// It returns "" when there are no digits to dial.
func (l Lead) WhatsAppURL() string {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, l.OutreachNumber())
	if digits == "" {
		return ""
	}
	return "https://wa.me/" + digits
}

// InstagramHandle returns "@handle" from the last path segment of the
// instagram URL, or "" when the lead has no instagram.
func (l Lead) InstagramHandle() string {
	raw := strings.TrimSpace(l.Instagram)
	if raw == "" {
		return ""
	}
	path := raw
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		path = u.Path
	}
	path = strings.TrimRight(path, "/")
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		path = path[idx+1:]
	}
	if path == "" {
		return ""
	}
	return "@" + strings.TrimPrefix(path, "@")
}

// Bounds is the inclusive range accepted for SearchConfig.Quantity.
type Bounds struct {
	Min int
	Max int
}

// DefaultBounds matches the slider range offered by the search form.
var DefaultBounds = Bounds{Min: 10, Max: 300}

// Contains reports whether q lies inside the bounds.
func (b Bounds) Contains(q int) bool {
	return q >= b.Min && q <= b.Max
}

// Clamp forces q into the bounds.
func (b Bounds) Clamp(q int) int {
	if q < b.Min {
		return b.Min
	}
	if q > b.Max {
		return b.Max
	}
	return q
}

const (
	// DefaultQuantity is the initial quantity offered by the search form.
	DefaultQuantity = 20
	// DefaultCriteria is the initial low-digital-presence heuristic text.
	DefaultCriteria = "poucos reels, não anuncia, alcance baixo, poucas curtidas em posts"
)

// SearchConfig holds the parameters of one lead-generation request.
type SearchConfig struct {
	Niche           string `json:"niche"`
	Region          string `json:"region"`
	Quantity        int    `json:"quantity"`
	Criteria        string `json:"criteria"`
	IncludeKeywords string `json:"include_keywords,omitempty"`
	ExcludeKeywords string `json:"exclude_keywords,omitempty"`
}

// NewSearchConfig returns a config pre-filled with the form defaults.
func NewSearchConfig(niche, region string) SearchConfig {
	return SearchConfig{
		Niche:    niche,
		Region:   region,
		Quantity: DefaultQuantity,
		Criteria: DefaultCriteria,
	}
}

// Normalized returns a copy with surrounding whitespace removed.
func (c SearchConfig) Normalized() SearchConfig {
	c.Niche = strings.TrimSpace(c.Niche)
	c.Region = strings.TrimSpace(c.Region)
	c.Criteria = strings.TrimSpace(c.Criteria)
	c.IncludeKeywords = strings.TrimSpace(c.IncludeKeywords)
	c.ExcludeKeywords = strings.TrimSpace(c.ExcludeKeywords)
	return c
}

// Validate checks the config before it is dispatched.
func (c SearchConfig) Validate(bounds Bounds) error {
	if strings.TrimSpace(c.Niche) == "" {
		return ErrNicheRequired
	}
	if strings.TrimSpace(c.Region) == "" {
		return ErrRegionRequired
	}
	if !bounds.Contains(c.Quantity) {
		return &QuantityError{Quantity: c.Quantity, Bounds: bounds}
	}
	return nil
}
