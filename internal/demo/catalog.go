package demo

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/wolfman30/leadhunter/internal/leads"
)

// catalog is the fixed set of businesses the demo backend hands out.
var catalog = []leads.Lead{
	{
		Name:      "Solar Tech Brasília",
		Instagram: "https://instagram.com/solartech_bsb",
		WhatsApp:  "(61) 99999-1234",
		Contact:   "(61) 99999-1234",
		Score:     85,
	},
	{
		Name:     "Energia Verde DF",
		Website:  "https://energiaverde.com.br",
		WhatsApp: "(61) 98888-5678",
		Contact:  "(61) 98888-5678",
		Score:    78,
	},
	{
		Name:      "EcoSolar Consultoria",
		Instagram: "https://instagram.com/ecosolar_consultoria",
		WhatsApp:  "(61) 97777-9012",
		Contact:   "(61) 97777-9012",
		Score:     92,
	},
	{
		Name:     "Sustenta Solar",
		Website:  "https://sustentasolar.com.br",
		WhatsApp: "(61) 96666-3456",
		Contact:  "(61) 96666-3456",
		Score:    73,
	},
}

var nicheWord = regexp.MustCompile(`Solar|Energia|Eco`)

// generate tailors the catalog to cfg: the first niche-like word of each name
// becomes the first word of the requested niche, and at most cfg.Quantity
// leads are returned. Every lead gets a fresh id.
func generate(cfg leads.SearchConfig) []leads.Lead {
	replacement := "Solar"
	if fields := strings.Fields(cfg.Niche); len(fields) > 0 {
		replacement = fields[0]
	}
	n := max(min(cfg.Quantity, len(catalog)), 0)
	out := make([]leads.Lead, 0, n)
	for _, lead := range catalog[:n] {
		replaced := false
		lead.Name = nicheWord.ReplaceAllStringFunc(lead.Name, func(match string) string {
			if replaced {
				return match
			}
			replaced = true
			return replacement
		})
		lead.ID = uuid.NewString()
		out = append(out, lead)
	}
	return out
}
