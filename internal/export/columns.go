package export

import (
	"strconv"

	"github.com/wolfman30/leadhunter/internal/leads"
)

// Column projects one field of a lead into a CSV cell.
type Column struct {
	Header string
	Value  func(leads.Lead) string
}

// ShortColumns is the projection used when exporting live search results.
var ShortColumns = []Column{
	{Header: "Nome da Empresa", Value: func(l leads.Lead) string { return l.Name }},
	{Header: "Instagram/Site", Value: leads.Lead.PrimaryLink},
	{Header: "WhatsApp", Value: leads.Lead.OutreachNumber},
}

// FullColumns dumps every lead field in declaration order.
var FullColumns = []Column{
	{Header: "id", Value: func(l leads.Lead) string { return l.ID }},
	{Header: "name", Value: func(l leads.Lead) string { return l.Name }},
	{Header: "instagram", Value: func(l leads.Lead) string { return l.Instagram }},
	{Header: "website", Value: func(l leads.Lead) string { return l.Website }},
	{Header: "whatsapp", Value: func(l leads.Lead) string { return l.WhatsApp }},
	{Header: "contact", Value: func(l leads.Lead) string { return l.Contact }},
	{Header: "score", Value: func(l leads.Lead) string { return strconv.Itoa(l.Score) }},
}
