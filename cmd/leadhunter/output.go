package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/wolfman30/leadhunter/internal/leads"
	"github.com/wolfman30/leadhunter/internal/profile"
	"gopkg.in/yaml.v3"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#16A34A")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// leadRecord is the json/yaml shape of a lead, with the derived contact links.
type leadRecord struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Instagram   string `json:"instagram,omitempty" yaml:"instagram,omitempty"`
	Website     string `json:"website,omitempty" yaml:"website,omitempty"`
	WhatsApp    string `json:"whatsapp,omitempty" yaml:"whatsapp,omitempty"`
	Contact     string `json:"contact" yaml:"contact"`
	Score       int    `json:"score" yaml:"score"`
	WhatsAppURL string `json:"whatsapp_url,omitempty" yaml:"whatsapp_url,omitempty"`
}

func renderLeads(w io.Writer, format string, rows []leads.Lead) error {
	switch strings.ToLower(format) {
	case "json", "yaml":
		records := make([]leadRecord, 0, len(rows))
		for _, l := range rows {
			records = append(records, leadRecord{
				ID: l.ID, Name: l.Name, Instagram: l.Instagram, Website: l.Website,
				WhatsApp: l.WhatsApp, Contact: l.Contact, Score: l.Score, WhatsAppURL: l.WhatsAppURL(),
			})
		}
		return encode(w, format, records)
	}

	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "Nenhum lead encontrado.")
		return err
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Nome da Empresa", "Instagram/Site", "WhatsApp", "Score").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, l := range rows {
		link := l.PrimaryLink()
		if handle := l.InstagramHandle(); handle != "" {
			link = handle
		}
		t.Row(l.Name, link, l.OutreachNumber(), strconv.Itoa(l.Score))
	}
	_, err := fmt.Fprintln(w, t.String())
	return err
}

func renderProfile(w io.Writer, format string, d profile.Data) error {
	switch strings.ToLower(format) {
	case "json", "yaml":
		return encode(w, format, map[string]string{
			"company_name":     d.CompanyName,
			"company_services": d.CompanyServices,
		})
	}
	_, err := fmt.Fprintf(w, "Empresa:  %s\nServiços: %s\n", d.CompanyName, d.CompanyServices)
	return err
}

func encode(w io.Writer, format string, v any) error {
	if strings.ToLower(format) == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// syncWriter serializes writes from the command, the logger and the notifier.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func newSyncWriter(w io.Writer) *syncWriter {
	return &syncWriter{w: w}
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
