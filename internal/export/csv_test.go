package export

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/leadhunter/internal/leads"
)

func sampleLeads() []leads.Lead {
	return []leads.Lead{
		{ID: "5f0c2a8e-1111-4c1b-9d55-000000000001", Name: "Solar Tech Brasília", Instagram: "https://instagram.com/solartechbsb", WhatsApp: "(61) 99999-1234", Contact: "contato@solartech.com.br", Score: 85},
		{ID: "5f0c2a8e-2222-4c1b-9d55-000000000002", Name: "Energia Verde DF", Website: "https://energiaverde.com.br", WhatsApp: "(61) 98888-5678", Contact: "(61) 3333-0000", Score: 78},
		{ID: "5f0c2a8e-3333-4c1b-9d55-000000000003", Name: "EcoSolar Consultoria", Instagram: "https://instagram.com/ecosolar", Contact: "(61) 97777-9012", Score: 92},
	}
}

func parseCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return records
}

func TestShortCSVScenario(t *testing.T) {
	data, err := EncodeCSV(sampleLeads(), ShortColumns)
	require.NoError(t, err)

	records := parseCSV(t, data)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"Nome da Empresa", "Instagram/Site", "WhatsApp"}, records[0])
	assert.Equal(t, []string{"Solar Tech Brasília", "https://instagram.com/solartechbsb", "(61) 99999-1234"}, records[1])
	assert.Equal(t, []string{"Energia Verde DF", "https://energiaverde.com.br", "(61) 98888-5678"}, records[2])
	assert.Equal(t, []string{"EcoSolar Consultoria", "https://instagram.com/ecosolar", "(61) 97777-9012"}, records[3])

	for _, line := range strings.Split(string(data), "\r\n") {
		assert.True(t, strings.HasPrefix(line, `"`) && strings.HasSuffix(line, `"`), "unquoted record %q", line)
	}
	assert.False(t, strings.HasSuffix(string(data), "\r\n"))
}

func TestShortCSVFallsBackToNA(t *testing.T) {
	data, err := EncodeCSV([]leads.Lead{{ID: "1", Name: "Sem Links"}}, ShortColumns)
	require.NoError(t, err)
	assert.Equal(t, "\"Nome da Empresa\",\"Instagram/Site\",\"WhatsApp\"\r\n\"Sem Links\",\"N/A\",\"N/A\"", string(data))
}

func TestFullCSVRoundTrip(t *testing.T) {
	input := append(sampleLeads(), leads.Lead{
		ID:      "q",
		Name:    `Loja "Sol, Vento" & Cia`,
		Website: "https://example.com/a,b",
		Contact: "linha 1\nlinha 2",
		Score:   0,
	})

	data, err := EncodeCSV(input, FullColumns)
	require.NoError(t, err)

	records := parseCSV(t, data)
	require.Len(t, records, len(input)+1)
	assert.Equal(t, []string{"id", "name", "instagram", "website", "whatsapp", "contact", "score"}, records[0])
	for i, lead := range input {
		want := []string{lead.ID, lead.Name, lead.Instagram, lead.Website, lead.WhatsApp, lead.Contact, strconv.Itoa(lead.Score)}
		assert.Equal(t, want, records[i+1])
	}
}

func TestCSVEscapesEmbeddedQuotes(t *testing.T) {
	data, err := EncodeCSV([]leads.Lead{{ID: "1", Name: `Casa "Solar"`, Contact: "x"}}, ShortColumns)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Casa ""Solar"""`)
	assert.Equal(t, `Casa "Solar"`, parseCSV(t, data)[1][0])
}

func TestCSVIsIdempotentAndDoesNotMutateInput(t *testing.T) {
	input := sampleLeads()
	snapshot := sampleLeads()

	first, err := EncodeCSV(input, FullColumns)
	require.NoError(t, err)
	second, err := EncodeCSV(input, FullColumns)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, snapshot, input)
}

func TestWriteCSVRequiresColumns(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, WriteCSV(&buf, sampleLeads(), nil))
	assert.Zero(t, buf.Len())
}
