package leads

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeListBareArray(t *testing.T) {
	payload := []byte(`[
		{"id":"123e4567-e89b-12d3-a456-426614174000","name":"Solar Tech Brasília","instagram":"https://instagram.com/solartech_bsb","website":null,"whatsapp":"(61) 99999-1234","contact":"(61) 99999-1234","score":85},
		{"id":"2","name":"Energia Verde DF","website":"https://energiaverde.com.br","contact":"(61) 98888-5678","score":78.4}
	]`)

	got, err := DecodeList(payload)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Solar Tech Brasília", got[0].Name)
	assert.Equal(t, "", got[0].Website)
	assert.Equal(t, 85, got[0].Score)
	assert.Equal(t, "", got[1].Instagram)
	assert.Equal(t, 78, got[1].Score)
}

func TestDecodeListKeepsValuesVerbatim(t *testing.T) {
	got, err := DecodeList([]byte(`[{"id":"7","name":"  Eco Solar ","instagram":" https://instagram.com/eco ","contact":"(61) 9 ","score":50}]`))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "  Eco Solar ", got[0].Name)
	assert.Equal(t, " https://instagram.com/eco ", got[0].Instagram)
	assert.Equal(t, "(61) 9 ", got[0].Contact)
	assert.Equal(t, "@eco", got[0].InstagramHandle())
}

func TestDecodeListEnvelope(t *testing.T) {
	got, err := DecodeList([]byte(`{"leads":[{"id":"a","name":"EcoSolar","contact":"x","score":92}]}`))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 92, got[0].Score)
}

func TestDecodeListEmptyForms(t *testing.T) {
	for _, payload := range []string{"", "null", "[]", "  \n"} {
		got, err := DecodeList([]byte(payload))
		require.NoError(t, err, "payload %q", payload)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	}
}

func TestDecodeListNumericIDAndClampedScore(t *testing.T) {
	got, err := DecodeList([]byte(`[{"id":42,"name":"Sustenta Solar","contact":"c","score":140}]`))
	require.NoError(t, err)
	assert.Equal(t, "42", got[0].ID)
	assert.Equal(t, 100, got[0].Score)
}

func TestDecodeListRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":         `<html>oops</html>`,
		"missing name":     `[{"id":"1","contact":"c"}]`,
		"wrong type":       `[{"id":"1","name":"A","score":"high"}]`,
		"object no leads":  `{"detail":"nope"}`,
		"scalar":           `"leads"`,
		"truncated":        `[{"id":"1","name":"A"`,
		"empty name":       `[{"id":"1","name":""}]`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeList([]byte(payload))
			assert.ErrorIs(t, err, ErrMalformedPayload)
		})
	}
}
