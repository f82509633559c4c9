package export

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/leadhunter/pkg/logging"
)

type recordingSink struct {
	writes []sinkWrite
	err    error
}

type sinkWrite struct {
	name        string
	contentType string
	data        []byte
}

func (r *recordingSink) Write(_ context.Context, name, contentType string, data []byte) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	r.writes = append(r.writes, sinkWrite{name: name, contentType: contentType, data: data})
	return "mem://" + name, nil
}

func fixedClock() time.Time {
	return time.Date(2025, time.March, 9, 23, 30, 0, 0, time.FixedZone("BRT", -3*3600))
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "leads-2025-03-10.csv", Filename(KindResultsCSV, fixedClock()))
	assert.Equal(t, "leads_historico.csv", Filename(KindHistoryCSV, fixedClock()))
	assert.Equal(t, "leads_historico.pdf", Filename(KindHistoryPDF, fixedClock()))
	assert.Empty(t, Filename(Kind("zip"), fixedClock()))
}

func TestExportEmptyIsNoop(t *testing.T) {
	sink := &recordingSink{}
	exp := NewExporter(sink, WithLogger(logging.Discard()))

	for _, kind := range []Kind{KindResultsCSV, KindHistoryCSV, KindHistoryPDF} {
		_, err := exp.Export(context.Background(), kind, nil)
		assert.ErrorIs(t, err, ErrNothingToExport)
	}
	assert.Empty(t, sink.writes)
}

func TestExportWritesThroughSink(t *testing.T) {
	sink := &recordingSink{}
	exp := NewExporter(sink, WithClock(fixedClock), WithLogger(logging.Discard()))

	res, err := exp.Export(context.Background(), KindResultsCSV, sampleLeads())
	require.NoError(t, err)
	assert.Equal(t, "leads-2025-03-10.csv", res.Filename)
	assert.Equal(t, "mem://leads-2025-03-10.csv", res.Location)
	assert.Equal(t, 3, res.Count)

	_, err = exp.Export(context.Background(), KindHistoryPDF, sampleLeads())
	require.NoError(t, err)

	require.Len(t, sink.writes, 2)
	assert.Equal(t, contentTypeCSV, sink.writes[0].contentType)
	assert.Equal(t, contentTypePDF, sink.writes[1].contentType)

	want, err := EncodeCSV(sampleLeads(), ShortColumns)
	require.NoError(t, err)
	assert.Equal(t, want, sink.writes[0].data)
}

func TestExportSinkFailure(t *testing.T) {
	exp := NewExporter(&recordingSink{err: errors.New("disk full")}, WithLogger(logging.Discard()))
	_, err := exp.Export(context.Background(), KindHistoryCSV, sampleLeads())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestExportUnknownKind(t *testing.T) {
	sink := &recordingSink{}
	_, err := NewExporter(sink, WithLogger(logging.Discard())).Export(context.Background(), Kind("xlsx"), sampleLeads())
	assert.Error(t, err)
	assert.Empty(t, sink.writes)
}

func TestDirSinkWritesAtomically(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	sink := NewDirSink(dir)

	path, err := sink.Write(context.Background(), "leads_historico.csv", contentTypeCSV, []byte("a"))
	require.NoError(t, err)
	path, err = sink.Write(context.Background(), "leads_historico.csv", contentTypeCSV, []byte("b"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "b", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files must not be left behind")
	assert.Equal(t, "leads_historico.csv", entries[0].Name())
}

func TestDirSinkHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewDirSink(t.TempDir()).Write(ctx, "x.csv", contentTypeCSV, []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

type mockS3Client struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.input = input
	m.body, _ = io.ReadAll(input.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestS3SinkPutsObjectUnderPrefix(t *testing.T) {
	client := &mockS3Client{}
	sink := NewS3Sink(client, "exports-bucket", "/exports/")

	loc, err := sink.Write(context.Background(), "leads_historico.pdf", contentTypePDF, []byte("%PDF-1.3"))
	require.NoError(t, err)

	assert.Equal(t, "s3://exports-bucket/exports/leads_historico.pdf", loc)
	assert.Equal(t, "exports-bucket", *client.input.Bucket)
	assert.Equal(t, "exports/leads_historico.pdf", *client.input.Key)
	assert.Equal(t, contentTypePDF, *client.input.ContentType)
	assert.Equal(t, "%PDF-1.3", string(client.body))
}

func TestS3SinkErrors(t *testing.T) {
	_, err := NewS3Sink(nil, "bucket", "").Write(context.Background(), "a.csv", contentTypeCSV, nil)
	assert.Error(t, err)

	_, err = NewS3Sink(&mockS3Client{err: errors.New("access denied")}, "bucket", "").Write(context.Background(), "a.csv", contentTypeCSV, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}
