package placeholder

import (
	"archive/zip"
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventara/certgen/internal/logging"
)

func newTestLogger() (*logging.SlogLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return logging.NewSlogLogger(slog.New(h)), &buf
}

func buildArchive(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range entries {
		fw, err := w.Create(name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestTokens(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "simple",
			text: `<a:t>{{participant_name}}</a:t>`,
			want: []string{"participant_name"},
		},
		{
			name: "dedup keeps first occurrence",
			text: `{{event_title}} and {{participant_name}} at {{event_title}}`,
			want: []string{"event_title", "participant_name"},
		},
		{
			name: "inner whitespace trimmed",
			text: `{{ participant_name }} {{	event_title }}`,
			want: []string{"participant_name", "event_title"},
		},
		{
			name: "no matches",
			text: `<a:t>plain slide text</a:t>`,
			want: nil,
		},
		{
			name: "braces inside token not matched",
			text: `{{out{er}}`,
			want: nil,
		},
		{
			name: "whitespace only token dropped",
			text: `{{   }}{{real}}`,
			want: []string{"real"},
		},
		{
			name: "empty input",
			text: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokens(tt.text))
		})
	}
}

func TestScanArchive(t *testing.T) {
	log, _ := newTestLogger()
	s := NewScanner(log)

	data := buildArchive(t, map[string]string{
		"ppt/slides/slide1.xml":             `<a:t>{{participant_name}}</a:t><a:t>{{event_title}}</a:t>`,
		"ppt/slides/slide2.xml":             `<a:t>{{participant_name}}</a:t><a:t>{{certificate_serial}}</a:t>`,
		"ppt/slideLayouts/slideLayout1.xml": `<a:t>{{not_a_slide}}</a:t>`,
		"docProps/app.xml":                  `<Properties>{{ignored_too}}</Properties>`,
	})

	got := s.ScanArchive(context.Background(), data)

	assert.ElementsMatch(t, []string{"participant_name", "event_title", "certificate_serial"}, got)
	assert.NotContains(t, got, "not_a_slide")
	assert.NotContains(t, got, "ignored_too")
}

func TestScanArchiveNoPlaceholders(t *testing.T) {
	log, _ := newTestLogger()
	s := NewScanner(log)

	data := buildArchive(t, map[string]string{
		"ppt/slides/slide1.xml": `<a:t>cover only</a:t>`,
	})

	assert.Empty(t, s.ScanArchive(context.Background(), data))
}

func TestScanArchiveCorruptDegrades(t *testing.T) {
	log, buf := newTestLogger()
	s := NewScanner(log)

	got := s.ScanArchive(context.Background(), []byte("not an archive"))

	assert.Empty(t, got)
	assert.Contains(t, buf.String(), "placeholder scan skipped")
}
