package archivex

import (
	"archive/zip"
	"bytes"
	"compress/flate"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventara/certgen/internal/common"
)

func buildZip(t *testing.T, entries []Entry) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, e := range entries {
		fw, err := w.Create(e.Name)
		require.NoError(t, err)
		_, err = fw.Write(e.Data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestIsSlideEntry(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"ppt/slides/slide1.xml", true},
		{"ppt/slides/slide42.xml", true},
		{"ppt/slides/slide.xml", false},
		{"ppt/slides/slide1.xml.rels", false},
		{"ppt/slideLayouts/slideLayout1.xml", false},
		{"ppt/slides/_rels/slide1.xml.rels", false},
		{"docProps/app.xml", false},
		{"PPT/SLIDES/SLIDE1.XML", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSlideEntry(tt.name))
		})
	}
}

func TestUnpackCorrupt(t *testing.T) {
	_, err := Unpack([]byte("this is not a zip container"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrArchiveCorrupt))

	_, err = Unpack(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrArchiveCorrupt))
}

func TestUnpackPackRoundTrip(t *testing.T) {
	src := []Entry{
		{Name: "[Content_Types].xml", Data: []byte(`<Types/>`)},
		{Name: "ppt/slides/slide1.xml", Data: []byte(`<sld>{{participant_name}}</sld>`)},
		{Name: "ppt/media/image1.png", Data: []byte{0x89, 0x50, 0x4E, 0x47, 0x00, 0x01}},
		{Name: "ppt/slides/slide2.xml", Data: []byte(`<sld>second</sld>`)},
	}

	a, err := Unpack(buildZip(t, src))
	require.NoError(t, err)

	packed, err := a.Pack(DefaultCompressionLevel)
	require.NoError(t, err)

	out, err := Unpack(packed)
	require.NoError(t, err)

	require.Len(t, out.Entries(), len(src))
	for i, e := range out.Entries() {
		assert.Equal(t, src[i].Name, e.Name, "entry order must survive the round trip")
		assert.Equal(t, src[i].Data, e.Data)
	}
}

func TestSetEntryRewritesOnlyTarget(t *testing.T) {
	src := []Entry{
		{Name: "ppt/slides/slide1.xml", Data: []byte(`<sld>{{event_name}}</sld>`)},
		{Name: "ppt/media/image1.png", Data: []byte{0xDE, 0xAD, 0xBE, 0xEF}},
	}

	a, err := Unpack(buildZip(t, src))
	require.NoError(t, err)

	a.SetEntry("ppt/slides/slide1.xml", []byte(`<sld>Go Conference</sld>`))
	a.SetEntry("ppt/slides/slide99.xml", []byte(`must be ignored`))

	packed, err := a.Pack(flate.BestSpeed)
	require.NoError(t, err)

	out, err := Unpack(packed)
	require.NoError(t, err)
	require.Len(t, out.Entries(), 2)

	data, ok := out.Get("ppt/slides/slide1.xml")
	require.True(t, ok)
	assert.Equal(t, []byte(`<sld>Go Conference</sld>`), data)

	data, ok = out.Get("ppt/media/image1.png")
	require.True(t, ok)
	assert.Equal(t, src[1].Data, data, "untouched entries pass through unmodified")

	_, ok = out.Get("ppt/slides/slide99.xml")
	assert.False(t, ok)
}

func TestSlideEntriesOrder(t *testing.T) {
	src := []Entry{
		{Name: "docProps/core.xml", Data: []byte(`<core/>`)},
		{Name: "ppt/slides/slide2.xml", Data: []byte(`<b/>`)},
		{Name: "ppt/slides/slide1.xml", Data: []byte(`<a/>`)},
		{Name: "ppt/theme/theme1.xml", Data: []byte(`<t/>`)},
	}

	a, err := Unpack(buildZip(t, src))
	require.NoError(t, err)

	assert.Equal(t, []string{"ppt/slides/slide2.xml", "ppt/slides/slide1.xml"}, a.SlideEntries())
}

func TestGetMissing(t *testing.T) {
	a, err := Unpack(buildZip(t, []Entry{{Name: "a.xml", Data: []byte("x")}}))
	require.NoError(t, err)

	_, ok := a.Get("b.xml")
	assert.False(t, ok)
}

func TestPackEmptyArchive(t *testing.T) {
	a, err := Unpack(buildZip(t, nil))
	require.NoError(t, err)

	packed, err := a.Pack(DefaultCompressionLevel)
	require.NoError(t, err)

	r, err := zip.NewReader(bytes.NewReader(packed), int64(len(packed)))
	require.NoError(t, err)
	assert.Empty(t, r.File)
}

func TestUnpackLargeEntry(t *testing.T) {
	big := bytes.Repeat([]byte("certificate "), 4096)
	a, err := Unpack(buildZip(t, []Entry{{Name: "ppt/slides/slide1.xml", Data: big}}))
	require.NoError(t, err)

	got, ok := a.Get("ppt/slides/slide1.xml")
	require.True(t, ok)
	require.True(t, bytes.Equal(big, got))

	packed, err := a.Pack(flate.BestCompression)
	require.NoError(t, err)
	assert.Less(t, len(packed), len(big), "deflate should shrink repetitive xml")
}
