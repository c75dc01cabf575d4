package render

import (
	"bytes"
	"errors"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventara/certgen/internal/certdata"
	"github.com/eventara/certgen/internal/common"
)

func canvasData() certdata.CertificateData {
	return certdata.CertificateData{
		certdata.FieldParticipantName: "Jane Doe",
		certdata.FieldEventTitle:      "Launch Day",
		certdata.FieldEventDate:       "January 15, 2025",
		certdata.FieldCertificateCode: "CERT-7K2M9P4X",
		certdata.FieldCertificateURL:  "https://events.example.com/certificates/verify/abc",
		certdata.FieldIssueDate:       "January 16, 2025",
	}
}

func TestCanvasProducesDecodablePNG(t *testing.T) {
	cfg := DefaultCanvasConfig()

	out, err := Canvas(cfg, canvasData())
	require.NoError(t, err)
	require.NotEmpty(t, out)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, cfg.Width, img.Bounds().Dx())
	assert.Equal(t, cfg.Height, img.Bounds().Dy())
}

func TestCanvasDrawsBackgroundAndBorder(t *testing.T) {
	cfg := CanvasConfig{
		Width:      200,
		Height:     100,
		Background: color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
		Borders: []BorderElement{
			{Inset: 10, Thickness: 2, Color: color.RGBA{R: 0xFF, A: 0xFF}},
		},
	}

	out, err := Canvas(cfg, nil)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)

	r, g, b, _ := img.At(5, 5).RGBA()
	assert.Equal(t, []uint32{0xFFFF, 0xFFFF, 0xFFFF}, []uint32{r, g, b}, "outside the frame stays background")

	r, g, b, _ = img.At(10, 10).RGBA()
	assert.Equal(t, []uint32{0xFFFF, 0, 0}, []uint32{r, g, b}, "frame corner carries the border color")

	r, g, b, _ = img.At(100, 50).RGBA()
	assert.Equal(t, []uint32{0xFFFF, 0xFFFF, 0xFFFF}, []uint32{r, g, b}, "inside the frame stays background")
}

func TestCanvasDrawsResolvedText(t *testing.T) {
	white := color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	cfg := CanvasConfig{
		Width:      300,
		Height:     80,
		Background: white,
		Texts: []TextElement{
			{DataField: certdata.FieldParticipantName, X: 10, Y: 10, Align: AlignLeft, Scale: 2, Color: color.RGBA{A: 0xFF}},
		},
	}

	out, err := Canvas(cfg, certdata.CertificateData{certdata.FieldParticipantName: "MMMM"})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)

	var inked bool
	for y := 10; y < 36 && !inked; y++ {
		for x := 10; x < 80 && !inked; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			if r == 0 && g == 0 && b == 0 {
				inked = true
			}
		}
	}
	assert.True(t, inked, "glyph pixels must be drawn in the text box")
}

func TestCanvasMissingFieldFallsBackToLiteral(t *testing.T) {
	te := TextElement{DataField: "absent", Literal: "fallback", Prefix: "pre "}
	assert.Equal(t, "pre fallback", resolveText(te, certdata.CertificateData{}))

	te = TextElement{DataField: "present", Literal: "fallback"}
	assert.Equal(t, "resolved", resolveText(te, certdata.CertificateData{"present": "resolved"}))

	te = TextElement{DataField: "absent"}
	assert.Equal(t, "", resolveText(te, certdata.CertificateData{}), "nothing to draw without value or literal")
}

func TestCanvasSkipsEmptyRuns(t *testing.T) {
	cfg := CanvasConfig{
		Width:      100,
		Height:     40,
		Background: color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
		Texts: []TextElement{
			{DataField: "absent", X: 10, Y: 10, Scale: 1, Color: color.RGBA{A: 0xFF}},
		},
	}

	out, err := Canvas(cfg, certdata.CertificateData{})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)

	for y := 0; y < 40; y++ {
		for x := 0; x < 100; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			require.Equal(t, []uint32{0xFFFF, 0xFFFF, 0xFFFF}, []uint32{r, g, b}, "canvas must stay blank at %d,%d", x, y)
		}
	}
}

func TestCanvasInvalidSize(t *testing.T) {
	_, err := Canvas(CanvasConfig{Width: 0, Height: 100}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrRenderFailed))

	_, err = Canvas(CanvasConfig{Width: 100, Height: -5}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrRenderFailed))
}
