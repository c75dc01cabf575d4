package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/eventara/certgen/internal/certdata"
	"github.com/eventara/certgen/internal/common"
)

// Alignment positions a text run relative to its X anchor.
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

// TextElement is one text run on the canvas. When DataField is set the
// resolved value is drawn; if the key is missing from the data the Literal
// serves as fallback text. Prefix is drawn before the value either way.
// Scale is an integer upscale of the bitmap face, minimum 1.
type TextElement struct {
	DataField string
	Literal   string
	Prefix    string
	X, Y      int
	Align     Alignment
	Scale     int
	Color     color.RGBA
}

// BorderElement is a rectangular frame drawn with the given stroke
// thickness.
type BorderElement struct {
	Inset     int
	Thickness int
	Color     color.RGBA
}

// CanvasConfig declares the default-certificate layout: canvas size,
// background, frames and text runs. It carries no behavior.
type CanvasConfig struct {
	Width      int
	Height     int
	Background color.RGBA
	Borders    []BorderElement
	Texts      []TextElement
}

// DefaultCanvasConfig is the layout used for zero-template certificates: a
// framed landscape page with the participant name as the focal line and the
// verification link in the footer.
func DefaultCanvasConfig() CanvasConfig {
	ink := color.RGBA{R: 0x1F, G: 0x2A, B: 0x44, A: 0xFF}
	accent := color.RGBA{R: 0xB8, G: 0x8A, B: 0x2E, A: 0xFF}
	w, h := 1123, 794

	return CanvasConfig{
		Width:      w,
		Height:     h,
		Background: color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
		Borders: []BorderElement{
			{Inset: 20, Thickness: 4, Color: ink},
			{Inset: 32, Thickness: 2, Color: accent},
		},
		Texts: []TextElement{
			{Literal: "CERTIFICATE OF PARTICIPATION", X: w / 2, Y: 110, Align: AlignCenter, Scale: 4, Color: ink},
			{Literal: "This certificate is proudly presented to", X: w / 2, Y: 210, Align: AlignCenter, Scale: 2, Color: ink},
			{DataField: certdata.FieldParticipantName, X: w / 2, Y: 280, Align: AlignCenter, Scale: 5, Color: accent},
			{Literal: "for participating in", X: w / 2, Y: 400, Align: AlignCenter, Scale: 2, Color: ink},
			{DataField: certdata.FieldEventTitle, X: w / 2, Y: 460, Align: AlignCenter, Scale: 4, Color: ink},
			{DataField: certdata.FieldEventDate, X: w / 2, Y: 540, Align: AlignCenter, Scale: 2, Color: ink},
			{DataField: certdata.FieldCertificateCode, Prefix: "Certificate No: ", X: 60, Y: h - 90, Align: AlignLeft, Scale: 2, Color: ink},
			{DataField: certdata.FieldIssueDate, Prefix: "Issued: ", X: w - 60, Y: h - 90, Align: AlignRight, Scale: 2, Color: ink},
			{DataField: certdata.FieldCertificateURL, X: w / 2, Y: h - 50, Align: AlignCenter, Scale: 1, Color: ink},
		},
	}
}

// Canvas draws the declarative element list onto a raster page and returns
// it PNG-encoded.
func Canvas(cfg CanvasConfig, data certdata.CertificateData) ([]byte, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: canvas size %dx%d", common.ErrRenderFailed, cfg.Width, cfg.Height)
	}

	img := image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: cfg.Background}, image.Point{}, draw.Src)

	for _, b := range cfg.Borders {
		drawBorder(img, cfg.Width, cfg.Height, b)
	}

	for _, te := range cfg.Texts {
		drawText(img, te, resolveText(te, data))
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("%w: encode: %w", common.ErrRenderFailed, err)
	}

	return buf.Bytes(), nil
}

func resolveText(te TextElement, data certdata.CertificateData) string {
	text := te.Literal
	if te.DataField != "" {
		if value, ok := data[te.DataField]; ok {
			text = value
		}
	}
	if text == "" {
		return ""
	}
	return te.Prefix + text
}

func drawBorder(img *image.RGBA, w, h int, b BorderElement) {
	src := &image.Uniform{C: b.Color}
	in, t := b.Inset, b.Thickness

	top := image.Rect(in, in, w-in, in+t)
	bottom := image.Rect(in, h-in-t, w-in, h-in)
	left := image.Rect(in, in, in+t, h-in)
	right := image.Rect(w-in-t, in, w-in, h-in)

	for _, r := range []image.Rectangle{top, bottom, left, right} {
		draw.Draw(img, r, src, image.Point{}, draw.Src)
	}
}

func drawText(img *image.RGBA, te TextElement, text string) {
	if text == "" {
		return
	}

	scale := te.Scale
	if scale < 1 {
		scale = 1
	}

	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()
	if width == 0 {
		return
	}
	height := face.Height

	x := te.X
	switch te.Align {
	case AlignCenter:
		x -= width * scale / 2
	case AlignRight:
		x -= width * scale
	}

	if scale == 1 {
		d := font.Drawer{
			Dst:  img,
			Src:  &image.Uniform{C: te.Color},
			Face: face,
			Dot:  fixed.P(x, te.Y+face.Ascent),
		}
		d.DrawString(text)
		return
	}

	// The bitmap face has one size; bigger runs are drawn once and
	// integer-upscaled so glyph edges stay crisp.
	tmp := image.NewRGBA(image.Rect(0, 0, width, height))
	d := font.Drawer{
		Dst:  tmp,
		Src:  &image.Uniform{C: te.Color},
		Face: face,
		Dot:  fixed.P(0, face.Ascent),
	}
	d.DrawString(text)

	target := image.Rect(x, te.Y, x+width*scale, te.Y+height*scale)
	xdraw.NearestNeighbor.Scale(img, target, tmp, tmp.Bounds(), xdraw.Over, nil)
}
