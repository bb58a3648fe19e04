package diaryengine

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	ogWidth  = 1200
	ogHeight = 630
	iconSize = 192

	// Share of the canvas width the scaled text may take.
	textWidthRatio = 0.7
)

var (
	brandColor       = color.RGBA{R: 0x0e, G: 0x74, B: 0x90, A: 0xff}
	placeholderColor = color.RGBA{R: 0xe5, G: 0xe7, B: 0xeb, A: 0xff}
	inkColor         = color.RGBA{R: 0x6b, G: 0x72, B: 0x80, A: 0xff}
)

var (
	iconPNG = sync.OnceValues(func() ([]byte, error) {
		return renderBanner(iconSize, iconSize, brandColor, "W")
	})
	placeholderPNG = sync.OnceValues(func() ([]byte, error) {
		return renderImage(400, 300, placeholderColor, inkColor, "Image unavailable")
	})
)

// renderBanner draws white text centred on a solid background.
func renderBanner(w, h int, bg color.Color, text string) ([]byte, error) {
	return renderImage(w, h, bg, color.White, text)
}

// renderImage draws text with the 7x13 bitmap face onto a small canvas and
// scales it up onto a w×h PNG, keeping the glyphs' aspect ratio.
func renderImage(w, h int, bg, fg color.Color, text string) ([]byte, error) {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	if text != "" {
		face := basicfont.Face7x13
		tw := font.MeasureString(face, text).Ceil()
		th := face.Metrics().Height.Ceil()
		small := image.NewRGBA(image.Rect(0, 0, tw, th))
		d := &font.Drawer{
			Dst:  small,
			Src:  image.NewUniform(fg),
			Face: face,
			Dot:  fixed.P(0, face.Metrics().Ascent.Ceil()),
		}
		d.DrawString(text)

		scale := float64(w) * textWidthRatio / float64(tw)
		if s := float64(h) * textWidthRatio / float64(th); s < scale {
			scale = s
		}
		sw, sh := int(float64(tw)*scale), int(float64(th)*scale)
		x0, y0 := (w-sw)/2, (h-sh)/2
		draw.CatmullRom.Scale(dst, image.Rect(x0, y0, x0+sw, y0+sh), small, small.Bounds(), draw.Over, nil)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func servePNG(c echo.Context, render func() ([]byte, error)) error {
	data, err := render()
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "image/png", data)
}

func (a *App) handleOGImage(c echo.Context) error {
	return servePNG(c, a.ogImage)
}

func handleIcon(c echo.Context) error {
	return servePNG(c, iconPNG)
}

func handleFavicon(c echo.Context) error {
	return servePNG(c, iconPNG)
}

func handlePlaceholder(c echo.Context) error {
	return servePNG(c, placeholderPNG)
}
