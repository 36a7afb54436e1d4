package analyzer

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	screenshotWidth  = 1024
	screenshotHeight = 640
	screenshotMargin = 20
	lineSpacing      = 6
)

// Screenshot renders the deterministic placeholder image: a dark canvas
// labeled with the target URL. No headless browser is wired in, so the
// output only attests that the screenshot stage ran.
func Screenshot(url string) (string, error) {
	img := image.NewRGBA(image.Rect(0, 0, screenshotWidth, screenshotHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{R: 30, G: 30, B: 30, A: 255}), image.Point{}, draw.Src)

	face := basicfont.Face7x13
	drawer := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{R: 220, G: 220, B: 220, A: 255}),
		Face: face,
	}
	for i, line := range []string{"Screenshot placeholder", url} {
		top := screenshotMargin + i*(face.Height+lineSpacing)
		drawer.Dot = fixed.P(screenshotMargin, top+face.Ascent)
		drawer.DrawString(line)
	}

	buf := &bytes.Buffer{}
	if err := png.Encode(buf, img); err != nil {
		return "", errors.Wrap(err, "encoding png")
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
