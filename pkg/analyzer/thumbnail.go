package analyzer

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/png"

	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	_ "image/gif"
	_ "image/jpeg"
)

// Thumbnails downloads up to MaxThumbnails of the given images concurrently
// and returns base64 PNG thumbnails in input order. Images that fail to
// download or decode are skipped, never fatal.
func (a *Analyzer) Thumbnails(ctx context.Context, imageURLs []string) []string {
	urls := imageURLs
	if len(urls) > a.cfg.MaxThumbnails {
		urls = urls[:a.cfg.MaxThumbnails]
	}

	results := make([]string, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	for i, url := range urls {
		i, url := i, url
		g.Go(func() error {
			thumb, err := a.thumbnail(gctx, url)
			if err != nil {
				level.Debug(a.logger).Log("msg", "skipping thumbnail", "url", url, "err", err)
				return nil
			}
			results[i] = thumb
			return nil
		})
	}
	_ = g.Wait()

	thumbs := make([]string, 0, len(results))
	for _, thumb := range results {
		if thumb != "" {
			thumbs = append(thumbs, thumb)
		}
	}
	return thumbs
}

func (a *Analyzer) thumbnail(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.ImageTimeout)
	defer cancel()

	raw, err := a.fetcher.Bytes(ctx, url)
	if err != nil {
		return "", err
	}

	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", errors.Wrap(err, "decoding image")
	}

	buf := &bytes.Buffer{}
	if err := png.Encode(buf, shrink(src, a.cfg.ThumbnailSize)); err != nil {
		return "", errors.Wrap(err, "encoding png")
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// shrink scales src so its larger dimension is at most size, preserving the
// aspect ratio. Images already within bounds are returned untouched.
func shrink(src image.Image, size int) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= size && h <= size {
		return src
	}

	scale := float64(size) / float64(w)
	if h > w {
		scale = float64(size) / float64(h)
	}
	dw := int(float64(w) * scale)
	if dw < 1 {
		dw = 1
	}
	dh := int(float64(h) * scale)
	if dh < 1 {
		dh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst
}
