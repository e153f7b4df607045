// Package cover normalizes uploaded book cover images to the fixed canvas
// the catalog embeds.
package cover

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	_ "image/gif"
	_ "image/jpeg"

	"golang.org/x/image/draw"
)

// Canvas dimensions every stored cover is scaled to.
const (
	Width  = 200
	Height = 300
)

// Normalize decodes an uploaded image, scales it onto a 200x300 canvas and
// returns the result as base64-encoded PNG.
func Normalize(data []byte) (string, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode cover image: %w", err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, Width, Height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return "", fmt.Errorf("encode cover image: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
