// Package thumb renders the small PNG previews stored with File items.
package thumb

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // decoder registration
	_ "image/jpeg" // decoder registration
	"image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp" // decoder registration
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/tiff" // decoder registration
	_ "golang.org/x/image/webp" // decoder registration
)

// Size is the edge length of the square thumbnail box.
const Size = 128

const maxLabelRunes = 14

// maxPixels bounds the images FromFile decodes. Compression ratios make the
// file size a poor proxy for the decoded buffer.
var maxPixels = 40_000_000

var (
	tileBackground = color.RGBA{0xe8, 0xe8, 0xec, 0xff}
	tileBorder     = color.RGBA{0xb0, 0xb0, 0xb8, 0xff}
	tileInk        = color.RGBA{0x40, 0x40, 0x48, 0xff}
)

// FromFile returns a PNG thumbnail for the file at path. Decodable images are
// scaled to fit Size×Size; anything else, including files larger than maxBytes
// (when maxBytes > 0) or with more than 40 megapixels, gets a generic tile
// labelled with the file extension.
// An error means the path could not be read and no thumbnail exists.
func FromFile(path string, maxBytes int64) ([]byte, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("thumb: %w", err)
	}
	if fi.IsDir() {
		return encode(Tile("FOLDER"))
	}
	label := extLabel(path)
	if maxBytes > 0 && fi.Size() > maxBytes {
		return encode(Tile(label))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("thumb: %w", err)
	}
	if w, h, ok := Dimensions(data); ok && w*h > maxPixels {
		return encode(Tile(label))
	}
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		return encode(Scale(img))
	}
	return encode(Tile(label))
}

// Dimensions reports the pixel size of encoded image data without decoding
// the pixels.
func Dimensions(data []byte) (w, h int, ok bool) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, false
	}
	return cfg.Width, cfg.Height, true
}

// Scale fits src inside Size×Size keeping its aspect ratio. Images that
// already fit are copied unscaled.
func Scale(src image.Image) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > Size || h > Size {
		if w >= h {
			h = max(1, h*Size/w)
			w = Size
		} else {
			w = max(1, w*Size/h)
			h = Size
		}
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

// Tile draws the generic Size×Size placeholder with label centred on it.
func Tile(label string) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, Size, Size))
	draw.Draw(img, img.Bounds(), image.NewUniform(tileBorder), image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(2, 2, Size-2, Size-2), image.NewUniform(tileBackground), image.Point{}, draw.Src)

	if r := []rune(label); len(r) > maxLabelRunes {
		label = string(r[:maxLabelRunes])
	}
	face := basicfont.Face7x13
	d := &font.Drawer{Dst: img, Src: image.NewUniform(tileInk), Face: face}
	width := d.MeasureString(label).Ceil()
	x := (Size - width) / 2
	y := (Size + face.Ascent - face.Descent) / 2
	d.Dot = fixed.P(x, y)
	d.DrawString(label)
	return img
}

func extLabel(path string) string {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "FILE"
	}
	return strings.ToUpper(ext)
}

func encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("thumb: encode: %w", err)
	}
	return buf.Bytes(), nil
}
