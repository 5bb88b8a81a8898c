// Package images stores uploaded member and employee photos.
//
// Every accepted upload is decoded, rotated according to its EXIF
// orientation, flattened onto white, downscaled so its longest edge fits the
// configured maximum and re-encoded as JPEG under a random name.
package images

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

var (
	ErrEmpty           = errors.New("image is empty")
	ErrTooLarge        = errors.New("image exceeds the upload size limit")
	ErrUnsupportedType = errors.New("unsupported image type")
	// ErrUndecodable is returned for formats that are accepted by extension
	// but have no decoder (HEIC/HEIF).
	ErrUndecodable = errors.New("image format cannot be decoded")
)

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".heic": true,
	".heif": true,
}

// AllowedExtension reports whether filename has an accepted image extension.
func AllowedExtension(filename string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// Normalize converts raw image bytes into a JPEG whose longest edge is at
// most maxDimension pixels (no limit when maxDimension <= 0).
func Normalize(data []byte, filename string, maxDimension, quality int) ([]byte, error) {
	img, err := decode(data, filename)
	if err != nil {
		return nil, err
	}

	out := flatten(img, maxDimension)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func decode(data []byte, filename string) (image.Image, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == ".heic" || ext == ".heif" {
		return nil, fmt.Errorf("%s: %w", ext, ErrUndecodable)
	}
	if !allowedExtensions[ext] {
		return nil, fmt.Errorf("extension %q: %w", ext, ErrUnsupportedType)
	}

	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	contentType := http.DetectContentType(head)

	var (
		img image.Image
		err error
	)
	switch contentType {
	case "image/jpeg", "image/png", "image/gif":
		img, err = imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	case "image/webp":
		img, err = webp.Decode(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("content type %s: %w", contentType, ErrUnsupportedType)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", contentType, ErrUnsupportedType)
	}
	return img, nil
}

// flatten draws src onto an opaque white canvas, scaling it down with
// Catmull-Rom when its longest edge exceeds maxDimension.
func flatten(src image.Image, maxDimension int) image.Image {
	b := src.Bounds()
	w, h := scaledSize(b.Dx(), b.Dy(), maxDimension)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

func scaledSize(w, h, maxDimension int) (int, int) {
	longest := w
	if h > longest {
		longest = h
	}
	if maxDimension <= 0 || longest <= maxDimension {
		return w, h
	}
	nw := w * maxDimension / longest
	nh := h * maxDimension / longest
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	return nw, nh
}

// readLimited reads r fully, failing with ErrTooLarge past maxBytes.
func readLimited(r io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}
