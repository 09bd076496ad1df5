package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"strconv"
	"strings"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"golang.org/x/image/colornames"
	_ "golang.org/x/image/webp" // WebP format support

	"album-slideshow/internal/album"
	"album-slideshow/internal/store"
)

const (
	// defaultLongSide is the output long side when the caller requests no
	// dimensions (4K class frame).
	defaultLongSide = 3840
	// defaultHeight/defaultWidth back a zero value on the partially
	// specified paths.
	defaultHeight = 2160
	defaultWidth  = 3840

	blurSigma   = 24
	jpegQuality = 88
)

// ParseAspectRatio parses a "W:H" string, falling back to 16:9 on any
// malformed input.
func ParseAspectRatio(ratio string) (int, int) {
	left, right, found := strings.Cut(ratio, ":")
	if found {
		w, errW := strconv.Atoi(strings.TrimSpace(left))
		h, errH := strconv.Atoi(strings.TrimSpace(right))
		if errW == nil && errH == nil && w > 0 && h > 0 {
			return w, h
		}
	}
	return 16, 9
}

// ResolveOutputSize computes the output canvas dimensions for a render
// request. A zero requested dimension means "unspecified". When both are
// given, the result is the largest rectangle with the target ratio that
// fits inside the requested box; the requested box is only honored exactly
// when it already matches the ratio.
func ResolveOutputSize(reqW, reqH int, ratio string) (int, int) {
	ratioW, ratioH := ParseAspectRatio(ratio)
	target := float64(ratioW) / float64(ratioH)

	roundDim := func(v float64) int {
		n := int(math.Round(v))
		if n < 1 {
			return 1
		}
		return n
	}

	if reqW <= 0 && reqH <= 0 {
		if ratioW >= ratioH {
			return defaultLongSide, roundDim(defaultLongSide / target)
		}
		return roundDim(defaultLongSide * target), defaultLongSide
	}

	if reqW <= 0 {
		height := reqH
		if height <= 0 {
			height = defaultHeight
		}
		return roundDim(float64(height) * target), height
	}

	if reqH <= 0 {
		width := reqW
		if width <= 0 {
			width = defaultWidth
		}
		return width, roundDim(float64(width) / target)
	}

	if float64(reqW)/float64(reqH) >= target {
		return roundDim(float64(reqH) * target), reqH
	}
	return reqW, roundDim(float64(reqW) / target)
}

// decodeImage decodes photo bytes with EXIF auto-orientation, shrinking
// oversized sources at decode time when libvips is available.
func decodeImage(data []byte) (image.Image, error) {
	if img, ok := decodeShrunk(data); ok {
		return img, nil
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode photo: %w", err)
	}
	return img, nil
}

// isPortraitDims classifies declared dimensions. The second return value is
// false when the metadata is absent or invalid.
func isPortraitDims(width, height int) (bool, bool) {
	if width <= 0 || height <= 0 {
		return false, false
	}
	return height >= width, true
}

// isPortraitImage classifies decoded pixel dimensions.
func isPortraitImage(img image.Image) bool {
	bounds := img.Bounds()
	return bounds.Dy() > bounds.Dx()
}

// itemIsPortrait classifies an item, preferring declared metadata over the
// decoded image. Items with neither default to landscape.
func itemIsPortrait(item album.MediaItem, img image.Image) bool {
	if portrait, ok := isPortraitDims(item.Width, item.Height); ok {
		return portrait
	}
	if img != nil {
		return isPortraitImage(img)
	}
	return false
}

// fillCover scales the source to fully cover the target and center-crops
// to the exact target size.
func fillCover(img image.Image, width, height int) image.Image {
	return imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos)
}

// containScale uniformly scales the source to fit inside the target box.
// Unlike imaging.Fit this also scales up small sources.
func containScale(img image.Image, width, height int) image.Image {
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW <= 0 || srcH <= 0 {
		return imaging.Resize(img, width, height, imaging.Lanczos)
	}

	scale := math.Min(float64(width)/float64(srcW), float64(height)/float64(srcH))
	newW := int(float64(srcW) * scale)
	newH := int(float64(srcH) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}
	return imaging.Resize(img, newW, newH, imaging.Lanczos)
}

// fillContain scales the source to fit fully inside the target and centers
// it on a black canvas of the exact target size.
func fillContain(img image.Image, width, height int) image.Image {
	canvas := imaging.New(width, height, color.NRGBA{0, 0, 0, 255})
	return imaging.PasteCenter(canvas, containScale(img, width, height))
}

// fillBlur renders a blurred cover-filled background with the contain-scaled
// source centered on top, avoiding hard padding color entirely.
func fillBlur(img image.Image, width, height int) image.Image {
	background := imaging.Blur(fillCover(img, width, height), blurSigma)
	return imaging.PasteCenter(background, containScale(img, width, height))
}

// renderByFill applies the selected fill strategy.
func renderByFill(img image.Image, mode store.FillMode, width, height int) image.Image {
	switch mode {
	case store.FillContain:
		return fillContain(img, width, height)
	case store.FillBlur:
		return fillBlur(img, width, height)
	default:
		return fillCover(img, width, height)
	}
}

// composePair renders two photos into one frame, stacked on a portrait
// canvas or side-by-side on a landscape one, separated by a divider filled
// with dividerFill.
func composePair(first, second image.Image, width, height int, mode store.FillMode, portraitCanvas bool, dividerPx int, dividerFill color.NRGBA) *image.NRGBA {
	if dividerPx < 0 {
		dividerPx = 0
	}
	canvas := imaging.New(width, height, dividerFill)

	if portraitCanvas {
		topH := (height - dividerPx) / 2
		if topH < 1 {
			topH = 1
		}
		bottomH := height - dividerPx - topH
		if bottomH < 1 {
			bottomH = 1
		}
		canvas = imaging.Paste(canvas, renderByFill(first, mode, width, topH), image.Pt(0, 0))
		canvas = imaging.Paste(canvas, renderByFill(second, mode, width, bottomH), image.Pt(0, topH+dividerPx))
		return canvas
	}

	leftW := (width - dividerPx) / 2
	if leftW < 1 {
		leftW = 1
	}
	rightW := width - dividerPx - leftW
	if rightW < 1 {
		rightW = 1
	}
	canvas = imaging.Paste(canvas, renderByFill(first, mode, leftW, height), image.Pt(0, 0))
	canvas = imaging.Paste(canvas, renderByFill(second, mode, rightW, height), image.Pt(leftW+dividerPx, 0))
	return canvas
}

// transparentAliases are divider color strings meaning "no divider",
// compared after lowercasing and stripping all whitespace.
var transparentAliases = map[string]bool{
	"transparent":   true,
	"none":          true,
	"clear":         true,
	"rgba(0,0,0,0)": true,
}

// ParseDividerColor resolves a divider color string. The second return
// value is true for the transparent aliases; unparseable strings fall back
// to opaque white.
func ParseDividerColor(s string) (color.NRGBA, bool) {
	raw := strings.ToLower(strings.TrimSpace(s))
	compact := strings.ReplaceAll(raw, " ", "")
	if transparentAliases[compact] {
		return color.NRGBA{0, 0, 0, 0}, true
	}

	if c, ok := parseHexColor(raw); ok {
		return c, false
	}
	if c, ok := colornames.Map[raw]; ok {
		return color.NRGBA{c.R, c.G, c.B, 255}, false
	}
	return color.NRGBA{255, 255, 255, 255}, false
}

// parseHexColor parses #rgb and #rrggbb forms.
func parseHexColor(s string) (color.NRGBA, bool) {
	if !strings.HasPrefix(s, "#") {
		return color.NRGBA{}, false
	}
	hex := s[1:]

	switch len(hex) {
	case 3:
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.NRGBA{}, false
		}
		r := uint8(v >> 8 & 0xf)
		g := uint8(v >> 4 & 0xf)
		b := uint8(v & 0xf)
		return color.NRGBA{r * 17, g * 17, b * 17, 255}, true
	case 6:
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.NRGBA{}, false
		}
		return color.NRGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 255}, true
	default:
		return color.NRGBA{}, false
	}
}

// EncodeFrame encodes the composed frame: PNG when transparency must
// survive, JPEG at fixed high quality otherwise.
func EncodeFrame(img image.Image, hasAlpha bool) ([]byte, error) {
	var buf bytes.Buffer

	if hasAlpha {
		encoder := png.Encoder{CompressionLevel: png.BestCompression}
		if err := encoder.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("failed to encode PNG frame: %w", err)
		}
		return buf.Bytes(), nil
	}

	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG frame: %w", err)
	}
	return buf.Bytes(), nil
}
