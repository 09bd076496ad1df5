package render

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"

	"album-slideshow/internal/album"
	"album-slideshow/internal/store"
)

func TestParseAspectRatio(t *testing.T) {
	tests := []struct {
		input string
		wantW int
		wantH int
	}{
		{"16:9", 16, 9},
		{"4:3", 4, 3},
		{"9 : 16", 9, 16},
		{"1:1", 1, 1},
		{"garbage", 16, 9},
		{"0:9", 16, 9},
		{"16:-9", 16, 9},
		{"", 16, 9},
		{"16", 16, 9},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			w, h := ParseAspectRatio(tt.input)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("ParseAspectRatio(%q) = %d:%d, want %d:%d", tt.input, w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestResolveOutputSize(t *testing.T) {
	tests := []struct {
		name  string
		reqW  int
		reqH  int
		ratio string
		wantW int
		wantH int
	}{
		{"unspecified 16:9", 0, 0, "16:9", 3840, 2160},
		{"unspecified 9:16", 0, 0, "9:16", 2160, 3840},
		{"unspecified 1:1", 0, 0, "1:1", 3840, 3840},
		{"width only 4:3", 1000, 0, "4:3", 1000, 750},
		{"height only 1:1", 0, 800, "1:1", 800, 800},
		{"height only 16:9", 0, 720, "16:9", 1280, 720},
		{"exact box", 1920, 1080, "16:9", 1920, 1080},
		{"box wider than ratio", 2000, 1080, "16:9", 1920, 1080},
		{"box taller than ratio", 1920, 2000, "16:9", 1920, 1080},
		{"malformed ratio falls back", 0, 0, "wat", 3840, 2160},
		{"rounds to nearest", 0, 101, "16:9", 180, 101},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := ResolveOutputSize(tt.reqW, tt.reqH, tt.ratio)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("ResolveOutputSize(%d, %d, %q) = (%d, %d), want (%d, %d)",
					tt.reqW, tt.reqH, tt.ratio, w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestOrientationClassification(t *testing.T) {
	portraitImg := imaging.New(100, 200, color.NRGBA{10, 10, 10, 255})
	landscapeImg := imaging.New(200, 100, color.NRGBA{10, 10, 10, 255})

	tests := []struct {
		name string
		item album.MediaItem
		img  image.Image
		want bool
	}{
		{"metadata portrait", album.MediaItem{Width: 1080, Height: 1920}, landscapeImg, true},
		{"metadata landscape", album.MediaItem{Width: 1920, Height: 1080}, portraitImg, false},
		{"metadata square counts as portrait", album.MediaItem{Width: 500, Height: 500}, landscapeImg, true},
		{"missing metadata uses pixels", album.MediaItem{}, portraitImg, true},
		{"partial metadata uses pixels", album.MediaItem{Width: 1920}, portraitImg, true},
		{"square pixels count as landscape", album.MediaItem{}, imaging.New(300, 300, color.NRGBA{}), false},
		{"nothing defaults to landscape", album.MediaItem{}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := itemIsPortrait(tt.item, tt.img); got != tt.want {
				t.Errorf("itemIsPortrait = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFillModesProduceExactTargetSize(t *testing.T) {
	portrait := imaging.New(100, 200, color.NRGBA{200, 40, 40, 255})

	modes := []store.FillMode{store.FillCover, store.FillContain, store.FillBlur}
	for _, mode := range modes {
		t.Run(string(mode), func(t *testing.T) {
			out := renderByFill(portrait, mode, 320, 180)
			b := out.Bounds()
			if b.Dx() != 320 || b.Dy() != 180 {
				t.Errorf("%s output = %dx%d, want 320x180", mode, b.Dx(), b.Dy())
			}
		})
	}
}

func TestContainLetterboxesWithBlackBars(t *testing.T) {
	// A solid red portrait source on a landscape canvas: the side bars must
	// be black and the center must keep the source color.
	src := imaging.New(100, 200, color.NRGBA{255, 0, 0, 255})
	out := fillContain(src, 400, 200)

	r, g, b, _ := out.At(2, 100).RGBA()
	if r != 0 || g != 0 || b != 0 {
		t.Errorf("letterbox bar pixel = (%d, %d, %d), want black", r>>8, g>>8, b>>8)
	}

	r, _, _, _ = out.At(200, 100).RGBA()
	if r>>8 < 200 {
		t.Errorf("center pixel red channel = %d, want close to 255", r>>8)
	}
}

func TestContainUpscalesSmallSources(t *testing.T) {
	src := imaging.New(40, 30, color.NRGBA{0, 255, 0, 255})
	out := containScale(src, 400, 300)

	b := out.Bounds()
	if b.Dx() != 400 || b.Dy() != 300 {
		t.Errorf("upscaled size = %dx%d, want 400x300", b.Dx(), b.Dy())
	}
}

func TestComposePairLandscapeSideBySide(t *testing.T) {
	left := imaging.New(100, 200, color.NRGBA{255, 0, 0, 255})
	right := imaging.New(100, 200, color.NRGBA{0, 0, 255, 255})
	divider := color.NRGBA{0, 255, 0, 255}

	out := composePair(left, right, 404, 200, store.FillCover, false, 4, divider)

	b := out.Bounds()
	if b.Dx() != 404 || b.Dy() != 200 {
		t.Fatalf("pair canvas = %dx%d, want 404x200", b.Dx(), b.Dy())
	}

	r, _, _, _ := out.At(100, 100).RGBA()
	if r>>8 < 200 {
		t.Errorf("left half pixel red = %d, want close to 255", r>>8)
	}
	_, _, bl, _ := out.At(300, 100).RGBA()
	if bl>>8 < 200 {
		t.Errorf("right half pixel blue = %d, want close to 255", bl>>8)
	}
	_, g, _, _ := out.At(201, 100).RGBA()
	if g>>8 < 200 {
		t.Errorf("divider pixel green = %d, want close to 255", g>>8)
	}
}

func TestComposePairPortraitStacked(t *testing.T) {
	top := imaging.New(200, 100, color.NRGBA{255, 0, 0, 255})
	bottom := imaging.New(200, 100, color.NRGBA{0, 0, 255, 255})
	divider := color.NRGBA{255, 255, 255, 255}

	out := composePair(top, bottom, 200, 406, store.FillCover, true, 6, divider)

	b := out.Bounds()
	if b.Dx() != 200 || b.Dy() != 406 {
		t.Fatalf("pair canvas = %dx%d, want 200x406", b.Dx(), b.Dy())
	}

	r, _, _, _ := out.At(100, 50).RGBA()
	if r>>8 < 200 {
		t.Errorf("top half pixel red = %d, want close to 255", r>>8)
	}
	_, _, bl, _ := out.At(100, 350).RGBA()
	if bl>>8 < 200 {
		t.Errorf("bottom half pixel blue = %d, want close to 255", bl>>8)
	}
}

func TestComposePairTransparentDivider(t *testing.T) {
	left := imaging.New(100, 200, color.NRGBA{255, 0, 0, 255})
	right := imaging.New(100, 200, color.NRGBA{0, 0, 255, 255})

	out := composePair(left, right, 404, 200, store.FillCover, false, 4, color.NRGBA{0, 0, 0, 0})

	_, _, _, a := out.At(201, 100).RGBA()
	if a != 0 {
		t.Errorf("divider alpha = %d, want 0", a)
	}
}

func TestParseDividerColor(t *testing.T) {
	tests := []struct {
		input           string
		want            color.NRGBA
		wantTransparent bool
	}{
		{"transparent", color.NRGBA{0, 0, 0, 0}, true},
		{"  None ", color.NRGBA{0, 0, 0, 0}, true},
		{"CLEAR", color.NRGBA{0, 0, 0, 0}, true},
		{"rgba(0, 0, 0, 0)", color.NRGBA{0, 0, 0, 0}, true},
		{"#ff0000", color.NRGBA{255, 0, 0, 255}, false},
		{"#0F0", color.NRGBA{0, 255, 0, 255}, false},
		{"black", color.NRGBA{0, 0, 0, 255}, false},
		{"White", color.NRGBA{255, 255, 255, 255}, false},
		{"steelblue", color.NRGBA{70, 130, 180, 255}, false},
		{"#zzzzzz", color.NRGBA{255, 255, 255, 255}, false},
		{"not-a-color", color.NRGBA{255, 255, 255, 255}, false},
		{"", color.NRGBA{255, 255, 255, 255}, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, transparent := ParseDividerColor(tt.input)
			if got != tt.want || transparent != tt.wantTransparent {
				t.Errorf("ParseDividerColor(%q) = %v, %v; want %v, %v",
					tt.input, got, transparent, tt.want, tt.wantTransparent)
			}
		})
	}
}

func TestEncodeFrameFormats(t *testing.T) {
	img := imaging.New(32, 32, color.NRGBA{120, 120, 120, 255})
	pngMagic := []byte{0x89, 'P', 'N', 'G'}
	jpegMagic := []byte{0xff, 0xd8}

	t.Run("opaque encodes JPEG", func(t *testing.T) {
		data, err := EncodeFrame(img, false)
		if err != nil {
			t.Fatalf("EncodeFrame: %v", err)
		}
		if !bytes.HasPrefix(data, jpegMagic) {
			t.Error("expected JPEG magic bytes")
		}
	})

	t.Run("alpha encodes PNG", func(t *testing.T) {
		data, err := EncodeFrame(img, true)
		if err != nil {
			t.Fatalf("EncodeFrame: %v", err)
		}
		if !bytes.HasPrefix(data, pngMagic) {
			t.Error("expected PNG magic bytes")
		}
	})
}

func TestDecodeImageRejectsGarbage(t *testing.T) {
	if _, err := decodeImage([]byte("definitely not an image")); err == nil {
		t.Error("expected decode error for garbage bytes")
	}
}

func TestDecodeImageRoundTrip(t *testing.T) {
	src := imaging.New(64, 48, color.NRGBA{50, 100, 150, 255})
	data, err := EncodeFrame(src, false)
	if err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}

	img, err := decodeImage(data)
	if err != nil {
		t.Fatalf("decodeImage: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 64 || b.Dy() != 48 {
		t.Errorf("decoded size = %dx%d, want 64x48", b.Dx(), b.Dy())
	}
}
