package render

import (
	"bytes"
	"fmt"
	"image"
	"sync"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"

	"album-slideshow/internal/logging"
)

// maxDecodeDimension caps the long side of a decoded source. Sources above
// the cap are shrunk at decode time, which keeps a 100MP upload from
// ballooning into hundreds of MB of RGBA.
const maxDecodeDimension = 4096

var (
	vipsInitialized bool
	vipsAvailable   bool
	vipsMutex       sync.Mutex
)

// InitVips initializes libvips. Call once at startup; without it the
// compositor decodes everything through the pure-Go path.
func InitVips() {
	vipsMutex.Lock()
	defer vipsMutex.Unlock()

	if vipsInitialized {
		return
	}

	vips.LoggingSettings(func(domain string, level vips.LogLevel, msg string) {
		switch level {
		case vips.LogLevelError, vips.LogLevelCritical:
			logging.Error("[%s] %s", domain, msg)
		case vips.LogLevelWarning:
			logging.Warn("[%s] %s", domain, msg)
		default:
			logging.Debug("[%s] %s", domain, msg)
		}
	}, vips.LogLevelWarning)

	// Conservative memory settings: one photo at a time
	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
	})

	vipsInitialized = true
	vipsAvailable = true
	logging.Info("libvips initialized (version: %s)", vips.Version)
}

// ShutdownVips releases libvips resources.
func ShutdownVips() {
	vipsMutex.Lock()
	defer vipsMutex.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		vipsAvailable = false
		logging.Info("libvips shutdown complete")
	}
}

func isVipsAvailable() bool {
	vipsMutex.Lock()
	defer vipsMutex.Unlock()
	return vipsAvailable
}

// decodeShrunk decodes data through libvips with decode-time shrinking when
// the source exceeds maxDecodeDimension. The second return value is false
// when vips is unavailable, the source is small enough for the normal path,
// or the vips pipeline failed.
func decodeShrunk(data []byte) (image.Image, bool) {
	if !isVipsAvailable() {
		return nil, false
	}

	img, err := loadShrunkWithVips(data)
	if err != nil {
		logging.Debug("vips decode fallback: %v", err)
		return nil, false
	}
	if img == nil {
		return nil, false
	}
	return img, true
}

func loadShrunkWithVips(data []byte) (image.Image, error) {
	ref, err := vips.LoadImageFromBuffer(data, vips.NewImportParams())
	if err != nil {
		return nil, fmt.Errorf("vips failed to load photo: %w", err)
	}
	defer ref.Close()

	width := ref.Width()
	height := ref.Height()
	if width <= maxDecodeDimension && height <= maxDecodeDimension {
		// Small enough for the pure-Go decoder
		return nil, nil
	}

	targetW, targetH := width, height
	if width >= height {
		targetW = maxDecodeDimension
		targetH = height * maxDecodeDimension / width
	} else {
		targetH = maxDecodeDimension
		targetW = width * maxDecodeDimension / height
	}
	if targetW < 1 {
		targetW = 1
	}
	if targetH < 1 {
		targetH = 1
	}

	logging.Debug("vips shrinking %dx%d source to %dx%d", width, height, targetW, targetH)

	if err := ref.Thumbnail(targetW, targetH, vips.InterestingNone); err != nil {
		return nil, fmt.Errorf("vips resize failed: %w", err)
	}

	out, _, err := ref.ExportJpeg(&vips.JpegExportParams{
		Quality:        95,
		OptimizeCoding: true,
	})
	if err != nil {
		return nil, fmt.Errorf("vips export failed: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(out), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode vips output: %w", err)
	}
	return img, nil
}
