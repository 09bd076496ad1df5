package render

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"

	"album-slideshow/internal/album"
	"album-slideshow/internal/store"
)

type stubProvider struct {
	view *album.View
	err  error
}

func (p *stubProvider) Refresh(ctx context.Context) (*album.View, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.view, nil
}

func (p *stubProvider) Name() string { return "stub" }

// writePhoto writes a solid-color JPEG to dir and returns its media item.
func writePhoto(t *testing.T, dir, name string, width, height int, c color.NRGBA) album.MediaItem {
	t.Helper()

	path := filepath.Join(dir, name)
	img := imaging.New(width, height, c)
	data, err := EncodeFrame(img, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return album.MediaItem{Reference: "file://" + path, Filename: name}
}

func brokenPhoto(name string) album.MediaItem {
	return album.MediaItem{Reference: "file:///nonexistent/" + name, Filename: name}
}

func newTestEngine(t *testing.T, items []album.MediaItem) (*Engine, *store.Settings, *time.Time) {
	t.Helper()

	settings := store.NewSettings()
	settings.SetOrderMode(store.OrderAlbum)

	provider := &stubProvider{view: &album.View{Title: "Test Album", Items: items}}
	coord := album.NewCoordinator(provider, settings)
	if err := coord.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	e := NewEngine(settings, coord)

	now := time.Unix(1700000000, 0)
	clock := func() time.Time { return now }
	e.advancer.now = clock
	e.frame.now = clock
	e.bytes.now = clock

	return e, settings, &now
}

func decodeDims(t *testing.T, data []byte) (int, int) {
	t.Helper()
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to decode rendered frame: %v", err)
	}
	return cfg.Width, cfg.Height
}

func TestRenderEmptyAlbumReturnsNoMedia(t *testing.T) {
	e, _, _ := newTestEngine(t, nil)

	if _, err := e.Render(context.Background(), 1280, 720); !errors.Is(err, ErrNoMedia) {
		t.Errorf("Render on empty album = %v, want ErrNoMedia", err)
	}
}

func TestRenderNeverRefreshedReturnsNoMedia(t *testing.T) {
	settings := store.NewSettings()
	coord := album.NewCoordinator(&stubProvider{err: errors.New("unreachable")}, settings)
	e := NewEngine(settings, coord)

	if _, err := e.Render(context.Background(), 1280, 720); !errors.Is(err, ErrNoMedia) {
		t.Errorf("Render before first enumeration = %v, want ErrNoMedia", err)
	}
}

func TestRenderSinglePhoto(t *testing.T) {
	dir := t.TempDir()
	items := []album.MediaItem{
		writePhoto(t, dir, "a.jpg", 400, 300, color.NRGBA{200, 30, 30, 255}),
	}
	e, _, _ := newTestEngine(t, items)

	data, err := e.Render(context.Background(), 1280, 720)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	w, h := decodeDims(t, data)
	if w != 1280 || h != 720 {
		t.Errorf("frame = %dx%d, want 1280x720", w, h)
	}
	if !bytes.HasPrefix(data, []byte{0xff, 0xd8}) {
		t.Error("expected JPEG output for opaque frame")
	}

	s := e.Status()
	if s.CurrentIsPortrait == nil || *s.CurrentIsPortrait {
		t.Error("status should report a landscape current photo")
	}
	if s.MediaCount != 1 || s.AlbumTitle != "Test Album" || s.Provider != "stub" {
		t.Errorf("unexpected status snapshot: %+v", s)
	}
	if s.NextAdvanceAt == nil {
		t.Error("first render should have primed the advance timer")
	}
}

func TestRenderFetchErrorPropagates(t *testing.T) {
	e, _, _ := newTestEngine(t, []album.MediaItem{brokenPhoto("gone.jpg")})

	_, err := e.Render(context.Background(), 1280, 720)
	if err == nil || errors.Is(err, ErrNoMedia) {
		t.Errorf("Render with unfetchable photo = %v, want a fetch error", err)
	}
}

func TestFrameCacheServesIdenticalBytes(t *testing.T) {
	dir := t.TempDir()
	items := []album.MediaItem{
		writePhoto(t, dir, "a.jpg", 300, 400, color.NRGBA{40, 160, 40, 255}),
	}
	e, settings, now := newTestEngine(t, items)
	ctx := context.Background()

	first, err := e.Render(ctx, 1280, 720)
	if err != nil {
		t.Fatalf("first render: %v", err)
	}

	*now = now.Add(time.Second)
	second, err := e.Render(ctx, 1280, 720)
	if err != nil {
		t.Fatalf("second render: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("renders within the frame TTL should be byte-identical")
	}

	// A settings change must invalidate the cached frame immediately. The
	// portrait source letterboxes under contain, so the pixels change too.
	settings.SetFillMode(store.FillContain)
	settings.Notify()

	third, err := e.Render(ctx, 1280, 720)
	if err != nil {
		t.Fatalf("third render: %v", err)
	}
	if bytes.Equal(first, third) {
		t.Error("settings change should force a recomposed frame")
	}
}

func TestAvoidScanSkipsFailuresAndMismatches(t *testing.T) {
	dir := t.TempDir()
	items := []album.MediaItem{
		writePhoto(t, dir, "portrait.jpg", 300, 400, color.NRGBA{200, 30, 30, 255}),
		brokenPhoto("broken1.jpg"),
		brokenPhoto("broken2.jpg"),
		writePhoto(t, dir, "landscape.jpg", 400, 300, color.NRGBA{30, 30, 200, 255}),
	}
	e, settings, _ := newTestEngine(t, items)
	settings.SetOrientationMode(store.OrientationAvoid)

	data, err := e.Render(context.Background(), 1280, 720)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	w, h := decodeDims(t, data)
	if w != 1280 || h != 720 {
		t.Errorf("frame = %dx%d, want 1280x720", w, h)
	}

	s := e.Status()
	if s.CurrentIndex != 3 {
		t.Errorf("scan stopped at index %d, want 3 (past the mismatch and both failures)", s.CurrentIndex)
	}
	if s.CurrentIsPortrait == nil || *s.CurrentIsPortrait {
		t.Error("status should report a landscape photo after the scan")
	}
}

func TestAvoidScanReschedulesInterval(t *testing.T) {
	dir := t.TempDir()
	items := []album.MediaItem{
		writePhoto(t, dir, "portrait.jpg", 300, 400, color.NRGBA{200, 30, 30, 255}),
		writePhoto(t, dir, "landscape.jpg", 400, 300, color.NRGBA{30, 30, 200, 255}),
	}
	e, settings, now := newTestEngine(t, items)
	settings.SetOrientationMode(store.OrientationAvoid)

	if _, err := e.Render(context.Background(), 1280, 720); err != nil {
		t.Fatalf("Render: %v", err)
	}

	// The scan skipped one photo with a forced advance, which reschedules
	// the timer just like a manual next.
	want := now.Add(time.Duration(settings.SlideInterval()) * time.Second)
	if got := e.advancer.NextAdvanceAt(); !got.Equal(want) {
		t.Errorf("nextAdvanceAt = %v, want %v", got, want)
	}
}

func TestAvoidScanExhaustedRestoresStart(t *testing.T) {
	dir := t.TempDir()
	items := []album.MediaItem{
		writePhoto(t, dir, "p1.jpg", 300, 400, color.NRGBA{200, 30, 30, 255}),
		writePhoto(t, dir, "p2.jpg", 300, 400, color.NRGBA{30, 200, 30, 255}),
		writePhoto(t, dir, "p3.jpg", 300, 400, color.NRGBA{30, 30, 200, 255}),
	}
	e, settings, _ := newTestEngine(t, items)
	settings.SetOrientationMode(store.OrientationAvoid)

	data, err := e.Render(context.Background(), 1280, 720)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if w, h := decodeDims(t, data); w != 1280 || h != 720 {
		t.Errorf("frame = %dx%d, want 1280x720", w, h)
	}

	s := e.Status()
	if s.CurrentIndex != 0 {
		t.Errorf("exhausted scan left index %d, want restored start 0", s.CurrentIndex)
	}
	if s.CurrentIsPortrait == nil || !*s.CurrentIsPortrait {
		t.Error("status should report the mismatched portrait photo")
	}
}

func TestPairComposesTwoPortraits(t *testing.T) {
	dir := t.TempDir()
	items := []album.MediaItem{
		writePhoto(t, dir, "red.jpg", 300, 400, color.NRGBA{220, 20, 20, 255}),
		writePhoto(t, dir, "blue.jpg", 300, 400, color.NRGBA{20, 20, 220, 255}),
	}
	e, settings, _ := newTestEngine(t, items)
	settings.SetOrientationMode(store.OrientationPair)

	data, err := e.Render(context.Background(), 1280, 720)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if w, h := decodeDims(t, data); w != 1280 || h != 720 {
		t.Fatalf("frame = %dx%d, want 1280x720", w, h)
	}

	img, err := decodeImage(data)
	if err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	r, _, _, _ := img.At(300, 360).RGBA()
	if r>>8 < 150 {
		t.Errorf("left half red channel = %d, want high (current photo)", r>>8)
	}
	_, _, b, _ := img.At(980, 360).RGBA()
	if b>>8 < 150 {
		t.Errorf("right half blue channel = %d, want high (pair candidate)", b>>8)
	}
}

func TestPairTransparentDividerEncodesPNG(t *testing.T) {
	dir := t.TempDir()
	items := []album.MediaItem{
		writePhoto(t, dir, "red.jpg", 300, 400, color.NRGBA{220, 20, 20, 255}),
		writePhoto(t, dir, "blue.jpg", 300, 400, color.NRGBA{20, 20, 220, 255}),
	}
	e, settings, _ := newTestEngine(t, items)
	settings.SetOrientationMode(store.OrientationPair)
	settings.SetDividerColor("transparent")

	data, err := e.Render(context.Background(), 1280, 720)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.HasPrefix(data, []byte{0x89, 'P', 'N', 'G'}) {
		t.Error("expected PNG output when the divider is transparent")
	}
}

func TestPairFallsBackToSingleWithoutCandidate(t *testing.T) {
	dir := t.TempDir()
	items := []album.MediaItem{
		writePhoto(t, dir, "portrait.jpg", 300, 400, color.NRGBA{220, 20, 20, 255}),
		writePhoto(t, dir, "landscape.jpg", 400, 300, color.NRGBA{20, 220, 20, 255}),
	}
	e, settings, _ := newTestEngine(t, items)
	settings.SetOrientationMode(store.OrientationPair)

	data, err := e.Render(context.Background(), 1280, 720)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if w, h := decodeDims(t, data); w != 1280 || h != 720 {
		t.Errorf("frame = %dx%d, want 1280x720", w, h)
	}

	s := e.Status()
	if s.CurrentIndex != 0 {
		t.Errorf("pair fallback moved the index to %d, want 0", s.CurrentIndex)
	}
	if s.CurrentIsPortrait == nil || !*s.CurrentIsPortrait {
		t.Error("status should still report the portrait photo")
	}
}

func TestPairSkipsRecentlyShownCandidates(t *testing.T) {
	dir := t.TempDir()
	items := []album.MediaItem{
		writePhoto(t, dir, "red.jpg", 300, 400, color.NRGBA{220, 20, 20, 255}),
		writePhoto(t, dir, "blue.jpg", 300, 400, color.NRGBA{20, 20, 220, 255}),
		writePhoto(t, dir, "green.jpg", 300, 400, color.NRGBA{20, 220, 20, 255}),
	}
	e, settings, _ := newTestEngine(t, items)
	settings.SetOrientationMode(store.OrientationPair)
	e.recentRefs = []string{items[1].Reference}

	data, err := e.Render(context.Background(), 1280, 720)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	img, err := decodeImage(data)
	if err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	_, g, b, _ := img.At(980, 360).RGBA()
	if g>>8 < 150 {
		t.Errorf("right half green channel = %d, want high (recent candidate skipped)", g>>8)
	}
	if b>>8 > 100 {
		t.Errorf("right half blue channel = %d, want low (blue photo was recently shown)", b>>8)
	}
}

func TestForceNextAdvancesAndInvalidates(t *testing.T) {
	dir := t.TempDir()
	items := []album.MediaItem{
		writePhoto(t, dir, "a.jpg", 400, 300, color.NRGBA{220, 20, 20, 255}),
		writePhoto(t, dir, "b.jpg", 400, 300, color.NRGBA{20, 20, 220, 255}),
	}
	e, _, _ := newTestEngine(t, items)
	ctx := context.Background()

	first, err := e.Render(ctx, 1280, 720)
	if err != nil {
		t.Fatalf("first render: %v", err)
	}

	e.ForceNext()

	second, err := e.Render(ctx, 1280, 720)
	if err != nil {
		t.Fatalf("second render: %v", err)
	}
	if bytes.Equal(first, second) {
		t.Error("forced next should produce a different frame")
	}
	if s := e.Status(); s.CurrentIndex != 1 {
		t.Errorf("index = %d after forced next, want 1", s.CurrentIndex)
	}
}

func TestTimedAdvanceChangesFrame(t *testing.T) {
	dir := t.TempDir()
	items := []album.MediaItem{
		writePhoto(t, dir, "a.jpg", 400, 300, color.NRGBA{220, 20, 20, 255}),
		writePhoto(t, dir, "b.jpg", 400, 300, color.NRGBA{20, 20, 220, 255}),
	}
	e, settings, now := newTestEngine(t, items)
	ctx := context.Background()

	first, err := e.Render(ctx, 1280, 720)
	if err != nil {
		t.Fatalf("first render: %v", err)
	}

	// Jump past both the slide interval and the frame TTL.
	*now = now.Add(time.Duration(settings.SlideInterval())*time.Second + time.Second)

	second, err := e.Render(ctx, 1280, 720)
	if err != nil {
		t.Fatalf("second render: %v", err)
	}
	if bytes.Equal(first, second) {
		t.Error("expected a new frame after the slide interval elapsed")
	}
	if s := e.Status(); s.CurrentIndex != 1 {
		t.Errorf("index = %d after timed advance, want 1", s.CurrentIndex)
	}
}

func TestPushRecentCapacity(t *testing.T) {
	e, _, _ := newTestEngine(t, nil)

	// Small album: the ring keeps count-1 entries.
	for i := 0; i < 10; i++ {
		e.pushRecent("small", 3)
	}
	if len(e.recentRefs) != 2 {
		t.Errorf("ring holds %d refs for a 3-photo album, want 2", len(e.recentRefs))
	}

	// Large album: the ring caps at its fixed maximum.
	e.recentRefs = nil
	for i := 0; i < 100; i++ {
		e.pushRecent("large", 500)
	}
	if len(e.recentRefs) != recentRefsMax {
		t.Errorf("ring holds %d refs for a large album, want %d", len(e.recentRefs), recentRefsMax)
	}
}
