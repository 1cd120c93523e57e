// Package display shows corrected frames in a fyne window and exposes the
// tuning sliders of a second window as a control surface.
package display

import (
	"fmt"
	"image"
	"image/draw"
	"math"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/widget"

	"philipredstone/netcam/internal/calib"
	"philipredstone/netcam/internal/capture"
	"philipredstone/netcam/internal/control"
	"philipredstone/netcam/internal/logger"
)

var log = logger.Log.WithField("scope", "display")

const (
	ImageTitle    = "netcam"
	ControlsTitle = "trackbar"
)

// Window is the image window plus the trackbar window.
type Window struct {
	app      fyne.App
	image    fyne.Window
	controls fyne.Window

	preview *canvas.Raster
	status  binding.String
	form    *widget.Form

	// mu guards everything below. Slider values are mirrored into positions
	// from OnChanged so the loop never reads widget state.
	mu        sync.Mutex
	sliders   map[string]*widget.Slider
	positions map[string]int
	latest    image.Image
	sized     bool

	// FPS calculation
	frameCount  int
	lastFPSTime time.Time
	fps         float64

	keys      chan capture.Key
	closeOnce sync.Once
}

// New builds both windows on a. Distortion sliders start at d.
func New(a fyne.App, d calib.Coeffs) *Window {
	w := &Window{
		app:       a,
		sliders:   make(map[string]*widget.Slider),
		positions: make(map[string]int),
		keys:      make(chan capture.Key, 8),
	}

	// The raster pulls the latest frame under mu when fyne renders.
	w.preview = canvas.NewRaster(w.render)
	w.preview.ScaleMode = canvas.ImageScaleFastest
	w.status = binding.NewString()
	w.status.Set("Waiting for camera...")

	w.image = a.NewWindow(ImageTitle)
	w.image.SetContent(container.NewBorder(nil, widget.NewLabelWithData(w.status), nil, nil, w.preview))

	w.form = widget.NewForm()
	for i, name := range control.Distortion {
		w.addSlider(name, control.SliderMax, control.CoeffToSlider(d[i]))
	}
	w.controls = a.NewWindow(ControlsTitle)
	w.controls.SetContent(w.form)
	w.controls.Resize(fyne.NewSize(420, 0))

	for _, win := range []fyne.Window{w.image, w.controls} {
		win.Canvas().SetOnTypedRune(w.handleRune)
		win.SetOnClosed(func() { w.send(capture.KeyQuit) })
	}
	w.image.SetMaster()
	return w
}

func (w *Window) addSlider(name string, max, value int) {
	s := widget.NewSlider(0, float64(max))
	s.Step = 1
	s.Value = float64(value)
	s.OnChanged = func(v float64) {
		w.mu.Lock()
		w.positions[name] = int(math.Round(v))
		w.mu.Unlock()
	}
	w.mu.Lock()
	w.sliders[name] = s
	w.positions[name] = value
	w.mu.Unlock()
	w.form.Append(name, s)
}

// SetFrameSize adds the crop sliders for an h×w frame, both starting at the
// full size. Only the first call has an effect.
func (w *Window) SetFrameSize(h, wd int) {
	w.mu.Lock()
	sized := w.sized
	w.sized = true
	w.mu.Unlock()
	if sized {
		return
	}
	w.addSlider(control.Height, h, h)
	w.addSlider(control.Width, wd, wd)
	w.preview.SetMinSize(fyne.NewSize(float32(wd), float32(h)))
	log.Debugf("crop sliders sized for %dx%d", wd, h)
}

// Show opens both windows. The caller still has to run the app.
func (w *Window) Show() {
	w.controls.Show()
	w.image.Show()
}

// Position returns the last value a slider reported, 0 for unknown names.
func (w *Window) Position(name string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.positions[name]
}

// Present replaces the displayed frame.
func (w *Window) Present(img image.Image) {
	if img == nil {
		return
	}
	w.mu.Lock()
	w.latest = img
	now := time.Now()
	w.frameCount++
	if d := now.Sub(w.lastFPSTime); d >= 500*time.Millisecond {
		if !w.lastFPSTime.IsZero() {
			w.fps = float64(w.frameCount) / d.Seconds()
		}
		w.lastFPSTime = now
		w.frameCount = 0
	}
	fps := w.fps
	w.mu.Unlock()

	w.preview.Refresh()
	b := img.Bounds()
	w.status.Set(fmt.Sprintf("%dx%d | %.1f FPS | s: save on/off, q: quit", b.Dx(), b.Dy(), fps))
}

// render draws the latest frame unscaled in the middle of a black wd×ht
// canvas, like an image window showing native pixels.
func (w *Window) render(wd, ht int) image.Image {
	out := image.NewRGBA(image.Rect(0, 0, wd, ht))
	draw.Draw(out, out.Bounds(), image.Black, image.Point{}, draw.Src)

	w.mu.Lock()
	img := w.latest
	w.mu.Unlock()
	if img == nil {
		return out
	}
	b := img.Bounds()
	at := image.Pt((wd-b.Dx())/2, (ht-b.Dy())/2)
	draw.Draw(out, b.Sub(b.Min).Add(at), img, b.Min, draw.Src)
	return out
}

// PollKey waits up to timeout for a key press.
func (w *Window) PollKey(timeout time.Duration) capture.Key {
	select {
	case k := <-w.keys:
		return k
	default:
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case k := <-w.keys:
		return k
	case <-t.C:
		return capture.KeyNone
	}
}

// Close quits the application. It is safe to call more than once.
func (w *Window) Close() {
	w.closeOnce.Do(func() {
		w.app.Quit()
	})
}

func (w *Window) handleRune(r rune) {
	switch r {
	case 'q':
		w.send(capture.KeyQuit)
	case 's':
		w.send(capture.KeyToggleSave)
	}
}

func (w *Window) send(k capture.Key) {
	select {
	case w.keys <- k:
	default:
		log.Warnf("key buffer full, dropping %s", k)
	}
}
