package gui

import (
	"fmt"

	"skyline-detector/internal/logger"
	"skyline-detector/internal/pipeline"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

const (
	AppName = "Skyline Preview"
	AppID   = "com.imageprocessing.skyline-detector"
)

// Viewer steps through processed frames, one image per page.
type Viewer struct {
	app     fyne.App
	window  fyne.Window
	display *ImageDisplay
	status  *widget.Label
	prev    *widget.Button
	next    *widget.Button
	frames  []pipeline.Frame
	index   int
	logger  logger.Logger
}

func NewViewer(frames []pipeline.Frame, log logger.Logger) *Viewer {
	return newViewer(app.NewWithID(AppID), frames, log)
}

func newViewer(a fyne.App, frames []pipeline.Frame, log logger.Logger) *Viewer {
	v := &Viewer{
		app:     a,
		window:  a.NewWindow(AppName),
		display: NewImageDisplay(),
		status:  widget.NewLabel(""),
		frames:  frames,
		logger:  log,
	}

	v.prev = widget.NewButton("Previous", v.Previous)
	v.next = widget.NewButton("Next", v.Next)

	toolbar := container.NewHBox(v.prev, v.next)
	v.window.SetContent(container.NewBorder(toolbar, v.status, nil, nil, v.display.GetContainer()))
	v.window.Resize(fyne.NewSize(3*PaneWidth+40, PaneHeight+120))

	v.show(0)
	return v
}

// Run opens the window and blocks until it is closed.
func (v *Viewer) Run() {
	v.logger.Info("Viewer", "preview opened", map[string]interface{}{
		"frames": len(v.frames),
	})
	v.window.ShowAndRun()
}

func (v *Viewer) Next() {
	v.show(v.index + 1)
}

func (v *Viewer) Previous() {
	v.show(v.index - 1)
}

func (v *Viewer) Index() int {
	return v.index
}

func (v *Viewer) show(i int) {
	if len(v.frames) == 0 {
		v.window.SetTitle(AppName)
		v.status.SetText("No images were scored")
		v.prev.Disable()
		v.next.Disable()
		return
	}

	if i < 0 {
		i = 0
	}
	if i >= len(v.frames) {
		i = len(v.frames) - 1
	}
	v.index = i

	f := v.frames[i]
	v.display.SetImages(f.GroundTruth, f.Mask, f.Skyline)
	v.window.SetTitle(fmt.Sprintf("Similarity: %.2f%%", f.Accuracy))

	branch := "day"
	if f.Night {
		branch = "night"
	}
	v.status.SetText(fmt.Sprintf("%s/%s (%s) - %d of %d", f.Folder, f.Image, branch, i+1, len(v.frames)))

	if i == 0 {
		v.prev.Disable()
	} else {
		v.prev.Enable()
	}
	if i == len(v.frames)-1 {
		v.next.Disable()
	} else {
		v.next.Enable()
	}
}
