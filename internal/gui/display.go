package gui

import (
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

const (
	PaneWidth  = 360
	PaneHeight = 270
)

// ImageDisplay shows ground truth, predicted mask and skyline side by side.
type ImageDisplay struct {
	container   fyne.CanvasObject
	groundTruth *canvas.Image
	mask        *canvas.Image
	skyline     *canvas.Image
}

func NewImageDisplay() *ImageDisplay {
	d := &ImageDisplay{
		groundTruth: newPane(),
		mask:        newPane(),
		skyline:     newPane(),
	}

	d.container = container.NewGridWithColumns(3,
		labelled("**Ground truth**", d.groundTruth),
		labelled("**Mask**", d.mask),
		labelled("**Skyline**", d.skyline),
	)
	return d
}

func newPane() *canvas.Image {
	img := canvas.NewImageFromImage(nil)
	img.FillMode = canvas.ImageFillContain
	img.ScaleMode = canvas.ImageScalePixels
	img.SetMinSize(fyne.NewSize(PaneWidth, PaneHeight))
	return img
}

func labelled(title string, img *canvas.Image) fyne.CanvasObject {
	return container.NewBorder(widget.NewRichTextFromMarkdown(title), nil, nil, nil, img)
}

func (d *ImageDisplay) GetContainer() fyne.CanvasObject {
	return d.container
}

func (d *ImageDisplay) SetImages(groundTruth, mask, skyline image.Image) {
	for _, pair := range []struct {
		pane *canvas.Image
		img  image.Image
	}{
		{d.groundTruth, groundTruth},
		{d.mask, mask},
		{d.skyline, skyline},
	} {
		pair.pane.Image = pair.img
		pair.pane.Refresh()
	}
}
