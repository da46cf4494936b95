package resize

import (
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"os"

	xdraw "golang.org/x/image/draw"

	"github.com/bluecollarverse/media-pipeline/internal/catalog"
	"github.com/bluecollarverse/media-pipeline/internal/mediaerr"
)

// animatedSource is the decoded multi-frame handle shared read-only across
// worker units.
type animatedSource struct {
	gif    *gif.GIF
	bounds image.Rectangle
}

// decodeAnimated reads every frame of a GIF source.
func decodeAnimated(srcPath string) (*animatedSource, error) {
	f, err := os.Open(srcPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	g, err := gif.DecodeAll(f)
	if err != nil {
		return nil, mediaerr.Wrap(mediaerr.KindUnsupportedImage, "unrecognized animated image", err).
			WithLog("gif decode %s", srcPath)
	}
	if len(g.Image) == 0 {
		return nil, mediaerr.New(mediaerr.KindUnsupportedImage, "animated image has no frames")
	}

	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if bounds.Empty() {
		bounds = g.Image[0].Bounds()
	}
	return &animatedSource{gif: g, bounds: bounds}, nil
}

// writeResizedAnimation resizes every frame to the target dimension and
// reassembles them in original order with the source delays and loop count.
// Frames are composed onto a logical canvas first, honoring per-frame
// disposal, so partial frames stay correct after scaling.
func writeResizedAnimation(src *animatedSource, dim catalog.Dimension, outPath string) error {
	target := image.Rect(0, 0, dim.Width, dim.Height)
	canvas := image.NewNRGBA(src.bounds)

	out := &gif.GIF{
		LoopCount: src.gif.LoopCount,
		Image:     make([]*image.Paletted, 0, len(src.gif.Image)),
		Delay:     make([]int, 0, len(src.gif.Image)),
		Disposal:  make([]byte, 0, len(src.gif.Image)),
	}

	for i, frame := range src.gif.Image {
		var restore *image.NRGBA
		disposal := byte(gif.DisposalNone)
		if i < len(src.gif.Disposal) {
			disposal = src.gif.Disposal[i]
		}
		if disposal == gif.DisposalPrevious {
			restore = image.NewNRGBA(src.bounds)
			copy(restore.Pix, canvas.Pix)
		}

		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)

		scaled := image.NewNRGBA(target)
		xdraw.CatmullRom.Scale(scaled, target, canvas, src.bounds, xdraw.Src, nil)

		pal := frame.Palette
		if len(pal) == 0 {
			pal = palette.Plan9
		}
		paletted := image.NewPaletted(target, pal)
		draw.FloydSteinberg.Draw(paletted, target, scaled, image.Point{})

		out.Image = append(out.Image, paletted)
		delay := 0
		if i < len(src.gif.Delay) {
			delay = src.gif.Delay[i]
		}
		out.Delay = append(out.Delay, delay)
		// Output frames are full canvases; no inter-frame state remains.
		out.Disposal = append(out.Disposal, gif.DisposalNone)

		switch disposal {
		case gif.DisposalBackground:
			clearRect(canvas, frame.Bounds())
		case gif.DisposalPrevious:
			copy(canvas.Pix, restore.Pix)
		}
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := gif.EncodeAll(f, out); err != nil {
		return mediaerr.Wrap(mediaerr.KindInternal, "failed to encode animated image", err).
			WithLog("gif encode %s", outPath)
	}
	return nil
}

// clearRect resets a region of the canvas to transparent, the GIF
// background-disposal semantic.
func clearRect(canvas *image.NRGBA, r image.Rectangle) {
	r = r.Intersect(canvas.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := canvas.Pix[canvas.PixOffset(r.Min.X, y):canvas.PixOffset(r.Max.X, y)]
		for i := range row {
			row[i] = 0
		}
	}
}
