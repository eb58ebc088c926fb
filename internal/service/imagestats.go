package service

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/smartcity/gateway/internal/domain"
)

// ComputeImageStats decodes the blob and reduces it to the statistics the
// triage heuristic needs. An undecodable blob is a request error: the
// caller sent bad input, it is not a dependency failure.
func ComputeImageStats(blob []byte) (domain.ImageStats, error) {
	img, _, err := image.Decode(bytes.NewReader(blob))
	if err != nil {
		return domain.ImageStats{}, domain.NewRequestError("invalid image: %v", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return domain.ImageStats{}, domain.NewRequestError("invalid image: empty bounds")
	}

	// Mean brightness on a 0-255 scale from the luma of each pixel.
	var total float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			luma := 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
			total += luma / 257.0
		}
	}

	return domain.ImageStats{
		MeanBrightness: total / float64(w*h),
		Width:          w,
		Height:         h,
	}, nil
}
