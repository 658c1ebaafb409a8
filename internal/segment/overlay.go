package segment

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

var water = color.NRGBA{R: 0, G: 255, B: 0}

// Opaque descarta o canal alfa, como uma conversão para RGB.
func Opaque(img image.Image) *image.NRGBA {
	out := imaging.Clone(img)
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 0xff
	}
	return out
}

// Overlay pinta a máscara em verde sobre img. A máscara é escalada para o
// tamanho da imagem por vizinho mais próximo e cada pixel marcado recebe alfa
// mask*opacity, com opacity limitado a [0,255].
func Overlay(img image.Image, mask *image.Gray, opacity int) *image.NRGBA {
	opacity = max(0, min(255, opacity))

	base := imaging.Clone(img)
	w, h := base.Bounds().Dx(), base.Bounds().Dy()

	scaled := imaging.Resize(mask, w, h, imaging.NearestNeighbor)

	layer := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m := int(scaled.Pix[y*scaled.Stride+x*4])
			a := min(255, m*opacity)
			c := water
			c.A = uint8(a)
			layer.SetNRGBA(x, y, c)
		}
	}

	return imaging.Overlay(base, layer, image.Pt(0, 0), 1.0)
}
