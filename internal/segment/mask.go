package segment

import (
	"image"
)

// Binarize converte qualquer imagem numa máscara 0/1: todo pixel com algum
// canal de cor não nulo vira 1. Os canais são lidos em 16 bits, então valores
// baixos de Gray16 ou um único canal azul também contam.
func Binarize(img image.Image) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			if r|g|bl != 0 {
				out.Pix[y*out.Stride+x] = 1
			}
		}
	}
	return out
}

// LargestRegion mantém a maior região 8-conexa de pixels não nulos e a
// retorna como máscara 0/1 do mesmo tamanho. Em empate de área vence a região
// encontrada primeiro na varredura. Máscara sem primeiro plano resulta em
// máscara toda zero.
func LargestRegion(mask *image.Gray) *image.Gray {
	b := mask.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return out
	}

	on := func(x, y int) bool { return mask.Pix[mask.PixOffset(b.Min.X+x, b.Min.Y+y)] != 0 }

	labels := make([]int32, w*h)
	var areas []int // areas[label-1]
	stack := make([]int, 0, 64)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			if labels[i] != 0 || !on(x, y) {
				continue
			}
			areas = append(areas, 0)
			label := int32(len(areas))
			labels[i] = label
			stack = append(stack[:0], i)

			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				areas[label-1]++
				px, py := p%w, p/w

				for dy := -1; dy <= 1; dy++ {
					ny := py + dy
					if ny < 0 || ny >= h {
						continue
					}
					for dx := -1; dx <= 1; dx++ {
						nx := px + dx
						if (dx == 0 && dy == 0) || nx < 0 || nx >= w {
							continue
						}
						n := ny*w + nx
						if labels[n] == 0 && on(nx, ny) {
							labels[n] = label
							stack = append(stack, n)
						}
					}
				}
			}
		}
	}

	if len(areas) == 0 {
		return out
	}
	best := 0
	for l := 1; l < len(areas); l++ {
		if areas[l] > areas[best] {
			best = l
		}
	}

	keep := int32(best + 1)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if labels[y*w+x] == keep {
				out.Pix[y*out.Stride+x] = 1
			}
		}
	}
	return out
}
