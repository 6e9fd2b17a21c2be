package pdf

import (
	"image"
	"image/color"
)

// bitmap is a binary raster used by the line-geometry strategy.
type bitmap struct {
	w, h int
	bits []bool
}

func newBitmap(w, h int) *bitmap {
	return &bitmap{w: w, h: h, bits: make([]bool, w*h)}
}

func (b *bitmap) at(x, y int) bool {
	if x < 0 || y < 0 || x >= b.w || y >= b.h {
		return false
	}
	return b.bits[y*b.w+x]
}

func (b *bitmap) set(x, y int, v bool) {
	b.bits[y*b.w+x] = v
}

// binarize thresholds the image, marking dark pixels (ink) as set.
func binarize(img image.Image, threshold uint8) *bitmap {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	bm := newBitmap(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.GrayModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray)
			bm.set(x, y, c.Y < threshold)
		}
	}
	return bm
}

// erodeHorizontal keeps only horizontal runs at least the given length,
// preserving each qualifying run in full (erode-then-dilate with a 1xN
// kernel). Long horizontal rules survive; text strokes do not.
func erodeHorizontal(src *bitmap, length int) *bitmap {
	out := newBitmap(src.w, src.h)
	for y := 0; y < src.h; y++ {
		run := 0
		for x := 0; x <= src.w; x++ {
			if x < src.w && src.at(x, y) {
				run++
				continue
			}
			if run >= length {
				for rx := x - run; rx < x; rx++ {
					out.set(rx, y, true)
				}
			}
			run = 0
		}
	}
	return out
}

// erodeVertical is the vertical counterpart of erodeHorizontal.
func erodeVertical(src *bitmap, length int) *bitmap {
	out := newBitmap(src.w, src.h)
	for x := 0; x < src.w; x++ {
		run := 0
		for y := 0; y <= src.h; y++ {
			if y < src.h && src.at(x, y) {
				run++
				continue
			}
			if run >= length {
				for ry := y - run; ry < y; ry++ {
					out.set(x, ry, true)
				}
			}
			run = 0
		}
	}
	return out
}

// dilate grows set regions by the given radius, closing small gaps at
// line intersections.
func dilate(src *bitmap, radius int) *bitmap {
	out := newBitmap(src.w, src.h)
	for y := 0; y < src.h; y++ {
		for x := 0; x < src.w; x++ {
			if !src.at(x, y) {
				continue
			}
			for dy := -radius; dy <= radius; dy++ {
				for dx := -radius; dx <= radius; dx++ {
					nx, ny := x+dx, y+dy
					if nx >= 0 && ny >= 0 && nx < src.w && ny < src.h {
						out.set(nx, ny, true)
					}
				}
			}
		}
	}
	return out
}

// merge ORs two bitmaps of the same size.
func merge(a, b *bitmap) *bitmap {
	out := newBitmap(a.w, a.h)
	for i := range out.bits {
		out.bits[i] = a.bits[i] || b.bits[i]
	}
	return out
}

// invert flips every pixel. Applied to the line mask, the enclosed cell
// interiors become foreground components.
func invert(src *bitmap) *bitmap {
	out := newBitmap(src.w, src.h)
	for i := range out.bits {
		out.bits[i] = !src.bits[i]
	}
	return out
}

// connectedComponents labels 4-connected regions and returns their
// bounding boxes. Uses an explicit stack to avoid deep recursion on
// large regions.
func connectedComponents(src *bitmap) []image.Rectangle {
	visited := make([]bool, len(src.bits))
	var boxes []image.Rectangle
	stack := make([]image.Point, 0, 1024)

	for sy := 0; sy < src.h; sy++ {
		for sx := 0; sx < src.w; sx++ {
			idx := sy*src.w + sx
			if visited[idx] || !src.bits[idx] {
				continue
			}

			minX, minY, maxX, maxY := sx, sy, sx, sy
			stack = append(stack[:0], image.Point{X: sx, Y: sy})
			visited[idx] = true

			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]

				if p.X < minX {
					minX = p.X
				}
				if p.X > maxX {
					maxX = p.X
				}
				if p.Y < minY {
					minY = p.Y
				}
				if p.Y > maxY {
					maxY = p.Y
				}

				for _, d := range [4]image.Point{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
					nx, ny := p.X+d.X, p.Y+d.Y
					if nx < 0 || ny < 0 || nx >= src.w || ny >= src.h {
						continue
					}
					nidx := ny*src.w + nx
					if visited[nidx] || !src.bits[nidx] {
						continue
					}
					visited[nidx] = true
					stack = append(stack, image.Point{X: nx, Y: ny})
				}
			}

			boxes = append(boxes, image.Rect(minX, minY, maxX+1, maxY+1))
		}
	}
	return boxes
}
