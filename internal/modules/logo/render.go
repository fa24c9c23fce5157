package logo

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	"image/png"
)

// renderRaster re-encodes a raster image as format at size×size, letterboxed to keep the aspect ratio.
// JPEG output gets a white matte since it has no alpha.
func renderRaster(data []byte, format string, size int) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	matte := format == "jpg"
	if matte {
		draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	}
	scaleInto(dst, src, matte)

	var buf bytes.Buffer
	switch format {
	case "jpg":
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 92})
	default:
		err = png.Encode(&buf, dst)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// scaleInto draws src centred in dst with nearest-neighbour sampling.
// With matte set, translucent pixels are composited over white.
func scaleInto(dst *image.RGBA, src image.Image, matte bool) {
	sb := src.Bounds()
	sw, sh := sb.Dx(), sb.Dy()
	if sw == 0 || sh == 0 {
		return
	}
	size := dst.Bounds().Dx()
	w, h := size, size
	if sw > sh {
		h = size * sh / sw
	} else if sh > sw {
		w = size * sw / sh
	}
	ox, oy := (size-w)/2, (size-h)/2

	for y := 0; y < h; y++ {
		sy := sb.Min.Y + y*sh/h
		for x := 0; x < w; x++ {
			sx := sb.Min.X + x*sw/w
			c := color.RGBAModel.Convert(src.At(sx, sy)).(color.RGBA)
			if matte {
				// premultiplied over white
				k := 0xff - c.A
				c = color.RGBA{R: c.R + k, G: c.G + k, B: c.B + k, A: 0xff}
			}
			dst.SetRGBA(ox+x, oy+y, c)
		}
	}
}
