package imagefs

import (
	"image"
	"image/color"
	_ "image/gif"  // Register GIF format
	_ "image/jpeg" // Register JPEG format
	_ "image/png"  // Register PNG format

	_ "golang.org/x/image/bmp"  // Register BMP format
	_ "golang.org/x/image/tiff" // Register TIFF format
	_ "golang.org/x/image/webp" // Register WEBP format
)

// modeOf names the channel layout of img.
func modeOf(img image.Image) string {
	switch img.(type) {
	case *image.Gray:
		return "L"
	case *image.Gray16:
		return "I;16"
	case *image.Paletted:
		return "P"
	case *image.CMYK:
		return "CMYK"
	case *image.YCbCr:
		return "RGB"
	case *image.NYCbCrA, *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64:
		if hasAlpha(img) {
			return "RGBA"
		}
		return "RGB"
	}

	switch img.ColorModel() {
	case color.GrayModel:
		return "L"
	case color.Gray16Model:
		return "I;16"
	case color.CMYKModel:
		return "CMYK"
	case color.YCbCrModel:
		return "RGB"
	}
	return "RGBA"
}

// hasAlpha reports whether any pixel of img is not fully opaque.
func hasAlpha(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xffff {
				return true
			}
		}
	}
	return false
}

// colorSpace reports the ICC data color space when a profile is embedded,
// otherwise the space implied by mode.
func colorSpace(icc []byte, mode string) string {
	if space := iccColorSpace(icc); space != "" {
		return space
	}
	switch mode {
	case "L", "I;16":
		return "Gray"
	case "CMYK":
		return "CMYK"
	default:
		return "sRGB"
	}
}
