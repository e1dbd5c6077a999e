package cmd

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// decodeImage 读取并解码一张帧图片（png/jpeg/gif/bmp/tiff/webp）。
func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("无法打开图片 %s: %w", path, err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("解码图片 %s 失败: %w", path, err)
	}
	slog.Debug("image decoded", "path", path, "format", format, "size", img.Bounds().Size().String())
	return img, nil
}

// fitRaster 把 img 缩放到 w×h，尺寸一致时原样返回。
func fitRaster(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return img
	}
	slog.Warn("image resized to capture raster", "from", b.Size().String(), "to", image.Pt(w, h).String())
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(out, out.Bounds(), img, b, xdraw.Src, nil)
	return out
}

// blankRaster 是没有帧图片时（例如正文续页）使用的白色页面。
func blankRaster(w, h int) image.Image {
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(out, out.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return out
}
