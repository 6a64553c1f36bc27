// Package icon 生成托盘图标：32×32 透明底，内嵌一个便签底色的实心方块
package icon

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strconv"
	"strings"
)

const (
	// Size 图标边长
	Size = 32
	// Inset 方块距边缘的距离
	Inset = 4

	// DefaultColor 便签默认底色
	DefaultColor = "#fdfd96"
)

// 方块描边，与便签窗口边框一致
var outlineColor = color.NRGBA{R: 0x00, G: 0x00, B: 0x00, A: 0xff}

// CreateTrayIcon 生成托盘图标；颜色无法解析时使用 DefaultColor
func CreateTrayIcon(hex string) *image.NRGBA {
	fill, err := ParseHexColor(hex)
	if err != nil {
		fill, _ = ParseHexColor(DefaultColor)
	}

	img := image.NewNRGBA(image.Rect(0, 0, Size, Size))
	draw.Draw(img, img.Bounds(), image.Transparent, image.Point{}, draw.Src)

	rect := image.Rect(Inset, Inset, Size-Inset, Size-Inset)
	draw.Draw(img, rect, image.NewUniform(fill), image.Point{}, draw.Src)

	for x := rect.Min.X; x < rect.Max.X; x++ {
		img.SetNRGBA(x, rect.Min.Y, outlineColor)
		img.SetNRGBA(x, rect.Max.Y-1, outlineColor)
	}
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		img.SetNRGBA(rect.Min.X, y, outlineColor)
		img.SetNRGBA(rect.Max.X-1, y, outlineColor)
	}

	return img
}

// EncodePNG 编码为 PNG
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("PNG 编码失败: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeICO 编码为内嵌 PNG 的 ICO（Windows 托盘要求 ICO 格式）
func EncodeICO(img image.Image) ([]byte, error) {
	pngData, err := EncodePNG(img)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	var buf bytes.Buffer

	// ICONDIR
	binary.Write(&buf, binary.LittleEndian, uint16(0)) // reserved
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // type: icon
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // count

	// ICONDIRENTRY，宽高 256 时写 0
	buf.WriteByte(byte(bounds.Dx() & 0xff))
	buf.WriteByte(byte(bounds.Dy() & 0xff))
	buf.WriteByte(0)                                    // palette
	buf.WriteByte(0)                                    // reserved
	binary.Write(&buf, binary.LittleEndian, uint16(1))  // planes
	binary.Write(&buf, binary.LittleEndian, uint16(32)) // bpp
	binary.Write(&buf, binary.LittleEndian, uint32(len(pngData)))
	binary.Write(&buf, binary.LittleEndian, uint32(6+16)) // offset

	buf.Write(pngData)
	return buf.Bytes(), nil
}

// ParseHexColor 解析 #rgb 或 #rrggbb
func ParseHexColor(hex string) (color.NRGBA, error) {
	s := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return color.NRGBA{}, fmt.Errorf("无效的颜色: %q", hex)
	}

	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("无效的颜色: %q", hex)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
