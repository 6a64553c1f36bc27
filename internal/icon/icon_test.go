package icon

import (
	"bytes"
	"encoding/binary"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTrayIcon(t *testing.T) {
	img := CreateTrayIcon("#fdfd96")

	assert.Equal(t, Size, img.Bounds().Dx())
	assert.Equal(t, Size, img.Bounds().Dy())

	// 四周透明
	assert.Equal(t, uint8(0), img.NRGBAAt(0, 0).A)
	assert.Equal(t, uint8(0), img.NRGBAAt(Size-1, Size-1).A)
	assert.Equal(t, uint8(0), img.NRGBAAt(Inset-1, Size/2).A)

	// 中间为便签底色
	assert.Equal(t, color.NRGBA{R: 0xfd, G: 0xfd, B: 0x96, A: 0xff}, img.NRGBAAt(Size/2, Size/2))

	// 描边
	assert.Equal(t, outlineColor, img.NRGBAAt(Inset, Inset))
	assert.Equal(t, outlineColor, img.NRGBAAt(Size-Inset-1, Size-Inset-1))
}

func TestCreateTrayIconFallsBackOnBadColor(t *testing.T) {
	img := CreateTrayIcon("not-a-color")

	assert.Equal(t, color.NRGBA{R: 0xfd, G: 0xfd, B: 0x96, A: 0xff}, img.NRGBAAt(Size/2, Size/2))
}

func TestCreateTrayIconIsDeterministic(t *testing.T) {
	a, err := EncodePNG(CreateTrayIcon("#ccc"))
	require.NoError(t, err)
	b, err := EncodePNG(CreateTrayIcon("#cccccc"))
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestEncodePNG(t *testing.T) {
	data, err := EncodePNG(CreateTrayIcon(DefaultColor))
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, Size, decoded.Bounds().Dx())
}

func TestEncodeICO(t *testing.T) {
	data, err := EncodeICO(CreateTrayIcon(DefaultColor))
	require.NoError(t, err)
	require.Greater(t, len(data), 22)

	assert.Equal(t, uint16(0), binary.LittleEndian.Uint16(data[0:2]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(data[2:4]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(data[4:6]))
	assert.Equal(t, byte(Size), data[6])
	assert.Equal(t, byte(Size), data[7])

	size := binary.LittleEndian.Uint32(data[14:18])
	offset := binary.LittleEndian.Uint32(data[18:22])
	assert.Equal(t, uint32(22), offset)
	assert.Equal(t, int(size), len(data)-22)

	_, err = png.Decode(bytes.NewReader(data[offset:]))
	assert.NoError(t, err, "ICO 中应内嵌合法 PNG")
}

func TestParseHexColor(t *testing.T) {
	c, err := ParseHexColor("#0078d4")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0x00, G: 0x78, B: 0xd4, A: 0xff}, c)

	_, err = ParseHexColor("#12")
	assert.Error(t, err)
	_, err = ParseHexColor("#zzzzzz")
	assert.Error(t, err)
}
