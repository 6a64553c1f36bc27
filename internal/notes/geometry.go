package notes

import (
	"encoding/json"
	"fmt"
)

// Size 窗口尺寸
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Geometry 窗口位置与尺寸
// 持久化时以 EncodeGeometry 的结果作为不透明数据保存
type Geometry struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// EncodeGeometry 序列化几何信息
func EncodeGeometry(g Geometry) []byte {
	data, _ := json.Marshal(g)
	return data
}

// DecodeGeometry 解析几何信息，空数据、格式错误或尺寸非正均返回错误
func DecodeGeometry(blob []byte) (Geometry, error) {
	var g Geometry
	if len(blob) == 0 {
		return g, fmt.Errorf("几何信息为空")
	}
	if err := json.Unmarshal(blob, &g); err != nil {
		return Geometry{}, fmt.Errorf("几何信息格式错误: %w", err)
	}
	if g.Width <= 0 || g.Height <= 0 {
		return Geometry{}, fmt.Errorf("几何信息尺寸无效: %dx%d", g.Width, g.Height)
	}
	return g, nil
}

// clampToMin 保证尺寸不小于最小值
func (g Geometry) clampToMin(min Size) Geometry {
	if g.Width < min.Width {
		g.Width = min.Width
	}
	if g.Height < min.Height {
		g.Height = min.Height
	}
	return g
}
