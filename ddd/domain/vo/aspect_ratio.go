package vo

import "math"

// PortraitRatio 9:16 竖屏
const PortraitRatio = 9.0 / 16.0

// MatchesRatio 宽高比是否在像素级误差内等于 ratio，误差为 1/(最长边+1)
func MatchesRatio(width, height int, ratio float64) bool {
	if width <= 0 || height <= 0 {
		return false
	}
	longest := math.Max(float64(width), float64(height))
	return math.Abs(ratio-float64(width)/float64(height)) <= 1/(longest+1)
}
