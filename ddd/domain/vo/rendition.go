package vo

import (
	"path"
	"strings"
)

// Rendition 转码产出的一个清晰度
type Rendition struct {
	Label   string `json:"label"`
	Locator string `json:"locator"`
}

// OutputPreset 提交给转码服务的输出规格
type OutputPreset struct {
	Label        string
	Preset       string
	NameModifier string
	Extension    string
}

// LabelForPath 根据输出文件名后缀（NameModifier）推断清晰度标签
func LabelForPath(presets []OutputPreset, filePath string) string {
	base := path.Base(filePath)
	stem := strings.TrimSuffix(base, path.Ext(base))
	for _, p := range presets {
		if p.NameModifier != "" && strings.HasSuffix(stem, p.NameModifier) {
			return p.Label
		}
	}
	return stem
}
