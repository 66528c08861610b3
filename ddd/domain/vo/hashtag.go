package vo

import (
	"strings"
	"unicode"
)

// ExtractHashtags 从文案中提取话题：以 # 切分，取其后连续的字母/数字/下划线，
// 转小写后按首次出现顺序去重，最多保留 limit 个（limit<=0 不限制）。
func ExtractHashtags(caption string, limit int) []string {
	tags := make([]string, 0)
	seen := make(map[string]struct{})
	runes := []rune(caption)
	for i := 0; i < len(runes); i++ {
		if runes[i] != '#' {
			continue
		}
		j := i + 1
		for j < len(runes) && isTagRune(runes[j]) {
			j++
		}
		if j == i+1 {
			continue
		}
		tag := strings.ToLower(string(runes[i+1 : j]))
		i = j - 1
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
		if limit > 0 && len(tags) >= limit {
			break
		}
	}
	return tags
}

// NormalizeHashtag 规范化查询参数中的话题
func NormalizeHashtag(raw string) string {
	tag := strings.TrimPrefix(strings.TrimSpace(raw), "#")
	for _, r := range tag {
		if !isTagRune(r) {
			return ""
		}
	}
	return strings.ToLower(tag)
}

func isTagRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
