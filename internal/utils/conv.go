package utils

import (
	"strconv"
)

// StringToIntDefault 解析整数，为空或非法时返回默认值
func StringToIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

// TruncateRunes 按字符数截断字符串（避免把多字节字符截断在中间）
func TruncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
