// Package narrative holds helpers for the code that writes narrative text:
// filling templates from weather data and trimming a narrative to the
// capacity of its region before layout.
package narrative

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var placeholder = regexp.MustCompile(`\$\{([^}]+)\}`)

// Interpolate 将模板中的 ${path.to.value} 替换为 data 中对应的值。
// 路径支持下标，例如 ${hourly[0].temp}。data 为空或路径不存在时保留原占位符。
func Interpolate(template string, data any) string {
	if data == nil {
		return template
	}
	return placeholder.ReplaceAllStringFunc(template, func(match string) string {
		path := strings.TrimSpace(placeholder.FindStringSubmatch(match)[1])
		if path == "" {
			return match
		}
		if val, ok := Lookup(data, path); ok {
			return format(val)
		}
		return match
	})
}

// Lookup 按路径在 JSON 风格的数据（map[string]any / []any）中取值。
func Lookup(data any, path string) (any, bool) {
	cur := data
	for _, step := range splitPath(path) {
		switch c := cur.(type) {
		case map[string]any:
			v, ok := c[step]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			idx, err := strconv.Atoi(step)
			if err != nil || idx < 0 || idx >= len(c) {
				return nil, false
			}
			cur = c[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

// splitPath 把 "a.b[1][2].c" 拆成 ["a" "b" "1" "2" "c"]。
func splitPath(path string) []string {
	path = strings.NewReplacer("[", ".", "]", "").Replace(path)
	var steps []string
	for _, s := range strings.Split(path, ".") {
		if s = strings.TrimSpace(s); s != "" {
			steps = append(steps, s)
		}
	}
	return steps
}

// format 输出数值时去掉多余的小数位：12 而不是 12.000000。
func format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
