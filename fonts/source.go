package fonts

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
)

// 字体来源写法：
//   go:<name>    内置 Go 字体（regular/bold/italic/bolditalic/medium/mono/monobold）
//   basic:7x13   内置位图字体，无需 TTF 数据
//   其它         TTF/OTF 文件路径，相对路径按 baseDir 解析

const (
	goPrefix    = "go:"
	basicPrefix = "basic:"
)

var builtin = map[string][]byte{
	"regular":    goregular.TTF,
	"bold":       gobold.TTF,
	"italic":     goitalic.TTF,
	"bolditalic": gobolditalic.TTF,
	"medium":     gomedium.TTF,
	"mono":       gomono.TTF,
	"monobold":   gomonobold.TTF,
}

// IsBitmap 报告 src 是否指向内置位图字体。
func IsBitmap(src string) bool { return strings.HasPrefix(src, basicPrefix) }

// Load 返回字体文件的字节数据。位图字体没有字节数据，调用方应先用 IsBitmap 判断。
func Load(src, baseDir string) ([]byte, error) {
	switch {
	case src == "":
		return nil, fmt.Errorf("字体来源为空")
	case strings.HasPrefix(src, goPrefix):
		name := strings.TrimPrefix(src, goPrefix)
		data, ok := builtin[name]
		if !ok {
			return nil, fmt.Errorf("找不到内置字体 %s（可选: %s）", src, strings.Join(BuiltinNames(), ", "))
		}
		return data, nil
	case IsBitmap(src):
		return nil, fmt.Errorf("位图字体 %s 没有字节数据", src)
	}
	path := src
	if !filepath.IsAbs(path) && baseDir != "" {
		path = filepath.Join(baseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取字体 %s 失败: %w", src, err)
	}
	return data, nil
}

// BuiltinNames 返回全部内置 Go 字体的名称。
func BuiltinNames() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
