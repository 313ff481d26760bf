package layout

import (
	"encoding/json"
	"os"
)

// DebugJSON 将排版结果序列化为缩进 JSON，便于调试或与预览结果对比。
func DebugJSON(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// WriteDebugJSON 将排版结果写入 path。res 为空时不做任何事。
func WriteDebugJSON(res *Result, path string) error {
	if res == nil {
		return nil
	}
	data, err := DebugJSON(res)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
