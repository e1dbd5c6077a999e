package layout

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
)

// EncodeDebugJSON 将写出前的页面描述编码为缩进 JSON（栅格数据本身不输出，仅输出像素尺寸）。
func EncodeDebugJSON(res *Result, w io.Writer) error {
	if res == nil {
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(res)
}

// WriteDebugJSON 将布局结果输出为 JSON 文件，便于调试或可视化。
func WriteDebugJSON(res *Result, path string) error {
	if res == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeDebugJSON(res, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
