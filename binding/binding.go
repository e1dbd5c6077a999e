// Package binding 处理作业文本与文件名中的 ${...} 占位符。
package binding

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var placeholder = regexp.MustCompile(`\$\{[^}]+\}`)

// DocVars 返回文档级变量：${doc.name}、${doc.title}、${page.total}，以及调用方数据 ${data.*}。
func DocVars(name, title string, total int, data any) map[string]any {
	vars := map[string]any{
		"doc": map[string]any{
			"name":  name,
			"title": title,
		},
		"data": data,
	}
	if total > 0 {
		vars["page"] = map[string]any{"total": total}
	}
	return vars
}

// PageVars 在文档变量基础上补充当前页的 ${page.number} 与 ${page.total}。
func PageVars(doc map[string]any, number, total int) map[string]any {
	out := make(map[string]any, len(doc)+1)
	for k, v := range doc {
		out[k] = v
	}
	page := map[string]any{"number": number}
	if total > 0 {
		page["total"] = total
	}
	out["page"] = page
	return out
}

// Interpolate 将文本中的 ${path.to.value} 替换为 data 中的值，路径支持 a.b[0].c。
// 若 data 为空或路径不存在，则保留原占位符。
func Interpolate(text string, data any) string {
	if data == nil {
		return text
	}
	return placeholder.ReplaceAllStringFunc(text, func(match string) string {
		path := strings.TrimSpace(match[2 : len(match)-1])
		if val, ok := lookup(data, path); ok {
			return fmt.Sprint(val)
		}
		return match
	})
}

// lookup 沿路径逐段取值；任何一段缺失或为 nil 都返回 false。
func lookup(data any, path string) (any, bool) {
	keys := strings.FieldsFunc(path, func(r rune) bool { return r == '.' || r == '[' || r == ']' })
	if len(keys) == 0 {
		return nil, false
	}
	cur := data
	for _, key := range keys {
		switch c := cur.(type) {
		case map[string]any:
			v, ok := c[key]
			if !ok || v == nil {
				return nil, false
			}
			cur = v
		case []any:
			idx, err := strconv.Atoi(key)
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
