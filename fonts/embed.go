package fonts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-fonts/latin-modern/lmmono10regular"
	"github.com/go-fonts/latin-modern/lmroman10bold"
	"github.com/go-fonts/latin-modern/lmroman10bolditalic"
	"github.com/go-fonts/latin-modern/lmroman10italic"
	"github.com/go-fonts/latin-modern/lmroman10regular"
	"github.com/go-fonts/latin-modern/lmsans10bold"
	"github.com/go-fonts/latin-modern/lmsans10oblique"
	"github.com/go-fonts/latin-modern/lmsans10regular"
)

// Default 是未指定字体时使用的内置字体。
const Default = "lmroman10-regular"

var builtin = map[string][]byte{
	"lmroman10-regular":    lmroman10regular.TTF,
	"lmroman10-bold":       lmroman10bold.TTF,
	"lmroman10-italic":     lmroman10italic.TTF,
	"lmroman10-bolditalic": lmroman10bolditalic.TTF,
	"lmsans10-regular":     lmsans10regular.TTF,
	"lmsans10-bold":        lmsans10bold.TTF,
	"lmsans10-oblique":     lmsans10oblique.TTF,
	"lmmono10-regular":     lmmono10regular.TTF,
}

// Load 返回内置字体的字节数据，name 可写为 "embed:lmroman10-regular" 或直接 "lmroman10-regular"。
func Load(name string) ([]byte, error) {
	key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "embed:")))
	key = strings.TrimSuffix(strings.TrimSuffix(key, ".otf"), ".ttf")
	data, ok := builtin[key]
	if !ok || len(data) == 0 {
		return nil, fmt.Errorf("读取内置字体 %s 失败: 未知字体（可用: %s）", name, strings.Join(Names(), ", "))
	}
	return data, nil
}

// Names 返回所有内置字体名称（已排序）。
func Names() []string {
	out := make([]string, 0, len(builtin))
	for name := range builtin {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
