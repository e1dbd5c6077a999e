package job

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/ByLCY/quire/dsl"
	"github.com/ByLCY/quire/layout"
)

// parseArgs 将 `Name key value key value ...` 形式的参数拆为可选的首个名称与键值表。
// 首个 Ident 不是已知键时视为名称；其余必须是 known 中的键并各带一个取值。
func parseArgs(args []*dsl.Lexeme, known map[string]bool) (string, map[string]string, error) {
	result := map[string]string{}
	cursor := 0
	var name string
	if len(args) > 0 && args[0].Type == "Ident" && !known[args[0].Value] {
		name = args[0].Value
		cursor = 1
	}

	for ; cursor < len(args); cursor += 2 {
		key := args[cursor].Value
		if !known[key] {
			return "", nil, fmt.Errorf("未知属性 %s", key)
		}
		if cursor+1 >= len(args) {
			return "", nil, fmt.Errorf("属性 %s 缺少取值", key)
		}
		result[key] = args[cursor+1].Value
	}

	return name, result, nil
}

// extractText 把块内的字符串字面量按行拼接，每个字面量是一行（空字面量即空行）。
// 文本统一为 NFC，组合字符按单个字形测量。
func extractText(block *dsl.Block) string {
	if block == nil {
		return ""
	}
	var lines []string
	for _, stmt := range block.Statements {
		if stmt.Text != nil {
			lines = append(lines, string(stmt.Text.Value))
		}
	}
	return norm.NFC.String(strings.Join(lines, "\n"))
}

func parseFontResource(cmd *dsl.Command) layout.FontResource {
	if len(cmd.Args) == 0 {
		return layout.FontResource{}
	}
	font := layout.FontResource{
		Name:   cmd.Args[0].Value,
		Family: cmd.Args[0].Value,
	}
	if cmd.Block == nil {
		return font
	}
	for _, stmt := range cmd.Block.Statements {
		if stmt.Assignment == nil || stmt.Assignment.Value.String == nil {
			continue
		}
		switch stmt.Assignment.Key {
		case "src":
			font.Src = string(*stmt.Assignment.Value.String)
		case "style":
			font.Style = string(*stmt.Assignment.Value.String)
		case "family":
			font.Family = string(*stmt.Assignment.Value.String)
		}
	}
	return font
}

func parseColor(value string) (layout.Color, error) {
	hex := strings.TrimPrefix(value, "#")
	switch len(hex) {
	case 3:
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	case 6, 8:
	default:
		return layout.Color{}, fmt.Errorf("颜色值 %s 无法解析", value)
	}
	// 第四个通道（alpha）只校验不使用
	var c [4]int
	for i := 0; i < len(hex)/2; i++ {
		v, err := strconv.ParseUint(hex[2*i:2*i+2], 16, 8)
		if err != nil {
			return layout.Color{}, fmt.Errorf("颜色值 %s 无法解析: %w", value, err)
		}
		c[i] = int(v)
	}
	return layout.Color{R: c[0], G: c[1], B: c[2]}, nil
}

func valueToString(val *dsl.Value) string {
	if val == nil {
		return ""
	}
	switch {
	case val.String != nil:
		return string(*val.String)
	case val.Number != nil:
		return *val.Number
	case val.Color != nil:
		return *val.Color
	case val.Expr != nil:
		return val.Expr.Text()
	default:
		return ""
	}
}

func valueToStringSlice(val *dsl.Value) []string {
	if val == nil {
		return nil
	}
	if val.Array != nil {
		out := make([]string, 0, len(val.Array.Values))
		for _, item := range val.Array.Values {
			if s := valueToString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	if s := valueToString(val); s != "" {
		return []string{s}
	}
	return nil
}
