package canvasrenderer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"

	"github.com/ByLCY/quire/fonts"
	"github.com/ByLCY/quire/layout"
)

// fontCache 按 name/src/style 缓存字体族；无法加载的字体统一回退到内置字体。
type fontCache struct {
	baseDir string

	mu       sync.Mutex
	families map[string]fontEntry
	fallback *canvas.FontFamily
}

type fontEntry struct {
	family *canvas.FontFamily
	style  canvas.FontStyle
}

func newFontCache(baseDir string) *fontCache {
	return &fontCache{baseDir: baseDir, families: map[string]fontEntry{}}
}

// face 返回 sizePt 字号的字体面。
func (c *fontCache) face(font layout.FontResource, sizePt float64, col layout.Color) (*canvas.FontFace, error) {
	e, err := c.entry(font)
	if err != nil {
		return nil, err
	}
	return e.family.Face(sizePt, colorFromLayout(col), e.style, canvas.FontNormal), nil
}

func (c *fontCache) entry(font layout.FontResource) (fontEntry, error) {
	key := font.Name + "|" + font.Src + "|" + font.Style
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.families[key]; ok {
		return e, nil
	}

	e := fontEntry{family: canvas.NewFontFamily(familyName(font)), style: parseFontStyle(font.Style)}
	data, err := c.load(font)
	if err == nil {
		err = e.family.LoadFont(data, 0, e.style)
	}
	if err != nil {
		fb, fbErr := c.fallbackFamily()
		if fbErr != nil {
			return fontEntry{}, fmt.Errorf("字体 %s: %w", font.Name, err)
		}
		e = fontEntry{family: fb, style: canvas.FontRegular}
	}
	c.families[key] = e
	return e, nil
}

// load 读取字体数据：embed:<name> 来自内置字体，其余为相对 baseDir 的文件路径。
func (c *fontCache) load(font layout.FontResource) ([]byte, error) {
	src := font.Src
	switch {
	case src == "":
		return nil, fmt.Errorf("字体 %s 缺少 src", font.Name)
	case strings.HasPrefix(src, "embed:"):
		return fonts.Load(src)
	}
	if !filepath.IsAbs(src) {
		if c.baseDir == "" {
			return nil, fmt.Errorf("未指定资源目录时不允许使用相对字体路径：%s（请改用 embed:）", src)
		}
		src = filepath.Join(c.baseDir, src)
	}
	return os.ReadFile(src)
}

func (c *fontCache) fallbackFamily() (*canvas.FontFamily, error) {
	if c.fallback != nil {
		return c.fallback, nil
	}
	data, err := fonts.Load(fonts.Default)
	if err != nil {
		return nil, err
	}
	family := canvas.NewFontFamily("quire-fallback")
	if err := family.LoadFont(data, 0, canvas.FontRegular); err != nil {
		return nil, err
	}
	c.fallback = family
	return family, nil
}

func familyName(font layout.FontResource) string {
	switch {
	case font.Family != "":
		return font.Family
	case font.Name != "":
		return font.Name
	default:
		return "Body"
	}
}

// 顺序有意义：extrabold/semibold 需要先于 bold 匹配。
var fontWeights = []struct {
	word  string
	style canvas.FontStyle
}{
	{"extrabold", canvas.FontExtraBold},
	{"semibold", canvas.FontSemiBold},
	{"demibold", canvas.FontSemiBold},
	{"black", canvas.FontBlack},
	{"bold", canvas.FontBold},
	{"medium", canvas.FontMedium},
	{"light", canvas.FontLight},
}

func parseFontStyle(style string) canvas.FontStyle {
	s := strings.ToLower(style)
	result := canvas.FontRegular
	for _, w := range fontWeights {
		if strings.Contains(s, w.word) {
			result = w.style
			break
		}
	}
	if strings.Contains(s, "italic") || strings.Contains(s, "oblique") {
		result |= canvas.FontItalic
	}
	return result
}

// resolveFontResource 按名称查找字体，找不到时依次回退到 Body 与任意已声明字体。
func resolveFontResource(name string, declared map[string]layout.FontResource) layout.FontResource {
	if font, ok := declared[name]; ok {
		return font
	}
	if font, ok := declared["Body"]; ok {
		return font
	}
	for _, font := range declared {
		return font
	}
	return layout.FontResource{}
}
