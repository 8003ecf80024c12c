// 包 normalize：统一构造连接键与外链标识，几何属性与表格字段必须经过同一套规则
package normalize

import (
	"encoding/json"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// 文档注释：规范化省份（département）编码
// 背景：几何数据使用 "07" 补零形式，议员表使用 "7"；两侧统一剥除恰好一个前导零后再拼键。
// 约束：仅剥除一个 "0"（"007" → "07"）；科西嘉 "2A"/"2B" 不以 0 开头，原样保留；单独的 "0" 保留。
func DeptCode(raw any) string {
	s := scalarText(raw)
	if len(s) > 1 && s[0] == '0' {
		return s[1:]
	}
	return s
}

// 文档注释：规范化选区（circonscription）编号
// 背景：表格导出常见 "5.0"，GeoJSON 中可能是数字 5 或字符串 "05"；统一为整数文本。
// 约束：小数点后直接截断不四舍五入；非整数文本保留去空白后的原值。
func CircoNumber(raw any) string {
	switch v := raw.(type) {
	case float64:
		return strconv.FormatInt(int64(v), 10)
	case float32:
		return strconv.FormatInt(int64(v), 10)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	}
	s := scalarText(raw)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	if n, err := strconv.Atoi(s); err == nil {
		return strconv.Itoa(n)
	}
	return s
}

// CircoKey 返回 "{dept}-{circo}" 连接键
func CircoKey(dept, circo any) string {
	return DeptCode(dept) + "-" + CircoNumber(circo)
}

// 文档注释：规范化市镇 INSEE 编码
// 背景：逗号表格可能丢失前导零（01004 → 1004），几何侧为 5 位文本；纯数字且不足 5 位时左补零。
func CommuneCode(raw any) string {
	s := scalarText(raw)
	if s == "" {
		return ""
	}
	if _, err := strconv.Atoi(s); err == nil && len(s) < 5 {
		return strings.Repeat("0", 5-len(s)) + s
	}
	return strings.ToUpper(s)
}

func scalarText(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return strings.TrimSpace(v.String())
	case float64:
		return strconv.FormatInt(int64(v), 10)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	}
	return ""
}

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// SlugOptions 控制外链标识的连字符策略
type SlugOptions struct {
	StripHyphens bool
}

// 文档注释：构造外链标识（去音调、去撇号、空白转连字符）
// 背景：第三方档案页以 ASCII 小写标识寻址，如 "Côte-d'Or" → "cote-dor"。
// 约束：StripHyphens 时连字符与空白一并删除（"cotedor"）；其余非字母数字字符丢弃。
func Slug(s string, opts SlugOptions) string {
	s, _, _ = transform.String(stripAccents, strings.ToLower(strings.TrimSpace(s)))
	var b strings.Builder
	b.Grow(len(s))
	pendingDash := false
	for _, r := range s {
		switch {
		case r == '\'' || r == '’' || r == 'ʼ':
			continue
		case unicode.IsSpace(r) || r == '-':
			if !opts.StripHyphens && b.Len() > 0 {
				pendingDash = true
			}
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingDash {
				b.WriteByte('-')
				pendingDash = false
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// 文档注释：议员档案外链
// 约束：base 末尾斜杠可有可无；任一名字分量为空时返回空串，由调用方省略链接。
func ProfileURL(base, first, last, deptName string) string {
	name := Slug(first+" "+last, SlugOptions{})
	dept := Slug(deptName, SlugOptions{})
	if base == "" || name == "" || dept == "" {
		return ""
	}
	return strings.TrimRight(base, "/") + "/" + dept + "/depute_" + name
}
