package tables

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"carte-elus/internal/fetch"
	"carte-elus/internal/logger"
	"carte-elus/internal/normalize"
)

// 文档注释：按表头定位列的行视图
// 背景：不同年份导出的列名不一致（departement / departementCode，numCirco / circo）；
// 以别名列表显式声明兼容关系，首个存在的别名生效，而不是在业务代码里写 a||b 链。
// 约束：表头比较前统一做 Slug（去音调、去空白与连字符、小写），别名须以同样形式书写。
type row struct {
	cols   map[string]int
	fields []string
}

func headerKey(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return normalize.Slug(h, normalize.SlugOptions{StripHyphens: true})
}

func (r row) get(aliases ...string) string {
	for _, a := range aliases {
		if idx, ok := r.cols[a]; ok && idx < len(r.fields) {
			return strings.TrimSpace(r.fields[idx])
		}
	}
	return ""
}

func (r row) has(aliases ...string) bool {
	for _, a := range aliases {
		if _, ok := r.cols[a]; ok {
			return true
		}
	}
	return false
}

// 文档注释：逐行读取带表头的分隔文本
// 背景：畸形行（字段数少于表头）直接跳过并计数，不中断后续加载；引号错误同样按畸形行处理。
// 返回：统计信息；仅在表头缺失、必需列缺失或底层读取失败时返回 error。
func readRows(rd io.Reader, comma rune, source string, required [][]string, fn func(row)) (LoadStats, error) {
	var st LoadStats
	cr := csv.NewReader(rd)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = false

	header, err := cr.Read()
	if err != nil {
		return st, fetch.NewLoadError("parse", source, err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		k := headerKey(h)
		if _, dup := cols[k]; !dup {
			cols[k] = i
		}
	}
	for _, aliases := range required {
		if !(row{cols: cols}).has(aliases...) {
			return st, fetch.NewLoadError("parse", source, fmt.Errorf("missing column %q", aliases[0]))
		}
	}
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				st.Skipped++
				continue
			}
			return st, fetch.NewLoadError("parse", source, err)
		}
		if len(fields) < len(header) {
			st.Skipped++
			continue
		}
		st.Rows++
		fn(row{cols: cols, fields: fields})
	}
	if st.Skipped > 0 {
		logger.L().Debug("table_rows_skipped", "source", source, "skipped", st.Skipped)
	}
	return st, nil
}

func parseFloat(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func parseScore(s string) float64 {
	f := parseFloat(s)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// 表格中的计数常以 "3.0" 出现，截断取整
func parseCount(s string) int {
	return int(parseFloat(s))
}
