// 包 tables：加载议员、市长与政治派别表格，构造按规范化键索引的只读查找表
package tables

import "time"

// Unclassified 为缺失派别记录时的默认派别
const Unclassified = "Non classé"

// 文档注释：议员记录（一个立法选区对应一名议员）
// 约束：加载后只读；键为 normalize.CircoKey(DeptCode, Circo)。
type Deputy struct {
	DeptCode      string  `json:"dept_code"`
	DeptName      string  `json:"dept_name,omitempty"`
	Circo         string  `json:"circo"`
	FirstName     string  `json:"first_name"`
	LastName      string  `json:"last_name"`
	Group         string  `json:"group,omitempty"`
	GroupAbbrev   string  `json:"group_abbrev,omitempty"`
	Mandates      int     `json:"mandates"`
	Participation float64 `json:"participation"`
	Loyalty       float64 `json:"loyalty"`
	Mail          string  `json:"mail,omitempty"`
	Website       string  `json:"website,omitempty"`
	Facebook      string  `json:"facebook,omitempty"`
	Twitter       string  `json:"twitter,omitempty"`
}

// PoliticalFamily 为市镇的派别代码与大类
type PoliticalFamily struct {
	Nuance string `json:"nuance,omitempty"`
	Family string `json:"family"`
}

// DefaultFamily 返回"未分类"派别
func DefaultFamily() PoliticalFamily { return PoliticalFamily{Family: Unclassified} }

// 文档注释：市长记录
// 约束：Politics 永远非空值；无匹配派别时为 DefaultFamily()。MandateStart 无法解析时为零值。
type Mayor struct {
	CommuneCode  string          `json:"commune_code"`
	CommuneName  string          `json:"commune_name"`
	FirstName    string          `json:"first_name"`
	LastName     string          `json:"last_name"`
	MandateStart time.Time       `json:"mandate_start"`
	Politics     PoliticalFamily `json:"politics"`
}

// LoadStats 记录一次加载的行数与跳过的畸形行数
type LoadStats struct {
	Rows    int
	Skipped int
}
