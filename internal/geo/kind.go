// 包 geo：行政区几何图层（大区、省、立法选区、市镇）的加载、属性读取与点落区查询
package geo

import (
	"fmt"
	"strings"
)

// Kind 为图层粒度，数值越大越细
type Kind int

const (
	Region Kind = iota
	Department
	Circonscription
	Commune
)

// Kinds 按由粗到细排列
var Kinds = []Kind{Region, Department, Circonscription, Commune}

func (k Kind) String() string {
	switch k {
	case Region:
		return "regions"
	case Department:
		return "departements"
	case Circonscription:
		return "circonscriptions"
	case Commune:
		return "communes"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind 解析图层名，接受单复数与英文别名
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "regions", "region":
		return Region, nil
	case "departements", "departement", "departments", "department":
		return Department, nil
	case "circonscriptions", "circonscription", "circos", "circo":
		return Circonscription, nil
	case "communes", "commune":
		return Commune, nil
	}
	return 0, fmt.Errorf("unknown layer kind %q", s)
}

// Finer 返回下一级更细图层；最细一级返回 false
func (k Kind) Finer() (Kind, bool) {
	if k >= Commune || k < Region {
		return k, false
	}
	return k + 1, true
}

// MarshalText 让 Kind 在 JSON 中以名称出现
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}
