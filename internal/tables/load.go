package tables

import (
	"io"
	"strings"
	"time"

	"carte-elus/internal/normalize"
)

// 列别名（Slug 形式，优先级从左到右）
var (
	colDept          = []string{"departement", "departementcode", "codedpt", "codedepartement"}
	colDeptName      = []string{"departementnom", "nomdepartement", "libelledudepartement"}
	colCirco         = []string{"numcirco", "circo", "numcirc", "circonscription"}
	colFirstName     = []string{"prenom", "prenomdelelu"}
	colLastName      = []string{"nom", "nomdelelu"}
	colGroup         = []string{"groupe", "libelle"}
	colGroupAbbrev   = []string{"groupeabrev", "libelleabrev"}
	colMandates      = []string{"nombremandats"}
	colParticipation = []string{"scoreparticipation"}
	colLoyalty       = []string{"scoreloyaute"}
	colMail          = []string{"mail", "email"}
	colWebsite       = []string{"siteinternet", "website"}
	colFacebook      = []string{"facebook"}
	colTwitter       = []string{"twitter"}

	colCommune      = []string{"codedelacommune", "codecommune", "codeinsee", "insee", "codgeo"}
	colCommuneName  = []string{"libelledelacommune", "nomcommune", "libellecommune", "commune"}
	colMandateStart = []string{"datededebutdumandat", "datedebutmandat"}
	colNuance       = []string{"nuance", "codenuance", "nuancepolitique"}
	colFamily       = []string{"famille", "famillepolitique", "famillenuance"}
)

// 文档注释：加载议员表（分号分隔）
// 背景：按 CircoKey 建索引，与几何侧使用同一规范化函数；重复键后者覆盖前者。
// 约束：缺少省份或选区列时整表视为解析失败；单行缺键跳过。
func LoadDeputies(rd io.Reader, source string) (map[string]Deputy, LoadStats, error) {
	out := make(map[string]Deputy)
	st, err := readRows(rd, ';', source, [][]string{colDept, colCirco}, func(r row) {
		d := Deputy{
			DeptCode:      normalize.DeptCode(r.get(colDept...)),
			DeptName:      r.get(colDeptName...),
			Circo:         normalize.CircoNumber(r.get(colCirco...)),
			FirstName:     r.get(colFirstName...),
			LastName:      r.get(colLastName...),
			Group:         r.get(colGroup...),
			GroupAbbrev:   r.get(colGroupAbbrev...),
			Mandates:      parseCount(r.get(colMandates...)),
			Participation: parseScore(r.get(colParticipation...)),
			Loyalty:       parseScore(r.get(colLoyalty...)),
			Mail:          r.get(colMail...),
			Website:       r.get(colWebsite...),
			Facebook:      r.get(colFacebook...),
			Twitter:       r.get(colTwitter...),
		}
		if d.DeptCode == "" || d.Circo == "" {
			return
		}
		out[normalize.CircoKey(d.DeptCode, d.Circo)] = d
	})
	st.Skipped += st.Rows - len(out)
	st.Rows = len(out)
	return out, st, err
}

// 文档注释：加载市长表（逗号分隔），派别字段先填默认值，由 JoinFamilies 补全
func LoadMayors(rd io.Reader, source string) (map[string]Mayor, LoadStats, error) {
	out := make(map[string]Mayor)
	st, err := readRows(rd, ',', source, [][]string{colCommune}, func(r row) {
		code := normalize.CommuneCode(r.get(colCommune...))
		if code == "" {
			return
		}
		out[code] = Mayor{
			CommuneCode:  code,
			CommuneName:  r.get(colCommuneName...),
			FirstName:    r.get(colFirstName...),
			LastName:     r.get(colLastName...),
			MandateStart: parseDate(r.get(colMandateStart...)),
			Politics:     DefaultFamily(),
		}
	})
	st.Skipped += st.Rows - len(out)
	st.Rows = len(out)
	return out, st, err
}

// LoadFamilies 加载市镇政治派别表（逗号分隔），空大类视为未分类
func LoadFamilies(rd io.Reader, source string) (map[string]PoliticalFamily, LoadStats, error) {
	out := make(map[string]PoliticalFamily)
	st, err := readRows(rd, ',', source, [][]string{colCommune}, func(r row) {
		code := normalize.CommuneCode(r.get(colCommune...))
		if code == "" {
			return
		}
		pf := PoliticalFamily{Nuance: r.get(colNuance...), Family: r.get(colFamily...)}
		if pf.Family == "" {
			pf.Family = Unclassified
		}
		out[code] = pf
	})
	st.Skipped += st.Rows - len(out)
	st.Rows = len(out)
	return out, st, err
}

// 文档注释：将派别并入市长记录
// 背景：两张表异步加载，任一方更新后重新合并；返回新表，不修改入参。
// 约束：无匹配派别的市长保持 "Non classé"，不会出现空派别。
func JoinFamilies(mayors map[string]Mayor, families map[string]PoliticalFamily) map[string]Mayor {
	out := make(map[string]Mayor, len(mayors))
	for code, m := range mayors {
		if pf, ok := families[code]; ok {
			m.Politics = pf
		} else {
			m.Politics = DefaultFamily()
		}
		out[code] = m
	}
	return out
}

var dateLayouts = []string{"02/01/2006", "2006-01-02", "2006-01-02T15:04:05Z07:00"}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
