// 包 store: PostgreSQL 数据访问层，持久化议员、市长与派别表，并可作为服务的表格来源
package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"

	"carte-elus/internal/logger"
	"carte-elus/internal/normalize"
	"carte-elus/internal/tables"
)

// Store: 数据库访问入口，持有连接池
type Store struct {
	db *sql.DB
}

func AttachDB(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// 文档注释：整表替换（单事务内先清空再插入）
// 背景：源表格按期整体发布，不存在增量；读者在事务提交前始终看到旧表。
func (s *Store) replace(ctx context.Context, table, insert string, n int, args func(i int) []any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, args(i)...); err != nil {
			return err
		}
		if (i+1)%5000 == 0 {
			logger.L().Debug("store_replace_progress", "table", table, "count", i+1)
		}
	}
	return tx.Commit()
}

// ReplaceDeputies 用给定记录替换 deputes 表
func (s *Store) ReplaceDeputies(ctx context.Context, deputies map[string]tables.Deputy) error {
	rows := make([]tables.Deputy, 0, len(deputies))
	for _, d := range deputies {
		rows = append(rows, d)
	}
	return s.replace(ctx, "deputes", `INSERT INTO deputes(dept_code, circo, dept_name, first_name, last_name, groupe, groupe_abrev,
		mandats, participation, loyaute, mail, website, facebook, twitter)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`, len(rows), func(i int) []any {
		d := rows[i]
		return []any{d.DeptCode, d.Circo, d.DeptName, d.FirstName, d.LastName, d.Group, d.GroupAbbrev,
			d.Mandates, d.Participation, d.Loyalty, d.Mail, d.Website, d.Facebook, d.Twitter}
	})
}

// ReplaceMayors 用给定记录替换 maires 表（不含派别字段）
func (s *Store) ReplaceMayors(ctx context.Context, mayors map[string]tables.Mayor) error {
	rows := make([]tables.Mayor, 0, len(mayors))
	for _, m := range mayors {
		rows = append(rows, m)
	}
	return s.replace(ctx, "maires", `INSERT INTO maires(commune_code, commune_name, first_name, last_name, mandate_start)
		VALUES($1,$2,$3,$4,$5)`, len(rows), func(i int) []any {
		m := rows[i]
		var start sql.NullTime
		if !m.MandateStart.IsZero() {
			start = sql.NullTime{Time: m.MandateStart, Valid: true}
		}
		return []any{m.CommuneCode, m.CommuneName, m.FirstName, m.LastName, start}
	})
}

// ReplaceFamilies 用给定记录替换 familles_politiques 表
func (s *Store) ReplaceFamilies(ctx context.Context, families map[string]tables.PoliticalFamily) error {
	codes := make([]string, 0, len(families))
	for code := range families {
		codes = append(codes, code)
	}
	return s.replace(ctx, "familles_politiques", `INSERT INTO familles_politiques(commune_code, nuance, famille)
		VALUES($1,$2,$3)`, len(codes), func(i int) []any {
		f := families[codes[i]]
		return []any{codes[i], f.Nuance, f.Family}
	})
}

// RecordImport 记录一次导入的来源与行数
func (s *Store) RecordImport(ctx context.Context, name, source string, st tables.LoadStats) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO table_imports(name, source, rows, skipped, imported_at)
		VALUES($1,$2,$3,$4,now())
		ON CONFLICT (name) DO UPDATE SET source=EXCLUDED.source, rows=EXCLUDED.rows, skipped=EXCLUDED.skipped, imported_at=now()`,
		name, source, st.Rows, st.Skipped)
	return err
}

// 文档注释：从数据库读取完整表格快照
// 背景：TABLE_SOURCE=postgres 时替代 CSV 加载；市长与派别在内存中合并，规则与文件来源一致。
// 约束：任一查询失败即返回错误，不返回部分快照。
func (s *Store) LoadTables(ctx context.Context) (*tables.Tables, error) {
	deputies, err := s.loadDeputies(ctx)
	if err != nil {
		return nil, err
	}
	mayors, err := s.loadMayors(ctx)
	if err != nil {
		return nil, err
	}
	families, err := s.loadFamilies(ctx)
	if err != nil {
		return nil, err
	}
	logger.L().Debug("store_tables_loaded", "deputies", len(deputies), "mayors", len(mayors), "families", len(families))
	return &tables.Tables{Deputies: deputies, Mayors: tables.JoinFamilies(mayors, families)}, nil
}

func (s *Store) loadDeputies(ctx context.Context) (map[string]tables.Deputy, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT dept_code, circo, dept_name, first_name, last_name, groupe, groupe_abrev,
		mandats, participation, loyaute, mail, website, facebook, twitter FROM deputes`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]tables.Deputy)
	for rows.Next() {
		var d tables.Deputy
		if err := rows.Scan(&d.DeptCode, &d.Circo, &d.DeptName, &d.FirstName, &d.LastName, &d.Group, &d.GroupAbbrev,
			&d.Mandates, &d.Participation, &d.Loyalty, &d.Mail, &d.Website, &d.Facebook, &d.Twitter); err != nil {
			return nil, err
		}
		out[normalize.CircoKey(d.DeptCode, d.Circo)] = d
	}
	return out, rows.Err()
}

func (s *Store) loadMayors(ctx context.Context) (map[string]tables.Mayor, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT commune_code, commune_name, first_name, last_name, mandate_start FROM maires`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]tables.Mayor)
	for rows.Next() {
		var m tables.Mayor
		var start sql.NullTime
		if err := rows.Scan(&m.CommuneCode, &m.CommuneName, &m.FirstName, &m.LastName, &start); err != nil {
			return nil, err
		}
		if start.Valid {
			m.MandateStart = start.Time.UTC().Truncate(24 * time.Hour)
		}
		m.Politics = tables.DefaultFamily()
		out[m.CommuneCode] = m
	}
	return out, rows.Err()
}

func (s *Store) loadFamilies(ctx context.Context) (map[string]tables.PoliticalFamily, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT commune_code, nuance, famille FROM familles_politiques`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]tables.PoliticalFamily)
	for rows.Next() {
		var code string
		var f tables.PoliticalFamily
		if err := rows.Scan(&code, &f.Nuance, &f.Family); err != nil {
			return nil, err
		}
		out[code] = f
	}
	return out, rows.Err()
}

// Counts 返回各表行数，用于状态接口
func (s *Store) Counts(ctx context.Context) (map[string]int64, error) {
	out := make(map[string]int64, 3)
	for _, t := range []string{"deputes", "maires", "familles_politiques"} {
		var n int64
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM "+t).Scan(&n); err != nil {
			return nil, err
		}
		out[t] = n
	}
	return out, nil
}
