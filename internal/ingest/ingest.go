// 包 ingest：把表格来源（CSV 文件或 URL）导入 PostgreSQL，作为离线数据通道
package ingest

import (
	"context"
	"io"

	"carte-elus/internal/config"
	"carte-elus/internal/fetch"
	"carte-elus/internal/logger"
	"carte-elus/internal/store"
	"carte-elus/internal/tables"
)

// Report 汇总一次导入各表的行数
type Report map[string]tables.LoadStats

func readTable[T any](ctx context.Context, src string, load func(io.Reader, string) (T, tables.LoadStats, error)) (T, tables.LoadStats, error) {
	var zero T
	rc, err := fetch.Open(ctx, src)
	if err != nil {
		return zero, tables.LoadStats{}, err
	}
	defer rc.Close()
	return load(rc, src)
}

// 文档注释：拉取三张表并整表替换写入数据库
// 背景：议员、市长、派别分别在各自事务内替换；任一表读取失败则不写入任何表，避免库内出现新旧混合。
// 异常：读取/解析/数据库错误直接返回，不做重试（交由调度层处理）
func FetchAndImport(ctx context.Context, st *store.Store, src config.Sources) (Report, error) {
	l := logger.L()
	l.Info("ingest_start", "deputes", src.Deputes, "maires", src.Maires, "familles", src.Familles)
	deputies, dst, err := readTable(ctx, src.Deputes, tables.LoadDeputies)
	if err != nil {
		return nil, err
	}
	mayors, mst, err := readTable(ctx, src.Maires, tables.LoadMayors)
	if err != nil {
		return nil, err
	}
	families, fst, err := readTable(ctx, src.Familles, tables.LoadFamilies)
	if err != nil {
		return nil, err
	}

	if err := st.ReplaceDeputies(ctx, deputies); err != nil {
		return nil, err
	}
	if err := st.ReplaceMayors(ctx, mayors); err != nil {
		return nil, err
	}
	if err := st.ReplaceFamilies(ctx, families); err != nil {
		return nil, err
	}
	rep := Report{"deputes": dst, "maires": mst, "familles_politiques": fst}
	sources := map[string]string{"deputes": src.Deputes, "maires": src.Maires, "familles_politiques": src.Familles}
	for name, s := range rep {
		if err := st.RecordImport(ctx, name, sources[name], s); err != nil {
			l.Error("ingest_record_error", "table", name, "err", err)
		}
	}
	l.Info("ingest_done", "deputes", dst.Rows, "maires", mst.Rows, "familles", fst.Rows,
		"skipped", dst.Skipped+mst.Skipped+fst.Skipped)
	return rep, nil
}

// EnsureInitialized：议员表为空时执行一次导入，简化首次部署
func EnsureInitialized(ctx context.Context, st *store.Store, src config.Sources) error {
	counts, err := st.Counts(ctx)
	if err != nil {
		return err
	}
	if counts["deputes"] > 0 {
		return nil
	}
	_, err = FetchAndImport(ctx, st, src)
	return err
}
