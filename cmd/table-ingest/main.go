// 数据导入工具：拉取议员、市长与政治派别三张表并整表写入 PostgreSQL
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"carte-elus/internal/config"
	"carte-elus/internal/ingest"
	"carte-elus/internal/migrate"
	"carte-elus/internal/store"
	"carte-elus/internal/utils"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := utils.OpenPostgres(cfg.Postgres)
	if err != nil {
		log.Fatal(err)
	}
	st := store.AttachDB(db)
	defer st.Close()
	if err := migrate.EnsureSchema(ctx, st.DB()); err != nil {
		log.Fatal(err)
	}

	rep, err := ingest.FetchAndImport(ctx, st, cfg.Sources)
	if err != nil {
		log.Fatal(err)
	}
	names := make([]string, 0, len(rep))
	for name := range rep {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s := rep[name]
		fmt.Printf("%s: rows=%d skipped=%d\n", name, s.Rows, s.Skipped)
	}
	fmt.Println("import finished")
}
