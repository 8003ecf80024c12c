package store

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"carte-elus/internal/migrate"
	"carte-elus/internal/tables"
)

// 需要真实 PostgreSQL：设置 CARTE_TEST_PG_DSN 后运行，否则跳过
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("CARTE_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("CARTE_TEST_PG_DSN not set")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrate.EnsureSchema(context.Background(), db); err != nil {
		t.Fatal(err)
	}
	return AttachDB(db)
}

func TestReplaceAndLoadTables(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	err := s.ReplaceDeputies(ctx, map[string]tables.Deputy{
		"7-2": {DeptCode: "7", Circo: "2", FirstName: "Hervé", LastName: "Saulignac", GroupAbbrev: "SOC-NFP", Participation: 0.41},
	})
	if err != nil {
		t.Fatal(err)
	}
	start := time.Date(2020, 7, 3, 0, 0, 0, 0, time.UTC)
	err = s.ReplaceMayors(ctx, map[string]tables.Mayor{
		"01004": {CommuneCode: "01004", CommuneName: "Ambérieu-en-Bugey", LastName: "EXPOSITO", MandateStart: start},
		"75056": {CommuneCode: "75056", CommuneName: "Paris", LastName: "HIDALGO"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.ReplaceFamilies(ctx, map[string]tables.PoliticalFamily{"01004": {Nuance: "DVD", Family: "Droite"}}); err != nil {
		t.Fatal(err)
	}

	tb, err := s.LoadTables(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if d, ok := tb.Deputy("7-2"); !ok || d.LastName != "Saulignac" {
		t.Errorf("deputy = %+v, %v", d, ok)
	}
	if m, ok := tb.Mayor("01004"); !ok || m.Politics.Family != "Droite" || !m.MandateStart.Equal(start) {
		t.Errorf("mayor = %+v, %v", m, ok)
	}
	if m, ok := tb.Mayor("75056"); !ok || m.Politics.Family != tables.Unclassified || !m.MandateStart.IsZero() {
		t.Errorf("unclassified mayor = %+v, %v", m, ok)
	}

	counts, err := s.Counts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if counts["deputes"] != 1 || counts["maires"] != 2 || counts["familles_politiques"] != 1 {
		t.Errorf("counts = %v", counts)
	}
}
