package tables

import (
	"errors"
	"strings"
	"testing"
	"time"

	"carte-elus/internal/fetch"
)

const deputiesCSV = "\ufeffdepartement;numCirco;prenom;nom;groupe;groupeAbrev;nombreMandats;scoreParticipation;scoreLoyaute;mail;siteInternet;facebook;twitter;departementNom\n" +
	"7;2.0;Hervé;Saulignac;Socialistes et apparentés;SOC-NFP;2.0;0.41;0.97;herve@example.fr;;hsaulignac;;Ardèche\n" +
	"13;5;Hendrik;Davi;Ecologiste et Social;ECOS;1;0,62;0.9;;;;;Bouches-du-Rhône\n" +
	"2A;1;Laurent;Marcangeli;Horizons;HOR;3;0.2;0.8;;;;;Corse-du-Sud\n" +
	"75;1;trop;court\n" +
	";3;Sans;Departement;;;;;;;;;;\n"

func TestLoadDeputies(t *testing.T) {
	got, st, err := LoadDeputies(strings.NewReader(deputiesCSV), "deputes.csv")
	if err != nil {
		t.Fatalf("LoadDeputies: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3 (%v)", len(got), got)
	}
	if st.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", st.Skipped)
	}

	d, ok := got["7-2"]
	if !ok {
		t.Fatalf("key 7-2 missing: %v", got)
	}
	if d.FirstName != "Hervé" || d.GroupAbbrev != "SOC-NFP" || d.Mandates != 2 {
		t.Errorf("unexpected record %+v", d)
	}
	if d.Participation != 0.41 || d.Facebook != "hsaulignac" || d.DeptName != "Ardèche" {
		t.Errorf("unexpected record %+v", d)
	}
	if got["13-5"].Participation != 0.62 {
		t.Errorf("comma decimal not parsed: %v", got["13-5"].Participation)
	}
	if _, ok := got["2A-1"]; !ok {
		t.Errorf("corsican key missing")
	}
}

func TestLoadDeputiesMissingColumn(t *testing.T) {
	_, _, err := LoadDeputies(strings.NewReader("prenom;nom\nA;B\n"), "bad.csv")
	var le *fetch.LoadError
	if !errors.As(err, &le) || le.Stage != "parse" {
		t.Fatalf("err = %v, want parse LoadError", err)
	}
}

const mayorsCSV = "Code du département,Code de la commune,Libellé de la commune,Nom de l'élu,Prénom de l'élu,Date de début du mandat\n" +
	"01,1004,Ambérieu-en-Bugey,EXPOSITO,Daniel,03/07/2020\n" +
	"75,75056,Paris,HIDALGO,Anne,03/07/2020\n" +
	"69,69123\n"

const familiesCSV = "code_commune,nuance,famille\n" +
	"01004,DVD,Droite\n" +
	"99999,DVG,Gauche\n"

func TestMayorsJoinFamilies(t *testing.T) {
	mayors, st, err := LoadMayors(strings.NewReader(mayorsCSV), "maires.csv")
	if err != nil {
		t.Fatalf("LoadMayors: %v", err)
	}
	if st.Rows != 2 || st.Skipped != 1 {
		t.Errorf("stats = %+v", st)
	}
	families, _, err := LoadFamilies(strings.NewReader(familiesCSV), "familles.csv")
	if err != nil {
		t.Fatalf("LoadFamilies: %v", err)
	}
	joined := JoinFamilies(mayors, families)

	amb := joined["01004"]
	if amb.Politics.Family != "Droite" || amb.Politics.Nuance != "DVD" {
		t.Errorf("01004 politics = %+v", amb.Politics)
	}
	if amb.MandateStart != time.Date(2020, 7, 3, 0, 0, 0, 0, time.UTC) {
		t.Errorf("mandate start = %v", amb.MandateStart)
	}
	if joined["75056"].Politics.Family != Unclassified {
		t.Errorf("75056 politics = %+v, want %q", joined["75056"].Politics, Unclassified)
	}
	if mayors["01004"].Politics.Family != Unclassified {
		t.Errorf("JoinFamilies mutated its input")
	}
}

func TestTablesNilSafe(t *testing.T) {
	var tb *Tables
	if _, ok := tb.Deputy("7-2"); ok {
		t.Fatal("nil tables should miss")
	}
	if _, ok := tb.Mayor("75056"); ok {
		t.Fatal("nil tables should miss")
	}
}
