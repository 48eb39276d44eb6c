package store

import (
	"reflect"
	"testing"

	"capsarc/pkg/domain"
)

func TestEmptyFilterMatchesAll(t *testing.T) {
	p := ProjectFilterPredicate(domain.ProjectFilter{})
	if !p.Empty() {
		t.Fatal("empty filter produced clauses")
	}
	cond, args := p.Clause()
	if cond != "" || args != nil {
		t.Fatalf("empty filter clause = %q args = %v", cond, args)
	}
}

func TestFullFilterClauseAndArgsInLockstep(t *testing.T) {
	p := ProjectFilterPredicate(domain.ProjectFilter{
		Query:    "robot",
		YearFrom: 2022,
		YearTo:   2023,
		Major:    "Computer Science",
		Abstract: "vision",
	})
	cond, args := p.Clause()
	wantCond := "(title ILIKE ? OR authors ILIKE ? OR keywords ILIKE ?)" +
		" AND publication_year >= ?" +
		" AND publication_year <= ?" +
		" AND major = ?" +
		" AND abstract ILIKE ?"
	if cond != wantCond {
		t.Fatalf("clause = %q, want %q", cond, wantCond)
	}
	wantArgs := []any{"%robot%", "%robot%", "%robot%", 2022, 2023, "Computer Science", "%vision%"}
	if !reflect.DeepEqual(args, wantArgs) {
		t.Fatalf("args = %v, want %v", args, wantArgs)
	}
}

func TestPartialFilterOmitsAbsentCriteria(t *testing.T) {
	p := ProjectFilterPredicate(domain.ProjectFilter{YearFrom: 2020})
	cond, args := p.Clause()
	if cond != "publication_year >= ?" {
		t.Fatalf("clause = %q", cond)
	}
	if len(args) != 1 || args[0] != 2020 {
		t.Fatalf("args = %v", args)
	}
}

func TestFilterValuesAreBoundNotInterpolated(t *testing.T) {
	hostile := "x' OR '1'='1"
	p := ProjectFilterPredicate(domain.ProjectFilter{Query: hostile})
	cond, args := p.Clause()
	if cond != "(title ILIKE ? OR authors ILIKE ? OR keywords ILIKE ?)" {
		t.Fatalf("hostile input changed clause text: %q", cond)
	}
	for _, arg := range args {
		if arg != "%"+hostile+"%" {
			t.Fatalf("unexpected bound arg %v", arg)
		}
	}
}
