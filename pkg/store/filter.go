package store

import "capsarc/pkg/domain"

// Predicate accumulates WHERE clauses and their bound arguments in lockstep.
// Filter values are always passed as arguments, never spliced into SQL text.
type Predicate struct {
	conds []string
	args  []any
}

// And appends a clause with its arguments.
func (p *Predicate) And(cond string, args ...any) {
	p.conds = append(p.conds, cond)
	p.args = append(p.args, args...)
}

// Clause returns the combined WHERE expression and arguments. An empty
// predicate returns "" and matches everything.
func (p *Predicate) Clause() (string, []any) {
	if len(p.conds) == 0 {
		return "", nil
	}
	cond := p.conds[0]
	for _, c := range p.conds[1:] {
		cond += " AND " + c
	}
	return cond, p.args
}

// Empty reports whether no clauses were added.
func (p *Predicate) Empty() bool {
	return len(p.conds) == 0
}

// ProjectFilterPredicate composes the WHERE clause for a project filter.
// Absent criteria add no clause, so an empty filter matches all rows.
func ProjectFilterPredicate(f domain.ProjectFilter) *Predicate {
	p := &Predicate{}
	if f.Query != "" {
		like := "%" + f.Query + "%"
		p.And("(title ILIKE ? OR authors ILIKE ? OR keywords ILIKE ?)", like, like, like)
	}
	if f.YearFrom > 0 {
		p.And("publication_year >= ?", f.YearFrom)
	}
	if f.YearTo > 0 {
		p.And("publication_year <= ?", f.YearTo)
	}
	if f.Major != "" {
		p.And("major = ?", f.Major)
	}
	if f.Abstract != "" {
		p.And("abstract ILIKE ?", "%"+f.Abstract+"%")
	}
	return p
}
