package domain

// ProjectFilter holds optional browse criteria. Zero-valued fields impose no
// constraint; an all-zero filter matches every project.
type ProjectFilter struct {
	Query    string // substring over title, authors or keywords (case-insensitive)
	YearFrom int    // publication year lower bound, inclusive
	YearTo   int    // publication year upper bound, inclusive
	Major    string // exact match
	Abstract string // substring over abstract (case-insensitive)
}

// IsZero reports whether the filter constrains nothing.
func (f ProjectFilter) IsZero() bool {
	return f.Query == "" && f.YearFrom == 0 && f.YearTo == 0 && f.Major == "" && f.Abstract == ""
}

// AnnotatedProject decorates a project with the per-request saved flag.
// The flag is derived for the response only and never persisted.
type AnnotatedProject struct {
	Project
	IsSaved bool `json:"isSaved"`
}
