package app

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"capsarc/pkg/domain"
	"capsarc/pkg/paginate"
)

// ProjectPage is one page of annotated search results.
type ProjectPage struct {
	Projects []domain.AnnotatedProject `json:"projects"`
	Page     paginate.Page             `json:"pagination"`
}

// Home lists the featured archive year, paginated. The viewer's saved
// projects are flagged when userID is non-zero. A non-positive perPage falls
// back to the default page size.
func (a *App) Home(userID int64, perPage, pageNumber int) (ProjectPage, error) {
	filter := domain.ProjectFilter{YearFrom: a.homeYear, YearTo: a.homeYear}
	return a.listPage(userID, filter, perPage, pageNumber)
}

// Browse lists projects matching the filter, paginated.
func (a *App) Browse(userID int64, filter domain.ProjectFilter, perPage, pageNumber int) (ProjectPage, error) {
	return a.listPage(userID, filter, perPage, pageNumber)
}

func (a *App) listPage(userID int64, filter domain.ProjectFilter, perPage, pageNumber int) (ProjectPage, error) {
	projects, err := a.store.ListProjects(filter)
	if err != nil {
		return ProjectPage{}, fmt.Errorf("list projects: %w", err)
	}
	annotated, err := a.annotateProjects(userID, projects)
	if err != nil {
		return ProjectPage{}, err
	}
	page := paginate.New(len(annotated), perPage, pageNumber)
	return ProjectPage{
		Projects: paginate.Apply(annotated, page.PerPage, page.Number),
		Page:     page,
	}, nil
}

// annotateProjects overlays the viewer's library onto a result set. The
// saved set is fetched once per request, never per row.
func (a *App) annotateProjects(userID int64, projects []domain.Project) ([]domain.AnnotatedProject, error) {
	saved := map[int64]bool{}
	if userID != 0 {
		ids, err := a.store.SavedProjectIDs(userID)
		if err != nil {
			return nil, fmt.Errorf("saved project ids: %w", err)
		}
		for _, id := range ids {
			saved[id] = true
		}
	}
	annotated := make([]domain.AnnotatedProject, 0, len(projects))
	for _, p := range projects {
		annotated = append(annotated, domain.AnnotatedProject{Project: p, IsSaved: saved[p.ID]})
	}
	return annotated, nil
}

// AllProjects returns the unfiltered archive, for the admin listing.
func (a *App) AllProjects() ([]domain.Project, error) {
	projects, err := a.store.ListProjects(domain.ProjectFilter{})
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// SuggestTitles returns up to a handful of title completions for the query.
func (a *App) SuggestTitles(query string) ([]string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []string{}, nil
	}
	titles, err := a.store.SuggestTitles(query)
	if err != nil {
		return nil, fmt.Errorf("suggest titles: %w", err)
	}
	return titles, nil
}

// ProjectByIdentifier resolves a project by numeric ID, falling back to an
// exact title match for non-numeric identifiers.
func (a *App) ProjectByIdentifier(userID int64, identifier string) (domain.AnnotatedProject, error) {
	identifier = strings.TrimSpace(identifier)
	var (
		project domain.Project
		ok      bool
		err     error
	)
	if id, convErr := strconv.ParseInt(identifier, 10, 64); convErr == nil {
		project, ok, err = a.store.GetProjectByID(id)
	} else {
		project, ok, err = a.store.GetProjectByTitle(identifier)
	}
	if err != nil {
		return domain.AnnotatedProject{}, fmt.Errorf("get project: %w", err)
	}
	if !ok {
		return domain.AnnotatedProject{}, ErrProjectNotFound
	}

	isSaved := false
	if userID != 0 {
		isSaved, err = a.store.IsProjectSaved(userID, project.ID)
		if err != nil {
			return domain.AnnotatedProject{}, fmt.Errorf("check saved: %w", err)
		}
	}
	return domain.AnnotatedProject{Project: project, IsSaved: isSaved}, nil
}

// ProjectPDF streams a project's archived document. Callers must close the
// reader.
func (a *App) ProjectPDF(ctx context.Context, projectID int64) (io.ReadCloser, int64, string, error) {
	project, ok, err := a.store.GetProjectByID(projectID)
	if err != nil {
		return nil, 0, "", fmt.Errorf("get project: %w", err)
	}
	if !ok {
		return nil, 0, "", ErrProjectNotFound
	}
	if project.PDFKey == "" {
		return nil, 0, "", ErrPDFNotFound
	}
	rc, size, err := a.objects.Get(ctx, project.PDFKey)
	if err != nil {
		return nil, 0, "", fmt.Errorf("get pdf object: %w", err)
	}
	filename := sanitizeFilename(project.Title)
	if filename == "" {
		filename = fmt.Sprintf("project-%d", project.ID)
	}
	return rc, size, filename + ".pdf", nil
}
