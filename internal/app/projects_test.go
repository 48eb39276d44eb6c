package app

import (
	"context"
	"errors"
	"io"
	"testing"

	"capsarc/pkg/domain"
)

func TestHomeListsFeaturedYearOnly(t *testing.T) {
	env := newTestApp(t)
	seedProject(t, env.store, "Older Work", 2022)
	featured := seedProject(t, env.store, "Featured Work", 2023)

	page, err := env.app.Home(0, 0, 1)
	if err != nil {
		t.Fatalf("Home: %v", err)
	}
	if len(page.Projects) != 1 || page.Projects[0].ID != featured.ID {
		t.Fatalf("expected only the 2023 project, got %d results", len(page.Projects))
	}
	if page.Page.TotalItems != 1 {
		t.Fatalf("TotalItems = %d, want 1", page.Page.TotalItems)
	}
}

func TestBrowsePagination(t *testing.T) {
	env := newTestApp(t)
	seedProjects(t, env.store, 25, 2023)

	first, err := env.app.Browse(0, domain.ProjectFilter{}, 0, 1)
	if err != nil {
		t.Fatalf("Browse page 1: %v", err)
	}
	if len(first.Projects) != 10 {
		t.Fatalf("page 1 size = %d, want 10", len(first.Projects))
	}
	if first.Page.TotalItems != 25 || first.Page.TotalPages != 3 {
		t.Fatalf("pagination = %+v, want 25 items over 3 pages", first.Page)
	}

	last, err := env.app.Browse(0, domain.ProjectFilter{}, 0, 3)
	if err != nil {
		t.Fatalf("Browse page 3: %v", err)
	}
	if len(last.Projects) != 5 {
		t.Fatalf("page 3 size = %d, want 5", len(last.Projects))
	}

	// An out-of-range page keeps the same totals but carries no rows.
	beyond, err := env.app.Browse(0, domain.ProjectFilter{}, 0, 9)
	if err != nil {
		t.Fatalf("Browse page 9: %v", err)
	}
	if len(beyond.Projects) != 0 {
		t.Fatalf("out-of-range page returned %d rows", len(beyond.Projects))
	}
	if beyond.Page.TotalItems != 25 || beyond.Page.TotalPages != 3 {
		t.Fatalf("out-of-range pagination = %+v", beyond.Page)
	}

	// Page zero is out of range too, never an alias for page one.
	zero, err := env.app.Browse(0, domain.ProjectFilter{}, 0, 0)
	if err != nil {
		t.Fatalf("Browse page 0: %v", err)
	}
	if len(zero.Projects) != 0 {
		t.Fatalf("page 0 returned %d rows", len(zero.Projects))
	}
	if zero.Page.TotalItems != 25 || zero.Page.TotalPages != 3 {
		t.Fatalf("page 0 pagination = %+v", zero.Page)
	}
}

func TestBrowseCustomPageSize(t *testing.T) {
	env := newTestApp(t)
	seedProjects(t, env.store, 25, 2023)

	page, err := env.app.Browse(0, domain.ProjectFilter{}, 7, 4)
	if err != nil {
		t.Fatalf("Browse: %v", err)
	}
	if len(page.Projects) != 4 {
		t.Fatalf("last page size = %d, want 4", len(page.Projects))
	}
	if page.Page.PerPage != 7 || page.Page.TotalPages != 4 || page.Page.TotalItems != 25 {
		t.Fatalf("pagination = %+v, want 7 per page over 4 pages", page.Page)
	}
}

func TestBrowseFilters(t *testing.T) {
	env := newTestApp(t)
	match := seedProject(t, env.store, "Smart Irrigation Controller", 2022)
	seedProject(t, env.store, "Library Kiosk", 2023)

	page, err := env.app.Browse(0, domain.ProjectFilter{Query: "irrigation", YearFrom: 2020, YearTo: 2022}, 0, 1)
	if err != nil {
		t.Fatalf("Browse: %v", err)
	}
	if len(page.Projects) != 1 || page.Projects[0].ID != match.ID {
		t.Fatalf("filter returned %d results", len(page.Projects))
	}
}

func TestBrowseOverlaysSavedFlags(t *testing.T) {
	env := newTestApp(t)
	user := registerTestUser(t, env.app, "jreyes")
	projects := seedProjects(t, env.store, 3, 2023)

	if _, err := env.app.SaveProjectToLibrary(user.ID, projects[1].ID); err != nil {
		t.Fatalf("SaveProjectToLibrary: %v", err)
	}

	page, err := env.app.Browse(user.ID, domain.ProjectFilter{}, 0, 1)
	if err != nil {
		t.Fatalf("Browse: %v", err)
	}
	for _, p := range page.Projects {
		want := p.ID == projects[1].ID
		if p.IsSaved != want {
			t.Fatalf("project %d IsSaved = %v, want %v", p.ID, p.IsSaved, want)
		}
	}

	// Anonymous viewers get no saved flags.
	anon, err := env.app.Browse(0, domain.ProjectFilter{}, 0, 1)
	if err != nil {
		t.Fatalf("Browse anonymous: %v", err)
	}
	for _, p := range anon.Projects {
		if p.IsSaved {
			t.Fatalf("anonymous view flagged project %d as saved", p.ID)
		}
	}
}

func TestProjectByIdentifier(t *testing.T) {
	env := newTestApp(t)
	project := seedProject(t, env.store, "Smart Irrigation Controller", 2023)

	byID, err := env.app.ProjectByIdentifier(0, "1")
	if err != nil {
		t.Fatalf("by id: %v", err)
	}
	if byID.ID != project.ID {
		t.Fatalf("by id returned project %d", byID.ID)
	}

	byTitle, err := env.app.ProjectByIdentifier(0, "Smart Irrigation Controller")
	if err != nil {
		t.Fatalf("by title: %v", err)
	}
	if byTitle.ID != project.ID {
		t.Fatalf("by title returned project %d", byTitle.ID)
	}

	if _, err := env.app.ProjectByIdentifier(0, "No Such Project"); !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
}

func TestSuggestTitles(t *testing.T) {
	env := newTestApp(t)
	seedProject(t, env.store, "Smart Irrigation Controller", 2023)
	seedProject(t, env.store, "Smart Parking Finder", 2023)
	seedProject(t, env.store, "Library Kiosk", 2023)

	titles, err := env.app.SuggestTitles("smart")
	if err != nil {
		t.Fatalf("SuggestTitles: %v", err)
	}
	if len(titles) != 2 {
		t.Fatalf("got %d suggestions, want 2", len(titles))
	}

	empty, err := env.app.SuggestTitles("   ")
	if err != nil {
		t.Fatalf("blank query: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("blank query returned %d suggestions", len(empty))
	}
}

func TestProjectPDF(t *testing.T) {
	env := newTestApp(t)
	project := seedProject(t, env.store, "Smart Irrigation Controller", 2023)

	payload := []byte("%PDF-1.4 fake payload")
	key := "projects/test.pdf"
	if err := env.objects.Put(context.Background(), key, readerOf(payload), int64(len(payload)), "application/pdf"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	project.PDFKey = key
	project.PDFSizeBytes = int64(len(payload))
	if err := env.store.UpdateProject(project); err != nil {
		t.Fatalf("UpdateProject: %v", err)
	}

	rc, size, filename, err := env.app.ProjectPDF(context.Background(), project.ID)
	if err != nil {
		t.Fatalf("ProjectPDF: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != string(payload) || size != int64(len(payload)) {
		t.Fatal("streamed payload mismatch")
	}
	if filename != "Smart_Irrigation_Controller.pdf" {
		t.Fatalf("filename = %q", filename)
	}

	other := seedProject(t, env.store, "No Document Yet", 2023)
	if _, _, _, err := env.app.ProjectPDF(context.Background(), other.ID); !errors.Is(err, ErrPDFNotFound) {
		t.Fatalf("expected ErrPDFNotFound, got %v", err)
	}
	if _, _, _, err := env.app.ProjectPDF(context.Background(), 9999); !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
}
