package app

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"capsarc/pkg/domain"
	"capsarc/pkg/storage"
	"capsarc/pkg/store"
)

type testEnv struct {
	app     *App
	store   *store.MemoryStore
	objects *storage.MemoryObjectStore
}

func newTestApp(t *testing.T) *testEnv {
	t.Helper()
	memStore := store.NewMemoryStore()
	objects := storage.NewMemoryObjectStore()
	a, err := New(Config{
		Store:    memStore,
		Objects:  objects,
		Sessions: store.NewMemorySessionStore(),
		HomeYear: 2023,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &testEnv{app: a, store: memStore, objects: objects}
}

func registerTestUser(t *testing.T, a *App, username string) domain.User {
	t.Helper()
	user, err := a.RegisterUser(RegisterUserInput{
		FirstName: "Jan",
		LastName:  "Reyes",
		Course:    "BSIT",
		Major:     "Web Development",
		YearLevel: "4",
		Email:     username + "@example.edu",
		Username:  username,
		Password:  "sup3rsecret",
	})
	if err != nil {
		t.Fatalf("RegisterUser(%s): %v", username, err)
	}
	return user
}

func seedProject(t *testing.T, s *store.MemoryStore, title string, year int) domain.Project {
	t.Helper()
	p, err := s.CreateProject(domain.Project{
		Title:           title,
		Authors:         "Reyes, J.; Cruz, M.",
		Major:           "Web Development",
		PublicationYear: year,
		Keywords:        "archive, capstone",
		Abstract:        "A study of " + title + ".",
	})
	if err != nil {
		t.Fatalf("CreateProject(%s): %v", title, err)
	}
	return p
}

func seedProjects(t *testing.T, s *store.MemoryStore, n, year int) []domain.Project {
	t.Helper()
	projects := make([]domain.Project, 0, n)
	for i := 0; i < n; i++ {
		projects = append(projects, seedProject(t, s, fmt.Sprintf("Project %02d", i), year))
	}
	return projects
}

// stubGenerator returns a fixed response, or fails when response is empty.
type stubGenerator struct {
	response string
	calls    int
}

func (g *stubGenerator) GenerateText(_ context.Context, _, _ string) (string, error) {
	g.calls++
	if g.response == "" {
		return "", fmt.Errorf("model unavailable")
	}
	return g.response, nil
}

func readerOf(b []byte) *strings.Reader {
	return strings.NewReader(string(b))
}

func uploadInput(title string, pdf []byte) UploadProjectInput {
	return UploadProjectInput{
		Title:           title,
		Authors:         "Reyes, J.",
		Major:           "Web Development",
		PublicationYear: 2023,
		Keywords:        "capstone",
		Abstract:        "An abstract.",
		Filename:        "paper.pdf",
		PDF:             strings.NewReader(string(pdf)),
	}
}
