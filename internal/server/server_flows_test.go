package server

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"testing"

	"capsarc/internal/app"
	"capsarc/pkg/domain"
)

func TestHomeAndBrowse(t *testing.T) {
	env := newTestServer(t, nil)
	seedProject(t, env.store, "Older Work", 2022)
	featured := seedProject(t, env.store, "Featured Work", 2023)

	var page app.ProjectPage
	resp, err := http.Get(env.ts.URL + "/projects")
	if err != nil {
		t.Fatalf("GET /projects: %v", err)
	}
	decodeBody(t, resp, &page)
	if len(page.Projects) != 1 || page.Projects[0].ID != featured.ID {
		t.Fatalf("home returned %d projects", len(page.Projects))
	}

	resp, err = http.Get(env.ts.URL + "/projects/browse?query=older&yearFrom=2020&yearTo=2022")
	if err != nil {
		t.Fatalf("GET /projects/browse: %v", err)
	}
	decodeBody(t, resp, &page)
	if len(page.Projects) != 1 || page.Projects[0].Title != "Older Work" {
		t.Fatalf("browse returned %d projects", len(page.Projects))
	}
	if page.Page.TotalItems != 1 {
		t.Fatalf("totalResults = %d", page.Page.TotalItems)
	}
}

func TestBrowsePageSizeParameter(t *testing.T) {
	env := newTestServer(t, nil)
	for i := 0; i < 5; i++ {
		seedProject(t, env.store, "Archived Work "+string(rune('A'+i)), 2023)
	}

	var page app.ProjectPage
	resp, err := http.Get(env.ts.URL + "/projects/browse?resultsPerPage=2&page=2")
	if err != nil {
		t.Fatalf("GET /projects/browse: %v", err)
	}
	decodeBody(t, resp, &page)
	if len(page.Projects) != 2 {
		t.Fatalf("page 2 of size 2 returned %d projects", len(page.Projects))
	}
	if page.Page.PerPage != 2 || page.Page.TotalPages != 3 || page.Page.TotalItems != 5 {
		t.Fatalf("pagination = %+v", page.Page)
	}

	// Page zero is out of range and comes back empty.
	resp, err = http.Get(env.ts.URL + "/projects/browse?page=0")
	if err != nil {
		t.Fatalf("GET /projects/browse page 0: %v", err)
	}
	decodeBody(t, resp, &page)
	if len(page.Projects) != 0 || page.Page.TotalItems != 5 {
		t.Fatalf("page 0 = %d projects, pagination %+v", len(page.Projects), page.Page)
	}
}

func TestProjectDetailAndOverlay(t *testing.T) {
	env := newTestServer(t, nil)
	project := seedProject(t, env.store, "Featured Work", 2023)
	client := registerAndLogin(t, env, "jreyes")

	resp := postJSON(t, client, env.ts.URL+"/library", map[string]int64{"projectId": project.ID})
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("save: status %d", resp.StatusCode)
	}

	var detail domain.AnnotatedProject
	resp, err := client.Get(adminURL(env, "/projects/%d", project.ID))
	if err != nil {
		t.Fatalf("GET project: %v", err)
	}
	decodeBody(t, resp, &detail)
	if !detail.IsSaved {
		t.Fatal("overlay flag missing for saved project")
	}

	// The same lookup without a session carries no overlay flag.
	resp, err = http.Get(adminURL(env, "/projects/%d", project.ID))
	if err != nil {
		t.Fatalf("GET project anonymous: %v", err)
	}
	decodeBody(t, resp, &detail)
	if detail.IsSaved {
		t.Fatal("anonymous lookup flagged as saved")
	}

	resp, err = http.Get(env.ts.URL + "/projects/9999")
	if err != nil {
		t.Fatalf("GET unknown project: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown project: status %d", resp.StatusCode)
	}
}

func TestLibrarySaveAndRemoveFlow(t *testing.T) {
	env := newTestServer(t, nil)
	project := seedProject(t, env.store, "Featured Work", 2023)
	client := registerAndLogin(t, env, "jreyes")

	var outcome app.SaveOutcome
	resp := postJSON(t, client, env.ts.URL+"/library", map[string]int64{"projectId": project.ID})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("first save: status %d", resp.StatusCode)
	}
	decodeBody(t, resp, &outcome)
	if !outcome.Saved {
		t.Fatalf("first save outcome = %+v", outcome)
	}

	resp = postJSON(t, client, env.ts.URL+"/library", map[string]int64{"projectId": project.ID})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("repeat save: status %d", resp.StatusCode)
	}
	decodeBody(t, resp, &outcome)
	if !outcome.Saved || !outcome.AlreadySaved {
		t.Fatalf("repeat save outcome = %+v, want saved and already saved", outcome)
	}

	var page app.LibraryPage
	resp, err := client.Get(env.ts.URL + "/library")
	if err != nil {
		t.Fatalf("GET /library: %v", err)
	}
	decodeBody(t, resp, &page)
	if len(page.Entries) != 1 {
		t.Fatalf("library holds %d entries", len(page.Entries))
	}
	entryID := page.Entries[0].EntryID

	req, _ := http.NewRequest(http.MethodDelete, adminURL(env, "/library/%d", entryID), nil)
	resp, err = client.Do(req)
	if err != nil {
		t.Fatalf("DELETE entry: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("remove: status %d", resp.StatusCode)
	}

	resp, err = client.Do(req)
	if err != nil {
		t.Fatalf("DELETE entry again: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("repeat remove: status %d", resp.StatusCode)
	}
}

func multipartProjectForm(t *testing.T, fields map[string]string, filename string, pdf []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if filename != "" {
		part, err := mw.CreateFormFile("pdf", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(pdf); err != nil {
			t.Fatalf("write pdf: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestAdminProjectUploadFlow(t *testing.T) {
	env := newTestServer(t, nil)
	admin := loginAdmin(t, env)

	fields := map[string]string{
		"title":           "Smart Irrigation Controller",
		"authors":         "Reyes, J.",
		"major":           "Web Development",
		"publicationYear": "2023",
		"keywords":        "iot, agriculture",
		"abstract":        "An automated watering study.",
	}
	body, contentType := multipartProjectForm(t, fields, "paper.pdf", []byte("pdf bytes"))
	resp, err := admin.Post(env.ts.URL+"/admin/projects", contentType, body)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("upload: status %d", resp.StatusCode)
	}
	var project domain.Project
	decodeBody(t, resp, &project)
	if project.ID == 0 {
		t.Fatal("uploaded project has no ID")
	}

	// The archived document is downloadable through the public route.
	resp, err = http.Get(adminURL(env, "/projects/%d/pdf", project.ID))
	if err != nil {
		t.Fatalf("GET pdf: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("pdf: status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("content type = %q", ct)
	}

	// A second identical upload is a conflict.
	body, contentType = multipartProjectForm(t, fields, "paper.pdf", []byte("pdf bytes"))
	dup, err := admin.Post(env.ts.URL+"/admin/projects", contentType, body)
	if err != nil {
		t.Fatalf("duplicate upload: %v", err)
	}
	if dup.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate upload: status %d", dup.StatusCode)
	}
	var envlp errorResponse
	decodeBody(t, dup, &envlp)
	if envlp.Code != "PROJECT_DUPLICATE" {
		t.Fatalf("error code = %q", envlp.Code)
	}

	// Non-PDF uploads are rejected.
	body, contentType = multipartProjectForm(t, map[string]string{
		"title": "Another Project", "authors": "Cruz, M.", "major": "Data Science",
		"publicationYear": "2023", "keywords": "ml", "abstract": "Another abstract.",
	}, "paper.docx", []byte("doc"))
	bad, err := admin.Post(env.ts.URL+"/admin/projects", contentType, body)
	if err != nil {
		t.Fatalf("bad upload: %v", err)
	}
	bad.Body.Close()
	if bad.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad upload: status %d", bad.StatusCode)
	}
}

func TestAdminUserManagement(t *testing.T) {
	env := newTestServer(t, nil)
	registerAndLogin(t, env, "jreyes")
	admin := loginAdmin(t, env)

	var listing struct {
		Items []domain.User `json:"items"`
		Count int           `json:"count"`
	}
	resp, err := admin.Get(env.ts.URL + "/admin/users")
	if err != nil {
		t.Fatalf("GET /admin/users: %v", err)
	}
	decodeBody(t, resp, &listing)
	if listing.Count != 1 {
		t.Fatalf("user count = %d", listing.Count)
	}
	userID := listing.Items[0].ID

	resp, err = admin.Get(env.ts.URL + "/admin/users/active")
	if err != nil {
		t.Fatalf("GET /admin/users/active: %v", err)
	}
	decodeBody(t, resp, &listing)
	if listing.Count != 1 {
		t.Fatalf("active user count = %d", listing.Count)
	}

	resp = postJSON(t, admin, adminURL(env, "/admin/users/%d/reset-password", userID), map[string]string{
		"newPassword": "freshsecret", "confirmPassword": "freshsecret",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reset password: status %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodDelete, adminURL(env, "/admin/users/%d", userID), nil)
	resp, err = admin.Do(req)
	if err != nil {
		t.Fatalf("DELETE user: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete user: status %d", resp.StatusCode)
	}
	if _, ok, _ := env.store.GetUserByID(userID); ok {
		t.Fatal("user survived deletion")
	}
}

func TestProfileUpdate(t *testing.T) {
	env := newTestServer(t, nil)
	client := registerAndLogin(t, env, "jreyes")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range map[string]string{
		"username": "jreyes", "firstName": "Janelle", "lastName": "Reyes",
		"course": "BSIT", "major": "Data Science", "yearLevel": "4",
		"email": "janelle@example.edu",
	} {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	part, err := mw.CreateFormFile("picture", "avatar.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("png bytes")); err != nil {
		t.Fatalf("write picture: %v", err)
	}
	mw.Close()

	req, _ := http.NewRequest(http.MethodPut, env.ts.URL+"/profile", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("PUT /profile: %v", err)
	}
	var updated domain.User
	decodeBody(t, resp, &updated)
	if updated.FirstName != "Janelle" || updated.Major != "Data Science" {
		t.Fatalf("updated = %+v", updated)
	}

	var view app.ProfileView
	resp, err = client.Get(env.ts.URL + "/profile")
	if err != nil {
		t.Fatalf("GET /profile: %v", err)
	}
	decodeBody(t, resp, &view)
	if view.PictureURL == "" {
		t.Fatal("picture url not resolved")
	}
}
