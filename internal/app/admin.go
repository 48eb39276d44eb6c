package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"capsarc/pkg/auth"
	"capsarc/pkg/domain"
	"capsarc/pkg/pdftext"
)

const summarySystemPrompt = "You summarize academic capstone papers. " +
	"Produce a concise structured summary with four labeled sections: " +
	"Introduction, Methodology, Results, and Discussion. " +
	"Write each section as a short paragraph grounded only in the provided text."

// summaryInputLimit caps how much extracted text is sent to the model.
const summaryInputLimit = 24000

// DashboardStats aggregates the counters shown on the admin dashboard.
type DashboardStats struct {
	TotalProjects int64                     `json:"totalProjects"`
	TotalUsers    int64                     `json:"totalUsers"`
	ActiveUsers   int64                     `json:"activeUsers"`
	MostSaved     []domain.ProjectSaveCount `json:"mostSaved"`
}

// Dashboard returns archive counters and the most-saved ranking.
func (a *App) Dashboard() (DashboardStats, error) {
	projects, err := a.store.CountProjects()
	if err != nil {
		return DashboardStats{}, fmt.Errorf("count projects: %w", err)
	}
	users, err := a.store.CountUsers()
	if err != nil {
		return DashboardStats{}, fmt.Errorf("count users: %w", err)
	}
	active, err := a.store.CountActiveUsers()
	if err != nil {
		return DashboardStats{}, fmt.Errorf("count active users: %w", err)
	}
	mostSaved, err := a.store.MostSaved()
	if err != nil {
		return DashboardStats{}, fmt.Errorf("most saved: %w", err)
	}
	return DashboardStats{
		TotalProjects: projects,
		TotalUsers:    users,
		ActiveUsers:   active,
		MostSaved:     mostSaved,
	}, nil
}

// UploadProjectInput carries the upload form fields and the PDF payload.
type UploadProjectInput struct {
	Title           string
	Authors         string
	Major           string
	PublicationYear int
	Keywords        string
	Abstract        string
	Filename        string
	PDF             io.Reader
}

// UploadProject archives a new project: it validates the form, stores the
// PDF, persists the record, then generates the structured summary. A
// summarization failure leaves the project in place without a summary.
func (a *App) UploadProject(ctx context.Context, in UploadProjectInput) (domain.Project, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Authors = strings.TrimSpace(in.Authors)
	in.Major = strings.TrimSpace(in.Major)
	in.Keywords = strings.TrimSpace(in.Keywords)
	in.Abstract = strings.TrimSpace(in.Abstract)

	if in.Title == "" || in.Authors == "" || in.Major == "" || in.PublicationYear == 0 ||
		in.Keywords == "" || in.Abstract == "" {
		return domain.Project{}, ErrFieldsRequired
	}
	if in.PDF == nil || in.Filename == "" {
		return domain.Project{}, ErrFileRequired
	}
	if !strings.EqualFold(filepath.Ext(in.Filename), ".pdf") {
		return domain.Project{}, ErrInvalidFileType
	}

	exists, err := a.store.HasProjectDetails(in.Title, in.Authors, in.PublicationYear, in.Keywords, in.Abstract)
	if err != nil {
		return domain.Project{}, fmt.Errorf("check project details: %w", err)
	}
	if exists {
		return domain.Project{}, ErrProjectExists
	}

	data, err := io.ReadAll(in.PDF)
	if err != nil {
		return domain.Project{}, fmt.Errorf("read pdf: %w", err)
	}

	key := "projects/" + uuid.NewString() + ".pdf"
	if err := a.objects.Put(ctx, key, bytes.NewReader(data), int64(len(data)), "application/pdf"); err != nil {
		return domain.Project{}, fmt.Errorf("store pdf: %w", err)
	}

	project, err := a.store.CreateProject(domain.Project{
		Title:           in.Title,
		Authors:         in.Authors,
		Major:           in.Major,
		PublicationYear: in.PublicationYear,
		Keywords:        in.Keywords,
		Abstract:        in.Abstract,
		PDFKey:          key,
		PDFSizeBytes:    int64(len(data)),
	})
	if err != nil {
		if delErr := a.objects.Delete(ctx, key); delErr != nil {
			slog.Warn("delete orphaned pdf object", "key", key, "error", delErr)
		}
		return domain.Project{}, fmt.Errorf("create project: %w", err)
	}

	a.summarizeProject(ctx, &project, data)
	return project, nil
}

// EditProjectInput carries the edit form. PDF is optional; when nil the
// existing document and summary are kept.
type EditProjectInput struct {
	ID              int64
	Title           string
	Authors         string
	Major           string
	PublicationYear int
	Keywords        string
	Abstract        string
	Filename        string
	PDF             io.Reader
}

// EditProject updates an archived project's metadata, optionally replacing
// its PDF and regenerating the summary.
func (a *App) EditProject(ctx context.Context, in EditProjectInput) (domain.Project, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Authors = strings.TrimSpace(in.Authors)
	in.Major = strings.TrimSpace(in.Major)
	in.Keywords = strings.TrimSpace(in.Keywords)
	in.Abstract = strings.TrimSpace(in.Abstract)

	if in.Title == "" || in.Authors == "" || in.Major == "" || in.PublicationYear == 0 ||
		in.Keywords == "" || in.Abstract == "" {
		return domain.Project{}, ErrFieldsRequired
	}

	project, ok, err := a.store.GetProjectByID(in.ID)
	if err != nil {
		return domain.Project{}, fmt.Errorf("get project: %w", err)
	}
	if !ok {
		return domain.Project{}, ErrProjectNotFound
	}

	detailsChanged := project.Title != in.Title || project.Authors != in.Authors ||
		project.PublicationYear != in.PublicationYear || project.Keywords != in.Keywords ||
		project.Abstract != in.Abstract
	if detailsChanged {
		exists, err := a.store.HasProjectDetails(in.Title, in.Authors, in.PublicationYear, in.Keywords, in.Abstract)
		if err != nil {
			return domain.Project{}, fmt.Errorf("check project details: %w", err)
		}
		if exists {
			return domain.Project{}, ErrProjectExists
		}
	}

	project.Title = in.Title
	project.Authors = in.Authors
	project.Major = in.Major
	project.PublicationYear = in.PublicationYear
	project.Keywords = in.Keywords
	project.Abstract = in.Abstract

	var newPDF []byte
	if in.PDF != nil {
		if !strings.EqualFold(filepath.Ext(in.Filename), ".pdf") {
			return domain.Project{}, ErrInvalidFileType
		}
		newPDF, err = io.ReadAll(in.PDF)
		if err != nil {
			return domain.Project{}, fmt.Errorf("read pdf: %w", err)
		}
		key := "projects/" + uuid.NewString() + ".pdf"
		if err := a.objects.Put(ctx, key, bytes.NewReader(newPDF), int64(len(newPDF)), "application/pdf"); err != nil {
			return domain.Project{}, fmt.Errorf("store pdf: %w", err)
		}
		oldKey := project.PDFKey
		project.PDFKey = key
		project.PDFSizeBytes = int64(len(newPDF))
		project.Summary = ""
		defer func() {
			if oldKey != "" {
				if err := a.objects.Delete(context.WithoutCancel(ctx), oldKey); err != nil {
					slog.Warn("delete replaced pdf object", "key", oldKey, "error", err)
				}
			}
		}()
	}

	if err := a.store.UpdateProject(project); err != nil {
		return domain.Project{}, fmt.Errorf("update project: %w", err)
	}
	if newPDF != nil {
		a.summarizeProject(ctx, &project, newPDF)
	}
	return project, nil
}

// summarizeProject extracts the document text, asks the generator for a
// structured summary, and persists it. Failures are logged, not returned.
func (a *App) summarizeProject(ctx context.Context, project *domain.Project, pdfData []byte) {
	if a.generator == nil {
		return
	}
	text, err := pdftext.Extract(pdfData)
	if err != nil {
		slog.Warn("extract pdf text", "projectId", project.ID, "error", err)
		return
	}
	text = pdftext.Normalize(text)
	text = truncateUTF8(text, summaryInputLimit)
	if strings.TrimSpace(text) == "" {
		slog.Warn("pdf yielded no text", "projectId", project.ID)
		return
	}

	genCtx, cancel := context.WithTimeout(ctx, 90*time.Second)
	defer cancel()
	summary, err := a.generator.GenerateText(genCtx, summarySystemPrompt, text)
	if err != nil {
		slog.Warn("generate summary", "projectId", project.ID, "error", err)
		return
	}
	summary = formatSummary(summary)
	if summary == "" {
		return
	}
	if err := a.store.SetProjectSummary(project.ID, summary); err != nil {
		slog.Warn("save summary", "projectId", project.ID, "error", err)
		return
	}
	project.Summary = summary
}

// truncateUTF8 cuts s to at most limit bytes without splitting a rune.
func truncateUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// formatSummary normalizes model output for storage: trimmed, with line
// breaks encoded as <br> tags.
func formatSummary(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "<br>")
}

// DeleteProject removes a project, its library entries, and its stored PDF.
func (a *App) DeleteProject(ctx context.Context, id int64) error {
	project, ok, err := a.store.GetProjectByID(id)
	if err != nil {
		return fmt.Errorf("get project: %w", err)
	}
	if !ok {
		return ErrProjectNotFound
	}
	if err := a.store.DeleteProject(id); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if project.PDFKey != "" {
		if err := a.objects.Delete(ctx, project.PDFKey); err != nil {
			slog.Warn("delete pdf object", "key", project.PDFKey, "error", err)
		}
	}
	return nil
}

// Users lists all registered accounts.
func (a *App) Users() ([]domain.User, error) {
	users, err := a.store.ListUsers()
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// ActiveUsers lists accounts currently marked active.
func (a *App) ActiveUsers() ([]domain.User, error) {
	users, err := a.store.ListActiveUsers()
	if err != nil {
		return nil, fmt.Errorf("list active users: %w", err)
	}
	return users, nil
}

// DeleteUser removes an account and its library entries.
func (a *App) DeleteUser(id int64) error {
	_, ok, err := a.store.GetUserByID(id)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if !ok {
		return ErrUserNotFound
	}
	if err := a.store.DeleteUser(id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// ResetUserPassword sets a new password for an account without requiring
// the old one. Admin only.
func (a *App) ResetUserPassword(id int64, next, confirm string) error {
	if next == "" || confirm == "" {
		return ErrFieldsRequired
	}
	if next != confirm {
		return ErrPasswordMismatch
	}
	if err := auth.ValidatePassword(next); err != nil {
		return err
	}
	_, ok, err := a.store.GetUserByID(id)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if !ok {
		return ErrUserNotFound
	}
	hash, err := auth.HashPassword(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := a.store.UpdateUserPassword(id, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// TouchLastActive stamps the user's last-activity time.
func (a *App) TouchLastActive(id int64) error {
	if err := a.store.TouchLastActive(id); err != nil {
		return fmt.Errorf("touch last active: %w", err)
	}
	return nil
}
