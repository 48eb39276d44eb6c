package store

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"capsarc/pkg/domain"
)

// MemoryStore keeps all records in-process. It mirrors GormStore semantics
// closely enough for handler and service tests.
type MemoryStore struct {
	mu           sync.RWMutex
	users        map[int64]domain.User
	admins       map[int64]domain.Admin
	projects     map[int64]domain.Project
	library      map[int64]domain.LibraryEntry
	userOrder    []int64
	projectOrder []int64
	libraryOrder []int64
	nextID       int64
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[int64]domain.User),
		admins:   make(map[int64]domain.Admin),
		projects: make(map[int64]domain.Project),
		library:  make(map[int64]domain.LibraryEntry),
	}
}

func (m *MemoryStore) allocID() int64 {
	m.nextID++
	return m.nextID
}

// CreateUser registers a user with an assigned ID.
func (m *MemoryStore) CreateUser(u domain.User) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username {
			return domain.User{}, errors.New("duplicate username")
		}
	}
	u.ID = m.allocID()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	m.users[u.ID] = u
	m.userOrder = append(m.userOrder, u.ID)
	return u, nil
}

// HasUsername checks if a username is taken.
func (m *MemoryStore) HasUsername(username string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

// HasUserDetails checks for an identical set of identity details.
func (m *MemoryStore) HasUserDetails(firstName, lastName, email, course, major, username string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.FirstName == firstName && u.LastName == lastName && u.Email == email &&
			u.Course == course && u.Major == major && u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

// GetUserByUsername looks up a user by username.
func (m *MemoryStore) GetUserByUsername(username string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Username == username {
			return u, true, nil
		}
	}
	return domain.User{}, false, nil
}

// GetUserByID returns a user by ID.
func (m *MemoryStore) GetUserByID(id int64) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok, nil
}

// ListUsers returns users in insertion order.
func (m *MemoryStore) ListUsers() ([]domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.User, 0, len(m.userOrder))
	for _, id := range m.userOrder {
		if u, ok := m.users[id]; ok {
			res = append(res, u)
		}
	}
	return res, nil
}

// ListActiveUsers returns active users, most recently active first.
func (m *MemoryStore) ListActiveUsers() ([]domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.User, 0)
	for _, id := range m.userOrder {
		if u, ok := m.users[id]; ok && u.Status == domain.StatusActive {
			res = append(res, u)
		}
	}
	sort.SliceStable(res, func(i, j int) bool {
		a, b := res[i].LastActive, res[j].LastActive
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.After(*b)
	})
	return res, nil
}

// CountUsers returns the number of users.
func (m *MemoryStore) CountUsers() (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.users)), nil
}

// CountActiveUsers returns the number of users with active status.
func (m *MemoryStore) CountActiveUsers() (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var count int64
	for _, u := range m.users {
		if u.Status == domain.StatusActive {
			count++
		}
	}
	return count, nil
}

// SetUserStatus updates status and optionally last_active.
func (m *MemoryStore) SetUserStatus(id int64, status domain.UserStatus, lastActive *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil
	}
	u.Status = status
	if lastActive != nil {
		t := lastActive.UTC()
		u.LastActive = &t
	}
	u.UpdatedAt = time.Now().UTC()
	m.users[id] = u
	return nil
}

// TouchLastActive stamps last_active with the current time.
func (m *MemoryStore) TouchLastActive(id int64) error {
	now := time.Now().UTC()
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil
	}
	u.LastActive = &now
	m.users[id] = u
	return nil
}

// UpdateUserPassword replaces the stored password hash.
func (m *MemoryStore) UpdateUserPassword(id int64, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now().UTC()
	m.users[id] = u
	return nil
}

// UpdateUserProfile updates identity fields and the profile picture key.
func (m *MemoryStore) UpdateUserProfile(updated domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[updated.ID]
	if !ok {
		return nil
	}
	u.FirstName = updated.FirstName
	u.LastName = updated.LastName
	u.Username = updated.Username
	u.Email = updated.Email
	u.Course = updated.Course
	u.Major = updated.Major
	u.YearLevel = updated.YearLevel
	u.ProfilePictureKey = updated.ProfilePictureKey
	u.UpdatedAt = time.Now().UTC()
	m.users[updated.ID] = u
	return nil
}

// DeleteUser removes the user and their library entries.
func (m *MemoryStore) DeleteUser(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	m.userOrder = removeID(m.userOrder, id)
	for entryID, entry := range m.library {
		if entry.UserID == id {
			delete(m.library, entryID)
			m.libraryOrder = removeID(m.libraryOrder, entryID)
		}
	}
	return nil
}

// CreateAdmin inserts an admin account.
func (m *MemoryStore) CreateAdmin(a domain.Admin) (domain.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.admins {
		if existing.Username == a.Username || existing.Email == a.Email {
			return domain.Admin{}, errors.New("duplicate admin")
		}
	}
	a.ID = m.allocID()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	m.admins[a.ID] = a
	return a, nil
}

// HasAdminUsernameOrEmail checks either unique admin field.
func (m *MemoryStore) HasAdminUsernameOrEmail(username, email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.admins {
		if a.Username == username || a.Email == email {
			return true, nil
		}
	}
	return false, nil
}

// GetAdminByUsername looks up an admin by username.
func (m *MemoryStore) GetAdminByUsername(username string) (domain.Admin, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.admins {
		if a.Username == username {
			return a, true, nil
		}
	}
	return domain.Admin{}, false, nil
}

// CountAdmins returns the number of admin accounts.
func (m *MemoryStore) CountAdmins() (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.admins)), nil
}

// CreateProject inserts a project with an assigned ID.
func (m *MemoryStore) CreateProject(p domain.Project) (domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.allocID()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	m.projects[p.ID] = p
	m.projectOrder = append(m.projectOrder, p.ID)
	return p, nil
}

// UpdateProject replaces the mutable metadata of a project.
func (m *MemoryStore) UpdateProject(updated domain.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[updated.ID]
	if !ok {
		return nil
	}
	p.Title = updated.Title
	p.Authors = updated.Authors
	p.Major = updated.Major
	p.PublicationYear = updated.PublicationYear
	p.Keywords = updated.Keywords
	p.Abstract = updated.Abstract
	p.PDFKey = updated.PDFKey
	p.PDFSizeBytes = updated.PDFSizeBytes
	p.UpdatedAt = time.Now().UTC()
	m.projects[updated.ID] = p
	return nil
}

// SetProjectSummary stores the generated summary text.
func (m *MemoryStore) SetProjectSummary(id int64, summary string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return nil
	}
	p.Summary = summary
	p.UpdatedAt = time.Now().UTC()
	m.projects[id] = p
	return nil
}

// GetProjectByID retrieves a project by ID.
func (m *MemoryStore) GetProjectByID(id int64) (domain.Project, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.projects[id]
	return p, ok, nil
}

// GetProjectByTitle retrieves a project by its unique title.
func (m *MemoryStore) GetProjectByTitle(title string) (domain.Project, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.projects {
		if p.Title == title {
			return p, true, nil
		}
	}
	return domain.Project{}, false, nil
}

// ListProjects returns the filtered set in insertion order.
func (m *MemoryStore) ListProjects(f domain.ProjectFilter) ([]domain.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Project, 0, len(m.projectOrder))
	for _, id := range m.projectOrder {
		p, ok := m.projects[id]
		if !ok {
			continue
		}
		if matchesFilter(p, f) {
			res = append(res, p)
		}
	}
	return res, nil
}

func matchesFilter(p domain.Project, f domain.ProjectFilter) bool {
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		if !strings.Contains(strings.ToLower(p.Title), q) &&
			!strings.Contains(strings.ToLower(p.Authors), q) &&
			!strings.Contains(strings.ToLower(p.Keywords), q) {
			return false
		}
	}
	if f.YearFrom > 0 && p.PublicationYear < f.YearFrom {
		return false
	}
	if f.YearTo > 0 && p.PublicationYear > f.YearTo {
		return false
	}
	if f.Major != "" && p.Major != f.Major {
		return false
	}
	if f.Abstract != "" && !strings.Contains(strings.ToLower(p.Abstract), strings.ToLower(f.Abstract)) {
		return false
	}
	return true
}

// SuggestTitles returns titles containing the query substring.
func (m *MemoryStore) SuggestTitles(query string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q := strings.ToLower(query)
	var titles []string
	for _, id := range m.projectOrder {
		if p, ok := m.projects[id]; ok && strings.Contains(strings.ToLower(p.Title), q) {
			titles = append(titles, p.Title)
		}
	}
	sort.Strings(titles)
	return titles, nil
}

// HasProjectDetails checks for a project with identical metadata.
func (m *MemoryStore) HasProjectDetails(title, authors string, year int, keywords, abstract string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.projects {
		if p.Title == title && p.Authors == authors && p.PublicationYear == year &&
			p.Keywords == keywords && p.Abstract == abstract {
			return true, nil
		}
	}
	return false, nil
}

// DeleteProject removes the project and any library references to it.
func (m *MemoryStore) DeleteProject(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.projects, id)
	m.projectOrder = removeID(m.projectOrder, id)
	for entryID, entry := range m.library {
		if entry.ProjectID == id {
			delete(m.library, entryID)
			m.libraryOrder = removeID(m.libraryOrder, entryID)
		}
	}
	return nil
}

// CountProjects returns the number of projects.
func (m *MemoryStore) CountProjects() (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.projects)), nil
}

// MostSaved returns projects ranked by save count, descending.
func (m *MemoryStore) MostSaved() ([]domain.ProjectSaveCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[int64]int64)
	for _, entry := range m.library {
		counts[entry.ProjectID]++
	}
	res := make([]domain.ProjectSaveCount, 0, len(counts))
	for projectID, count := range counts {
		if p, ok := m.projects[projectID]; ok {
			res = append(res, domain.ProjectSaveCount{Project: p, SaveCount: count})
		}
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].SaveCount > res[j].SaveCount })
	return res, nil
}

// IsProjectSaved checks whether the user already saved the project.
func (m *MemoryStore) IsProjectSaved(userID, projectID int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, entry := range m.library {
		if entry.UserID == userID && entry.ProjectID == projectID {
			return true, nil
		}
	}
	return false, nil
}

// AddLibraryEntry inserts a library entry. Duplicate pairs are rejected to
// match the relational unique index.
func (m *MemoryStore) AddLibraryEntry(userID, projectID int64) (domain.LibraryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, entry := range m.library {
		if entry.UserID == userID && entry.ProjectID == projectID {
			return domain.LibraryEntry{}, errors.New("duplicate library entry")
		}
	}
	entry := domain.LibraryEntry{
		ID:        m.allocID(),
		UserID:    userID,
		ProjectID: projectID,
		SavedAt:   time.Now().UTC(),
	}
	m.library[entry.ID] = entry
	m.libraryOrder = append(m.libraryOrder, entry.ID)
	return entry, nil
}

// RemoveLibraryEntry deletes the entry only when owned by the user.
func (m *MemoryStore) RemoveLibraryEntry(entryID, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.library[entryID]
	if !ok || entry.UserID != userID {
		return false, nil
	}
	delete(m.library, entryID)
	m.libraryOrder = removeID(m.libraryOrder, entryID)
	return true, nil
}

// SavedProjectIDs returns the IDs of all projects in the user's library.
func (m *MemoryStore) SavedProjectIDs(userID int64) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []int64
	for _, entryID := range m.libraryOrder {
		if entry, ok := m.library[entryID]; ok && entry.UserID == userID {
			ids = append(ids, entry.ProjectID)
		}
	}
	return ids, nil
}

// ListSavedProjects returns the user's library joined with project metadata.
func (m *MemoryStore) ListSavedProjects(userID int64) ([]domain.SavedProject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var res []domain.SavedProject
	for _, entryID := range m.libraryOrder {
		entry, ok := m.library[entryID]
		if !ok || entry.UserID != userID {
			continue
		}
		project, ok := m.projects[entry.ProjectID]
		if !ok {
			continue
		}
		res = append(res, domain.SavedProject{
			EntryID: entry.ID,
			SavedAt: entry.SavedAt,
			Project: project,
		})
	}
	return res, nil
}

func removeID(ids []int64, id int64) []int64 {
	filtered := ids[:0]
	for _, item := range ids {
		if item != id {
			filtered = append(filtered, item)
		}
	}
	return filtered
}
