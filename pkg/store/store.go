package store

import (
	"time"

	"capsarc/pkg/domain"
)

// Store defines persistence operations for projects, users, admins, and
// library entries.
type Store interface {
	// users
	CreateUser(domain.User) (domain.User, error)
	HasUsername(username string) (bool, error)
	HasUserDetails(firstName, lastName, email, course, major, username string) (bool, error)
	GetUserByUsername(username string) (domain.User, bool, error)
	GetUserByID(id int64) (domain.User, bool, error)
	ListUsers() ([]domain.User, error)
	ListActiveUsers() ([]domain.User, error)
	CountUsers() (int64, error)
	CountActiveUsers() (int64, error)
	SetUserStatus(id int64, status domain.UserStatus, lastActive *time.Time) error
	TouchLastActive(id int64) error
	UpdateUserPassword(id int64, passwordHash string) error
	UpdateUserProfile(domain.User) error
	DeleteUser(id int64) error

	// admins
	CreateAdmin(domain.Admin) (domain.Admin, error)
	HasAdminUsernameOrEmail(username, email string) (bool, error)
	GetAdminByUsername(username string) (domain.Admin, bool, error)
	CountAdmins() (int64, error)

	// projects
	CreateProject(domain.Project) (domain.Project, error)
	UpdateProject(domain.Project) error
	SetProjectSummary(id int64, summary string) error
	GetProjectByID(id int64) (domain.Project, bool, error)
	GetProjectByTitle(title string) (domain.Project, bool, error)
	ListProjects(domain.ProjectFilter) ([]domain.Project, error)
	SuggestTitles(query string) ([]string, error)
	HasProjectDetails(title, authors string, year int, keywords, abstract string) (bool, error)
	DeleteProject(id int64) error
	CountProjects() (int64, error)
	MostSaved() ([]domain.ProjectSaveCount, error)

	// library
	IsProjectSaved(userID, projectID int64) (bool, error)
	AddLibraryEntry(userID, projectID int64) (domain.LibraryEntry, error)
	RemoveLibraryEntry(entryID, userID int64) (bool, error)
	SavedProjectIDs(userID int64) ([]int64, error)
	ListSavedProjects(userID int64) ([]domain.SavedProject, error)
}

// SessionStore persists session tokens.
type SessionStore interface {
	NewSession(domain.Session) (string, error)
	GetSession(token string) (domain.Session, bool, error)
	DeleteSession(token string) error
}
