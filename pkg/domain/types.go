package domain

import "time"

type UserStatus string

const (
	StatusActive UserStatus = "active"
	// StatusInactive is the cleared status after logout.
	StatusInactive UserStatus = ""
)

type PrincipalKind string

const (
	KindUser  PrincipalKind = "user"
	KindAdmin PrincipalKind = "admin"
)

// Project is an archived capstone record. The PDF payload lives in object
// storage; only its key and size are kept here.
type Project struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Authors         string    `json:"authors"`
	Major           string    `json:"major"`
	PublicationYear int       `json:"publicationYear"`
	Keywords        string    `json:"keywords"`
	Abstract        string    `json:"abstract"`
	PDFKey          string    `json:"-"`
	PDFSizeBytes    int64     `json:"pdfSizeBytes"`
	Summary         string    `json:"summary,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type User struct {
	ID                int64      `json:"id"`
	FirstName         string     `json:"firstName"`
	LastName          string     `json:"lastName"`
	Course            string     `json:"course"`
	Major             string     `json:"major"`
	YearLevel         string     `json:"yearLevel"`
	Username          string     `json:"username"`
	Email             string     `json:"email"`
	PasswordHash      string     `json:"-"`
	Status            UserStatus `json:"status"`
	LastActive        *time.Time `json:"lastActive,omitempty"`
	ProfilePictureKey string     `json:"-"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

type Admin struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// LibraryEntry joins a user and a saved project. A (user, project) pair
// appears at most once.
type LibraryEntry struct {
	ID        int64     `json:"entryId"`
	UserID    int64     `json:"userId"`
	ProjectID int64     `json:"projectId"`
	SavedAt   time.Time `json:"savedAt"`
}

// SavedProject is a library entry joined with its project metadata, as
// rendered on the library page.
type SavedProject struct {
	EntryID int64     `json:"entryId"`
	SavedAt time.Time `json:"savedAt"`
	Project Project   `json:"project"`
}

// Session binds a request to an authenticated principal. It is ephemeral
// state; the token is carried by an HttpOnly cookie.
type Session struct {
	PrincipalID int64         `json:"principalId"`
	Username    string        `json:"username"`
	Kind        PrincipalKind `json:"kind"`
	LoggedIn    bool          `json:"loggedIn"`
}

// ProjectSaveCount is a project ranked by how many libraries hold it.
type ProjectSaveCount struct {
	Project   Project `json:"project"`
	SaveCount int64   `json:"saveCount"`
}
