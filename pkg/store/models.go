package store

import "time"

// GORM models used for persistence. Table names match the repository schema.

type ProjectModel struct {
	ID              int64  `gorm:"column:project_id;primaryKey;autoIncrement"`
	Title           string `gorm:"uniqueIndex;not null"`
	Authors         string `gorm:"not null"`
	Major           string `gorm:"index"`
	PublicationYear int    `gorm:"index;not null"`
	Keywords        string
	Abstract        string `gorm:"type:text"`
	PDFKey          string
	PDFSizeBytes    int64
	Summary         string    `gorm:"type:text"`
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time
}

func (ProjectModel) TableName() string { return "project_details" }

type UserModel struct {
	ID                int64  `gorm:"column:user_id;primaryKey;autoIncrement"`
	FirstName         string
	LastName          string
	Course            string
	Major             string
	YearLevel         string
	Username          string `gorm:"uniqueIndex;not null"`
	Email             string `gorm:"not null"`
	PasswordHash      string `gorm:"not null"`
	Status            string `gorm:"index"`
	LastActive        *time.Time
	ProfilePictureKey string
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time
}

func (UserModel) TableName() string { return "users" }

type AdminModel struct {
	ID           int64  `gorm:"column:admin_id;primaryKey;autoIncrement"`
	Username     string `gorm:"uniqueIndex;not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (AdminModel) TableName() string { return "admins" }

// LibraryEntryModel carries a composite unique index so a (user, project)
// pair can never be inserted twice, even if two save requests race past the
// existence pre-check.
type LibraryEntryModel struct {
	ID        int64     `gorm:"column:lib_id;primaryKey;autoIncrement"`
	UserID    int64     `gorm:"not null;index;uniqueIndex:idx_user_project"`
	ProjectID int64     `gorm:"not null;uniqueIndex:idx_user_project"`
	SavedAt   time.Time `gorm:"column:timestamp;not null"`
}

func (LibraryEntryModel) TableName() string { return "user_library" }
