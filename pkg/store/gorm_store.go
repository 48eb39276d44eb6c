package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"capsarc/pkg/domain"
)

const migrateLockID int64 = 52715271

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations under an advisory lock.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withMigrationLock(db, func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(&UserModel{}, &AdminModel{}, &ProjectModel{}, &LibraryEntryModel{}); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(ctx, conn, "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(db)
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string, lockID int64) error {
	_, err := conn.ExecContext(ctx, query, lockID)
	return err
}

// CreateUser inserts a user and returns it with the assigned ID.
func (s *GormStore) CreateUser(u domain.User) (domain.User, error) {
	model := userToModel(u)
	model.ID = 0
	if err := s.db.Create(&model).Error; err != nil {
		return domain.User{}, err
	}
	return userFromModel(model), nil
}

// HasUsername checks if a username is taken.
func (s *GormStore) HasUsername(username string) (bool, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// HasUserDetails checks for an account with identical identity details.
func (s *GormStore) HasUserDetails(firstName, lastName, email, course, major, username string) (bool, error) {
	var count int64
	err := s.db.Model(&UserModel{}).
		Where("first_name = ? AND last_name = ? AND email = ? AND course = ? AND major = ? AND username = ?",
			firstName, lastName, email, course, major, username).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetUserByUsername looks up a user by username.
func (s *GormStore) GetUserByUsername(username string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.Where("username = ?", username).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetUserByID returns a user by ID.
func (s *GormStore) GetUserByID(id int64) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, "user_id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// ListUsers returns all users ordered by created_at.
func (s *GormStore) ListUsers() ([]domain.User, error) {
	var models []UserModel
	if err := s.db.Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	return usersFromModels(models), nil
}

// ListActiveUsers returns active users, most recently active first.
func (s *GormStore) ListActiveUsers() ([]domain.User, error) {
	var models []UserModel
	if err := s.db.Where("status = ?", string(domain.StatusActive)).
		Order("last_active DESC NULLS LAST").
		Find(&models).Error; err != nil {
		return nil, err
	}
	return usersFromModels(models), nil
}

// CountUsers returns the number of registered users.
func (s *GormStore) CountUsers() (int64, error) {
	var count int64
	err := s.db.Model(&UserModel{}).Count(&count).Error
	return count, err
}

// CountActiveUsers returns the number of users with active status.
func (s *GormStore) CountActiveUsers() (int64, error) {
	var count int64
	err := s.db.Model(&UserModel{}).Where("status = ?", string(domain.StatusActive)).Count(&count).Error
	return count, err
}

// SetUserStatus updates status and optionally last_active.
func (s *GormStore) SetUserStatus(id int64, status domain.UserStatus, lastActive *time.Time) error {
	updates := map[string]any{
		"status":     string(status),
		"updated_at": time.Now().UTC(),
	}
	if lastActive != nil {
		updates["last_active"] = lastActive.UTC()
	}
	return s.db.Model(&UserModel{}).Where("user_id = ?", id).Updates(updates).Error
}

// TouchLastActive stamps last_active with the current time.
func (s *GormStore) TouchLastActive(id int64) error {
	return s.db.Model(&UserModel{}).Where("user_id = ?", id).
		Update("last_active", time.Now().UTC()).Error
}

// UpdateUserPassword replaces the stored password hash.
func (s *GormStore) UpdateUserPassword(id int64, passwordHash string) error {
	return s.db.Model(&UserModel{}).Where("user_id = ?", id).
		Updates(map[string]any{
			"password_hash": passwordHash,
			"updated_at":    time.Now().UTC(),
		}).Error
}

// UpdateUserProfile updates identity fields and the profile picture key.
func (s *GormStore) UpdateUserProfile(u domain.User) error {
	return s.db.Model(&UserModel{}).Where("user_id = ?", u.ID).
		Updates(map[string]any{
			"first_name":          u.FirstName,
			"last_name":           u.LastName,
			"username":            u.Username,
			"email":               u.Email,
			"course":              u.Course,
			"major":               u.Major,
			"year_level":          u.YearLevel,
			"profile_picture_key": u.ProfilePictureKey,
			"updated_at":          time.Now().UTC(),
		}).Error
}

// DeleteUser removes the user and their library entries.
func (s *GormStore) DeleteUser(id int64) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&LibraryEntryModel{}, "user_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&UserModel{}, "user_id = ?", id).Error
	})
}

// CreateAdmin inserts an admin account.
func (s *GormStore) CreateAdmin(a domain.Admin) (domain.Admin, error) {
	model := adminToModel(a)
	model.ID = 0
	if err := s.db.Create(&model).Error; err != nil {
		return domain.Admin{}, err
	}
	return adminFromModel(model), nil
}

// HasAdminUsernameOrEmail checks either unique admin field.
func (s *GormStore) HasAdminUsernameOrEmail(username, email string) (bool, error) {
	var count int64
	err := s.db.Model(&AdminModel{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetAdminByUsername looks up an admin by username.
func (s *GormStore) GetAdminByUsername(username string) (domain.Admin, bool, error) {
	var model AdminModel
	if err := s.db.Where("username = ?", username).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Admin{}, false, nil
		}
		return domain.Admin{}, false, err
	}
	return adminFromModel(model), true, nil
}

// CountAdmins returns the number of admin accounts.
func (s *GormStore) CountAdmins() (int64, error) {
	var count int64
	err := s.db.Model(&AdminModel{}).Count(&count).Error
	return count, err
}

// CreateProject inserts a project and returns it with the assigned ID.
func (s *GormStore) CreateProject(p domain.Project) (domain.Project, error) {
	model := projectToModel(p)
	model.ID = 0
	if err := s.db.Create(&model).Error; err != nil {
		return domain.Project{}, err
	}
	return projectFromModel(model), nil
}

// UpdateProject replaces the mutable metadata of a project.
func (s *GormStore) UpdateProject(p domain.Project) error {
	return s.db.Model(&ProjectModel{}).Where("project_id = ?", p.ID).
		Updates(map[string]any{
			"title":            p.Title,
			"authors":          p.Authors,
			"major":            p.Major,
			"publication_year": p.PublicationYear,
			"keywords":         p.Keywords,
			"abstract":         p.Abstract,
			"pdf_key":          p.PDFKey,
			"pdf_size_bytes":   p.PDFSizeBytes,
			"updated_at":       time.Now().UTC(),
		}).Error
}

// SetProjectSummary stores the generated summary text.
func (s *GormStore) SetProjectSummary(id int64, summary string) error {
	return s.db.Model(&ProjectModel{}).Where("project_id = ?", id).
		Updates(map[string]any{
			"summary":    summary,
			"updated_at": time.Now().UTC(),
		}).Error
}

// GetProjectByID retrieves a project by numeric ID.
func (s *GormStore) GetProjectByID(id int64) (domain.Project, bool, error) {
	var model ProjectModel
	if err := s.db.First(&model, "project_id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Project{}, false, nil
		}
		return domain.Project{}, false, err
	}
	return projectFromModel(model), true, nil
}

// GetProjectByTitle retrieves a project by its unique title.
func (s *GormStore) GetProjectByTitle(title string) (domain.Project, bool, error) {
	var model ProjectModel
	if err := s.db.Where("title = ?", title).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Project{}, false, nil
		}
		return domain.Project{}, false, err
	}
	return projectFromModel(model), true, nil
}

// ListProjects returns the full filtered set ordered by created_at; callers
// paginate in process so the total count stays accurate.
func (s *GormStore) ListProjects(f domain.ProjectFilter) ([]domain.Project, error) {
	tx := s.db.Order("created_at ASC")
	if pred := ProjectFilterPredicate(f); !pred.Empty() {
		cond, args := pred.Clause()
		tx = tx.Where(cond, args...)
	}
	var models []ProjectModel
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Project, 0, len(models))
	for _, m := range models {
		res = append(res, projectFromModel(m))
	}
	return res, nil
}

// SuggestTitles returns titles containing the query substring.
func (s *GormStore) SuggestTitles(query string) ([]string, error) {
	var titles []string
	err := s.db.Model(&ProjectModel{}).
		Where("title ILIKE ?", "%"+query+"%").
		Order("title ASC").
		Pluck("title", &titles).Error
	if err != nil {
		return nil, err
	}
	return titles, nil
}

// HasProjectDetails checks for a project with identical metadata.
func (s *GormStore) HasProjectDetails(title, authors string, year int, keywords, abstract string) (bool, error) {
	var count int64
	err := s.db.Model(&ProjectModel{}).
		Where("title = ? AND authors = ? AND publication_year = ? AND keywords = ? AND abstract = ?",
			title, authors, year, keywords, abstract).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// DeleteProject removes the project and any library references to it.
func (s *GormStore) DeleteProject(id int64) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&LibraryEntryModel{}, "project_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&ProjectModel{}, "project_id = ?", id).Error
	})
}

// CountProjects returns the number of archived projects.
func (s *GormStore) CountProjects() (int64, error) {
	var count int64
	err := s.db.Model(&ProjectModel{}).Count(&count).Error
	return count, err
}

type saveCountRow struct {
	ProjectModel
	SaveCount int64
}

// MostSaved returns projects ranked by library save count, descending.
func (s *GormStore) MostSaved() ([]domain.ProjectSaveCount, error) {
	var rows []saveCountRow
	err := s.db.Model(&ProjectModel{}).
		Select("project_details.*, COUNT(user_library.project_id) AS save_count").
		Joins("JOIN user_library ON user_library.project_id = project_details.project_id").
		Group("project_details.project_id").
		Order("save_count DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	res := make([]domain.ProjectSaveCount, 0, len(rows))
	for _, row := range rows {
		res = append(res, domain.ProjectSaveCount{
			Project:   projectFromModel(row.ProjectModel),
			SaveCount: row.SaveCount,
		})
	}
	return res, nil
}

// IsProjectSaved checks whether the user already saved the project.
func (s *GormStore) IsProjectSaved(userID, projectID int64) (bool, error) {
	var count int64
	err := s.db.Model(&LibraryEntryModel{}).
		Where("user_id = ? AND project_id = ?", userID, projectID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// AddLibraryEntry inserts a library entry stamped with the current time.
// The composite unique index rejects a duplicate pair that slipped past the
// caller's pre-check.
func (s *GormStore) AddLibraryEntry(userID, projectID int64) (domain.LibraryEntry, error) {
	model := LibraryEntryModel{
		UserID:    userID,
		ProjectID: projectID,
		SavedAt:   time.Now().UTC(),
	}
	if err := s.db.Create(&model).Error; err != nil {
		return domain.LibraryEntry{}, err
	}
	return libraryEntryFromModel(model), nil
}

// RemoveLibraryEntry deletes the entry only when owned by the user. The
// ownership check is part of the delete predicate, not a separate step.
func (s *GormStore) RemoveLibraryEntry(entryID, userID int64) (bool, error) {
	res := s.db.Delete(&LibraryEntryModel{}, "lib_id = ? AND user_id = ?", entryID, userID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// SavedProjectIDs returns the IDs of all projects in the user's library.
func (s *GormStore) SavedProjectIDs(userID int64) ([]int64, error) {
	var ids []int64
	err := s.db.Model(&LibraryEntryModel{}).
		Where("user_id = ?", userID).
		Pluck("project_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ListSavedProjects returns the user's library entries joined with project
// metadata, oldest saved first.
func (s *GormStore) ListSavedProjects(userID int64) ([]domain.SavedProject, error) {
	type joinedRow struct {
		ProjectModel
		LibID   int64
		SavedAt time.Time
	}
	var rows []joinedRow
	err := s.db.Model(&LibraryEntryModel{}).
		Select(`project_details.*, user_library.lib_id AS lib_id, user_library.timestamp AS saved_at`).
		Joins("JOIN project_details ON project_details.project_id = user_library.project_id").
		Where("user_library.user_id = ?", userID).
		Order("user_library.timestamp ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	res := make([]domain.SavedProject, 0, len(rows))
	for _, row := range rows {
		res = append(res, domain.SavedProject{
			EntryID: row.LibID,
			SavedAt: row.SavedAt,
			Project: projectFromModel(row.ProjectModel),
		})
	}
	return res, nil
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:                u.ID,
		FirstName:         u.FirstName,
		LastName:          u.LastName,
		Course:            u.Course,
		Major:             u.Major,
		YearLevel:         u.YearLevel,
		Username:          u.Username,
		Email:             u.Email,
		PasswordHash:      u.PasswordHash,
		Status:            string(u.Status),
		LastActive:        u.LastActive,
		ProfilePictureKey: u.ProfilePictureKey,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:                m.ID,
		FirstName:         m.FirstName,
		LastName:          m.LastName,
		Course:            m.Course,
		Major:             m.Major,
		YearLevel:         m.YearLevel,
		Username:          m.Username,
		Email:             m.Email,
		PasswordHash:      m.PasswordHash,
		Status:            domain.UserStatus(m.Status),
		LastActive:        m.LastActive,
		ProfilePictureKey: m.ProfilePictureKey,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func usersFromModels(models []UserModel) []domain.User {
	res := make([]domain.User, 0, len(models))
	for _, m := range models {
		res = append(res, userFromModel(m))
	}
	return res
}

func adminToModel(a domain.Admin) AdminModel {
	return AdminModel{
		ID:           a.ID,
		Username:     a.Username,
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		CreatedAt:    a.CreatedAt,
	}
}

func adminFromModel(m AdminModel) domain.Admin {
	return domain.Admin{
		ID:           m.ID,
		Username:     m.Username,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
	}
}

func projectToModel(p domain.Project) ProjectModel {
	return ProjectModel{
		ID:              p.ID,
		Title:           p.Title,
		Authors:         p.Authors,
		Major:           p.Major,
		PublicationYear: p.PublicationYear,
		Keywords:        p.Keywords,
		Abstract:        p.Abstract,
		PDFKey:          p.PDFKey,
		PDFSizeBytes:    p.PDFSizeBytes,
		Summary:         p.Summary,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func projectFromModel(m ProjectModel) domain.Project {
	return domain.Project{
		ID:              m.ID,
		Title:           m.Title,
		Authors:         m.Authors,
		Major:           m.Major,
		PublicationYear: m.PublicationYear,
		Keywords:        m.Keywords,
		Abstract:        m.Abstract,
		PDFKey:          m.PDFKey,
		PDFSizeBytes:    m.PDFSizeBytes,
		Summary:         m.Summary,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func libraryEntryFromModel(m LibraryEntryModel) domain.LibraryEntry {
	return domain.LibraryEntry{
		ID:        m.ID,
		UserID:    m.UserID,
		ProjectID: m.ProjectID,
		SavedAt:   m.SavedAt,
	}
}
