package app

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"capsarc/pkg/auth"
	"capsarc/pkg/domain"
)

// RegisterUserInput carries the registration form fields.
type RegisterUserInput struct {
	FirstName string
	LastName  string
	Course    string
	Major     string
	YearLevel string
	Email     string
	Username  string
	Password  string
}

// RegisterUser creates a student account. Duplicate detection distinguishes
// a fully identical registration from a mere username collision.
func (a *App) RegisterUser(in RegisterUserInput) (domain.User, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Course = strings.TrimSpace(in.Course)
	in.Major = strings.TrimSpace(in.Major)
	in.YearLevel = strings.TrimSpace(in.YearLevel)
	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)

	if in.FirstName == "" || in.LastName == "" || in.Course == "" || in.Major == "" ||
		in.YearLevel == "" || in.Email == "" || in.Username == "" || in.Password == "" {
		return domain.User{}, ErrFieldsRequired
	}
	if err := auth.ValidatePassword(in.Password); err != nil {
		return domain.User{}, err
	}

	same, err := a.store.HasUserDetails(in.FirstName, in.LastName, in.Email, in.Course, in.Major, in.Username)
	if err != nil {
		return domain.User{}, fmt.Errorf("check user details: %w", err)
	}
	if same {
		return domain.User{}, ErrDuplicateUser
	}
	taken, err := a.store.HasUsername(in.Username)
	if err != nil {
		return domain.User{}, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return domain.User{}, ErrUsernameTaken
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	user, err := a.store.CreateUser(domain.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Course:       in.Course,
		Major:        in.Major,
		YearLevel:    in.YearLevel,
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: hash,
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login verifies credentials, marks the account active, and opens a session.
// It returns the session token for the cookie.
func (a *App) Login(username, password string) (domain.User, string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return domain.User{}, "", ErrFieldsRequired
	}
	user, ok, err := a.store.GetUserByUsername(username)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("get user: %w", err)
	}
	if !ok || !auth.CheckPassword(password, user.PasswordHash) {
		return domain.User{}, "", ErrInvalidCredentials
	}

	now := time.Now()
	if err := a.store.SetUserStatus(user.ID, domain.StatusActive, &now); err != nil {
		return domain.User{}, "", fmt.Errorf("set user status: %w", err)
	}
	user.Status = domain.StatusActive
	user.LastActive = &now

	token, err := a.sessions.NewSession(domain.Session{
		PrincipalID: user.ID,
		Username:    user.Username,
		Kind:        domain.KindUser,
	})
	if err != nil {
		return domain.User{}, "", fmt.Errorf("create session: %w", err)
	}
	return user, token, nil
}

// Logout clears the active status and discards the session.
func (a *App) Logout(token string, sess domain.Session) error {
	if sess.Kind == domain.KindUser {
		if err := a.store.SetUserStatus(sess.PrincipalID, domain.StatusInactive, nil); err != nil {
			slog.Warn("clear user status on logout", "userId", sess.PrincipalID, "error", err)
		}
	}
	if err := a.sessions.DeleteSession(token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// ChangePassword rotates a user's password after verifying the current one.
func (a *App) ChangePassword(userID int64, current, next, confirm string) error {
	if current == "" || next == "" || confirm == "" {
		return ErrFieldsRequired
	}
	if next != confirm {
		return ErrPasswordMismatch
	}
	if err := auth.ValidatePassword(next); err != nil {
		return err
	}
	user, ok, err := a.store.GetUserByID(userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if !ok {
		return ErrUserNotFound
	}
	if !auth.CheckPassword(current, user.PasswordHash) {
		return ErrWrongPassword
	}
	hash, err := auth.HashPassword(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := a.store.UpdateUserPassword(userID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// RegisterAdmin creates an administrator account, subject to the configured
// account cap.
func (a *App) RegisterAdmin(username, email, password string) (domain.Admin, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return domain.Admin{}, ErrFieldsRequired
	}
	if err := auth.ValidatePassword(password); err != nil {
		return domain.Admin{}, err
	}

	count, err := a.store.CountAdmins()
	if err != nil {
		return domain.Admin{}, fmt.Errorf("count admins: %w", err)
	}
	if count >= int64(a.maxAdmins) {
		return domain.Admin{}, ErrAdminLimit
	}
	exists, err := a.store.HasAdminUsernameOrEmail(username, email)
	if err != nil {
		return domain.Admin{}, fmt.Errorf("check admin: %w", err)
	}
	if exists {
		return domain.Admin{}, ErrAdminExists
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return domain.Admin{}, fmt.Errorf("hash password: %w", err)
	}
	admin, err := a.store.CreateAdmin(domain.Admin{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		return domain.Admin{}, fmt.Errorf("create admin: %w", err)
	}
	return admin, nil
}

// AdminLogin verifies admin credentials and opens an admin session.
func (a *App) AdminLogin(username, password string) (domain.Admin, string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return domain.Admin{}, "", ErrFieldsRequired
	}
	admin, ok, err := a.store.GetAdminByUsername(username)
	if err != nil {
		return domain.Admin{}, "", fmt.Errorf("get admin: %w", err)
	}
	if !ok || !auth.CheckPassword(password, admin.PasswordHash) {
		return domain.Admin{}, "", ErrInvalidCredentials
	}
	token, err := a.sessions.NewSession(domain.Session{
		PrincipalID: admin.ID,
		Username:    admin.Username,
		Kind:        domain.KindAdmin,
	})
	if err != nil {
		return domain.Admin{}, "", fmt.Errorf("create session: %w", err)
	}
	return admin, token, nil
}
