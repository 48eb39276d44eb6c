package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"capsarc/pkg/domain"
)

var allowedImageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

// ProfileView joins an account with a browsable URL for its picture.
type ProfileView struct {
	User       domain.User `json:"user"`
	PictureURL string      `json:"pictureUrl"`
}

// Profile returns the user's account details and a presigned picture URL.
// Accounts without an uploaded picture get the stock one.
func (a *App) Profile(ctx context.Context, userID int64) (ProfileView, error) {
	user, ok, err := a.store.GetUserByID(userID)
	if err != nil {
		return ProfileView{}, fmt.Errorf("get user: %w", err)
	}
	if !ok {
		return ProfileView{}, ErrUserNotFound
	}
	view := ProfileView{User: user, PictureURL: a.pictureURL}
	if user.ProfilePictureKey != "" {
		url, err := a.objects.PresignGet(ctx, user.ProfilePictureKey, a.presignExpiry)
		if err != nil {
			slog.Warn("presign profile picture", "userId", userID, "error", err)
		} else {
			view.PictureURL = url
		}
	}
	return view, nil
}

// UpdateProfileInput carries editable profile fields. Picture is optional.
type UpdateProfileInput struct {
	Username  string
	FirstName string
	LastName  string
	Course    string
	Major     string
	YearLevel string
	Email     string
	Filename  string
	Picture   io.Reader
}

// UpdateProfile updates the user's own details and, when provided, replaces
// the profile picture.
func (a *App) UpdateProfile(ctx context.Context, userID int64, in UpdateProfileInput) (domain.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Course = strings.TrimSpace(in.Course)
	in.Major = strings.TrimSpace(in.Major)
	in.YearLevel = strings.TrimSpace(in.YearLevel)
	in.Email = strings.TrimSpace(in.Email)

	if in.Username == "" || in.FirstName == "" || in.LastName == "" || in.Course == "" ||
		in.Major == "" || in.YearLevel == "" || in.Email == "" {
		return domain.User{}, ErrFieldsRequired
	}

	user, ok, err := a.store.GetUserByID(userID)
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	if !ok {
		return domain.User{}, ErrUserNotFound
	}

	if in.Username != user.Username {
		taken, err := a.store.HasUsername(in.Username)
		if err != nil {
			return domain.User{}, fmt.Errorf("check username: %w", err)
		}
		if taken {
			return domain.User{}, ErrUsernameTaken
		}
		user.Username = in.Username
	}

	user.FirstName = in.FirstName
	user.LastName = in.LastName
	user.Course = in.Course
	user.Major = in.Major
	user.YearLevel = in.YearLevel
	user.Email = in.Email

	if in.Picture != nil {
		ext := strings.ToLower(filepath.Ext(in.Filename))
		if !allowedImageExts[ext] {
			return domain.User{}, ErrInvalidFileType
		}
		data, err := io.ReadAll(in.Picture)
		if err != nil {
			return domain.User{}, fmt.Errorf("read picture: %w", err)
		}
		key := "profiles/" + uuid.NewString() + ext
		contentType := "image/" + strings.TrimPrefix(ext, ".")
		if ext == ".jpg" {
			contentType = "image/jpeg"
		}
		if err := a.objects.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
			return domain.User{}, fmt.Errorf("store picture: %w", err)
		}
		oldKey := user.ProfilePictureKey
		user.ProfilePictureKey = key
		if oldKey != "" {
			if err := a.objects.Delete(ctx, oldKey); err != nil {
				slog.Warn("delete replaced profile picture", "key", oldKey, "error", err)
			}
		}
	}

	if err := a.store.UpdateUserProfile(user); err != nil {
		return domain.User{}, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}
