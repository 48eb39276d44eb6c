package app

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestProfile(t *testing.T) {
	env := newTestApp(t)
	user := registerTestUser(t, env.app, "jreyes")

	view, err := env.app.Profile(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if view.User.Username != "jreyes" {
		t.Fatalf("username = %q", view.User.Username)
	}
	if view.PictureURL != defaultPictureURL {
		t.Fatalf("picture url = %q for account without a picture, want the stock image", view.PictureURL)
	}

	if _, err := env.app.Profile(context.Background(), 9999); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	env := newTestApp(t)
	user := registerTestUser(t, env.app, "jreyes")

	updated, err := env.app.UpdateProfile(context.Background(), user.ID, UpdateProfileInput{
		Username:  "jreyes",
		FirstName: "Janelle",
		LastName:  "Reyes",
		Course:    "BSIT",
		Major:     "Data Science",
		YearLevel: "4",
		Email:     "janelle@example.edu",
	})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if updated.FirstName != "Janelle" || updated.Major != "Data Science" {
		t.Fatalf("updated = %+v", updated)
	}

	stored, _, _ := env.store.GetUserByID(user.ID)
	if stored.Email != "janelle@example.edu" {
		t.Fatalf("stored email = %q", stored.Email)
	}
}

func TestUpdateProfileUsername(t *testing.T) {
	env := newTestApp(t)
	user := registerTestUser(t, env.app, "jreyes")
	registerTestUser(t, env.app, "mcruz")

	in := UpdateProfileInput{
		Username: "mcruz", FirstName: "Jan", LastName: "Reyes", Course: "BSIT",
		Major: "Web Development", YearLevel: "4", Email: "jreyes@example.edu",
	}
	if _, err := env.app.UpdateProfile(context.Background(), user.ID, in); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	in.Username = "jreyes2026"
	updated, err := env.app.UpdateProfile(context.Background(), user.ID, in)
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if updated.Username != "jreyes2026" {
		t.Fatalf("username = %q", updated.Username)
	}

	// Keeping the current username is not a conflict with yourself.
	in.Username = "jreyes2026"
	if _, err := env.app.UpdateProfile(context.Background(), user.ID, in); err != nil {
		t.Fatalf("unchanged username rejected: %v", err)
	}
}

func TestUpdateProfilePicture(t *testing.T) {
	env := newTestApp(t)
	user := registerTestUser(t, env.app, "jreyes")

	in := UpdateProfileInput{
		Username: "jreyes", FirstName: "Jan", LastName: "Reyes", Course: "BSIT",
		Major: "Web Development", YearLevel: "4", Email: "jreyes@example.edu",
		Filename: "avatar.exe", Picture: strings.NewReader("binary"),
	}
	if _, err := env.app.UpdateProfile(context.Background(), user.ID, in); !errors.Is(err, ErrInvalidFileType) {
		t.Fatalf("expected ErrInvalidFileType, got %v", err)
	}

	in.Filename = "avatar.png"
	in.Picture = strings.NewReader("png bytes")
	updated, err := env.app.UpdateProfile(context.Background(), user.ID, in)
	if err != nil {
		t.Fatalf("UpdateProfile with picture: %v", err)
	}
	if updated.ProfilePictureKey == "" || !env.objects.Has(updated.ProfilePictureKey) {
		t.Fatalf("picture object missing for key %q", updated.ProfilePictureKey)
	}

	view, err := env.app.Profile(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if view.PictureURL == "" || view.PictureURL == defaultPictureURL {
		t.Fatalf("picture url = %q, want a presigned link", view.PictureURL)
	}

	// Replacing the picture cleans up the previous object.
	firstKey := updated.ProfilePictureKey
	in.Filename = "avatar2.jpg"
	in.Picture = strings.NewReader("jpeg bytes")
	replaced, err := env.app.UpdateProfile(context.Background(), user.ID, in)
	if err != nil {
		t.Fatalf("replace picture: %v", err)
	}
	if env.objects.Has(firstKey) {
		t.Fatal("old picture object not cleaned up")
	}
	if !env.objects.Has(replaced.ProfilePictureKey) {
		t.Fatal("new picture object missing")
	}
}
