package app

import (
	"fmt"

	"capsarc/pkg/domain"
	"capsarc/pkg/paginate"
)

// SaveOutcome reports the result of saving a project to a library. Saved
// means the project is in the library after the call; AlreadySaved marks a
// repeat save, which is not an error.
type SaveOutcome struct {
	Saved        bool `json:"saved"`
	AlreadySaved bool `json:"alreadySaved"`
}

// SaveProjectToLibrary adds a project to the user's library. The duplicate
// pre-check is advisory; the unique index on (user, project) is the final
// arbiter when concurrent saves race.
func (a *App) SaveProjectToLibrary(userID, projectID int64) (SaveOutcome, error) {
	if userID == 0 {
		return SaveOutcome{}, ErrUnauthenticated
	}
	_, ok, err := a.store.GetProjectByID(projectID)
	if err != nil {
		return SaveOutcome{}, fmt.Errorf("get project: %w", err)
	}
	if !ok {
		return SaveOutcome{}, ErrProjectNotFound
	}

	saved, err := a.store.IsProjectSaved(userID, projectID)
	if err != nil {
		return SaveOutcome{}, fmt.Errorf("check saved: %w", err)
	}
	if saved {
		// The entry already exists, so the project is saved either way.
		return SaveOutcome{Saved: true, AlreadySaved: true}, nil
	}
	if _, err := a.store.AddLibraryEntry(userID, projectID); err != nil {
		// A concurrent save may have landed between the check and the
		// insert; the unique index rejects the second writer.
		again, checkErr := a.store.IsProjectSaved(userID, projectID)
		if checkErr == nil && again {
			return SaveOutcome{Saved: true, AlreadySaved: true}, nil
		}
		return SaveOutcome{}, fmt.Errorf("add library entry: %w", err)
	}
	return SaveOutcome{Saved: true}, nil
}

// RemoveLibraryEntry deletes a library entry. Ownership is enforced by
// predicate, so a user cannot remove another user's entry.
func (a *App) RemoveLibraryEntry(userID, entryID int64) error {
	if userID == 0 {
		return ErrUnauthenticated
	}
	removed, err := a.store.RemoveLibraryEntry(entryID, userID)
	if err != nil {
		return fmt.Errorf("remove library entry: %w", err)
	}
	if !removed {
		return ErrEntryNotRemoved
	}
	return nil
}

// LibraryPage is one page of a user's saved projects.
type LibraryPage struct {
	Entries []domain.SavedProject `json:"entries"`
	Page    paginate.Page         `json:"pagination"`
}

// Library lists the user's saved projects, newest first, paginated. A
// non-positive perPage falls back to the default page size.
func (a *App) Library(userID int64, perPage, pageNumber int) (LibraryPage, error) {
	if userID == 0 {
		return LibraryPage{}, ErrUnauthenticated
	}
	entries, err := a.store.ListSavedProjects(userID)
	if err != nil {
		return LibraryPage{}, fmt.Errorf("list saved projects: %w", err)
	}
	page := paginate.New(len(entries), perPage, pageNumber)
	return LibraryPage{
		Entries: paginate.Apply(entries, page.PerPage, page.Number),
		Page:    page,
	}, nil
}
