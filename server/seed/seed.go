// Package seed loads users, and optionally their first threads, from a JSON
// file into a store. Users are created externally in this system; this is
// that external step.
package seed

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Versifine/threadboard/server/internal/logger"
	"github.com/Versifine/threadboard/server/store"
)

type File struct {
	Users []User `json:"users"`
}

type User struct {
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Password  string `json:"password"`
	// Avatar is an image path, relative to the seed file.
	Avatar  string   `json:"avatar"`
	Threads []string `json:"threads"`
}

type Result struct {
	Users   int
	Skipped int
	Threads int
	Images  int
}

// Store is the part of the store seeding writes through.
type Store interface {
	UserIDByUsername(username string) (int, bool)
	AddUser(ctx context.Context, in store.NewUser) (store.UserProfile, error)
	CreateThread(ctx context.Context, authorID int, text string, imageIDs []int) (int, error)
	UploadImages(ctx context.Context, filenames []string) ([]int, error)
}

// Load reads a seed file. Avatar paths are resolved against its directory.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read seed file %s", path)
	}
	f := &File{}
	if err := json.Unmarshal(data, f); err != nil {
		return nil, errors.Wrapf(err, "decode seed file %s", path)
	}
	base := filepath.Dir(path)
	for i := range f.Users {
		if a := f.Users[i].Avatar; a != "" && !filepath.IsAbs(a) {
			f.Users[i].Avatar = filepath.Join(base, a)
		}
	}
	return f, nil
}

// Apply adds every user in f. Users whose username is already taken are
// skipped together with their threads, so applying a file twice is safe.
func Apply(ctx context.Context, st Store, f *File, uploadDir string) (Result, error) {
	var res Result
	for _, u := range f.Users {
		if _, ok := st.UserIDByUsername(strings.TrimSpace(u.Username)); ok {
			logger.Info("seed user exists, skipped", zap.String("username", u.Username))
			res.Skipped++
			continue
		}

		imageID := 0
		if u.Avatar != "" {
			name, err := copyImage(u.Avatar, uploadDir)
			if err != nil {
				return res, err
			}
			ids, err := st.UploadImages(ctx, []string{name})
			if err != nil {
				return res, err
			}
			imageID = ids[0]
			res.Images++
		}

		profile, err := st.AddUser(ctx, store.NewUser{
			Username:  u.Username,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Password:  u.Password,
			ImageID:   imageID,
		})
		if err != nil {
			return res, errors.Wrapf(err, "seed user %q", u.Username)
		}
		res.Users++

		for _, text := range u.Threads {
			if strings.TrimSpace(text) == "" {
				continue
			}
			if _, err := st.CreateThread(ctx, profile.ID, text, nil); err != nil {
				return res, errors.Wrapf(err, "seed thread for %q", u.Username)
			}
			res.Threads++
		}
	}
	return res, nil
}

func copyImage(src, uploadDir string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", errors.Wrapf(err, "open avatar %s", src)
	}
	defer in.Close()

	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return "", errors.Wrap(err, "prepare upload dir")
	}
	name := uuid.NewString() + strings.ToLower(filepath.Ext(src))
	out, err := os.Create(filepath.Join(uploadDir, name))
	if err != nil {
		return "", errors.Wrap(err, "create avatar copy")
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return "", errors.Wrap(err, "copy avatar")
	}
	return name, nil
}
