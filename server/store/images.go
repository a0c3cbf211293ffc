package store

import (
	"context"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/Versifine/threadboard/server/internal/logger"
)

// DefaultImagePrefix is the public path images are served under.
const DefaultImagePrefix = "public/images"

// PublicImageURL joins a stored file name onto the public image prefix.
func PublicImageURL(prefix, filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

// UploadImages registers already written image files and returns their ids in
// the order given.
func (s *Store) UploadImages(ctx context.Context, filenames []string) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int, 0, len(filenames))
	for _, name := range filenames {
		id := s.doc.nextID(tableImages)
		s.doc.Resources.Images[id] = PublicImageURL(s.imagePrefix, name)
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return ids, nil
	}
	if err := s.commit(ctx, "upload images"); err != nil {
		return nil, err
	}
	logger.Debug("images registered", zap.Ints("image_ids", ids))
	return ids, nil
}

// ImageURLs resolves image ids in order. Unknown ids resolve to "".
func (s *Store) ImageURLs(ids []int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.imageURLsLocked(ids)
}

func (s *Store) imageURLsLocked(ids []int) []string {
	urls := make([]string, len(ids))
	for i, id := range ids {
		urls[i] = s.doc.Resources.Images[id]
	}
	return urls
}
