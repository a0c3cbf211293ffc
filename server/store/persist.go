package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Persister loads and saves the whole document. Save is called with the store
// lock held, once per mutation.
type Persister interface {
	Load(ctx context.Context) (*Document, error)
	Save(ctx context.Context, doc *Document) error
}

func encodeDocument(doc *Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "encode document")
	}
	return data, nil
}

func decodeDocument(data []byte) (*Document, error) {
	doc := &Document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, errors.Wrap(err, "decode document")
	}
	return doc, nil
}

// FilePersister keeps the document in a single JSON file.
type FilePersister struct {
	Path string
}

func NewFilePersister(path string) *FilePersister {
	return &FilePersister{Path: path}
}

func (p *FilePersister) Load(ctx context.Context) (*Document, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoDocument
		}
		return nil, errors.Wrapf(err, "read %s", p.Path)
	}
	if len(data) == 0 {
		return nil, ErrNoDocument
	}
	return decodeDocument(data)
}

// Save writes to a temp file in the same directory and renames it over the
// target, so readers never see a half-written document.
func (p *FilePersister) Save(ctx context.Context, doc *Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encodeDocument(doc)
	if err != nil {
		return err
	}

	dir := filepath.Dir(p.Path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return errors.Wrap(err, "create data directory")
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(p.Path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "write document")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "sync document")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close document")
	}
	if err := os.Rename(tmpName, p.Path); err != nil {
		return errors.Wrap(err, "replace document")
	}
	return nil
}

// MemoryPersister keeps the last saved document in memory, encoded, so that
// loads return an independent copy. FailSaves makes every Save fail.
type MemoryPersister struct {
	data      []byte
	Saves     int
	FailSaves error
}

func (p *MemoryPersister) Load(ctx context.Context) (*Document, error) {
	if p.data == nil {
		return nil, ErrNoDocument
	}
	return decodeDocument(p.data)
}

func (p *MemoryPersister) Save(ctx context.Context, doc *Document) error {
	if p.FailSaves != nil {
		return p.FailSaves
	}
	data, err := encodeDocument(doc)
	if err != nil {
		return err
	}
	p.data = data
	p.Saves++
	return nil
}
