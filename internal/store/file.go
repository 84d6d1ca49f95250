package store

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// FilePersister keeps one JSON file per key in Dir. Saves go through a temp
// file and a rename so readers never see a partial document.
type FilePersister struct {
	Dir string
}

func NewFilePersister(dir string) *FilePersister {
	return &FilePersister{Dir: filepath.Clean(dir)}
}

func (p *FilePersister) Path(key string) string {
	return filepath.Join(p.Dir, key+".json")
}

func (p *FilePersister) Load(key string) ([]byte, error) {
	data, err := os.ReadFile(p.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

func (p *FilePersister) Save(key string, value []byte) error {
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(p.Dir, "."+key+"-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, p.Path(key))
}

func (p *FilePersister) Delete(key string) error {
	err := os.Remove(p.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
