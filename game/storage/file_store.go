package storage

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/memory-match-game/game/engine"
)

// FileStore keeps the save files of one format in its own directory
type FileStore struct {
	codec     Codec
	dir       string
	exportDir string
}

// DirName returns the directory name used for a format's saves
func DirName(format Format) string {
	return "saved_games_" + string(format)
}

// NewFileStore creates a store under baseDir/saved_games_<ext>.
// Exported copies go to exportDir.
func NewFileStore(codec Codec, baseDir, exportDir string) (*FileStore, error) {
	if codec == nil {
		return nil, fmt.Errorf("codec cannot be nil")
	}

	dir := filepath.Join(baseDir, DirName(codec.Format()))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: failed to create saves directory: %v", ErrIO, err)
	}

	return &FileStore{
		codec:     codec,
		dir:       dir,
		exportDir: exportDir,
	}, nil
}

// Format returns the store's format tag
func (fs *FileStore) Format() Format {
	return fs.codec.Format()
}

// Dir returns the directory holding this store's files
func (fs *FileStore) Dir() string {
	return fs.dir
}

// Save writes the snapshot to <sessionId>.<ext> and returns the file path.
// The previous file, if any, is replaced atomically.
func (fs *FileStore) Save(snapshot *engine.Snapshot) (string, error) {
	if snapshot == nil {
		return "", fmt.Errorf("snapshot cannot be nil")
	}
	fileName, err := fs.fileName(snapshot.SessionID)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := fs.codec.Encode(&buf, snapshot); err != nil {
		return "", fmt.Errorf("%w: failed to encode %s: %v", ErrIO, fileName, err)
	}

	path := filepath.Join(fs.dir, fileName)
	if err := atomicWriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("%w: %v", ErrIO, err)
	}
	return path, nil
}

// Load reads a save by file name. The extension may be omitted.
func (fs *FileStore) Load(name string) (*engine.Snapshot, error) {
	fileName, err := fs.fileName(name)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(fs.dir, fileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, fileName)
		}
		return nil, fmt.Errorf("%w: failed to open %s: %v", ErrIO, fileName, err)
	}
	defer f.Close()

	stem := strings.TrimSuffix(fileName, fs.codec.Extension())
	snapshot, err := fs.codec.Decode(f, stem)
	if err != nil {
		return nil, err
	}
	if err := engine.ValidateDeck(snapshot.Cards); err != nil {
		return nil, parseError(fs.codec.Format(), stem, err)
	}
	return snapshot, nil
}

// List returns the file names of every save in this store, sorted
func (fs *FileStore) List() ([]string, error) {
	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("%w: failed to read saves directory: %v", ErrIO, err)
	}

	names := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if filepath.Ext(name) == fs.codec.Extension() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Exists reports whether a save file is present
func (fs *FileStore) Exists(name string) bool {
	fileName, err := fs.fileName(name)
	if err != nil {
		return false
	}
	_, err = os.Stat(filepath.Join(fs.dir, fileName))
	return err == nil
}

// Delete removes a save. It reports false without an error when the file
// does not exist.
func (fs *FileStore) Delete(name string) (bool, error) {
	fileName, err := fs.fileName(name)
	if err != nil {
		return false, err
	}

	if err := os.Remove(filepath.Join(fs.dir, fileName)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("%w: failed to remove %s: %v", ErrIO, fileName, err)
	}
	return true, nil
}

// ReadRaw returns the file contents unparsed
func (fs *FileStore) ReadRaw(name string) (string, error) {
	data, err := fs.readFile(name)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Export copies a save verbatim into the export directory and returns the
// new path. The export directory is created when missing.
func (fs *FileStore) Export(name string) (string, error) {
	if fs.exportDir == "" {
		return "", fmt.Errorf("%w: no export directory configured", ErrIO)
	}

	data, err := fs.readFile(name)
	if err != nil {
		return "", err
	}

	fileName, _ := fs.fileName(name)
	dest := filepath.Join(fs.exportDir, fileName)
	if err := atomicWriteFile(dest, data, 0644); err != nil {
		return "", fmt.Errorf("%w: failed to export %s: %v", ErrIO, fileName, err)
	}
	log.Printf("Exported %s to %s", fileName, dest)
	return dest, nil
}

func (fs *FileStore) readFile(name string) ([]byte, error) {
	fileName, err := fs.fileName(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(fs.dir, fileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, fileName)
		}
		return nil, fmt.Errorf("%w: failed to read %s: %v", ErrIO, fileName, err)
	}
	return data, nil
}

// fileName turns a session id or file name into a safe file name with this
// store's extension
func (fs *FileStore) fileName(name string) (string, error) {
	ext := fs.codec.Extension()
	stem := strings.TrimSuffix(name, ext)
	if stem == "" || stem == "." || stem == ".." || strings.ContainsAny(stem, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return stem + ext, nil
}
