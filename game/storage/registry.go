package storage

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/wricardo/memory-match-game/game/engine"
)

// Registry maps format tags to their stores and routes file names by extension
type Registry struct {
	stores map[Format]*FileStore
	order  []Format
}

// NewRegistry creates the text, XML and JSON stores under baseDir
func NewRegistry(baseDir, exportDir string) (*Registry, error) {
	codecs := []Codec{NewTextCodec(), NewXMLCodec(), NewJSONCodec()}

	stores := make([]*FileStore, 0, len(codecs))
	for _, codec := range codecs {
		store, err := NewFileStore(codec, baseDir, exportDir)
		if err != nil {
			return nil, err
		}
		stores = append(stores, store)
	}
	return NewRegistryWithStores(stores...), nil
}

// NewRegistryWithStores builds a registry from existing stores.
// A later store replaces an earlier one with the same format.
func NewRegistryWithStores(stores ...*FileStore) *Registry {
	r := &Registry{stores: make(map[Format]*FileStore)}
	for _, store := range stores {
		if _, exists := r.stores[store.Format()]; !exists {
			r.order = append(r.order, store.Format())
		}
		r.stores[store.Format()] = store
	}
	return r
}

// Formats returns the registered formats in registration order
func (r *Registry) Formats() []Format {
	formats := make([]Format, len(r.order))
	copy(formats, r.order)
	return formats
}

// Store returns the store for a format tag
func (r *Registry) Store(format Format) (*FileStore, error) {
	store, ok := r.stores[format]
	if !ok {
		log.Printf("Unsupported save format: %q", format)
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return store, nil
}

// StoreFor routes a file name to its store by trailing extension
func (r *Registry) StoreFor(fileName string) (*FileStore, error) {
	ext := filepath.Ext(fileName)
	if ext == "" {
		log.Printf("Unsupported save format: %s has no extension", fileName)
		return nil, fmt.Errorf("%w: %s has no extension", ErrUnsupportedFormat, fileName)
	}
	return r.Store(Format(ext[1:]))
}

// Save writes the snapshot in the given format. The stored copy records that
// format as its save format; the caller's snapshot is not modified.
func (r *Registry) Save(snapshot *engine.Snapshot, format Format) (string, error) {
	store, err := r.Store(format)
	if err != nil {
		return "", err
	}
	if snapshot == nil {
		return "", fmt.Errorf("snapshot cannot be nil")
	}

	stamped := snapshot.Clone()
	stamped.SaveFormat = string(format)
	return store.Save(stamped)
}

// Load reads a save routed by its extension
func (r *Registry) Load(fileName string) (*engine.Snapshot, error) {
	store, err := r.StoreFor(fileName)
	if err != nil {
		return nil, err
	}
	return store.Load(fileName)
}

// Delete removes a save routed by its extension
func (r *Registry) Delete(fileName string) (bool, error) {
	store, err := r.StoreFor(fileName)
	if err != nil {
		return false, err
	}
	return store.Delete(fileName)
}

// ReadRaw returns a save's unparsed contents
func (r *Registry) ReadRaw(fileName string) (string, error) {
	store, err := r.StoreFor(fileName)
	if err != nil {
		return "", err
	}
	return store.ReadRaw(fileName)
}

// Export copies a save to the export directory
func (r *Registry) Export(fileName string) (string, error) {
	store, err := r.StoreFor(fileName)
	if err != nil {
		return "", err
	}
	return store.Export(fileName)
}

// List returns the file names saved in one format
func (r *Registry) List(format Format) ([]string, error) {
	store, err := r.Store(format)
	if err != nil {
		return nil, err
	}
	return store.List()
}

// Convert loads a save and writes it in another format, returning the new path
func (r *Registry) Convert(fileName string, target Format) (string, error) {
	snapshot, err := r.Load(fileName)
	if err != nil {
		return "", err
	}
	return r.Save(snapshot, target)
}
