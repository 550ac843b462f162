package catalog

import (
	_ "embed"
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"

	"github.com/okian/fantasyfamily/internal/domain/model"
)

//go:embed default_catalog.toml
var defaultCatalog []byte

// fileEntry is one [[event]] table of a catalog file.
type fileEntry struct {
	ID       string `toml:"id"`
	Name     string `toml:"name"`
	Points   int    `toml:"points"`
	Category string `toml:"category"`
}

type catalogFile struct {
	Events []fileEntry `toml:"event"`
}

// Default returns the packaged default catalog.
func Default() ([]model.EventDefinition, error) {
	defs, err := decode(string(defaultCatalog))
	if err != nil {
		return nil, fmt.Errorf("packaged catalog: %w", err)
	}
	return defs, nil
}

// LoadFile reads a TOML catalog file from disk.
func LoadFile(path string) ([]model.EventDefinition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	defs, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return defs, nil
}

// Read decodes a TOML catalog. Entries without an id are returned with an
// empty ID and receive one when seeded.
func Read(r io.Reader) ([]model.EventDefinition, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return decode(string(data))
}

func decode(data string) ([]model.EventDefinition, error) {
	var cf catalogFile
	md, err := toml.Decode(data, &cf)
	if err != nil {
		return nil, model.WrapKind("decode catalog", model.ErrValidation, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, model.NewKind("decode catalog", model.ErrValidation, "unknown keys: %v", undecoded)
	}

	check := New()
	defs := make([]model.EventDefinition, 0, len(cf.Events))
	for i, e := range cf.Events {
		cat, err := model.ParseCategory(e.Category)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i+1, err)
		}
		id := e.ID
		if id == "" {
			// Validation only; cannot collide with ids in the file.
			id = uuid.NewString()
		}
		def, err := check.Define(id, e.Name, e.Points, cat)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i+1, err)
		}
		def.ID = e.ID
		defs = append(defs, def)
	}
	return defs, nil
}

// Write encodes definitions in the catalog file format.
func Write(w io.Writer, defs []model.EventDefinition) error {
	cf := catalogFile{Events: make([]fileEntry, len(defs))}
	for i, d := range defs {
		cf.Events[i] = fileEntry{ID: d.ID, Name: d.Name, Points: d.Points, Category: string(d.Category)}
	}
	return toml.NewEncoder(w).Encode(cf)
}
