package mock

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/mocks-server/mocks-server/internal/schema"
	"github.com/mocks-server/mocks-server/pkg/logging"
)

// File patterns read by FilesLoader, relative to its root.
const (
	CollectionsPattern = "collections.{json,yaml,yml}"
	RoutesPattern      = "routes/**/*.{json,yaml,yml}"
)

// LoadResult holds the definitions read from the mocks folder.
type LoadResult struct {
	Routes      []RouteDefinition
	Collections []CollectionDefinition
	Files       []string
	Errors      []error
}

// FilesLoader reads route and collection definitions from a folder.
type FilesLoader struct {
	fsys fs.FS
	log  *slog.Logger
}

// NewFilesLoader creates a loader reading from fsys, typically os.DirFS of
// the mocks folder.
func NewFilesLoader(fsys fs.FS, log *slog.Logger) *FilesLoader {
	if log == nil {
		log = logging.Nop()
	}
	return &FilesLoader{fsys: fsys, log: log}
}

// Load reads collections.{json,yaml,yml} and every file under routes/.
// Invalid files and items are reported in LoadResult.Errors and skipped.
func (l *FilesLoader) Load() (*LoadResult, error) {
	result := &LoadResult{}

	collectionFiles, err := doublestar.Glob(l.fsys, CollectionsPattern)
	if err != nil {
		return nil, fmt.Errorf("find collections file: %w", err)
	}
	slices.Sort(collectionFiles)
	if len(collectionFiles) > 0 {
		file := collectionFiles[0]
		if len(collectionFiles) > 1 {
			l.log.Warn("several collections files found, using the first one", "file", file)
		}
		items, err := l.readItems(file)
		if err != nil {
			result.Errors = append(result.Errors, err)
		}
		for _, item := range items {
			var def CollectionDefinition
			if err := decodeItem(item, ValidateCollection, &def); err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("%s: %w", file, err))
				continue
			}
			result.Collections = append(result.Collections, def)
		}
		result.Files = append(result.Files, file)
	}

	routeFiles, err := doublestar.Glob(l.fsys, RoutesPattern)
	if err != nil {
		return nil, fmt.Errorf("find route files: %w", err)
	}
	slices.Sort(routeFiles)
	for _, file := range routeFiles {
		items, err := l.readItems(file)
		if err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		for _, item := range items {
			var def RouteDefinition
			if err := decodeItem(item, ValidateRoute, &def); err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("%s: %w", file, err))
				continue
			}
			result.Routes = append(result.Routes, def)
		}
		result.Files = append(result.Files, file)
	}

	l.log.Debug("mock files read", "files", len(result.Files), "routes", len(result.Routes), "collections", len(result.Collections))
	return result, nil
}

// readItems parses a YAML or JSON file holding one item or a list of items.
func (l *FilesLoader) readItems(file string) ([]any, error) {
	data, err := fs.ReadFile(l.fsys, file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", file, err)
	}
	normalized, err := schema.Normalize(doc)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", file, err)
	}
	switch v := normalized.(type) {
	case nil:
		return nil, nil
	case []any:
		return v, nil
	default:
		return []any{v}, nil
	}
}

func decodeItem(item any, validate func(any) error, v any) error {
	if err := validate(item); err != nil {
		return err
	}
	data, err := json.Marshal(item)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
