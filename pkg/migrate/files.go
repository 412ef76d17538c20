package migrate

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

const versionLayout = "20060102150405"

var (
	fileNameRe = regexp.MustCompile(`^(\d{14})_([a-z0-9_]+)\.sql$`)
	unsafeRe   = regexp.MustCompile(`[^a-z0-9_]+`)
)

// File is one goose SQL migration.
type File struct {
	Version int64
	Name    string
	Path    string
}

// Check lists the migrations in dir and rejects malformed names, duplicate versions and
// files whose goose annotations are incomplete.
func Check(dir string) ([]File, error) {
	fsys, err := Source(dir)
	if err != nil {
		return nil, err
	}
	return checkFS(fsys)
}

func checkFS(fsys fs.FS) ([]File, error) {
	names, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}

	files := make([]File, 0, len(names))
	seen := make(map[int64]string, len(names))
	for _, name := range names {
		m := fileNameRe.FindStringSubmatch(name)
		if m == nil {
			return nil, fmt.Errorf("invalid migration filename %q (expected %s_name.sql)", name, versionLayout)
		}
		version, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse version of %q: %w", name, err)
		}
		if prev, ok := seen[version]; ok {
			return nil, fmt.Errorf("version %d used by %q and %q", version, prev, name)
		}
		seen[version] = name

		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", name, err)
		}
		if err := checkAnnotations(string(body)); err != nil {
			return nil, fmt.Errorf("migration %q: %w", name, err)
		}
		files = append(files, File{Version: version, Name: m[2], Path: name})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Version < files[j].Version })
	return files, nil
}

func checkAnnotations(body string) error {
	if !strings.Contains(body, "-- +goose Up") {
		return fmt.Errorf(`missing "-- +goose Up"`)
	}
	if !strings.Contains(body, "-- +goose Down") {
		return fmt.Errorf(`missing "-- +goose Down"`)
	}
	begins := strings.Count(body, "-- +goose StatementBegin")
	ends := strings.Count(body, "-- +goose StatementEnd")
	if begins != ends {
		return fmt.Errorf("unbalanced StatementBegin/StatementEnd (%d/%d)", begins, ends)
	}
	return nil
}

// NewFile writes an empty migration named after name into dir, versioned at now.
func NewFile(dir, name string, now time.Time) (File, error) {
	if dir == "" {
		return File{}, fmt.Errorf("dir is required")
	}
	slug := unsafeRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "_")
	slug = strings.Trim(slug, "_")
	if slug == "" {
		return File{}, fmt.Errorf("name %q has no usable characters", name)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return File{}, fmt.Errorf("mkdir %q: %w", dir, err)
	}

	stamp := now.UTC().Format(versionLayout)
	version, _ := strconv.ParseInt(stamp, 10, 64)
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.sql", stamp, slug))

	body := fmt.Sprintf(`-- +goose Up
-- +goose StatementBegin
-- %[1]s
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- revert %[1]s
-- +goose StatementEnd
`, slug)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return File{}, fmt.Errorf("create %q: %w", path, err)
	}
	defer f.Close()
	if _, err := f.WriteString(body); err != nil {
		return File{}, fmt.Errorf("write %q: %w", path, err)
	}
	return File{Version: version, Name: slug, Path: path}, nil
}
