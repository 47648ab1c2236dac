package migrate

import (
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/samber/lo"
)

var migrationName = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

var requiredAnnotations = []string{"-- +goose Up", "-- +goose Down"}

// ValidateDir checks the migration root on disk. See ValidateFS.
func ValidateDir(root string) error {
	if root == "" {
		return errNoDir
	}
	return ValidateFS(os.DirFS(root))
}

// ValidateFS checks every dialect folder of fsys: file names carry a
// unique 14 digit version, each file has goose Up and Down sections, and all
// dialects ship the same file set.
func ValidateFS(fsys fs.FS) error {
	var reference []string
	for i, dialect := range dialects {
		names, err := scanDialect(fsys, DialectDir(".", dialect))
		if err != nil {
			return err
		}
		if i == 0 {
			reference = names
			continue
		}
		if missing, extra := lo.Difference(reference, names); len(missing)+len(extra) > 0 {
			return fmt.Errorf("%s migrations out of sync: missing %v, extra %v", dialect, missing, extra)
		}
	}
	return nil
}

func scanDialect(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	versions := map[string]string{}
	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		m := migrationName.FindStringSubmatch(name)
		if m == nil {
			return nil, fmt.Errorf("%s/%s: expected YYYYMMDDHHMMSS_name.sql", dir, name)
		}
		if prev, dup := versions[m[1]]; dup {
			return nil, fmt.Errorf("%s: version %s used by %s and %s", dir, m[1], prev, name)
		}
		versions[m[1]] = name

		body, err := fs.ReadFile(fsys, dir+"/"+name)
		if err != nil {
			return nil, err
		}
		for _, marker := range requiredAnnotations {
			if !strings.Contains(string(body), marker) {
				return nil, fmt.Errorf("%s/%s: missing %q", dir, name, marker)
			}
		}
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}
