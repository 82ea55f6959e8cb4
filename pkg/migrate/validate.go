package migrate

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/pressly/goose/v3"
	"go.uber.org/multierr"
)

var filenameRe = regexp.MustCompile(`^\d{14}_[a-z0-9_]+\.sql$`)

var requiredMarkers = [][]byte{
	[]byte("-- +goose Up"),
	[]byte("-- +goose Down"),
}

// ValidateDir checks every migration goose would collect from dir. All
// problems are reported together rather than stopping at the first one.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}

	// goose rejects duplicate versions and unparsable names while collecting.
	migrations, err := goose.CollectMigrations(dir, 0, goose.MaxVersion)
	if err != nil {
		return fmt.Errorf("collect migrations in %q: %w", dir, err)
	}
	if len(migrations) == 0 {
		return fmt.Errorf("no migrations found in %q", dir)
	}

	var problems error
	for _, m := range migrations {
		name := filepath.Base(m.Source)
		if !filenameRe.MatchString(name) {
			problems = multierr.Append(problems, fmt.Errorf("%s: expected YYYYMMDDHHMMSS_snake_name.sql", name))
			continue
		}
		body, err := os.ReadFile(m.Source)
		if err != nil {
			problems = multierr.Append(problems, fmt.Errorf("read %s: %w", name, err))
			continue
		}
		for _, marker := range requiredMarkers {
			if !bytes.Contains(body, marker) {
				problems = multierr.Append(problems, fmt.Errorf("%s: missing %q", name, marker))
			}
		}
	}
	return problems
}
