package matcher

import (
	"fmt"
	"os"
	"path/filepath"
)

// Pool lists the asset files directly inside dir in os.ReadDir order, as full
// paths. Directories and files of unknown classes are skipped. A missing
// directory yields an empty pool.
func Pool(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || ClassOf(entry.Name()) == ClassUnknown {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	return files, nil
}

// Without returns pool minus the given paths, keeping order.
func Without(pool []string, taken ...string) []string {
	if len(taken) == 0 {
		return pool
	}
	skip := make(map[string]struct{}, len(taken))
	for _, path := range taken {
		skip[path] = struct{}{}
	}
	out := make([]string, 0, len(pool))
	for _, path := range pool {
		if _, ok := skip[path]; !ok {
			out = append(out, path)
		}
	}
	return out
}
