package browser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/leslieo2/go-proxy-select/internal/constants"
)

// ProfileLookup is the outcome of scanning profiles.ini. Path is only
// meaningful when Found is true.
type ProfileLookup struct {
	Path  string
	Found bool
}

// DiscoverProfile scans a profiles.ini for the default profile's Path.
//
// Lines of the section being scanned are buffered. A new [Profile...]
// header discards the buffer, unless the default section was already seen,
// in which case the scan stops and the buffer is kept. The last Path= line
// in the retained buffer wins. Only read errors are returned.
func DiscoverProfile(r io.Reader) (ProfileLookup, error) {
	var (
		section      []string
		foundDefault bool
	)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if strings.HasPrefix(line, "[Profile") && strings.HasSuffix(line, "]") {
			if foundDefault {
				break
			}
			section = section[:0]
			continue
		}

		section = append(section, line)
		if isDefaultEntry(line) {
			foundDefault = true
		}
	}
	if err := scanner.Err(); err != nil {
		return ProfileLookup{}, fmt.Errorf("browser: read profiles: %w", err)
	}

	if !foundDefault && len(section) == 0 {
		return ProfileLookup{}, nil
	}

	lookup := ProfileLookup{}
	for _, line := range section {
		if path, ok := strings.CutPrefix(line, "Path="); ok {
			lookup = ProfileLookup{Path: path, Found: true}
		}
	}
	return lookup, nil
}

// isDefaultEntry reports whether line is Default=1, ignoring key case.
func isDefaultEntry(line string) bool {
	key, value, ok := strings.Cut(line, "=")
	if !ok || key == "" {
		return false
	}
	return strings.ToLower(strings.TrimSpace(key)) == "default" && strings.TrimSpace(value) == "1"
}

// FindPreferencesFile returns the prefs.js path of the default profile
// under root.
func FindPreferencesFile(root string) (string, error) {
	profilesPath := filepath.Join(root, constants.ProfilesFileName)

	f, err := os.Open(profilesPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrProfileNotFound, profilesPath)
		}
		return "", fmt.Errorf("browser: open profiles: %w", err)
	}
	defer f.Close()

	lookup, err := DiscoverProfile(f)
	if err != nil {
		return "", err
	}
	if !lookup.Found {
		return "", fmt.Errorf("%w: no default profile in %s", ErrProfileNotFound, profilesPath)
	}

	profileDir := filepath.FromSlash(lookup.Path)
	if !filepath.IsAbs(profileDir) {
		profileDir = filepath.Join(root, profileDir)
	}
	return filepath.Join(profileDir, constants.PreferencesFileName), nil
}
