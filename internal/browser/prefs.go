package browser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
)

const (
	userPrefPrefix = "user_pref("
	userPrefSuffix = ");"
)

// ParsePreferences reads user_pref("key", value); statements. Quoted
// values are unquoted; other values are kept verbatim. Malformed lines are
// skipped and later keys overwrite earlier ones.
func ParsePreferences(r io.Reader) (map[string]string, error) {
	prefs := make(map[string]string)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		key, value, ok := parsePrefLine(strings.TrimSpace(scanner.Text()))
		if ok {
			prefs[key] = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("browser: read preferences: %w", err)
	}
	return prefs, nil
}

func parsePrefLine(line string) (string, string, bool) {
	if !strings.HasPrefix(line, userPrefPrefix) || !strings.HasSuffix(line, userPrefSuffix) {
		return "", "", false
	}
	pref := line[len(userPrefPrefix) : len(line)-len(userPrefSuffix)]

	comma := strings.IndexByte(pref, ',')
	if comma < 1 || comma == len(pref)-1 {
		return "", "", false
	}

	key, ok := unquote(strings.TrimSpace(pref[:comma]))
	if !ok || strings.TrimSpace(key) == "" {
		return "", "", false
	}

	value := strings.TrimSpace(pref[comma+1:])
	if v, quoted := unquote(value); quoted {
		value = strings.TrimSpace(v)
	}
	return key, value, true
}

func unquote(s string) (string, bool) {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s, false
	}
	return s[1 : len(s)-1], true
}

// LoadPreferences locates the default Firefox profile via resolver and
// parses its prefs.js. Any failure fails the whole load.
func LoadPreferences(resolver ProfileRootResolver, logger *zap.Logger) (map[string]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	root, err := resolver.ProfileRoot()
	if err != nil {
		return nil, err
	}

	prefsPath, err := FindPreferencesFile(root)
	if err != nil {
		return nil, err
	}
	logger.Info("Found firefox preferences file", zap.String("path", prefsPath))

	f, err := os.Open(prefsPath)
	if err != nil {
		return nil, fmt.Errorf("browser: open preferences: %w", err)
	}
	defer f.Close()

	prefs, err := ParsePreferences(f)
	if err != nil {
		return nil, err
	}
	logger.Info("Read firefox preferences", zap.Int("entries", len(prefs)))
	return prefs, nil
}
