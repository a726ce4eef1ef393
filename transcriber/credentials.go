package transcriber

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// GroqAPIKey resolves the Groq credential. The GROQ_API_KEY environment
// variable wins; otherwise the credentials file in the config directory
// is consulted.
func GroqAPIKey(configDir string) string {
	if key := os.Getenv("GROQ_API_KEY"); key != "" {
		return key
	}
	return credentialFromFile(configDir+string(os.PathSeparator)+"credentials", "key_groq_api")
}

// credentialFromFile parses lines of the form
//
//	key_groq_api = "gsk_..."
//
// and returns the unquoted value for name, or "".
func credentialFromFile(path, name string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok || strings.TrimSpace(key) != name {
			continue
		}
		value = strings.TrimSpace(value)
		value = strings.Trim(value, `"'`)
		if value != "" {
			return value
		}
	}
	return ""
}

// SaveGroqAPIKey rewrites the credentials file with the given key,
// preserving unrelated lines. 0600: the file holds a secret.
func SaveGroqAPIKey(configDir, key string) error {
	path := filepath.Join(configDir, "credentials")

	var kept []string
	if data, err := os.ReadFile(path); err == nil {
		for _, line := range strings.Split(string(data), "\n") {
			name, _, ok := strings.Cut(line, "=")
			if ok && strings.TrimSpace(name) == "key_groq_api" {
				continue
			}
			if strings.TrimSpace(line) != "" {
				kept = append(kept, line)
			}
		}
	}
	if key != "" {
		kept = append(kept, fmt.Sprintf("key_groq_api = %q", key))
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(strings.Join(kept, "\n")+"\n"), 0o600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing credentials: %w", err)
	}
	return nil
}
