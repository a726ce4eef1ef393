//go:build darwin

package notify

import (
	"fmt"
	"os/exec"
	"strings"
)

func send(title, message string) error {
	esc := func(s string) string { return strings.ReplaceAll(s, `"`, `\"`) }
	script := fmt.Sprintf(`display notification "%s" with title "%s"`, esc(message), esc(title))
	return exec.Command("osascript", "-e", script).Run()
}
