//go:build linux

package notify

import "os/exec"

func send(title, message string) error {
	return exec.Command("notify-send", "--app-name=v2t", title, message).Run()
}
