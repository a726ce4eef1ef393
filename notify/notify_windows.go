//go:build windows

package notify

import (
	"fmt"
	"os/exec"
	"strings"
)

func send(title, message string) error {
	esc := func(s string) string { return strings.ReplaceAll(s, "'", "''") }
	script := fmt.Sprintf(
		"[System.Reflection.Assembly]::LoadWithPartialName('System.Windows.Forms') | Out-Null; "+
			"$n = New-Object System.Windows.Forms.NotifyIcon; "+
			"$n.Icon = [System.Drawing.SystemIcons]::Information; "+
			"$n.Visible = $true; "+
			"$n.ShowBalloonTip(5000, '%s', '%s', 'Info')",
		esc(title), esc(message))
	return exec.Command("powershell", "-NoProfile", "-Command", script).Run()
}
