package audio

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// SelectDevice runs an interactive terminal picker over the available
// capture devices. A nil result means the system default was chosen.
func SelectDevice(ctx Context) (*DeviceInfo, error) {
	devices, err := ctx.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerating devices: %w", err)
	}

	if len(devices) == 0 {
		return nil, fmt.Errorf("no capture devices found")
	}

	labels := make([]string, 0, len(devices)+1)
	labels = append(labels, "System default")
	for _, d := range devices {
		labels = append(labels, d.Name)
	}

	// Raw mode for arrow key input
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("setting raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	cursor := 0
	renderList := func() {
		fmt.Print("\r\x1b[J") // clear from cursor to end
		fmt.Print("Select input device (↑/↓, Enter to confirm):\r\n\r\n")
		for i, l := range labels {
			if i == cursor {
				fmt.Printf("  \x1b[1;36m▶ %s\x1b[0m\r\n", l)
			} else {
				fmt.Printf("    %s\r\n", l)
			}
		}
	}

	renderList()

	pick := func() *DeviceInfo {
		if cursor == 0 {
			return nil
		}
		return &devices[cursor-1]
	}

	buf := make([]byte, 3)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return nil, fmt.Errorf("reading input: %w", err)
		}

		if n == 1 {
			switch buf[0] {
			case 13: // Enter
				fmt.Printf("\r\n")
				term.Restore(fd, oldState)
				return pick(), nil
			case 3: // Ctrl+C
				fmt.Printf("\r\n")
				term.Restore(fd, oldState)
				os.Exit(0)
			case 'j': // vim down
				if cursor < len(labels)-1 {
					cursor++
				}
			case 'k': // vim up
				if cursor > 0 {
					cursor--
				}
			}
		} else if n == 3 && buf[0] == 0x1b && buf[1] == '[' {
			switch buf[2] {
			case 'A': // Up arrow
				if cursor > 0 {
					cursor--
				}
			case 'B': // Down arrow
				if cursor < len(labels)-1 {
					cursor++
				}
			}
		}

		lines := len(labels) + 2
		fmt.Printf("\x1b[%dA", lines)
		renderList()
	}
}
