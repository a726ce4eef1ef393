package hotkey

import "golang.design/x/hotkey"

func modifiersFor(c Chord) []hotkey.Modifier {
	var mods []hotkey.Modifier
	if c.Ctrl {
		mods = append(mods, hotkey.ModCtrl)
	}
	if c.Shift {
		mods = append(mods, hotkey.ModShift)
	}
	if c.Alt {
		mods = append(mods, hotkey.ModOption)
	}
	if c.Super {
		mods = append(mods, hotkey.ModCmd)
	}
	return mods
}
