//go:build !gui

package main

func initGUI() {
	panic("v2t: built without GUI support (rebuild with -tags gui)")
}
