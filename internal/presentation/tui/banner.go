package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the ASCII art banner shown when the interactive shell
// starts.
func PrintBanner(version string) {
	p := termenv.ColorProfile()
	// Subtle gradient from teal to blue.
	s1 := termenv.String(`                      _            `).Foreground(p.Color("#2dd4bf"))
	s2 := termenv.String(`  _ __   __ _ _ __  | |  ___ _   _ `).Foreground(p.Color("#38bdf8"))
	s3 := termenv.String(` | '_ \ / _' | '__| | | / _ \ | | |`).Foreground(p.Color("#60a5fa"))
	s4 := termenv.String(` | |_) | (_| | |    | ||  __/ |_| |`).Foreground(p.Color("#818cf8"))
	s5 := termenv.String(` | .__/ \__,_|_|    |_| \___|\__, |`).Foreground(p.Color("#a78bfa"))
	s6 := termenv.String(` |_|                         |___/ `).Foreground(p.Color("#c084fc"))

	fmt.Println()
	fmt.Println(s1)
	fmt.Println(s2)
	fmt.Println(s3)
	fmt.Println(s4)
	fmt.Println(s5)
	fmt.Println(s6)
	fmt.Printf("  v%s\n\n", version)
}

// Delimiter returns the default colored prompt delimiter for the demo shell.
func Delimiter(name string) string {
	p := termenv.ColorProfile()
	return termenv.String(name+"$ ").Foreground(p.Color("#38bdf8")).Bold().String()
}
