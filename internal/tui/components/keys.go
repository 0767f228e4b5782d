package components

// Key Command Groups:
// 1. Global Navigation - Always available with Alt or Ctrl modifier
// 2. View-Specific - Available only in the diff and explorer views
// 3. Terminal Pass-through - All other keys in the terminal view

// Global navigation keys
const (
	KeyQuit = "ctrl+q"

	KeyTerminal = "alt+1"
	KeyDiff     = "alt+2"
	KeyExplorer = "alt+3"

	KeyEnter = "enter"
)

// Navigation keys
const (
	KeyUp       = "up"
	KeyDown     = "down"
	KeyPageUp   = "pgup"
	KeyPageDown = "pgdown"
	KeyHome     = "home"
	KeyEnd      = "end"
)

// Vim-style navigation
const (
	KeyVimUp     = "k"
	KeyVimDown   = "j"
	KeyVimTop    = "g"
	KeyVimBottom = "G"
)

// Diff view keys
const (
	KeyDiffNextFile = "]"
	KeyDiffPrevFile = "["
	KeyDiffCopy     = "y"
	KeyDiffRefresh  = "r"
)

// Explorer view keys
const (
	KeyExplorerParent = "backspace"
	KeyExplorerStart  = "s"
)

// Terminal view keys (Alt/Option for Mac compatibility)
const (
	KeyShellScrollUp   = "alt+up"
	KeyShellScrollDown = "alt+down"
	KeyShellPageUp     = "alt+pgup"
	KeyShellPageDown   = "alt+pgdown"
)

// TabKeys returns the tab switch keys in tab order
func TabKeys() []string {
	return []string{KeyTerminal, KeyDiff, KeyExplorer}
}

// TabIndex returns the tab index (0-2) for a tab key, or -1
func TabIndex(key string) int {
	for i, k := range TabKeys() {
		if k == key {
			return i
		}
	}
	return -1
}

// IsGlobalNavigationKey checks if a key is a global navigation command
func IsGlobalNavigationKey(key string) bool {
	return key == KeyQuit || TabIndex(key) >= 0
}
