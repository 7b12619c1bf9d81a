package domain

import "fmt"

// FormatNumber renders a ticket number the way the storefront displays
// it: zero-padded to three digits ("007").
func FormatNumber(n int) string {
	return fmt.Sprintf("%03d", n)
}
