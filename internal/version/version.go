// ABOUTME: Version and product identification constants
// ABOUTME: Reported in logs and the TUI header
package version

const (
	// Version is the application version
	Version = "0.3.0"

	// Product is the product name
	Product = "FretCoach"

	// Manufacturer is the manufacturer name
	Manufacturer = "FretCoach"
)
