package common

import (
	"github.com/ternarybob/banner"
)

// PrintBanner writes the metaseek startup banner to stdout.
func PrintBanner(version string) {
	banner.Print("Metaseek", version)
}
