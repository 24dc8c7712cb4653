package browser

import (
	"math/rand"
)

// acceptLanguages contains common browser Accept-Language values
var acceptLanguages = []string{
	"en-US,en;q=0.9",
	"en-GB,en;q=0.9",
	"en-US,en;q=0.9,es;q=0.8",
	"en-US,en;q=0.9,fr;q=0.8",
	"en-US,en;q=0.9,de;q=0.8",
	"fr-FR,fr;q=0.9,en;q=0.8",
	"de-DE,de;q=0.9,en;q=0.8",
}

// extraHeaders returns header name/value pairs sent along with every page load, with some randomization
func extraHeaders() []string {
	h := []string{
		"Accept-Language", acceptLanguages[rand.Intn(len(acceptLanguages))], //nolint:gosec // non-cryptographic randomness is fine for header variation
		"Cache-Control", "no-cache",
		"Pragma", "no-cache",
	}
	// dnt - 30% chance of being set
	if rand.Float32() < 0.3 { //nolint:gosec // non-cryptographic randomness is fine
		h = append(h, "DNT", "1")
	}
	return h
}
