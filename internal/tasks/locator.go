package tasks

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/desertthunder/sp2yt/internal/models"
	"github.com/desertthunder/sp2yt/internal/shared"
)

// the id ends at the query string, fragment or next path segment
var locatorPattern = regexp.MustCompile(`playlist/([^?#/\s]+)`)

// ParseLocator extracts the playlist id from a Spotify playlist URL such as
// https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M?si=abc.
//
// Empty input and input without a "playlist/<id>" segment return [shared.ErrInvalidInput].
func ParseLocator(locator string) (models.PlaylistIdentifier, error) {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return "", fmt.Errorf("%w: Spotify URL is required", shared.ErrInvalidInput)
	}

	m := locatorPattern.FindStringSubmatch(locator)
	if m == nil {
		return "", fmt.Errorf("%w: no playlist id in %q", shared.ErrInvalidInput, locator)
	}
	return models.PlaylistIdentifier(m[1]), nil
}
