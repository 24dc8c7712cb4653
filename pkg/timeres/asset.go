package timeres

import (
	"net/url"
	"regexp"
	"strconv"

	"github.com/umputun/postscope/pkg/domain"
)

var digitsRe = regexp.MustCompile(`\d+`)

// AssetSignals finds epoch candidates in the path of a media URL. Only runs of exactly
// 10 (seconds) or 13 (milliseconds) digits qualify. Query values are skipped, the CDN puts
// the link expiry there, not the upload time.
func AssetSignals(mediaURL string) []domain.TimeSignal {
	u, err := url.Parse(mediaURL)
	if err != nil {
		return nil
	}

	var res []domain.TimeSignal
	for _, run := range digitsRe.FindAllString(u.Path, -1) {
		var unit domain.EpochUnit
		switch len(run) {
		case 10:
			unit = domain.EpochSeconds
		case 13:
			unit = domain.EpochMillis
		default:
			continue
		}
		epoch, err := strconv.ParseInt(run, 10, 64)
		if err != nil {
			continue
		}
		res = append(res, domain.AssetSignal(epoch, unit))
	}
	return res
}
