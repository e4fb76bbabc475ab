package catchup

import (
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/snapetech/iptvcatalog/internal/catalog"
)

// catchupURL builds the replay URL for the window [start, end) using the
// channel's mode and template. All programme timestamps are corrected by the
// channel's catchup-correction before substitution. Returns "" when the mode
// cannot produce a URL from the channel's stream URL.
func (c *Controller) catchupURL(ch catalog.Channel, start, end time.Time, catchupID string) string {
	correction := time.Duration(ch.CatchupCorrectionSecs) * time.Second
	startUnix := start.Add(correction).Unix()
	nowUnix := c.now().Unix()
	duration := int64(end.Sub(start).Seconds())
	if duration < 0 {
		duration = 0
	}

	sub := func(template string) string {
		return substituteTokens(template, startUnix, nowUnix, duration, catchupID)
	}

	switch ch.CatchupMode {
	case catalog.CatchupDefault:
		if ch.CatchupSource != "" {
			return sub(ch.CatchupSource)
		}
		return appendQuery(ch.StreamURL, fmt.Sprintf("utc=%d&lutc=%d", startUnix, nowUnix))

	case catalog.CatchupAppend:
		if ch.CatchupSource != "" {
			return ch.StreamURL + sub(ch.CatchupSource)
		}
		return appendQuery(ch.StreamURL, fmt.Sprintf("utc=%d&lutc=%d", startUnix, nowUnix))

	case catalog.CatchupShift, catalog.CatchupTimeshift:
		return appendQuery(ch.StreamURL, fmt.Sprintf("utc=%d&lutc=%d", startUnix, nowUnix))

	case catalog.CatchupFlussonic:
		return flussonicURL(ch.StreamURL, ch.CatchupTSStream, startUnix, duration)

	case catalog.CatchupXtreamCodes:
		return xtreamCodesURL(ch.StreamURL, start.Add(correction), duration, catchupID)

	case catalog.CatchupVOD:
		if ch.CatchupSource != "" {
			return sub(ch.CatchupSource)
		}
		if strings.HasPrefix(catchupID, "http://") || strings.HasPrefix(catchupID, "https://") {
			return catchupID
		}
		return ch.StreamURL
	}
	return ""
}

// substituteTokens replaces the template's time and id tokens. Both the
// brace and the shell-style spellings seen in the wild are accepted.
func substituteTokens(template string, startUnix, nowUnix, duration int64, catchupID string) string {
	offset := nowUnix - startUnix
	r := strings.NewReplacer(
		"{utc}", strconv.FormatInt(startUnix, 10),
		"${start}", strconv.FormatInt(startUnix, 10),
		"{lutc}", strconv.FormatInt(nowUnix, 10),
		"${timestamp}", strconv.FormatInt(nowUnix, 10),
		"{duration}", strconv.FormatInt(duration, 10),
		"${duration}", strconv.FormatInt(duration, 10),
		"{offset}", strconv.FormatInt(offset, 10),
		"${offset}", strconv.FormatInt(offset, 10),
		"{catchup-id}", catchupID,
		"${catchup-id}", catchupID,
	)
	return r.Replace(template)
}

// appendQuery attaches query to streamURL with the right separator.
func appendQuery(streamURL, query string) string {
	sep := "?"
	if strings.ContainsRune(streamURL, '?') {
		sep = "&"
	}
	return streamURL + sep + query
}

// flussonicURL rewrites the stream URL's last path element into the archive
// form. The transport-stream variant addresses an absolute timeshift segment
// instead of an HLS window.
func flussonicURL(streamURL string, tsStream bool, startUnix, duration int64) string {
	u, err := url.Parse(streamURL)
	if err != nil || u.Host == "" {
		return ""
	}
	base := *u
	base.RawQuery = ""
	base.Path = path.Dir(u.Path)
	if base.Path == "." || base.Path == "/" {
		base.Path = ""
	}
	if tsStream {
		return fmt.Sprintf("%s/timeshift_abs-%d.ts", base.String(), startUnix)
	}
	return fmt.Sprintf("%s/video-%d-%d.m3u8", base.String(), startUnix, duration)
}

// xtreamCodesURL builds the /timeshift form from a stream URL shaped like
// scheme://host[:port]/[live/]user/pass/id[.ext]. The guide's catchup id
// replaces the stream id when present.
func xtreamCodesURL(streamURL string, start time.Time, duration int64, catchupID string) string {
	u, err := url.Parse(streamURL)
	if err != nil || u.Host == "" {
		return ""
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segs) > 0 && segs[0] == "live" {
		segs = segs[1:]
	}
	if len(segs) < 3 {
		return ""
	}
	user, pass, file := segs[0], segs[1], segs[len(segs)-1]
	ext := path.Ext(file)
	id := strings.TrimSuffix(file, ext)
	if ext == "" {
		ext = ".ts"
	}
	if catchupID != "" {
		id = catchupID
	}
	durationMins := duration / 60
	if durationMins < 1 {
		durationMins = 1
	}
	stamp := start.UTC().Format("2006-01-02:15-04")
	return fmt.Sprintf("%s://%s/timeshift/%s/%s/%d/%s/%s%s", u.Scheme, u.Host, user, pass, durationMins, stamp, id, ext)
}
