package playlist

import "strings"

// Directive line prefixes.
const (
	startMarker         = "#EXTM3U"
	infoMarker          = "#EXTINF:"
	groupMarker         = "#EXTGRP:"
	kodiPropMarker      = "#KODIPROP:"
	extVlcOptMarker     = "#EXTVLCOPT:"
	extVlcOptDashMarker = "#EXTVLCOPT--"
	playlistTypeMarker  = "#EXT-X-PLAYLIST-TYPE:"
)

// Attribute markers found on the header and #EXTINF info lines.
const (
	tvgIDMarker         = "tvg-id="
	tvgIDUpperMarker    = "tvg-ID="
	tvgNameMarker       = "tvg-name="
	tvgLogoMarker       = "tvg-logo="
	tvgShiftMarker      = "tvg-shift="
	tvgChnoMarker       = "tvg-chno="
	channelNumberMarker = "channel-number="
	radioMarker         = "radio="
	tvgRecMarker        = "tvg-rec="
	tvgURLMarker        = "tvg-url="
	tvgURLOtherMarker   = "url-tvg="
	groupNameMarker     = "group-title="

	catchupMarker           = "catchup="
	catchupTypeMarker       = "catchup-type="
	catchupDaysMarker       = "catchup-days="
	catchupSourceMarker     = "catchup-source="
	catchupCorrectionMarker = "catchup-correction="
	catchupSiptvMarker      = "timeshift="

	providerMarker          = "provider="
	providerTypeMarker      = "provider-type="
	providerLogoMarker      = "provider-logo="
	providerCountriesMarker = "provider-countries="
	providerLanguagesMarker = "provider-languages="

	mediaMarker     = "media="
	mediaDirMarker  = "media-dir="
	mediaSizeMarker = "media-size="
)

// ReadMarkerValue extracts the attribute value following marker in line.
// A value opening with a double quote runs to the closing quote; otherwise it
// runs to the next space or the end of the line. Returns "" when the marker
// is absent, which callers treat as "not specified".
func ReadMarkerValue(line, marker string) string {
	start := strings.Index(line, marker)
	if start < 0 {
		return ""
	}
	start += len(marker)
	if start >= len(line) {
		return ""
	}
	stop := byte(' ')
	if line[start] == '"' {
		stop = '"'
		start++
	}
	end := strings.IndexByte(line[start:], stop)
	if end < 0 {
		return line[start:]
	}
	return line[start : start+end]
}
