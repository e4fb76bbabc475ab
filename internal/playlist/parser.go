package playlist

import (
	"log"
	"strconv"
	"strings"

	"github.com/snapetech/iptvcatalog/internal/catalog"
	"github.com/snapetech/iptvcatalog/internal/textenc"
)

// propInputStream is the canonical property name the inputstreamaddon and
// inputstreamclass KODIPROP variants are folded into.
const propInputStream = "inputstream"

// propRealTimeStream is attached to every finalized channel.
const propRealTimeStream = "isrealtimestream"

// parseIntoChannel populates the entry accumulator from one #EXTINF line and
// returns the raw group-title value for the caller to split and register.
// Returns "" without touching the accumulator when the line has no usable
// colon/comma structure; such an entry stays unpopulated and is dropped at
// finalization.
func (l *Loader) parseIntoChannel(line string, e *entry) string {
	colonIndex := strings.IndexByte(line, ':')
	commaIndex := strings.LastIndexByte(line, ',')

	// The display name may itself contain a comma. When the last quoted
	// attribute is followed directly by a comma, that comma is the real
	// attribute/name boundary.
	if lastQuote := strings.LastIndexByte(line, '"'); lastQuote >= 0 {
		possibleName := line[lastQuote+1:]
		if strings.HasPrefix(strings.TrimSpace(possibleName), ",") {
			commaIndex = lastQuote + 1 + strings.IndexByte(possibleName, ',')
		}
	}

	if colonIndex < 0 || commaIndex < 0 || commaIndex <= colonIndex {
		return ""
	}

	name := textenc.ToUTF8(strings.TrimSpace(line[commaIndex+1:]))
	e.channel.Name = name

	infoLine := line[colonIndex+1 : commaIndex]

	tvgID := ReadMarkerValue(infoLine, tvgIDMarker)
	tvgName := textenc.ToUTF8(ReadMarkerValue(infoLine, tvgNameMarker))
	tvgLogo := ReadMarkerValue(infoLine, tvgLogoMarker)
	chnlNo := ReadMarkerValue(infoLine, tvgChnoMarker)
	radio := ReadMarkerValue(infoLine, radioMarker)
	tvgShift := ReadMarkerValue(infoLine, tvgShiftMarker)
	catchup := ReadMarkerValue(infoLine, catchupMarker)
	catchupDays := ReadMarkerValue(infoLine, catchupDaysMarker)
	tvgRec := ReadMarkerValue(infoLine, tvgRecMarker)
	catchupSource := textenc.ToUTF8(ReadMarkerValue(infoLine, catchupSourceMarker))
	catchupSiptv := ReadMarkerValue(infoLine, catchupSiptvMarker)
	catchupCorrection := ReadMarkerValue(infoLine, catchupCorrectionMarker)
	providerName := ReadMarkerValue(infoLine, providerMarker)
	providerType := ReadMarkerValue(infoLine, providerTypeMarker)
	providerLogo := ReadMarkerValue(infoLine, providerLogoMarker)
	providerCountries := ReadMarkerValue(infoLine, providerCountriesMarker)
	providerLanguages := ReadMarkerValue(infoLine, providerLanguagesMarker)
	mediaDir := ReadMarkerValue(infoLine, mediaDirMarker)
	mediaSize := ReadMarkerValue(infoLine, mediaSizeMarker)

	// Some providers use catchup-type instead of catchup; after that the
	// header default applies.
	if catchup == "" {
		catchup = ReadMarkerValue(infoLine, catchupTypeMarker)
	}
	if catchup == "" {
		catchup = l.header.catchup
	}

	if tvgID == "" {
		tvgID = ReadMarkerValue(infoLine, tvgIDUpperMarker)
	}
	if tvgID == "" {
		tvgID = strconv.Itoa(atoiLoose(infoLine))
	}

	if chnlNo == "" {
		chnlNo = ReadMarkerValue(infoLine, channelNumberMarker)
	}
	if chnlNo != "" && !l.cfg.NumberByOrderOnly {
		if dot := strings.IndexByte(chnlNo, '.'); dot >= 0 {
			e.channel.Number = atoiLoose(chnlNo[:dot])
			e.channel.SubNumber = atoiLoose(chnlNo[dot+1:])
		} else {
			e.channel.Number = atoiLoose(chnlNo)
		}
	}

	e.channel.TvgID = tvgID
	e.channel.TvgName = tvgName
	e.channel.Radio = strings.EqualFold(radio, "true")
	e.channel.IconPath = l.iconPath(tvgLogo)

	// Stored as read from the line; the header fallback below only feeds
	// the local value. Unifying the two changes observed behaviour for
	// playlists that set the source in the header only.
	e.channel.CatchupSource = catchupSource
	if catchupSource == "" {
		catchupSource = l.header.catchupSource
	}
	e.catchupSource = catchupSource

	e.channel.TvgShiftSecs = int(atofLoose(tvgShift) * 3600.0)
	if tvgShift == "" {
		e.channel.TvgShiftSecs = l.epgShiftSecs
	}

	e.channel.CatchupCorrectionSecs = int(atofLoose(catchupCorrection) * 3600.0)
	if catchupCorrection == "" {
		e.channel.CatchupCorrectionSecs = l.correctionSecs
	}

	switch strings.ToLower(catchup) {
	case "default":
		e.channel.HasCatchup = true
		e.channel.CatchupMode = catalog.CatchupDefault
	case "append":
		e.channel.HasCatchup = true
		e.channel.CatchupMode = catalog.CatchupAppend
	case "shift":
		e.channel.HasCatchup = true
		e.channel.CatchupMode = catalog.CatchupShift
	case "flussonic", "flussonic-hls":
		e.channel.HasCatchup = true
		e.channel.CatchupMode = catalog.CatchupFlussonic
	case "flussonic-ts", "fs":
		e.channel.HasCatchup = true
		e.channel.CatchupMode = catalog.CatchupFlussonic
		e.channel.CatchupTSStream = true
	case "xc":
		e.channel.HasCatchup = true
		e.channel.CatchupMode = catalog.CatchupXtreamCodes
	case "vod":
		e.channel.HasCatchup = true
		e.channel.CatchupMode = catalog.CatchupVOD
	}

	if !e.channel.HasCatchup && l.xeevCatchup &&
		(strings.HasPrefix(name, "* ") || strings.HasPrefix(name, "[+] ")) {
		e.channel.HasCatchup = true
		e.channel.CatchupMode = catalog.CatchupXtreamCodes
	}

	// The siptv timeshift="days" tag predates the catchup tags; tvg-rec is
	// treated the same when timeshift is absent.
	siptvDays := atoiLoose(catchupSiptv)
	if tvgRec != "" && siptvDays == 0 {
		siptvDays = atoiLoose(tvgRec)
	}

	switch {
	case catchupDays != "":
		e.channel.CatchupDays = atoiLoose(catchupDays)
	case l.header.catchupSource != "":
		// Intentionally keyed on the source field: the header days default
		// only applies when the header also carries a catchup-source.
		e.channel.CatchupDays = atoiLoose(l.header.catchupDays)
	case e.channel.CatchupMode == catalog.CatchupVOD:
		e.channel.CatchupDays = catalog.IgnoreCatchupDays
	case siptvDays > 0:
		e.channel.CatchupDays = siptvDays
	default:
		e.channel.CatchupDays = l.cfg.CatchupDays
	}

	if !e.channel.HasCatchup && siptvDays > 0 {
		e.channel.CatchupMode = catalog.CatchupTimeshift
		e.channel.HasCatchup = true
	}

	if providerName == "" && l.cfg.DefaultProviderName != "" {
		providerName = l.cfg.DefaultProviderName
	}
	if provider := l.providers.Register(providerName); provider != nil {
		if providerType != "" {
			provider.FillType(catalog.ParseProviderType(providerType))
		}
		if providerLogo != "" {
			provider.FillIconPath(providerLogo)
		}
		if providerCountries != "" {
			provider.FillCountries(catalog.SplitProviderTokens(providerCountries))
		}
		if providerLanguages != "" {
			provider.FillLanguages(catalog.SplitProviderTokens(providerLanguages))
		}
		e.channel.ProviderID = provider.ID
	}

	if mediaDir != "" {
		e.media.Directory = mediaDir
	}
	if mediaSize != "" {
		e.media.SizeBytes = parseInt64Loose(mediaSize)
	}

	return ReadMarkerValue(infoLine, groupNameMarker)
}

// iconPath resolves a tvg-logo value against the configured logo base URL.
func (l *Loader) iconPath(tvgLogo string) string {
	if tvgLogo == "" || l.cfg.LogoBaseURL == "" {
		return tvgLogo
	}
	if strings.HasPrefix(tvgLogo, "http://") || strings.HasPrefix(tvgLogo, "https://") {
		return tvgLogo
	}
	return strings.TrimRight(l.cfg.LogoBaseURL, "/") + "/" + tvgLogo
}

// parseAndAddChannelGroups splits a group-title value on ';' and registers
// every group the policy allows, appending the resulting ids to the entry's
// membership list. Rejected names are skipped without failing the entry.
func (l *Loader) parseAndAddChannelGroups(groupNamesList string, e *entry) {
	for _, groupName := range strings.Split(groupNamesList, ";") {
		groupName = textenc.ToUTF8(groupName)
		if !l.groups.Allowed(groupName, e.channel.Radio) {
			continue
		}
		e.groupIDs = append(e.groupIDs, l.groups.Add(groupName, e.channel.Radio))
	}
}

// parseSingleProperty reads one #KODIPROP / #EXTVLCOPT directive into the
// channel's property map, applying the per-marker allow list. Disallowed
// pairs are still parsed so they show up in the log.
func (l *Loader) parseSingleProperty(line, marker string, ch *catalog.Channel) {
	value := ReadMarkerValue(line, marker)
	pos := strings.IndexByte(value, '=')
	if pos < 0 {
		return
	}
	prop := strings.ToLower(value[:pos])
	propValue := value[pos+1:]

	add := true
	switch marker {
	case extVlcOptDashMarker:
		add = prop == "http-reconnect"
	case extVlcOptMarker:
		add = prop == "http-user-agent" || prop == "http-referrer" || prop == "program"
	case kodiPropMarker:
		if prop == "inputstreamaddon" || prop == "inputstreamclass" {
			prop = propInputStream
		}
	}

	if add {
		ch.SetProperty(prop, propValue)
	}
	log.Printf("playlist: %s property %q=%q added=%v", marker, prop, propValue, add)
}

// atoiLoose parses a leading integer the way C's atoi does: optional sign,
// digits until the first non-digit, 0 when there are none.
func atoiLoose(s string) int {
	return int(parseInt64Loose(s))
}

func parseInt64Loose(s string) int64 {
	s = strings.TrimLeft(s, " \t")
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	j := i
	for j < len(s) && s[j] >= '0' && s[j] <= '9' {
		j++
	}
	if j == i {
		return 0
	}
	n, err := strconv.ParseInt(s[:j], 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// atofLoose parses a leading decimal the way C's atof does.
func atofLoose(s string) float64 {
	s = strings.TrimLeft(s, " \t")
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	j := i
	for j < len(s) && s[j] >= '0' && s[j] <= '9' {
		j++
	}
	if j < len(s) && s[j] == '.' {
		j++
		for j < len(s) && s[j] >= '0' && s[j] <= '9' {
			j++
		}
	}
	if j == i || (j == i+1 && s[i] == '.') {
		return 0
	}
	f, err := strconv.ParseFloat(s[:j], 64)
	if err != nil {
		return 0
	}
	return f
}
