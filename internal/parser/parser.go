// Package parser turns raw channel message text into structured trade
// signals. A message yields a signal only when pair, direction, and expiry
// are all present; anything less is treated as "no trade".
package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"pocketSignalBot/internal/domain"
)

var (
	nonASCII  = regexp.MustCompile(`[^\x00-\x7F]+`)
	pairRe    = regexp.MustCompile(`(?i)([A-Z]{3})\s*/\s*([A-Z]{3})\s*OTC`)
	secondsRe = regexp.MustCompile(`(\d+)\s*(?:[sS]|sec|second|seconds)`)
	minutesRe = regexp.MustCompile(`(\d+)\s*(?:[mM]|min|minute|minutes)`)
	hoursRe   = regexp.MustCompile(`(\d+)\s*(?:[hH]|hour|hours)`)
	sideRe    = regexp.MustCompile(`(?i)\b(BUY|CALL|SELL|PUT)\b`)
	entryRe   = regexp.MustCompile(`Entry\s*Time\s*[:\-]\s*(\d{1,2}:\d{2})`)
)

// Parse extracts a trade signal from message text. It returns nil when any
// of pair, direction, or expiry is missing; a partially parsed message must
// never produce a partial trade.
func Parse(text string) *domain.TradeSignal {
	lines := strings.Split(text, "\n")

	pair := parsePair(lines)
	expiry := parseExpiry(lines)
	direction, haveDirection := parseDirection(lines)
	entryTime := parseEntryTime(lines)

	if pair == "" || !haveDirection || expiry == 0 {
		return nil
	}

	return &domain.TradeSignal{
		Pair:      pair,
		Direction: direction,
		Expiry:    expiry,
		EntryTime: entryTime,
		RawText:   text,
	}
}

// parsePair scans every line for a "XXX / YYY OTC" pattern. All lines are
// visited without an early exit, so when a message mentions several pairs
// the last matching line wins. Channels are known to post quoted history
// above the live signal, which is why the newest (lowest) line is trusted.
func parsePair(lines []string) string {
	var pair string
	for _, line := range lines {
		clean := nonASCII.ReplaceAllString(line, "")
		if m := pairRe.FindStringSubmatch(clean); m != nil {
			pair = fmt.Sprintf("%s%s_otc", strings.ToUpper(m[1]), strings.ToUpper(m[2]))
		}
	}
	return pair
}

// parseExpiry returns the expiration in seconds from the first line that
// carries a duration. Within a line, seconds take precedence over minutes,
// and minutes over hours, so "90 seconds" is not misread as minutes via its
// trailing "s" forms.
func parseExpiry(lines []string) int {
	for _, line := range lines {
		clean := nonASCII.ReplaceAllString(line, "")
		if m := secondsRe.FindStringSubmatch(clean); m != nil {
			return atoi(m[1])
		}
		if m := minutesRe.FindStringSubmatch(clean); m != nil {
			return atoi(m[1]) * 60
		}
		if m := hoursRe.FindStringSubmatch(clean); m != nil {
			return atoi(m[1]) * 3600
		}
	}
	return 0
}

// parseDirection stops at the first line containing a standalone
// BUY/CALL/SELL/PUT token.
func parseDirection(lines []string) (domain.Direction, bool) {
	for _, line := range lines {
		clean := nonASCII.ReplaceAllString(line, "")
		if m := sideRe.FindStringSubmatch(clean); m != nil {
			switch strings.ToUpper(m[1]) {
			case "BUY", "CALL":
				return domain.Call, true
			default:
				return domain.Put, true
			}
		}
	}
	return "", false
}

// parseEntryTime returns the optional scheduled entry time, or "" when the
// signal should execute immediately.
func parseEntryTime(lines []string) string {
	for _, line := range lines {
		clean := nonASCII.ReplaceAllString(line, "")
		if m := entryRe.FindStringSubmatch(clean); m != nil {
			return m[1]
		}
	}
	return ""
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
