// Package normalize canonicalizes player and team names so picks recorded
// by the models can be matched against results-source rows that spell the
// same subject differently.
package normalize

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Generational suffixes dropped during comparison
var suffixes = map[string]struct{}{
	"jr":  {},
	"sr":  {},
	"ii":  {},
	"iii": {},
	"iv":  {},
	"v":   {},
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Name lower-cases, strips diacritics and punctuation, drops generational
// suffixes, and collapses whitespace.
// "Jr. O'Brien" and "obrien" reduce to comparable forms.
func Name(s string) string {
	if folded, _, err := transform.String(stripMarks, s); err == nil {
		s = folded
	}
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-':
			b.WriteByte(' ')
		}
		// punctuation (periods, apostrophes) is dropped entirely
	}

	parts := strings.Fields(b.String())
	kept := parts[:0]
	for _, p := range parts {
		if _, ok := suffixes[p]; ok {
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, " ")
}

// SameName reports whether two subject names refer to the same person.
// Full normalized equality matches; otherwise the last names must agree
// and the first names must match — exactly when both sides spell one
// out, by initial when either side is abbreviated ("J. Tatum"). Two
// distinct spelled-out first names never match on initial alone.
// The comparison is symmetric.
func SameName(a, b string) bool {
	na, nb := Name(a), Name(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}

	pa, pb := strings.Fields(na), strings.Fields(nb)
	lastA, lastB := pa[len(pa)-1], pb[len(pb)-1]
	if lastA != lastB {
		return false
	}
	if len(pa) == 1 || len(pb) == 1 {
		// one side is last-name only
		return true
	}

	firstA, firstB := pa[0], pb[0]
	if len(firstA) == 1 || len(firstB) == 1 {
		// abbreviated first name, initials must agree
		return firstA[0] == firstB[0]
	}
	return firstA == firstB
}

// Team alias table: normalized alias -> canonical code.
// Codes map to themselves so already-canonical input passes through.
var teamAliases = map[string]string{
	"atlanta hawks": "ATL", "hawks": "ATL", "atl": "ATL",
	"boston celtics": "BOS", "celtics": "BOS", "bos": "BOS",
	"brooklyn nets": "BKN", "nets": "BKN", "bkn": "BKN",
	"charlotte hornets": "CHA", "hornets": "CHA", "cha": "CHA",
	"chicago bulls": "CHI", "bulls": "CHI", "chi": "CHI",
	"cleveland cavaliers": "CLE", "cavaliers": "CLE", "cavs": "CLE", "cle": "CLE",
	"dallas mavericks": "DAL", "mavericks": "DAL", "mavs": "DAL", "dal": "DAL",
	"denver nuggets": "DEN", "nuggets": "DEN", "den": "DEN",
	"detroit pistons": "DET", "pistons": "DET", "det": "DET",
	"golden state warriors": "GSW", "warriors": "GSW", "gs warriors": "GSW", "gsw": "GSW", "gs": "GSW",
	"houston rockets": "HOU", "rockets": "HOU", "hou": "HOU",
	"indiana pacers": "IND", "pacers": "IND", "ind": "IND",
	"los angeles clippers": "LAC", "la clippers": "LAC", "clippers": "LAC", "lac": "LAC",
	"los angeles lakers": "LAL", "la lakers": "LAL", "lakers": "LAL", "lal": "LAL",
	"memphis grizzlies": "MEM", "grizzlies": "MEM", "mem": "MEM",
	"miami heat": "MIA", "heat": "MIA", "mia": "MIA",
	"milwaukee bucks": "MIL", "bucks": "MIL", "mil": "MIL",
	"minnesota timberwolves": "MIN", "timberwolves": "MIN", "wolves": "MIN", "min": "MIN",
	"new orleans pelicans": "NOP", "pelicans": "NOP", "nop": "NOP", "no": "NOP",
	"new york knicks": "NYK", "ny knicks": "NYK", "knicks": "NYK", "nyk": "NYK", "ny": "NYK",
	"oklahoma city thunder": "OKC", "thunder": "OKC", "okc": "OKC",
	"orlando magic": "ORL", "magic": "ORL", "orl": "ORL",
	"philadelphia 76ers": "PHI", "76ers": "PHI", "sixers": "PHI", "phi": "PHI",
	"phoenix suns": "PHX", "suns": "PHX", "phx": "PHX",
	"portland trail blazers": "POR", "trail blazers": "POR", "blazers": "POR", "por": "POR",
	"sacramento kings": "SAC", "kings": "SAC", "sac": "SAC",
	"san antonio spurs": "SAS", "sa spurs": "SAS", "spurs": "SAS", "sas": "SAS", "sa": "SAS",
	"toronto raptors": "TOR", "raptors": "TOR", "tor": "TOR",
	"utah jazz": "UTA", "jazz": "UTA", "uta": "UTA", "utah": "UTA",
	"washington wizards": "WAS", "wizards": "WAS", "was": "WAS", "wsh": "WAS",
}

// TeamCode resolves a team name or abbreviation to its canonical code.
// Unknown teams return the upper-cased input so exact matches still work.
func TeamCode(s string) string {
	if code, ok := teamAliases[Name(s)]; ok {
		return code
	}
	return strings.ToUpper(strings.TrimSpace(s))
}

// SameTeam reports whether two team identifiers resolve to the same code
func SameTeam(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return TeamCode(a) == TeamCode(b)
}

// SameDay reports whether two instants fall on the same calendar day in
// the reference timezone
func SameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}
