package domain

import "strings"

// Mode is the work arrangement of a single weekday.
type Mode string

const (
	ModeOffice   Mode = "OFFICE"
	ModeHomeAM   Mode = "HOME_AM" // home in the morning, office in the afternoon
	ModeHomePM   Mode = "HOME_PM" // office in the morning, home in the afternoon
	ModeHomeFull Mode = "HOME_FULL"
	ModeOff      Mode = "OFF"
	ModeOpen     Mode = "OPEN"
)

// DaysPerWeek is the number of planned weekdays (Mon-Fri).
const DaysPerWeek = 5

// WeekBlocks holds one mode per weekday, Monday first.
type WeekBlocks [DaysPerWeek]Mode

var modeAliases = map[string]Mode{
	"OFFICE":    ModeOffice,
	"HOME_AM":   ModeHomeAM,
	"HOME_PM":   ModeHomePM,
	"HOME_FULL": ModeHomeFull,
	"OFF":       ModeOff,
	"OPEN":      ModeOpen,
	"":          ModeOpen,
	"HO":        ModeHomeFull,
	"HO-AM":     ModeHomeAM,
	"HO-PM":     ModeHomePM,
}

// ParseMode maps a case-insensitive block token to a Mode.
func ParseMode(token string) (Mode, error) {
	m, ok := modeAliases[strings.ToUpper(strings.TrimSpace(token))]
	if !ok {
		return "", ConfigErrorf("unknown week block %q", token)
	}
	return m, nil
}

// HomeHours is the number of home-office hours the mode allocates.
func (m Mode) HomeHours() int {
	switch m {
	case ModeHomeFull:
		return 8
	case ModeHomeAM, ModeHomePM:
		return 4
	default:
		return 0
	}
}

// ParseBlocks parses comma-separated tokens (Mon..Fri). Missing days are padded
// with OPEN and tokens past Friday are ignored.
func ParseBlocks(input string) (WeekBlocks, error) {
	var blocks WeekBlocks
	for i := range blocks {
		blocks[i] = ModeOpen
	}

	if strings.TrimSpace(input) == "" {
		return blocks, nil
	}

	for i, tok := range strings.Split(input, ",") {
		if i >= DaysPerWeek {
			break
		}
		m, err := ParseMode(tok)
		if err != nil {
			return WeekBlocks{}, err
		}
		blocks[i] = m
	}

	return blocks, nil
}

func (b WeekBlocks) String() string {
	parts := make([]string, len(b))
	for i, m := range b {
		parts[i] = string(m)
	}
	return strings.Join(parts, ",")
}

// HomeHours sums the home-office hours allocated across the week.
func (b WeekBlocks) HomeHours() int {
	total := 0
	for _, m := range b {
		total += m.HomeHours()
	}
	return total
}

var slotDays = [DaysPerWeek]string{"MO", "TU", "WE", "TH", "FR"}

func normalizeSlot(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "office", "o", "work":
		return "office"
	case "home", "h", "ho":
		return "home"
	case "off", "x", "none":
		return "off"
	}
	return ""
}

// BlocksFromSlots builds week blocks from half-day slot keys (MO_AM, MO_PM, ... FR_PM)
// valued office|home|off. The boolean is false when no slot key is set.
func BlocksFromSlots(lookup func(key string) string) (WeekBlocks, bool) {
	var blocks WeekBlocks
	found := false

	for i, d := range slotDays {
		am := normalizeSlot(lookup(d + "_AM"))
		pm := normalizeSlot(lookup(d + "_PM"))
		if am != "" || pm != "" {
			found = true
		}

		switch {
		case am == "off" && pm != "office", pm == "off" && am != "office":
			blocks[i] = ModeOff
		case am == "office" && pm == "office":
			blocks[i] = ModeOffice
		case am == "office":
			blocks[i] = ModeHomePM
		case pm == "office":
			blocks[i] = ModeHomeAM
		// an unset half next to a home half is an office half
		case am == "home" && pm == "":
			blocks[i] = ModeHomeAM
		case pm == "home" && am == "":
			blocks[i] = ModeHomePM
		default:
			blocks[i] = ModeHomeFull
		}
	}

	return blocks, found
}
