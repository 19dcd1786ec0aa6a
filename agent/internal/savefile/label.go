package savefile

import (
	"math"
	"strings"

	"github.com/tidwall/gjson"
)

const unknown = "unknown"

// classes is indexed by the char_class code the game writes.
var classes = []string{
	"barbarian", "warrior", "healer", "rogue", "wanderer",
	"cleric", "merchant", "wizard", "arcanist", "joker",
	"sexton", "ninja", "monk", "conjurer", "accursed",
	"mesmer", "brewer", "mechanist", "punisher", "shaman",
	"hunter",
}

// races is indexed by the race code the game writes.
var races = []string{
	"human", "skeleton", "vampire", "succubus", "goatman",
	"automaton", "incubus", "goblin", "insectoid",
}

// Info is the human-readable metadata of one save.
type Info struct {
	GameName   string     `json:"game_name"`
	SessionKey SessionKey `json:"session_key"`
	HasKey     bool       `json:"has_key"`
	Race       string     `json:"race"`
	Class      string     `json:"class"`
	Level      string     `json:"level"`
	Floor      string     `json:"floor"`
	LevelTrack string     `json:"level_track"`
	Timestamp  string     `json:"timestamp"`
}

// Describe extracts Info from doc. It never fails: absent fields get their
// placeholder values.
func Describe(doc Document) Info {
	player := doc.root.Get("players.0")

	info := Info{
		GameName:   stringOr(doc.root.Get("game_name"), unknown),
		Race:       lookup(races, player.Get("race")),
		Class:      lookup(classes, player.Get("char_class")),
		Level:      stringOr(player.Get("stats.LVL"), "0"),
		Floor:      stringOr(doc.root.Get("dungeon_lvl"), "0"),
		LevelTrack: stringOr(doc.root.Get("level_track"), "0"),
		Timestamp:  stringOr(doc.root.Get("timestamp"), ""),
	}
	info.SessionKey, info.HasKey = doc.SessionKey()
	return info
}

// Label returns the backup name without extension.
func (i Info) Label() string {
	key := string(i.SessionKey)
	if !i.HasKey {
		key = "0"
	}
	parts := []string{
		sanitize(strings.ReplaceAll(i.GameName, " ", "-")),
		sanitize(key),
		sanitize(i.Race),
		sanitize(i.Class),
		"lvl" + sanitize(i.Level),
		"floor" + sanitize(i.Floor),
		sanitize(i.LevelTrack),
		sanitize(strings.ReplaceAll(i.Timestamp, " ", "_")),
	}
	return strings.Join(parts, "-")
}

// Filename returns the backup filename for the save.
func (i Info) Filename() string {
	return i.Label() + Extension
}

// Label is shorthand for Describe(doc).Label().
func Label(doc Document) string {
	return Describe(doc).Label()
}

func stringOr(v gjson.Result, fallback string) string {
	if !present(v) {
		return fallback
	}
	return scalar(v)
}

// lookup maps an integral code to its name. Anything else is "unknown".
func lookup(table []string, v gjson.Result) string {
	if v.Type != gjson.Number || v.Num != math.Trunc(v.Num) {
		return unknown
	}
	if v.Num < 0 || v.Num >= float64(len(table)) {
		return unknown
	}
	return table[int(v.Num)]
}

// sanitize replaces characters that are not allowed in filenames on Windows,
// where the game usually runs. Spaces are handled per field by Label.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || strings.ContainsRune(`<>:"/\|?*`, r) {
			return '-'
		}
		return r
	}, s)
}
