// Package savefile reads Barony save documents and derives the metadata the
// retention store keys on.
//
// Parse(data) accepts any JSON object; no schema is enforced. Describe(doc)
// maps the fields the game writes (game_name, lobbykey/gamekey, players[0]
// race/class/stats, dungeon_lvl, level_track, timestamp) to an Info whose
// Filename() is the backup name:
//
//	{game}-{key}-{race}-{class}-lvl{level}-floor{dungeon}-{track}-{timestamp}.baronysave
//
// Missing or out-of-range values fall back to a placeholder ("unknown", "0"
// or empty) instead of failing. All functions are pure.
package savefile
