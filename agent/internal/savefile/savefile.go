package savefile

import (
	"errors"
	"fmt"
	"os"

	"github.com/tidwall/gjson"
)

// Extension is the file extension of Barony save games.
const Extension = ".baronysave"

// ErrMalformed is returned when a save file is not a JSON object.
var ErrMalformed = errors.New("savefile: malformed save document")

// SessionKey identifies one lobby. It is stable across every save written
// during that session. The empty string is a valid key.
type SessionKey string

// Token returns the delimited form of the key embedded in backup filenames.
func (k SessionKey) Token() string {
	return "-" + sanitize(string(k)) + "-"
}

// Document is a parsed save file. The zero value behaves like an empty object.
type Document struct {
	root gjson.Result
}

// Parse decodes a save document. Anything but a JSON object is ErrMalformed.
func Parse(data []byte) (Document, error) {
	if !gjson.ValidBytes(data) {
		return Document{}, fmt.Errorf("%w: invalid json", ErrMalformed)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return Document{}, fmt.Errorf("%w: top level is %s, want object", ErrMalformed, root.Type)
	}
	return Document{root: root}, nil
}

// ReadFile reads and parses the save document at path.
func ReadFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("savefile: read %s: %w", path, err)
	}
	return Parse(data)
}

// SessionKey returns the lobby key, falling back to the game key. A null
// lobbykey counts as absent, so a save with "lobbykey": null and a gamekey
// is keyed by the gamekey. ok is false when neither field is present (or
// both are null).
func (d Document) SessionKey() (key SessionKey, ok bool) {
	for _, field := range []string{"lobbykey", "gamekey"} {
		if v := d.root.Get(field); present(v) {
			return SessionKey(scalar(v)), true
		}
	}
	return "", false
}

// present reports whether v exists and is not JSON null.
func present(v gjson.Result) bool {
	return v.Exists() && v.Type != gjson.Null
}

// scalar renders v the way it appears in the document. Numbers keep their
// literal form so 42 stays "42" and 1.50 stays "1.50".
func scalar(v gjson.Result) string {
	if v.Type == gjson.Number {
		return v.Raw
	}
	return v.String()
}
