package board

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

//go:embed boards/*.yaml
var profileFS embed.FS

// ErrUnknownProfile is returned by Profile for a name that does not ship
// embedded.
var ErrUnknownProfile = errors.New("board: unknown profile")

// Profiles returns the names of the embedded board profiles, sorted.
func Profiles() []string {
	entries, err := fs.ReadDir(profileFS, "boards")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// Profile parses the embedded description with the given name.
func Profile(name string) (*Description, error) {
	data, err := profileFS.ReadFile("boards/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}
	return Parse(data)
}
