// Package models defines the client-side data model of the sync core:
// tagged identifiers, entities, pending changes and the payloads of each
// entity kind.
package models

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/daybook/internal/common"
)

type idSpace uint8

const (
	spaceNone idSpace = iota
	spaceLocal
	spaceServer
)

// ID addresses an entity either by its device-assigned local id or by its
// server-assigned id. The two spaces never compare equal, even for the same
// number.
type ID struct {
	space idSpace
	value int64
}

// Local returns an identifier in the local id space.
func Local(n int64) ID { return ID{space: spaceLocal, value: n} }

// Server returns an identifier in the server id space.
func Server(n int64) ID { return ID{space: spaceServer, value: n} }

func (id ID) IsLocal() bool  { return id.space == spaceLocal }
func (id ID) IsServer() bool { return id.space == spaceServer }
func (id ID) IsZero() bool   { return id.space == spaceNone }
func (id ID) Value() int64   { return id.value }

func (id ID) String() string {
	switch id.space {
	case spaceLocal:
		return "local:" + strconv.FormatInt(id.value, 10)
	case spaceServer:
		return "server:" + strconv.FormatInt(id.value, 10)
	default:
		return ""
	}
}

func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *ID) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*id = ID{}
		return nil
	}
	parsed, err := ParseID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseID accepts "local:<n>", "server:<n>", their one-letter forms "l:<n>" and
// "s:<n>", or a bare integer, which is read as a local id.
func ParseID(s string) (ID, error) {
	s = strings.TrimSpace(s)
	prefix, num, found := strings.Cut(s, ":")
	if !found {
		num, prefix = s, "local"
	}

	n, err := strconv.ParseInt(num, 10, 64)
	if err != nil || n <= 0 {
		return ID{}, fmt.Errorf("%w: %q", common.ErrInvalidID, s)
	}

	switch prefix {
	case "local", "l":
		return Local(n), nil
	case "server", "s":
		return Server(n), nil
	default:
		return ID{}, fmt.Errorf("%w: unknown id space %q", common.ErrInvalidID, prefix)
	}
}
