// Package resource provides identifiers common to all resources.
package resource

import (
	"database/sql/driver"
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
)

const (
	// base58 alphabet
	base58 = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"
	// length of id part of ID
	idLength = 16
)

// Resource kinds
const (
	SiteKind    Kind = "site"
	TenantKind  Kind = "tnt"
	ProfileKind Kind = "prof"
)

var (
	// SiteID identifies the site itself, the top of the resource hierarchy,
	// for use in authorization requests for site-level actions.
	SiteID = ID{Kind: SiteKind}

	// regex for the random id part of an ID
	idRegex = regexp.MustCompile(`^[` + base58 + `]{` + strconv.Itoa(idLength) + `}$`)
)

type (
	// Kind distinguishes resource types from one another.
	Kind string

	// ID uniquely identifies a stitch resource, rendered as
	// <kind>-<16 base58 chars>.
	ID struct {
		Kind Kind
		id   string
	}
)

// NewID constructs a resource ID with a randomly generated unique suffix.
func NewID(kind Kind) ID {
	return ID{Kind: kind, id: generateRandomString(idLength, base58)}
}

// ParseID parses an ID from its string representation.
func ParseID(s string) (ID, error) {
	if s == string(SiteKind) {
		return SiteID, nil
	}
	kind, id, found := strings.Cut(s, "-")
	if !found || kind == "" || !idRegex.MatchString(id) {
		return ID{}, fmt.Errorf("malformed ID: %s", s)
	}
	return ID{Kind: Kind(kind), id: id}, nil
}

func (id ID) String() string {
	if id.Kind == SiteKind {
		return string(SiteKind)
	}
	return fmt.Sprintf("%s-%s", id.Kind, id.id)
}

// IsZero determines whether the ID is uninitialized.
func (id ID) IsZero() bool { return id == ID{} }

func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := ParseID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Value implements driver.Valuer, persisting the ID as its string
// representation.
func (id ID) Value() (driver.Value, error) {
	return id.String(), nil
}

// Scan implements sql.Scanner.
func (id *ID) Scan(v any) error {
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("expected database value to be a string: %#v", v)
	}
	parsed, err := ParseID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// generateRandomString generates a random string of a given size using
// characters from the given alphabet.
func generateRandomString(size int, alphabet string) string {
	buf := make([]byte, size)
	for i := 0; i < size; i++ {
		buf[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return string(buf)
}
