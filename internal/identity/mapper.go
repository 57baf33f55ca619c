package identity

import (
	"strings"

	crerr "github.com/cockroachdb/errors"
)

const DefaultOffset int64 = 1_000_000

var ErrIDOutOfRange = crerr.New("provider id outside its identity range")

// Mapper translates provider-native IDs into the local ID space. Primary IDs
// pass through; secondary IDs are shifted by the offset unless an alias says
// the entity already exists under a primary ID.
type Mapper struct {
	offset      int64
	aliases     []Alias
	byPrimary   map[int64]Alias
	bySecondary map[int64]Alias
	byCode      map[string]Alias
}

func NewMapper(offset int64, aliases []Alias) (*Mapper, error) {
	if offset <= 0 {
		return nil, crerr.Newf("identity offset must be > 0, got %d", offset)
	}

	m := &Mapper{
		offset:      offset,
		byPrimary:   make(map[int64]Alias, len(aliases)),
		bySecondary: make(map[int64]Alias, len(aliases)),
		byCode:      make(map[string]Alias, len(aliases)),
	}
	for _, a := range aliases {
		if a.PrimaryID <= 0 || a.PrimaryID >= offset {
			return nil, crerr.Wrapf(ErrIDOutOfRange, "alias %s primary id %d", a.Code, a.PrimaryID)
		}
		if _, dup := m.byPrimary[a.PrimaryID]; dup {
			return nil, crerr.Newf("duplicate alias for primary id %d", a.PrimaryID)
		}
		if _, dup := m.bySecondary[a.SecondaryID]; dup {
			return nil, crerr.Newf("duplicate alias for secondary id %d", a.SecondaryID)
		}
		m.byPrimary[a.PrimaryID] = a
		m.bySecondary[a.SecondaryID] = a
		if code := strings.ToUpper(a.Code); code != "" {
			m.byCode[code] = a
		}
		m.aliases = append(m.aliases, a)
	}
	return m, nil
}

func (m *Mapper) Offset() int64 {
	return m.offset
}

// Primary validates a primary-provider ID, which is used unchanged.
func (m *Mapper) Primary(native int64) (int64, error) {
	if native <= 0 || native >= m.offset {
		return 0, crerr.Wrapf(ErrIDOutOfRange, "primary id %d", native)
	}
	return native, nil
}

// Secondary shifts a secondary-provider ID into its disjoint range.
func (m *Mapper) Secondary(native int64) (int64, error) {
	if native <= 0 {
		return 0, crerr.Wrapf(ErrIDOutOfRange, "secondary id %d", native)
	}
	return native + m.offset, nil
}

// Competition resolves a secondary-provider league ID. When the league is
// aliased the primary competition ID is returned with aliased=true.
func (m *Mapper) Competition(secondaryNative int64) (id int64, aliased bool, err error) {
	if a, ok := m.bySecondary[secondaryNative]; ok {
		return a.PrimaryID, true, nil
	}
	id, err = m.Secondary(secondaryNative)
	return id, false, err
}

// IsSecondary reports whether a local ID lies in the secondary range.
func (m *Mapper) IsSecondary(local int64) bool {
	return local > m.offset
}

// NativeSecondary reverses Secondary.
func (m *Mapper) NativeSecondary(local int64) (int64, bool) {
	if !m.IsSecondary(local) {
		return 0, false
	}
	return local - m.offset, true
}

func (m *Mapper) AliasForPrimary(id int64) (Alias, bool) {
	a, ok := m.byPrimary[id]
	return a, ok
}

func (m *Mapper) AliasForSecondary(native int64) (Alias, bool) {
	a, ok := m.bySecondary[native]
	return a, ok
}

func (m *Mapper) AliasForCode(code string) (Alias, bool) {
	a, ok := m.byCode[strings.ToUpper(strings.TrimSpace(code))]
	return a, ok
}

func (m *Mapper) Aliases() []Alias {
	return append([]Alias(nil), m.aliases...)
}
