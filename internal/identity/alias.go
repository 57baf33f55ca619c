package identity

import (
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	crerr "github.com/cockroachdb/errors"
)

// Alias links a primary-provider competition to the secondary provider's
// native league ID for the same real-world competition.
type Alias struct {
	PrimaryID   int64  `toml:"primary_id"`
	Code        string `toml:"code"`
	SecondaryID int64  `toml:"secondary_id"`
	Name        string `toml:"name"`
	Country     string `toml:"country"`
}

type aliasFile struct {
	Aliases []Alias `toml:"alias"`
}

// DefaultAliases covers the primary provider's free-tier competitions.
func DefaultAliases() []Alias {
	return []Alias{
		{PrimaryID: 2021, Code: "PL", SecondaryID: 39, Name: "Premier League", Country: "England"},
		{PrimaryID: 2016, Code: "ELC", SecondaryID: 40, Name: "Championship", Country: "England"},
		{PrimaryID: 2014, Code: "PD", SecondaryID: 140, Name: "La Liga", Country: "Spain"},
		{PrimaryID: 2019, Code: "SA", SecondaryID: 135, Name: "Serie A", Country: "Italy"},
		{PrimaryID: 2002, Code: "BL1", SecondaryID: 78, Name: "Bundesliga", Country: "Germany"},
		{PrimaryID: 2015, Code: "FL1", SecondaryID: 61, Name: "Ligue 1", Country: "France"},
		{PrimaryID: 2003, Code: "DED", SecondaryID: 88, Name: "Eredivisie", Country: "Netherlands"},
		{PrimaryID: 2017, Code: "PPL", SecondaryID: 94, Name: "Primeira Liga", Country: "Portugal"},
		{PrimaryID: 2013, Code: "BSA", SecondaryID: 71, Name: "Serie A", Country: "Brazil"},
		{PrimaryID: 2001, Code: "CL", SecondaryID: 2, Name: "UEFA Champions League", Country: "World"},
		{PrimaryID: 2018, Code: "EC", SecondaryID: 4, Name: "Euro Championship", Country: "World"},
		{PrimaryID: 2000, Code: "WC", SecondaryID: 1, Name: "World Cup", Country: "World"},
		{PrimaryID: 2152, Code: "CLI", SecondaryID: 13, Name: "CONMEBOL Libertadores", Country: "World"},
	}
}

// LoadAliasFile reads [[alias]] tables from a TOML file.
func LoadAliasFile(path string) ([]Alias, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, crerr.Wrapf(err, "read alias file %s", path)
	}

	var file aliasFile
	meta, err := toml.Decode(string(raw), &file)
	if err != nil {
		return nil, crerr.Wrapf(err, "decode alias file %s", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, crerr.Newf("alias file %s has unknown keys: %v", path, undecoded)
	}
	for i, a := range file.Aliases {
		if a.PrimaryID <= 0 || a.SecondaryID <= 0 {
			return nil, crerr.Newf("alias file %s entry %d: primary_id and secondary_id must be > 0", path, i)
		}
		file.Aliases[i].Code = strings.ToUpper(strings.TrimSpace(a.Code))
	}
	return file.Aliases, nil
}

// MergeAliases applies overrides on top of base. An override replaces any base
// entry that shares its primary ID, code, or secondary ID.
func MergeAliases(base, overrides []Alias) []Alias {
	out := make([]Alias, 0, len(base)+len(overrides))
	for _, b := range base {
		replaced := false
		for _, o := range overrides {
			if o.PrimaryID == b.PrimaryID || o.SecondaryID == b.SecondaryID || (o.Code != "" && strings.EqualFold(o.Code, b.Code)) {
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, b)
		}
	}
	return append(out, overrides...)
}
