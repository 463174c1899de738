// package genre defines the canonical genre enumeration and the lookup tables
// built around it: free-text canonicalization, coarse name normalization for
// playlist matching, the stylistic-similarity adjacency table and playlist
// name suggestions.
//
// All tables are plain values injected into the components that consume them,
// so deployments can swap them and tests can use fixtures.
package genre

import "strings"

// Genre is one label from the closed genre enumeration.
type Genre string

const (
	House        Genre = "House"
	DeepHouse    Genre = "Deep House"
	Techno       Genre = "Techno"
	Trance       Genre = "Trance"
	Dubstep      Genre = "Dubstep"
	DrumAndBass  Genre = "Drum & Bass"
	Breakbeat    Genre = "Breakbeat"
	Ambient      Genre = "Ambient"
	Downtempo    Genre = "Downtempo"
	Progressive  Genre = "Progressive"
	FutureBass   Genre = "Future Bass"
	Trap         Genre = "Trap"
	HipHop       Genre = "Hip Hop"
	Industrial   Genre = "Industrial"
	Chillout     Genre = "Chillout"
	Electronic   Genre = "Electronic"
	Experimental Genre = "Experimental"
	Unknown      Genre = "Unknown"
)

func (g Genre) String() string {
	return string(g)
}

// All lists every canonical genre except Unknown.
func All() []Genre {
	return []Genre{
		House, DeepHouse, Techno, Trance, Dubstep, DrumAndBass, Breakbeat,
		Ambient, Downtempo, Progressive, FutureBass, Trap, HipHop,
		Industrial, Chillout, Electronic, Experimental,
	}
}

// Table maps free-text genre strings onto the closed enumeration.
//
// The mapping is total: strings with no entry resolve to Unknown, and callers
// must exclude Unknown from any voting or matching.
type Table struct {
	entries map[string]Genre
}

// NewTable builds a Table from the given entries. Keys are lowercased.
func NewTable(entries map[string]Genre) Table {
	normalized := make(map[string]Genre, len(entries))
	for k, v := range entries {
		normalized[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return Table{entries: normalized}
}

// DefaultTable returns the canonical free-text mapping.
func DefaultTable() Table {
	return NewTable(map[string]Genre{
		"house":             House,
		"deep house":        DeepHouse,
		"progressive house": Progressive,
		"tech house":        House,
		"techno":            Techno,
		"trance":            Trance,
		"progressive trance": Trance,
		"psytrance":         Trance,
		"dubstep":           Dubstep,
		"drum and bass":     DrumAndBass,
		"drum & bass":       DrumAndBass,
		"dnb":               DrumAndBass,
		"d&b":               DrumAndBass,
		"breakbeat":         Breakbeat,
		"breaks":            Breakbeat,
		"ambient":           Ambient,
		"downtempo":         Downtempo,
		"chillout":          Chillout,
		"chill out":         Chillout,
		"future bass":       FutureBass,
		"trap":              Trap,
		"hip hop":           HipHop,
		"hip-hop":           HipHop,
		"rap":               HipHop,
		"industrial":        Industrial,
		"electronic":        Electronic,
		"electronica":       Electronic,
		"edm":               Electronic,
		"experimental":      Experimental,
	})
}

// Canonical resolves a free-text genre string to a canonical Genre,
// falling back to Unknown. Lookup is case-insensitive.
func (t Table) Canonical(s string) Genre {
	if g, ok := t.entries[strings.ToLower(strings.TrimSpace(s))]; ok {
		return g
	}
	return Unknown
}

// Similarity is a one-directional adjacency table between genres.
//
// Neighbors represent genuine stylistic proximity; symmetry is neither
// guaranteed nor required since lookups only ever radiate outward from a
// predicted genre.
type Similarity map[Genre][]Genre

// DefaultSimilarity returns the default adjacency table.
func DefaultSimilarity() Similarity {
	return Similarity{
		House:        {DeepHouse, Progressive, Techno},
		DeepHouse:    {House, Ambient, Downtempo},
		Techno:       {House, Industrial, Experimental},
		Trance:       {Progressive, Ambient, Electronic},
		Dubstep:      {DrumAndBass, Trap, FutureBass},
		DrumAndBass:  {Dubstep, Breakbeat, Techno},
		Breakbeat:    {DrumAndBass, Techno, Experimental},
		Ambient:      {Downtempo, DeepHouse, Experimental},
		Downtempo:    {Ambient, DeepHouse, Chillout},
		Progressive:  {Trance, House, Electronic},
		FutureBass:   {Dubstep, Trap, Electronic},
		Trap:         {HipHop, Dubstep, FutureBass},
		Electronic:   {Techno, Trance, Progressive},
		Experimental: {Ambient, Techno, Breakbeat},
	}
}

// Neighbors returns the genres adjacent to g, or nil if g has no entry.
func (s Similarity) Neighbors(g Genre) []Genre {
	return s[g]
}

// synonyms collapses known spelling variants for playlist-name comparison.
// This canonicalization is deliberately coarser than the main enumeration: it
// only exists to make substring and equality matching against playlist names
// forgiving, and must not be used for anything else.
var synonyms = map[string]string{
	"drum and bass":      "drum & bass",
	"dnb":                "drum & bass",
	"d&b":                "drum & bass",
	"progressive house":  "progressive",
	"progressive trance": "progressive",
	"deep house":         "house",
	"future bass":        "bass",
	"trap":               "hip hop",
}

// NormalizeName lowercases a genre name and collapses known synonyms.
func NormalizeName(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := synonyms[normalized]; ok {
		return canonical
	}
	return normalized
}

// Suggestions maps genres to common playlist names, used as a presentation
// aid when reporting analysis results.
type Suggestions map[Genre][]string

// DefaultSuggestions returns the default genre to playlist-name table.
func DefaultSuggestions() Suggestions {
	return Suggestions{
		House:        {"House Music", "Deep House", "House Classics"},
		DeepHouse:    {"Deep House", "House Music", "Chill House"},
		Techno:       {"Techno", "Dark Techno", "Industrial Techno"},
		Trance:       {"Trance", "Progressive Trance", "Uplifting Trance"},
		Dubstep:      {"Dubstep", "Bass Music", "Electronic"},
		DrumAndBass:  {"Drum & Bass", "DnB", "Liquid DnB"},
		Breakbeat:    {"Breakbeat", "Big Beat", "Breaks"},
		Ambient:      {"Ambient", "Chillout", "Relaxing"},
		Downtempo:    {"Downtempo", "Chill", "Lounge"},
		Progressive:  {"Progressive", "Progressive House", "Progressive Trance"},
		FutureBass:   {"Future Bass", "Bass Music", "Electronic"},
		Trap:         {"Trap", "Hip Hop", "Bass Music"},
		Electronic:   {"Electronic", "EDM", "Electronic Music"},
		Experimental: {"Experimental", "Avant-garde", "Abstract"},
	}
}

// For returns the suggested playlist names for a genre, with a generic
// fallback for genres without an entry.
func (s Suggestions) For(g Genre) []string {
	if names, ok := s[g]; ok {
		return names
	}
	return []string{"Electronic", "Music"}
}

// SubGenres maps broad genres to sub-genre playlist names, used when
// proposing new playlists for a collection.
type SubGenres map[Genre][]string

// DefaultSubGenres returns the default sub-genre playlist-name table.
func DefaultSubGenres() SubGenres {
	return SubGenres{
		House:       {"Deep House", "Progressive House", "Tech House"},
		Techno:      {"Dark Techno", "Industrial Techno", "Minimal Techno"},
		Trance:      {"Uplifting Trance", "Progressive Trance", "Psy Trance"},
		Dubstep:     {"Brostep", "Chillstep", "Future Bass"},
		DrumAndBass: {"Liquid DnB", "Neurofunk", "Jump Up"},
	}
}
