package domain

// NovelStatus is the publication state of a novel. Transitions are caller-driven
// in either direction.
type NovelStatus string

const (
	// StatusOngoing marks a novel that is still receiving chapters.
	StatusOngoing NovelStatus = "ONGOING"
	// StatusCompleted marks a finished novel.
	StatusCompleted NovelStatus = "COMPLETED"
)

// Valid reports whether s is a known status.
func (s NovelStatus) Valid() bool {
	switch s {
	case StatusOngoing, StatusCompleted:
		return true
	}
	return false
}

// Genre is the single primary genre of a novel.
type Genre string

// Known genres.
const (
	GenreContemporaryRomance Genre = "CONTEMPORARY_ROMANCE"
	GenreFantasy             Genre = "FANTASY"
	GenreFantasyRomance      Genre = "FANTASY_ROMANCE"
	GenreMagicalRealism      Genre = "MAGICAL_REALISM"
	GenreSciFi               Genre = "SCI_FI"
	GenreXianxia             Genre = "XIANXIA"
)

// Genres lists every known genre in declaration order.
var Genres = []Genre{
	GenreContemporaryRomance,
	GenreFantasy,
	GenreFantasyRomance,
	GenreMagicalRealism,
	GenreSciFi,
	GenreXianxia,
}

// Valid reports whether g is a known genre.
func (g Genre) Valid() bool {
	switch g {
	case GenreContemporaryRomance, GenreFantasy, GenreFantasyRomance,
		GenreMagicalRealism, GenreSciFi, GenreXianxia:
		return true
	}
	return false
}
