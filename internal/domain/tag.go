package domain

// Tag is a member of the closed tag vocabulary attached to novels.
type Tag string

// Known tags.
const (
	TagAction            Tag = "ACTION"
	TagAdult             Tag = "ADULT"
	TagAdventure         Tag = "ADVENTURE"
	TagComedy            Tag = "COMEDY"
	TagDrama             Tag = "DRAMA"
	TagEcchi             Tag = "ECCHI"
	TagFantasy           Tag = "FANTASY"
	TagFemaleProtagonist Tag = "FEMALE_PROTAGONIST"
	TagGenderBender      Tag = "GENDER_BENDER"
	TagHarem             Tag = "HAREM"
	TagHistorical        Tag = "HISTORICAL"
	TagHorror            Tag = "HORROR"
	TagJosei             Tag = "JOSEI"
	TagMaleProtagonist   Tag = "MALE_PROTAGONIST"
	TagMartialArts       Tag = "MARTIAL_ARTS"
	TagMature            Tag = "MATURE"
	TagMecha             Tag = "MECHA"
	TagMystery           Tag = "MYSTERY"
	TagPsychological     Tag = "PSYCHOLOGICAL"
	TagRomance           Tag = "ROMANCE"
	TagR18               Tag = "R_18"
	TagSchoolLife        Tag = "SCHOOL_LIFE"
	TagSciFi             Tag = "SCI_FI"
	TagSeinen            Tag = "SEINEN"
	TagShoujo            Tag = "SHOUJO"
	TagShoujoAi          Tag = "SHOUJO_AI"
	TagShounen           Tag = "SHOUNEN"
	TagShounenAi         Tag = "SHOUNEN_AI"
	TagSliceOfLife       Tag = "SLICE_OF_LIFE"
	TagSmut              Tag = "SMUT"
	TagSports            Tag = "SPORTS"
	TagSupernatural      Tag = "SUPERNATURAL"
	TagTragedy           Tag = "TRAGEDY"
	TagWuxia             Tag = "WUXIA"
	TagXianxia           Tag = "XIANXIA"
	TagXuanhuan          Tag = "XUANHUAN"
	TagYaoi              Tag = "YAOI"
	TagYuri              Tag = "YURI"
)

// Tags lists every known tag in declaration order.
var Tags = []Tag{
	TagAction, TagAdult, TagAdventure, TagComedy, TagDrama, TagEcchi, TagFantasy,
	TagFemaleProtagonist, TagGenderBender, TagHarem, TagHistorical, TagHorror, TagJosei,
	TagMaleProtagonist, TagMartialArts, TagMature, TagMecha, TagMystery, TagPsychological,
	TagRomance, TagR18, TagSchoolLife, TagSciFi, TagSeinen, TagShoujo, TagShoujoAi,
	TagShounen, TagShounenAi, TagSliceOfLife, TagSmut, TagSports, TagSupernatural,
	TagTragedy, TagWuxia, TagXianxia, TagXuanhuan, TagYaoi, TagYuri,
}

var knownTags = func() map[Tag]struct{} {
	m := make(map[Tag]struct{}, len(Tags))
	for _, t := range Tags {
		m[t] = struct{}{}
	}
	return m
}()

// Valid reports whether t is a known tag.
func (t Tag) Valid() bool {
	_, ok := knownTags[t]
	return ok
}

// HasAllTags reports whether have contains every tag in want.
// An empty want matches everything.
func HasAllTags(have, want []Tag) bool {
	if len(want) == 0 {
		return true
	}
	set := make(map[Tag]struct{}, len(have))
	for _, t := range have {
		set[t] = struct{}{}
	}
	for _, t := range want {
		if _, ok := set[t]; !ok {
			return false
		}
	}
	return true
}
