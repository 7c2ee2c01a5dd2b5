package lookup

import "strings"

// tagToGenre maps lowercased freeform tags onto canonical DJ genre
// names. Variants and subgenres collapse into the name a crate browser
// would actually filter by.
var tagToGenre = map[string]string{
	// House family
	"house":             "House",
	"house music":       "House",
	"deep house":        "Deep House",
	"deep-house":        "Deep House",
	"tech house":        "Tech House",
	"tech-house":        "Tech House",
	"progressive house": "Progressive House",
	"prog house":        "Progressive House",
	"afro house":        "Afro House",
	"afro-house":        "Afro House",
	"melodic house":     "Melodic House",
	"organic house":     "Organic House",
	"acid house":        "Acid House",
	"funky house":       "Funky House",
	"soulful house":     "Soulful House",
	"chicago house":     "House",

	// Techno family
	"techno":            "Techno",
	"minimal techno":    "Minimal Techno",
	"minimal":           "Minimal Techno",
	"hard techno":       "Hard Techno",
	"industrial techno": "Hard Techno",
	"acid techno":       "Techno",
	"detroit techno":    "Techno",
	"dub techno":        "Techno",

	// Trance family
	"trance":             "Trance",
	"progressive trance": "Progressive Trance",
	"prog trance":        "Progressive Trance",
	"psytrance":          "Psytrance",
	"psy trance":         "Psytrance",
	"psy-trance":         "Psytrance",
	"goa trance":         "Psytrance",
	"uplifting trance":   "Trance",
	"vocal trance":       "Trance",

	// Bass music
	"drum and bass": "Drum & Bass",
	"drum & bass":   "Drum & Bass",
	"drum n bass":   "Drum & Bass",
	"drum'n'bass":   "Drum & Bass",
	"dnb":           "Drum & Bass",
	"d&b":           "Drum & Bass",
	"jungle":        "Drum & Bass",
	"liquid funk":   "Drum & Bass",
	"dubstep":       "Dubstep",
	"brostep":       "Dubstep",
	"bass music":    "Bass",
	"bass":          "Bass",

	// Garage and UK styles
	"garage":       "Garage",
	"uk garage":    "UK Garage",
	"speed garage": "UK Garage",
	"2-step":       "UK Garage",
	"2 step":       "UK Garage",
	"grime":        "Grime",
	"uk funky":     "UK Garage",

	// EDM and electronic
	"edm":                      "EDM",
	"electronic dance music":   "EDM",
	"electronic":               "Electronic",
	"electronica":              "Electronic",
	"electro":                  "Electro",
	"electro house":            "Electro",
	"breakbeat":                "Breakbeat",
	"breaks":                   "Breakbeat",
	"big beat":                 "Breakbeat",
	"idm":                      "IDM",
	"intelligent dance music":  "IDM",
	"synthwave":                "Synthwave",
	"retrowave":                "Synthwave",
	"vaporwave":                "Vaporwave",
	"future bass":              "Future Bass",
	"future house":             "Future House",
	"trap":                     "Trap",
	"trap music":               "Trap",
	"hardstyle":                "Hardstyle",
	"hard dance":               "Hardstyle",
	"gabber":                   "Hardcore",
	"happy hardcore":           "Hardcore",
	"hardcore":                 "Hardcore",

	// Disco, funk, soul
	"disco":         "Disco",
	"nu-disco":      "Nu-Disco",
	"nu disco":      "Nu-Disco",
	"italo disco":   "Disco",
	"funk":          "Funk",
	"soul":          "Soul",
	"neo-soul":      "Soul",
	"neo soul":      "Soul",
	"motown":        "Soul",
	"northern soul": "Soul",

	// Hip-hop
	"hip-hop":             "Hip-Hop",
	"hip hop":             "Hip-Hop",
	"hiphop":              "Hip-Hop",
	"rap":                 "Hip-Hop",
	"hip hop/rap":         "Hip-Hop",
	"old school hip hop":  "Hip-Hop",
	"boom bap":            "Hip-Hop",
	"conscious hip hop":   "Hip-Hop",
	"gangsta rap":         "Hip-Hop",
	"underground hip hop": "Hip-Hop",

	// R&B
	"r&b":              "R&B",
	"rnb":              "R&B",
	"rhythm and blues": "R&B",
	"contemporary r&b": "R&B",

	// Pop
	"pop":       "Pop",
	"synth-pop": "Synth-Pop",
	"synthpop":  "Synth-Pop",
	"synth pop": "Synth-Pop",
	"indie pop": "Indie Pop",
	"electropop": "Pop",
	"dance-pop":  "Pop",
	"dance pop":  "Pop",
	"k-pop":      "K-Pop",
	"j-pop":      "J-Pop",

	// Rock
	"rock":             "Rock",
	"indie":            "Indie",
	"indie rock":       "Indie",
	"alternative":      "Alternative",
	"alternative rock": "Alternative",
	"alt-rock":         "Alternative",
	"post-punk":        "Post-Punk",
	"post punk":        "Post-Punk",
	"new wave":         "New Wave",
	"punk":             "Punk",
	"punk rock":        "Punk",
	"hard rock":        "Rock",
	"classic rock":     "Rock",
	"psychedelic rock": "Psychedelic",
	"psychedelic":      "Psychedelic",
	"grunge":           "Grunge",
	"shoegaze":         "Shoegaze",
	"dream pop":        "Dream Pop",
	"emo":              "Emo",

	// Metal
	"metal":             "Metal",
	"heavy metal":       "Metal",
	"death metal":       "Metal",
	"black metal":       "Metal",
	"thrash metal":      "Metal",
	"doom metal":        "Metal",
	"progressive metal": "Metal",
	"metalcore":         "Metal",
	"nu metal":          "Metal",
	"nu-metal":          "Metal",

	// Ambient and downtempo
	"ambient":      "Ambient",
	"dark ambient": "Ambient",
	"downtempo":    "Downtempo",
	"chillout":     "Chillout",
	"chill out":    "Chillout",
	"chill-out":    "Chillout",
	"lounge":       "Chillout",
	"trip-hop":     "Trip-Hop",
	"trip hop":     "Trip-Hop",
	"chillwave":    "Chillwave",
	"new age":      "New Age",

	// Latin and Caribbean
	"latin":      "Latin",
	"reggaeton":  "Reggaeton",
	"reggaetón":  "Reggaeton",
	"dancehall":  "Dancehall",
	"reggae":     "Reggae",
	"dub":        "Dub",
	"ska":        "Ska",
	"salsa":      "Latin",
	"bachata":    "Latin",
	"cumbia":     "Latin",
	"bossa nova": "Bossa Nova",
	"samba":      "Latin",
	"afrobeats":  "Afrobeats",
	"afrobeat":   "Afrobeats",

	// Jazz
	"jazz":        "Jazz",
	"acid jazz":   "Jazz",
	"jazz fusion": "Jazz",
	"smooth jazz": "Jazz",
	"nu jazz":     "Jazz",

	// Blues
	"blues":       "Blues",
	"blues rock":  "Blues",
	"delta blues": "Blues",

	// Country and folk
	"country":           "Country",
	"folk":              "Folk",
	"bluegrass":         "Country",
	"americana":         "Country",
	"singer-songwriter": "Singer-Songwriter",
	"singer songwriter": "Singer-Songwriter",

	// Classical and scores
	"classical":       "Classical",
	"classical music": "Classical",
	"orchestral":      "Classical",
	"opera":           "Classical",
	"soundtrack":      "Soundtrack",
	"film score":      "Soundtrack",
	"score":           "Soundtrack",

	// World and experimental
	"world":        "World",
	"world music":  "World",
	"experimental": "Experimental",
	"avant-garde":  "Experimental",
	"noise":        "Experimental",

	// Gospel
	"gospel":    "Gospel",
	"christian": "Gospel",
	"worship":   "Gospel",
}

// NormalizeGenre maps a freeform genre string to its canonical name.
// Unmapped values come back title-cased rather than dropped, so a niche
// genre tag still renders consistently. Empty input stays empty.
func NormalizeGenre(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return ""
	}

	if canonical, ok := tagToGenre[strings.ToLower(cleaned)]; ok {
		return canonical
	}

	return titleCase(cleaned)
}
