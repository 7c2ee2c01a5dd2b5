package lookup

// CanonicalMoods is the mood vocabulary tracks are tagged with when
// resolution goes through online services.
var CanonicalMoods = []string{
	"happy", "sad", "aggressive", "relaxed", "acoustic", "electronic", "party",
}

// tagToMood maps lowercased freeform tags onto the canonical moods.
// Genre-shaped tags count too: a track tagged "death metal" is a safe
// bet for aggressive even without explicit mood tags.
var tagToMood = map[string]string{
	// happy
	"happy":      "happy",
	"uplifting":  "happy",
	"feel good":  "happy",
	"feel-good":  "happy",
	"joyful":     "happy",
	"cheerful":   "happy",
	"upbeat":     "happy",
	"fun":        "happy",
	"sunny":      "happy",
	"positive":   "happy",
	"euphoric":   "happy",
	"euphoria":   "happy",
	"optimistic": "happy",
	"feelgood":   "happy",
	"summer":     "happy",

	// sad
	"sad":         "sad",
	"melancholy":  "sad",
	"melancholic": "sad",
	"depressing":  "sad",
	"heartbreak":  "sad",
	"heartbroken": "sad",
	"lonely":      "sad",
	"loneliness":  "sad",
	"somber":      "sad",
	"sombre":      "sad",
	"mournful":    "sad",
	"grief":       "sad",
	"tearful":     "sad",
	"gloomy":      "sad",
	"wistful":     "sad",
	"bittersweet": "sad",

	// aggressive
	"aggressive":  "aggressive",
	"anger":       "aggressive",
	"angry":       "aggressive",
	"intense":     "aggressive",
	"heavy":       "aggressive",
	"hard":        "aggressive",
	"brutal":      "aggressive",
	"rage":        "aggressive",
	"violent":     "aggressive",
	"fierce":      "aggressive",
	"dark":        "aggressive",
	"metal":       "aggressive",
	"hardcore":    "aggressive",
	"thrash":      "aggressive",
	"death metal": "aggressive",
	"black metal": "aggressive",
	"grindcore":   "aggressive",
	"hard rock":   "aggressive",
	"punk":        "aggressive",

	// relaxed
	"relaxed":        "relaxed",
	"chill":          "relaxed",
	"calm":           "relaxed",
	"mellow":         "relaxed",
	"ambient":        "relaxed",
	"downtempo":      "relaxed",
	"easy listening": "relaxed",
	"lounge":         "relaxed",
	"smooth":         "relaxed",
	"peaceful":       "relaxed",
	"soothing":       "relaxed",
	"dreamy":         "relaxed",
	"atmospheric":    "relaxed",
	"meditative":     "relaxed",
	"chillout":       "relaxed",
	"new age":        "relaxed",
	"trip-hop":       "relaxed",

	// acoustic
	"acoustic":          "acoustic",
	"folk":              "acoustic",
	"singer-songwriter": "acoustic",
	"unplugged":         "acoustic",
	"singer songwriter": "acoustic",
	"bluegrass":         "acoustic",
	"country":           "acoustic",
	"blues":             "acoustic",
	"jazz":              "acoustic",
	"bossa nova":        "acoustic",
	"classical":         "acoustic",
	"piano":             "acoustic",
	"guitar":            "acoustic",

	// electronic
	"electronic":        "electronic",
	"edm":               "electronic",
	"techno":            "electronic",
	"house":             "electronic",
	"trance":            "electronic",
	"drum and bass":     "electronic",
	"dubstep":           "electronic",
	"synthwave":         "electronic",
	"electronica":       "electronic",
	"synth":             "electronic",
	"synth-pop":         "electronic",
	"synthpop":          "electronic",
	"industrial":        "electronic",
	"idm":               "electronic",
	"deep house":        "electronic",
	"progressive house": "electronic",
	"electro":           "electronic",
	"minimal":           "electronic",

	// party
	"party":      "party",
	"dance":      "party",
	"danceable":  "party",
	"club":       "party",
	"dancefloor": "party",
	"groovy":     "party",
	"disco":      "party",
	"pop":        "party",
	"reggaeton":  "party",
	"latin":      "party",
	"tropical":   "party",
	"hip-hop":    "party",
	"hip hop":    "party",
	"rap":        "party",
	"r&b":        "party",
	"rnb":        "party",
	"funk":       "party",
	"soul":       "party",
}
