package detection

// GenericVocabulary is the built-in list of narrative-outcome terms. Each entry
// that appears in a text counts once, whether or not a context term is present.
var GenericVocabulary = []string{
	// death
	"dies", "died", "death", "dead", "killed", "kills", "murdered",
	// endings
	"ending", "finale", "final episode",
	// reveals
	"spoiler", "revealed", "plot twist", "turns out",
	// betrayal
	"betrays", "betrayed", "betrayal",
	// survival
	"survives", "survivor",
	// marriage
	"marries", "married", "wedding",
	// pregnancy
	"pregnant",
}

// ActionVerbs are the outcome verbs recognised by the subject + verb pattern.
var ActionVerbs = []string{
	"dies", "kills", "murders", "assassinates", "shoots", "stabs",
	"betrays", "survives", "marries",
}
