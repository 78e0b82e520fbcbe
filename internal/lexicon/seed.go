package lexicon

// categoryDefaults are used for subjects missing from subjectTable.
// Person defaults use "They" so the second verb takes the plural form.
var categoryDefaults = map[Category]Entry{
	CategoryPerson: {Verb: "smiles", Adjective: "kind", Adverb: "happily", Pronoun: "They", SecondVerb: "wave"},
	CategoryAnimal: {Verb: "moves", Adjective: "small", Adverb: "quickly", Pronoun: "It", SecondVerb: "rests"},
	CategoryPlace:  {Verb: "stands", Adjective: "quiet", Adverb: "peacefully", Pronoun: "It", SecondVerb: "waits"},
	CategoryThing:  {Verb: "works", Adjective: "shiny", Adverb: "well", Pronoun: "It", SecondVerb: "helps"},
}

var subjectTable = []Entry{
	// Animals
	{Subject: "Dog", Category: CategoryAnimal, Verb: "barks", Adjective: "loyal", Adverb: "loudly", Pronoun: "It", SecondVerb: "wags"},
	{Subject: "Cat", Category: CategoryAnimal, Verb: "purrs", Adjective: "fluffy", Adverb: "softly", Pronoun: "It", SecondVerb: "sleeps"},
	{Subject: "Bird", Category: CategoryAnimal, Verb: "sings", Adjective: "colourful", Adverb: "sweetly", Pronoun: "It", SecondVerb: "flies"},
	{Subject: "Horse", Category: CategoryAnimal, Verb: "gallops", Adjective: "strong", Adverb: "swiftly", Pronoun: "It", SecondVerb: "neighs"},
	{Subject: "Fish", Category: CategoryAnimal, Verb: "swims", Adjective: "silver", Adverb: "gracefully", Pronoun: "It", SecondVerb: "glides"},
	{Subject: "Rabbit", Category: CategoryAnimal, Verb: "hops", Adjective: "fluffy", Adverb: "quickly", Pronoun: "It", SecondVerb: "nibbles"},
	{Subject: "Lion", Category: CategoryAnimal, Verb: "roars", Adjective: "fierce", Adverb: "proudly", Pronoun: "It", SecondVerb: "prowls"},
	{Subject: "Frog", Category: CategoryAnimal, Verb: "jumps", Adjective: "green", Adverb: "happily", Pronoun: "It", SecondVerb: "croaks"},
	{Subject: "Owl", Category: CategoryAnimal, Verb: "hoots", Adjective: "wise", Adverb: "quietly", Pronoun: "It", SecondVerb: "watches"},
	{Subject: "Snake", Category: CategoryAnimal, Verb: "slithers", Adjective: "long", Adverb: "silently", Pronoun: "It", SecondVerb: "hisses"},

	// People
	{Subject: "Boy", Category: CategoryPerson, Verb: "runs", Adjective: "brave", Adverb: "fast", Pronoun: "He", SecondVerb: "laughs"},
	{Subject: "Girl", Category: CategoryPerson, Verb: "reads", Adjective: "clever", Adverb: "carefully", Pronoun: "She", SecondVerb: "smiles"},
	{Subject: "Teacher", Category: CategoryPerson, Verb: "explains", Adjective: "patient", Adverb: "clearly", Pronoun: "They", SecondVerb: "listen"},
	{Subject: "Baby", Category: CategoryPerson, Verb: "giggles", Adjective: "tiny", Adverb: "sweetly", Pronoun: "It", SecondVerb: "sleeps"},
	{Subject: "Doctor", Category: CategoryPerson, Verb: "helps", Adjective: "caring", Adverb: "gently", Pronoun: "They", SecondVerb: "listen"},
	{Subject: "Farmer", Category: CategoryPerson, Verb: "works", Adjective: "busy", Adverb: "hard", Pronoun: "They", SecondVerb: "rest"},
	{Subject: "King", Category: CategoryPerson, Verb: "rules", Adjective: "wise", Adverb: "fairly", Pronoun: "He", SecondVerb: "decides"},
	{Subject: "Queen", Category: CategoryPerson, Verb: "speaks", Adjective: "noble", Adverb: "calmly", Pronoun: "She", SecondVerb: "listens"},

	// Places
	{Subject: "Park", Category: CategoryPlace, Verb: "fills", Adjective: "green", Adverb: "quickly", Pronoun: "It", SecondVerb: "buzzes"},
	{Subject: "School", Category: CategoryPlace, Verb: "opens", Adjective: "busy", Adverb: "early", Pronoun: "It", SecondVerb: "hums"},
	{Subject: "Beach", Category: CategoryPlace, Verb: "sparkles", Adjective: "sandy", Adverb: "brightly", Pronoun: "It", SecondVerb: "glows"},
	{Subject: "Forest", Category: CategoryPlace, Verb: "whispers", Adjective: "dark", Adverb: "softly", Pronoun: "It", SecondVerb: "sways"},
	{Subject: "City", Category: CategoryPlace, Verb: "wakes", Adjective: "noisy", Adverb: "slowly", Pronoun: "It", SecondVerb: "shines"},
	{Subject: "Garden", Category: CategoryPlace, Verb: "blooms", Adjective: "pretty", Adverb: "beautifully", Pronoun: "It", SecondVerb: "grows"},

	// Things
	{Subject: "Ball", Category: CategoryThing, Verb: "bounces", Adjective: "round", Adverb: "high", Pronoun: "It", SecondVerb: "rolls"},
	{Subject: "Car", Category: CategoryThing, Verb: "zooms", Adjective: "red", Adverb: "fast", Pronoun: "It", SecondVerb: "stops"},
	{Subject: "Kite", Category: CategoryThing, Verb: "soars", Adjective: "bright", Adverb: "high", Pronoun: "It", SecondVerb: "dances"},
	{Subject: "Train", Category: CategoryThing, Verb: "rumbles", Adjective: "long", Adverb: "loudly", Pronoun: "It", SecondVerb: "whistles"},
	{Subject: "Clock", Category: CategoryThing, Verb: "ticks", Adjective: "old", Adverb: "steadily", Pronoun: "It", SecondVerb: "chimes"},
	{Subject: "Rain", Category: CategoryThing, Verb: "falls", Adjective: "cold", Adverb: "heavily", Pronoun: "It", SecondVerb: "splashes"},
}
