package curriculum

import (
	"encoding/json"
	"fmt"

	"github.com/abhisek/wordsmith/internal/progression"
	"github.com/abhisek/wordsmith/internal/store"
)

// DefaultVersion is the version of the built-in catalogue.
const DefaultVersion = "1.0.0"

type tierSeed struct {
	theme    string
	focus    string
	concepts []string
	guidance string
	topics   [progression.LevelsPerTier]string
}

// tiers is the built-in programme. Each tier adds one focus on top of the
// concepts of the tiers before it.
var tiers = [progression.MaxTier]tierSeed{
	{
		theme:    "Simple Sentences",
		focus:    "subject and verb",
		concepts: []string{"subject", "verb"},
		guidance: "Each sentence needs someone or something and what they do.",
		topics:   [5]string{"Animals in Action", "People at Work", "In the Park", "Things That Move", "A Busy Morning"},
	},
	{
		theme:    "Naming Words",
		focus:    "determiners",
		concepts: []string{"determiner", "subject", "verb"},
		guidance: "Start your naming words with a, an or the.",
		topics:   [5]string{"At the Farm", "On the Beach", "In the Kitchen", "At School", "A Trip to Town"},
	},
	{
		theme:    "Describing Words",
		focus:    "adjectives",
		concepts: []string{"adjective", "determiner", "subject", "verb"},
		guidance: "Add a describing word before the naming word.",
		topics:   [5]string{"My Favourite Toy", "A Stormy Night", "The Magic Garden", "Under the Sea", "The Lost Treasure"},
	},
	{
		theme:    "How Things Happen",
		focus:    "adverbs",
		concepts: []string{"adverb", "adjective", "subject", "verb"},
		guidance: "Say how the action happens with a word such as quickly or quietly.",
		topics:   [5]string{"Sports Day", "The Race", "A Quiet Library", "The Noisy Parade", "The Big Match"},
	},
	{
		theme:    "Joining Ideas",
		focus:    "conjunctions",
		concepts: []string{"conjunction", "adverb", "adjective", "subject", "verb"},
		guidance: "Join two ideas with and, but or because.",
		topics:   [5]string{"Making a Sandwich", "A Rainy Weekend", "My Best Friend", "Visiting the Zoo", "The Camping Trip"},
	},
	{
		theme:    "Pronouns",
		focus:    "pronouns",
		concepts: []string{"pronoun", "conjunction", "subject", "verb"},
		guidance: "After you name someone, use he, she, it or they instead of repeating the name.",
		topics:   [5]string{"A Helpful Neighbour", "The Clever Cat", "Our Class Trip", "The New Pupil", "The Surprise Party"},
	},
	{
		theme:    "Sentence Variety",
		focus:    "varied sentences",
		concepts: []string{"punctuation", "conjunction", "pronoun", "adjective", "adverb"},
		guidance: "Mix short and longer sentences and end each one with the right punctuation.",
		topics:   [5]string{"A Day in Space", "The Haunted House", "Inventing a Machine", "The Dragon's Cave", "The Great Escape"},
	},
	{
		theme:    "Short Paragraphs",
		focus:    "paragraphs",
		concepts: []string{"paragraph", "sequencing", "conjunction", "pronoun", "punctuation"},
		guidance: "Write a paragraph with a beginning, a middle and an end, using words like first, next and finally.",
		topics:   [5]string{"How to Plant a Seed", "My Perfect Day", "A Letter to a Friend", "The Mystery Box", "My Writing Journey"},
	},
}

type criterion struct {
	Name        string `json:"name"`
	Points      int    `json:"points"`
	Description string `json:"description"`
}

type rubric struct {
	Focus    string      `json:"focus"`
	Total    int         `json:"total"`
	Criteria []criterion `json:"criteria"`
}

// Default returns the built-in 40-level catalogue.
func Default() *Catalogue {
	c := &Catalogue{Version: DefaultVersion}
	for t, seed := range tiers {
		tier := t + 1
		for i, topic := range seed.topics {
			number := t*progression.LevelsPerTier + i + 1
			c.Levels = append(c.Levels, defaultLevel(number, tier, seed, topic))
		}
	}
	return c
}

func defaultLevel(number, tier int, seed tierSeed, topic string) store.LevelRecord {
	finale := number%progression.LevelsPerTier == 0
	sentences := 2 + (tier-1)/2

	activity := fmt.Sprintf("%s %d", seed.theme, number-(tier-1)*progression.LevelsPerTier)
	instructions := fmt.Sprintf("Write %d sentences about %s. %s", sentences, topic, seed.guidance)
	if finale {
		activity = seed.theme + " Challenge"
		instructions = fmt.Sprintf("Write %d sentences about %s. Show everything you have practised in %s. %s",
			sentences+1, topic, seed.theme, seed.guidance)
	}

	threshold := 60.0
	if tier > 4 {
		threshold = 70
	}

	return store.LevelRecord{
		ID:                 LevelID(number),
		Number:             number,
		Tier:               tier,
		ActivityName:       activity,
		PromptTitle:        topic,
		PromptInstructions: instructions,
		TargetConcepts:     append([]string(nil), seed.concepts...),
		Rubric:             defaultRubric(seed),
		PassingThreshold:   threshold,
		TierFinale:         finale,
		ProgrammeFinale:    number == progression.MaxLevel,
		Milestone:          number%10 == 0,
	}
}

func defaultRubric(seed tierSeed) json.RawMessage {
	r := rubric{
		Focus: seed.focus,
		Total: 10,
		Criteria: []criterion{
			{Name: "Sentence structure", Points: 4, Description: "Every sentence is complete and makes sense."},
			{Name: "Use of " + seed.focus, Points: 4, Description: seed.guidance},
			{Name: "Capital letters and full stops", Points: 2, Description: "Sentences start with a capital letter and end with a full stop."},
		},
	}
	b, err := json.Marshal(r)
	if err != nil {
		panic(fmt.Sprintf("marshal default rubric: %v", err))
	}
	return b
}
