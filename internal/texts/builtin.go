package texts

var builtinTexts = map[Level][]string{
	Beginner: {
		"The quick brown fox jumps over the lazy dog.",
		"A cat sat on the mat and looked at the sun.",
		"We like to read a good book on a rainy day.",
		"She walks to the park with her dog every morning.",
	},
	Intermediate: {
		"Programming is a skill best acquired by practice and example rather than from books.",
		"The library opens early on weekdays, so students often study there before class begins.",
		"Learning to type without looking at the keyboard takes patience, but the reward is worth it.",
	},
	Advanced: {
		"The secret of getting ahead is getting started.",
		"Distributed systems must tolerate partial failure, because networks partition and machines crash without warning.",
		"Her meticulous analysis revealed an unexpected correlation between sleep quality and cognitive performance.",
	},
	Expert: {
		"Advanced typing requires consistent practice and dedication.",
		"Epistemological debates frequently hinge on whether justification is an internal or an external property of belief.",
		"The committee's recommendations, though ostensibly comprehensive, conspicuously omitted any discussion of long-term sustainability.",
	},
	Programming: {
		`function hello() { return "Hello, World!"; }`,
		"for i := 0; i < len(items); i++ { total += items[i] }",
		"if err != nil { return fmt.Errorf(\"open %s: %w\", path, err) }",
		"const squares = nums.map((n) => n * n).filter((n) => n % 2 === 0);",
	},
	Numbers: {
		"The year 2024 has 365 days and 12 months.",
		"Call 555-0134 between 9:30 and 17:45 on weekdays.",
		"In 1969, Apollo 11 landed after a journey of 384,400 kilometers.",
	},
	Punctuation: {
		"Hello, world! How are you today?",
		"Wait; did you say \"tomorrow\" or 'today'? I'm not sure...",
		"First, preheat the oven; next, mix the flour, sugar, and eggs.",
	},
	Special: {
		"Use strong passwords like: P@ssw0rd123!",
		"Email me at user@example.com or visit https://example.com/#help",
		"The total (incl. 20% tax) is $45.99 & shipping is ~$5.",
	},
}

// builtinWords is the drill vocabulary used when no word list is configured.
var builtinWords = []string{
	"the", "be", "to", "of", "and", "a", "in", "that", "have", "it",
	"for", "not", "on", "with", "he", "as", "you", "do", "at", "this",
	"but", "his", "by", "from", "they", "we", "say", "her", "she", "or",
	"an", "will", "my", "one", "all", "would", "there", "their", "what", "so",
	"up", "out", "if", "about", "who", "get", "which", "go", "me", "when",
	"make", "can", "like", "time", "no", "just", "him", "know", "take", "people",
	"into", "year", "your", "good", "some", "could", "them", "see", "other", "than",
	"then", "now", "look", "only", "come", "its", "over", "think", "also", "back",
	"after", "use", "two", "how", "our", "work", "first", "well", "way", "even",
	"new", "want", "because", "any", "these", "give", "day", "most", "us", "great",
}
