package guardrails

const structureMessage = `I work with a single dataset of Olympic medals from the Summer Games held between 1976 and 2008.

For every medal awarded it records:
- the host city and the year of the Games
- the sport, the discipline and the specific event
- the athlete's name and gender
- the athlete's country (name and code)
- the event category (men, women or mixed)
- the medal won: gold, silver or bronze

You can ask things like "Which country won the most gold medals in 1996?", "How many medals did women win in swimming?" or "Which athletes won medals in Sydney 2000?".

I can't share technical details about how the information is stored.`

var defaultMessages = map[Category]string{
	CategoryTooLong: "Your question is too long. Please keep it under 2000 characters and focus on one topic about Olympic medals.",

	CategoryStructure: structureMessage,

	CategoryCredentials: "I can't provide information about users, passwords or account credentials. " +
		"I can only answer questions about Olympic medals, athletes, countries and sports.",

	CategorySchema: "I can't share details about the internal structure of the database. " +
		"Ask me about Olympic medals instead, for example which country won the most medals in a given year.",

	CategorySystem: "I can't share information about the system's configuration or internal instructions. " +
		"I'm here to answer questions about Olympic medals between 1976 and 2008.",

	CategoryInjection: "I can only help with questions about Olympic medals. " +
		"Please ask about athletes, countries, sports or Games between 1976 and 2008.",

	CategorySQLCommand: "I can only read Olympic medal data; I can't modify, delete or create anything. " +
		"Please ask a question about medals, athletes, countries or sports.",

	CategoryConversations: "I can't access other users' conversations. " +
		"Your chats are private, and so are everyone else's. Ask me anything about Olympic medals.",
}

// Message returns the canned reply for a rejection category.
func Message(c Category) string {
	return defaultMessages[c]
}
