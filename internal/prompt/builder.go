package prompt

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/nikhilbhutani/medalchat/internal/models"
	"github.com/nikhilbhutani/medalchat/internal/sqlexec"
)

// DefaultSystemPrompt is used when no active prompt configuration exists for
// the requested context.
const DefaultSystemPrompt = `You are an assistant specialized in Olympic data analysis.
Provide precise, professional answers about medals, athletes, countries and Olympic statistics.`

// DefaultContext is the prompt configuration key used when the caller names none.
const DefaultContext = "deportivo"

// HistoryAnswerLimit bounds how much of each assistant answer is replayed in
// prompts.
const HistoryAnswerLimit = 800

// TableSchema describes medallas_olimpicas for the model.
const TableSchema = `TABLE medallas_olimpicas
id              SERIAL PRIMARY KEY
city            VARCHAR(100)  - Host city of the Games
year            INTEGER       - Year of the Games
sport           VARCHAR(100)  - Sport
discipline      VARCHAR(100)  - Specific discipline within the sport
event           VARCHAR(200)  - Specific event
athlete         VARCHAR(200)  - Original athlete name, formatted "SURNAME, Name"
nombre          VARCHAR(100)  - Athlete first name
apellido        VARCHAR(100)  - Athlete surname
nombre_completo VARCHAR(200)  - Full name, formatted "Name Surname"
gender          VARCHAR(10)   - Athlete gender
country_code    VARCHAR(10)   - Country code
country         VARCHAR(100)  - Country name
event_gender    VARCHAR(10)   - Event category
medal           VARCHAR(20)   - Medal type
created_at      TIMESTAMP     - Row creation time`

var sqlTemplate = NewTemplate(`{{system_prompt}}

Given the following table structure:
{{schema}}

{{facts}}
{{history}}{{excluded_terms}}
And the following natural-language question:
"{{question}}"

Write one PostgreSQL query that answers the question. Follow these rules:

0. The table is called medallas_olimpicas. Do not reference any other table, view or system catalog.
1. Use ILIKE for case-insensitive text matching.
2. For athlete names you can use either athlete (original format) or nombre_completo (processed format). Use ILIKE with % wildcards, and AND between first name and surname for specific people.
3. When the query can return many rows, use GROUP BY to group similar results.
4. Include COUNT(*) or COUNT(DISTINCT ...) when counting is appropriate.
5. Use COALESCE to handle NULL values when needed.
6. Return at most 100 rows. Always add LIMIT 100.
7. Always include ORDER BY to order results logically.
8. Use MIN, MAX, AVG and SUM for numeric calculations.
9. Only write SELECT statements (WITH ... SELECT is allowed). Never write CREATE, DROP, ALTER, TRUNCATE, INSERT, UPDATE, DELETE or GRANT.
10. Write exactly one statement, with no trailing semicolon-separated statements.
11. With STRING_AGG(DISTINCT x, ...) the ORDER BY inside the aggregate may only use x itself. Prefer STRING_AGG(DISTINCT x, ', ' ORDER BY x) or aggregate without DISTINCT.
12. With SELECT DISTINCT, every ORDER BY expression must appear in the select list.
13. For medals use medal = 'Gold', medal = 'Silver' or medal = 'Bronze'.
14. For gender use gender = 'Men' or gender = 'Women'.
15. Map everyday phrasing to filters:
{{phrase_mappings}}
16. If the question refers to earlier messages ("and in 2004?", "what about women?"), reuse the filters of the previous query shown in the conversation history.

Reply with the SQL query only, without explanations.`)

var simplifiedSQLTemplate = NewTemplate(`{{system_prompt}}

Table medallas_olimpicas has these columns:
city, year, sport, discipline, event, athlete, nombre, apellido, nombre_completo, gender, country_code, country, event_gender, medal
{{excluded_terms}}
Question: "{{question}}"

Write a simple PostgreSQL SELECT query over medallas_olimpicas that answers the question:
- use ILIKE for text matching
- medal values are 'Gold', 'Silver', 'Bronze'; gender values are 'Men', 'Women'
- use plain COUNT(*) with GROUP BY when counting, without STRING_AGG or DISTINCT inside aggregates
- always add ORDER BY and LIMIT 100
- only SELECT, one statement

Reply with the SQL query only.`)

var answerTemplate = NewTemplate(`{{system_prompt}}
{{history}}
Given the following question:
"{{question}}"

And the following query results ({{row_count}} rows):
{{rows}}

Write a natural-language answer for someone interested in Olympic data, following these rules:

1. Answer directly, without mentioning SQL, queries, tables, columns or any other technical term.
2. Use clear, professional language, as if talking with the user.
3. Present the information in an organized, easy-to-read way.
4. If the data is limited, answer with the information available.
5. Use sports and Olympic terminology where possible.
6. Format numbers clearly.
7. Do not add any information that is not explicitly in the results. Never invent data.
8. If there are no results, say kindly and honestly that no results were found for that question.
9. Do not make assumptions or add analysis unless asked.
10. When the question spans several categories (for example men and women, or several medal types), give the breakdown per category.
11. This is a chat conversation: do not greet or say goodbye.
12. If there are many results, summarize the most relevant ones and mention the total.
13. Answer in the language the user wrote the question in.`)

// SQLPromptInput carries everything the SQL generation prompt needs. Nil or
// empty History and ExcludedTerms render nothing.
type SQLPromptInput struct {
	Question      string
	SystemPrompt  string
	Schema        string
	History       []models.Turn
	ExcludedTerms []string
	Facts         *Facts
}

func BuildSQLPrompt(in SQLPromptInput) string {
	facts := in.Facts
	if facts == nil {
		facts = MustDefaultFacts()
	}
	schema := in.Schema
	if schema == "" {
		schema = TableSchema
	}

	return mustRender(sqlTemplate, map[string]string{
		"system_prompt":   systemPromptOrDefault(in.SystemPrompt),
		"schema":          schema,
		"facts":           renderFacts(facts),
		"history":         renderHistory(in.History),
		"excluded_terms":  renderExcludedTerms(in.ExcludedTerms),
		"question":        in.Question,
		"phrase_mappings": renderPhraseMappings(facts),
	})
}

func BuildSimplifiedSQLPrompt(question, systemPrompt string, excludedTerms []string) string {
	return mustRender(simplifiedSQLTemplate, map[string]string{
		"system_prompt":  systemPromptOrDefault(systemPrompt),
		"excluded_terms": renderExcludedTerms(excludedTerms),
		"question":       question,
	})
}

type AnswerPromptInput struct {
	Question     string
	Rows         []sqlexec.Row
	SystemPrompt string
	History      []models.Turn
}

func BuildAnswerPrompt(in AnswerPromptInput) string {
	rows := in.Rows
	if rows == nil {
		rows = []sqlexec.Row{}
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		slog.Warn("result rows not encodable, answer prompt gets an empty result", "rows", len(rows), "error", err)
		data = []byte("[]")
	}

	return mustRender(answerTemplate, map[string]string{
		"system_prompt": systemPromptOrDefault(in.SystemPrompt),
		"history":       renderHistory(in.History),
		"question":      in.Question,
		"row_count":     fmt.Sprint(len(rows)),
		"rows":          string(data),
	})
}

func systemPromptOrDefault(s string) string {
	if strings.TrimSpace(s) == "" {
		return DefaultSystemPrompt
	}
	return s
}

func renderHistory(turns []models.Turn) string {
	if len(turns) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\nCONVERSATION HISTORY (oldest first):\n")
	for _, t := range turns {
		switch t.Role {
		case models.TurnRoleUser:
			fmt.Fprintf(&b, "User asked: %s\n", t.Content)
		case models.TurnRoleAssistant:
			fmt.Fprintf(&b, "Assistant answered: %s\n", TruncateAnswer(t.Content, HistoryAnswerLimit))
			if t.SQLExecuted != nil && *t.SQLExecuted != "" {
				fmt.Fprintf(&b, "SQL executed: %s\n", *t.SQLExecuted)
			}
		}
	}
	return b.String()
}

// TruncateAnswer cuts s to limit characters and appends "..." when it was
// longer.
func TruncateAnswer(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}

func renderExcludedTerms(terms []string) string {
	clean := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			clean = append(clean, t)
		}
	}
	if len(clean) == 0 {
		return ""
	}

	quoted := make([]string, len(clean))
	for i, t := range clean {
		quoted[i] = fmt.Sprintf("%q", t)
	}

	var b strings.Builder
	b.WriteString("\nEXCLUDED TERMS\n")
	fmt.Fprintf(&b, "The user does not want any result related to: %s.\n", strings.Join(quoted, ", "))
	b.WriteString("These terms may be written in another language or form than the stored values. Before writing the query:\n")
	b.WriteString("a. Translate each term into the literal value used in the dataset (for example 'brasil' -> 'Brazil', 'mujeres' -> 'Women', 'natación' -> 'Swimming').\n")
	b.WriteString("b. Exclude matching rows with NOT ILIKE '%value%' conditions on every column where the value can appear (country, country_code, city, sport, discipline, event, athlete, nombre_completo, gender).\n")
	b.WriteString("c. Combine the conditions for all excluded terms with AND.\n")
	b.WriteString("d. Keep these conditions even if the question asks for the excluded term directly.\n")
	return b.String()
}

func renderFacts(f *Facts) string {
	var b strings.Builder
	b.WriteString("DATASET FACTS\n")
	fmt.Fprintf(&b, "- Summer Games only, years %d to %d.\n", f.FirstYear, f.LastYear)
	fmt.Fprintf(&b, "- Host cities (the only values of city): %s.\n", f.CityList())
	fmt.Fprintf(&b, "- medal is one of %s.\n", quoteList(f.Medals))
	fmt.Fprintf(&b, "- gender is one of %s.\n", quoteList(f.Genders))

	if len(f.EventGenders) > 0 {
		keys := make([]string, 0, len(f.EventGenders))
		for k := range f.EventGenders {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("'%s' = %s", k, f.EventGenders[k])
		}
		fmt.Fprintf(&b, "- event_gender: %s.\n", strings.Join(parts, ", "))
	}

	if len(f.Countries) > 0 {
		parts := make([]string, len(f.Countries))
		for i, c := range f.Countries {
			parts[i] = fmt.Sprintf("%s (%s)", c.Name, c.Code)
		}
		fmt.Fprintf(&b, "- country values are English names, for example: %s.\n", strings.Join(parts, ", "))
	}
	if len(f.Sports) > 0 {
		names := make([]string, len(f.Sports))
		for i, s := range f.Sports {
			names[i] = s.Name
		}
		fmt.Fprintf(&b, "- sport values are English names, for example: %s.\n", strings.Join(names, ", "))
	}
	for _, n := range f.Notes {
		fmt.Fprintf(&b, "- %s\n", n)
	}
	return b.String()
}

func renderPhraseMappings(f *Facts) string {
	lines := make([]string, len(f.PhraseMappings))
	for i, m := range f.PhraseMappings {
		lines[i] = fmt.Sprintf("    %s -> %s", m.Phrase, m.Filter)
	}
	return strings.Join(lines, "\n")
}

func mustRender(tmpl *Template, vars map[string]string) string {
	out, err := tmpl.Execute(vars)
	if err != nil {
		panic(err)
	}
	return out
}
