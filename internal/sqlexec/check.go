package sqlexec

import (
	"errors"
	"fmt"
	"strings"
)

// AllowedTable is the only relation generated statements may read.
const AllowedTable = "medallas_olimpicas"

var ErrStatementRejected = errors.New("statement rejected")

var forbiddenWords = map[string]bool{
	"insert": true, "update": true, "delete": true, "merge": true, "upsert": true,
	"drop": true, "alter": true, "create": true, "truncate": true, "rename": true,
	"grant": true, "revoke": true, "copy": true, "call": true, "do": true,
	"execute": true, "prepare": true, "deallocate": true, "vacuum": true,
	"lock": true, "listen": true, "notify": true, "set": true, "reset": true,
	"into": true, "table": true, "information_schema": true, "dblink": true,
	"lo_import": true, "lo_export": true, "current_setting": true, "set_config": true,
}

// functions whose arguments use FROM as a keyword
var fromArgFuncs = map[string]bool{
	"extract": true, "substring": true, "trim": true, "overlay": true,
}

// Functions a generated statement may call. Anything else followed by "(" is
// rejected, which keeps out query_to_xml and other functions that run SQL
// given as text.
var allowedFuncs = map[string]bool{
	// aggregates and window functions
	"count": true, "sum": true, "avg": true, "min": true, "max": true,
	"string_agg": true, "array_agg": true, "bool_and": true, "bool_or": true, "every": true,
	"stddev": true, "stddev_pop": true, "stddev_samp": true, "variance": true,
	"percentile_cont": true, "percentile_disc": true, "mode": true,
	"rank": true, "dense_rank": true, "row_number": true, "ntile": true, "lag": true, "lead": true,
	"first_value": true, "last_value": true, "cume_dist": true, "percent_rank": true,
	// conditionals
	"coalesce": true, "nullif": true, "greatest": true, "least": true,
	// strings
	"lower": true, "upper": true, "initcap": true, "trim": true, "btrim": true, "ltrim": true, "rtrim": true,
	"length": true, "char_length": true, "substring": true, "substr": true, "replace": true,
	"concat": true, "concat_ws": true, "split_part": true, "position": true, "strpos": true,
	"left": true, "right": true, "lpad": true, "rpad": true, "reverse": true, "translate": true,
	"regexp_replace": true, "starts_with": true, "string_to_array": true, "array_to_string": true,
	"array_length": true, "unaccent": true,
	// dates and numbers
	"extract": true, "date_part": true, "date_trunc": true, "to_char": true, "to_number": true,
	"to_date": true, "make_date": true, "age": true,
	"round": true, "ceil": true, "ceiling": true, "floor": true, "abs": true, "trunc": true,
	"power": true, "sqrt": true, "mod": true, "cast": true,
	// type names with modifiers, as in ::numeric(10,2)
	"numeric": true, "decimal": true, "varchar": true, "char": true, "character": true,
}

// keywords that may directly precede "("
var parenKeywords = map[string]bool{
	"select": true, "from": true, "where": true, "and": true, "or": true, "not": true,
	"in": true, "exists": true, "any": true, "all": true, "some": true, "as": true,
	"values": true, "over": true, "filter": true, "group": true, "using": true, "on": true,
	"when": true, "then": true, "else": true, "by": true, "union": true, "except": true,
	"intersect": true, "join": true, "lateral": true, "between": true, "is": true,
	"like": true, "ilike": true, "distinct": true, "with": true, "recursive": true,
	"having": true, "limit": true, "offset": true, "partition": true, "row": true, "array": true,
}

// words that end a FROM item's alias position
var clauseWords = map[string]bool{
	"where": true, "join": true, "inner": true, "left": true, "right": true,
	"full": true, "cross": true, "natural": true, "on": true, "using": true,
	"group": true, "order": true, "limit": true, "offset": true, "fetch": true,
	"having": true, "window": true, "union": true, "except": true, "intersect": true,
	"for": true,
}

// CheckStatement verifies that statement is a single SELECT (or WITH ...
// SELECT) reading only from AllowedTable and its own CTEs.
func CheckStatement(statement string) error {
	toks, err := tokenize(statement)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStatementRejected, err)
	}

	for len(toks) > 0 && toks[len(toks)-1].is(tokPunct, ";") {
		toks = toks[:len(toks)-1]
	}
	if len(toks) == 0 {
		return fmt.Errorf("%w: empty statement", ErrStatementRejected)
	}

	first := 0
	for first < len(toks) && toks[first].is(tokPunct, "(") {
		first++
	}
	if first == len(toks) || !(toks[first].is(tokWord, "select") || toks[first].is(tokWord, "with")) {
		return fmt.Errorf("%w: only SELECT statements are allowed", ErrStatementRejected)
	}

	for _, t := range toks {
		switch {
		case t.is(tokPunct, ";"):
			return fmt.Errorf("%w: multiple statements", ErrStatementRejected)
		case (t.kind == tokWord || t.kind == tokIdent) && strings.HasPrefix(t.text, "pg_"):
			return fmt.Errorf("%w: system catalog or function %q", ErrStatementRejected, t.text)
		case t.kind == tokWord && forbiddenWords[t.text]:
			return fmt.Errorf("%w: keyword %q is not allowed", ErrStatementRejected, strings.ToUpper(t.text))
		}
	}

	ctes := cteNames(toks)

	for i := 1; i < len(toks); i++ {
		if !toks[i].is(tokPunct, "(") {
			continue
		}
		prev := toks[i-1]
		if prev.kind != tokWord && prev.kind != tokIdent {
			continue
		}
		if prev.kind == tokWord && parenKeywords[prev.text] {
			continue
		}
		if allowedFuncs[prev.text] || ctes[prev.text] {
			continue
		}
		return fmt.Errorf("%w: function %q is not allowed", ErrStatementRejected, prev.text)
	}

	var frames []bool // true when the paren belongs to a FROM-argument function
	for i, t := range toks {
		switch {
		case t.is(tokPunct, "("):
			frames = append(frames, i > 0 && toks[i-1].kind == tokWord && fromArgFuncs[toks[i-1].text])
		case t.is(tokPunct, ")"):
			if len(frames) > 0 {
				frames = frames[:len(frames)-1]
			}
		case t.is(tokWord, "from") || t.is(tokWord, "join"):
			if len(frames) > 0 && frames[len(frames)-1] {
				continue
			}
			if i > 0 && toks[i-1].is(tokWord, "distinct") {
				continue
			}
			if err := checkFromItems(toks, i+1, t.text == "from", ctes); err != nil {
				return err
			}
		}
	}

	return nil
}

func checkFromItems(toks []token, i int, list bool, ctes map[string]bool) error {
	for {
		for i < len(toks) && (toks[i].is(tokWord, "lateral") || toks[i].is(tokWord, "only")) {
			i++
		}
		if i >= len(toks) {
			return fmt.Errorf("%w: missing relation", ErrStatementRejected)
		}
		if toks[i].is(tokPunct, "(") {
			// subquery; its own FROM is checked by the caller's scan
			return nil
		}
		if toks[i].kind != tokWord && toks[i].kind != tokIdent {
			return fmt.Errorf("%w: unexpected %q after FROM", ErrStatementRejected, toks[i].text)
		}

		schema, name := "", toks[i].text
		if i+2 < len(toks) && toks[i+1].is(tokPunct, ".") {
			schema, name = name, toks[i+2].text
			i += 2
		}
		if i+1 < len(toks) && toks[i+1].is(tokPunct, "(") {
			return fmt.Errorf("%w: function %q in FROM", ErrStatementRejected, name)
		}
		allowed := (name == AllowedTable && (schema == "" || schema == "public")) || (schema == "" && ctes[name])
		if !allowed {
			if schema != "" {
				name = schema + "." + name
			}
			return fmt.Errorf("%w: relation %q is not allowed", ErrStatementRejected, name)
		}
		i++

		if !list {
			return nil
		}
		// optional alias, then a comma continues the FROM list
		if i < len(toks) && toks[i].is(tokWord, "as") {
			i += 2
		} else if i < len(toks) && (toks[i].kind == tokIdent || (toks[i].kind == tokWord && !clauseWords[toks[i].text])) {
			i++
		}
		if i < len(toks) && toks[i].is(tokPunct, ",") {
			i++
			continue
		}
		return nil
	}
}

func cteNames(toks []token) map[string]bool {
	names := map[string]bool{}
	for i := 2; i+1 < len(toks); i++ {
		if !toks[i].is(tokWord, "as") || !toks[i+1].is(tokPunct, "(") {
			continue
		}
		name, before := toks[i-1], toks[i-2]
		if name.kind != tokWord && name.kind != tokIdent {
			continue
		}
		if before.is(tokWord, "with") || before.is(tokWord, "recursive") || before.is(tokPunct, ",") {
			names[name.text] = true
		}
	}
	return names
}

type tokenKind int

const (
	tokWord tokenKind = iota
	tokIdent
	tokString
	tokNumber
	tokPunct
)

type token struct {
	kind tokenKind
	text string
}

func (t token) is(kind tokenKind, text string) bool {
	return t.kind == kind && t.text == text
}

// tokenize splits SQL into lower-cased words, quoted identifiers, literals
// and punctuation, dropping comments.
func tokenize(s string) ([]token, error) {
	var toks []token
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f':
			i++
		case c == '-' && i+1 < len(s) && s[i+1] == '-':
			j := strings.IndexByte(s[i:], '\n')
			if j < 0 {
				i = len(s)
			} else {
				i += j + 1
			}
		case c == '/' && i+1 < len(s) && s[i+1] == '*':
			j := strings.Index(s[i+2:], "*/")
			if j < 0 {
				return nil, errors.New("unterminated comment")
			}
			i += j + 4
		case c == '\'':
			j := i + 1
			for {
				if j >= len(s) {
					return nil, errors.New("unterminated string literal")
				}
				if s[j] == '\'' {
					if j+1 < len(s) && s[j+1] == '\'' {
						j += 2
						continue
					}
					break
				}
				j++
			}
			toks = append(toks, token{tokString, s[i+1 : j]})
			i = j + 1
		case c == '"':
			j := strings.IndexByte(s[i+1:], '"')
			if j < 0 {
				return nil, errors.New("unterminated quoted identifier")
			}
			toks = append(toks, token{tokIdent, strings.ToLower(s[i+1 : i+1+j])})
			i += j + 2
		case c == '$':
			return nil, errors.New("dollar quoting and parameters are not allowed")
		case isIdentStart(c):
			j := i
			for j < len(s) && isIdentChar(s[j]) {
				j++
			}
			toks = append(toks, token{tokWord, strings.ToLower(s[i:j])})
			i = j
		case c >= '0' && c <= '9':
			j := i
			for j < len(s) && (s[j] >= '0' && s[j] <= '9' || s[j] == '.') {
				j++
			}
			toks = append(toks, token{tokNumber, s[i:j]})
			i = j
		default:
			toks = append(toks, token{tokPunct, string(c)})
			i++
		}
	}
	return toks, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= 0x80
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9'
}
