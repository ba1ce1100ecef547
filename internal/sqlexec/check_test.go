package sqlexec

import (
	"errors"
	"testing"
)

func TestCheckStatementAccepts(t *testing.T) {
	statements := []string{
		"SELECT country, COUNT(*) FROM medallas_olimpicas GROUP BY country ORDER BY 2 DESC LIMIT 100",
		"select * from public.medallas_olimpicas limit 5;",
		`SELECT athlete FROM "medallas_olimpicas" m WHERE m.country ILIKE '%brazil%' AND m.country NOT ILIKE '%drop table%' ORDER BY athlete LIMIT 100`,
		"WITH golds AS (SELECT country, COUNT(*) AS n FROM medallas_olimpicas WHERE medal = 'Gold' GROUP BY country) SELECT * FROM golds ORDER BY n DESC LIMIT 10",
		"SELECT city, EXTRACT(YEAR FROM created_at) AS y FROM medallas_olimpicas ORDER BY y LIMIT 100",
		"SELECT a.country FROM medallas_olimpicas a JOIN medallas_olimpicas b ON a.athlete = b.athlete AND a.year <> b.year ORDER BY 1 LIMIT 100",
		"SELECT t.country FROM (SELECT country FROM medallas_olimpicas WHERE year = 2008) t ORDER BY 1 LIMIT 100",
		"SELECT x.country FROM medallas_olimpicas AS x, medallas_olimpicas y WHERE x.id = y.id ORDER BY 1 LIMIT 1",
		"SELECT country FROM medallas_olimpicas WHERE medal IS DISTINCT FROM 'Gold' ORDER BY 1 LIMIT 100 -- trailing comment",
		"SELECT country, COUNT(*) FILTER (WHERE medal = 'Gold') AS golds, ROUND(AVG(year)::numeric(10,2), 1) FROM medallas_olimpicas GROUP BY country ORDER BY golds DESC LIMIT 100",
		"SELECT sport, STRING_AGG(DISTINCT country, ', ' ORDER BY country) FROM medallas_olimpicas WHERE year IN (2004, 2008) GROUP BY sport ORDER BY sport LIMIT 100",
		"SELECT athlete, RANK() OVER (PARTITION BY year ORDER BY athlete) FROM medallas_olimpicas WHERE EXISTS (SELECT 1 FROM medallas_olimpicas m2 WHERE m2.id = medallas_olimpicas.id) ORDER BY 1 LIMIT 100",
		"SELECT COALESCE(LOWER(TRIM(country)), 'unknown') FROM medallas_olimpicas ORDER BY 1 LIMIT 100",
	}
	for _, s := range statements {
		if err := CheckStatement(s); err != nil {
			t.Errorf("CheckStatement(%q) = %v, want nil", s, err)
		}
	}
}

func TestCheckStatementRejects(t *testing.T) {
	statements := []string{
		"",
		"   ;  ",
		"DROP TABLE medallas_olimpicas",
		"DELETE FROM medallas_olimpicas",
		"SELECT 1; DROP TABLE usuarios",
		"SELECT * FROM usuarios",
		"SELECT * FROM medallas_olimpicas JOIN usuarios ON true",
		"SELECT table_name FROM information_schema.tables",
		"SELECT * FROM pg_catalog.pg_tables",
		"SELECT pg_sleep(10)",
		"SELECT * INTO copia FROM medallas_olimpicas",
		"SELECT * FROM medallas_olimpicas FOR UPDATE",
		"SELECT * FROM otherschema.medallas_olimpicas",
		"SELECT * FROM generate_series(1, 10)",
		"SELECT $$x$$",
		"SELECT * FROM medallas_olimpicas WHERE city = 'unterminated",
		"WITH x AS (SELECT 1) SELECT * FROM x, usuarios",
		"SELECT * FROM medallas_olimpicas /* comment",
		"SELECT country FROM medallas_olimpicas UNION TABLE usuarios",
		"TABLE usuarios",
		"SELECT query_to_xml('select * from usuarios', true, true, '')",
		"SELECT query_to_json('select password_hash from usuarios')",
		`SELECT "query_to_xml"('select 1', true, true, '')`,
		"SELECT xpath('/row', query_to_xml('select * from usuarios', true, false, ''))",
		"SELECT country FROM medallas_olimpicas WHERE city = current_user_secret()",
		"SELECT to_regclass('usuarios')",
	}
	for _, s := range statements {
		err := CheckStatement(s)
		if err == nil {
			t.Errorf("CheckStatement(%q) = nil, want rejection", s)
			continue
		}
		if !errors.Is(err, ErrStatementRejected) {
			t.Errorf("CheckStatement(%q) error %v does not wrap ErrStatementRejected", s, err)
		}
	}
}
