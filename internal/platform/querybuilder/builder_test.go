package querybuilder

import "testing"

func TestSelectBuilder(t *testing.T) {
	query, args, err := Select("id", "web_name").
		From("players").
		Where(Eq("position", "MID"), Eq("team_name", "Arsenal")).
		OrderBy("total_points DESC").
		Limit(10).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT id, web_name FROM players WHERE position = ? AND team_name = ? ORDER BY total_points DESC LIMIT 10"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "MID" || args[1] != "Arsenal" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestSelectBuilder_InCondition(t *testing.T) {
	query, args, err := Select("player_id", "gameweek", "total_points").
		From("gameweek_history").
		Where(In("player_id", []any{1, 2, 3})).
		OrderBy("player_id", "gameweek").
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT player_id, gameweek, total_points FROM gameweek_history WHERE player_id IN (?, ?, ?) ORDER BY player_id, gameweek"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 3 {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestSelectBuilder_EmptyInMatchesNothing(t *testing.T) {
	query, args, err := Select("id").
		From("players").
		Where(In("id", nil)).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT id FROM players WHERE 1=0"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 0 {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertBuilder_WithConflictSuffix(t *testing.T) {
	query, args, err := InsertInto("gameweek_history").
		Columns("player_id", "gameweek", "total_points", "minutes").
		Values(42, 1, 9, 90).
		Suffix("ON CONFLICT(player_id, gameweek) DO UPDATE SET total_points = excluded.total_points, minutes = excluded.minutes").
		ToSQL()
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO gameweek_history (player_id, gameweek, total_points, minutes) VALUES (?, ?, ?, ?) ON CONFLICT(player_id, gameweek) DO UPDATE SET total_points = excluded.total_points, minutes = excluded.minutes"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 4 {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertModel(t *testing.T) {
	type row struct {
		ID      int    `db:"id"`
		WebName string `db:"web_name"`
		Ignored string `db:"-"`
	}

	query, args, err := InsertModel("players", row{ID: 7, WebName: "Saka"}, "")
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO players (id, web_name) VALUES (?, ?)"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != 7 || args[1] != "Saka" {
		t.Fatalf("unexpected args: %+v", args)
	}
}
