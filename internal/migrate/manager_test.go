package migrate

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements(`create table a (id int);
insert into a values ('x;y');
`)
	if len(stmts) != 2 {
		t.Fatalf("got %d statements: %q", len(stmts), stmts)
	}
	if stmts[1] != `insert into a values ('x;y')` {
		t.Fatalf("semicolon inside string split: %q", stmts[1])
	}
}

func TestUpSkipsApplied(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	files := fstest.MapFS{
		"001_init.up.sql":    {Data: []byte("create table dealers (id int)")},
		"001_init.down.sql":  {Data: []byte("drop table dealers")},
		"002_links.up.sql":   {Data: []byte("create table download_links (id int)")},
		"002_links.down.sql": {Data: []byte("drop table download_links")},
	}

	mock.ExpectExec("create table if not exists portal_migrations").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("create table if not exists portal_seeds").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("select name from portal_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("001_init.up.sql"))

	// Only the second migration runs.
	mock.ExpectBegin()
	mock.ExpectExec("create table download_links").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectExec("insert into portal_migrations").
		WillReturnResult(sqlmock.NewResult(0, 1))

	mgr := NewManager(db, files, nil)
	if err := mgr.Up(context.Background()); err != nil {
		t.Fatalf("Up: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestDownRollsBackLatest(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	files := fstest.MapFS{
		"001_init.up.sql":   {Data: []byte("create table dealers (id int)")},
		"001_init.down.sql": {Data: []byte("drop table dealers")},
	}

	mock.ExpectExec("create table if not exists portal_migrations").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("create table if not exists portal_seeds").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("select name from portal_migrations order by").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("001_init.up.sql"))

	mock.ExpectBegin()
	mock.ExpectExec("drop table dealers").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectExec("delete from portal_migrations where name =").
		WithArgs("001_init.up.sql").
		WillReturnResult(sqlmock.NewResult(0, 1))

	mgr := NewManager(db, files, nil)
	if err := mgr.Down(context.Background()); err != nil {
		t.Fatalf("Down: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestSeedAppliesOnce(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	seeds := fstest.MapFS{
		"001_admin.sql": {Data: []byte("insert into admins(email) values ('ops@portal')")},
	}

	mock.ExpectExec("create table if not exists portal_migrations").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("create table if not exists portal_seeds").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("select name from portal_seeds").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("001_admin.sql"))

	mgr := NewManager(db, nil, seeds)
	if err := mgr.Seed(context.Background()); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	// No exec beyond bookkeeping: the seed was already applied.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
