package sink_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/icetime/internal/adapters/sink"
	"github.com/okian/icetime/internal/domain/combine"
)

// fakeTx records statements and copied rows. Methods the sink never calls
// hit the nil embedded interface and panic.
type fakeTx struct {
	pgx.Tx

	execs      []string
	execArgs   [][]any
	copied     map[string]int
	copyErr    error
	committed  bool
	rolledBack bool
}

func (f *fakeTx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, sql)
	f.execArgs = append(f.execArgs, args)
	return pgconn.NewCommandTag("OK"), nil
}

func (f *fakeTx) CopyFrom(_ context.Context, table pgx.Identifier, _ []string, src pgx.CopyFromSource) (int64, error) {
	if f.copyErr != nil {
		return 0, f.copyErr
	}
	var n int64
	for src.Next() {
		if _, err := src.Values(); err != nil {
			return n, err
		}
		n++
	}
	f.copied[table.Sanitize()] += int(n)
	return n, nil
}

func (f *fakeTx) Commit(context.Context) error {
	f.committed = true
	return nil
}

func (f *fakeTx) Rollback(context.Context) error {
	if !f.committed {
		f.rolledBack = true
	}
	return nil
}

type fakeBeginner struct {
	tx    *fakeTx
	begun int
}

func (b *fakeBeginner) Begin(context.Context) (pgx.Tx, error) {
	b.begun++
	return b.tx, nil
}

func TestPostgresSink(t *testing.T) {
	Convey("Given a postgres sink over a fake transaction", t, func() {
		ctx := context.Background()
		db := &fakeBeginner{tx: &fakeTx{copied: map[string]int{}}}
		s := sink.NewPostgres(db)
		So(s.Name(), ShouldEqual, sink.KindPostgres)

		Convey("When writing two games", func() {
			res := result(20001, 60)
			more := result(20002, 30)
			res.Players = append(res.Players, more.Players...)
			res.Teams = append(res.Teams, more.Teams...)
			So(s.Write(ctx, res), ShouldBeNil)

			Convey("Then tables are created and the games' rows replaced", func() {
				tx := db.tx
				So(tx.committed, ShouldBeTrue)
				So(len(tx.execs), ShouldEqual, 4)
				So(tx.execs[0], ShouldContainSubstring, "create table if not exists player_toi")
				So(tx.execs[2], ShouldStartWith, `delete from "player_toi"`)
				So(tx.execArgs[2][0], ShouldResemble, []int{20001, 20002})
				So(strings.Contains(tx.execs[3], `"team_toi"`), ShouldBeTrue)
			})

			Convey("And every row is copied", func() {
				So(db.tx.copied[`"player_toi"`], ShouldEqual, 4)
				So(db.tx.copied[`"team_toi"`], ShouldEqual, 2)
			})
		})

		Convey("When the copy fails", func() {
			db.tx.copyErr = errors.New("connection reset")
			err := s.Write(ctx, result(20001, 60))

			Convey("Then the transaction rolls back", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "copy player_toi")
				So(db.tx.rolledBack, ShouldBeTrue)
				So(db.tx.committed, ShouldBeFalse)
			})
		})

		Convey("When the result is empty", func() {
			So(s.Write(ctx, combine.Result{}), ShouldBeNil)
			So(db.begun, ShouldEqual, 0)
		})

		Convey("When closing a sink that does not own a pool", func() {
			So(s.Close(), ShouldBeNil)
		})
	})
}
