package source_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/icetime/internal/adapters/source"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPostgresSource(t *testing.T) {
	Convey("Given a Postgres source", t, func() {
		Convey("When the table name needs quoting", func() {
			p := source.NewPostgres(nil, source.WithTable(`shifts"; drop table x`))

			Convey("Then it is sanitized as an identifier", func() {
				So(p.Query(), ShouldContainSubstring, `from "shifts""; drop table x"`)
			})
		})

		Convey("When no table is configured", func() {
			p := source.NewPostgres(nil, source.WithTable(""))
			So(p.Query(), ShouldContainSubstring, `from "shifts"`)
		})

		Convey("When the date range is malformed", func() {
			_, err := source.NewPostgres(nil, source.WithDateRange("2018-13-01", "2019-04-06")).Load(context.Background())
			So(errors.Is(err, source.ErrDateRange), ShouldBeTrue)
		})

		Convey("When the range is reversed", func() {
			_, err := source.NewPostgres(nil, source.WithDateRange("2019-04-06", "2018-10-03")).Load(context.Background())
			So(errors.Is(err, source.ErrDateRange), ShouldBeTrue)
		})
	})
}
