package model_test

import (
	"errors"
	"testing"

	model "github.com/okian/icetime/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func validShift() model.Shift {
	return model.Shift{
		Player:   "AUSTON MATTHEWS",
		PlayerID: 8479318,
		Position: "C",
		GameID:   20001,
		Date:     "2018-10-03",
		Team:     "TOR",
		Period:   1,
		Start:    0,
		End:      45,
		Duration: 45,
	}
}

func TestShiftValidate(t *testing.T) {
	convey.Convey("Given a shift", t, func() {
		convey.Convey("When every field is well formed", func() {
			convey.So(validShift().Validate(), convey.ShouldBeNil)
		})

		convey.Convey("When the shift has zero duration", func() {
			s := validShift()
			s.Start, s.End, s.Duration = 30, 30, 0

			convey.Convey("Then it is still valid", func() {
				convey.So(s.Validate(), convey.ShouldBeNil)
			})
		})

		cases := []struct {
			name   string
			mutate func(*model.Shift)
			want   error
		}{
			{"missing player id", func(s *model.Shift) { s.PlayerID = 0 }, model.ErrMissingPlayerID},
			{"blank team", func(s *model.Shift) { s.Team = "  " }, model.ErrMissingTeam},
			{"missing game id", func(s *model.Shift) { s.GameID = 0 }, model.ErrMissingGameID},
			{"period zero", func(s *model.Shift) { s.Period = 0 }, model.ErrInvalidPeriod},
			{"negative start", func(s *model.Shift) { s.Start = -1 }, model.ErrNegativeTime},
			{"negative duration", func(s *model.Shift) { s.Duration = -4 }, model.ErrNegativeDuration},
			{"start after end", func(s *model.Shift) { s.Start = 50 }, model.ErrStartAfterEnd},
			{"period past the clock", func(s *model.Shift) { s.Period = 50000 }, model.ErrInvalidPeriod},
			{"end past the period", func(s *model.Shift) { s.End = 50_000_000 }, model.ErrTimeOutOfRange},
			{"end one second past the period", func(s *model.Shift) { s.End = model.PeriodSeconds + 1 }, model.ErrTimeOutOfRange},
		}
		for _, tc := range cases {
			convey.Convey("When the shift has "+tc.name, func() {
				s := validShift()
				tc.mutate(&s)
				err := s.Validate()

				convey.Convey("Then it is rejected with the matching sentinel", func() {
					convey.So(errors.Is(err, tc.want), convey.ShouldBeTrue)
					convey.So(model.Reason(err), convey.ShouldNotEqual, "other")
				})
			})
		}
	})
}

func TestLengthValidate(t *testing.T) {
	convey.Convey("Given game lengths", t, func() {
		convey.Convey("When they sit on the game clock", func() {
			convey.So(model.Length{Period: 3, End: model.PeriodSeconds}.Validate(), convey.ShouldBeNil)
			convey.So(model.Length{Period: model.MaxPeriod, End: 0}.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("When they fall outside it", func() {
			for _, l := range []model.Length{
				{Period: 0, End: 10},
				{Period: model.MaxPeriod + 1, End: 10},
				{Period: 900000, End: 10},
				{Period: 4, End: -1},
				{Period: 4, End: model.PeriodSeconds + 1},
			} {
				err := l.Validate()
				convey.So(errors.Is(err, model.ErrInvalidLength), convey.ShouldBeTrue)
				convey.So(model.Reason(err), convey.ShouldEqual, "invalid_length")
			}
		})
	})
}

func TestShiftHelpers(t *testing.T) {
	convey.Convey("Given shift helpers", t, func() {
		convey.Convey("Then goalies are detected case-insensitively", func() {
			s := validShift()
			convey.So(s.IsGoalie(), convey.ShouldBeFalse)
			s.Position = "g"
			convey.So(s.IsGoalie(), convey.ShouldBeTrue)
		})

		convey.Convey("Then keys differ only when identifying fields differ", func() {
			a, b := validShift(), validShift()
			b.Player = "A. MATTHEWS"
			convey.So(a.Key(), convey.ShouldEqual, b.Key())
			b.End = 46
			convey.So(a.Key(), convey.ShouldNotEqual, b.Key())
		})

		convey.Convey("Then the playoff threshold is 30000", func() {
			convey.So(model.IsPlayoffGame(21271), convey.ShouldBeFalse)
			convey.So(model.IsPlayoffGame(30000), convey.ShouldBeTrue)
			convey.So(model.Game{ID: 30411}.IsPlayoff(), convey.ShouldBeTrue)
		})

		convey.Convey("Then unknown errors map to other", func() {
			convey.So(model.Reason(errors.New("boom")), convey.ShouldEqual, "other")
		})
	})
}
