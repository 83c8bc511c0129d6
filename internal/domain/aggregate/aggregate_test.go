package aggregate

import (
	"testing"

	"github.com/okian/pulse/internal/domain/activity"
	"github.com/okian/pulse/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func sampleInputs() Inputs {
	return Inputs{
		Github: activity.GithubYear{
			Days:  map[string]int{"2024-01-02": 3, "2024-01-05": 1},
			Total: 4,
		},
		Strava: activity.StravaYear{
			Days:       map[string]float64{"2024-01-02": 4.5, "2024-01-03": 3.1, "2024-01-09": 0},
			TotalMiles: 7.6,
		},
		Osrs: activity.OsrsYear{
			Days:       map[string]float64{"2024-01-05": 1.25, "2024-01-07": 2},
			TotalHours: 3.25,
		},
	}
}

func TestCombine(t *testing.T) {
	Convey("Given three source calendars", t, func() {
		year := Combine(2024, sampleInputs(), scoring.New())

		Convey("Then the day set is the union of non-zero dates", func() {
			So(year.Year, ShouldEqual, 2024)
			So(len(year.Days), ShouldEqual, 4)
			for _, date := range []string{"2024-01-02", "2024-01-03", "2024-01-05", "2024-01-07"} {
				_, ok := year.Days[date]
				So(ok, ShouldBeTrue)
			}
			_, zero := year.Days["2024-01-09"]
			So(zero, ShouldBeFalse)
		})

		Convey("Then sources absent on a day are zero-filled", func() {
			day := year.Days["2024-01-03"]
			So(day.Github, ShouldResemble, activity.GithubDay{})
			So(day.Osrs, ShouldResemble, activity.OsrsDay{})
			So(day.Strava.Miles, ShouldEqual, 3.1)
		})

		Convey("Then every day's total equals the sum of its source points", func() {
			for _, day := range year.Days {
				So(day.TotalPoints, ShouldEqual, day.Github.Points+day.Strava.Points+day.Osrs.Points)
			}
			day := year.Days["2024-01-02"]
			So(day.Github.Points, ShouldEqual, 3)
			So(day.Strava.Points, ShouldEqual, 1.5)
			So(day.TotalPoints, ShouldEqual, 4.5)
		})

		Convey("Then totals are rounded from unrounded sums", func() {
			So(year.Totals.Github, ShouldEqual, 4)
			So(year.Totals.Strava, ShouldEqual, 2.53)
			So(year.Totals.Osrs, ShouldEqual, 3.25)
			So(year.Totals.Overall, ShouldEqual, 9.78)
		})
	})

	Convey("Given parts that each round to zero", t, func() {
		in := Inputs{
			Github: activity.EmptyGithub(),
			Strava: activity.StravaYear{Days: map[string]float64{"2024-02-01": 0.012}},
			Osrs:   activity.OsrsYear{Days: map[string]float64{"2024-02-03": 0.004}},
		}
		year := Combine(2024, in, nil)

		Convey("Then overall rounds the raw sum, not the rounded parts", func() {
			So(year.Totals.Strava, ShouldEqual, 0)
			So(year.Totals.Osrs, ShouldEqual, 0)
			So(year.Totals.Overall, ShouldEqual, 0.01)
			So(len(year.Days), ShouldEqual, 2)
		})
	})

	Convey("Given all sources empty", t, func() {
		year := Combine(2020, Inputs{Github: activity.EmptyGithub(), Strava: activity.EmptyStrava(), Osrs: activity.EmptyOsrs()}, nil)

		Convey("Then the year is empty with zero totals", func() {
			So(year.Days, ShouldNotBeNil)
			So(len(year.Days), ShouldEqual, 0)
			So(year.Totals, ShouldResemble, activity.Totals{})
		})
	})
}
