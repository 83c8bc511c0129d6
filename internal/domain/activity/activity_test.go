package activity_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/okian/pulse/internal/domain/activity"
	"github.com/smartystreets/goconvey/convey"
)

func TestValidateYear(t *testing.T) {
	convey.Convey("Given the current date in 2026", t, func() {
		now := time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC)

		convey.Convey("When the combined year is inside the bounds", func() {
			convey.So(activity.ValidateYear(activity.SourceCombined, 2000, now), convey.ShouldBeNil)
			convey.So(activity.ValidateYear(activity.SourceCombined, 2026, now), convey.ShouldBeNil)
		})

		convey.Convey("When the combined year is outside the bounds", func() {
			err := activity.ValidateYear(activity.SourceCombined, 1999, now)
			convey.So(errors.Is(err, activity.ErrInvalidYear), convey.ShouldBeTrue)
			err = activity.ValidateYear(activity.SourceCombined, 2027, now)
			convey.So(errors.Is(err, activity.ErrInvalidYear), convey.ShouldBeTrue)
		})

		convey.Convey("When a source has a later lower bound", func() {
			convey.So(activity.ValidateYear(activity.SourceGithub, 2007, now), convey.ShouldNotBeNil)
			convey.So(activity.ValidateYear(activity.SourceGithub, 2008, now), convey.ShouldBeNil)
			convey.So(activity.ValidateYear(activity.SourceOsrs, 2012, now), convey.ShouldNotBeNil)
			convey.So(activity.ValidateYear(activity.SourceOsrs, 2013, now), convey.ShouldBeNil)
			convey.So(activity.ValidateYear(activity.SourceStrava, 2000, now), convey.ShouldBeNil)
		})
	})
}

func TestCalendarHelpers(t *testing.T) {
	convey.Convey("Given calendar helpers", t, func() {
		convey.Convey("YearBounds spans the whole year in UTC", func() {
			from, to := activity.YearBounds(2024)
			convey.So(from.Format(time.RFC3339), convey.ShouldEqual, "2024-01-01T00:00:00Z")
			convey.So(to.Format(time.RFC3339), convey.ShouldEqual, "2024-12-31T23:59:59Z")
		})

		convey.Convey("LocalDate keeps the parsed offset", func() {
			ts, err := time.Parse(time.RFC3339, "2024-03-05T23:30:00-08:00")
			convey.So(err, convey.ShouldBeNil)
			convey.So(activity.LocalDate(ts), convey.ShouldEqual, "2024-03-05")
			convey.So(activity.UTCDate(ts), convey.ShouldEqual, "2024-03-06")
		})

		convey.Convey("Round2 rounds halves up", func() {
			convey.So(activity.Round2(0.333*3), convey.ShouldEqual, 1.0)
			convey.So(activity.Round2(1.005), convey.ShouldBeBetweenOrEqual, 1.0, 1.01)
			convey.So(activity.Round2(2.345678), convey.ShouldEqual, 2.35)
			convey.So(activity.Round2(0), convey.ShouldEqual, 0)
		})
	})
}

func TestFailureKind(t *testing.T) {
	convey.Convey("Given adapter errors", t, func() {
		convey.So(activity.FailureKind(nil), convey.ShouldEqual, "")
		convey.So(activity.FailureKind(fmt.Errorf("github: %w", activity.ErrNotConfigured)), convey.ShouldEqual, activity.KindNotConfigured)
		convey.So(activity.FailureKind(fmt.Errorf("strava: %w", context.DeadlineExceeded)), convey.ShouldEqual, activity.KindTimeout)
		convey.So(activity.FailureKind(fmt.Errorf("%w: status 502", activity.ErrUpstream)), convey.ShouldEqual, activity.KindUpstream)
		convey.So(activity.FailureKind(context.Canceled), convey.ShouldEqual, activity.KindCanceled)
		convey.So(activity.FailureKind(errors.New("weird")), convey.ShouldEqual, activity.KindUnknown)
	})
}

func TestEmptyResultsEncodeAsObjects(t *testing.T) {
	convey.Convey("Given empty source results", t, func() {
		raw, err := json.Marshal(activity.EmptyStrava())
		convey.So(err, convey.ShouldBeNil)
		convey.So(string(raw), convey.ShouldEqual, `{"days":{},"totalMiles":0}`)

		raw, err = json.Marshal(activity.EmptyGithub())
		convey.So(err, convey.ShouldBeNil)
		convey.So(string(raw), convey.ShouldEqual, `{"days":{},"total":0}`)
	})
}
