// Package schedule computes upcoming run times from a cron expression.
// Triggering is left to the platform scheduler; this only feeds status
// display.
package schedule

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// NextRun returns the first run time after from for the given cron
// expression. An empty timezone or "Local" uses the local zone.
func NextRun(expression, timezone string, from time.Time) (time.Time, error) {
	sched, err := parser.Parse(expression)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing schedule %q: %w", expression, err)
	}

	loc := time.Local
	if timezone != "" && timezone != "Local" {
		loc, err = time.LoadLocation(timezone)
		if err != nil {
			return time.Time{}, fmt.Errorf("loading timezone %q: %w", timezone, err)
		}
	}
	return sched.Next(from.In(loc)), nil
}
