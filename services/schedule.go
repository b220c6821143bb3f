package services

import (
	"fmt"
	"time"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/kidtube-labs/kidtube_api/model"
	"github.com/kidtube-labs/kidtube_api/shared"
)

// ScheduleService evaluates allowed-hours windows and the per-kid bedtime
// window. All comparisons are wraparound-aware: a window whose start is
// later than its end spans midnight.
type ScheduleService struct {
	context.DefaultService

	sqlSvc *SqliteService
}

const SCHEDULE_SVC = "schedule_svc"

func (svc ScheduleService) Id() string {
	return SCHEDULE_SVC
}

func (svc *ScheduleService) Configure(ctx *context.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *ScheduleService) Start() error {
	svc.sqlSvc = svc.Service(SQLITE_SVC).(*SqliteService)
	return nil
}

// InSchedule reports whether now falls inside at least one schedule window
// for the kid's weekday. A day with no rows is unrestricted. Malformed rows
// contribute no constraint: they are skipped with a warning, and if every
// row for the day is malformed the day degrades to unrestricted.
func (svc *ScheduleService) InSchedule(kidID string, now time.Time) (bool, error) {
	kid, err := svc.sqlSvc.GetKid(kidID)
	if err != nil {
		return false, svc.sqlSvc.HandleError(err)
	}
	if kid == nil {
		return false, shared.NewNotFoundError(fmt.Errorf("kid %s", kidID), "Kid not found")
	}

	schedules, err := svc.sqlSvc.GetKidSchedules(kidID, weekday(now))
	if err != nil {
		return false, svc.sqlSvc.HandleError(err)
	}
	if len(schedules) == 0 {
		return true, nil
	}

	nowMinutes := minutesOfDay(now)
	valid := 0
	for _, schedule := range schedules {
		start, end, err := parseWindow(schedule.StartTime, schedule.EndTime)
		if err != nil {
			log.WithFields(log.Fields{
				"schedule_id": schedule.ID,
				"kid_id":      kidID,
				"error":       err.Error(),
			}).Warn("Skipping malformed schedule window")
			continue
		}
		valid++
		if windowContains(start, end, nowMinutes) {
			return true, nil
		}
	}

	if valid == 0 {
		return true, nil
	}
	return false, nil
}

// InBedtime reports whether now falls inside the kid's bedtime window.
// Bedtime is independent of the schedule and blocks unconditionally when
// active. A kid without both bounds configured has no bedtime.
func (svc *ScheduleService) InBedtime(kid *model.Kid, now time.Time) bool {
	if kid.BedtimeStart == nil || kid.BedtimeEnd == nil {
		return false
	}

	start, end, err := parseWindow(*kid.BedtimeStart, *kid.BedtimeEnd)
	if err != nil {
		log.WithFields(log.Fields{
			"kid_id": kid.ID,
			"error":  err.Error(),
		}).Warn("Skipping malformed bedtime window")
		return false
	}

	return windowContains(start, end, minutesOfDay(now))
}

// weekday maps Go's Sunday-based weekday onto the stored Monday=0 layout.
func weekday(now time.Time) int {
	return (int(now.Weekday()) + 6) % 7
}

func minutesOfDay(now time.Time) int {
	return now.Hour()*60 + now.Minute()
}

func parseWindow(startTime, endTime string) (int, int, error) {
	start, err := parseClock(startTime)
	if err != nil {
		return 0, 0, err
	}
	end, err := parseClock(endTime)
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func parseClock(value string) (int, error) {
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", value, err)
	}
	return parsed.Hour()*60 + parsed.Minute(), nil
}

// windowContains compares minutes-of-day with overnight wraparound: when the
// window starts after it ends it spans midnight, so now matches either tail.
func windowContains(start, end, now int) bool {
	if start <= end {
		return start <= now && now <= end
	}
	return now >= start || now <= end
}
