package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Europe/London")
	if err != nil {
		panic(err)
	}
}

// gameweek deadlines and session timestamps follow UK time,
// so pin the clock there regardless of where the process runs
func Now() time.Time {
	return time.Now().In(Location)
}
