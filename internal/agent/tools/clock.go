package tools

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"
)

// TimeToolName is the registry name of the time tool.
const TimeToolName = "get_current_time"

// timeLayout renders like strftime "%Y-%m-%d %H:%M:%S %Z%z".
const timeLayout = "2006-01-02 15:04:05 MST-0700"

// Clock returns the current time. Tests inject a fixed clock.
type Clock func() time.Time

// knownZones maps lower-cased city names to IANA zones.
var knownZones = map[string]string{
	"new york": "America/New_York",
}

// GetCurrentTime reports the time in city as seen from now.
func GetCurrentTime(now time.Time, city string) Report {
	zone, ok := knownZones[strings.ToLower(city)]
	if !ok {
		return errorReport(fmt.Sprintf("Sorry, I don't have timezone information for %s.", city))
	}

	loc, err := time.LoadLocation(zone)
	if err != nil {
		return errorReport(fmt.Sprintf("Sorry, the timezone database has no entry for %s.", zone))
	}

	return successReport(fmt.Sprintf("The current time in %s is %s", city, now.In(loc).Format(timeLayout)))
}

// NewTimeTool creates the get_current_time tool. A nil clock uses time.Now.
func NewTimeTool(clock Clock) (tool.Tool, error) {
	if clock == nil {
		clock = time.Now
	}
	return functiontool.New(functiontool.Config{
		Name:        TimeToolName,
		Description: "Returns the current time in a specified city. Returns status and report, or an error message.",
	}, func(_ tool.Context, args CityArgs) (Report, error) {
		return GetCurrentTime(clock(), args.City), nil
	})
}
