package tools

import (
	"fmt"
	"strings"

	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"
)

// WeatherToolName is the registry name of the weather tool.
const WeatherToolName = "get_weather"

// GetWeather returns a canned report for New York and an error record for
// any other city.
func GetWeather(city string) Report {
	if strings.ToLower(city) == "new york" {
		return successReport("The weather in New York is sunny with a temperature of 25 degrees" +
			" Celsius (77 degrees Fahrenheit).")
	}
	return errorReport(fmt.Sprintf("Weather information for '%s' is not available.", city))
}

// NewWeatherTool creates the get_weather tool.
func NewWeatherTool() (tool.Tool, error) {
	return functiontool.New(functiontool.Config{
		Name:        WeatherToolName,
		Description: "Retrieves the current weather report for a specified city. Returns status and report, or an error message.",
	}, func(_ tool.Context, args CityArgs) (Report, error) {
		return GetWeather(args.City), nil
	})
}
