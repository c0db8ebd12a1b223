// Package weather provides a current-conditions lookup tool backed by a
// static city table. It stands in for a real weather API during
// development; swap the table for an HTTP client when wiring a provider.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	lumen "github.com/pratama/lumen"
)

// Tool reports current weather conditions for known cities.
type Tool struct {
	conditions map[string]string
}

// New creates a weather tool with the default city table.
func New() *Tool {
	return &Tool{conditions: defaultConditions}
}

var _ lumen.Tool = (*Tool)(nil)

var defaultConditions = map[string]string{
	"london":        "Cloudy, 14°C, light drizzle expected in the afternoon.",
	"new york":      "Sunny, 22°C, clear skies all day.",
	"tokyo":         "Partly cloudy, 19°C, humid with a chance of evening showers.",
	"paris":         "Overcast, 16°C, occasional light rain.",
	"singapore":     "Thunderstorms, 29°C, heavy rain expected through the evening.",
	"san francisco": "Foggy, 15°C, clearing by midday.",
	"sydney":        "Sunny, 25°C, light coastal breeze.",
	"jakarta":       "Hot and humid, 32°C, scattered afternoon thunderstorms.",
}

func (t *Tool) Definitions() []lumen.ToolDefinition {
	return []lumen.ToolDefinition{
		{
			Name:        "get_weather",
			Description: "Get the current weather conditions for a city. Returns a short human-readable report.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"city": {
						"type": "string",
						"description": "City name, e.g. \"London\" or \"New York\""
					}
				},
				"required": ["city"]
			}`),
		},
	}
}

type weatherArgs struct {
	City string `json:"city"`
}

func (t *Tool) Execute(ctx context.Context, name string, args json.RawMessage) (lumen.ToolResult, error) {
	if name != "get_weather" {
		return lumen.ToolResult{Error: "unknown weather tool: " + name}, nil
	}
	var a weatherArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return lumen.ToolResult{Error: "invalid args: " + err.Error()}, nil
	}
	city := strings.TrimSpace(a.City)
	if city == "" {
		return lumen.ToolResult{Error: "city is required"}, nil
	}

	report, ok := t.conditions[strings.ToLower(city)]
	if !ok {
		return lumen.ToolResult{
			Content: fmt.Sprintf("No weather data available for %q. Known cities: %s.", city, knownCities(t.conditions)),
		}, nil
	}
	return lumen.ToolResult{Content: fmt.Sprintf("Weather in %s: %s", city, report)}, nil
}

func knownCities(conditions map[string]string) string {
	names := make([]string, 0, len(conditions))
	for name := range conditions {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
