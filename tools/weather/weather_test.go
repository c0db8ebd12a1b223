package weather

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func lookup(t *testing.T, city string) (string, string) {
	t.Helper()
	args, err := json.Marshal(map[string]string{"city": city})
	if err != nil {
		t.Fatal(err)
	}
	res, err := New().Execute(context.Background(), "get_weather", args)
	if err != nil {
		t.Fatalf("Execute(%q): %v", city, err)
	}
	return res.Content, res.Error
}

func TestKnownCity(t *testing.T) {
	content, errMsg := lookup(t, "London")
	if errMsg != "" {
		t.Fatalf("unexpected error %q", errMsg)
	}
	if !strings.Contains(content, "Weather in London") {
		t.Errorf("content = %q, want city report", content)
	}
}

func TestLookupIsCaseInsensitive(t *testing.T) {
	for _, city := range []string{"tokyo", "Tokyo", "TOKYO"} {
		content, errMsg := lookup(t, city)
		if errMsg != "" {
			t.Errorf("%q: unexpected error %q", city, errMsg)
			continue
		}
		if !strings.Contains(content, "Partly cloudy") {
			t.Errorf("%q: content = %q, want tokyo conditions", city, content)
		}
	}
}

func TestUnknownCity(t *testing.T) {
	content, errMsg := lookup(t, "Atlantis")
	if errMsg != "" {
		t.Fatalf("unknown city should not be an error, got %q", errMsg)
	}
	if !strings.Contains(content, "No weather data available") {
		t.Errorf("content = %q, want fallback message", content)
	}
	if !strings.Contains(content, "london") {
		t.Errorf("content = %q, want known-city listing", content)
	}
}

func TestMissingCity(t *testing.T) {
	res, err := New().Execute(context.Background(), "get_weather", json.RawMessage(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	if res.Error == "" {
		t.Error("want error for missing city")
	}
}

func TestUnknownName(t *testing.T) {
	res, err := New().Execute(context.Background(), "get_forecast", json.RawMessage(`{"city":"London"}`))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.Error, "unknown weather tool") {
		t.Errorf("error = %q, want unknown tool", res.Error)
	}
}
