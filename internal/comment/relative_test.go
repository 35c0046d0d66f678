package comment

import (
	"testing"
	"time"
)

func TestRelativeTime(t *testing.T) {
	now := time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		elapsed time.Duration
		want    string
	}{
		{"zero", 0, "just now"},
		{"future", -time.Hour, "just now"},
		{"59s", 59 * time.Second, "just now"},
		{"59.9s floors", 59*time.Second + 900*time.Millisecond, "just now"},
		{"60s", 60 * time.Second, "1 minute ago"},
		{"119s", 119 * time.Second, "1 minute ago"},
		{"120s", 120 * time.Second, "2 minutes ago"},
		{"3599s", 3599 * time.Second, "59 minutes ago"},
		{"3600s", 3600 * time.Second, "1 hour ago"},
		{"7200s", 7200 * time.Second, "2 hours ago"},
		{"86399s", 86399 * time.Second, "23 hours ago"},
		{"86400s", 86400 * time.Second, "1 day ago"},
		{"604799s", 604799 * time.Second, "6 days ago"},
		{"604800s", 604800 * time.Second, "Mar 8, 2024"},
		{"months", 90 * 24 * time.Hour, "Dec 16, 2023"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RelativeTime(now.Add(-tt.elapsed), now)
			if got != tt.want {
				t.Errorf("RelativeTime(-%v) = %q, want %q", tt.elapsed, got, tt.want)
			}
		})
	}
}
