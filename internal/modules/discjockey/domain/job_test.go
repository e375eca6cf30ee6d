package domain

import (
	"testing"
	"time"
)

func TestJobStateDerivation(t *testing.T) {
	now := time.Now().UTC()
	later := now.Add(3 * time.Minute)

	tests := []struct {
		name  string
		start *time.Time
		end   *time.Time
		want  JobState
	}{
		{"unclaimed", nil, nil, JobStateQueued},
		{"claimed", &now, nil, JobStatePlaying},
		{"finished", &now, &later, JobStatePlayed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := Job{StartTime: tt.start, EndTime: tt.end}
			if got := job.State(); got != tt.want {
				t.Errorf("State() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewJob(t *testing.T) {
	payload := MediaReference{Name: "test", URL: "https://example.com"}
	job := NewJob(123, payload)

	if job.GuildID != 123 {
		t.Errorf("expected guild 123, got %d", job.GuildID)
	}
	if job.Priority != DefaultPriority {
		t.Errorf("expected priority %d, got %d", DefaultPriority, job.Priority)
	}
	if job.CreatedOn.IsZero() {
		t.Error("expected CreatedOn to be set")
	}
	if job.State() != JobStateQueued {
		t.Errorf("expected new job to be queued, got %v", job.State())
	}
}

func TestJobStateString(t *testing.T) {
	if JobStateQueued.String() != "queued" {
		t.Error("unexpected string for queued")
	}
	if JobStatePlaying.String() != "playing" {
		t.Error("unexpected string for playing")
	}
	if JobStatePlayed.String() != "played" {
		t.Error("unexpected string for played")
	}
}
