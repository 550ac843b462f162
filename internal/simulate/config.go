// Package simulate drives a running league server with concurrent event
// submissions and checks that scores moved exactly by the points logged.
package simulate

import "time"

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL       string        // Base URL of the service
	NumEvents     int           // Number of log submissions to send
	Workers       int           // Number of concurrent workers
	Timeout       time.Duration // HTTP request timeout
	DuplicateRate float64       // Share of submissions that replay an earlier Idempotency-Key
	Seed          uint64        // Random seed; zero picks one from the clock
	Verbose       bool
}

// Stats holds simulation statistics.
type Stats struct {
	Submitted  int
	Logged     int
	Duplicates int
	Failed     int
	Players    int
	Members    int
	Duration   time.Duration
}

// player mirrors the leaderboard rows returned by the API.
type player struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Score   int    `json:"score"`
	Members []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"members"`
}

type definition struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Points int    `json:"points"`
}

type loggedEvent struct {
	PlayerName string `json:"playerName"`
	Points     int    `json:"points"`
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// submission is one POST /api/logged-events call.
type submission struct {
	MemberID string `json:"memberId"`
	EventID  string `json:"eventId"`
	key      string
}
