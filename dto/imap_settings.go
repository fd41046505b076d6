package dto

import "time"

// IMAPSettings is the polling contract, rebuilt from the settings store at the
// start of every poll cycle.
type IMAPSettings struct {
	Host         string
	Port         int
	Username     string
	Password     string
	Mailbox      string
	PollInterval time.Duration
}

// Configured reports whether enough credentials exist to poll at all. When
// false, polling is disabled entirely rather than retried.
func (s IMAPSettings) Configured() bool {
	return s.Host != "" && s.Username != "" && s.Password != ""
}
