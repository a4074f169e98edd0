package postgresadapter

import "time"

// SystemClock supplies wall-clock time for production wiring.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
