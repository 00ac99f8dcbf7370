package core

import "time"

// User is the durable record for one signed-in identity. There is at most
// one User per distinct profile URL.
type User struct {
	ID        string
	URL       string
	CreatedAt time.Time
	LastLogin time.Time
}
