package repository

import "time"

func timeNow() time.Time {
	return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
}
