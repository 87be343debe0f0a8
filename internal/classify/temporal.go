package classify

import "time"

// Each matcher reports whether cell parses end-to-end against one Go reference
// layout. time.Parse already rejects trailing/leading garbage, so a successful
// parse is sufficient to call the pattern a match.

func matchDateTimeT(cell string) bool {
	_, err := time.Parse("2006-01-02T15:04:05", cell)
	return err == nil
}

func matchDateTimeSpaceSeconds(cell string) bool {
	_, err := time.Parse("2006-01-02 15:04:05", cell)
	return err == nil
}

func matchDateTimeSpaceMinutes(cell string) bool {
	_, err := time.Parse("2006-01-02 15:04", cell)
	return err == nil
}

func matchDate(cell string) bool {
	_, err := time.Parse("2006-01-02", cell)
	return err == nil
}

func matchDMY(cell string) bool {
	_, err := time.Parse("02/01/2006", cell)
	return err == nil
}

func matchTimeSeconds(cell string) bool {
	_, err := time.Parse("15:04:05", cell)
	return err == nil
}

func matchTimeMinutes(cell string) bool {
	_, err := time.Parse("15:04", cell)
	return err == nil
}
