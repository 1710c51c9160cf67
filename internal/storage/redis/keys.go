package redis

import "fmt"

// Key prefix for all archived data
const keyPrefix = "bingo"

// roundsKey returns the Redis key for the LIST of archived rounds, newest first
func roundsKey() string {
	return fmt.Sprintf("%s:rounds", keyPrefix)
}
