package services

import (
	"questmatch/app/models"
)

// Compatible reports whether the candidate players may be matched
// together: no player may appear on another player's avoid list, in
// either direction. Preferred-opponent lists are informational only and
// are not consulted here.
func Compatible(players []models.QueueEntry) bool {
	for i := range players {
		for j := range players {
			if i == j {
				continue
			}
			if players[i].Avoids(players[j].UserID) {
				return false
			}
		}
	}
	return true
}
