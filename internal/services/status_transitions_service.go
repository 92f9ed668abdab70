package services

import "pipeline/internal/models"

// Allowed deal status changes. Same-status writes and won<->lost are not
// listed and are rejected.
var DealTransitions = map[models.DealStatus]map[models.DealStatus]bool{
	models.DealOpen: {models.DealWon: true, models.DealLost: true},
	models.DealWon:  {models.DealOpen: true},
	models.DealLost: {models.DealOpen: true},
}

// closingTransitions is DealTransitions without the reopen edges.
var closingTransitions = map[models.DealStatus]map[models.DealStatus]bool{
	models.DealOpen: {models.DealWon: true, models.DealLost: true},
	models.DealWon:  {},
	models.DealLost: {},
}

func canTransition(current, to models.DealStatus, table map[models.DealStatus]map[models.DealStatus]bool) bool {
	nexts, ok := table[current]
	if !ok {
		return false
	}
	return nexts[to]
}
