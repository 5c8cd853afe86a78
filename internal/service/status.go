package service

import "asur-wears/internal/models"

// statusRank orders the forward lifecycle. Cancelled sits outside it.
var statusRank = map[models.OrderStatus]int{
	models.OrderStatusPending:    0,
	models.OrderStatusConfirmed:  1,
	models.OrderStatusProcessing: 2,
	models.OrderStatusShipped:    3,
	models.OrderStatusDelivered:  4,
}

// KnownStatus reports whether s is an order status
func KnownStatus(s models.OrderStatus) bool {
	_, ok := statusRank[s]
	return ok || s == models.OrderStatusCancelled
}

// Terminal reports whether no transition leaves s
func Terminal(s models.OrderStatus) bool {
	return s == models.OrderStatusDelivered || s == models.OrderStatusCancelled
}

// CanTransition reports whether an order may move from one status to
// another. Orders only move forward, possibly skipping steps, and can be
// cancelled until they ship.
func CanTransition(from, to models.OrderStatus) bool {
	if from == to || Terminal(from) || !KnownStatus(from) {
		return false
	}
	if to == models.OrderStatusCancelled {
		return statusRank[from] <= statusRank[models.OrderStatusProcessing]
	}
	toRank, ok := statusRank[to]
	return ok && toRank > statusRank[from]
}
