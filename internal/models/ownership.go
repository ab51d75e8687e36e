package models

// Published is implemented by entities that have a single publisher.
type Published interface {
	PublisherID() uint
}

// CanModify reports whether requesterID may update or delete entity.
// Only the publisher can; anonymous requesters (ID 0) never can.
func CanModify(requesterID uint, entity Published) bool {
	if entity == nil || requesterID == 0 {
		return false
	}
	return entity.PublisherID() == requesterID
}
