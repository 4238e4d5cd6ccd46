package database

import "devhabit/internal/models"

// PersistentModels lists the tables ApplySchema and cmd/migrate manage, in
// creation order: accounts, then their goals, then each goal's library.
func PersistentModels() []interface{} {
	return []interface{}{&models.User{}, &models.Goal{}, &models.Library{}}
}
