package config

import (
	"github.com/recoilme/pudge"
)

// PrefsDB holds the few persisted view preferences. Everything else is
// fetched fresh from the server on every action.
var PrefsDB *pudge.Db

const keyLastUser = "last_user"

func OpenPrefs(file string) (*pudge.Db, error) {
	cfg := &pudge.Config{
		SyncInterval: 1} // every second fsync
	mydb, err := pudge.Open(file, cfg)
	return mydb, err
}

// GetLastUser returns the Plex user id selected on the previous run,
// empty if none was ever stored.
func GetLastUser() string {
	if PrefsDB == nil {
		return ""
	}
	var user string
	has, err := PrefsDB.Has(keyLastUser)
	if err != nil || !has {
		return ""
	}
	if err := PrefsDB.Get(keyLastUser, &user); err != nil {
		return ""
	}
	return user
}

func SetLastUser(user string) error {
	if PrefsDB == nil {
		return nil
	}
	return PrefsDB.Set(keyLastUser, user)
}
