// exposes a Store interface that is passed to API modules
package db

import (
	"github.com/jmoiron/sqlx"

	"github.com/hilaltech/miqat/internal/model"
)

type Store interface {
	// user functions
	CreateUser(email, hashedPassword string, name *string) (int, error)
	GetUserByEmail(email string) (*model.User, error)
	GetUserByID(id int) (*model.User, error)
	UpdateUserProfile(id int, email string, name *string) error

	// screen functions
	CreateScreen(name string, location *string, createdBy int) (model.Screen, error)
	GetScreenByID(id int) (model.Screen, error)
	GetScreenByDeviceID(deviceID *string) (model.Screen, error)
	IsScreenPairedByDeviceID(deviceID *string) (bool, error)
	ListScreens() ([]model.Screen, error)
	UpdateScreen(id int, name, location *string) error
	UpdateScreenLocation(id int, location string, latitude, longitude float64) error
	PairScreen(id int) error
	AssignDeviceIDToScreen(screenID int, deviceID *string) error
	DeleteScreen(id int) error
}

type pgStore struct {
	db *sqlx.DB
}

// compile-time check that pgStore implements Store
var _ Store = (*pgStore)(nil)

func NewStore() Store {
	return &pgStore{db: DB}
}
