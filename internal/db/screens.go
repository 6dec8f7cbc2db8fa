package db

import (
	"database/sql"
	"errors"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/hilaltech/miqat/internal/model"
)

func (s *pgStore) GetScreenByID(id int) (model.Screen, error) {
	var screen model.Screen
	err := s.db.Get(&screen, `
		SELECT id, device_id, name, location, latitude, longitude, paired, created_by, created_at, updated_at
		FROM screens
		WHERE id = $1
		`, id)
	if err != nil {
		log.Error().Err(err).Int("screen_id", id).Msg("failed to get screen by id")
	}
	return screen, err
}

func (s *pgStore) GetScreenByDeviceID(deviceID *string) (model.Screen, error) {
	var screen model.Screen
	err := s.db.Get(&screen, `
		SELECT id, device_id, name, location, latitude, longitude, paired, created_by, created_at, updated_at
		FROM screens
		WHERE device_id = $1
		`, deviceID)
	if err != nil {
		log.Error().Err(err).Msg("failed to get screen by device id")
	}
	return screen, err
}

func (s *pgStore) IsScreenPairedByDeviceID(deviceID *string) (bool, error) {
	var isPaired bool
	err := s.db.Get(&isPaired, `
		SELECT paired
		FROM screens
		WHERE device_id = $1
		`, deviceID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return isPaired, err
}

func (s *pgStore) ListScreens() ([]model.Screen, error) {
	var screens []model.Screen
	err := s.db.Select(&screens, `
		SELECT id, device_id, name, location, latitude, longitude, paired, created_by, created_at, updated_at
		FROM screens
		ORDER BY id
		`)
	if err != nil {
		log.Error().Err(err).Msg("failed to list screens")
	}
	return screens, err
}

func (s *pgStore) CreateScreen(name string, location *string, createdBy int) (model.Screen, error) {
	var screen model.Screen
	q := `
	INSERT INTO screens (name, location, paired, created_by, created_at, updated_at)
	VALUES ($1, $2, false, $3, now(), now())
	RETURNING id, device_id, name, location, latitude, longitude, paired, created_by, created_at, updated_at;`
	if err := s.db.Get(&screen, q, name, location, createdBy); err != nil {
		log.Error().Err(err).Msg("failed to create screen")
		return model.Screen{}, err
	}
	return screen, nil
}

func (s *pgStore) UpdateScreen(id int, name, location *string) error {
	_, err := s.db.Exec(`
		UPDATE screens
		SET name = COALESCE($2, name),
		location = COALESCE($3, location),
		updated_at = now()
		WHERE id = $1
		`, id, name, location)
	if err != nil {
		log.Error().Err(err).Int("screen_id", id).Msg("failed to update screen")
	}
	return err
}

// UpdateScreenLocation saves a resolved location so the next session mount
// can compute timings before the device reports a fresh position.
func (s *pgStore) UpdateScreenLocation(id int, location string, latitude, longitude float64) error {
	_, err := s.db.Exec(`
		UPDATE screens
		SET location = $2,
		latitude = $3,
		longitude = $4,
		updated_at = now()
		WHERE id = $1
		`, id, location, latitude, longitude)
	if err != nil {
		log.Error().Err(err).Int("screen_id", id).Msg("failed to save screen location")
	}
	return err
}

func (s *pgStore) PairScreen(id int) error {
	_, err := s.db.Exec(`
		UPDATE screens
		SET paired = TRUE,
		updated_at = now()
		WHERE id = $1
		`, id)
	if err != nil {
		log.Error().Err(err).Int("screen_id", id).Msg("failed to pair screen")
	}
	return err
}

func (s *pgStore) AssignDeviceIDToScreen(screenID int, deviceID *string) error {
	_, err := s.db.Exec(`
		UPDATE screens
		SET device_id = COALESCE($2, device_id),
		updated_at = now()
		WHERE id = $1
		`, screenID, deviceID)
	if err != nil {
		log.Error().Err(err).Int("screen_id", screenID).Msg("failed to assign device ID to screen")
	}
	return err
}

func (s *pgStore) DeleteScreen(id int) error {
	_, err := s.db.Exec(`DELETE FROM screens WHERE id = $1`, id)
	if err != nil {
		log.Error().Err(err).Int("screen_id", id).Msg("failed to delete screen")
	}
	return err
}
