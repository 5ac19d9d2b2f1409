package uuid

import (
	google_uuid "github.com/google/uuid"
)

// UUID wraps google/uuid so that it can be bound from URI parameters.
type UUID struct {
	google_uuid.UUID
}

var Nil UUID

func New() UUID {
	return UUID{google_uuid.New()}
}

// UnmarshalParam implements gin's binding.BindUnmarshaler so that URI and
// form parameters bind into a UUID. gin does not support binding into
// google/uuid directly, see https://github.com/gin-gonic/gin/pull/3045.
func (u *UUID) UnmarshalParam(p string) error {
	if p == "" {
		*u = Nil
		return nil
	}

	parsed, err := google_uuid.Parse(p)
	if err != nil {
		return err
	}

	*u = UUID{parsed}
	return nil
}
