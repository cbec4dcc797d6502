package usecase

import (
	"errors"
	"fmt"
)

var ErrRepository = errors.New("repository error")

func wrapRepo(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrRepository, err)
}
