package domain

import "errors"

var (
	// Ошибки валидации (до обращения к хранилищу)
	ErrInvalidRating = errors.New("required rating must be greater than start rating")

	// Ошибки не найденных сущностей
	ErrUserNotFound        = errors.New("user not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrBoosterNotFound     = errors.New("booster not found")
	ErrApplicationNotFound = errors.New("application not found")

	// Ошибки прав доступа
	ErrNotOrderOwner = errors.New("actor is not the order owner")

	// Конфликты состояний (в т.ч. проигранные гонки)
	ErrActiveOrderExists        = errors.New("you cannot create new order with other active order")
	ErrOrderHasBooster          = errors.New("cannot close an order with an active booster assignment")
	ErrOrderUnavailable         = errors.New("order is closed or already taken")
	ErrBoosterBusy              = errors.New("already taken other order")
	ErrNoActiveOrder            = errors.New("no active order")
	ErrPendingApplicationExists = errors.New("you cannot create new application with other active applications")
	ErrWrongApplicationStatus   = errors.New("application status is wrong")
	ErrUsernameTaken            = errors.New("username already exists")
)

// IsConflict - все ошибки, которые должны отдаваться клиенту как 409
func IsConflict(err error) bool {
	for _, e := range []error{
		ErrActiveOrderExists,
		ErrOrderHasBooster,
		ErrOrderUnavailable,
		ErrBoosterBusy,
		ErrNoActiveOrder,
		ErrPendingApplicationExists,
		ErrWrongApplicationStatus,
		ErrUsernameTaken,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

func IsNotFound(err error) bool {
	for _, e := range []error{
		ErrUserNotFound,
		ErrOrderNotFound,
		ErrBoosterNotFound,
		ErrApplicationNotFound,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
