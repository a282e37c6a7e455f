// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях бота.
// Эти ошибки позволяют обработчикам различать типы проблем
// и отправлять пользователю понятные сообщения.
package common

import "errors"

// Ошибки участников
var (
	// ErrUserNotFound — пользователь не найден в базе
	ErrUserNotFound = errors.New("пользователь не найден")
	// ErrInvalidTimezone — неизвестный часовой пояс
	ErrInvalidTimezone = errors.New("неизвестный часовой пояс")
)

// Ошибки очков
var (
	// ErrInvalidAmount — некорректная сумма (ноль или отрицательная)
	ErrInvalidAmount = errors.New("сумма должна быть положительной")
)

// Ошибки сессий
var (
	// ErrUnknownActivity — вид активности не поддерживается
	ErrUnknownActivity = errors.New("неизвестный вид активности")
	// ErrNoOpenSession — нет начатой сессии, которую можно завершить
	ErrNoOpenSession = errors.New("нет начатой сессии")
	// ErrNoCompletedSession — нечего оценивать
	ErrNoCompletedSession = errors.New("нет завершённых сессий")
	// ErrInvalidRating — оценка вне диапазона 1..5
	ErrInvalidRating = errors.New("оценка должна быть от 1 до 5")
	// ErrFeatureDisabled — функция отключена в настройках
	ErrFeatureDisabled = errors.New("функция временно отключена")
)

// Ошибки празднований
var (
	// ErrUnknownEventType — тип события отсутствует в каталоге
	ErrUnknownEventType = errors.New("неизвестный тип события")
	// ErrUnknownBadge — бейдж отсутствует в каталоге
	ErrUnknownBadge = errors.New("неизвестный бейдж")
	// ErrCelebrationNotFound — празднование не найдено (или чужое)
	ErrCelebrationNotFound = errors.New("празднование не найдено")
)

// Ошибки админки
var (
	// ErrNotAdmin — пользователь не является администратором
	ErrNotAdmin = errors.New("у вас нет прав администратора")
	// ErrWrongPassword — неверный пароль
	ErrWrongPassword = errors.New("неверный пароль")
	// ErrTooManyAttempts — слишком много неудачных попыток входа
	ErrTooManyAttempts = errors.New("слишком много попыток, подождите 1 час")
	// ErrSessionExpired — сессия истекла
	ErrSessionExpired = errors.New("сессия истекла, авторизуйтесь заново")
)
