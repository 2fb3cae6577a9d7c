// Package playback содержит контроллер воспроизведения: единственного владельца
// аудиоресурса среди списка треков
package playback

import "context"

// Track описывает воспроизводимый трек. Контроллер хранит копию только для чтения
type Track struct {
	ID        string
	StreamURL string
	Title     string
	Artist    string
}

// Handle - эксклюзивная ссылка на один живой ресурс воспроизведения
type Handle interface {
	// Start запрашивает начало воспроизведения и блокируется до успеха или ошибки.
	// Контроллер вызывает его вне основного потока управления
	Start(ctx context.Context) error
	// Pause останавливает звук и освобождает ресурс. Повторный вызов безопасен
	Pause()
	// Ended закрывается, когда трек доиграл до конца
	Ended() <-chan struct{}
}

// Audio - платформенный примитив воспроизведения
type Audio interface {
	Load(url string) Handle
}
