package playback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hazadus/arabes/internal/logger"
)

var (
	// ErrEmptySource возвращается, если у трека нет источника для воспроизведения
	ErrEmptySource = errors.New("у трека отсутствует источник воспроизведения")
	// ErrStartFailure оборачивает ошибку платформы при запуске воспроизведения
	ErrStartFailure = errors.New("не удалось начать воспроизведение")
	// ErrClosed возвращается после закрытия контроллера
	ErrClosed = errors.New("контроллер воспроизведения закрыт")
)

// Token идентифицирует один запрос на воспроизведение
type Token uint64

// EventKind определяет тип события контроллера
type EventKind int

// Типы событий
const (
	EventStarted EventKind = iota + 1
	EventFailed
	EventEnded
	EventStopped
)

func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventFailed:
		return "failed"
	case EventEnded:
		return "ended"
	case EventStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Event - уведомление о завершении асинхронного перехода
type Event struct {
	Kind    EventKind
	Token   Token
	TrackID string
	Err     error
}

// Status - снимок состояния контроллера
type Status struct {
	TrackID        string // Активный трек (только после успешного старта)
	Playing        bool
	Pending        bool   // Запрос на старт отправлен, ответа еще нет
	PendingTrackID string // Трек, ожидающий старта
	Token          Token
}

const eventBufferSize = 16

// session связывает контроллер с одним ресурсом воспроизведения
type session struct {
	track   Track
	token   Token
	handle  Handle
	cancel  context.CancelFunc
	playing bool
}

func (s *session) release() {
	s.cancel()
	s.handle.Pause()
}

// Controller управляет единственным ресурсом воспроизведения.
// Одновременно существует не более одного живого Handle
type Controller struct {
	audio Audio

	mu      sync.Mutex
	current *session
	last    Token
	closed  bool
	events  chan Event
}

// NewController создает контроллер поверх платформенного примитива
func NewController(audio Audio) *Controller {
	return &Controller{
		audio:  audio,
		events: make(chan Event, eventBufferSize),
	}
}

// Events возвращает канал уведомлений. Канал закрывается в Close
func (c *Controller) Events() <-chan Event {
	return c.events
}

// Play освобождает текущий ресурс и запрашивает воспроизведение нового трека.
// Результат старта приходит асинхронно через Events
func (c *Controller) Play(track Track) (Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playLocked(track)
}

// Toggle останавливает трек, если он сейчас играет, иначе запускает его
func (c *Controller) Toggle(track Track) (Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s := c.current; s != nil && s.playing && s.track.ID == track.ID {
		c.teardownLocked()
		return 0, nil
	}
	return c.playLocked(track)
}

// Stop останавливает воспроизведение и освобождает ресурс. Идемпотентен
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardownLocked()
}

// Pause - синоним Stop: приостановка освобождает ресурс
func (c *Controller) Pause() {
	c.Stop()
}

// Query возвращает активный трек и признак воспроизведения
func (c *Controller) Query() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s := c.current; s != nil && s.playing {
		return s.track.ID, true
	}
	return "", false
}

// Snapshot возвращает расширенное состояние, включая ожидающий старт
func (c *Controller) Snapshot() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.current
	if s == nil {
		return Status{}
	}
	if s.playing {
		return Status{TrackID: s.track.ID, Playing: true, Token: s.token}
	}
	return Status{Pending: true, PendingTrackID: s.track.ID, Token: s.token}
}

// Close принудительно переводит контроллер в состояние покоя и закрывает канал событий
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.teardownLocked()
	c.closed = true
	close(c.events)
}

func (c *Controller) playLocked(track Track) (Token, error) {
	if c.closed {
		return 0, ErrClosed
	}
	if strings.TrimSpace(track.StreamURL) == "" {
		return 0, ErrEmptySource
	}

	// Старый ресурс освобождается до создания нового
	c.teardownLocked()

	c.last++
	ctx, cancel := context.WithCancel(context.Background())
	s := &session{
		track:  track,
		token:  c.last,
		handle: c.audio.Load(track.StreamURL),
		cancel: cancel,
	}
	c.current = s

	go c.run(ctx, s)

	return s.token, nil
}

// run ждет результата старта и затем естественного окончания трека
func (c *Controller) run(ctx context.Context, s *session) {
	err := s.handle.Start(ctx)

	c.mu.Lock()
	if c.current != s {
		// Запрос вытеснен более новым Play или Stop
		c.mu.Unlock()
		s.handle.Pause()
		return
	}

	if err != nil {
		c.current = nil
		s.release()
		startErr := fmt.Errorf("%w: %w", ErrStartFailure, err)
		logger.Warn(logger.EventPlayback, "Playback start failed", logger.Fields(
			"track_id", s.track.ID,
			"error", err.Error(),
		))
		c.emitLocked(Event{Kind: EventFailed, Token: s.token, TrackID: s.track.ID, Err: startErr})
		c.mu.Unlock()
		return
	}

	s.playing = true
	c.emitLocked(Event{Kind: EventStarted, Token: s.token, TrackID: s.track.ID})
	ended := s.handle.Ended()
	c.mu.Unlock()

	select {
	case <-ended:
		c.finish(s)
	case <-ctx.Done():
	}
}

func (c *Controller) finish(s *session) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != s {
		return
	}
	c.current = nil
	s.release()
	c.emitLocked(Event{Kind: EventEnded, Token: s.token, TrackID: s.track.ID})
}

func (c *Controller) teardownLocked() {
	s := c.current
	if s == nil {
		return
	}
	c.current = nil
	s.release()
	c.emitLocked(Event{Kind: EventStopped, Token: s.token, TrackID: s.track.ID})
}

func (c *Controller) emitLocked(e Event) {
	if c.closed {
		return
	}
	select {
	case c.events <- e:
	default:
		// Медленный слушатель теряет событие, Query остается источником истины
	}
}
