// Package player содержит аудиопримитив на основе beep, которым управляет
// контроллер воспроизведения
package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/speaker"

	"github.com/hazadus/arabes/internal/playback"
	"github.com/hazadus/arabes/internal/streaming"
)

// DefaultBufferSize - размер буфера потокового чтения
const DefaultBufferSize = 256 * 1024

// ErrReleased возвращается, если ресурс освобожден до завершения старта
var ErrReleased = errors.New("ресурс воспроизведения освобожден")

// Status представляет текущий статус воспроизведения
type Status struct {
	Current    time.Duration // Текущая позиция
	Total      time.Duration // Общая продолжительность
	IsPlaying  bool          // Воспроизводится ли трек
	Speed      float64       // Скорость воспроизведения (для диагностики)
	StuckCount int           // Счетчик зависших состояний
}

// Speaker реализует playback.Audio поверх системного вывода звука
type Speaker struct {
	bufferSize int

	mu          sync.Mutex
	initialized bool
	sampleRate  beep.SampleRate
	active      *handle
}

// NewSpeaker создает аудиопримитив
func NewSpeaker(bufferSize int) *Speaker {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Speaker{bufferSize: bufferSize}
}

// Load создает ресурс воспроизведения. Сеть и декодер открываются только в Start
func (s *Speaker) Load(url string) playback.Handle {
	return &handle{
		speaker: s,
		url:     url,
		ended:   make(chan struct{}),
	}
}

// Status возвращает прогресс активного ресурса
func (s *Speaker) Status() Status {
	s.mu.Lock()
	h := s.active
	s.mu.Unlock()

	if h == nil {
		return Status{}
	}
	return h.status()
}

// Close освобождает активный ресурс и закрывает устройство вывода
func (s *Speaker) Close() error {
	s.mu.Lock()
	h := s.active
	s.mu.Unlock()

	if h != nil {
		h.Pause()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		speaker.Close()
		s.initialized = false
	}
	return nil
}

// ensureInit инициализирует устройство вывода один раз
func (s *Speaker) ensureInit(format beep.Format) (beep.SampleRate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return s.sampleRate, nil
	}
	if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/5)); err != nil {
		return 0, fmt.Errorf("ошибка инициализации динамиков: %w", err)
	}
	s.initialized = true
	s.sampleRate = format.SampleRate
	return s.sampleRate, nil
}

func (s *Speaker) setActive(h *handle) {
	s.mu.Lock()
	s.active = h
	s.mu.Unlock()
}

func (s *Speaker) clearActive(h *handle) {
	s.mu.Lock()
	if s.active == h {
		s.active = nil
	}
	s.mu.Unlock()
}

// handle - один живой ресурс воспроизведения
type handle struct {
	speaker *Speaker
	url     string
	ended   chan struct{}
	endOnce sync.Once

	mu       sync.Mutex
	released bool
	source   io.Closer
	streamer beep.StreamSeekCloser
	ctrl     *beep.Ctrl
	format   beep.Format
	started  time.Time

	lastPosition time.Duration
	stuckCount   int
}

// Start открывает источник, декодирует MP3 и запускает звук
func (h *handle) Start(ctx context.Context) error {
	h.mu.Lock()
	released := h.released
	h.mu.Unlock()
	if released {
		return ErrReleased
	}

	source, err := open(ctx, h.url, h.speaker.bufferSize)
	if err != nil {
		return err
	}

	streamer, format, err := mp3.Decode(source)
	if err != nil {
		source.Close()
		return fmt.Errorf("ошибка декодирования MP3: %w", err)
	}

	deviceRate, err := h.speaker.ensureInit(format)
	if err != nil {
		streamer.Close()
		return err
	}

	var stream beep.Streamer = streamer
	if format.SampleRate != deviceRate {
		stream = beep.Resample(4, format.SampleRate, deviceRate, streamer)
	}

	h.mu.Lock()
	if h.released {
		// Pause пришел, пока открывался поток
		h.mu.Unlock()
		streamer.Close()
		return ErrReleased
	}
	h.source = source
	h.streamer = streamer
	h.format = format
	h.ctrl = &beep.Ctrl{Streamer: stream}
	h.started = time.Now()
	ctrl := h.ctrl
	h.mu.Unlock()

	h.speaker.setActive(h)
	speaker.Play(beep.Seq(ctrl, beep.Callback(h.finish)))
	return nil
}

// Pause глушит звук и закрывает декодер и поток
func (h *handle) Pause() {
	h.mu.Lock()
	if h.released {
		h.mu.Unlock()
		return
	}
	h.released = true
	ctrl, streamer, source := h.ctrl, h.streamer, h.source
	h.ctrl, h.streamer, h.source = nil, nil, nil
	h.mu.Unlock()

	if ctrl != nil {
		// Отключаем только свой поток, чужие ресурсы в микшере не трогаем
		speaker.Lock()
		ctrl.Paused = true
		ctrl.Streamer = nil
		speaker.Unlock()
	}
	if streamer != nil {
		streamer.Close()
	}
	if source != nil {
		source.Close()
	}
	h.speaker.clearActive(h)
}

// Ended закрывается при естественном окончании трека
func (h *handle) Ended() <-chan struct{} {
	return h.ended
}

func (h *handle) finish() {
	h.endOnce.Do(func() { close(h.ended) })
}

func (h *handle) status() Status {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.streamer == nil {
		return Status{}
	}

	speaker.Lock()
	current := h.format.SampleRate.D(h.streamer.Position())
	total := h.format.SampleRate.D(h.streamer.Len())
	speaker.Unlock()

	// Позиция не сдвинулась с прошлого опроса: поток не успевает
	if current == h.lastPosition {
		h.stuckCount++
	} else {
		h.stuckCount = 0
	}
	h.lastPosition = current

	var speed float64
	if elapsed := time.Since(h.started); elapsed > 0 {
		speed = float64(current) / float64(elapsed)
	}

	return Status{
		Current:    current,
		Total:      total,
		IsPlaying:  true,
		Speed:      speed,
		StuckCount: h.stuckCount,
	}
}

// open возвращает поток по HTTP(S) либо локальный файл
func open(ctx context.Context, url string, bufferSize int) (io.ReadCloser, error) {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		reader, err := streaming.NewReader(ctx, url, bufferSize)
		if err != nil {
			return nil, fmt.Errorf("ошибка создания потокового ридера: %w", err)
		}
		return reader, nil
	}

	file, err := os.Open(strings.TrimPrefix(url, "file://"))
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия файла: %w", err)
	}
	return file, nil
}
