// Package metadata извлекает теги и длительность из загружаемых аудиофайлов
package metadata

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/gopxl/beep/mp3"
)

// UnknownArtist подставляется, если исполнителя не удалось определить
const UnknownArtist = "Unknown Artist"

// Tags - теги аудиофайла
type Tags struct {
	Artist string
	Title  string
	Album  string
}

// Probe - результат анализа загружаемого файла
type Probe struct {
	Tags     Tags
	Duration time.Duration
}

// Extractor извлекает метаданные из аудиофайлов
type Extractor struct{}

// NewExtractor создает новый экстрактор метаданных
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractFromReader читает теги. Пустые поля заполняются из имени файла
func (e *Extractor) ExtractFromReader(reader io.ReadSeeker, filename string) Tags {
	fallback := tagsFromName(filename)

	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return fallback
	}
	m, err := tag.ReadFrom(reader)
	if err != nil {
		return fallback
	}

	tags := Tags{
		Artist: strings.TrimSpace(m.Artist()),
		Title:  strings.TrimSpace(m.Title()),
		Album:  strings.TrimSpace(m.Album()),
	}
	if tags.Title == "" {
		tags.Title = fallback.Title
	}
	if tags.Artist == "" {
		tags.Artist = fallback.Artist
	}
	return tags
}

// ExtractFromFile читает теги из файла на диске
func (e *Extractor) ExtractFromFile(filePath string) Tags {
	file, err := os.Open(filePath)
	if err != nil {
		return tagsFromName(filePath)
	}
	defer file.Close()

	return e.ExtractFromReader(file, filePath)
}

// DurationFromReader декодирует MP3 и возвращает длительность. Позиция reader
// возвращается в начало
func (e *Extractor) DurationFromReader(reader io.ReadSeeker) (time.Duration, error) {
	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("ошибка позиционирования: %w", err)
	}
	defer reader.Seek(0, io.SeekStart)

	streamer, format, err := mp3.Decode(io.NopCloser(reader))
	if err != nil {
		return 0, fmt.Errorf("ошибка декодирования MP3: %w", err)
	}
	defer streamer.Close()

	return format.SampleRate.D(streamer.Len()), nil
}

// GetDuration получает длительность MP3 файла
func (e *Extractor) GetDuration(filePath string) (time.Duration, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return 0, fmt.Errorf("ошибка открытия файла: %w", err)
	}
	defer file.Close()

	return e.DurationFromReader(file)
}

// ProbeReader извлекает теги и длительность загружаемого файла.
// Ошибка декодирования не фатальна: длительность остается нулевой
func (e *Extractor) ProbeReader(reader io.ReadSeeker, filename string) Probe {
	probe := Probe{Tags: e.ExtractFromReader(reader, filename)}
	if d, err := e.DurationFromReader(reader); err == nil {
		probe.Duration = d
	}
	return probe
}

// tagsFromName разбирает имя файла в формате "Artist - Title"
func tagsFromName(source string) Tags {
	fileName := filepath.Base(source)
	name := strings.TrimSuffix(fileName, filepath.Ext(fileName))

	parts := strings.Split(name, " - ")
	if len(parts) >= 2 {
		return Tags{
			Artist: strings.TrimSpace(parts[0]),
			Title:  strings.TrimSpace(strings.Join(parts[1:], " - ")),
		}
	}
	return Tags{Artist: UnknownArtist, Title: strings.TrimSpace(name)}
}
