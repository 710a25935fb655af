package knowledge

import (
	"log"
	"strings"
	"unicode/utf8"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 100
)

// defaultSeparators are tried in order: paragraph, line, word, character.
var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// Splitter breaks text into overlapping chunks of at most ChunkSize runes,
// preferring the coarsest separator that yields small enough pieces.
type Splitter struct {
	ChunkSize  int
	Overlap    int
	Separators []string
}

// NewSplitter returns a splitter with the default separators. Invalid sizes
// fall back to the defaults and an overlap that is not smaller than the
// chunk size is reduced to zero.
func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}
	return &Splitter{ChunkSize: chunkSize, Overlap: overlap, Separators: defaultSeparators}
}

// Split returns the chunks for text. Whitespace-only input yields none.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return s.split(text, s.Separators)
}

func (s *Splitter) split(text string, separators []string) []string {
	sep := ""
	var rest []string
	for i, candidate := range separators {
		if candidate == "" || strings.Contains(text, candidate) {
			sep = candidate
			rest = separators[i+1:]
			break
		}
	}

	var pieces []string
	for _, p := range strings.Split(text, sep) {
		if p != "" {
			pieces = append(pieces, p)
		}
	}

	var chunks, small []string
	for _, p := range pieces {
		if runeLen(p) < s.ChunkSize {
			small = append(small, p)
			continue
		}
		if len(small) > 0 {
			chunks = append(chunks, s.merge(small, sep)...)
			small = nil
		}
		if len(rest) == 0 {
			chunks = append(chunks, p)
		} else {
			chunks = append(chunks, s.split(p, rest)...)
		}
	}
	if len(small) > 0 {
		chunks = append(chunks, s.merge(small, sep)...)
	}
	return chunks
}

// merge packs pieces into chunks no longer than ChunkSize, carrying up to
// Overlap runes of trailing pieces into the next chunk.
func (s *Splitter) merge(pieces []string, sep string) []string {
	sepLen := runeLen(sep)
	var chunks, current []string
	total := 0

	joined := func(n int) int {
		if n > 0 {
			return sepLen
		}
		return 0
	}

	for _, p := range pieces {
		l := runeLen(p)
		if total+l+joined(len(current)) > s.ChunkSize {
			if total > s.ChunkSize {
				log.Printf("knowledge: created a chunk of %d runes, longer than %d", total, s.ChunkSize)
			}
			if len(current) > 0 {
				if doc := strings.TrimSpace(strings.Join(current, sep)); doc != "" {
					chunks = append(chunks, doc)
				}
				for total > s.Overlap || (total > 0 && total+l+joined(len(current)) > s.ChunkSize) {
					total -= runeLen(current[0]) + joined(len(current)-1)
					current = current[1:]
				}
			}
		}
		current = append(current, p)
		total += l + joined(len(current)-1)
	}
	if doc := strings.TrimSpace(strings.Join(current, sep)); doc != "" {
		chunks = append(chunks, doc)
	}
	return chunks
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
