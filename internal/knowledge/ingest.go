package knowledge

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"

	"github.com/PuerkitoBio/goquery"

	"github.com/ziadkadry99/ad-verify/internal/progress"
	"github.com/ziadkadry99/ad-verify/internal/walker"
	"github.com/ziadkadry99/ad-verify/internal/webcontext"
)

// IngestStats summarizes an IngestFiles run.
type IngestStats struct {
	Files     int `json:"files"`
	Chunks    int `json:"chunks"`
	Unchanged int `json:"unchanged"`
	Skipped   int `json:"skipped"`
}

// IngestFiles walks root and indexes every matching guideline document,
// using its slash-separated relative path as the source. A file that was
// ingested before is replaced, or left alone when its content hash is
// unchanged. HTML documents are reduced to their text first. Unreadable
// files are skipped and counted.
func (s *Store) IngestFiles(ctx context.Context, root string, include, exclude []string, reporter progress.Reporter) (IngestStats, error) {
	if reporter == nil {
		reporter = progress.Nop{}
	}

	files, err := walker.Walk(walker.WalkerConfig{
		RootDir: root,
		Include: include,
		Exclude: exclude,
	})
	if err != nil {
		return IngestStats{}, fmt.Errorf("walking %s: %w", root, err)
	}

	var stats IngestStats
	reporter.Start(len(files))
	defer reporter.Finish()

	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		data, err := os.ReadFile(f.Path)
		if err != nil {
			log.Printf("knowledge: skipping %s: %v", f.RelPath, err)
			stats.Skipped++
			reporter.Update(i+1, f.RelPath)
			continue
		}

		text := string(data)
		if f.Format == walker.FormatHTML {
			doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
			if err != nil {
				log.Printf("knowledge: skipping %s: %v", f.RelPath, err)
				stats.Skipped++
				reporter.Update(i+1, f.RelPath)
				continue
			}
			text = webcontext.ExtractText(doc)
		}

		n, unchanged, err := s.ReplaceFile(ctx, f.RelPath, text, f.ContentHash)
		if err != nil {
			return stats, fmt.Errorf("ingesting %s: %w", f.RelPath, err)
		}
		if unchanged {
			stats.Unchanged++
		} else {
			stats.Files++
			stats.Chunks += n
		}
		reporter.Update(i+1, f.RelPath)
	}

	return stats, nil
}
