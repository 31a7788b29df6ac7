package fs

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"os"

	"vecdb/internal/domain"
)

// maxLineSize bounds a single JSONL record. A 768-dimension embedding
// serialized as text is around 15 KiB.
const maxLineSize = 16 << 20

// ReadDocuments yields the documents in a JSONL file, one object per line
// with "content" and "embedding" fields. Blank lines are skipped.
func ReadDocuments(path string) iter.Seq2[domain.Document, error] {
	return func(yield func(domain.Document, error) bool) {
		f, err := os.Open(path)
		if err != nil {
			yield(domain.Document{}, err)
			return
		}
		defer f.Close()

		sc := bufio.NewScanner(f)
		sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		line := 0
		for sc.Scan() {
			line++
			b := bytes.TrimSpace(sc.Bytes())
			if len(b) == 0 {
				continue
			}
			var doc domain.Document
			if err := json.Unmarshal(b, &doc); err != nil {
				err = fmt.Errorf("%s:%d: %w: %v", path, line, domain.ErrMalformedEmbedding, err)
				if !yield(domain.Document{}, err) {
					return
				}
				continue
			}
			if !yield(doc, nil) {
				return
			}
		}
		if err := sc.Err(); err != nil {
			yield(domain.Document{}, fmt.Errorf("%s: %w", path, err))
		}
	}
}
