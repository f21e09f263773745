package archive

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"
)

// Progress is an import progress snapshot.
type Progress struct {
	Phase     string // "import", "done" or "error"
	BytesRead int64
	Games     int
	Skipped   int
	StartTime time.Time
	Error     error
}

// ProgressFunc is called periodically with progress updates.
type ProgressFunc func(Progress)

// progressReader wraps an io.Reader to track bytes read.
type progressReader struct {
	r    io.Reader
	read *atomic.Int64
}

func newProgressReader(r io.Reader, counter *atomic.Int64) *progressReader {
	return &progressReader{r: r, read: counter}
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	pr.read.Add(int64(n))
	return n, err
}

// FormatBytes formats bytes as human-readable string.
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// FormatDuration formats duration as human-readable string.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%.0fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}

// PrintProgress returns a ProgressFunc that redraws one status line on w.
func PrintProgress(w io.Writer) ProgressFunc {
	return func(p Progress) {
		switch p.Phase {
		case "import":
			fmt.Fprintf(w, "\r[Import] %d games, %s read", p.Games, FormatBytes(p.BytesRead))
		case "done":
			fmt.Fprintf(w, "\n[Done] %d games (%d skipped) in %s\n",
				p.Games, p.Skipped, FormatDuration(time.Since(p.StartTime)))
		case "error":
			fmt.Fprintf(w, "\n[Error] %v\n", p.Error)
		}
	}
}
