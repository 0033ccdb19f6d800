package peer

import (
	"fmt"
	"strings"
	"time"
)

// ANSI color codes for terminal output
const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorCyan  = "\033[36m"
	colorBold  = "\033[1m"
)

// ProgressRenderer redraws a single-line progress bar for a running
// download.
type ProgressRenderer struct {
	tracker     *DownloadTracker
	stopCh      chan struct{}
	doneCh      chan struct{}
	refreshRate time.Duration
	useColors   bool
	width       int
}

func NewProgressRenderer(tracker *DownloadTracker, useColors bool) *ProgressRenderer {
	return &ProgressRenderer{
		tracker:     tracker,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
		refreshRate: 200 * time.Millisecond,
		useColors:   useColors,
		width:       40,
	}
}

// Start renders until stopped. Run it in its own goroutine.
func (pr *ProgressRenderer) Start() {
	defer close(pr.doneCh)

	ticker := time.NewTicker(pr.refreshRate)
	defer ticker.Stop()

	for {
		select {
		case <-pr.stopCh:
			pr.render()
			fmt.Println()
			return
		case <-ticker.C:
			pr.tracker.UpdateSpeed()
			pr.render()
		}
	}
}

// StopAndWait stops the renderer and waits for the final redraw.
func (pr *ProgressRenderer) StopAndWait() {
	close(pr.stopCh)
	<-pr.doneCh
}

// RenderError prints a terminal failure line below the bar.
func (pr *ProgressRenderer) RenderError(err error) {
	if pr.useColors {
		fmt.Printf("\n%s%s%s\n", colorRed, err.Error(), colorReset)
	} else {
		fmt.Printf("\n%s\n", err.Error())
	}
}

func (pr *ProgressRenderer) render() {
	completed, total, speed, failed := pr.tracker.Progress()

	var ratio float64
	if total > 0 {
		ratio = float64(completed) / float64(total)
	}
	filled := int(ratio * float64(pr.width))

	bar := strings.Repeat("█", filled) + strings.Repeat("░", pr.width-filled)
	if pr.useColors {
		bar = colorGreen + bar + colorReset
	}

	line := fmt.Sprintf("\r%s [%s] %d/%d chunks | %s/s | ETA %s",
		pr.name(), bar, completed, total, formatBytes(uint64(speed)), formatETA(pr.tracker.ETA()))
	if failed > 0 {
		if pr.useColors {
			line += fmt.Sprintf(" | %s%d failed%s", colorRed, failed, colorReset)
		} else {
			line += fmt.Sprintf(" | %d failed", failed)
		}
	}
	fmt.Print(line)
}

func (pr *ProgressRenderer) name() string {
	name := pr.tracker.FileName
	if pr.useColors {
		return colorBold + colorCyan + name + colorReset
	}
	return name
}

func formatBytes(b uint64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.2fMB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1fKB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%dB", b)
	}
}

func formatETA(d time.Duration) string {
	if d <= 0 {
		return "--"
	}
	return d.Round(time.Second).String()
}
