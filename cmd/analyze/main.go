// Command analyze prints quick, human-readable statistics about the saved
// games in a data directory (default "data"). It summarizes counts per format
// and level, completion, scores and play time, and lists unreadable files.
package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/wricardo/memory-match-game/game/catalog"
	"github.com/wricardo/memory-match-game/game/engine"
	"github.com/wricardo/memory-match-game/game/storage"
)

// LevelStats aggregates the readable saves of one level
type LevelStats struct {
	Games     int
	Completed int
	BestScore int
	TotalTime time.Duration
}

// AverageTime is the mean play time of the level's saves
func (l LevelStats) AverageTime() time.Duration {
	if l.Games == 0 {
		return 0
	}
	return l.TotalTime / time.Duration(l.Games)
}

// Stats is the outcome of analyzing a catalog
type Stats struct {
	Total      int
	ByFormat   map[storage.Format]int
	ByLevel    map[int]*LevelStats
	Completed  int
	TotalScore int
	BestScore  int
	BestGame   string
	Unreadable []string
}

// Readable is the number of saves that loaded
func (s *Stats) Readable() int {
	return s.Total - len(s.Unreadable)
}

// AverageScore is the mean score of the readable saves
func (s *Stats) AverageScore() float64 {
	if s.Readable() == 0 {
		return 0
	}
	return float64(s.TotalScore) / float64(s.Readable())
}

func analyze(records []catalog.SavedGameRecord) *Stats {
	stats := &Stats{
		ByFormat: make(map[storage.Format]int),
		ByLevel:  make(map[int]*LevelStats),
	}

	for _, record := range records {
		stats.Total++
		stats.ByFormat[record.Format]++

		if !record.Readable() {
			stats.Unreadable = append(stats.Unreadable, record.FileName)
			continue
		}

		s := record.Snapshot
		level, ok := stats.ByLevel[s.Level]
		if !ok {
			level = &LevelStats{}
			stats.ByLevel[s.Level] = level
		}
		level.Games++
		level.TotalTime += s.ElapsedTime
		if s.Score > level.BestScore {
			level.BestScore = s.Score
		}
		if s.Completed {
			level.Completed++
			stats.Completed++
		}

		stats.TotalScore += s.Score
		if stats.BestGame == "" || s.Score > stats.BestScore {
			stats.BestScore = s.Score
			stats.BestGame = record.DisplayName()
		}
	}

	sort.Strings(stats.Unreadable)
	return stats
}

func printStats(w io.Writer, stats *Stats) {
	if stats.Total == 0 {
		fmt.Fprintln(w, "No saved games found")
		return
	}

	fmt.Fprintf(w, "Saved games: %d (%d readable)\n", stats.Total, stats.Readable())
	for _, format := range storage.Formats {
		fmt.Fprintf(w, "  %-4s %d\n", strings.ToUpper(string(format)), stats.ByFormat[format])
	}

	if stats.Readable() > 0 {
		fmt.Fprintf(w, "Completed: %d/%d\n", stats.Completed, stats.Readable())
		fmt.Fprintf(w, "Average Score: %.1f\n", stats.AverageScore())
		fmt.Fprintf(w, "Best: %s\n", stats.BestGame)

		levels := make([]int, 0, len(stats.ByLevel))
		for level := range stats.ByLevel {
			levels = append(levels, level)
		}
		sort.Ints(levels)

		for _, level := range levels {
			l := stats.ByLevel[level]
			fmt.Fprintf(w, "Level %d: %d games, %d completed, best score %d, average time %s\n",
				level, l.Games, l.Completed, l.BestScore, engine.FormatElapsed(l.AverageTime()))
		}
	}

	if len(stats.Unreadable) > 0 {
		fmt.Fprintf(w, "⚠️  WARNING: %d saved games could not be loaded\n", len(stats.Unreadable))
		for _, name := range stats.Unreadable {
			fmt.Fprintf(w, "   Unreadable: %s\n", name)
		}
	} else {
		fmt.Fprintln(w, "✅ All saved games are readable")
	}
}

func main() {
	dataDir := "data"
	if len(os.Args) > 1 {
		dataDir = os.Args[1]
	}

	registry, err := storage.NewRegistry(dataDir, "")
	if err != nil {
		fmt.Printf("Error opening %s: %v\n", dataDir, err)
		os.Exit(1)
	}

	fmt.Printf("\n=== Analyzing %s ===\n", dataDir)
	printStats(os.Stdout, analyze(catalog.New(registry).ListAll()))
}
