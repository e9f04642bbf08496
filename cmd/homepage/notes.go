package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/harrisjose/homepage/internal/database"
	"github.com/harrisjose/homepage/internal/pipeline"
)

var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "Import and list bookmark notes",
}

var notesDryRun bool

var notesSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Import notes: collect -> fetch",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		pipe := pipeline.New(cfg, db, logger)

		var result *pipeline.Result
		if notesDryRun {
			result = pipe.DryRun()
		} else {
			result = pipe.Sync(cmd.Context())
		}

		for i, step := range result.Steps {
			fmt.Printf("\nStep %d/%d: %s\n", i+1, len(result.Steps), step.Name)
			if step.Err != nil {
				fmt.Printf("  Error: %v\n", step.Err)
			} else {
				fmt.Printf("  %s\n", step.Summary)
			}
		}

		if !notesDryRun {
			fmt.Println("\nSync complete! Run 'homepage serve' to view the notes.")
		}
		return result.Err()
	},
}

var notesLimit int

var notesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List imported notes, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		notes, err := db.GetNotes(notesLimit)
		if err != nil {
			return err
		}

		if len(notes) == 0 {
			fmt.Println("No notes yet. Import some with: homepage notes sync")
			return nil
		}

		bySource := map[string]int{}
		for _, n := range notes {
			age := ""
			if t, ok := database.NoteDate(n); ok {
				age = humanize.Time(t)
			}
			fmt.Printf("  [%d] %s (%s)\n", n.ID, n.Title, age)
			fmt.Printf("        %s\n", n.URL)

			source := "unknown"
			if n.Source != nil {
				source = *n.Source
			}
			bySource[source]++
		}

		fmt.Printf("\n%s notes", humanize.Comma(int64(len(notes))))
		// Sort sources by count descending
		type kv struct {
			key string
			val int
		}
		var sorted []kv
		for k, v := range bySource {
			sorted = append(sorted, kv{k, v})
		}
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].val > sorted[j].val })
		for i, s := range sorted {
			sep := ", "
			if i == 0 {
				sep = ": "
			}
			fmt.Printf("%s%s %d", sep, s.key, s.val)
		}
		fmt.Println()
		return nil
	},
}

var notesRemoveCmd = &cobra.Command{
	Use:   "remove [id]",
	Short: "Remove an imported note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid note ID: %s", args[0])
		}

		note, err := db.GetNote(id)
		if err != nil {
			return err
		}
		if note == nil {
			return fmt.Errorf("note %d not found", id)
		}

		if err := db.DeleteNote(id); err != nil {
			return err
		}
		fmt.Printf("Removed note [%d]: %s\n", id, note.Title)
		return nil
	},
}

func init() {
	notesSyncCmd.Flags().BoolVar(&notesDryRun, "dry-run", false, "Show what would be done without executing")
	notesListCmd.Flags().IntVarP(&notesLimit, "limit", "n", 20, "Maximum number of notes to list (0 for all)")

	notesCmd.AddCommand(notesSyncCmd)
	notesCmd.AddCommand(notesListCmd)
	notesCmd.AddCommand(notesRemoveCmd)
}
