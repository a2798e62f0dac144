package main

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/memory-match-game/game/catalog"
	"github.com/wricardo/memory-match-game/game/storage"
)

// savesCommand manages saved games without starting the server
func savesCommand() *cli.Command {
	return &cli.Command{
		Name:  "saves",
		Usage: "Manage saved games",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List saved games in every format",
				Action: withCatalog(listSaves),
			},
			{
				Name:      "show",
				Usage:     "Show the summary of a saved game",
				ArgsUsage: "<file>",
				Action:    withCatalog(showSave),
			},
			{
				Name:      "raw",
				Usage:     "Print a saved game file as stored",
				ArgsUsage: "<file>",
				Action:    withCatalog(rawSave),
			},
			{
				Name:      "delete",
				Usage:     "Delete a saved game",
				ArgsUsage: "<file>",
				Action:    withCatalog(deleteSave),
			},
			{
				Name:      "export",
				Usage:     "Copy a saved game to the export directory",
				ArgsUsage: "<file>",
				Action:    withCatalog(exportSave),
			},
			{
				Name:      "convert",
				Usage:     "Rewrite a saved game in another format",
				ArgsUsage: "<file> <txt|xml|json>",
				Action:    withCatalog(convertSave),
			},
		},
	}
}

type catalogAction func(out io.Writer, saves *catalog.Catalog, cmd *cli.Command) error

// withCatalog opens the save catalog from the data and export directory flags
func withCatalog(action catalogAction) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		registry, err := storage.NewRegistry(cmd.String("data-dir"), cmd.String("export-dir"))
		if err != nil {
			return fmt.Errorf("failed to open save storage: %w", err)
		}
		return action(cmd.Root().Writer, catalog.New(registry), cmd)
	}
}

func fileArg(cmd *cli.Command) (string, error) {
	fileName := cmd.Args().First()
	if fileName == "" {
		return "", fmt.Errorf("%s: missing file name", cmd.Name)
	}
	return fileName, nil
}

func listSaves(out io.Writer, saves *catalog.Catalog, cmd *cli.Command) error {
	records := saves.ListAll()
	if len(records) == 0 {
		fmt.Fprintln(out, "No saved games")
		return nil
	}

	for _, record := range records {
		if record.Readable() {
			fmt.Fprintf(out, "%-40s %s\n", record.FileName, record.DisplayName())
		} else {
			fmt.Fprintf(out, "%-40s unreadable: %v\n", record.FileName, record.Err)
		}
	}
	return nil
}

func showSave(out io.Writer, saves *catalog.Catalog, cmd *cli.Command) error {
	fileName, err := fileArg(cmd)
	if err != nil {
		return err
	}

	record, err := saves.Get(fileName)
	if err != nil {
		return err
	}
	if !record.Readable() {
		return fmt.Errorf("%s is unreadable: %w", fileName, record.Err)
	}

	fmt.Fprintln(out, record.Summary())
	return nil
}

func rawSave(out io.Writer, saves *catalog.Catalog, cmd *cli.Command) error {
	fileName, err := fileArg(cmd)
	if err != nil {
		return err
	}

	raw, err := saves.ReadRaw(fileName)
	if err != nil {
		return err
	}
	fmt.Fprint(out, raw)
	return nil
}

func deleteSave(out io.Writer, saves *catalog.Catalog, cmd *cli.Command) error {
	fileName, err := fileArg(cmd)
	if err != nil {
		return err
	}

	deleted, err := saves.Delete(fileName)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("saved game %s not found", fileName)
	}
	fmt.Fprintf(out, "Deleted %s\n", fileName)
	return nil
}

func exportSave(out io.Writer, saves *catalog.Catalog, cmd *cli.Command) error {
	fileName, err := fileArg(cmd)
	if err != nil {
		return err
	}

	path, err := saves.Export(fileName)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Exported %s to %s\n", fileName, path)
	return nil
}

func convertSave(out io.Writer, saves *catalog.Catalog, cmd *cli.Command) error {
	fileName, err := fileArg(cmd)
	if err != nil {
		return err
	}

	format, err := storage.ParseFormat(cmd.Args().Get(1))
	if err != nil {
		return err
	}

	path, err := saves.Convert(fileName, format)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Converted %s to %s\n", fileName, path)
	return nil
}
