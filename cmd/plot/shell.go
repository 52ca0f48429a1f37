package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/plot451/plot/pkg/app"
	"github.com/plot451/plot/pkg/domain/column"
	"github.com/plot451/plot/pkg/domain/table"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive shell over the configured database",
	Long: `Starts a line-oriented session. Type "help" for the command list.

Cell values are decimal numbers; "_" stands for an empty cell.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sv, err := openServices(cfg)
		if err != nil {
			return err
		}
		defer sv.Close()

		history := ""
		if home, err := os.UserHomeDir(); err == nil {
			history = filepath.Join(home, ".plot_history")
		}
		rl, err := readline.NewEx(&readline.Config{
			Prompt:          "plot:/> ",
			HistoryFile:     history,
			AutoComplete:    shellCompleter(),
			InterruptPrompt: "^C",
			EOFPrompt:       "exit",
		})
		if err != nil {
			return fmt.Errorf("start readline: %w", err)
		}
		defer rl.Close()

		sh := newShell(sv.container, rl.Stdout())
		for {
			rl.SetPrompt(sh.prompt())
			line, err := rl.Readline()
			if errors.Is(err, readline.ErrInterrupt) {
				if line == "" {
					return nil
				}
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
			if err := sh.exec(cmd.Context(), line); err != nil {
				if errors.Is(err, errExit) {
					return nil
				}
				fmt.Fprintf(sh.out, "error: %v\n", err)
			}
		}
	},
}

var errExit = errors.New("exit")

type shellCommand struct {
	usage string
	help  string
	run   func(sh *shell, ctx context.Context, args []string) error
}

var shellCommands map[string]shellCommand

func init() {
	shellCommands = map[string]shellCommand{
		"help":    {"help", "list commands", (*shell).help},
		"exit":    {"exit", "leave the shell", func(*shell, context.Context, []string) error { return errExit }},
		"ls":      {"ls", "list the current directory (root directories at /)", (*shell).ls},
		"cd":      {"cd DIR_ID | .. | /", "change the current directory", (*shell).cd},
		"mkdir":   {"mkdir NAME", "create a directory here", (*shell).mkdir},
		"rmdir":   {"rmdir DIR_ID", "delete a directory and everything below it", (*shell).rmdir},
		"mvdir":   {"mvdir DIR_ID PARENT_ID|/", "move a directory", (*shell).mvdir},
		"mkcol":   {"mkcol NAME [VALUE...]", "create a column here", (*shell).mkcol},
		"cells":   {"cells COLUMN_ID", "show a column's cells", (*shell).cells},
		"append":  {"append COLUMN_ID VALUE", "append a cell", (*shell).appendCell},
		"edit":    {"edit COLUMN_ID CELL_ID VALUE", "change a cell value", (*shell).editCell},
		"rmcell":  {"rmcell COLUMN_ID CELL_ID", "remove a cell", (*shell).rmcell},
		"reorder": {"reorder COLUMN_ID CELL_ID...", "reorder a column's cells", (*shell).reorder},
		"rmcol":   {"rmcol COLUMN_ID", "delete a column", (*shell).rmcol},
		"mktable": {"mktable NAME COLUMN_ID...", "create a table from columns", (*shell).mktable},
		"tables":  {"tables", "list tables", (*shell).tables},
		"show":    {"show TABLE_ID", "print a table", (*shell).show},
		"mv":      {"mv TABLE_ID COLUMN_ID front|behind DEST_COLUMN_ID", "move a column within a table", (*shell).mv},
		"insert":  {"insert TABLE_ID COLUMN_ID front|behind DEST_COLUMN_ID", "add a column to a table", (*shell).insert},
		"drop":    {"drop TABLE_ID COLUMN_ID", "remove a column from a table", (*shell).drop},
		"rmtable": {"rmtable TABLE_ID", "delete a table", (*shell).rmtable},
	}
}

func sortedCommandNames() []string {
	return slices.Sorted(maps.Keys(shellCommands))
}

func shellCompleter() *readline.PrefixCompleter {
	items := make([]readline.PrefixCompleterInterface, 0, len(shellCommands))
	for _, name := range sortedCommandNames() {
		items = append(items, readline.PcItem(name))
	}
	return readline.NewPrefixCompleter(items...)
}

// shell interprets one line at a time against the application services.
type shell struct {
	c   *app.Container
	out io.Writer
	cwd *column.Directory
}

func newShell(c *app.Container, out io.Writer) *shell {
	return &shell{c: c, out: out}
}

func (sh *shell) prompt() string {
	if sh.cwd == nil {
		return "plot:/> "
	}
	return fmt.Sprintf("plot:%s> ", sh.cwd.Name())
}

func (sh *shell) exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, ok := shellCommands[fields[0]]
	if !ok {
		return fmt.Errorf("unknown command %q, try help", fields[0])
	}
	return cmd.run(sh, ctx, fields[1:])
}

func arity(args []string, min int, usage string) error {
	if len(args) < min {
		return fmt.Errorf("usage: %s", usage)
	}
	return nil
}

// parseValue accepts "_" for an empty cell.
func parseValue(raw string) (column.CellValue, error) {
	if raw == "_" {
		return column.EmptyCellValue(), nil
	}
	return column.ParseCellValue(raw)
}

func cellText(v column.CellValue) string {
	if v.IsEmpty() {
		return "_"
	}
	return v.String()
}

func (sh *shell) here() (column.DirectoryID, error) {
	if sh.cwd == nil {
		return "", errors.New("no current directory, cd into one first")
	}
	return sh.cwd.ID().MustValue(), nil
}

func (sh *shell) help(_ context.Context, _ []string) error {
	w := tabwriter.NewWriter(sh.out, 0, 4, 2, ' ', 0)
	for _, name := range sortedCommandNames() {
		c := shellCommands[name]
		fmt.Fprintf(w, "  %s\t%s\n", c.usage, c.help)
	}
	return w.Flush()
}

func (sh *shell) ls(ctx context.Context, _ []string) error {
	if sh.cwd == nil {
		dirs, err := sh.c.DirectoryService.ListRootDirectories(ctx)
		if err != nil {
			return err
		}
		for _, d := range dirs {
			fmt.Fprintf(sh.out, "d %s\t%s/\n", d.ID(), d.Name())
		}
		return nil
	}
	contents, err := sh.c.DirectoryService.ListDirectoryContents(ctx, sh.cwd.ID().MustValue())
	if err != nil {
		return err
	}
	for _, d := range contents.Directories() {
		fmt.Fprintf(sh.out, "d %s\t%s/\n", d.ID(), d.Name())
	}
	for _, c := range contents.Columns() {
		fmt.Fprintf(sh.out, "c %s\t%s (%d cells)\n", c.ID(), c.Name(), len(c.Cells()))
	}
	return nil
}

func (sh *shell) cd(ctx context.Context, args []string) error {
	if err := arity(args, 1, "cd DIR_ID | .. | /"); err != nil {
		return err
	}
	switch args[0] {
	case "/":
		sh.cwd = nil
		return nil
	case "..":
		if sh.cwd == nil {
			return nil
		}
		parent, ok := sh.cwd.ParentID()
		if !ok {
			sh.cwd = nil
			return nil
		}
		return sh.enter(ctx, parent)
	default:
		return sh.enter(ctx, column.DirectoryID(args[0]))
	}
}

func (sh *shell) enter(ctx context.Context, id column.DirectoryID) error {
	contents, err := sh.c.DirectoryService.ListDirectoryContents(ctx, id)
	if err != nil {
		return err
	}
	sh.cwd = contents.Directory()
	return nil
}

func (sh *shell) mkdir(ctx context.Context, args []string) error {
	if err := arity(args, 1, "mkdir NAME"); err != nil {
		return err
	}
	var parent *column.DirectoryID
	if sh.cwd != nil {
		id := sh.cwd.ID().MustValue()
		parent = &id
	}
	dir, err := sh.c.DirectoryService.CreateDirectory(ctx, strings.Join(args, " "), parent)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "created directory %s\n", dir.ID())
	return nil
}

func (sh *shell) rmdir(ctx context.Context, args []string) error {
	if err := arity(args, 1, "rmdir DIR_ID"); err != nil {
		return err
	}
	id := column.DirectoryID(args[0])
	if err := sh.c.DirectoryService.DeleteDirectory(ctx, id); err != nil {
		return err
	}
	if sh.cwd != nil && sh.cwd.ID().MustValue() == id {
		sh.cwd = nil
	}
	return nil
}

func (sh *shell) mvdir(ctx context.Context, args []string) error {
	if err := arity(args, 2, "mvdir DIR_ID PARENT_ID|/"); err != nil {
		return err
	}
	var parent *column.DirectoryID
	if args[1] != "/" {
		id := column.DirectoryID(args[1])
		parent = &id
	}
	_, err := sh.c.DirectoryService.MoveDirectory(ctx, column.DirectoryID(args[0]), parent)
	return err
}

func (sh *shell) mkcol(ctx context.Context, args []string) error {
	if err := arity(args, 1, "mkcol NAME [VALUE...]"); err != nil {
		return err
	}
	dir, err := sh.here()
	if err != nil {
		return err
	}
	values := make([]column.CellValue, 0, len(args)-1)
	for _, raw := range args[1:] {
		v, err := parseValue(raw)
		if err != nil {
			return err
		}
		values = append(values, v)
	}
	col, err := sh.c.ColumnService.CreateColumn(ctx, args[0], dir, values)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "created column %s\n", col.ID())
	return nil
}

func (sh *shell) cells(ctx context.Context, args []string) error {
	if err := arity(args, 1, "cells COLUMN_ID"); err != nil {
		return err
	}
	col, err := sh.c.ColumnService.GetColumn(ctx, column.ID(args[0]))
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "%s\n", col.Name())
	for _, c := range col.Cells() {
		fmt.Fprintf(sh.out, "  %s\t%s\n", c.ID(), cellText(c.Value()))
	}
	return nil
}

func (sh *shell) appendCell(ctx context.Context, args []string) error {
	if err := arity(args, 2, "append COLUMN_ID VALUE"); err != nil {
		return err
	}
	v, err := parseValue(args[1])
	if err != nil {
		return err
	}
	cell, err := sh.c.ColumnService.AppendCell(ctx, column.ID(args[0]), v)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "created cell %s\n", cell.ID())
	return nil
}

func (sh *shell) editCell(ctx context.Context, args []string) error {
	if err := arity(args, 3, "edit COLUMN_ID CELL_ID VALUE"); err != nil {
		return err
	}
	v, err := parseValue(args[2])
	if err != nil {
		return err
	}
	_, err = sh.c.ColumnService.EditCell(ctx, column.ID(args[0]), column.CellID(args[1]), v)
	return err
}

func (sh *shell) rmcell(ctx context.Context, args []string) error {
	if err := arity(args, 2, "rmcell COLUMN_ID CELL_ID"); err != nil {
		return err
	}
	return sh.c.ColumnService.RemoveCell(ctx, column.ID(args[0]), column.CellID(args[1]))
}

func (sh *shell) reorder(ctx context.Context, args []string) error {
	if err := arity(args, 2, "reorder COLUMN_ID CELL_ID..."); err != nil {
		return err
	}
	order := make([]column.CellID, len(args)-1)
	for i, id := range args[1:] {
		order[i] = column.CellID(id)
	}
	_, err := sh.c.ColumnService.ReorderCells(ctx, column.ID(args[0]), order)
	return err
}

func (sh *shell) rmcol(ctx context.Context, args []string) error {
	if err := arity(args, 1, "rmcol COLUMN_ID"); err != nil {
		return err
	}
	return sh.c.ColumnService.DeleteColumn(ctx, column.ID(args[0]))
}

func (sh *shell) mktable(ctx context.Context, args []string) error {
	if err := arity(args, 2, "mktable NAME COLUMN_ID..."); err != nil {
		return err
	}
	ids := make([]column.ID, len(args)-1)
	for i, id := range args[1:] {
		ids[i] = column.ID(id)
	}
	t, err := sh.c.TableService.CreateTable(ctx, args[0], ids)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "created table %s\n", t.ID())
	return nil
}

func (sh *shell) tables(ctx context.Context, _ []string) error {
	tables, err := sh.c.TableService.ListTables(ctx)
	if err != nil {
		return err
	}
	for _, t := range tables {
		fmt.Fprintf(sh.out, "t %s\t%s (%d columns)\n", t.ID(), t.Name(), len(t.Columns()))
	}
	return nil
}

func (sh *shell) show(ctx context.Context, args []string) error {
	if err := arity(args, 1, "show TABLE_ID"); err != nil {
		return err
	}
	t, err := sh.c.TableService.GetTable(ctx, table.ID(args[0]))
	if err != nil {
		return err
	}
	printTable(sh.out, t)
	return nil
}

// printTable writes columns side by side; shorter columns are padded with
// blanks.
func printTable(out io.Writer, t *table.TableWithColumnsAndCells) {
	cols := t.Columns()
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	rows := 0
	header := make([]string, len(cols))
	cells := make([][]*column.Cell, len(cols))
	for i, c := range cols {
		header[i] = c.Name().String()
		cells[i] = c.Cells()
		rows = max(rows, len(cells[i]))
	}
	fmt.Fprintln(w, strings.Join(header, "\t"))
	for r := 0; r < rows; r++ {
		line := make([]string, len(cols))
		for i := range cols {
			if r < len(cells[i]) {
				line[i] = cellText(cells[i][r].Value())
			}
		}
		fmt.Fprintln(w, strings.Join(line, "\t"))
	}
	w.Flush()
}

type tableMove func(ctx context.Context, id table.ID, a, b column.ID) (*table.Table, error)

func positioned(args []string, usage string, front, behind tableMove) (tableMove, error) {
	if err := arity(args, 4, usage); err != nil {
		return nil, err
	}
	switch args[2] {
	case "front":
		return front, nil
	case "behind":
		return behind, nil
	default:
		return nil, fmt.Errorf("usage: %s", usage)
	}
}

func (sh *shell) mv(ctx context.Context, args []string) error {
	svc := sh.c.TableService
	move, err := positioned(args, "mv TABLE_ID COLUMN_ID front|behind DEST_COLUMN_ID", svc.MoveColumnInFrontOf, svc.MoveColumnBehind)
	if err != nil {
		return err
	}
	_, err = move(ctx, table.ID(args[0]), column.ID(args[1]), column.ID(args[3]))
	return err
}

func (sh *shell) insert(ctx context.Context, args []string) error {
	svc := sh.c.TableService
	add, err := positioned(args, "insert TABLE_ID COLUMN_ID front|behind DEST_COLUMN_ID", svc.InsertColumnInFrontOf, svc.InsertColumnBehind)
	if err != nil {
		return err
	}
	_, err = add(ctx, table.ID(args[0]), column.ID(args[3]), column.ID(args[1]))
	return err
}

func (sh *shell) drop(ctx context.Context, args []string) error {
	if err := arity(args, 2, "drop TABLE_ID COLUMN_ID"); err != nil {
		return err
	}
	_, err := sh.c.TableService.RemoveColumn(ctx, table.ID(args[0]), column.ID(args[1]))
	return err
}

func (sh *shell) rmtable(ctx context.Context, args []string) error {
	if err := arity(args, 1, "rmtable TABLE_ID"); err != nil {
		return err
	}
	return sh.c.TableService.DeleteTable(ctx, table.ID(args[0]))
}
