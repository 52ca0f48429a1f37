package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plot451/plot/pkg/app"
	"github.com/plot451/plot/pkg/config"
	"github.com/plot451/plot/pkg/domain/column"
	"github.com/plot451/plot/pkg/domain/table"
)

func newTestShell(t *testing.T) (*shell, *bytes.Buffer) {
	t.Helper()
	sv, err := openServices(config.Default())
	require.NoError(t, err)
	t.Cleanup(func() { sv.Close() })
	out := &bytes.Buffer{}
	return newShell(sv.container, out), out
}

func run(t *testing.T, sh *shell, lines ...string) {
	t.Helper()
	ctx := context.Background()
	for _, line := range lines {
		require.NoError(t, sh.exec(ctx, line), line)
	}
}

func TestShellSession(t *testing.T) {
	sh, out := newTestShell(t)
	ctx := context.Background()

	run(t, sh, "mkdir data", "cd 1")
	assert.Equal(t, "plot:data> ", sh.prompt())

	run(t, sh, "mkcol a 1 2.5 _", "mkcol b 4", "mktable t 1 2")
	assert.Contains(t, out.String(), "created table 1")

	out.Reset()
	run(t, sh, "show 1")
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, []string{"a", "b"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"1", "4"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"2.5"}, strings.Fields(lines[2]))
	assert.Equal(t, []string{"_"}, strings.Fields(lines[3]))

	run(t, sh, "mkcol a 9")
	assert.ErrorIs(t, sh.exec(ctx, "insert 1 3 behind 2"), table.ErrDuplicatedColumnName)

	run(t, sh, "mv 1 2 front 1")
	out.Reset()
	run(t, sh, "show 1")
	assert.True(t, strings.HasPrefix(out.String(), "b"), out.String())

	run(t, sh, "reorder 1 3 2 1", "edit 1 3 7", "append 1 _")
	out.Reset()
	run(t, sh, "cells 1")
	assert.Equal(t, "a\n  3\t7\n  2\t2.5\n  1\t1\n  6\t_\n", out.String())

	out.Reset()
	run(t, sh, "cd /", "ls")
	assert.Equal(t, "d 1\tdata/\n", out.String())
}

func TestShellDirectoryDeleteGuardsTables(t *testing.T) {
	sh, _ := newTestShell(t)
	ctx := context.Background()

	run(t, sh, "mkdir data", "cd 1", "mkcol a 1", "mktable t 1")
	assert.ErrorIs(t, sh.exec(ctx, "rmdir 1"), app.ErrColumnInUse)

	run(t, sh, "rmtable 1", "rmdir 1")
	assert.Equal(t, "plot:/> ", sh.prompt())
	assert.ErrorIs(t, sh.exec(ctx, "cells 1"), column.ErrColumnNotFound)
}

func TestShellErrors(t *testing.T) {
	sh, _ := newTestShell(t)
	ctx := context.Background()

	assert.ErrorContains(t, sh.exec(ctx, "frobnicate"), "unknown command")
	assert.ErrorIs(t, sh.exec(ctx, "exit"), errExit)
	assert.ErrorContains(t, sh.exec(ctx, "mkcol a 1"), "no current directory")
	assert.ErrorContains(t, sh.exec(ctx, "mkdir"), "usage: mkdir NAME")
	assert.NoError(t, sh.exec(ctx, "   "))

	run(t, sh, "mkdir d", "cd 1")
	var parseErr *column.CellValueParseError
	assert.ErrorAs(t, sh.exec(ctx, "mkcol a one"), &parseErr)
	for _, line := range []string{"mkcol a NaN", "mkcol a 1 Inf", "mkcol a 0x1p3"} {
		assert.ErrorAs(t, sh.exec(ctx, line), &parseErr, line)
	}
	out := &bytes.Buffer{}
	sh.out = out
	run(t, sh, "ls")
	assert.Empty(t, out.String(), "rejected values create no column")
	assert.ErrorContains(t, sh.exec(ctx, "mv 1 1 sideways 2"), "usage: mv")
	assert.ErrorIs(t, sh.exec(ctx, "cd 42"), column.ErrDirectoryNotFound)
}

func TestOpenServicesSQLite(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Driver = config.DriverSQLite
	cfg.Database.Path = filepath.Join(t.TempDir(), "plot.db")

	sv, err := openServices(cfg)
	require.NoError(t, err)
	sh := newShell(sv.container, &bytes.Buffer{})
	run(t, sh, "mkdir persisted")
	require.NoError(t, sv.Close())

	sv, err = openServices(cfg)
	require.NoError(t, err)
	defer sv.Close()
	dirs, err := sv.container.DirectoryService.ListRootDirectories(context.Background())
	require.NoError(t, err)
	require.Len(t, dirs, 1)
	assert.Equal(t, "persisted", dirs[0].Name().String())
}

func TestOpenServicesUnknownDriver(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Driver = "postgres"
	_, err := openServices(cfg)
	assert.ErrorContains(t, err, "unknown database driver")
}

func TestVersionCommand(t *testing.T) {
	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetOut(nil) })

	require.NoError(t, rootCmd.Execute())
	assert.True(t, strings.HasPrefix(out.String(), "plot dev"), out.String())
}
