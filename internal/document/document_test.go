// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package document

import (
	"errors"
	"math/rand"
	"testing"

	"cmd-runner/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memGateway struct {
	files   map[string]Contents
	readErr error
}

func (g *memGateway) Read(path string) (Contents, error) {
	if g.readErr != nil {
		return Contents{}, g.readErr
	}
	c, ok := g.files[path]
	if !ok {
		return Contents{}, apperr.ErrNotFound
	}
	return c, nil
}

func (g *memGateway) Write(path string, c Contents) error {
	g.files[path] = c
	return nil
}

func sampleGateway() *memGateway {
	return &memGateway{files: map[string]Contents{
		"/tmp/t.json": {
			Title:   "T",
			Width:   40,
			Entries: []Entry{{Label: "A", Command: "echo 1", Tooltip: "t1"}},
		},
	}}
}

func loadSample(t *testing.T) *Document {
	t.Helper()
	d := New(Defaults{})
	require.NoError(t, d.Load(sampleGateway(), "/tmp/t.json", Defaults{Width: 80}))
	return d
}

func anyEntryModified(d *Document) bool {
	for _, e := range d.Entries() {
		if e.Modified() {
			return true
		}
	}
	return false
}

func TestLoadScenario(t *testing.T) {
	d := loadSample(t)

	assert.False(t, d.Modified())
	assert.Equal(t, "T", d.Title)
	assert.Equal(t, 40, d.Width)
	assert.Equal(t, "/tmp/t.json", d.Path)
	require.Equal(t, 1, d.Len())

	e, err := d.At(0)
	require.NoError(t, err)
	assert.False(t, e.Modified())
	assert.Equal(t, Entry{Label: "A", Command: "echo 1", Tooltip: "t1"}, e.Live())
}

func TestLoadDefaults(t *testing.T) {
	g := &memGateway{files: map[string]Contents{
		"/x/deploy.json": {Entries: []Entry{{Label: "A", Command: "true"}}},
	}}
	d := New(Defaults{})
	require.NoError(t, d.Load(g, "/x/deploy.json", Defaults{Width: 120}))

	assert.Equal(t, "deploy", d.Title)
	assert.Equal(t, 120, d.Width)
}

func TestSnapshotOmitsFallbackMetadata(t *testing.T) {
	g := &memGateway{files: map[string]Contents{
		"/x/cmds.json": {Entries: []Entry{{Label: "A", Command: "echo 1"}}},
	}}
	d := New(Defaults{})
	require.NoError(t, d.Load(g, "/x/cmds.json", Defaults{Width: 120}))
	require.NoError(t, d.EditEntry(0, FieldCommand, "echo 2"))

	c := d.Snapshot()
	assert.Empty(t, c.Title)
	assert.Zero(t, c.Width)
	assert.Equal(t, []Entry{{Label: "A", Command: "echo 2"}}, c.Entries)

	r := d.Resolved()
	assert.Equal(t, "cmds", r.Title)
	assert.Equal(t, 120, r.Width)
	assert.Equal(t, c.Entries, r.Entries)
}

func TestSetPath(t *testing.T) {
	d := New(Defaults{})
	d.SetPath("/x/tools.json")
	assert.Equal(t, "tools", d.Title, "an unset title follows the file name")
	assert.Equal(t, "/x/tools.json", d.Path)

	d = loadSample(t)
	d.SetPath("/x/other.json")
	assert.Equal(t, "T", d.Title, "a title from the file is kept")
	assert.Equal(t, "T", d.Snapshot().Title)
}

func TestLoadFailureLeavesDocumentUntouched(t *testing.T) {
	d := loadSample(t)
	d.AddEntry("B")

	g := &memGateway{readErr: apperr.ErrParse}
	err := d.Load(g, "/tmp/other.json", Defaults{})
	require.ErrorIs(t, err, apperr.ErrParse)

	assert.Equal(t, "/tmp/t.json", d.Path)
	assert.Equal(t, 2, d.Len())
	assert.True(t, d.Modified())
}

func TestAddEntryScenario(t *testing.T) {
	d := loadSample(t)
	added := d.AddEntry("B")

	assert.True(t, d.Modified())
	require.Equal(t, 2, d.Len())
	assert.True(t, added.IsNew())
	assert.Equal(t, Entry{Label: "B", Command: "", Tooltip: "B"}, added.Live())
	assert.Equal(t, "B*", added.DisplayLabel())
}

func TestEditMarksEntryAndDocument(t *testing.T) {
	d := loadSample(t)
	require.NoError(t, d.EditEntry(0, FieldCommand, "echo 2"))

	e, _ := d.At(0)
	assert.True(t, e.Modified())
	assert.True(t, d.Modified())
	assert.Equal(t, "A*", e.DisplayLabel())

	// Editing back to the committed value clears the flag again.
	require.NoError(t, d.EditEntry(0, FieldCommand, "echo 1"))
	assert.False(t, e.Modified())
	assert.False(t, d.Modified())
}

func TestEditInvalidField(t *testing.T) {
	d := loadSample(t)
	err := d.EditEntry(0, Field(42), "x")
	assert.ErrorIs(t, err, apperr.ErrInvalidField)
	assert.False(t, d.Modified())
}

func TestOutOfRange(t *testing.T) {
	d := loadSample(t)
	assert.ErrorIs(t, d.ToggleDisabled(3), apperr.ErrOutOfRange)
	assert.ErrorIs(t, d.EditEntry(-1, FieldLabel, "x"), apperr.ErrOutOfRange)
	_, err := d.RevertEntry(1)
	assert.ErrorIs(t, err, apperr.ErrOutOfRange)
	_, err = d.Move(0, 1)
	assert.ErrorIs(t, err, apperr.ErrOutOfRange)
}

func TestCommitThenRevertIsNoOp(t *testing.T) {
	d := loadSample(t)
	e, _ := d.At(0)
	require.NoError(t, e.Edit(FieldLabel, "Renamed"))

	e.Commit()
	before := e.Live()
	assert.False(t, e.Revert())
	assert.Equal(t, before, e.Live())
	assert.Equal(t, before, e.Committed())
	assert.False(t, e.Modified())

	// Idempotent.
	e.Commit()
	e.Commit()
	assert.False(t, e.Revert())
	assert.False(t, e.Revert())
	assert.Equal(t, before, e.Live())
}

func TestRevertNewEntryRemovesIt(t *testing.T) {
	d := loadSample(t)
	d.AddEntry("B")
	require.True(t, d.Modified())

	removed, err := d.RevertEntry(1)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, 1, d.Len())
	assert.False(t, d.Modified())
}

func TestRevertRestoresCommittedValues(t *testing.T) {
	d := loadSample(t)
	require.NoError(t, d.EditEntry(0, FieldTooltip, "other"))
	require.NoError(t, d.ToggleDisabled(0))

	removed, err := d.RevertEntry(0)
	require.NoError(t, err)
	assert.False(t, removed)

	e, _ := d.At(0)
	assert.Equal(t, "t1", e.Live().Tooltip)
	assert.False(t, e.Disabled())
	assert.False(t, d.Modified())
}

func TestToggleDisableOnNewEntry(t *testing.T) {
	d := loadSample(t)
	d.AddEntry("B")
	require.NoError(t, d.ToggleDisabled(1))

	e, _ := d.At(1)
	assert.True(t, e.Disabled())
	assert.True(t, e.IsNew())
	assert.True(t, d.Modified())
}

func TestSnapshotSkipsDisabled(t *testing.T) {
	d := loadSample(t)
	b := d.AddEntry("B")
	require.NoError(t, d.ToggleDisabled(0))

	c := d.Snapshot()
	assert.Equal(t, "T", c.Title)
	assert.Equal(t, 40, c.Width)
	assert.Equal(t, []Entry{b.Live()}, c.Entries)
}

func TestCommitAllKeepsDisabledEntryInMemory(t *testing.T) {
	d := loadSample(t)
	d.AddEntry("B")
	require.NoError(t, d.ToggleDisabled(0))

	d.CommitAll()

	assert.False(t, d.Modified())
	require.Equal(t, 2, d.Len())
	a, _ := d.At(0)
	assert.True(t, a.Disabled())
	assert.False(t, a.Modified())
	b, _ := d.At(1)
	assert.False(t, b.IsNew())

	// Undelete after the save makes the document dirty again.
	require.NoError(t, d.ToggleDisabled(0))
	assert.True(t, d.Modified())
	assert.Len(t, d.Snapshot().Entries, 2)
}

func TestMoveIsStructuralChange(t *testing.T) {
	g := &memGateway{files: map[string]Contents{
		"f": {Entries: []Entry{{Label: "A"}, {Label: "B"}, {Label: "C"}}},
	}}
	d := New(Defaults{})
	require.NoError(t, d.Load(g, "f", Defaults{}))

	j, err := d.Move(0, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, j)
	assert.True(t, d.Modified())
	assert.False(t, anyEntryModified(d))

	labels := func() []string {
		var out []string
		for _, e := range d.Entries() {
			out = append(out, e.Live().Label)
		}
		return out
	}
	assert.Equal(t, []string{"B", "C", "A"}, labels())

	d.RevertAll()
	assert.Equal(t, []string{"A", "B", "C"}, labels())
	assert.False(t, d.Modified())

	// Moving back to the saved order is not a change.
	_, _ = d.Move(1, 1)
	_, _ = d.Move(2, -1)
	assert.False(t, d.Modified())
}

func TestRevertAll(t *testing.T) {
	d := loadSample(t)
	d.AddEntry("B")
	d.AddEntry("C")
	require.NoError(t, d.EditEntry(0, FieldLabel, "changed"))
	require.NoError(t, d.ToggleDisabled(0))

	d.RevertAll()

	require.Equal(t, 1, d.Len())
	e, _ := d.At(0)
	assert.Equal(t, "A", e.Live().Label)
	assert.False(t, e.Disabled())
	assert.False(t, d.Modified())
}

func TestReset(t *testing.T) {
	d := loadSample(t)
	d.AddEntry("B")
	d.Reset(Defaults{Title: "Fresh", Width: 60})

	assert.Equal(t, 0, d.Len())
	assert.Equal(t, "", d.Path)
	assert.Equal(t, "Fresh", d.Title)
	assert.Equal(t, 60, d.Width)
	assert.False(t, d.Modified())
}

func TestIndexOf(t *testing.T) {
	d := loadSample(t)
	b := d.AddEntry("B")
	assert.Equal(t, 1, d.IndexOf(b.ID()))
	_, _ = d.Move(1, -1)
	assert.Equal(t, 0, d.IndexOf(b.ID()))
}

// Every mutating operation leaves Modified equal to the OR over entries plus
// the structural order check, for arbitrary operation sequences.
func TestModifiedMatchesEntriesAfterRandomOps(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	fields := []Field{FieldLabel, FieldCommand, FieldTooltip}
	values := []string{"A", "echo 1", "t1", "x", ""}

	for round := 0; round < 50; round++ {
		d := loadSample(t)
		for step := 0; step < 40; step++ {
			n := d.Len()
			switch op := r.Intn(7); {
			case op == 0:
				d.AddEntry(values[r.Intn(len(values))])
			case op == 1 && n > 0:
				_ = d.EditEntry(r.Intn(n), fields[r.Intn(len(fields))], values[r.Intn(len(values))])
			case op == 2 && n > 0:
				_ = d.ToggleDisabled(r.Intn(n))
			case op == 3 && n > 0:
				_, _ = d.RevertEntry(r.Intn(n))
			case op == 4 && n > 1:
				_, _ = d.Move(r.Intn(n), []int{-1, 1}[r.Intn(2)])
			case op == 5 && r.Intn(4) == 0:
				d.CommitAll()
			case op == 6 && r.Intn(4) == 0:
				d.RevertAll()
			}

			want := anyEntryModified(d) || !d.orderIsCommitted()
			if d.Modified() != want {
				t.Fatalf("round %d step %d: Modified()=%v, want %v", round, step, d.Modified(), want)
			}
			cached := d.Modified()
			if d.RefreshModified() != cached {
				t.Fatalf("round %d step %d: cached flag drifted", round, step)
			}
		}
	}
}

func TestFieldString(t *testing.T) {
	assert.Equal(t, "command", FieldCommand.String())
	assert.True(t, errors.Is((&EntryState{}).Edit(Field(9), ""), apperr.ErrInvalidField))
}

func TestContentsLookup(t *testing.T) {
	c := Contents{Entries: []Entry{{Label: "Build"}, {Label: "2"}, {Label: "Test"}}}

	i, e, err := c.Lookup("Test")
	require.NoError(t, err)
	assert.Equal(t, 2, i)
	assert.Equal(t, "Test", e.Label)

	// Numbers are positions first.
	i, e, err = c.Lookup("1")
	require.NoError(t, err)
	assert.Equal(t, 0, i)
	assert.Equal(t, "Build", e.Label)

	_, _, err = c.Lookup("9")
	assert.ErrorIs(t, err, apperr.ErrOutOfRange)
	_, _, err = c.Lookup("Deploy")
	assert.ErrorIs(t, err, apperr.ErrUnknownEntry)
}
