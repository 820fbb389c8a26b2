package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/mpapenbr/pacelock/log"
	"github.com/mpapenbr/pacelock/pkg/repository/factory"
	"github.com/mpapenbr/pacelock/testsupport/basedata"
)

func prepareDB(t *testing.T) string {
	t.Helper()
	dbFile := filepath.Join(t.TempDir(), "pacelock.db")
	backend, err := factory.Open(context.Background(), dbFile)
	assert.NilError(t, err)
	defer backend.Close()
	assert.NilError(t, backend.Repos.Subsession().Upsert(
		context.Background(), basedata.SampleSubsession()))
	return dbFile
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	defer log.ResetDefault(log.Default())
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestShow(t *testing.T) {
	dbFile := prepareDB(t)

	out, err := execute(t, "--db", dbFile, "show", "78923458")
	assert.NilError(t, err)
	assert.Assert(t, is.Contains(out, "PaceLock - iRacing Consistency Analytics"))
	assert.Assert(t, is.Contains(out, "  Session Name: Sunday Cup\n"))
	assert.Assert(t, is.Contains(out, "  Total Entries: 6\n"))
}

func TestShowUnknown(t *testing.T) {
	dbFile := prepareDB(t)

	_, err := execute(t, "--db", dbFile, "show", "1")
	assert.ErrorContains(t, err, "subsession 1 is not stored")

	_, err = execute(t, "--db", dbFile, "show", "abc")
	assert.ErrorContains(t, err, "invalid subsession id")
}

func TestList(t *testing.T) {
	dbFile := prepareDB(t)

	out, err := execute(t, "--db", dbFile, "list")
	assert.NilError(t, err)
	assert.Assert(t, is.Contains(out, "  78923458  Sunday Cup  Spa-Francorchamps"))
}

func TestMigrate(t *testing.T) {
	dbFile := filepath.Join(t.TempDir(), "fresh.db")

	_, err := execute(t, "--db", dbFile, "migrate")
	assert.NilError(t, err)

	out, err := execute(t, "--db", dbFile, "list")
	assert.NilError(t, err)
	assert.Assert(t, is.Contains(out, "No subsessions stored."))
}

func TestSubcommands(t *testing.T) {
	cmd := NewRootCmd()
	names := map[string]bool{}
	for _, c := range cmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"fetch", "show", "list", "laps", "migrate"} {
		assert.Assert(t, names[want], "missing command %s", want)
	}
}
