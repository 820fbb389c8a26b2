package fetch

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/mpapenbr/pacelock/pkg/config"
	"github.com/mpapenbr/pacelock/pkg/db/sqlite"
	"github.com/mpapenbr/pacelock/pkg/iracing"
	"github.com/mpapenbr/pacelock/pkg/repository/factory"
	"github.com/mpapenbr/pacelock/testsupport/basedata"
)

func fakeAPI(t *testing.T, authMessage string) *httptest.Server {
	t.Helper()
	var ts *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/auth", func(w http.ResponseWriter, r *http.Request) {
		if authMessage != "" {
			fmt.Fprintf(w, `{"authcode": 0, "message": %q}`, authMessage)
			return
		}
		fmt.Fprint(w, `{"authcode": "abc"}`)
	})
	mux.HandleFunc("/data/results/get", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("subsession_id") != fmt.Sprint(basedata.SampleSubsessionID) {
			fmt.Fprint(w, `{}`)
			return
		}
		fmt.Fprintf(w, `{"link": "%s/links/result"}`, ts.URL)
	})
	mux.HandleFunc("/links/result", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, basedata.SamplePayload)
	})
	ts = httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func setup(t *testing.T, ts *httptest.Server) {
	t.Helper()
	config.DB = filepath.Join(t.TempDir(), "pacelock.db")
	config.EnvFile = ""
	config.APIURL = ts.URL
	config.AuthURL = ts.URL + "/auth"
	config.HTTPTimeout = "5s"
	t.Setenv(config.UsernameEnv, "driver@example.com")
	t.Setenv(config.PasswordEnv, "secret")
}

func TestRun(t *testing.T) {
	setup(t, fakeAPI(t, ""))

	var out bytes.Buffer
	err := Run(context.Background(), &out, basedata.SampleSubsessionID)
	assert.NilError(t, err)

	text := out.String()
	for _, line := range []string{
		"Initializing database...\n",
		"Connecting to iRacing API...\n",
		"Loading subsession 78923458...\n",
		"  Session: Sunday Cup\n",
		"✓ Data stored in database",
		"  0. Alex Driver\n",
		"  Track: Spa-Francorchamps\n",
		"✓ Process completed successfully",
	} {
		assert.Assert(t, is.Contains(text, line))
	}

	backend, err := factory.Open(context.Background(), config.DB)
	assert.NilError(t, err)
	defer backend.Close()
	stored, err := backend.Repos.Subsession().LoadByID(
		context.Background(), basedata.SampleSubsessionID)
	assert.NilError(t, err)
	assert.Equal(t, stored.SessionName(), "Sunday Cup")
}

func TestRunStoreFails(t *testing.T) {
	setup(t, fakeAPI(t, ""))
	db, err := sqlite.Open(context.Background(), config.DB)
	assert.NilError(t, err)
	_, err = db.Exec(`CREATE TRIGGER reject_insert BEFORE INSERT ON subsessions
		BEGIN SELECT RAISE(ABORT, 'rejected'); END`)
	assert.NilError(t, err)
	assert.NilError(t, db.Close())

	var out bytes.Buffer
	err = Run(context.Background(), &out, basedata.SampleSubsessionID)
	assert.NilError(t, err)

	text := out.String()
	for _, line := range []string{
		"⚠ Warning: Failed to store data in database",
		"  Session Name: Sunday Cup\n",
		"✓ Process completed successfully",
	} {
		assert.Assert(t, is.Contains(text, line))
	}
	assert.Assert(t, !strings.Contains(text, "✓ Data stored in database"))
}

func TestRunNoData(t *testing.T) {
	setup(t, fakeAPI(t, ""))

	var out bytes.Buffer
	err := Run(context.Background(), &out, 1)
	assert.ErrorIs(t, err, iracing.ErrNoData)
	assert.Assert(t, is.Contains(out.String(), "ERROR: No data returned for subsession 1\n"))
	assert.Assert(t, strings.HasSuffix(out.String(),
		"Failed to load subsession data. Exiting.\n"))
}

func TestRunLegacyAuthRefused(t *testing.T) {
	setup(t, fakeAPI(t, "Legacy authorization refused."))

	var out bytes.Buffer
	err := Run(context.Background(), &out, basedata.SampleSubsessionID)
	assert.ErrorIs(t, err, iracing.ErrLegacyAuthRefused)
	assert.Assert(t, is.Contains(out.String(), "Legacy Authorization Required"))
	assert.Assert(t, is.Contains(out.String(), "Failed to load subsession data. Exiting."))
}

func TestRunMissingCredentials(t *testing.T) {
	setup(t, fakeAPI(t, ""))
	t.Setenv(config.UsernameEnv, "")

	var out bytes.Buffer
	err := Run(context.Background(), &out, basedata.SampleSubsessionID)
	assert.ErrorIs(t, err, iracing.ErrMissingCredentials)
	assert.Assert(t, is.Contains(out.String(), "ERROR: iRacing credentials not found!"))
	assert.Assert(t, !strings.Contains(out.String(), "Loading subsession"))
}

func TestRunCredentialsFromEnvFile(t *testing.T) {
	setup(t, fakeAPI(t, ""))
	t.Setenv(config.UsernameEnv, "")
	t.Setenv(config.PasswordEnv, "")
	// gotenv does not override variables present in the environment
	// (even empty ones), so they are unset for this test.
	unsetenv(t, config.UsernameEnv)
	unsetenv(t, config.PasswordEnv)

	envFile := filepath.Join(t.TempDir(), ".env")
	writeFile(t, envFile,
		config.UsernameEnv+"=driver@example.com\n"+config.PasswordEnv+"=secret\n")
	config.EnvFile = envFile

	var out bytes.Buffer
	err := Run(context.Background(), &out, basedata.SampleSubsessionID)
	assert.NilError(t, err)
}
