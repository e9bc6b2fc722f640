package command

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/postvote-go/internal/cli/config"
	"github.com/yndnr/postvote-go/internal/cli/connection"
	"github.com/yndnr/postvote-go/internal/core/service"
	"github.com/yndnr/postvote-go/internal/server/httpserver"
	"github.com/yndnr/postvote-go/internal/storage/memory"
	"github.com/yndnr/postvote-go/internal/telemetry/logger"
)

type fakePinger struct{ err error }

func (p fakePinger) Backend() string            { return "memory" }
func (p fakePinger) Ping(context.Context) error { return p.err }

// testEnv is a postvote-server over memory storage plus a private CLI
// settings file.
type testEnv struct {
	server     *httptest.Server
	configPath string
}

func newTestEnv(t *testing.T, pinger fakePinger) *testEnv {
	t.Helper()

	auth := service.NewAuthService(memory.NewUserStore(), nil)
	posts := service.NewPostService(memory.NewPostStore(), auth, nil)
	srv := httptest.NewServer(httpserver.NewRouter(&httpserver.RouterConfig{
		AuthService: auth,
		PostService: posts,
		Storage:     pinger,
		Logger:      logger.Discard(),
	}))
	t.Cleanup(srv.Close)

	return &testEnv{
		server:     srv,
		configPath: filepath.Join(t.TempDir(), "cli.yaml"),
	}
}

// run executes the CLI against the test server.
func (e *testEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	app := App()
	var stdout, stderr bytes.Buffer
	app.Writer = &stdout
	app.ErrWriter = &stderr
	app.ExitErrHandler = func(*cli.Context, error) {}

	full := append([]string{"postvote-cli", "--config", e.configPath, "--server", e.server.URL}, args...)
	err := app.Run(full)
	return stdout.String(), stderr.String(), err
}

// runJSON runs a command with -o json and decodes its output.
func (e *testEnv) runJSON(t *testing.T, target any, args ...string) {
	t.Helper()

	out, _, err := e.run(t, append([]string{"-o", "json"}, args...)...)
	if err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	if err := json.Unmarshal([]byte(out), target); err != nil {
		t.Fatalf("%v: decode %q: %v", args, out, err)
	}
}

func TestApp_Commands(t *testing.T) {
	app := App()

	want := map[string][]string{
		"user":    {"register"},
		"session": {"login", "verify", "forget"},
		"post":    {"create", "get", "vote"},
		"system":  {"health", "ready"},
	}
	for _, cmd := range app.Commands {
		subs, ok := want[cmd.Name]
		if !ok {
			t.Errorf("unexpected command %q", cmd.Name)
			continue
		}
		names := make(map[string]bool)
		for _, sub := range cmd.Subcommands {
			names[sub.Name] = true
		}
		for _, s := range subs {
			if !names[s] {
				t.Errorf("%s: missing subcommand %q", cmd.Name, s)
			}
		}
		delete(want, cmd.Name)
	}
	for name := range want {
		t.Errorf("missing command %q", name)
	}
}

func TestRegisterPostAndVote(t *testing.T) {
	env := newTestEnv(t, fakePinger{})

	var alice sessionView
	env.runJSON(t, &alice, "user", "register", "--email", "alice@x.com", "--password", "pw-alice", "--save")
	if alice.UserID == "" || alice.Token == "" {
		t.Fatalf("register returned %+v", alice)
	}

	saved, err := config.Load(env.configPath)
	if err != nil {
		t.Fatal(err)
	}
	if saved.UserID != alice.UserID || saved.Token != alice.Token {
		t.Errorf("saved session = %q/%q, want %q/%q", saved.UserID, saved.Token, alice.UserID, alice.Token)
	}

	// Uses the saved session.
	var post postView
	env.runJSON(t, &post, "post", "create", "--title", "hello", "--body", "first post")
	if post.AuthorID != alice.UserID || post.Upvotes != 1 {
		t.Errorf("created post = %+v", post)
	}

	var bob sessionView
	env.runJSON(t, &bob, "user", "register", "--email", "bob@x.com", "--password", "pw-bob")

	var vote voteView
	env.runJSON(t, &vote, "--user-id", bob.UserID, "--token", bob.Token, "post", "vote", post.ID, "down")
	if vote.State != "down" || vote.Upvotes != 1 || vote.Downvotes != 1 || vote.Score != 0 {
		t.Errorf("vote = %+v", vote)
	}

	env.runJSON(t, &vote, "--user-id", bob.UserID, "--token", bob.Token, "post", "vote", post.ID, "down")
	if vote.State != "none" || vote.Downvotes != 0 {
		t.Errorf("repeated vote = %+v", vote)
	}

	out, _, err := env.run(t, "post", "get", post.ID)
	if err != nil {
		t.Fatalf("post get: %v", err)
	}
	for _, s := range []string{"TITLE", "hello", "first post", alice.UserID} {
		if !strings.Contains(out, s) {
			t.Errorf("post get output missing %q:\n%s", s, out)
		}
	}
}

func TestLoginAndVerify(t *testing.T) {
	env := newTestEnv(t, fakePinger{})

	var registered, login sessionView
	env.runJSON(t, &registered, "user", "register", "--email", "carol@x.com", "--password", "pw")
	env.runJSON(t, &login, "session", "login", "--email", "carol@x.com", "--password", "pw")
	if login.UserID != registered.UserID {
		t.Errorf("login user = %q, want %q", login.UserID, registered.UserID)
	}

	var verify verifyView
	env.runJSON(t, &verify, "--user-id", login.UserID, "--token", login.Token, "session", "verify")
	if !verify.Valid {
		t.Errorf("verify = %+v, want valid", verify)
	}

	// The login replaced the session issued by register.
	out, _, err := env.run(t, "-o", "yaml", "--user-id", login.UserID, "--token", registered.Token, "session", "verify")
	if err == nil || !strings.Contains(err.Error(), "not valid") {
		t.Errorf("stale token: error = %v", err)
	}
	if !strings.Contains(out, "valid: false") {
		t.Errorf("stale token output = %q", out)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	env := newTestEnv(t, fakePinger{})
	env.runJSON(t, &sessionView{}, "user", "register", "--email", "dave@x.com", "--password", "right")

	_, _, err := env.run(t, "session", "login", "--email", "dave@x.com", "--password", "wrong")

	var apiErr *connection.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Status != 401 || apiErr.Code != "PV-AUTH-4011" {
		t.Errorf("error = %d %s", apiErr.Status, apiErr.Code)
	}
}

func TestCommands_NeedSession(t *testing.T) {
	env := newTestEnv(t, fakePinger{})

	tests := [][]string{
		{"post", "create", "--title", "t"},
		{"post", "vote", "some-id", "up"},
		{"session", "verify"},
	}
	for _, args := range tests {
		t.Run(strings.Join(args[:2], " "), func(t *testing.T) {
			_, _, err := env.run(t, args...)
			if !errors.Is(err, errNoSession) {
				t.Errorf("error = %v, want errNoSession", err)
			}
		})
	}
}

func TestCommands_UsageErrors(t *testing.T) {
	env := newTestEnv(t, fakePinger{})

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"post", "get"}, "usage: post get"},
		{[]string{"--user-id", "u", "--token", "t", "post", "vote", "only-id"}, "usage: post vote"},
		{[]string{"-o", "xml", "system", "health"}, "unknown output format"},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			_, _, err := env.run(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestPostGet_NotFound(t *testing.T) {
	env := newTestEnv(t, fakePinger{})

	_, _, err := env.run(t, "post", "get", "missing")

	var apiErr *connection.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != "PV-POST-4040" {
		t.Errorf("error = %v, want PV-POST-4040", err)
	}
}

func TestSessionForget(t *testing.T) {
	env := newTestEnv(t, fakePinger{})
	env.runJSON(t, &sessionView{}, "user", "register", "--email", "erin@x.com", "--password", "pw", "--save")

	out, _, err := env.run(t, "session", "forget")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "removed") {
		t.Errorf("output = %q", out)
	}

	saved, err := config.Load(env.configPath)
	if err != nil {
		t.Fatal(err)
	}
	if saved.HasSession() {
		t.Error("session still saved")
	}
	if saved.Server != env.server.URL {
		t.Errorf("server = %q, want it kept", saved.Server)
	}

	out, _, err = env.run(t, "session", "forget")
	if err != nil || !strings.Contains(out, "no saved session") {
		t.Errorf("second forget = %q, %v", out, err)
	}
}

func TestSystemHealthAndReady(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		env := newTestEnv(t, fakePinger{})

		out, _, err := env.run(t, "-o", "yaml", "system", "health")
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out, "status: healthy") {
			t.Errorf("health output = %q", out)
		}

		var ready healthView
		env.runJSON(t, &ready, "system", "ready")
		if ready.Status != "ready" || ready.Backend != "memory" {
			t.Errorf("ready = %+v", ready)
		}
	})

	t.Run("storage down", func(t *testing.T) {
		env := newTestEnv(t, fakePinger{err: errors.New("db down")})

		out, _, err := env.run(t, "system", "ready")
		if err == nil || !strings.Contains(err.Error(), "unavailable: db down") {
			t.Errorf("error = %v", err)
		}
		if !strings.Contains(out, "unavailable") {
			t.Errorf("output = %q", out)
		}
	})

	t.Run("unreachable", func(t *testing.T) {
		env := newTestEnv(t, fakePinger{})
		env.server.Close()

		_, _, err := env.run(t, "system", "health")
		if err == nil || !strings.Contains(err.Error(), "unreachable") {
			t.Errorf("error = %v", err)
		}
	})
}

func TestParseGlobalFlags_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.yaml")
	saved := &config.CLIConfig{
		Server: "https://saved.example.com",
		Output: "yaml",
		UserID: "saved-user",
		Token:  "saved-token",
	}
	if err := config.Save(saved, path); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		args       []string
		wantServer string
		wantOutput string
		wantUser   string
		wantToken  string
	}{
		{
			name:       "settings file",
			wantServer: "https://saved.example.com",
			wantOutput: "yaml",
			wantUser:   "saved-user",
			wantToken:  "saved-token",
		},
		{
			name:       "flags win",
			args:       []string{"--server", "http://flag:1", "-o", "json", "--user-id", "flag-user", "--token", "flag-token"},
			wantServer: "http://flag:1",
			wantOutput: "json",
			wantUser:   "flag-user",
			wantToken:  "flag-token",
		},
		{
			name:       "partial credentials do not mix with the saved session",
			args:       []string{"--user-id", "flag-user"},
			wantServer: "https://saved.example.com",
			wantOutput: "yaml",
			wantUser:   "flag-user",
			wantToken:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *GlobalFlags
			app := App()
			app.Writer = &bytes.Buffer{}
			app.Commands = []*cli.Command{{
				Name: "probe",
				Action: func(c *cli.Context) error {
					var err error
					got, err = ParseGlobalFlags(c)
					return err
				},
			}}

			args := append([]string{"postvote-cli", "--config", path}, tt.args...)
			if err := app.Run(append(args, "probe")); err != nil {
				t.Fatal(err)
			}

			if got.Server != tt.wantServer {
				t.Errorf("Server = %q, want %q", got.Server, tt.wantServer)
			}
			if string(got.Output) != tt.wantOutput {
				t.Errorf("Output = %q, want %q", got.Output, tt.wantOutput)
			}
			if got.UserID != tt.wantUser || got.Token != tt.wantToken {
				t.Errorf("credentials = %q/%q, want %q/%q", got.UserID, got.Token, tt.wantUser, tt.wantToken)
			}
		})
	}
}

func TestNewClient_CAFile(t *testing.T) {
	app := App()
	app.Writer = &bytes.Buffer{}
	app.ExitErrHandler = func(*cli.Context, error) {}

	missing := filepath.Join(t.TempDir(), "missing.pem")
	app.Commands = []*cli.Command{{
		Name: "probe",
		Action: func(c *cli.Context) error {
			_, _, err := newClient(c)
			return err
		},
	}}

	err := app.Run([]string{"postvote-cli", "--config", filepath.Join(t.TempDir(), "cli.yaml"), "--ca-file", missing, "probe"})
	if err == nil || !strings.Contains(err.Error(), "tls") {
		t.Errorf("error = %v, want tls error", err)
	}
}
