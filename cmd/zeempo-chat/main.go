// Command zeempo-chat is a terminal client for the Zeempo translation
// service: sign in, chat in Pidgin or Swahili, browse and manage saved
// conversations, and hop onto the realtime voice agent.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/zeempo/zeempo-go/internal/dotenv"
	"github.com/zeempo/zeempo-go/pkg/cache"
	"github.com/zeempo/zeempo-go/pkg/core"
	"github.com/zeempo/zeempo-go/pkg/core/auth"
	"github.com/zeempo/zeempo-go/pkg/core/modality"
	"github.com/zeempo/zeempo-go/pkg/core/session"
	"github.com/zeempo/zeempo-go/pkg/settings"
	zeempo "github.com/zeempo/zeempo-go/sdk"
)

const (
	defaultTimeout = 60 * time.Second
)

type chatConfig struct {
	ServerURL    string
	CachePath    string
	SettingsPath string
	Timeout      time.Duration
	LogLevel     string
}

func parseChatConfig(args []string, getenv func(string) string) (chatConfig, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	cfg := chatConfig{}
	fs := flag.NewFlagSet("zeempo-chat", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerURL, "server-url", strings.TrimSpace(getenv("ZEEMPO_SERVER_URL")), "Zeempo backend base URL (or ZEEMPO_SERVER_URL)")
	fs.StringVar(&cfg.CachePath, "cache", strings.TrimSpace(getenv("ZEEMPO_CACHE_PATH")), "local cache file (or ZEEMPO_CACHE_PATH)")
	fs.StringVar(&cfg.SettingsPath, "settings", strings.TrimSpace(getenv("ZEEMPO_SETTINGS_PATH")), "settings YAML file (or ZEEMPO_SETTINGS_PATH)")
	fs.DurationVar(&cfg.Timeout, "timeout", defaultTimeout, "per-operation timeout (e.g. 60s)")
	fs.StringVar(&cfg.LogLevel, "log-level", "warn", "log level: debug, info, warn, error")

	if err := fs.Parse(args); err != nil {
		return chatConfig{}, err
	}

	if cfg.CachePath == "" {
		cfg.CachePath = defaultStatePath("cache.db")
	}
	if cfg.SettingsPath == "" {
		cfg.SettingsPath = defaultStatePath("settings.yaml")
	}
	if err := validateChatConfig(&cfg); err != nil {
		return chatConfig{}, err
	}
	return cfg, nil
}

func defaultStatePath(name string) string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return name
	}
	return filepath.Join(dir, "zeempo", name)
}

func validateChatConfig(cfg *chatConfig) error {
	if cfg.Timeout <= 0 {
		return errors.New("timeout must be > 0")
	}
	if cfg.ServerURL == "" {
		return nil // settings file supplies the default
	}
	parsed, err := url.Parse(cfg.ServerURL)
	if err != nil || strings.TrimSpace(parsed.Scheme) == "" || strings.TrimSpace(parsed.Host) == "" {
		return errors.New("server-url must be a valid absolute URL")
	}
	if parsed.User != nil {
		return errors.New("server-url must not include credentials")
	}
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// app bundles the wired components behind the REPL.
type app struct {
	client       *zeempo.Client
	authCtl      *auth.Controller
	orchestrator *session.Orchestrator
	coordinator  *modality.Coordinator
	store        *cache.Cache
	prefs        *settings.Settings
	timeout      time.Duration
	out          io.Writer
	errOut       io.Writer

	agentSession *zeempo.LiveSession
}

func newApp(cfg chatConfig, logger *slog.Logger, out, errOut io.Writer) (*app, error) {
	prefs := settings.Load(cfg.SettingsPath)
	serverURL := cfg.ServerURL
	if serverURL == "" {
		serverURL = prefs.ServerURL
	}

	if dir := filepath.Dir(cfg.CachePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}
	store, err := cache.Open(cfg.CachePath)
	if err != nil {
		return nil, err
	}

	vault := auth.NewTokenVault()
	var authCtl *auth.Controller
	client := zeempo.NewClient(serverURL,
		zeempo.WithLogger(logger),
		zeempo.WithTokenSource(vault),
		zeempo.WithUnauthorizedHandler(func() {
			if authCtl != nil {
				authCtl.HandleUnauthorized()
			}
		}),
	)
	authCtl = auth.NewController(client.AuthAPI(), vault,
		auth.WithCredentialStore(store),
		auth.WithLogger(logger),
	)

	orchestrator := session.New(client.SessionStore(), authCtl,
		session.WithDraftStore(store),
		session.WithLogger(logger),
		session.WithLanguage(prefs.Language),
	)
	authCtl.OnLogout(orchestrator.Clear)

	a := &app{
		client:       client,
		authCtl:      authCtl,
		orchestrator: orchestrator,
		store:        store,
		prefs:        prefs,
		timeout:      cfg.Timeout,
		out:          out,
		errOut:       errOut,
	}

	coordinator := modality.New(voiceConversation{a},
		modality.WithVoiceChannel(agentChannel{a}),
		modality.WithLogger(logger),
	)
	orchestrator.SetPlaybackSink(func(text string) {
		coordinator.PlayAssistant(context.Background(), text)
	})
	a.coordinator = coordinator
	return a, nil
}

// voiceConversation feeds coordinator utterances into the orchestrator as
// voice-origin sends.
type voiceConversation struct{ a *app }

func (v voiceConversation) SendMessage(ctx context.Context, text string) error {
	_, err := v.a.orchestrator.SendMessage(ctx, text, session.SendOptions{VoiceOrigin: true})
	return err
}

// agentChannel adapts the SDK live session to the coordinator's
// connect/disconnect seam.
type agentChannel struct{ a *app }

func (c agentChannel) Connect(ctx context.Context) error {
	agentID := c.a.prefs.AgentID()
	if agentID == "" {
		return core.NewUnsupportedError("no voice agent configured for " + c.a.prefs.Language)
	}
	sess, err := c.a.client.Live.Connect(ctx, zeempo.LiveConnectRequest{
		AgentID:  agentID,
		Language: c.a.prefs.Language,
	})
	if err != nil {
		return err
	}
	c.a.agentSession = sess
	go func() {
		for event := range sess.Events() {
			if t, ok := event.(zeempo.LiveTranscriptEvent); ok && t.IsFinal {
				fmt.Fprintf(c.a.out, "\n[%s] %s\n> ", t.Role, t.Text)
			}
		}
	}()
	return nil
}

func (c agentChannel) Disconnect() error {
	if c.a.agentSession == nil {
		return nil
	}
	err := c.a.agentSession.Close()
	c.a.agentSession = nil
	return err
}

func (a *app) close() {
	_ = a.coordinator.DisconnectVoiceChannel()
	_ = a.store.Close()
}

func (a *app) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), a.timeout)
}

func (a *app) send(text string) {
	ctx, cancel := a.ctx()
	defer cancel()
	msg, err := a.orchestrator.SendMessage(ctx, text, session.SendOptions{})
	if err != nil {
		if core.IsAuthRequired(err) {
			fmt.Fprintln(a.errOut, "sign in first (/login or /register); your message is saved")
			return
		}
		fmt.Fprintf(a.errOut, "send error: %v\n", err)
		return
	}
	fmt.Fprintf(a.out, "zeempo: %s\n", msg.Content)
}

func (a *app) printSessions() {
	ctx, cancel := a.ctx()
	defer cancel()
	if err := a.orchestrator.RefreshSessionList(ctx); err != nil {
		fmt.Fprintf(a.errOut, "list error: %v\n", err)
		return
	}
	summaries := a.orchestrator.Summaries()
	if len(summaries) == 0 {
		fmt.Fprintln(a.out, "no saved conversations")
		return
	}
	for i, s := range summaries {
		fmt.Fprintf(a.out, "%2d. %s (%s)\n", i+1, s.Title, s.UpdatedAt.Format("2006-01-02 15:04"))
	}
}

func (a *app) openSession(arg string) {
	index, err := strconv.Atoi(strings.TrimSpace(arg))
	summaries := a.orchestrator.Summaries()
	if err != nil || index < 1 || index > len(summaries) {
		fmt.Fprintln(a.errOut, "usage: /open N (see /list)")
		return
	}
	ctx, cancel := a.ctx()
	defer cancel()
	if err := a.orchestrator.LoadSession(ctx, summaries[index-1].ID); err != nil {
		fmt.Fprintf(a.errOut, "open error: %v\n", err)
		return
	}
	active := a.orchestrator.ActiveSession()
	fmt.Fprintf(a.out, "-- %s --\n", active.Title)
	for _, m := range active.Messages {
		fmt.Fprintf(a.out, "%s: %s\n", m.Role, m.Content)
	}
}

func (a *app) deleteSession(arg string) {
	index, err := strconv.Atoi(strings.TrimSpace(arg))
	summaries := a.orchestrator.Summaries()
	if err != nil || index < 1 || index > len(summaries) {
		fmt.Fprintln(a.errOut, "usage: /delete N (see /list)")
		return
	}
	ctx, cancel := a.ctx()
	defer cancel()
	if err := a.orchestrator.DeleteSession(ctx, summaries[index-1].ID); err != nil {
		fmt.Fprintf(a.errOut, "delete error: %v\n", err)
		return
	}
	fmt.Fprintln(a.out, "conversation deleted")
}

func (a *app) login(scanner *bufio.Scanner) {
	email := prompt(scanner, a.out, "email: ")
	password := prompt(scanner, a.out, "password: ")
	ctx, cancel := a.ctx()
	defer cancel()
	user, err := a.authCtl.Login(ctx, email, password)
	if err != nil {
		fmt.Fprintf(a.errOut, "login error: %v\n", err)
		return
	}
	fmt.Fprintf(a.out, "welcome back, %s\n", user.Name)
	a.resumeDraft()
}

func (a *app) register(scanner *bufio.Scanner) {
	email := prompt(scanner, a.out, "email: ")
	password := prompt(scanner, a.out, "password: ")
	name := prompt(scanner, a.out, "name: ")
	ctx, cancel := a.ctx()
	defer cancel()
	user, err := a.authCtl.Register(ctx, email, password, name)
	if err != nil {
		fmt.Fprintf(a.errOut, "register error: %v\n", err)
		return
	}
	fmt.Fprintf(a.out, "welcome, %s\n", user.Name)
	a.resumeDraft()
}

// resumeDraft replays a message typed before sign-in.
func (a *app) resumeDraft() {
	ctx, cancel := a.ctx()
	defer cancel()
	if draft := a.orchestrator.Draft(ctx); draft != "" {
		fmt.Fprintf(a.out, "sending saved message: %s\n", draft)
		a.send(draft)
	}
}

func (a *app) upgrade() {
	ctx, cancel := a.ctx()
	defer cancel()
	checkoutURL, err := a.client.Payments.CreateCheckout(ctx)
	if err != nil {
		fmt.Fprintf(a.errOut, "checkout error: %v\n", err)
		return
	}
	fmt.Fprintf(a.out, "open to upgrade: %s\n", checkoutURL)
}

func (a *app) captureVoice() {
	ctx, cancel := a.ctx()
	defer cancel()
	if err := a.coordinator.StartCapture(ctx); err != nil {
		fmt.Fprintf(a.errOut, "voice capture error: %v\n", err)
	}
}

func (a *app) toggleAgent() {
	if a.coordinator.State() == modality.StateVoiceChannelActive {
		if err := a.coordinator.DisconnectVoiceChannel(); err != nil {
			fmt.Fprintf(a.errOut, "agent disconnect error: %v\n", err)
			return
		}
		fmt.Fprintln(a.out, "voice agent disconnected")
		return
	}
	ctx, cancel := a.ctx()
	defer cancel()
	if err := a.coordinator.ConnectVoiceChannel(ctx); err != nil {
		fmt.Fprintf(a.errOut, "agent connect error: %v\n", err)
		return
	}
	fmt.Fprintln(a.out, "voice agent connected; /agent again to hang up")
}

func prompt(scanner *bufio.Scanner, out io.Writer, label string) string {
	fmt.Fprint(out, label)
	if !scanner.Scan() {
		return ""
	}
	return strings.TrimSpace(scanner.Text())
}

func runREPL(a *app, in io.Reader) error {
	fmt.Fprintf(a.out, "zeempo-chat connected to %s (language: %s)\n", a.client.BaseURL(), a.prefs.Language)

	restoreCtx, cancel := a.ctx()
	user, ok, err := a.authCtl.RestoreSession(restoreCtx)
	cancel()
	switch {
	case err != nil:
		fmt.Fprintf(a.errOut, "session restore failed: %v\n", err)
	case ok:
		fmt.Fprintf(a.out, "signed in as %s\n", user.Name)
	default:
		fmt.Fprintln(a.out, "not signed in; /login or /register")
	}

	fmt.Fprintln(a.out, "type a message, or /help for commands")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(a.out, "> ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			fmt.Fprintln(a.out)
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case line == "/exit" || line == "/quit":
			fmt.Fprintln(a.out, "bye")
			return nil
		case line == "/help":
			fmt.Fprintln(a.out, "/register /login /logout /new /list /open N /delete N /voice /agent /upgrade /exit")
		case line == "/register":
			a.register(scanner)
		case line == "/login":
			a.login(scanner)
		case line == "/logout":
			a.authCtl.Logout(context.Background())
			fmt.Fprintln(a.out, "signed out")
		case line == "/new":
			a.orchestrator.StartNewSession()
			fmt.Fprintln(a.out, "new conversation")
		case line == "/list":
			a.printSessions()
		case strings.HasPrefix(line, "/open"):
			a.openSession(strings.TrimPrefix(line, "/open"))
		case strings.HasPrefix(line, "/delete"):
			a.deleteSession(strings.TrimPrefix(line, "/delete"))
		case line == "/voice":
			a.captureVoice()
		case line == "/agent":
			a.toggleAgent()
		case line == "/upgrade":
			a.upgrade()
		case strings.HasPrefix(line, "/"):
			fmt.Fprintf(a.errOut, "unknown command %s (try /help)\n", line)
		default:
			a.send(line)
		}
	}
}

func main() {
	_ = dotenv.Load(".env")

	cfg, err := parseChatConfig(os.Args[1:], os.Getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	a, err := newApp(cfg, logger, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "startup error: %v\n", err)
		os.Exit(1)
	}
	defer a.close()

	if err := runREPL(a, os.Stdin); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}
