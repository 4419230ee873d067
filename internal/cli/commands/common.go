package commands

import (
	"fmt"
	"io"

	"github.com/trashdash/trashdash-go/internal/api"
	cliconfig "github.com/trashdash/trashdash-go/internal/cli/config"
	"github.com/trashdash/trashdash-go/internal/config"
	"github.com/trashdash/trashdash-go/internal/credentials"
	"github.com/trashdash/trashdash-go/internal/logger"
	"github.com/trashdash/trashdash-go/internal/session"
)

// newSessionStore builds the session store for the app named in
// trashdash.yaml, wired to the real backend, the OS keyring and the user
// config directory. This is the common setup every command starts from.
func newSessionStore(out io.Writer) (*session.Store, session.Config, error) {
	fileCfg, err := cliconfig.LoadFromCurrentDir()
	if err != nil {
		return nil, session.Config{}, fmt.Errorf("failed to load config: %w\nRun 'trashdash init' to create a configuration file", err)
	}
	if err := fileCfg.Validate(); err != nil {
		return nil, session.Config{}, err
	}

	appCfg, ok := session.ConfigForApp(fileCfg.App)
	if !ok {
		return nil, session.Config{}, fmt.Errorf("unknown app %q", fileCfg.App)
	}

	envCfg, err := config.Load()
	if err != nil {
		return nil, session.Config{}, err
	}
	baseURL := fileCfg.APIURL
	if baseURL == "" {
		baseURL = envCfg.API.BaseURL
	}

	log := logger.GetLogger()
	client := api.New(baseURL, appCfg.TokenKey, credentials.Keyring, api.WithLogger(log))
	store := session.New(appCfg, client, credentials.Keyring, credentials.NewRecordStore(""),
		session.WithLogger(log))

	// The CLI has no login screen to redirect to; the 401 policy becomes
	// "tell the user the session is gone".
	client.SetUnauthorizedHook(func() {
		store.ForceLogout()
		fmt.Fprintln(out, "Session expired. Please run 'trashdash login' again.")
	})

	return store, appCfg, nil
}
