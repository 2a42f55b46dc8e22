package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"sigil/internal/app"
	"sigil/internal/logging"
)

const envPrefix = "SIGIL"

// Configuration keys shared by flags, environment and config.yaml.
const (
	keyHome       = "home"
	keyPassphrase = "passphrase"
	keySpool      = "spool"
	keyLogLevel   = "log-level"
	keyLogFormat  = "log-format"
	keySealRate   = "seal-rate"
	keySealBurst  = "seal-burst"
	keyWorkers    = "workers"
	keyScryptCost = "scrypt-cost"
)

var (
	cfg    *viper.Viper
	appCtx *app.Wire
)

// Execute runs the CLI with os.Args.
func Execute() error {
	defer closeApp()
	return newRootCmd().Execute()
}

// closeApp flushes the logger and closes the history database, whether or
// not the command succeeded.
func closeApp() {
	if appCtx == nil {
		return
	}
	_ = appCtx.Log.Sync()
	_ = appCtx.Close()
	appCtx = nil
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	root := &cobra.Command{
		Use:          "sigil",
		Short:        "Sign-and-seal messages between two peers",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg = v
			if err := loadConfig(v); err != nil {
				return err
			}
			home := v.GetString(keyHome)
			if err := os.MkdirAll(home, 0o700); err != nil {
				return err
			}

			log, err := logging.New(v.GetString(keyLogLevel), v.GetString(keyLogFormat))
			if err != nil {
				return err
			}
			w, err := app.NewWire(app.Config{
				Home:       home,
				SpoolDir:   v.GetString(keySpool),
				Logger:     log,
				SealRate:   v.GetDuration(keySealRate),
				Burst:      v.GetInt(keySealBurst),
				Workers:    v.GetInt(keyWorkers),
				ScryptCost: v.GetInt(keyScryptCost),
			})
			if err != nil {
				return err
			}
			appCtx = w
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.String(keyHome, "", "data dir (default ~/.sigil)")
	pf.StringP(keyPassphrase, "p", "", "passphrase protecting keys (prompted when omitted)")
	pf.String(keySpool, "", "shared spool dir used by send and recv")
	pf.String(keyLogLevel, "warn", "log level: debug, info, warn, error")
	pf.String(keyLogFormat, "console", "log format: console or json")
	pf.Duration(keySealRate, 0, "minimum interval between seals (0 disables throttling)")
	pf.Int(keySealBurst, 8, "seals allowed back to back")
	pf.Int(keyWorkers, 0, "concurrent envelope opens (0 = GOMAXPROCS)")
	pf.Int(keyScryptCost, 0, "keystore scrypt cost N (0 = default)")
	_ = pf.MarkHidden(keyScryptCost)
	_ = v.BindPFlags(pf)

	root.AddCommand(
		initCmd(),
		fingerprintCmd(),
		shareCmd(),
		connectCmd(),
		peersCmd(),
		sessionKeyCmd(),
		disconnectCmd(),
		sealCmd(),
		openCmd(),
		sendCmd(),
		recvCmd(),
		historyCmd(),
		demoCmd(),
		resetCmd(),
	)
	return root
}

// loadConfig resolves the home directory, then layers SIGIL_* variables and
// an optional home/config.yaml under the bound flags.
func loadConfig(v *viper.Viper) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if v.GetString(keyHome) == "" {
		dir, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		v.Set(keyHome, filepath.Join(dir, ".sigil"))
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(v.GetString(keyHome))
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	if r := v.GetDuration(keySealRate); r < 0 || r > time.Hour {
		return fmt.Errorf("%s must be between 0 and 1h", keySealRate)
	}
	return nil
}

// logger returns the wired logger, or a no-op one before wiring.
func logger() *zap.Logger {
	if appCtx == nil {
		return zap.NewNop()
	}
	return appCtx.Log
}
