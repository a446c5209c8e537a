// Package cli implements the keydir command-line client: keystore
// management plus the register, lookup and update-key operations.
package cli

import (
	"bufio"
	"context"
	"crypto/ed25519"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/keydir/internal/client/config"
	"github.com/dmitrijs2005/keydir/internal/client/service"
	"github.com/dmitrijs2005/keydir/internal/keydir"
)

// apiClient is the server surface the CLI needs. The real *service.Client
// satisfies this; tests can provide a stub.
type apiClient interface {
	Authenticate(ctx context.Context, priv ed25519.PrivateKey) error
	Register(ctx context.Context, username string, key [keydir.KeySize]byte) (*keydir.Entry, error)
	Lookup(ctx context.Context, username string) (*keydir.Entry, error)
	UpdateKey(ctx context.Context, username string, key [keydir.KeySize]byte) (*keydir.Entry, error)
	Ping(ctx context.Context) error
}

type App struct {
	config *config.Config
	client apiClient
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(c *config.Config) *App {
	return &App{
		config: c,
		client: service.NewClient(c.ServerEndpoint, c.RequestTimeout),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
}

// Run dispatches the first non-flag argument as the command. Returns a
// non-nil error for unknown commands and command failures; main turns that
// into a non-zero exit code.
func (a *App) Run(ctx context.Context, args []string) error {
	cmd := ""
	if rest := positionalArgs(args); len(rest) > 0 {
		cmd = rest[0]
	}

	switch cmd {
	case "keygen":
		return a.Keygen(ctx)
	case "register":
		return a.Register(ctx)
	case "lookup":
		return a.Lookup(ctx)
	case "update-key":
		return a.UpdateKey(ctx)
	case "ping":
		return a.Ping(ctx)
	case "", "help":
		a.printUsage()
		return nil
	default:
		a.printUsage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *App) printUsage() {
	fmt.Fprintln(a.out, `Usage: keydir [flags] <command>

Commands:
  keygen      generate a signing key and store it encrypted on disk
  register    claim a username and publish an encryption key
  lookup      fetch the encryption key registered under a username
  update-key  replace the encryption key of a username you own
  ping        check server reachability

Flags:
  -a   base URL of the keydir server
  -k   path to the encrypted keystore file
  -t   request timeout in seconds
  -c   path to a JSON config file`)
}

// positionalArgs strips flags (and their values) from args, leaving only
// positional tokens. All supported flags take a value.
func positionalArgs(args []string) []string {
	var out []string
	for i := 0; i < len(args); i++ {
		if strings.HasPrefix(args[i], "-") {
			i++
			continue
		}
		out = append(out, args[i])
	}
	return out
}
