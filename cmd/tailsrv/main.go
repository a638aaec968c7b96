package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tailsrv/tailsrv/internal/broadcast"
	"github.com/tailsrv/tailsrv/internal/config"
	"github.com/tailsrv/tailsrv/internal/logging"
	"github.com/tailsrv/tailsrv/internal/statusapi"
)

func main() {
	opts := &config.Options{}
	var configPath string

	cmd := &cobra.Command{
		Use:   "tailsrv PATH",
		Short: "Broadcast an append-only file to many TCP readers",
		Long: "tailsrv streams every byte appended to PATH to every connected\n" +
			"client, each starting from the byte offset it requests.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Path = args[0]

			f, err := config.LoadFile(configPath)
			if err != nil {
				return err
			}
			config.ApplyDefaults(opts, f, cmd.Flags().Changed)
			if !cmd.Flags().Changed("port") && f.Port == nil {
				return fmt.Errorf(`required flag "port" not set (give -p or set port in --config)`)
			}

			if opts.Journald {
				logging.Warnf("--journald requested; journald forwarding is not available on this build, falling back to stderr")
			}

			return run(opts)
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&opts.Port, "port", "p", 0, "TCP port to listen on (required)")
	flags.BoolVar(&opts.LingerAfterFileIsGone, "linger-after-file-is-gone", false, "keep running after the broadcast file is moved or deleted")
	flags.BoolVar(&opts.Journald, "journald", false, "accepted for compatibility; journald output is not available, so logs stay on stderr")
	flags.StringVar(&configPath, "config", "", "optional YAML file supplying defaults for any flag")
	flags.StringVar(&opts.AdminAddr, "admin-addr", "", "if set, serve read-only status on this address (e.g. :9090)")
	flags.StringVar(&opts.AdminAuthSecret, "admin-auth-secret", "", "if set, require a Bearer JWT signed with this secret on the admin surface")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(opts *config.Options) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	server := broadcast.NewServer(opts.Path, opts.LingerAfterFileIsGone)
	defer func() { _ = server.Close() }()

	if err := server.Listen(opts.Port); err != nil {
		return err
	}

	if opts.AdminAddr != "" {
		admin := statusapi.New(server, opts.AdminAuthSecret)
		go func() {
			logging.Infof("admin status surface listening on %s", opts.AdminAddr)
			if err := http.ListenAndServe(opts.AdminAddr, admin.Handler()); err != nil {
				logging.Warnf("admin surface: %v", err)
			}
		}()
	}

	return server.Serve(ctx)
}
