// SPDX-License-Identifier: MIT

// gencert generates a self-signed TLS key pair for the airrspec daemon.
//
// The daemon refuses to start with tls.cert configured but unreadable;
// running gencert once creates working material for LAN and localhost use.
//
// Usage:
//
//	gencert [flags]
//
// Exit codes: 0 on success, 1 on failure, 2 on usage errors.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/airrkit/airrspec/internal/tls"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("gencert", flag.ContinueOnError)
	fs.SetOutput(stderr)
	certPath := fs.String("cert", "certs/airrspec.crt", "certificate output path")
	keyPath := fs.String("key", "certs/airrspec.key", "private key output path")
	days := fs.Int("days", 365, "validity in days")
	hosts := fs.String("hosts", "", "comma-separated extra DNS names or IPs to cover")
	noDetect := fs.Bool("no-detect", false, "do not include this machine's interface addresses")
	showVersion := fs.Bool("version", false, "print version and exit")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: gencert [flags]\n\nGenerates a self-signed TLS key pair for the daemon's HTTPS listener.\n\nFlags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *showVersion {
		fmt.Fprintf(stdout, "gencert %s\n", Version)
		return 0
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(stderr, "gencert takes no positional arguments")
		fs.Usage()
		return 2
	}
	if *days <= 0 {
		fmt.Fprintln(stderr, "-days must be positive")
		return 2
	}

	var sans []string
	if !*noDetect {
		sans = tls.LocalHosts()
	}
	for _, h := range strings.Split(*hosts, ",") {
		if h = strings.TrimSpace(h); h != "" {
			sans = append(sans, h)
		}
	}

	validFor := time.Duration(*days) * 24 * time.Hour
	if err := tls.GenerateSelfSigned(*certPath, *keyPath, validFor, sans...); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "✓ wrote %s and %s\n", *certPath, *keyPath)
	all := append([]string{"localhost", "127.0.0.1", "::1"}, sans...)
	fmt.Fprintf(stdout, "  covers: %s\n", strings.Join(all, ", "))
	fmt.Fprintf(stdout, "  valid until: %s\n", time.Now().Add(validFor).Format("2006-01-02"))
	return 0
}
