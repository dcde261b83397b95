// acmeping is a small command line demonstrator for the acme-engine
// module: it loads an account key, creates an Engine against a
// directory, looks up the existing account (it does not register a new
// one) and, when -domains is given, submits a newOrder, printing the decoded responses as it goes. It exists to
// give a reader a runnable path through the Request Engine.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/riftcloud/acme-engine/acme"
	"github.com/riftcloud/acme-engine/acme/client"
	"github.com/riftcloud/acme-engine/cmd"
)

const (
	directoryDefault = "https://acme-staging-v02.api.letsencrypt.org/directory"
	timeoutDefault   = 30 * time.Second
)

func main() {
	directory := flag.String(
		"directory",
		directoryDefault,
		"Directory URL for the ACME server")

	caCert := flag.String(
		"ca",
		"",
		"Optional PEM CA certificate bundle for verifying the ACME server's HTTPS")

	keyPath := flag.String(
		"key",
		"",
		"Path to a PEM or DER account private key (RSA or EC)")

	domains := flag.String(
		"domains",
		"",
		"Comma separated list of DNS names to request a newOrder for")

	live := flag.Bool(
		"live",
		false,
		"Use the live Let's Encrypt directory instead of staging")

	flag.Parse()

	if *keyPath == "" {
		fmt.Fprintln(os.Stderr, "acmeping: -key is required")
		flag.Usage()
		os.Exit(1)
	}

	keyBytes, err := os.ReadFile(*keyPath)
	cmd.FailOnError(err, "reading account key")

	config := client.EngineConfig{
		Mode:        client.Staging,
		CACertPath:  *caCert,
		HTTPTimeout: timeoutDefault,
	}
	if *live {
		config.Mode = client.Live
	}
	if *directory != directoryDefault {
		config.Mode = client.Custom
		config.DirectoryURL = *directory
	}

	engine, err := client.New(config)
	cmd.FailOnError(err, "constructing engine")
	defer engine.Close()

	go cmd.CatchSignals(engine.Close)

	err = engine.LoadAccountKey(keyBytes)
	cmd.FailOnError(err, "loading account key")

	ctx, cancel := context.WithTimeout(context.Background(), timeoutDefault)
	defer cancel()

	kid, err := engine.GetAccountID(ctx)
	cmd.FailOnError(err, "resolving account")
	fmt.Printf("[+] account: %s\n", kid)

	if *domains == "" {
		return
	}

	names := strings.Split(*domains, ",")
	for i, name := range names {
		names[i] = strings.TrimSpace(name)
	}

	resp, err := engine.Request(ctx, acme.NewOrderEndpoint, acme.NewOrderPayload(names, time.Time{}, time.Time{}))
	cmd.FailOnError(err, "submitting newOrder")

	pretty, err := json.MarshalIndent(resp.Body, "", "  ")
	cmd.FailOnError(err, "formatting order response")
	fmt.Printf("[+] order:\n%s\n", pretty)
}
