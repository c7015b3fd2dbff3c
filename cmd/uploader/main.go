package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"upload-lab/client"
	"upload-lab/errors"
	"upload-lab/internal"
)

const (
	exitOK       = 0
	exitRuntime  = 1
	exitConfig   = 2
	exitReadFail = 3
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintln(os.Stderr, color.Red.Sprintf("Upload failed: %v", err))
	}
	os.Exit(code)
}

func run() (int, error) {
	_ = godotenv.Load()
	var config internal.ClientConfig
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	flag.StringVar(&config.ServerURL, "url", config.ServerURL, "Base URL of the upload server")
	flag.Int64Var(&config.ChunkSize, "chunk-size", config.ChunkSize, "Chunk size in bytes")
	flag.IntVar(&config.MaxInFlight, "parallel", config.MaxInFlight, "Maximum chunks in flight")
	flag.StringVar(&config.FingerprintAlgo, "algo", config.FingerprintAlgo, "Fingerprint algorithm (md5, blake3)")
	quiet := flag.Bool("quiet", false, "Do not print progress")
	flag.Parse()

	if err := config.Validate(); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if flag.NArg() != 1 {
		return exitConfig, fmt.Errorf("usage: uploader [flags] <file>")
	}
	path := flag.Arg(0)

	logger := logs.GetLoggerFromString(config.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	transport := client.NewHTTPTransport(config.ServerURL, &http.Client{})
	uploader := client.NewUploader(transport, logger, config.UploaderConfig())

	var onProgress func(client.ChunkProgress)
	if !*quiet {
		onProgress = func(p client.ChunkProgress) {
			fmt.Fprintf(os.Stderr, "\r%s %d/%d chunks, %d bytes",
				color.Cyan.Render("uploading"), p.Completed, p.Total, p.BytesSent)
		}
	}

	started := time.Now()
	artifact, err := uploader.Upload(ctx, path, onProgress)
	if !*quiet {
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		if stderrors.Is(err, errors.ErrReadFailure) || stderrors.Is(err, errors.ErrEmptyFile) {
			return exitReadFail, err
		}
		return exitRuntime, err
	}

	color.Green.Printf("%s merged successfully", artifact.Name)
	fmt.Printf(" (%d bytes, %s, hash %s) in %s\n",
		artifact.Size, artifact.MimeType, artifact.Fingerprint, time.Since(started).Round(time.Millisecond))
	return exitOK, nil
}
