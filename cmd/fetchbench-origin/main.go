// Command fetchbench-origin serves synthetic objects for trying out
// fetchbench locally.
package main

import (
	"context"
	"crypto/tls"
	"flag"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/m-lab/fetchbench/internal/handler"
	"github.com/m-lab/go/flagx"
	"github.com/m-lab/go/prometheusx"
	"github.com/m-lab/go/rtx"
)

var (
	flagCertFile   = flag.String("cert", "", "The file with server certificates in PEM format.")
	flagKeyFile    = flag.String("key", "", "The file with server key in PEM format.")
	flagEndpoint   = flag.String("https_addr", ":4443", "Listen address/port for TLS connections")
	flagCleartext  = flag.String("http_addr", ":8080", "Listen address/port for cleartext connections")
	flagObjectSize = flag.Int64("object-size", 64<<20, "Size in bytes of every served object")

	// Context for the whole program.
	ctx, cancel = context.WithCancel(context.Background())
)

// httpServer creates a new *http.Server with the provided address and
// handler, and an empty TLS configuration.
func httpServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:      addr,
		Handler:   handler,
		TLSConfig: &tls.Config{},
		// NOTE: no write timeout, full fetches of large objects may take
		// arbitrarily long.
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Minute,
	}
}

func main() {
	flag.Parse()
	rtx.Must(flagx.ArgsFromEnv(flag.CommandLine), "failed to read flags from the environment")

	// Initialize logging and metrics.
	log.SetReportCaller(true)
	log.SetReportTimestamp(true)
	log.SetLevel(log.DebugLevel)

	promSrv := prometheusx.MustServeMetrics()
	defer promSrv.Close()

	mux := http.NewServeMux()
	mux.Handle("/", handler.New(*flagObjectSize))

	cleartext := httpServer(*flagCleartext, mux)
	log.Info("About to listen for cleartext fetches", "endpoint", *flagCleartext)
	go func() {
		err := cleartext.ListenAndServe()
		rtx.Must(err, "Could not start cleartext server")
	}()
	defer cleartext.Close()

	// Only start the TLS server if certs and keys are provided
	if *flagCertFile != "" && *flagKeyFile != "" {
		tlsServer := httpServer(*flagEndpoint, mux)
		log.Info("About to listen for TLS fetches", "endpoint", *flagEndpoint)
		go func() {
			err := tlsServer.ListenAndServeTLS(*flagCertFile, *flagKeyFile)
			rtx.Must(err, "Could not start TLS server")
		}()
		defer tlsServer.Close()
	}

	<-ctx.Done()
	cancel()
}
