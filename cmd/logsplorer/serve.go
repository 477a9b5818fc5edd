/*
	Copyright 2023 Google Inc.
	Licensed under the Apache License, Version 2.0 (the "License");
	you may not use this file except in compliance with the License.
	You may obtain a copy of the License at
		https://www.apache.org/licenses/LICENSE-2.0
	Unless required by applicable law or agreed to in writing, software
	distributed under the License is distributed on an "AS IS" BASIS,
	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
	See the License for the specific language governing permissions and
	limitations under the License.
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/umbralcalc/logsplorer/config"
	"github.com/umbralcalc/logsplorer/service"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	var configFile string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the query API and chart pages",
		Long: `Serve the logsplorer query API at the configured handle, and interactive
chart pages at /.

Example:
  logsplorer serve --config logsplorer.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			log := logrus.StandardLogger()
			svc, err := service.New(cfg, log)
			if err != nil {
				return fmt.Errorf("failed to create logsplorer service: %w", err)
			}
			defer svc.Close()

			mux := http.NewServeMux()
			svc.RegisterHandlers(mux)
			server := &http.Server{
				Addr:    cfg.Address,
				Handler: mux,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			errs := make(chan error, 1)
			go func() {
				errs <- server.ListenAndServe()
			}()
			log.WithFields(logrus.Fields{
				"address":  cfg.Address,
				"handle":   cfg.Handle,
				"log_root": cfg.LogRoot,
				"api_url":  cfg.APIURL,
			}).Info("Serving logsplorer")
			// Provide OSC 8 (https://en.wikipedia.org/wiki/ANSI_escape_code#OSC) link for
			// compatible terminals.
			fmt.Fprintf(cmd.OutOrStdout(), "Serving logsplorer at \x1B]8;;http://%[1]s\x07http://%[1]s\x1B]8;;\x07\n", displayAddress(cfg.Address))

			select {
			case err := <-errs:
				return err
			case <-ctx.Done():
			}
			log.Info("Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return err
			}
			if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "YAML config path")
	return cmd
}

// displayAddress returns a browsable form of a listen address.
func displayAddress(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "localhost"
		}
		return hostname + addr
	}
	return addr
}
