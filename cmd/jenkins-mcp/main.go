// Package main provides the jenkins-mcp CLI entry point.
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/buildmind/jenkins-mcp/config"
	"github.com/buildmind/jenkins-mcp/jenkins"
	jenkinsmcp "github.com/buildmind/jenkins-mcp/mcp"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "jenkins-mcp",
		Short: "MCP server exposing a Jenkins instance as tools",
		Long: `jenkins-mcp speaks the Model Context Protocol over stdio and exposes a
Jenkins server's REST API as tools: job listing, build inspection and
triggering, console log paging and search, and SCM-based job lookup.

Configuration comes from the environment (or a .env file):
  JENKINS_URL            Jenkins base URL (required)
  JENKINS_USERNAME       Basic auth user
  JENKINS_API_TOKEN      Basic auth API token
  JENKINS_TIMEOUT_MS     per-request timeout (default 30000)
  JENKINS_MAX_RETRIES    retries after the first attempt (default 3)
  JENKINS_RETRY_DELAY_MS backoff base delay (default 1000)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the server version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Set up file logging — stdout is the MCP protocol, stderr is captured
	// by the client.
	if cfg.LogDir != "" {
		if err := os.MkdirAll(cfg.LogDir, 0700); err == nil {
			logPath := filepath.Join(cfg.LogDir, "mcp-server.log")
			if f, ferr := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600); ferr == nil {
				logger := log.New(f, "[mcp] ", log.Ldate|log.Ltime|log.Lshortfile)
				jenkinsmcp.SetLogger(logger)
				defer f.Close()
			}
		}
	}

	client := jenkins.NewClient(cfg.Jenkins)
	client.SetTrace(jenkinsmcp.Log)

	effective := client.Config()
	jenkinsmcp.Log("starting: jenkins=%s user=%s timeout=%s retries=%d",
		effective.BaseURL, effective.Username, effective.Timeout, effective.MaxRetries)

	srv := jenkinsmcp.NewJenkinsMCPServer(client, version)
	if err := srv.Serve(); err != nil {
		jenkinsmcp.Log("fatal: %v", err)
		return fmt.Errorf("jenkins-mcp: %w", err)
	}

	jenkinsmcp.Log("shutdown cleanly")
	return nil
}
