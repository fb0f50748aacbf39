package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/formgate/formgate/adapters/auth"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration file",
	Long: `Create a starter configuration with a generated signing secret and
example endpoints bound to the built-in handlers.

Examples:
  formgate init
  formgate init -c /etc/formgate/formgate.yaml --force`,
	RunE: runInit,
}

var initForce bool

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
}

const configTemplate = `server:
  host: "0.0.0.0"
  port: 8080

auth:
  enabled: true
  secret: "%s"
  token_key: access-token
  ttl: 24h

database:
  dsn: formgate.db

logging:
  level: info
  format: json

metrics:
  enabled: true
  path: /metrics

cors:
  enabled: true

endpoints:
  - path: /login
    methods: post
    handler: login
    content_type: application/json
    request:
      name: string

  - path: /echo
    methods: get
    handler: echo
    request:
      message: string
      tag: "?string"

  - path: /ping
    handler: ping
`

func runInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(cfgFile); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", cfgFile)
	}

	content := fmt.Sprintf(configTemplate, auth.GenerateSecret())
	if err := os.WriteFile(cfgFile, []byte(content), 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Printf("Wrote %s\n", cfgFile)
	fmt.Println("Start the server with: formgate serve")
	return nil
}
