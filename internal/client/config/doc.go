// Package config loads runtime configuration for the medauth CLI.
//
// Sources, later ones winning: built-in defaults, an optional JSON file
// selected with -c or -config, MEDAUTH_SERVER_URL / MEDAUTH_CLI_TIMEOUT and
// finally the -u and -t flags.
//
//	{
//	  "server_url": "https://auth.example.com",
//	  "request_timeout": "5s"
//	}
package config
