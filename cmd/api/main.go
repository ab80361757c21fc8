package main

import (
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"github.com/fmarques/imago/internal/cmd"
)

//	@title			imago API
//	@version		1.0
//	@description	Image caption and similarity search API.
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization

func main() {
	command := "server"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	var err error
	switch command {
	case "server":
		err = cmd.RunServer()
	case "migrate":
		err = cmd.RunMigrate()
	case "seed":
		err = cmd.RunSeed()
	case "create-user":
		err = cmd.RunCreateUser()
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", command)
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Print(`Usage: api [command]

Commands:
  server       start the HTTP API (default)
  migrate      apply pending database migrations
  seed         migrate and insert the demo account
  create-user  interactively create a user
  help         show this message
`)
}
