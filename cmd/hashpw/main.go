package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/qnetlabs/qnet-fleet/internal/auth"
)

// hashpw generates a bcrypt hash for the operator_password_hash config key.
func main() {
	flag.Parse()

	password := flag.Arg(0)
	if password == "" {
		fmt.Fprintln(os.Stderr, "usage: hashpw <password>")
		os.Exit(1)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(hash)
}
