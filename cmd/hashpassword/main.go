package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hostelmart/hostelmart-backend/pkg/config"
	"github.com/hostelmart/hostelmart-backend/pkg/security"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "hashpassword: %v\n", err)
		os.Exit(1)
	}
}

// run prints an env line for the admin password hash. The password comes
// from -password or, when absent, the first line of stdin.
func run(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("hashpassword", flag.ContinueOnError)
	password := fs.String("password", "", "admin password to hash (reads stdin when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	plain := *password
	if plain == "" {
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("read password: %w", err)
		}
		plain = strings.TrimRight(line, "\r\n")
	}

	hash, err := security.HashAdminPassword(strings.TrimSpace(plain))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout, "%s=%s\n", config.EnvAdminPasswordHash, hash)
	return err
}
