package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

// createUserCmd prompts for credentials and inserts a user with a
// bcrypt-hashed password. Goals come from the column defaults.
var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create a user interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := promptUser(bufio.NewReader(cmd.InOrStdin()), cmd.OutOrStdout())
		if err != nil {
			return err
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(in.password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}

		ctx := cmd.Context()
		conn, err := connect(ctx)
		if err != nil {
			return err
		}
		defer conn.Close(ctx)

		var userID int
		err = conn.QueryRow(ctx,
			`INSERT INTO users (username, email, name, password)
			 VALUES ($1, $2, $3, $4) RETURNING id`,
			in.username, in.email, in.username, string(hash),
		).Scan(&userID)
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "\nUser created successfully!\n")
		fmt.Fprintf(out, "  ID:       %d\n", userID)
		fmt.Fprintf(out, "  Username: %s\n", in.username)
		fmt.Fprintf(out, "  Email:    %s\n", in.email)
		return nil
	},
}

var validate = validator.New()

type userInput struct {
	username string
	email    string
	password string
}

// promptUser reads username, email and password, one per line.
func promptUser(r *bufio.Reader, w io.Writer) (userInput, error) {
	ask := func(label string) (string, error) {
		fmt.Fprintf(w, "%s: ", label)
		line, err := r.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
		}
		return strings.TrimSpace(line), nil
	}

	var in userInput
	var err error
	if in.username, err = ask("Username"); err != nil {
		return in, err
	}
	if in.email, err = ask("Email"); err != nil {
		return in, err
	}
	if in.password, err = ask("Password"); err != nil {
		return in, err
	}

	if in.username == "" {
		return in, fmt.Errorf("username is required")
	}
	if err := validate.Var(in.email, "required,email"); err != nil {
		return in, fmt.Errorf("invalid email %q", in.email)
	}
	if err := validate.Var(in.password, "min=6"); err != nil {
		return in, fmt.Errorf("password must have at least 6 characters")
	}
	return in, nil
}
