package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"missive/internal/config"
	"missive/internal/newsletter"
	"missive/internal/passcode"
	"missive/internal/store"
)

func newCreateCommand(ctx *commandContext) *cobra.Command {
	var email string
	var link string

	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Register a new newsletter",
		Long: "Create registers a newsletter in the database and scaffolds its folder " +
			"with a sample config.yaml and an issue counter starting at 1. The group " +
			"passcode is prompted twice and stored only as a salted hash.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.TrimSpace(args[0])
			if title == "" {
				return errors.New("newsletter title is required")
			}
			if strings.TrimSpace(email) == "" {
				return errors.New("a recipient address is required (--email)")
			}

			code, err := promptPasscode(cmd)
			if err != nil {
				return err
			}
			hash, err := passcode.Hash(code)
			if err != nil {
				return fmt.Errorf("hash passcode: %w", err)
			}

			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				folder := filepath.Join(cfg.Paths.NewslettersDir, folderSlug(title))
				if err := newsletter.Scaffold(folder, newsletter.Config{
					Name:  title,
					Email: email,
					Link:  link,
					Defaults: []newsletter.SeedQuestion{
						{Text: "How was your month?", Type: "text"},
						{Text: "Share a photo!", Type: "image"},
					},
				}); err != nil {
					return fmt.Errorf("scaffold newsletter folder: %w", err)
				}

				n, err := st.CreateNewsletter(cmd.Context(), title, hash, folder)
				if err != nil {
					return fmt.Errorf("create newsletter: %w", err)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Created newsletter %q (id %d)\n", n.Title, n.ID)
				fmt.Fprintf(out, "Folder: %s\n", folder)
				fmt.Fprintln(out, "Edit config.yaml to adjust the recipient address, link, and default questions.")
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Recipient address for cycle notifications")
	cmd.Flags().StringVar(&link, "link", "", "Public link included in the published-issue mail")
	return cmd
}

func promptPasscode(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		// Non-interactive input reads one passcode line, for scripts and tests.
		scanner := bufio.NewScanner(cmd.InOrStdin())
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", fmt.Errorf("read passcode: %w", err)
			}
			return "", errors.New("read passcode: empty input")
		}
		code := strings.TrimSpace(scanner.Text())
		if code == "" {
			return "", errors.New("passcode must not be empty")
		}
		return code, nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, "Passcode: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read passcode: %w", err)
	}
	fmt.Fprint(out, "Confirm passcode: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read passcode: %w", err)
	}
	return matchPasscodes(string(first), string(second))
}

// matchPasscodes compares the two prompted entries after trimming, so stray
// whitespace around an otherwise identical passcode does not reject it.
func matchPasscodes(first, second string) (string, error) {
	code := strings.TrimSpace(first)
	if code != strings.TrimSpace(second) {
		return "", errors.New("passcodes do not match")
	}
	if code == "" {
		return "", errors.New("passcode must not be empty")
	}
	return code, nil
}

func folderSlug(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = strings.Join(strings.Fields(slug), "-")
	return slug
}
