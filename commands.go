package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"io"
	"os"
	"strconv"
	"strings"
)

func breedsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "breeds",
		Short: "List every breed and its sub-breeds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			catalog, err := app.Api.Breeds(cmd.Context())
			if err != nil {
				return err
			}
			printCatalog(cmd.OutOrStdout(), catalog)
			return nil
		},
	}
}

func printCatalog(w io.Writer, catalog BreedCatalog) {
	for _, b := range catalog {
		if len(b.SubBreeds) == 0 {
			fmt.Fprintln(w, b.Name)
			continue
		}
		fmt.Fprintf(w, "%s: %s\n", b.Name, strings.Join(b.SubBreeds, ", "))
	}
}

func imagesCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "images BREED [SUB_BREED]",
		Short: "Print the first N image URLs for a breed",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			sub := ""
			if len(args) > 1 {
				sub = args[1]
			}
			urls, err := runImages(cmd.Context(), NewForm(app.Api, app.Metrics), args[0], sub, count)
			if err != nil {
				return err
			}
			for _, u := range urls {
				fmt.Fprintln(cmd.OutOrStdout(), u)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "number", "n", 1, "number of images")
	return cmd
}

// runImages walks a form through the same steps a browser would.
func runImages(ctx context.Context, form *Form, breed, sub string, count int) ([]string, error) {
	if err := form.Load(ctx); err != nil {
		return nil, err
	}
	catalog := form.Catalog()
	index := catalog.Index(breed)
	if index == NoSelection {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchBreed, breed)
	}
	ticket, err := form.SelectBreed(index)
	if err != nil {
		return nil, err
	}
	if _, err := form.Fetch(ctx, ticket); err != nil {
		return nil, err
	}

	if form.State().HasSubBreeds {
		value := SubBreedAll
		if sub != "" && sub != SubBreedAll {
			i := catalog[index].SubBreedIndex(sub)
			if i == NoSelection {
				return nil, fmt.Errorf("%w: %s/%s", ErrNoSuchSubBreed, breed, sub)
			}
			value = strconv.Itoa(i)
		}
		ticket, err := form.SelectSubBreed(value)
		if err != nil {
			return nil, err
		}
		if _, err := form.Fetch(ctx, ticket); err != nil {
			return nil, err
		}
	} else if sub != "" {
		return nil, fmt.Errorf("%w: %s", ErrNoSubBreeds, breed)
	}

	if err := form.SelectCount(count); err != nil {
		return nil, err
	}
	return form.Submit()
}

func userAddCmd() *cobra.Command {
	var level int
	cmd := &cobra.Command{
		Use:   "useradd USER",
		Short: "Create or update a user allowed into the web form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			pass, err := readPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if err := app.Store.AddUser(args[0], pass, level); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Stored user", args[0])
			return nil
		},
	}
	cmd.Flags().IntVar(&level, "level", 1, "access level")
	return cmd
}

// readPassword reads without echo from a terminal, or one line otherwise.
func readPassword(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "Password: ")
		pass, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", err
		}
		if len(pass) == 0 {
			return "", errors.New("empty password")
		}
		return string(pass), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("empty password")
	}
	return line, nil
}
