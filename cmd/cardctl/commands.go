package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/duynhne/card-service/internal/client"
	"github.com/duynhne/card-service/internal/core/domain"
)

const defaultServerURL = "http://localhost:8080"

type rootOptions struct {
	server  string
	timeout time.Duration
	session *client.Session
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "cardctl",
		Short:         "Manage business cards",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			opts.session = client.NewSession(client.New(opts.server))
		},
	}

	server := os.Getenv("CARD_API_URL")
	if server == "" {
		server = defaultServerURL
	}
	cmd.PersistentFlags().StringVar(&opts.server, "server", server, "card service base URL (env CARD_API_URL)")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 60*time.Second, "overall request timeout")

	cmd.AddCommand(
		newListCommand(opts),
		newShowCommand(opts),
		newCreateCommand(opts),
		newEditCommand(opts),
	)
	return cmd
}

func (o *rootOptions) withTimeout(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), o.timeout)
}

func newListCommand(opts *rootOptions) *cobra.Command {
	var (
		search string
		output string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cards, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := opts.withTimeout(cmd)
			defer cancel()

			if err := opts.session.Refresh(ctx); err != nil {
				return err
			}
			opts.session.SetSearch(search)
			return writeCards(cmd.OutOrStdout(), output, opts.session.Visible())
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "case-insensitive filter on name, phone, email and note")
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table, json or yaml")
	return cmd
}

func newShowCommand(opts *rootOptions) *cobra.Command {
	var back bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one face of a card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.withTimeout(cmd)
			defer cancel()

			if err := opts.session.Refresh(ctx); err != nil {
				return err
			}
			card, ok := opts.session.Find(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", domain.ErrCardNotFound, args[0])
			}

			face := client.NewFlipCard(card)
			if back {
				face.Flip()
			}
			_, err := fmt.Fprint(cmd.OutOrStdout(), face.Face())
			return err
		},
	}
	cmd.Flags().BoolVar(&back, "back", false, "show the back face")
	return cmd
}

// cardFlags are the form inputs shared by create and edit
type cardFlags struct {
	firstName, lastName, phone, email, note string
	frontImage, backImage                   string
}

func (f *cardFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.firstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&f.lastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&f.phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&f.email, "email", "", "email address")
	cmd.Flags().StringVar(&f.note, "note", "", "free-form note")
	cmd.Flags().StringVar(&f.frontImage, "front-image", "", "path of the front image to upload")
	cmd.Flags().StringVar(&f.backImage, "back-image", "", "path of the back image to upload")
}

// apply copies the flags the user set onto the form
func (f *cardFlags) apply(cmd *cobra.Command, fields *domain.CardFields) {
	changed := cmd.Flags().Changed
	if changed("first-name") {
		fields.FirstName = f.firstName
	}
	if changed("last-name") {
		fields.LastName = f.lastName
	}
	if changed("phone") {
		fields.PhoneNumber = f.phone
	}
	if changed("email") {
		fields.Email = f.email
	}
	if changed("note") {
		fields.Note = f.note
	}
}

func newCreateCommand(opts *rootOptions) *cobra.Command {
	flags := &cardFlags{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a card",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := opts.withTimeout(cmd)
			defer cancel()

			opts.session.UpdateForm(func(fields *domain.CardFields) { flags.apply(cmd, fields) })
			return save(ctx, cmd, opts.session, flags)
		},
	}
	flags.register(cmd)
	return cmd
}

func newEditCommand(opts *rootOptions) *cobra.Command {
	flags := &cardFlags{}
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a card; unset flags keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.withTimeout(cmd)
			defer cancel()

			if err := opts.session.Refresh(ctx); err != nil {
				return err
			}
			if err := opts.session.StartEdit(args[0]); err != nil {
				return err
			}
			opts.session.UpdateForm(func(fields *domain.CardFields) { flags.apply(cmd, fields) })
			return save(ctx, cmd, opts.session, flags)
		},
	}
	flags.register(cmd)
	return cmd
}

// save uploads the requested images concurrently, then submits the form
func save(ctx context.Context, cmd *cobra.Command, session *client.Session, flags *cardFlags) error {
	var pending []<-chan error
	for side, path := range map[client.ImageSide]string{
		client.FrontImage: flags.frontImage,
		client.BackImage:  flags.backImage,
	} {
		if path == "" {
			continue
		}
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s image: %w", side, err)
		}
		defer f.Close()

		done, err := session.StartUpload(ctx, side, filepath.Base(path), f)
		if err != nil {
			return err
		}
		pending = append(pending, done)
	}

	var uploadErrs []error
	for _, done := range pending {
		if err := <-done; err != nil {
			uploadErrs = append(uploadErrs, err)
		}
	}
	if err := errors.Join(uploadErrs...); err != nil {
		return err
	}

	card, err := session.Submit(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Saved card %s (%s %s)\n", card.ID, card.FirstName, card.LastName)
	return err
}
