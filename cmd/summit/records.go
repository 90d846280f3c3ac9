package main

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"summit/internal/admin"
	"summit/internal/bootstrap"
	"summit/internal/content"
	"summit/internal/forms"
)

func (c *cli) sponsorsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sponsors",
		Short: "List and maintain sponsors",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List sponsors, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withServices(cmd.Context(), func(s *bootstrap.Services) error {
				listing := s.Catalog.Sponsors(cmd.Context())
				if listing.Failed() {
					return listing.Err
				}
				resolver := content.LogoResolver{BaseURL: c.cfg.StorageBaseURL(), Placeholder: c.cfg.Site.Placeholder}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, bold("ID\tNAME\tTIER\tLOGO"))
				for _, sp := range listing.Items {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", sp.ID, sp.Name, sp.Tier.Label(), resolver.Resolve(sp.LogoURL))
				}
				if listing.Len() == 0 {
					fmt.Fprintln(w, gray("(no sponsors)"))
				}
				return w.Flush()
			})
		},
	}

	var in admin.SponsorInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Add a sponsor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withServices(cmd.Context(), func(s *bootstrap.Services) error {
				draft := forms.NewSponsorDraft()
				if in.Tier == "" {
					in.Tier = draft.Fields.Tier
				}
				draft.Fields = in
				if _, err := draft.Submit(cmd.Context(), s.Actions); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s sponsor %s\n", green("Created"), bold(in.Name))
				return nil
			})
		},
	}
	sponsorFlags(create, &in)

	var patch admin.SponsorInput
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a sponsor; unset flags keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withServices(cmd.Context(), func(s *bootstrap.Services) error {
				current, err := s.Catalog.Sponsor(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				draft := forms.EditSponsorDraft(current, c.cfg.StorageBaseURL())
				flags := cmd.Flags()
				for field, value := range map[string]string{
					"name":          patch.Name,
					"logo-url":      patch.LogoURL,
					"website":       patch.Website,
					"tier":          patch.Tier,
					"description":   patch.Description,
					"contact-email": patch.ContactEmail,
				} {
					if flags.Changed(field) {
						draft.Set(flagField(field), value)
					}
				}
				if _, err := draft.Submit(cmd.Context(), s.Actions); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s sponsor %s\n", green("Updated"), bold(args[0]))
				return nil
			})
		},
	}
	sponsorFlags(update, &patch)

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a sponsor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withServices(cmd.Context(), func(s *bootstrap.Services) error {
				if err := s.Actions.DeleteSponsor(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s sponsor %s\n", yellow("Deleted"), bold(args[0]))
				return nil
			})
		},
	}

	cmd.AddCommand(list, create, update, del)
	return cmd
}

func sponsorFlags(cmd *cobra.Command, in *admin.SponsorInput) {
	cmd.Flags().StringVar(&in.Name, "name", "", "Sponsor name")
	cmd.Flags().StringVar(&in.LogoURL, "logo-url", "", "Logo URL or sponsor-images/ path")
	cmd.Flags().StringVar(&in.Website, "website", "", "Website URL")
	cmd.Flags().StringVar(&in.Tier, "tier", "", "platinum, gold, silver or bronze (default silver)")
	cmd.Flags().StringVar(&in.Description, "description", "", "Short description")
	cmd.Flags().StringVar(&in.ContactEmail, "contact-email", "", "Contact email")
}

// flagField maps a kebab-case flag onto its form field name.
func flagField(flag string) string {
	switch flag {
	case "logo-url":
		return "logo_url"
	case "contact-email":
		return "contact_email"
	case "image-url":
		return "image_url"
	}
	return flag
}

func (c *cli) speakersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "speakers",
		Short: "List and maintain speakers",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List speakers by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withServices(cmd.Context(), func(s *bootstrap.Services) error {
				listing := s.Catalog.Speakers(cmd.Context())
				if listing.Failed() {
					return listing.Err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, bold("ID\tNAME\tTITLE\tCOMPANY"))
				for _, sp := range listing.Items {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", sp.ID, sp.Name, sp.Title, sp.Company)
				}
				if listing.Len() == 0 {
					fmt.Fprintln(w, gray("(no speakers)"))
				}
				return w.Flush()
			})
		},
	}

	var in admin.SpeakerInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Add a speaker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withServices(cmd.Context(), func(s *bootstrap.Services) error {
				draft := forms.NewSpeakerDraft()
				draft.Fields = in
				if _, err := draft.Submit(cmd.Context(), s.Actions); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s speaker %s\n", green("Created"), bold(in.Name))
				return nil
			})
		},
	}
	create.Flags().StringVar(&in.Name, "name", "", "Speaker name")
	create.Flags().StringVar(&in.Title, "title", "", "Job title")
	create.Flags().StringVar(&in.Company, "company", "", "Company")
	create.Flags().StringVar(&in.Bio, "bio", "", "Biography (Markdown)")
	create.Flags().StringVar(&in.ImageURL, "image-url", "", "Photo URL")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a speaker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withServices(cmd.Context(), func(s *bootstrap.Services) error {
				if err := s.Actions.DeleteSpeaker(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s speaker %s\n", yellow("Deleted"), bold(args[0]))
				return nil
			})
		},
	}

	cmd.AddCommand(list, create, del)
	return cmd
}

func (c *cli) applicationsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "applications <mentorship|award>",
		Short: "List mentorship applications or award nominations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := content.ParseApplicationKind(args[0])
			if err != nil {
				return err
			}
			return c.withServices(cmd.Context(), func(s *bootstrap.Services) error {
				listing := s.Catalog.Applications(cmd.Context(), kind)
				if listing.Failed() {
					return listing.Err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, bold(kind.Title()))
				for _, app := range listing.Items {
					status := app.Status
					if status == "" {
						status = "new"
					}
					fmt.Fprintf(out, "%s  %s  %s\n", cyan(app.ID.String()), status, gray(content.FormatDate(app.CreatedAt)))
					printFields(out, app)
				}
				if listing.Len() == 0 {
					fmt.Fprintln(out, gray("(none)"))
				}
				return nil
			})
		},
	}
}

func printFields(out io.Writer, app content.Application) {
	for _, name := range app.FieldNames() {
		fmt.Fprintf(out, "    %s: %v\n", gray(name), app.Fields[name])
	}
}

func (c *cli) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status <mentorship|award> <id> <status>",
		Short: "Set the status of an application or nomination",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := content.ParseApplicationKind(args[0])
			if err != nil {
				return err
			}
			return c.withServices(cmd.Context(), func(s *bootstrap.Services) error {
				if err := s.Actions.UpdateApplicationStatus(cmd.Context(), kind, args[1], args[2]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s is now %s\n", green("Updated"), kind, bold(args[1]), cyan(args[2]))
				return nil
			})
		},
	}
}

func (c *cli) uploadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <blog|speaker|sponsor> <file>",
		Short: "Upload an image and print its public URL",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()
			file := &admin.File{
				Name:        filepath.Base(args[1]),
				ContentType: mime.TypeByExtension(filepath.Ext(args[1])),
				Body:        f,
			}
			return c.withServices(cmd.Context(), func(s *bootstrap.Services) error {
				var upload forms.UploadFunc
				switch args[0] {
				case "blog":
					upload = s.Actions.UploadBlogImage
				case "speaker":
					upload = s.Actions.UploadSpeakerImage
				case "sponsor":
					upload = s.Actions.UploadSponsorImage
				default:
					return fmt.Errorf("unknown upload kind %q (want blog, speaker or sponsor)", args[0])
				}
				url, err := upload(cmd.Context(), file)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), url)
				return nil
			})
		},
	}
}
