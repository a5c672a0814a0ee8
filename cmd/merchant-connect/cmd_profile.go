package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"github.com/synvya/merchant-connect/internal/commands"
	"github.com/synvya/merchant-connect/internal/profile"
)

var errNotConnected = errors.New("not connected to Square (run 'merchant-connect connect')")

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show, edit and publish the merchant profile",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the merchant profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmdContext(cmd)
		app, cleanup, err := newApp()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := requireSession(ctx, app); err != nil {
			return err
		}
		printProfile(os.Stdout, app.Profiles.Snapshot())
		return nil
	},
}

var profileEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit the merchant profile interactively and publish it",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmdContext(cmd)
		app, cleanup, err := newApp()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := requireSession(ctx, app); err != nil {
			return err
		}
		edits, err := runProfileForm(app.Profiles.Snapshot())
		if err != nil {
			return err
		}
		app.Profiles.Update(edits)
		return saveProfile(ctx, app)
	},
}

var (
	profileName         string
	profileDisplayName  string
	profileAbout        string
	profileWebsite      string
	profileCategories   string
	profileBusinessType string
	profilePictureURL   string
	profileBannerURL    string
	profilePictureFile  string
	profileBannerFile   string
)

var profileSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Update profile fields from flags and publish",
	Long: "Only the fields passed as flags change; everything else keeps its current value.\n\n" +
		"  merchant-connect profile save --about \"Fresh bread daily\" --categories bakery,coffee",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmdContext(cmd)
		edits, err := profileFlagEdits(cmd)
		if err != nil {
			return err
		}

		app, cleanup, err := newApp()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := requireSession(ctx, app); err != nil {
			return err
		}
		app.Profiles.Update(edits)
		return saveProfile(ctx, app)
	},
}

var profileRepublishCmd = &cobra.Command{
	Use:   "republish",
	Short: "Publish the current profile again",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmdContext(cmd)
		app, cleanup, err := newApp()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := requireSession(ctx, app); err != nil {
			return err
		}
		if !app.Profiles.Republish(ctx) {
			return errors.New("profile was not published")
		}
		return nil
	},
}

func init() {
	addProfileFlags(profileSaveCmd)

	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileEditCmd)
	profileCmd.AddCommand(profileSaveCmd)
	profileCmd.AddCommand(profileRepublishCmd)
}

func addProfileFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&profileName, "name", "", "Business name, also used for the handle")
	f.StringVar(&profileDisplayName, "display-name", "", "Display name")
	f.StringVar(&profileAbout, "about", "", "Short description")
	f.StringVar(&profileWebsite, "website", "", "Website URL")
	f.StringVar(&profileCategories, "categories", "", "Comma-separated categories")
	f.StringVar(&profileBusinessType, "business-type", "", "One of retail, restaurant, service, business, entertainment, other")
	f.StringVar(&profilePictureURL, "picture-url", "", "Profile picture URL")
	f.StringVar(&profileBannerURL, "banner-url", "", "Banner image URL")
	f.StringVar(&profilePictureFile, "picture-file", "", "Local profile picture (upload not supported yet)")
	f.StringVar(&profileBannerFile, "banner-file", "", "Local banner image (upload not supported yet)")
}

// requireSession restores the session and loads the profile.
func requireSession(ctx context.Context, app *commands.App) error {
	r := app.Restore(ctx)
	if !r.Connected {
		return errNotConnected
	}
	if r.LoadErr != nil {
		return fmt.Errorf("loading profile: %w", r.LoadErr)
	}
	return nil
}

func saveProfile(ctx context.Context, app *commands.App) error {
	if !app.Profiles.Save(ctx) {
		return errors.New("profile was not saved")
	}
	printProfile(os.Stdout, app.Profiles.Snapshot())
	return nil
}

// profileFlagEdits turns the flags that were set into a profile edit.
func profileFlagEdits(cmd *cobra.Command) (profile.Partial, error) {
	var p profile.Partial
	set := func(flag string, dst **string, value string) {
		if cmd.Flags().Changed(flag) {
			*dst = profile.String(value)
		}
	}
	set("name", &p.Name, profileName)
	set("display-name", &p.DisplayName, profileDisplayName)
	set("about", &p.About, profileAbout)
	set("website", &p.Website, profileWebsite)
	set("categories", &p.Categories, profileCategories)
	set("business-type", &p.BusinessType, profileBusinessType)
	set("picture-url", &p.PictureURL, profilePictureURL)
	set("banner-url", &p.BannerURL, profileBannerURL)
	set("picture-file", &p.PictureFile, profilePictureFile)
	set("banner-file", &p.BannerFile, profileBannerFile)

	if p.BusinessType != nil && !validBusinessType(*p.BusinessType) {
		return profile.Partial{}, fmt.Errorf("unknown business type %q", *p.BusinessType)
	}
	if p == (profile.Partial{}) {
		return profile.Partial{}, errors.New("no profile fields given; see 'merchant-connect profile save --help'")
	}
	return p, nil
}

func validBusinessType(v string) bool {
	for _, bt := range profile.BusinessTypes {
		if bt.Value == v {
			return true
		}
	}
	return false
}

// runProfileForm prompts for every editable field, prefilled from current.
func runProfileForm(current profile.Profile) (profile.Partial, error) {
	p := current
	options := make([]huh.Option[string], 0, len(profile.BusinessTypes))
	for _, bt := range profile.BusinessTypes {
		options = append(options, huh.NewOption(bt.Label, bt.Value))
	}

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Business name").
				Description("Also used to derive your handle").
				Value(&p.Name),
			huh.NewInput().
				Title("Display name").
				Value(&p.DisplayName),
			huh.NewText().
				Title("About").
				Value(&p.About),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Website").
				Placeholder("https://").
				Value(&p.Website),
			huh.NewInput().
				Title("Categories").
				Description("Comma-separated, e.g. bakery, coffee").
				Value(&p.Categories),
			huh.NewSelect[string]().
				Title("Business type").
				Options(options...).
				Value(&p.BusinessType),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Profile picture URL").
				Value(&p.PictureURL),
			huh.NewInput().
				Title("Banner image URL").
				Value(&p.BannerURL),
		),
	).Run()
	if err != nil {
		return profile.Partial{}, fmt.Errorf("prompt cancelled: %w", err)
	}

	return profile.Partial{
		Name:         profile.String(p.Name),
		DisplayName:  profile.String(p.DisplayName),
		About:        profile.String(p.About),
		Website:      profile.String(p.Website),
		Categories:   profile.String(p.Categories),
		BusinessType: profile.String(p.BusinessType),
		PictureURL:   profile.String(p.PictureURL),
		BannerURL:    profile.String(p.BannerURL),
	}, nil
}
