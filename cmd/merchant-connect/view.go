package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/synvya/merchant-connect/internal/commands"
	"github.com/synvya/merchant-connect/internal/notify"
	"github.com/synvya/merchant-connect/internal/oauth"
	"github.com/synvya/merchant-connect/internal/probe"
	"github.com/synvya/merchant-connect/internal/profile"
)

// profileView prints the profile once a connect attempt finishes.
type profileView struct {
	w        io.Writer
	profiles *profile.Store
}

func (v *profileView) ShowProfile(ctx context.Context) {
	if v.profiles == nil {
		return
	}
	fmt.Fprintln(v.w)
	printProfile(v.w, v.profiles.Snapshot())
}

// announcingOpener tells the user what happens while the browser is open.
type announcingOpener struct {
	next oauth.Opener
}

func (o announcingOpener) Open(url string) error {
	if err := o.next.Open(url); err != nil {
		return err
	}
	fmt.Println("Waiting for Square authorization to finish in your browser (Ctrl+C to cancel)...")
	return nil
}

func printProfile(w io.Writer, p profile.Profile) {
	fmt.Fprintln(w, "PROFILE")
	field := func(label, value string) {
		if value == "" {
			value = "-"
		}
		fmt.Fprintf(w, "  %-14s %s\n", label+":", value)
	}
	field("Name", p.Name)
	field("Display name", p.DisplayName)
	field("About", p.About)
	field("Website", p.Website)
	field("Categories", p.Categories)
	field("Business type", businessTypeLabel(p.BusinessType))
	field("Picture", p.PictureURL)
	field("Banner", p.BannerURL)
	field("Public key", p.PublicKey)
	fmt.Fprintln(w)

	if p.ProfilePublished {
		fmt.Fprintln(w, "  ✓ Published")
	} else {
		fmt.Fprintln(w, "  ⚠️  Not published (run 'merchant-connect profile republish')")
	}
}

func businessTypeLabel(value string) string {
	for _, bt := range profile.BusinessTypes {
		if bt.Value == value {
			return bt.Label
		}
	}
	return value
}

func printStatus(w io.Writer, r *commands.StatusResult) {
	fmt.Fprintln(w, "BACKEND")
	fmt.Fprintf(w, "  %s  %s\n", r.BackendURL, r.Backend)
	fmt.Fprintln(w)

	if r.Backend == probe.Offline {
		fmt.Fprintln(w, offlineBanner(r.BackendURL))
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "SQUARE")
	if !r.Connected {
		fmt.Fprintln(w, "  ⚠️  Not connected (run 'merchant-connect connect')")
		return
	}
	fmt.Fprintf(w, "  ✓ Connected as merchant %s\n", r.MerchantID)
	fmt.Fprintf(w, "  Session expires %s\n", r.ExpiresAt.Local().Format(time.RFC822))
	if r.Restore.LoadErr != nil {
		fmt.Fprintf(w, "  ⚠️  Profile not loaded: %v\n", r.Restore.LoadErr)
		return
	}
	fmt.Fprintln(w)
	printProfile(w, r.Profile)
}

func offlineBanner(backendURL string) string {
	return notify.Banner(
		"Backend offline",
		[]string{"Cannot reach " + backendURL + "."},
		"Run 'merchant-connect ping --watch' to wait for it, or 'merchant-connect config set-backend <url>'.",
	)
}

func printAlert(w io.Writer, alert string) {
	if alert == "" {
		return
	}
	fmt.Fprintln(w, notify.Banner("Square connection failed", []string{alert}, ""))
}

func printPublishOutcome(w io.Writer, o commands.PublishOutcome) {
	if o.OK {
		fmt.Fprintf(w, "  ✓ %s: %s\n", o.Resource, o.Message)
		return
	}
	fmt.Fprintf(w, "  ✗ %s: %s\n", o.Resource, o.Message)
}
